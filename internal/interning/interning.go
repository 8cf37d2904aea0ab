// Package interning implements the two process-lifetime interning
// dictionaries spec.md §3/§5/§9 describes: operating_day_patterns (Validity
// -> dense id) and writable_time_zones (FeedIdWithTimezone -> dense id).
// Both are owned by a single Storage value passed explicitly by callers;
// spec.md §9 is explicit that these must never be package-level globals,
// so there is no singleton here (a deliberate deviation from the teacher's
// sync.Once-backed singletons in internal/db and internal/cache, which
// model a real shared external resource rather than a per-process
// dictionary).
package interning

import "github.com/passbi/gtfsgraph/internal/bitset"

// Validity is (bitset, zone_id, feed_start_date) from spec.md §3.
type Validity struct {
	Bits          *bitset.Set
	ZoneID        string
	FeedStartDate string // formatted constant identifying the feed's calendar window
}

func (v Validity) key() string {
	return v.ZoneID + "\x00" + v.FeedStartDate + "\x00" + v.Bits.Key()
}

// FeedIdWithTimezone is (feed_id, zone_id) from spec.md §3.
type FeedIdWithTimezone struct {
	FeedID string
	ZoneID string
}

func (f FeedIdWithTimezone) key() string {
	return f.FeedID + "\x00" + f.ZoneID
}

// Storage owns the two interning dictionaries for one compiler build.
// Insertion order determines the ids handed out, per spec.md §5/§9 — tests
// depend on this, so Storage must not reorder or deduplicate beyond exact
// structural equality.
type Storage struct {
	validities     []Validity
	validityIndex  map[string]int
	timeZones      []FeedIdWithTimezone
	timeZoneIndex  map[string]int
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{
		validityIndex: make(map[string]int),
		timeZoneIndex: make(map[string]int),
	}
}

// InternValidity returns v's dense id, inserting it on first sight.
// Inserting the same Validity twice yields the same id (spec.md §8
// property 7: idempotence of interning).
func (s *Storage) InternValidity(v Validity) int {
	k := v.key()
	if id, ok := s.validityIndex[k]; ok {
		return id
	}
	id := len(s.validities)
	s.validities = append(s.validities, v)
	s.validityIndex[k] = id
	return id
}

// Validity returns the Validity previously interned at id.
func (s *Storage) Validity(id int) Validity {
	return s.validities[id]
}

// ValidityCount returns the number of distinct Validity values interned so
// far.
func (s *Storage) ValidityCount() int {
	return len(s.validities)
}

// InternTimeZone returns f's dense id, inserting it on first sight.
func (s *Storage) InternTimeZone(f FeedIdWithTimezone) int {
	k := f.key()
	if id, ok := s.timeZoneIndex[k]; ok {
		return id
	}
	id := len(s.timeZones)
	s.timeZones = append(s.timeZones, f)
	s.timeZoneIndex[k] = id
	return id
}

// TimeZone returns the FeedIdWithTimezone previously interned at id.
func (s *Storage) TimeZone(id int) FeedIdWithTimezone {
	return s.timeZones[id]
}

// TimeZoneCount returns the number of distinct FeedIdWithTimezone values
// interned so far.
func (s *Storage) TimeZoneCount() int {
	return len(s.timeZones)
}
