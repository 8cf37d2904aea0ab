// Package geo implements the "walk network location index" external
// collaborator from spec.md §6: given a GTFS stop's coordinates, find the
// nearest node on the pedestrian street network (or report that none exists
// within range). Grounded on the teacher's
// internal/graph/memory.go (InMemoryGraph.FindNearestNodes,
// haversineDistanceFast): a brute-force haversine scan over every candidate
// node. The teacher's version branches its search radius per travel mode
// (walk/bike/car); spec.md has no such distinction at this layer, so one
// configurable radius replaces the per-mode table.
package geo

import (
	"math"
	"sort"

	"github.com/passbi/gtfsgraph/internal/graphstore"
)

const earthRadiusMeters = 6371000.0

// Candidate is one queryable node on the pedestrian street network.
type Candidate struct {
	Node graphstore.NodeID
	Lat  float64
	Lon  float64
}

// Snap is the result of querying the index for a stop's coordinates: either
// a closest node within range, or nothing (spec.md §4.1's "no street node
// found").
type Snap struct {
	node  graphstore.NodeID
	valid bool
	distM float64
}

// IsValid reports whether a street node was found within range.
func (s Snap) IsValid() bool { return s.valid }

// ClosestNode returns the matched node. Only meaningful when IsValid.
func (s Snap) ClosestNode() graphstore.NodeID { return s.node }

// DistanceMeters returns the great-circle distance to the matched node.
// Only meaningful when IsValid.
func (s Snap) DistanceMeters() float64 { return s.distM }

// NewSnap builds a valid Snap directly, for callers (such as a cache
// layer) that already know the matched node and distance.
func NewSnap(node graphstore.NodeID, distanceM float64) Snap {
	return Snap{node: node, valid: true, distM: distanceM}
}

// InvalidSnap returns a Snap reporting no match.
func InvalidSnap() Snap {
	return Snap{}
}

// LocationIndex answers nearest-node queries for the pedestrian street
// network.
type LocationIndex interface {
	// Closest returns the nearest street node to (lat, lon) within
	// maxDistanceM, or an invalid Snap if none exists.
	Closest(lat, lon, maxDistanceM float64) Snap
}

// BruteForceIndex is the default LocationIndex: a haversine scan over every
// candidate, exactly as the teacher's FindNearestNodes does for a single
// mode's radius.
type BruteForceIndex struct {
	candidates []Candidate
}

// NewBruteForceIndex builds an index over the given street network nodes.
func NewBruteForceIndex(candidates []Candidate) *BruteForceIndex {
	cp := make([]Candidate, len(candidates))
	copy(cp, candidates)
	return &BruteForceIndex{candidates: cp}
}

func (idx *BruteForceIndex) Closest(lat, lon, maxDistanceM float64) Snap {
	best := -1
	bestDist := math.MaxFloat64
	for i, c := range idx.candidates {
		d := haversineDistanceMeters(lat, lon, c.Lat, c.Lon)
		if d <= maxDistanceM && d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return Snap{}
	}
	return Snap{node: idx.candidates[best].Node, valid: true, distM: bestDist}
}

// KNearest returns up to k candidates within maxDistanceM, nearest first.
// The stop-to-street connector does not use it (it calls Closest, since
// spec.md §4.1 only requires the single closest node), and no other code
// outside the tests calls it.
func (idx *BruteForceIndex) KNearest(lat, lon, maxDistanceM float64, k int) []Candidate {
	type scored struct {
		c Candidate
		d float64
	}
	var found []scored
	for _, c := range idx.candidates {
		d := haversineDistanceMeters(lat, lon, c.Lat, c.Lon)
		if d <= maxDistanceM {
			found = append(found, scored{c, d})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].d < found[j].d })
	if len(found) > k {
		found = found[:k]
	}
	out := make([]Candidate, len(found))
	for i, f := range found {
		out[i] = f.c
	}
	return out
}

func haversineDistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
