// Package platform defines PlatformDescriptor, the tagged value spec.md §3
// describes as the unit of transfer granularity: a stop hosts one platform
// per route_type, unless route-specific transfer rules exist for it, in
// which case it hosts one platform per route_id.
package platform

// Kind discriminates the two PlatformDescriptor variants. A plain int
// constant rather than an interface keeps equality structural (two
// Descriptors are `==` iff Kind and every discriminator field match) and
// avoids runtime type assertions, per spec.md §9 ("avoid runtime type
// tests... match on the tag").
type Kind int

const (
	// RouteType is used when no route-specific transfer rule mentions the
	// stop.
	RouteType Kind = iota
	// Route is used when the stop has at least one route-specific
	// transfer rule.
	Route
)

// Descriptor is the PlatformDescriptor tagged value. Comparable with ==;
// RouteID is the empty string for RouteType descriptors and RouteTypeVal is
// unused (zero) for Route descriptors, so two Descriptors of different
// Kind never compare equal by accident even if their numeric fields
// happen to coincide.
type Descriptor struct {
	Kind        Kind
	FeedID      string
	StopID      string
	RouteTypeVal int
	RouteID     string
}

// NewRouteType builds a RouteTypePlatform{feed_id, stop_id, route_type}.
func NewRouteType(feedID, stopID string, routeType int) Descriptor {
	return Descriptor{Kind: RouteType, FeedID: feedID, StopID: stopID, RouteTypeVal: routeType}
}

// NewRoute builds a RoutePlatform{feed_id, stop_id, route_id}.
func NewRoute(feedID, stopID, routeID string) Descriptor {
	return Descriptor{Kind: Route, FeedID: feedID, StopID: stopID, RouteID: routeID}
}

// MatchesRouteOrNil reports whether d matches the "to_route_id_or_null"
// predicate from spec.md §4.3.4: a nil/empty routeID matches any
// RouteType descriptor at the stop; a non-empty routeID matches only an
// equal Route descriptor.
func (d Descriptor) MatchesRouteOrNil(stopID string, routeID string) bool {
	if d.StopID != stopID {
		return false
	}
	if routeID == "" {
		return d.Kind == RouteType
	}
	return d.Kind == Route && d.RouteID == routeID
}
