package ptcompiler

import (
	"fmt"

	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/models"
)

// Label is one node in a shortest-path search's parent chain: the edge
// that was relaxed to reach Node, plus the label it was relaxed from.
// Grounded on the teacher's searchPath/PriorityQueue (internal/routing/
// astar.go), minus the search itself — a router external to this compiler
// is expected to produce the chain; reconstruct.go only walks it back into
// a typed transition list, per spec.md §4.5.
type Label struct {
	Node   graphstore.NodeID
	Edge   graphstore.EdgeID // edge used to reach Node; zero for the search root
	Parent *Label
}

// Transition is one leg of a reconstructed itinerary, one per edge walked —
// spec.md §4.5 resolves a label chain into a transition per hop, never a
// consolidated multi-edge ride. FeedID is only ever populated for ENTER_PT
// and TRANSFER edges, read from platform_descriptor_by_edge; Trip is only
// ever populated for BOARD and ALIGHT edges. Origin marks the sentinel
// transition prepended ahead of an arrive_by=false reconstruction.
type Transition struct {
	Type       models.EdgeType
	FromNode   graphstore.NodeID
	ToNode     graphstore.NodeID
	Time       int
	Distance   float64
	Transfers  int
	FeedID     string
	Trip       *models.TripDescriptor
	ValidityID int
	Origin     bool
}

// ReconstructPath walks a label chain from last back to the search root and
// returns it as spec.md §4.5 describes. arrive_by=true walks child-to-parent
// and reverses the result into chronological travel order. arrive_by=false
// prepends a sentinel transition for last before walking ancestors, and does
// not reverse — the literal contract, not a guessed-at normalization.
// Every hop's actual edge endpoints are checked against the expected
// (parent, child) orientation; a mismatch aborts with an error rather than
// silently dropping the hop.
func ReconstructPath(g graphstore.Graph, tables *sideTables, last *Label, arriveBy bool) ([]Transition, error) {
	if last == nil {
		return nil, nil
	}

	var out []Transition
	if !arriveBy {
		out = append(out, Transition{Origin: true, FromNode: last.Node, ToNode: last.Node})
	}

	for l := last; l != nil && l.Parent != nil; l = l.Parent {
		t, err := buildTransition(g, tables, l)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	if arriveBy {
		reverseTransitions(out)
	}

	return out, nil
}

// buildTransition resolves one label-chain hop into a Transition, checking
// that the edge's real endpoints match the expected (parent, child)
// orientation before trusting its attributes.
func buildTransition(g graphstore.Graph, tables *sideTables, l *Label) (Transition, error) {
	attrs, ok := g.EdgeAttrs(l.Edge)
	if !ok {
		return Transition{}, fmt.Errorf("reconstruct path: no attributes recorded for edge %d", l.Edge)
	}

	from, to, ok := g.Endpoints(l.Edge)
	if !ok {
		return Transition{}, fmt.Errorf("reconstruct path: no endpoints recorded for edge %d", l.Edge)
	}
	if from != l.Parent.Node || to != l.Node {
		return Transition{}, fmt.Errorf(
			"reconstruct path: reconstruction endpoint mismatch on edge %d: got (%d -> %d), want (%d -> %d)",
			l.Edge, from, to, l.Parent.Node, l.Node,
		)
	}

	t := Transition{
		Type:       attrs.Type,
		FromNode:   from,
		ToNode:     to,
		Time:       attrs.Time,
		Distance:   attrs.Distance,
		Transfers:  attrs.Transfers,
		ValidityID: attrs.ValidityID,
	}

	switch attrs.Type {
	case models.EnterPT, models.Transfer:
		if desc, ok := tables.platformDescriptorByEdge[l.Edge]; ok {
			t.FeedID = desc.FeedID
		}
	case models.Board, models.Alight:
		if trip := tripForEdge(tables, attrs.Type, l.Edge); trip != nil {
			t.Trip = trip
		}
	}

	return t, nil
}

func reverseTransitions(t []Transition) {
	for i, j := 0, len(t)-1; i < j; i, j = i+1, j-1 {
		t[i], t[j] = t[j], t[i]
	}
}

// tripForEdge looks up which trip a BOARD or ALIGHT edge belongs to by
// scanning the trip's recorded board/alight edges. Side tables are keyed by
// trip, not by edge, since a single trip's edges are the common lookup
// direction (realtime injection, reconstruction labeling); this is a linear
// scan over every trip's recorded edges.
func tripForEdge(tables *sideTables, edgeType models.EdgeType, edge graphstore.EdgeID) *models.TripDescriptor {
	var table map[tripKey][]graphstore.EdgeID
	switch edgeType {
	case models.Board:
		table = tables.boardEdgesForTrip
	case models.Alight:
		table = tables.alightEdgesForTrip
	default:
		return nil
	}
	for key, edges := range table {
		for _, e := range edges {
			if e == edge {
				trip := tables.tripDescriptors[key]
				return &trip
			}
		}
	}
	return nil
}
