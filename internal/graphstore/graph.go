// Package graphstore defines the "underlying routable-graph store"
// external collaborator spec.md §6 specifies (node table, edge table, edge
// attribute bitfields) and ships a default in-memory implementation so the
// compiler can be built and tested without a real database behind it.
package graphstore

import "github.com/passbi/gtfsgraph/internal/models"

// NodeID identifies a node. Ids are allocated from a monotonically
// increasing counter initialized to the graph's pre-existing node count
// (spec.md §5).
type NodeID int64

// EdgeID identifies an edge.
type EdgeID int64

// Graph is the external graph-store collaborator spec.md §6 describes:
// create-edge, set/get typed attributes, enumerate outgoing/incoming edges
// by node. The compiler never reaches inside a concrete implementation; it
// only calls this interface, so any store (in-memory, Postgres-backed,
// whatever a deployment wants) can sit behind it.
type Graph interface {
	// NodeCount returns the number of nodes currently in the graph.
	NodeCount() int
	// CreateNode allocates a new node at the given coordinates and returns
	// its id.
	CreateNode(lat, lon float64) NodeID
	// NodeCoords returns the coordinates a node was created with.
	NodeCoords(id NodeID) (lat, lon float64)
	// CreateEdge allocates a new directed edge from -> to and returns its
	// id. Attributes are set separately via SetEdgeAttrs.
	CreateEdge(from, to NodeID) EdgeID
	// SetEdgeAttrs overwrites the attribute bundle stored on id.
	SetEdgeAttrs(id EdgeID, attrs models.EdgeAttrs)
	// EdgeAttrs returns the attribute bundle stored on id.
	EdgeAttrs(id EdgeID) (models.EdgeAttrs, bool)
	// Endpoints returns the (from, to) nodes of id.
	Endpoints(id EdgeID) (from, to NodeID, ok bool)
	// OutEdges returns the ids of edges leaving node, in creation order.
	OutEdges(node NodeID) []EdgeID
	// InEdges returns the ids of edges arriving at node, in creation
	// order.
	InEdges(node NodeID) []EdgeID
}
