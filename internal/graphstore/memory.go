package graphstore

import "github.com/passbi/gtfsgraph/internal/models"

type coord struct{ lat, lon float64 }

type edge struct {
	from, to NodeID
	attrs    models.EdgeAttrs
	hasAttrs bool
}

// InMemory is a plain adjacency-list graph store, grounded on the teacher's
// internal/graph/memory.go InMemoryGraph (Nodes/Edges maps kept in process
// memory, loaded once and queried many times). Unlike the teacher's version
// this is not a sync.Once global: one compiler build owns one InMemory.
type InMemory struct {
	nodes []coord
	edges []edge
	out   map[NodeID][]EdgeID
	in    map[NodeID][]EdgeID
}

// NewInMemory returns an empty graph store.
func NewInMemory() *InMemory {
	return &InMemory{
		out: make(map[NodeID][]EdgeID),
		in:  make(map[NodeID][]EdgeID),
	}
}

func (g *InMemory) NodeCount() int {
	return len(g.nodes)
}

func (g *InMemory) CreateNode(lat, lon float64) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, coord{lat, lon})
	return id
}

func (g *InMemory) NodeCoords(id NodeID) (lat, lon float64) {
	c := g.nodes[id]
	return c.lat, c.lon
}

func (g *InMemory) CreateEdge(from, to NodeID) EdgeID {
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, edge{from: from, to: to})
	g.out[from] = append(g.out[from], id)
	g.in[to] = append(g.in[to], id)
	return id
}

func (g *InMemory) SetEdgeAttrs(id EdgeID, attrs models.EdgeAttrs) {
	e := g.edges[id]
	e.attrs = attrs
	e.hasAttrs = true
	g.edges[id] = e
}

func (g *InMemory) EdgeAttrs(id EdgeID) (models.EdgeAttrs, bool) {
	e := g.edges[id]
	return e.attrs, e.hasAttrs
}

func (g *InMemory) Endpoints(id EdgeID) (from, to NodeID, ok bool) {
	if int(id) < 0 || int(id) >= len(g.edges) {
		return 0, 0, false
	}
	e := g.edges[id]
	return e.from, e.to, true
}

func (g *InMemory) OutEdges(node NodeID) []EdgeID {
	return g.out[node]
}

func (g *InMemory) InEdges(node NodeID) []EdgeID {
	return g.in[node]
}
