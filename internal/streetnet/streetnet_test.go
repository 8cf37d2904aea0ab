package streetnet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/gtfsgraph/internal/graphstore"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadCreatesNodesAndBidirectionalEdges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nodes.csv", "node_id,lat,lon\n"+
		"N1,48.85,2.35\n"+
		"N2,48.86,2.36\n")
	writeFile(t, dir, "edges.csv", "from_node_id,to_node_id,distance_m\nN1,N2,140\n")

	g := graphstore.NewInMemory()
	idx, err := Load(g, filepath.Join(dir, "nodes.csv"), filepath.Join(dir, "edges.csv"))
	require.NoError(t, err)

	assert.Equal(t, 2, g.NodeCount())

	snap := idx.Closest(48.85, 2.35, 1000)
	require.True(t, snap.IsValid())

	out := g.OutEdges(snap.ClosestNode())
	require.Len(t, out, 1)
	attrs, ok := g.EdgeAttrs(out[0])
	require.True(t, ok)
	assert.Equal(t, 100, attrs.Time) // 140m / 1.4 m/s

	other := idx.Closest(48.86, 2.36, 1000)
	require.True(t, other.IsValid())
	backEdges := g.OutEdges(other.ClosestNode())
	require.Len(t, backEdges, 1)
}

func TestLoadErrorsOnEdgeReferencingUnknownNode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nodes.csv", "node_id,lat,lon\nN1,48.85,2.35\n")
	writeFile(t, dir, "edges.csv", "from_node_id,to_node_id,distance_m\nN1,GHOST,10\n")

	g := graphstore.NewInMemory()
	_, err := Load(g, filepath.Join(dir, "nodes.csv"), filepath.Join(dir, "edges.csv"))
	assert.Error(t, err)
}

func TestLoadErrorsOnMissingNodesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "edges.csv", "from_node_id,to_node_id,distance_m\n")

	g := graphstore.NewInMemory()
	_, err := Load(g, filepath.Join(dir, "nodes.csv"), filepath.Join(dir, "edges.csv"))
	assert.Error(t, err)
}
