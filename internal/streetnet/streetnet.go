// Package streetnet loads the pedestrian street network spec.md §4.1
// requires as the stop-to-street-network connector's target: plain
// lat/lon nodes plus undirected walk edges between them, loaded once into
// a graphstore.Graph and indexed for nearest-node queries. Grounded on the
// teacher's internal/gtfs CSV-ingestion idiom (parser.go's readCSV
// helper), applied to a much smaller two-file format since a walk network
// extract carries none of GTFS's relational structure.
package streetnet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/passbi/gtfsgraph/internal/geo"
	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/models"
)

// Load reads nodesPath (columns: node_id,lat,lon) and edgesPath (columns:
// from_node_id,to_node_id,distance_m), creates the corresponding nodes and
// bidirectional HOP/walk edges on g, and returns a LocationIndex over the
// newly created nodes.
func Load(g graphstore.Graph, nodesPath, edgesPath string) (geo.LocationIndex, error) {
	nodeIDs, candidates, err := loadNodes(g, nodesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load street network nodes: %w", err)
	}

	if err := loadEdges(g, nodeIDs, edgesPath); err != nil {
		return nil, fmt.Errorf("failed to load street network edges: %w", err)
	}

	return geo.NewBruteForceIndex(candidates), nil
}

func loadNodes(g graphstore.Graph, path string) (map[string]graphstore.NodeID, []geo.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, err
	}
	cols := columnIndex(header)

	ids := make(map[string]graphstore.NodeID)
	var candidates []geo.Candidate

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		extID := row[cols["node_id"]]
		lat, err := strconv.ParseFloat(row[cols["lat"]], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("node %s: bad lat: %w", extID, err)
		}
		lon, err := strconv.ParseFloat(row[cols["lon"]], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("node %s: bad lon: %w", extID, err)
		}

		id := g.CreateNode(lat, lon)
		ids[extID] = id
		candidates = append(candidates, geo.Candidate{Node: id, Lat: lat, Lon: lon})
	}

	return ids, candidates, nil
}

func loadEdges(g graphstore.Graph, ids map[string]graphstore.NodeID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return err
	}
	cols := columnIndex(header)

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		fromExt := row[cols["from_node_id"]]
		toExt := row[cols["to_node_id"]]
		dist, err := strconv.ParseFloat(row[cols["distance_m"]], 64)
		if err != nil {
			return fmt.Errorf("edge %s->%s: bad distance: %w", fromExt, toExt, err)
		}

		from, ok := ids[fromExt]
		if !ok {
			return fmt.Errorf("edge references unknown node %s", fromExt)
		}
		to, ok := ids[toExt]
		if !ok {
			return fmt.Errorf("edge references unknown node %s", toExt)
		}

		walkSeconds := int(dist / 1.4) // average pedestrian speed, meters/second

		fwd := g.CreateEdge(from, to)
		g.SetEdgeAttrs(fwd, models.EdgeAttrs{Access: true, Type: models.Hop, Time: walkSeconds, Distance: dist})

		back := g.CreateEdge(to, from)
		g.SetEdgeAttrs(back, models.EdgeAttrs{Access: true, Type: models.Hop, Time: walkSeconds, Distance: dist})
	}

	return nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	return cols
}
