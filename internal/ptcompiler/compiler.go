package ptcompiler

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/passbi/gtfsgraph/internal/geo"
	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/gtfs"
	"github.com/passbi/gtfsgraph/internal/interning"
	"github.com/passbi/gtfsgraph/internal/models"
)

// Compiler runs the full GTFS-to-time-expanded-graph pipeline against a
// graphstore.Graph. One Compiler is built per compilation run; Storage is
// not reused across runs since operating_day_patterns/writable_time_zones
// ids are only meaningful within the Validity set a single feed+window
// produced them from (spec.md §9).
type Compiler struct {
	Graph     graphstore.Graph
	Feed      gtfs.Feed
	Transfers gtfs.Transfers
	Streets   geo.LocationIndex
	Storage   *interning.Storage

	tables *sideTables
}

// NewCompiler wires up a Compiler against its four external collaborators
// (spec.md §6): the graph store, the GTFS feed, the transfer rules, and a
// location index over the pedestrian street network.
func NewCompiler(g graphstore.Graph, feed gtfs.Feed, transfers gtfs.Transfers, streets geo.LocationIndex) *Compiler {
	return &Compiler{
		Graph:     g,
		Feed:      feed,
		Transfers: transfers,
		Streets:   streets,
		Storage:   interning.NewStorage(),
		tables:    newSideTables(),
	}
}

// Compile runs the pipeline spec.md §4 describes in order:
// ConnectStopsToStreetNetwork -> CreateTrips -> WireUpStops ->
// InsertGtfsTransfers, and returns a BuildReport an operator would want
// logged and returned from the build API (see SPEC_FULL.md "Supplemented
// Features").
func (c *Compiler) Compile() (models.BuildReport, error) {
	runID := uuid.NewString()
	started := time.Now()
	log.Printf("build %s: starting compile for feed %s", runID, c.Feed.ID())

	connect, err := connectStopsToStreetNetwork(c.Graph, c.Streets, c.Feed.Stops(), c.tables)
	if err != nil {
		return models.BuildReport{}, fmt.Errorf("build %s: %w", runID, err)
	}
	log.Printf("build %s: connected %d stops to the street network (%d standalone)", runID, connect.stopsConnected, connect.standaloneStops)

	trips, err := createTrips(c.Graph, c.Feed, c.Transfers, c.Storage, c.tables)
	if err != nil {
		return models.BuildReport{}, fmt.Errorf("build %s: %w", runID, err)
	}
	log.Printf("build %s: emitted %d trip instances (%d block transfers)", runID, trips.tripsEmitted, trips.blocksEmitted)

	wiring := wireUpStops(c.Graph, c.tables)

	transferResult := insertGtfsTransfers(c.Graph, c.Feed, c.Transfers, c.Storage, c.tables)
	log.Printf("build %s: inserted %d transfer edges", runID, transferResult.edgesCreated)

	edgesByType := make(map[models.EdgeType]int)
	for t, n := range wiring.edgesByType {
		edgesByType[t] += n
	}
	edgesByType[models.Transfer] += transferResult.edgesCreated

	report := models.BuildReport{
		RunID:                runID,
		StartedAt:            started,
		Duration:             time.Since(started),
		StopsConnected:       connect.stopsConnected,
		StandaloneStops:      connect.standaloneStops,
		TripsEmitted:         trips.tripsEmitted,
		BlocksEmitted:        trips.blocksEmitted,
		EdgesByType:          edgesByType,
		OperatingDayPatterns: c.Storage.ValidityCount(),
		TimeZonesInterned:    c.Storage.TimeZoneCount(),
	}

	log.Printf("build %s: finished in %s", runID, report.Duration)
	return report, nil
}

// AddDelayedBoard stitches a realtime-delayed boarding into the compiled
// graph (spec.md §4.4). Compile must have already run.
func (c *Compiler) AddDelayedBoard(b DelayedBoarding) (graphstore.EdgeID, error) {
	return AddDelayedBoardEdge(c.Graph, c.Storage, c.tables, c.Feed, b)
}

// ReconstructPath walks a router's label chain into a typed transition list
// (spec.md §4.5). Compile must have already run.
func (c *Compiler) ReconstructPath(last *Label, arriveBy bool) ([]Transition, error) {
	return ReconstructPath(c.Graph, c.tables, last, arriveBy)
}
