package ptcompiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/gtfs"
	"github.com/passbi/gtfsgraph/internal/interning"
	"github.com/passbi/gtfsgraph/internal/models"
)

func twoStopFeed() (*fakeFeed, *fakeTransfers) {
	feed := newFakeFeed("F1")
	feed.routes = []gtfs.Route{{RouteID: "R1", RouteType: 3}}
	feed.trips = []gtfs.Trip{{TripID: "T1", RouteID: "R1", ServiceID: "WEEKDAY"}}
	feed.stops = []gtfs.Stop{{StopID: "A"}, {StopID: "B"}}
	feed.stopTimes["T1"] = []gtfs.StopTime{
		{TripID: "T1", StopSequence: 0, StopID: "A", ArrivalTime: 100, DepartureTime: 100},
		{TripID: "T1", StopSequence: 1, StopID: "B", ArrivalTime: 200, DepartureTime: 200},
	}
	return feed, newFakeTransfers()
}

func TestCreateTripsEmitsBoardHopAlightForSimpleTrip(t *testing.T) {
	feed, transfers := twoStopFeed()
	g := graphstore.NewInMemory()
	storage := interning.NewStorage()
	tables := newSideTables()

	res, err := createTrips(g, feed, transfers, storage, tables)
	require.NoError(t, err)

	require.Equal(t, 1, res.tripsEmitted)
	key := tripKey{FeedID: "F1", TripID: "T1"}
	onboard := tables.onBoardNode[key]
	require.Len(t, onboard, 2)

	boardEdges := tables.boardEdgesForTrip[key]
	alightEdges := tables.alightEdgesForTrip[key]
	require.Len(t, boardEdges, 2)
	require.Len(t, alightEdges, 2)
	for _, e := range boardEdges {
		attrs, ok := g.EdgeAttrs(e)
		require.True(t, ok)
		assert.Equal(t, models.Board, attrs.Type)
		assert.Equal(t, 1, attrs.Transfers)
	}
	for _, e := range alightEdges {
		attrs, ok := g.EdgeAttrs(e)
		require.True(t, ok)
		assert.Equal(t, models.Alight, attrs.Type)
	}

	// onboard[0] has two out-edges: the ALIGHT at stop 0 (created first) and
	// the HOP to stop 1.
	outEdges := g.OutEdges(onboard[0])
	require.Len(t, outEdges, 2)
	attrs, ok := g.EdgeAttrs(outEdges[1])
	require.True(t, ok)
	assert.Equal(t, models.Hop, attrs.Type)
	assert.Equal(t, 100, attrs.Time) // arrivals[1] - departs[0] = 200 - 100
}

func TestCreateTripsDwellOnlyAtIntermediateStops(t *testing.T) {
	feed := newFakeFeed("F1")
	feed.routes = []gtfs.Route{{RouteID: "R1", RouteType: 3}}
	feed.trips = []gtfs.Trip{{TripID: "T1", RouteID: "R1", ServiceID: "WEEKDAY"}}
	feed.stops = []gtfs.Stop{{StopID: "A"}, {StopID: "B"}, {StopID: "C"}}
	feed.stopTimes["T1"] = []gtfs.StopTime{
		{TripID: "T1", StopSequence: 0, StopID: "A", ArrivalTime: 100, DepartureTime: 100},
		{TripID: "T1", StopSequence: 1, StopID: "B", ArrivalTime: 200, DepartureTime: 230},
		{TripID: "T1", StopSequence: 2, StopID: "C", ArrivalTime: 300, DepartureTime: 300},
	}
	transfers := newFakeTransfers()

	g := graphstore.NewInMemory()
	storage := interning.NewStorage()
	tables := newSideTables()

	_, err := createTrips(g, feed, transfers, storage, tables)
	require.NoError(t, err)

	// 3 stops: 3 BOARD + 3 ALIGHT + 1 DWELL (stop B only) + 2 HOP = 9 edges.
	const totalEdges = 9
	var dwellCount int
	for id := graphstore.EdgeID(0); id < totalEdges; id++ {
		attrs, ok := g.EdgeAttrs(id)
		require.True(t, ok)
		if attrs.Type == models.Dwell {
			dwellCount++
			assert.Equal(t, 30, attrs.Time)
		}
	}
	assert.Equal(t, 1, dwellCount, "dwell should only appear at the intermediate stop B")
}

func TestCreateTripsExpandsFrequencies(t *testing.T) {
	feed := newFakeFeed("F1")
	feed.routes = []gtfs.Route{{RouteID: "R1", RouteType: 3}}
	feed.trips = []gtfs.Trip{{TripID: "T1", RouteID: "R1", ServiceID: "WEEKDAY"}}
	feed.stops = []gtfs.Stop{{StopID: "A"}, {StopID: "B"}}
	feed.stopTimes["T1"] = []gtfs.StopTime{
		{TripID: "T1", StopSequence: 0, StopID: "A", ArrivalTime: 0, DepartureTime: 0},
		{TripID: "T1", StopSequence: 1, StopID: "B", ArrivalTime: 100, DepartureTime: 100},
	}
	feed.frequencies = []gtfs.Frequency{
		{TripID: "T1", StartTime: 0, EndTime: 1800, HeadwaySecs: 600},
	}
	transfers := newFakeTransfers()

	g := graphstore.NewInMemory()
	storage := interning.NewStorage()
	tables := newSideTables()

	res, err := createTrips(g, feed, transfers, storage, tables)
	require.NoError(t, err)

	assert.Equal(t, 3, res.tripsEmitted) // 0, 600, 1200
	assert.Contains(t, tables.onBoardNode, tripKey{FeedID: "F1", TripID: "T1#0"})
	assert.Contains(t, tables.onBoardNode, tripKey{FeedID: "F1", TripID: "T1#1"})
	assert.Contains(t, tables.onBoardNode, tripKey{FeedID: "F1", TripID: "T1#2"})
}

func TestCreateTripsAppliesDayShiftPastMidnight(t *testing.T) {
	feed := newFakeFeed("F1")
	feed.routes = []gtfs.Route{{RouteID: "R1", RouteType: 3}}
	feed.trips = []gtfs.Trip{{TripID: "LATE", RouteID: "R1", ServiceID: "WEEKDAY"}}
	feed.stops = []gtfs.Stop{{StopID: "A"}, {StopID: "B"}}
	feed.stopTimes["LATE"] = []gtfs.StopTime{
		{TripID: "LATE", StopSequence: 0, StopID: "A", ArrivalTime: 90000, DepartureTime: 90000},
		{TripID: "LATE", StopSequence: 1, StopID: "B", ArrivalTime: 90100, DepartureTime: 90100},
	}
	transfers := newFakeTransfers()

	g := graphstore.NewInMemory()
	storage := interning.NewStorage()
	tables := newSideTables()

	_, err := createTrips(g, feed, transfers, storage, tables)
	require.NoError(t, err)

	require.Equal(t, 1, storage.ValidityCount())
	v := storage.Validity(0)
	// feedDayCount spans Jan 5 - Jan 11 inclusive: 7 days, so a trip active
	// every day shifted left by 1 loses day 6 (shifted past the end) and
	// gains nothing at day index 0 (shift-in is always 0), i.e. bit 0 is
	// clear even though the service itself runs every day.
	assert.False(t, v.Bits.Test(0))
	assert.True(t, v.Bits.Test(1))
}

func TestWireBlockTransfersChainsSameBlock(t *testing.T) {
	feed := newFakeFeed("F1")
	feed.routes = []gtfs.Route{{RouteID: "R1", RouteType: 3}}
	feed.trips = []gtfs.Trip{
		{TripID: "T1", RouteID: "R1", ServiceID: "WEEKDAY", BlockID: "BLK"},
		{TripID: "T2", RouteID: "R1", ServiceID: "WEEKDAY", BlockID: "BLK"},
	}
	feed.stops = []gtfs.Stop{{StopID: "A"}, {StopID: "B"}, {StopID: "C"}}
	feed.stopTimes["T1"] = []gtfs.StopTime{
		{TripID: "T1", StopSequence: 0, StopID: "A", ArrivalTime: 0, DepartureTime: 0},
		{TripID: "T1", StopSequence: 1, StopID: "B", ArrivalTime: 100, DepartureTime: 100},
	}
	feed.stopTimes["T2"] = []gtfs.StopTime{
		{TripID: "T2", StopSequence: 0, StopID: "B", ArrivalTime: 150, DepartureTime: 150},
		{TripID: "T2", StopSequence: 1, StopID: "C", ArrivalTime: 250, DepartureTime: 250},
	}
	transfers := newFakeTransfers()

	g := graphstore.NewInMemory()
	storage := interning.NewStorage()
	tables := newSideTables()

	res, err := createTrips(g, feed, transfers, storage, tables)
	require.NoError(t, err)

	assert.Equal(t, 1, res.blocksEmitted)

	t1Onboard := tables.onBoardNode[tripKey{FeedID: "F1", TripID: "T1"}]
	edges := g.OutEdges(t1Onboard[len(t1Onboard)-1])
	found := false
	for _, e := range edges {
		attrs, ok := g.EdgeAttrs(e)
		if ok && attrs.Type == models.Hop && attrs.Time == 50 {
			found = true
		}
	}
	assert.True(t, found, "expected a block-continuation HOP edge with 50s wait between T1 and T2")
}

func TestCreateTripsFailsOnBlockWithMixedFrequencyAndSchedule(t *testing.T) {
	feed := newFakeFeed("F1")
	feed.routes = []gtfs.Route{{RouteID: "R1", RouteType: 3}}
	feed.trips = []gtfs.Trip{
		{TripID: "T1", RouteID: "R1", ServiceID: "WEEKDAY", BlockID: "BLK"},
		{TripID: "T2", RouteID: "R1", ServiceID: "WEEKDAY", BlockID: "BLK"},
	}
	feed.stops = []gtfs.Stop{{StopID: "A"}, {StopID: "B"}, {StopID: "C"}}
	feed.stopTimes["T1"] = []gtfs.StopTime{
		{TripID: "T1", StopSequence: 0, StopID: "A", ArrivalTime: 0, DepartureTime: 0},
		{TripID: "T1", StopSequence: 1, StopID: "B", ArrivalTime: 100, DepartureTime: 100},
	}
	feed.stopTimes["T2"] = []gtfs.StopTime{
		{TripID: "T2", StopSequence: 0, StopID: "B", ArrivalTime: 150, DepartureTime: 150},
		{TripID: "T2", StopSequence: 1, StopID: "C", ArrivalTime: 250, DepartureTime: 250},
	}
	feed.frequencies = []gtfs.Frequency{
		{TripID: "T2", StartTime: 0, EndTime: 600, HeadwaySecs: 300},
	}
	transfers := newFakeTransfers()

	g := graphstore.NewInMemory()
	storage := interning.NewStorage()
	tables := newSideTables()

	_, err := createTrips(g, feed, transfers, storage, tables)

	require.Error(t, err)
	assert.Contains(t, err.Error(), blockFrequencyMismatchMsg)
}
