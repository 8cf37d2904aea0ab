package apiserver

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/gtfs"
	"github.com/passbi/gtfsgraph/internal/models"
	"github.com/passbi/gtfsgraph/internal/ptcompiler"
)

// Server holds the process's single compiled graph. A real deployment
// would keep one per tenant/feed; this server is scoped to the one feed
// named in its Config, mirroring the teacher's single in-memory graph
// singleton (internal/graph.GetGraph) but owned by Server rather than a
// package-level global, per the same "no hidden singletons" rule
// interning.Storage follows.
type Server struct {
	mu        sync.RWMutex
	graph     graphstore.Graph
	feed      gtfs.Feed
	transfers gtfs.Transfers
	compiler  *ptcompiler.Compiler
	lastReport *models.BuildReport
}

// NewServer builds a Server against an already-constructed graph store and
// GTFS feed. The street network is loaded separately by main and passed to
// Build via the compiler.
func NewServer(g graphstore.Graph, feed gtfs.Feed, transfers gtfs.Transfers, compiler *ptcompiler.Compiler) *Server {
	return &Server{graph: g, feed: feed, transfers: transfers, compiler: compiler}
}

// Health reports process liveness.
func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Build runs the full compile pipeline and returns its BuildReport.
func (s *Server) Build(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.compiler.Compile()
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	s.lastReport = &report

	return c.JSON(report)
}

type delayedBoardRequest struct {
	FeedID                string `json:"feed_id"`
	TripID                string `json:"trip_id"`
	StopSequence          int    `json:"stop_sequence"`
	ActualDepartureSecond int    `json:"actual_departure_second"`
	ServiceDate           string `json:"service_date"` // YYYY-MM-DD
}

// RealtimeBoard implements spec.md §4.4's realtime injector endpoint: it
// stitches an ad-hoc delayed boarding into the most recent build.
func (s *Server) RealtimeBoard(c *fiber.Ctx) error {
	var req delayedBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastReport == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no build has run yet"})
	}

	serviceDate, parseErr := time.Parse("2006-01-02", req.ServiceDate)
	if parseErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid service_date, expected YYYY-MM-DD"})
	}

	edgeID, err := s.compiler.AddDelayedBoard(ptcompiler.DelayedBoarding{
		FeedID:                req.FeedID,
		TripID:                req.TripID,
		StopSequence:          req.StopSequence,
		ActualDepartureSecond: req.ActualDepartureSecond,
		ServiceDate:           serviceDate,
	})
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"edge_id": edgeID})
}
