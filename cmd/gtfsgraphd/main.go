package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/passbi/gtfsgraph/internal/apiserver"
	"github.com/passbi/gtfsgraph/internal/graphstore"
	"github.com/passbi/gtfsgraph/internal/gtfs"
	"github.com/passbi/gtfsgraph/internal/ptcompiler"
	"github.com/passbi/gtfsgraph/internal/streetnet"
)

func main() {
	log.Println("starting gtfsgraphd...")

	cfg := apiserver.LoadConfigFromEnv()

	g := graphstore.NewInMemory()

	streets, err := streetnet.Load(g, cfg.StreetNodes, cfg.StreetEdges)
	if err != nil {
		log.Fatalf("failed to load street network: %v", err)
	}
	log.Println("street network loaded")

	feed, transfers, err := gtfs.ParseGTFSDir(cfg.FeedID, cfg.GTFSDir)
	if err != nil {
		log.Fatalf("failed to parse GTFS feed: %v", err)
	}
	log.Printf("parsed GTFS feed %s", cfg.FeedID)

	compiler := ptcompiler.NewCompiler(g, feed, transfers, streets)
	server := apiserver.NewServer(g, feed, transfers, compiler)

	app := fiber.New(fiber.Config{
		AppName:      "gtfsgraphd",
		ReadTimeout:  time.Duration(cfg.ReadTimeoutS) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutS) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	app.Get("/health", server.Health)
	app.Post("/build", server.Build)
	app.Post("/realtime/board", server.RealtimeBoard)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "endpoint not found"})
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	if err := app.Listen(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
