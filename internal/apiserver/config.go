// Package apiserver exposes the compiler as an HTTP service: POST /build
// runs a full compile against a configured feed and street network, and
// POST /realtime/board stitches a delayed boarding into the most recent
// build. Grounded on the teacher's cmd/api/main.go + internal/api
// (fiber.New with recover/logger/cors middleware, getEnv-sourced Config,
// graceful shutdown on SIGTERM).
package apiserver

import (
	"os"
	"strconv"
)

// Config holds the server's environment-sourced settings.
type Config struct {
	Port          string
	GTFSDir       string
	StreetNodes   string
	StreetEdges   string
	FeedID        string
	ReadTimeoutS  int
	WriteTimeoutS int
}

// LoadConfigFromEnv loads Config from the environment, falling back to
// defaults suited to local development.
func LoadConfigFromEnv() *Config {
	readTimeout, _ := strconv.Atoi(getEnv("API_READ_TIMEOUT_S", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("API_WRITE_TIMEOUT_S", "120"))

	return &Config{
		Port:          getEnv("API_PORT", "8080"),
		GTFSDir:       getEnv("GTFS_DIR", "./testdata/gtfs"),
		StreetNodes:   getEnv("STREET_NODES_CSV", "./testdata/street_nodes.csv"),
		StreetEdges:   getEnv("STREET_EDGES_CSV", "./testdata/street_edges.csv"),
		FeedID:        getEnv("FEED_ID", "default"),
		ReadTimeoutS:  readTimeout,
		WriteTimeoutS: writeTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
