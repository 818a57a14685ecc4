// Package main provides the compliance-api server.
//
// This is a standalone REST API server over the flight store. It evaluates
// stored flights against the biodiversity thresholds and alert rules on
// request, and lets operators edit thresholds and rules and acknowledge
// alerts.
//
// Usage:
//
//	compliance-api [options]
//
// Options:
//
//	-config FILE        YAML config file (env: JPX_CONFIG)
//	-driver NAME        Store driver, sqlite or postgres (env: JPX_STORAGE_DRIVER)
//	-sqlite PATH        SQLite database path (env: JPX_SQLITE_PATH)
//	-port N             HTTP port (default: 8082, env: JPX_PORT)
//	-redis              Cache reports in Redis (env: REDIS_ENABLED)
//
// API Endpoints (under /api/v1):
//
//	GET    /health
//	GET    /report?start=&end=&category=&operator=
//	GET    /violations?minSeverity=
//	GET    /violations/summary
//	GET    /alerts?priority=&unacknowledged=true
//	POST   /alerts/{id}/ack
//	DELETE /alerts/{id}/ack
//	GET    /thresholds, PUT /thresholds
//	GET    /rules, PUT /rules, POST /rules
//	GET    /species, GET /habitats
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"jpx_compliance/internal/api"
	"jpx_compliance/internal/cache"
	"jpx_compliance/internal/config"
	"jpx_compliance/internal/report"
	"jpx_compliance/internal/storage"
)

func main() {
	configPath := flag.String("config", os.Getenv("JPX_CONFIG"), "YAML config file")
	driver := flag.String("driver", "", "Store driver: sqlite or postgres (overrides config)")
	sqlitePath := flag.String("sqlite", "", "SQLite database path (overrides config)")
	port := flag.Int("port", 0, "HTTP port for API server (overrides config)")
	useRedis := flag.Bool("redis", false, "Cache reports in Redis")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *driver != "" {
		cfg.Storage.Driver = *driver
	}
	if *sqlitePath != "" {
		cfg.Storage.SQLitePath = *sqlitePath
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *useRedis {
		cfg.Redis.Enabled = true
	}

	ctx := context.Background()

	store, err := storage.OpenStore(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var c *cache.Cache
	if cfg.Redis.Enabled {
		c = cache.New(ctx, cache.Options{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	} else {
		c = cache.NewInMemory()
	}
	defer c.Close()

	reports := report.NewService(store, c)
	if cfg.Redis.TTLSeconds > 0 {
		reports.TTL = time.Duration(cfg.Redis.TTLSeconds) * time.Second
	}

	server := api.NewServer(store, reports, api.Config{Port: cfg.Server.Port})
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
