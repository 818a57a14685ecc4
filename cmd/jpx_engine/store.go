package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"jpx_compliance/internal/config"
	"jpx_compliance/internal/notify"
	"jpx_compliance/internal/report"
	"jpx_compliance/internal/storage"
)

func openStore(ctx context.Context, cfg *config.Config) storage.Store {
	store, err := storage.OpenStore(ctx, cfg.Storage)
	if err != nil {
		fatalf("Error opening store: %v", err)
	}
	return store
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	inPath := fs.String("input", "", "Input flights file, JSONL or .csv (default: stdin)")
	configPath := fs.String("config", "", "Config file")
	showStats := fs.Bool("stats", false, "Print basic counters to stderr")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	flights, st := readFlights(*inPath, cfg)

	ctx := context.Background()
	store := openStore(ctx, cfg)
	defer store.Close()

	n, err := store.InsertFlights(ctx, flights)
	if err != nil {
		fatalf("Error importing flights: %v", err)
	}
	fmt.Printf("Imported %d of %d flights into %s store\n", n, len(flights), cfg.Storage.Driver)

	if *showStats {
		fmt.Fprintf(os.Stderr, "stats: %s\n", st)
	}
}

// buildStoredReport evaluates the stored flights in the given date range.
func buildStoredReport(ctx context.Context, store storage.Store, start, end string) *report.Report {
	rep, err := report.NewService(store, nil).Build(ctx, report.Query{Start: start, End: end})
	if err != nil {
		fatalf("Error building report: %v", err)
	}
	return rep
}

func runArchive(args []string) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file")
	start := fs.String("start", "", "First operation date (YYYY-MM-DD)")
	end := fs.String("end", "", "Last operation date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	ctx := context.Background()

	store := openStore(ctx, cfg)
	defer store.Close()
	rep := buildStoredReport(ctx, store, *start, *end)

	ch, err := storage.OpenClickHouse(ctx, cfg.Storage.ClickHouse)
	if err != nil {
		fatalf("Error opening ClickHouse: %v", err)
	}
	defer ch.Close()
	if err := ch.CreateSchema(ctx); err != nil {
		fatalf("Error creating ClickHouse schema: %v", err)
	}

	runID := uuid.NewString()
	nv, err := ch.ArchiveViolations(ctx, runID, rep.Violations)
	if err != nil {
		fatalf("Error archiving violations: %v", err)
	}
	na, err := ch.ArchiveAlerts(ctx, runID, rep.Alerts)
	if err != nil {
		fatalf("Error archiving alerts: %v", err)
	}
	fmt.Printf("Archived run %s: %d violations, %d alerts from %d flights\n", runID, nv, na, rep.Flights)
}

func runPublish(args []string) {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file")
	natsURL := fs.String("nats-url", "", "NATS server URL (overrides config)")
	start := fs.String("start", "", "First operation date (YYYY-MM-DD)")
	end := fs.String("end", "", "Last operation date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *natsURL != "" {
		cfg.NATS.URL = *natsURL
	}
	ctx := context.Background()

	store := openStore(ctx, cfg)
	defer store.Close()
	rep := buildStoredReport(ctx, store, *start, *end)

	pub, err := notify.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
	if err != nil {
		fatalf("Error connecting to NATS: %v", err)
	}
	defer pub.Close()

	n, err := pub.PublishAlerts(ctx, rep.Alerts)
	if err != nil {
		fatalf("Error publishing alerts: %v", err)
	}
	fmt.Printf("Published %d of %d alerts\n", n, len(rep.Alerts))
}
