// Command-line entry point for the JPX compliance engine.
//
// Input formats
// -------------
// Flights may be supplied as:
//  1. Normalized records (JSONL), one flight object per line with
//     operation_date and operation_hour_et already derived.
//  2. Raw FlightAware AeroAPI flight objects (JSONL). Direction, local date,
//     hour, curfew and weekend flags are derived for the configured airport.
//  3. CSV with a header row using the flights table column names.
//
// JSONL lines are autodetected per line. Use -stats to see how each line
// was handled.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jpx_compliance/internal/alerts"
	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/config"
	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/ingest"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "jpx_engine - commands:")
	fmt.Fprintln(w, "  evaluate - evaluate a flight file offline and output a report")
	fmt.Fprintln(w, "  import   - load a flight file into the configured store")
	fmt.Fprintln(w, "  archive  - evaluate stored flights and append results to ClickHouse")
	fmt.Fprintln(w, "  publish  - evaluate stored flights and publish open alerts to NATS")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  jpx_engine evaluate -input flights.jsonl [-thresholds t.yaml] [-rules r.yaml] [-acks acks.txt]")
	fmt.Fprintln(w, "                      [-output out.json] [-format json|csv] [-pretty] [-stats]")
	fmt.Fprintln(w, "  jpx_engine import   -input flights.jsonl [-config jpx.yaml] [-stats]")
	fmt.Fprintln(w, "  jpx_engine archive  [-config jpx.yaml] [-start YYYY-MM-DD] [-end YYYY-MM-DD]")
	fmt.Fprintln(w, "  jpx_engine publish  [-config jpx.yaml] [-start YYYY-MM-DD] [-end YYYY-MM-DD]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - Files ending in .csv are read as CSV, everything else as JSONL.")
	fmt.Fprintln(w, "  - Threshold and rule files may be YAML or JSON; missing ones use the bundled defaults.")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "evaluate":
		runEvaluate(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "archive":
		runArchive(os.Args[2:])
	case "publish":
		runPublish(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fatalf("Error loading config: %v", err)
	}
	return cfg
}

// readFlights reads path (stdin when empty) as CSV or JSONL.
func readFlights(path string, cfg *config.Config) ([]flight.Record, ingest.Stats) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			fatalf("Failed to open input: %v", err)
		}
		defer f.Close()
		r = f
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		flights, err := ingest.ReadCSV(r)
		if err != nil {
			fatalf("Input read error: %v", err)
		}
		return flights, ingest.Stats{Lines: len(flights), ByDecoder: map[string]int{"csv": len(flights)}}
	}

	d, err := cfg.Deriver()
	if err != nil {
		fatalf("Error configuring airport: %v", err)
	}
	flights, st, err := ingest.ReadJSONL(r, ingest.Default(d))
	if err != nil {
		fatalf("Input read error: %v", err)
	}
	return flights, st
}

func loadThresholdFile(path string) []biodiversity.Threshold {
	if path == "" {
		return biodiversity.DefaultThresholds()
	}
	f, err := os.Open(path)
	if err != nil {
		fatalf("Failed to open thresholds: %v", err)
	}
	defer f.Close()

	th, err := biodiversity.LoadThresholds(f)
	if err != nil {
		fatalf("Invalid thresholds: %v", err)
	}
	if th == nil {
		return []biodiversity.Threshold{}
	}
	return th
}

func loadRuleFile(path string) []alerts.Rule {
	if path == "" {
		return alerts.DefaultRules()
	}
	f, err := os.Open(path)
	if err != nil {
		fatalf("Failed to open rules: %v", err)
	}
	defer f.Close()

	rules, err := alerts.LoadRules(f)
	if err != nil {
		fatalf("Invalid rules: %v", err)
	}
	if rules == nil {
		return []alerts.Rule{}
	}
	return rules
}

// loadAckFile reads one acknowledged alert id per line. Blank lines and
// lines starting with # are ignored.
func loadAckFile(path string) map[string]bool {
	acks := make(map[string]bool)
	if path == "" {
		return acks
	}
	f, err := os.Open(path)
	if err != nil {
		fatalf("Failed to open acknowledgements: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		acks[line] = true
	}
	if err := scanner.Err(); err != nil {
		fatalf("Acknowledgement read error: %v", err)
	}
	return acks
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
