package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"jpx_compliance/internal/report"
)

func runEvaluate(args []string) {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	inPath := fs.String("input", "", "Input flights file, JSONL or .csv (default: stdin)")
	outPath := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "json", "Output format: json (full report) or csv (violations)")
	thresholdsPath := fs.String("thresholds", "", "Threshold file, YAML or JSON (default: bundled thresholds)")
	rulesPath := fs.String("rules", "", "Alert rule file, YAML or JSON (default: bundled rules)")
	acksPath := fs.String("acks", "", "File of acknowledged alert ids, one per line")
	configPath := fs.String("config", "", "Config file for airport settings")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	showStats := fs.Bool("stats", false, "Print basic counters to stderr")
	_ = fs.Parse(args)

	*format = strings.ToLower(*format)
	if *format != "json" && *format != "csv" {
		fatalf("Unknown output format: %s", *format)
	}

	cfg := loadConfig(*configPath)
	flights, st := readFlights(*inPath, cfg)
	thresholds := loadThresholdFile(*thresholdsPath)
	rules := loadRuleFile(*rulesPath)
	acks := loadAckFile(*acksPath)

	rep := report.Compute(report.Query{}, flights, thresholds, rules, acks, time.Now().UTC())

	var wout io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fatalf("Failed to create output: %v", err)
		}
		defer f.Close()
		wout = f
	}

	if *format == "csv" {
		if err := report.WriteViolationsCSV(wout, rep.Violations); err != nil {
			fatalf("CSV encode error: %v", err)
		}
	} else {
		enc, err := marshalJSON(rep, *pretty)
		if err != nil {
			fatalf("JSON encode error: %v", err)
		}
		_, _ = wout.Write(enc)
		if wout == os.Stdout {
			_, _ = wout.Write([]byte("\n"))
		}
	}

	if *showStats {
		fmt.Fprintf(os.Stderr, "stats: %s flights=%d violations=%d alerts=%d (unacknowledged=%d)\n",
			st, rep.Flights, rep.Summary.TotalViolations, rep.AlertSummary.Total, rep.AlertSummary.Unacknowledged)
	}
}
