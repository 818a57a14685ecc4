package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jszwec/csvutil"

	"jpx_compliance/internal/flight"
)

// Stats counts what happened to each input line.
type Stats struct {
	Lines     int
	Blank     int
	Skipped   int
	ByDecoder map[string]int
}

// Decoded returns the number of records produced.
func (s Stats) Decoded() int {
	n := 0
	for _, c := range s.ByDecoder {
		n += c
	}
	return n
}

func (s Stats) String() string {
	names := make([]string, 0, len(s.ByDecoder))
	for name := range s.ByDecoder {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, s.ByDecoder[name]))
	}
	return fmt.Sprintf("lines=%d decoded(%s) blank=%d skipped=%d",
		s.Lines, strings.Join(parts, " "), s.Blank, s.Skipped)
}

// ReadJSONL decodes one flight per line. Lines no decoder accepts are
// counted and skipped.
func ReadJSONL(r io.Reader, reg *Registry) ([]flight.Record, Stats, error) {
	st := Stats{ByDecoder: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	// Raw AeroAPI objects can be long; bump buffer.
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 16*1024*1024)

	out := make([]flight.Record, 0, 1024)
	for scanner.Scan() {
		st.Lines++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			st.Blank++
			continue
		}

		rec, name := reg.Decode([]byte(line))
		if rec == nil {
			st.Skipped++
			continue
		}
		st.ByDecoder[name]++
		out = append(out, *rec)
	}

	if err := scanner.Err(); err != nil {
		return out, st, fmt.Errorf("read input: %w", err)
	}
	return out, st, nil
}

// ReadCSV decodes flights from CSV with a header row matching the flights
// table column names.
func ReadCSV(r io.Reader) ([]flight.Record, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if err == io.EOF {
			return []flight.Record{}, nil
		}
		return nil, fmt.Errorf("create csv decoder: %w", err)
	}

	var out []flight.Record
	if err := dec.Decode(&out); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode flights csv: %w", err)
	}
	for i := range out {
		if !flight.ValidHour(out[i].Hour()) {
			return nil, fmt.Errorf("flight %q: operation hour %d out of range", out[i].ID, out[i].Hour())
		}
		Normalize(&out[i])
	}
	if out == nil {
		out = []flight.Record{}
	}
	return out, nil
}

// WriteCSV writes flights with a header row.
func WriteCSV(w io.Writer, flights []flight.Record) error {
	data, err := csvutil.Marshal(flights)
	if err != nil {
		return fmt.Errorf("encode flights csv: %w", err)
	}
	_, err = w.Write(data)
	return err
}
