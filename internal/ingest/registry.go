// Package ingest decodes flight records from the formats the airport data
// pipeline produces and resolves them to local date, hour and curfew flag.
package ingest

import (
	"sort"
	"sync"

	"jpx_compliance/internal/flight"
)

// Decoder is implemented by each input format.
type Decoder interface {
	// Name returns the decoder's unique identifier.
	Name() string

	// QuickCheck performs a cheap byte check before JSON decoding.
	// Returns true if the line MIGHT be decodable (false = definitely skip).
	QuickCheck(line []byte) bool

	// Priority determines order when several decoders accept a line.
	// Lower number = tried first.
	Priority() int

	// Decode returns the record for a line, or nil if not applicable.
	Decode(line []byte, d *Deriver) *flight.Record
}

// Registry holds decoders in priority order.
type Registry struct {
	mu       sync.RWMutex
	decoders []Decoder
	sorted   bool

	// Deriver resolves raw timestamps for decoders that need it.
	Deriver *Deriver
}

// New creates an empty Registry using d for time resolution.
func New(d *Deriver) *Registry {
	return &Registry{Deriver: d}
}

// Default returns a registry with every built-in decoder registered.
func Default(d *Deriver) *Registry {
	r := New(d)
	r.Register(RecordDecoder{})
	r.Register(AeroAPIDecoder{})
	r.Sort()
	return r
}

// Register adds a decoder to the registry.
func (r *Registry) Register(dec Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders = append(r.decoders, dec)
	r.sorted = false
}

// Sort orders decoders by priority. Call before decoding.
func (r *Registry) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sorted {
		return
	}
	sort.SliceStable(r.decoders, func(i, j int) bool {
		return r.decoders[i].Priority() < r.decoders[j].Priority()
	})
	r.sorted = true
}

// Decode returns the first successful decode of line and the name of the
// decoder that produced it.
func (r *Registry) Decode(line []byte) (*flight.Record, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, dec := range r.decoders {
		if !dec.QuickCheck(line) {
			continue
		}
		if rec := dec.Decode(line, r.Deriver); rec != nil {
			return rec, dec.Name()
		}
	}
	return nil, ""
}

// Names returns registered decoder names in dispatch order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.decoders))
	for _, dec := range r.decoders {
		names = append(names, dec.Name())
	}
	return names
}
