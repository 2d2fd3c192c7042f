package record

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	gojson "github.com/goccy/go-json"
)

// Builder accumulates records and produces an immutable Store.
// It is safe for concurrent use.
type Builder struct {
	mu      sync.Mutex
	records map[string]Record
	built   bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{records: make(map[string]Record)}
}

// Add appends a record. Vectors and lattice are validated and the record is
// copied, so the caller may reuse its buffers.
func (b *Builder) Add(id string, r Record) error {
	if err := r.validate(id); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return ErrBuilderClosed
	}
	if _, ok := b.records[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, id)
	}
	b.records[id] = r.clone()
	return nil
}

// Len returns the number of records added so far.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Build freezes the builder and returns the store.
func (b *Builder) Build() *Store {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.built = true
	return newStore(b.records)
}

// Store is an immutable record store keyed by entry id.
type Store struct {
	records map[string]Record
	ids     []string
}

func newStore(records map[string]Record) *Store {
	if records == nil {
		records = make(map[string]Record)
	}
	return &Store{
		records: records,
		ids:     slices.Sorted(maps.Keys(records)),
	}
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.ids)
}

// IDs returns the entry ids in sorted order. The returned slice must not be modified.
func (s *Store) IDs() []string {
	return s.ids
}

// Get returns the record for id. Vectors are shared with the store and must
// be treated as read-only.
func (s *Store) Get(id string) (Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Range calls fn for every record in id order until fn returns false.
func (s *Store) Range(fn func(id string, r Record) bool) {
	for _, id := range s.ids {
		if !fn(id, s.records[id]) {
			return
		}
	}
}

// Sources returns the union of source names over all entries, sorted.
func (s *Store) Sources() []string {
	seen := make(map[string]struct{})
	for _, r := range s.records {
		for src := range r.X {
			seen[src] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Map returns the records keyed by id in their durable shape.
// The map is shared with the store and must be treated as read-only.
func (s *Store) Map() map[string]Record {
	return s.records
}

// FromMap validates decoded records and builds a store from them.
// A nil X is read as an entry without sources.
func FromMap(raw map[string]Record) (*Store, error) {
	b := NewBuilder()
	for _, id := range slices.Sorted(maps.Keys(raw)) {
		if err := b.Add(id, raw[id]); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// MarshalJSON encodes the store in its durable shape.
func (s *Store) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(s.records)
}

// UnmarshalJSON decodes and validates a durable record store.
func (s *Store) UnmarshalJSON(data []byte) error {
	var raw map[string]Record
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := FromMap(raw)
	if err != nil {
		return err
	}
	*s = *st
	return nil
}
