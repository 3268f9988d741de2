package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Store is a flat keyed metadata store: normalized URL → VideoRecord,
// backed by one JSON document on disk.
//
// The in-memory map is populated from disk on first access and never
// reloaded; external edits to the backing file during a run are not
// observed. Persist is explicit — serialization cost grows with store
// size, so the caller controls the cadence instead of writing after
// every mutation.
//
// Single-writer, single-process, no locking: the crawl is strictly
// sequential.
type Store struct {
	path    string
	loaded  bool
	records map[string]*VideoRecord
	order   []string // insertion order, for deterministic iteration
}

// NewStore returns a store backed by the JSON document at path. The file
// is not touched until the first access or Persist.
func NewStore(path string) *Store {
	return &Store{path: path, records: make(map[string]*VideoRecord)}
}

// ensureLoaded reads the backing file once. A missing file is an empty
// store, not an error.
func (s *Store) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load store %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return fmt.Errorf("load store %s: %w", s.path, err)
	}

	// JSON objects carry no order; sort once so iteration stays fixed
	// for the rest of the process.
	s.order = s.order[:0]
	for url := range s.records {
		s.order = append(s.order, url)
	}
	sort.Strings(s.order)
	return nil
}

// Get returns the record for a normalized URL, or ErrNotFound if the URL
// has never been written.
func (s *Store) Get(url string) (*VideoRecord, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	rec, ok := s.records[NormalizeURL(url)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return rec, nil
}

// Update applies fn to the record for url, creating it on first write.
// This is the merge point for every pipeline stage: each stage fills in
// the fields it owns and leaves the rest alone.
func (s *Store) Update(url string, fn func(*VideoRecord)) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	url = NormalizeURL(url)
	rec, ok := s.records[url]
	if !ok {
		rec = &VideoRecord{URL: url}
		s.records[url] = rec
		s.order = append(s.order, url)
	}
	fn(rec)
	return nil
}

// Records returns all records in insertion order.
func (s *Store) Records() []*VideoRecord {
	if err := s.ensureLoaded(); err != nil {
		return nil
	}
	out := make([]*VideoRecord, 0, len(s.order))
	for _, url := range s.order {
		out = append(out, s.records[url])
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	if err := s.ensureLoaded(); err != nil {
		return 0
	}
	return len(s.records)
}

// Transfer copies the record for url into dst, creating or overwriting
// it there. The source record stays put.
func (s *Store) Transfer(url string, dst *Store) error {
	rec, err := s.Get(url)
	if err != nil {
		return err
	}
	cp := *rec
	cp.Comments = append([]Comment(nil), rec.Comments...)
	cp.Narratives = append([]Narrative(nil), rec.Narratives...)
	if rec.DisinformationFound != nil {
		v := *rec.DisinformationFound
		cp.DisinformationFound = &v
	}
	return dst.Update(cp.URL, func(r *VideoRecord) { *r = cp })
}

// Persist writes the full store to its backing file. Slow on large
// stores; call once per batch, not per field write.
func (s *Store) Persist() error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	data, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("persist store %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("persist store %s: %w", s.path, err)
	}
	return nil
}
