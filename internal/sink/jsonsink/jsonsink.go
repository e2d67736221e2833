// Package jsonsink implements spec.md §4.6's JSON sink: every collection's
// records are buffered into a single JSON array under the collection name,
// the whole document written out in one shot on Commit. It generalizes
// cmd/export.go's writeFileIfNotExists pretty-print-to-file idiom from one
// fixed export shape to an arbitrary set of named collections.
package jsonsink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/loomgen/loom/internal/sink"
	"github.com/loomgen/loom/internal/value"
)

// Sink buffers every collection's records in memory and writes one JSON
// object, keyed by collection name, to w when Commit is called.
type Sink struct {
	w      io.Writer
	pretty bool

	mu      sync.Mutex
	order   []string
	records map[string]value.Array
	closed  map[string]bool
}

// New creates a Sink that writes to w. When pretty is true, Commit
// indents the final document with two-space steps, matching
// cmd/export.go's --pretty default.
func New(w io.Writer, pretty bool) *Sink {
	return &Sink{
		w:       w,
		pretty:  pretty,
		records: make(map[string]value.Array),
		closed:  make(map[string]bool),
	}
}

type handle struct{ collection string }

func (h handle) Collection() string { return h.collection }

func (s *Sink) Begin(collection string, sizeHint int) (sink.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[collection]; !ok {
		s.order = append(s.order, collection)
		arr := make(value.Array, 0, sizeHint)
		s.records[collection] = arr
	}
	return handle{collection: collection}, nil
}

func (s *Sink) Write(h sink.Handle, record value.Value) error {
	hd, ok := h.(handle)
	if !ok {
		return fmt.Errorf("jsonsink: foreign handle")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed[hd.collection] {
		return fmt.Errorf("jsonsink: write to collection %q after End", hd.collection)
	}
	s.records[hd.collection] = append(s.records[hd.collection], record)
	return nil
}

func (s *Sink) End(h sink.Handle) error {
	hd, ok := h.(handle)
	if !ok {
		return fmt.Errorf("jsonsink: foreign handle")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed[hd.collection] = true
	return nil
}

// Commit renders the accumulated collections as one JSON object, in the
// order collections were first opened, and writes it to w.
func (s *Sink) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		b, err := s.records[name].MarshalJSON()
		if err != nil {
			return fmt.Errorf("jsonsink: encoding collection %q: %w", name, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')

	out := buf.Bytes()
	if s.pretty {
		var indented bytes.Buffer
		if err := json.Indent(&indented, out, "", "  "); err != nil {
			return fmt.Errorf("jsonsink: indenting output: %w", err)
		}
		out = indented.Bytes()
	}
	if _, err := s.w.Write(out); err != nil {
		return fmt.Errorf("jsonsink: writing output: %w", err)
	}
	if _, err := s.w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("jsonsink: writing output: %w", err)
	}
	return nil
}
