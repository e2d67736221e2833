// Package registry resolves a CLI --to destination string to a concrete
// sink.Sink, dispatching on the destination's scheme prefix or file
// extension and never parsing beyond that: an unrecognized destination is
// an error at startup, before generation begins.
package registry

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/loomgen/loom/internal/sink"
	"github.com/loomgen/loom/internal/sink/dbsink"
	"github.com/loomgen/loom/internal/sink/jsonsink"
)

// Open resolves dest into a sink.Sink plus a cleanup function the caller
// must run after Commit (closing any file or database handle the sink
// opened). Recognized forms:
//   - "-" or "" or "stdout://"   -> JSON sink, written to stdout
//   - "json://<path>" or a path ending in ".json" -> JSON sink, written to
//     that file (pretty-printed)
//   - "sqlite://<path>" or a path ending in ".db"/".sqlite" -> database
//     sink backed by that sqlite3 file
func Open(dest string, stdout io.Writer) (sink.Sink, func() error, error) {
	switch {
	case dest == "" || dest == "-" || dest == "stdout://":
		return jsonsink.New(stdout, true), func() error { return nil }, nil

	case strings.HasPrefix(dest, "json://"):
		path := strings.TrimPrefix(dest, "json://")
		return openJSONFile(path)

	case strings.HasSuffix(dest, ".json"):
		return openJSONFile(dest)

	case strings.HasPrefix(dest, "sqlite://"):
		path := strings.TrimPrefix(dest, "sqlite://")
		return openDB(path)

	case strings.HasSuffix(dest, ".db") || strings.HasSuffix(dest, ".sqlite"):
		return openDB(dest)

	default:
		return nil, nil, fmt.Errorf("registry: unrecognized destination %q (expected '-', a .json path, or a .db/.sqlite path)", dest)
	}
}

func openJSONFile(path string) (sink.Sink, func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("registry: creating %q: %w", path, err)
	}
	return jsonsink.New(f, true), f.Close, nil
}

func openDB(path string) (sink.Sink, func() error, error) {
	s, err := dbsink.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}
