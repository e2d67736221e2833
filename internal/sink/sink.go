// Package sink defines the output trait the driver writes generated
// records through (spec.md §4.6): "begin(collection, schema_hint) →
// handle, write(handle, record), end(handle), commit()". The engine never
// touches a filesystem or network socket directly; every observable side
// effect goes through a Sink implementation.
package sink

import "github.com/loomgen/loom/internal/value"

// Handle identifies one collection's open write session, returned by
// Begin and threaded back through Write/End.
type Handle interface {
	// Collection returns the name this handle was opened for.
	Collection() string
}

// Sink is the engine's view of an output destination. Implementations map
// value.Object records onto their own medium (a JSON array, SQL rows, ...);
// the driver never assumes more than this trait describes.
type Sink interface {
	// Begin opens a write session for a collection. sizeHint is the
	// number of records the driver expects to write, for sinks that
	// benefit from preallocating or pre-declaring a schema.
	Begin(collection string, sizeHint int) (Handle, error)
	// Write appends one record to the collection's open session.
	Write(h Handle, record value.Value) error
	// End closes a collection's write session. The driver calls End
	// after the last record of a collection (or on cancellation, for
	// every still-open handle) before producing the next collection.
	End(h Handle) error
	// Commit finalizes the whole run, after every collection has ended.
	// Sinks that buffer in memory (jsonsink) do their actual I/O here;
	// sinks that write incrementally (dbsink) treat it as a no-op or a
	// final flush.
	Commit() error
}
