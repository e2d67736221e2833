// Package generator implements the recursive generator tree: the core
// interpreter that turns a compiled schema node plus a PRNG draw into one
// value.Value. It is the re-architecture spec.md §9 asks for — a closed
// tagged variant set dispatched through a single Node interface, rather
// than the teacher's dynamic-dispatch-over-interface{} style.
package generator

import (
	"strconv"
	"strings"

	"github.com/loomgen/loom/internal/prng"
	"github.com/loomgen/loom/internal/runtime"
	"github.com/loomgen/loom/internal/value"
)

// Node is a generator tree node: a pure function from (PRNG, context) to
// (value, possibly-updated context), per spec.md §4.1. Go's loop/recursion
// state carries the "updated context"; Produce only returns the value.
type Node interface {
	// Produce generates one value.Value using ctx's PRNG and invocation
	// state.
	Produce(ctx *Context) (value.Value, error)
	// ID is the node's dotted path, fixed at compile time, used for
	// uniqueness memory keys and diagnostics.
	ID() string
}

// Context bundles everything a Produce call needs: the PRNG stream for
// this node, the shared per-run Invocation (uniqueness + reference cache),
// the current record's scratch space (for same-record SameAs reads), and
// the breadcrumb path of the record currently being produced.
type Context struct {
	PRNG       *prng.Source
	Invocation *runtime.Invocation
	Scratch    *runtime.Scratch
	Path       []string
}

// Child returns a Context for a sub-node reached via segment (a field
// name, "content", or an array index), deriving a fresh PRNG sub-stream so
// sibling reordering cannot perturb unrelated branches (spec.md §4.7).
func (c *Context) Child(segment string) *Context {
	return &Context{
		PRNG:       c.PRNG.Derive(segment),
		Invocation: c.Invocation,
		Scratch:    c.Scratch,
		Path:       append(append([]string{}, c.Path...), segment),
	}
}

// RelativePath returns the dotted path of the current context relative to
// the record root, used as the Scratch key for same-record SameAs lookups.
// It drops the leading collection name and every array-index segment: a
// same_as ref is compiled to a static sibling path (e.g. "a") with no
// knowledge of which array element is currently being produced, so the
// runtime key same-record fields write to and read from must agree
// regardless of index.
func (c *Context) RelativePath() string {
	if len(c.Path) <= 1 {
		return ""
	}
	segs := make([]string, 0, len(c.Path)-1)
	for _, s := range c.Path[1:] {
		if _, err := strconv.Atoi(s); err == nil {
			continue
		}
		segs = append(segs, s)
	}
	return strings.Join(segs, ".")
}

// DottedPath renders the full path including the collection name, for
// diagnostics and uniqueness-memory keys.
func (c *Context) DottedPath() string {
	return strings.Join(c.Path, ".")
}

// indexSegment renders an array index as a path segment, matching the
// "<Key> is a field name, the literal content, or an integer index" path
// grammar of spec.md §3.
func indexSegment(i int) string { return strconv.Itoa(i) }
