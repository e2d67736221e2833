package generator

import (
	"time"

	"github.com/loomgen/loom/internal/value"
)

// DateTimeSubtype distinguishes the three date/time shapes spec.md §3
// names.
type DateTimeSubtype string

const (
	SubtypeNaiveDate     DateTimeSubtype = "naive_date"
	SubtypeNaiveDateTime DateTimeSubtype = "naive_date_time"
	SubtypeDateTime      DateTimeSubtype = "date_time"
)

// DateTimeNode samples uniformly in [Begin, End) and formats the result per
// Format. Now is frozen at namespace-compile time and threaded in as End's
// default, per spec.md §4.1 / §9 ("no call to the clock occurs during
// record emission").
type DateTimeNode struct {
	Path       string
	Format     string
	Begin, End time.Time
	Subtype    DateTimeSubtype
}

func (n *DateTimeNode) ID() string { return n.Path }

func (n *DateTimeNode) Produce(ctx *Context) (value.Value, error) {
	span := n.End.Sub(n.Begin)
	if span <= 0 {
		return value.DateTime{Formatted: n.Begin.Format(n.Format)}, nil
	}
	offset := time.Duration(ctx.PRNG.Float64() * float64(span))
	t := n.Begin.Add(offset)
	return value.DateTime{Formatted: t.Format(n.Format)}, nil
}
