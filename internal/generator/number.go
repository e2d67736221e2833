package generator

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/runtime"
	"github.com/loomgen/loom/internal/value"
)

// NumberVariant is the closed set of ways a number node can produce its
// value, per spec.md §3.
type NumberVariant interface{ isNumberVariant() }

// RangeVariant draws uniformly in [Low, High) or [Low, High] when
// IncludeHigh is set, quantized to Step when Step > 0.
type RangeVariant struct {
	Low, High   float64
	Step        float64
	IncludeHigh bool
}

func (RangeVariant) isNumberVariant() {}

// ConstantVariant always produces the same value.
type ConstantVariant struct{ Value float64 }

func (ConstantVariant) isNumberVariant() {}

// IdVariant produces a monotonically increasing integer per invocation of
// the node instance, starting at StartAt (default 1), scoped to the whole
// driver run: one counter is kept per runtime.Invocation, so every run
// starts again at StartAt.
type IdVariant struct {
	StartAt  int64
	mu       sync.Mutex
	counters map[*runtime.Invocation]*int64
}

func (*IdVariant) isNumberVariant() {}

// NewIDVariant constructs an IdVariant with its own counter storage.
func NewIDVariant(startAt int64) *IdVariant {
	if startAt == 0 {
		startAt = 1
	}
	return &IdVariant{StartAt: startAt, counters: make(map[*runtime.Invocation]*int64)}
}

// DistributionKind names a supported statistical shape for
// DistributionVariant.
type DistributionKind string

const (
	DistUniform DistributionKind = "uniform"
	DistNormal  DistributionKind = "normal"
)

// DistributionVariant draws from a named distribution, clamped to
// [Low, High].
type DistributionVariant struct {
	Kind         DistributionKind
	Low, High    float64
	Mean, StdDev float64
}

func (DistributionVariant) isNumberVariant() {}

// NumberNode produces value.Number according to its Subtype and Variant.
type NumberNode struct {
	Path    string
	Subtype value.NumberKind
	Variant NumberVariant
}

func (n *NumberNode) ID() string { return n.Path }

func (n *NumberNode) Produce(ctx *Context) (value.Value, error) {
	switch v := n.Variant.(type) {
	case RangeVariant:
		return n.produceRange(ctx, v)
	case ConstantVariant:
		return n.fromFloat(v.Value), nil
	case *IdVariant:
		return n.produceID(ctx, v)
	case DistributionVariant:
		return n.produceDistribution(ctx, v)
	default:
		return nil, diag.New(diag.KindConfiguration, n.Path, "unknown number variant %T", v)
	}
}

func (n *NumberNode) produceRange(ctx *Context, v RangeVariant) (value.Value, error) {
	if n.Subtype == value.IntKind && v.Step <= 0 {
		// Integer ranges draw a whole number directly, so an exclusive
		// High is never reached by rounding.
		lo, hi := int64(math.Ceil(v.Low)), int64(math.Floor(v.High))
		if !v.IncludeHigh && float64(hi) == v.High {
			hi--
		}
		return value.Int(ctx.PRNG.IntnBetween(lo, hi)), nil
	}
	span := v.High - v.Low
	draw := ctx.PRNG.Float64() * span
	result := v.Low + draw
	if v.IncludeHigh {
		// Redraw over [Low, High) and clamp to High. Without a Step, High
		// itself is not produced; rounding to a Step can reach it.
		result = v.Low + ctx.PRNG.Float64()*span
		if result > v.High {
			result = v.High
		}
	}
	if v.Step > 0 {
		steps := math.Round((result - v.Low) / v.Step)
		result = v.Low + steps*v.Step
		if !v.IncludeHigh && result >= v.High {
			result -= v.Step
		}
		if v.IncludeHigh && result > v.High {
			result = v.High
		}
	}
	return n.fromFloat(result), nil
}

func (n *NumberNode) produceID(ctx *Context, v *IdVariant) (value.Value, error) {
	v.mu.Lock()
	counter, ok := v.counters[ctx.Invocation]
	if !ok {
		c := v.StartAt - 1
		counter = &c
		v.counters[ctx.Invocation] = counter
	}
	v.mu.Unlock()
	next := atomic.AddInt64(counter, 1)
	if next == math.MaxInt64 {
		return nil, diag.New(diag.KindOverflow, n.Path, "id counter overflowed subtype maximum")
	}
	return value.Int(next), nil
}

func (n *NumberNode) produceDistribution(ctx *Context, v DistributionVariant) (value.Value, error) {
	switch v.Kind {
	case DistUniform, "":
		draw := v.Low + ctx.PRNG.Float64()*(v.High-v.Low)
		return n.fromFloat(draw), nil
	case DistNormal:
		// Box-Muller transform using two uniform draws from the threaded
		// PRNG, clamped into [Low, High] so the distribution node never
		// escapes its declared bounds.
		u1 := math.Max(ctx.PRNG.Float64(), 1e-12)
		u2 := ctx.PRNG.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		draw := v.Mean + z*v.StdDev
		if draw < v.Low {
			draw = v.Low
		}
		if draw > v.High {
			draw = v.High
		}
		return n.fromFloat(draw), nil
	default:
		return nil, diag.New(diag.KindConfiguration, n.Path, "unknown distribution kind %q", v.Kind)
	}
}

func (n *NumberNode) fromFloat(f float64) value.Value {
	if n.Subtype == value.IntKind {
		return value.Int(int64(math.Round(f)))
	}
	return value.Float(f)
}
