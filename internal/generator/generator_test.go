package generator

import (
	"testing"

	"github.com/loomgen/loom/internal/prng"
	"github.com/loomgen/loom/internal/runtime"
	"github.com/loomgen/loom/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx(seed int64) *Context {
	return &Context{
		PRNG:       prng.New(seed),
		Invocation: runtime.New(),
		Scratch:    runtime.NewScratch(),
		Path:       []string{"test"},
	}
}

func TestNullNode(t *testing.T) {
	n := &NullNode{Path: "test.null"}
	v, err := n.Produce(newCtx(1))
	require.NoError(t, err)
	assert.Equal(t, value.Null{}, v)
}

func TestBoolNodeAlwaysTrue(t *testing.T) {
	n := &BoolNode{Path: "test.bool", Frequency: 1}
	v, err := n.Produce(newCtx(1))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)
}

func TestBoolNodeAlwaysFalse(t *testing.T) {
	n := &BoolNode{Path: "test.bool", Frequency: 0}
	v, err := n.Produce(newCtx(1))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(false), v)
}

func TestNumberRangeWithinBounds(t *testing.T) {
	n := &NumberNode{Path: "test.n", Subtype: value.IntKind, Variant: RangeVariant{Low: 10, High: 20}}
	ctx := newCtx(42)
	for i := 0; i < 100; i++ {
		v, err := n.Produce(ctx)
		require.NoError(t, err)
		num := v.(value.Number)
		assert.GreaterOrEqual(t, num.Int, int64(10))
		assert.LessOrEqual(t, num.Int, int64(20))
	}
}

func TestNumberIdMonotonic(t *testing.T) {
	variant := NewIDVariant(1)
	n := &NumberNode{Path: "test.id", Subtype: value.IntKind, Variant: variant}
	ctx := newCtx(7)
	var prev int64
	for i := 0; i < 1000; i++ {
		v, err := n.Produce(ctx)
		require.NoError(t, err)
		num := v.(value.Number)
		if i > 0 {
			assert.Equal(t, prev+1, num.Int)
		} else {
			assert.Equal(t, int64(1), num.Int)
		}
		prev = num.Int
	}
}

func TestArrayNodeProducesDeclaredLength(t *testing.T) {
	length := &NumberNode{Path: "test.arr.length", Subtype: value.IntKind, Variant: ConstantVariant{Value: 3}}
	content := &NullNode{Path: "test.arr.content"}
	arr := &ArrayNode{Path: "test.arr", Length: length, Content: content}

	v, err := arr.Produce(newCtx(1))
	require.NoError(t, err)
	require.IsType(t, value.Array{}, v)
	assert.Len(t, v.(value.Array), 3)
}

func TestArrayNodeZeroLength(t *testing.T) {
	length := &NumberNode{Path: "test.arr.length", Subtype: value.IntKind, Variant: ConstantVariant{Value: 0}}
	content := &NullNode{Path: "test.arr.content"}
	arr := &ArrayNode{Path: "test.arr", Length: length, Content: content}

	v, err := arr.Produce(newCtx(1))
	require.NoError(t, err)
	assert.Len(t, v.(value.Array), 0)
}

func TestArrayNodeRejectsNegativeLength(t *testing.T) {
	length := &NumberNode{Path: "test.arr.length", Subtype: value.IntKind, Variant: ConstantVariant{Value: -1}}
	content := &NullNode{Path: "test.arr.content"}
	arr := &ArrayNode{Path: "test.arr", Length: length, Content: content}

	_, err := arr.Produce(newCtx(1))
	assert.Error(t, err)
}

func TestArrayNodeRejectsOverMax(t *testing.T) {
	length := &NumberNode{Path: "test.arr.length", Subtype: value.IntKind, Variant: ConstantVariant{Value: float64(MaxArrayLength + 1)}}
	content := &NullNode{Path: "test.arr.content"}
	arr := &ArrayNode{Path: "test.arr", Length: length, Content: content}

	_, err := arr.Produce(newCtx(1))
	assert.Error(t, err)
}

func TestObjectNodeOrderAndScratch(t *testing.T) {
	obj := &ObjectNode{
		Path: "test.obj",
		Fields: []FieldSpec{
			{Name: "a", Node: &NumberNode{Path: "test.obj.a", Subtype: value.IntKind, Variant: ConstantVariant{Value: 1}}},
			{Name: "b", Node: &NumberNode{Path: "test.obj.b", Subtype: value.IntKind, Variant: ConstantVariant{Value: 2}}},
		},
	}
	ctx := newCtx(1)
	v, err := obj.Produce(ctx)
	require.NoError(t, err)
	record := v.(value.Object)
	require.Len(t, record, 2)
	assert.Equal(t, "a", record[0].Name)
	assert.Equal(t, "b", record[1].Name)

	cached, ok := ctx.Scratch.Get("a")
	require.True(t, ok)
	assert.Equal(t, value.Int(1), cached)
}

func TestUniqueNodeRejectsDuplicates(t *testing.T) {
	inner := &NumberNode{Path: "test.u", Subtype: value.IntKind, Variant: RangeVariant{Low: 0, High: 1, IncludeHigh: true}}
	unique := &UniqueNode{Path: "test.u", Inner: inner, Retries: 64}
	ctx := newCtx(3)

	seen := make(map[int64]bool)
	for i := 0; i < 2; i++ {
		v, err := unique.Produce(ctx)
		require.NoError(t, err)
		n := v.(value.Number).Int
		assert.False(t, seen[n], "value %d produced twice", n)
		seen[n] = true
	}

	_, err := unique.Produce(ctx)
	assert.Error(t, err)
}

func TestOptionalSkipsInnerDrawOnNull(t *testing.T) {
	inner := &BoolNode{Path: "test.o", Frequency: 1}
	opt := &OptionalNode{Path: "test.o", Frequency: 1, Inner: inner}
	v, err := opt.Produce(newCtx(1))
	require.NoError(t, err)
	assert.Equal(t, value.Null{}, v)
}

func TestOptionalPassesThroughWhenNotNull(t *testing.T) {
	inner := &BoolNode{Path: "test.o", Frequency: 1}
	opt := &OptionalNode{Path: "test.o", Frequency: 0, Inner: inner}
	v, err := opt.Produce(newCtx(1))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), v)
}

func TestOneOfSelectsAmongVariants(t *testing.T) {
	n := &OneOfNode{
		Path: "test.oneof",
		Variants: []WeightedVariant{
			{Weight: 1, Node: &NullNode{Path: "test.oneof.0"}},
			{Weight: 0, Node: &BoolNode{Path: "test.oneof.1", Frequency: 1}},
		},
	}
	ctx := newCtx(5)
	v, err := n.Produce(ctx)
	require.NoError(t, err)
	assert.Equal(t, value.Null{}, v)
}

func TestOneOfRejectsEmptyVariants(t *testing.T) {
	n := &OneOfNode{Path: "test.oneof"}
	_, err := n.Produce(newCtx(1))
	assert.Error(t, err)
}

func TestSeriesNodeIsReserved(t *testing.T) {
	n := &SeriesNode{Path: "test.series"}
	_, err := n.Produce(newCtx(1))
	assert.Error(t, err)
}

func TestPatternRejectsUnboundedQuantifiers(t *testing.T) {
	assert.Error(t, CompileCheckPattern("[a-z]+"))
	assert.Error(t, CompileCheckPattern("[a-z]*"))
	assert.NoError(t, CompileCheckPattern("[a-z]{1,5}"))
}

func TestPatternGeneratesBoundedOutput(t *testing.T) {
	require.NoError(t, CompileCheckPattern("[a-b]{3}"))
	n := &StringNode{Path: "test.pattern", Variant: PatternVariant{Pattern: "[a-b]{3}"}}
	v, err := n.Produce(newCtx(9))
	require.NoError(t, err)
	s := string(v.(value.String))
	assert.Len(t, s, 3)
	for _, c := range s {
		assert.Contains(t, "ab", string(c))
	}
}

func TestUuidVariantIsDeterministicForFixedSeed(t *testing.T) {
	n := &StringNode{Path: "test.uuid", Variant: UuidVariant{}}
	v1, err := n.Produce(newCtx(42))
	require.NoError(t, err)
	v2, err := n.Produce(newCtx(42))
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	v3, err := n.Produce(newCtx(43))
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)

	s := string(v1.(value.String))
	assert.Equal(t, byte('4'), s[14])
	assert.Contains(t, "89ab", string(s[19]))
}

func TestSameAsSameRecord(t *testing.T) {
	ctx := newCtx(1)
	ctx.Scratch.Set("id", value.Int(42))

	n := &SameAsNode{Path: "test.ref", Ref: "@users.content.id", Mode: SameRecord, SiblingPath: "id"}
	v, err := n.Produce(ctx)
	require.NoError(t, err)
	assert.Equal(t, value.Int(42), v)
}

func TestSameAsSameRecordErrorsWhenNotYetEvaluated(t *testing.T) {
	ctx := newCtx(1)
	n := &SameAsNode{Path: "test.ref", Ref: "@self.id", Mode: SameRecord, SiblingPath: "id"}
	_, err := n.Produce(ctx)
	assert.Error(t, err)
}

func TestSameAsPrecomputedWithReplacement(t *testing.T) {
	inv := runtime.New()
	inv.AppendRef("users.content.id", value.Int(1))
	inv.AppendRef("users.content.id", value.Int(2))

	ctx := &Context{PRNG: prng.New(1), Invocation: inv, Scratch: runtime.NewScratch(), Path: []string{"posts"}}
	n := &SameAsNode{Path: "test.ref", Ref: "@users.content.id", Mode: Precomputed, TargetKey: "users.content.id"}

	for i := 0; i < 10; i++ {
		v, err := n.Produce(ctx)
		require.NoError(t, err)
		num := v.(value.Number).Int
		assert.True(t, num == 1 || num == 2)
	}
}

func TestSameAsPrecomputedWithoutReplacementExhausts(t *testing.T) {
	inv := runtime.New()
	inv.AppendRef("users.content.id", value.Int(1))
	inv.AppendRef("users.content.id", value.Int(2))

	ctx := &Context{PRNG: prng.New(1), Invocation: inv, Scratch: runtime.NewScratch(), Path: []string{"posts"}}
	n := &SameAsNode{Path: "test.ref", Ref: "@users.content.id", Mode: Precomputed, TargetKey: "users.content.id", ReferrerUnique: true}

	seen := make(map[int64]bool)
	for i := 0; i < 2; i++ {
		v, err := n.Produce(ctx)
		require.NoError(t, err)
		num := v.(value.Number).Int
		assert.False(t, seen[num])
		seen[num] = true
	}
	_, err := n.Produce(ctx)
	assert.Error(t, err)
}

func TestSameAsPrecomputedErrorsWhenTargetEmpty(t *testing.T) {
	ctx := newCtx(1)
	n := &SameAsNode{Path: "test.ref", Ref: "@users.content.id", Mode: Precomputed, TargetKey: "users.content.id"}
	_, err := n.Produce(ctx)
	assert.Error(t, err)
}

func TestDeterminismSameSeedSameOutput(t *testing.T) {
	build := func() Node {
		return &ObjectNode{
			Path: "test.obj",
			Fields: []FieldSpec{
				{Name: "n", Node: &NumberNode{Path: "test.obj.n", Subtype: value.IntKind, Variant: RangeVariant{Low: 0, High: 1000}}},
				{Name: "s", Node: &StringNode{Path: "test.obj.s", Variant: PatternVariant{Pattern: "[a-z]{5}"}}},
			},
		}
	}

	v1, err := build().Produce(newCtx(123))
	require.NoError(t, err)
	v2, err := build().Produce(newCtx(123))
	require.NoError(t, err)
	assert.True(t, v1.Equal(v2))
}

func TestSiblingReorderingDoesNotPerturbOtherBranches(t *testing.T) {
	makeFieldA := func() Node {
		return &StringNode{Path: "test.obj.a", Variant: PatternVariant{Pattern: "[a-z]{8}"}}
	}

	obj1 := &ObjectNode{
		Path: "test.obj",
		Fields: []FieldSpec{
			{Name: "a", Node: makeFieldA()},
			{Name: "b", Node: &NullNode{Path: "test.obj.b"}},
		},
	}
	obj2 := &ObjectNode{
		Path: "test.obj",
		Fields: []FieldSpec{
			{Name: "b", Node: &BoolNode{Path: "test.obj.b", Frequency: 1}},
			{Name: "a", Node: makeFieldA()},
		},
	}

	v1, err := obj1.Produce(newCtx(55))
	require.NoError(t, err)
	v2, err := obj2.Produce(newCtx(55))
	require.NoError(t, err)

	a1, _ := v1.(value.Object).Get("a")
	a2, _ := v2.(value.Object).Get("a")
	assert.True(t, a1.Equal(a2))
}

func TestRefCacheNodeAppendsEveryProducedValue(t *testing.T) {
	ctx := newCtx(1)
	idNode := &NumberNode{Path: "users.content.id", Subtype: value.IntKind, Variant: NewIDVariant(1)}
	n := &RefCacheNode{Path: "users.content.id", Inner: idNode}

	for i := 0; i < 3; i++ {
		_, err := n.Produce(ctx)
		require.NoError(t, err)
	}

	values := ctx.Invocation.RefValues("users.content.id")
	require.Len(t, values, 3)
	assert.Equal(t, value.Int(1), values[0])
	assert.Equal(t, value.Int(2), values[1])
	assert.Equal(t, value.Int(3), values[2])
}
