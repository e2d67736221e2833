package driver

import (
	"testing"
	"time"

	"github.com/loomgen/loom/internal/namespace"
	"github.com/loomgen/loom/internal/prng"
	"github.com/loomgen/loom/internal/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func loadNS(t *testing.T, docs map[string][]byte) *namespace.Namespace {
	t.Helper()
	ns, err := namespace.Load(docs, fixedNow)
	require.NoError(t, err)
	return ns
}

func sizesFor(t *testing.T, ns *namespace.Namespace, totalSize int, sizeGiven bool, explicit map[string]int) map[string]int {
	t.Helper()
	sizes, err := collectionSizes(ns, totalSize, sizeGiven, explicit, prng.New(1), runtime.New())
	require.NoError(t, err)
	return sizes
}

func TestCollectionSizesHonorsExplicitOverrides(t *testing.T) {
	ns := loadNS(t, map[string][]byte{
		"users": []byte(`
type: array
length: {type: number, constant: 1}
content: {type: number, constant: 1}
`),
		"orders": []byte(`
type: array
length: {type: number, constant: 1}
content: {type: number, constant: 1}
`),
	})

	sizes := sizesFor(t, ns, 1000, true, map[string]int{"users": 7})
	assert.Equal(t, 7, sizes["users"])
	assert.Equal(t, 1000, sizes["orders"])
}

func TestCollectionSizesDistributesProportionallyToLengthHintsWhenSizeGiven(t *testing.T) {
	ns := loadNS(t, map[string][]byte{
		"a": []byte(`
type: array
length: {type: number, constant: 1}
content: {type: number, constant: 1}
`),
		"b": []byte(`
type: array
length: {type: number, constant: 3}
content: {type: number, constant: 1}
`),
	})

	sizes := sizesFor(t, ns, 400, true, nil)
	assert.Equal(t, 100, sizes["a"])
	assert.Equal(t, 300, sizes["b"])
}

func TestCollectionSizesSplitsEvenlyWithNoHintsWhenSizeGiven(t *testing.T) {
	ns := loadNS(t, map[string][]byte{
		"a": []byte(`
type: array
length: {type: number, range: {low: 1, high: 5, include_high: true}}
content: {type: number, constant: 1}
`),
		"b": []byte(`
type: array
length: {type: number, range: {low: 1, high: 5, include_high: true}}
content: {type: number, constant: 1}
`),
	})

	sizes := sizesFor(t, ns, 10, true, nil)
	assert.Equal(t, 5, sizes["a"])
	assert.Equal(t, 5, sizes["b"])
}

func TestCollectionSizesLargestRemainderMatchesTotalExactly(t *testing.T) {
	ns := loadNS(t, map[string][]byte{
		"a": []byte(`
type: array
length: {type: number, constant: 1}
content: {type: number, constant: 1}
`),
		"b": []byte(`
type: array
length: {type: number, constant: 1}
content: {type: number, constant: 1}
`),
		"c": []byte(`
type: array
length: {type: number, constant: 1}
content: {type: number, constant: 1}
`),
	})

	sizes := sizesFor(t, ns, 10, true, nil)
	total := 0
	for _, n := range sizes {
		total += n
	}
	assert.Equal(t, 10, total)
}

// The following three cases are spec.md §8's literal determinism
// scenarios: with no --size given, a collection's declared length is the
// actual record count, not merely a distribution weight.

func TestCollectionSizesUsesDeclaredLengthWhenSizeNotGiven(t *testing.T) {
	ns := loadNS(t, map[string][]byte{
		"users": []byte(`
type: array
length: {type: number, constant: 3}
content: {type: number, constant: 1}
`),
	})

	sizes := sizesFor(t, ns, 100, false, nil)
	assert.Equal(t, 3, sizes["users"])
}

func TestCollectionSizesUsesDeclaredZeroLengthWhenSizeNotGiven(t *testing.T) {
	ns := loadNS(t, map[string][]byte{
		"users": []byte(`
type: array
length: {type: number, constant: 0}
content: {type: number, constant: 1}
`),
	})

	sizes := sizesFor(t, ns, 100, false, nil)
	assert.Equal(t, 0, sizes["users"])
}

func TestCollectionSizesUsesLargeDeclaredLengthWhenSizeNotGiven(t *testing.T) {
	ns := loadNS(t, map[string][]byte{
		"users": []byte(`
type: array
length: {type: number, constant: 1000000}
content: {type: number, constant: 1}
`),
	})

	sizes := sizesFor(t, ns, 100, false, nil)
	assert.Equal(t, 1000000, sizes["users"])
}

func TestCollectionSizesHonorsExplicitOverrideEvenWhenSizeNotGiven(t *testing.T) {
	ns := loadNS(t, map[string][]byte{
		"users": []byte(`
type: array
length: {type: number, constant: 3}
content: {type: number, constant: 1}
`),
	})

	sizes := sizesFor(t, ns, 100, false, map[string]int{"users": 9})
	assert.Equal(t, 9, sizes["users"])
}
