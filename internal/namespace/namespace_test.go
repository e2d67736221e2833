package namespace

import (
	"testing"
	"time"

	"github.com/loomgen/loom/internal/diag"
	"github.com/loomgen/loom/internal/generator"
	"github.com/loomgen/loom/internal/prng"
	"github.com/loomgen/loom/internal/runtime"
	"github.com/loomgen/loom/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// produceRecords runs a collection's top-level array node once against a
// fresh PRNG, mirroring the loop internal/driver will eventually perform
// for a single collection.
func produceRecords(t *testing.T, ns *Namespace, collection string, seed int64, inv *runtime.Invocation) value.Array {
	t.Helper()
	tree, ok := ns.Collections[collection]
	require.True(t, ok, "collection %q not compiled", collection)
	ctx := &generator.Context{
		PRNG:       prng.New(seed),
		Invocation: inv,
		Scratch:    runtime.NewScratch(),
		Path:       []string{collection},
	}
	v, err := tree.Produce(ctx)
	require.NoError(t, err)
	arr, ok := v.(value.Array)
	require.True(t, ok)
	return arr
}

func TestScenario1_UsersWithMonotonicIdsAndDistinctEmails(t *testing.T) {
	doc := []byte(`
type: array
length: {type: number, constant: 3}
content:
  type: object
  id:
    type: number
    id: {}
  email:
    type: string
    unique: true
    faker: {generator: safe_email}
`)
	ns, err := Load(map[string][]byte{"users": doc}, fixedNow)
	require.NoError(t, err)

	inv := runtime.New()
	arr := produceRecords(t, ns, "users", 0, inv)
	require.Len(t, arr, 3)

	seen := map[string]bool{}
	for i, rec := range arr {
		obj := rec.(value.Object)
		id, ok := obj.Get("id")
		require.True(t, ok)
		assert.Equal(t, value.Int(int64(i+1)), id)

		email, ok := obj.Get("email")
		require.True(t, ok)
		s := string(email.(value.String))
		assert.False(t, seen[s], "duplicate email %q", s)
		seen[s] = true
	}
	assert.Len(t, seen, 3)
}

func TestScenario3_CrossCollectionReferenceIsSubsetOfTargets(t *testing.T) {
	users := []byte(`
type: array
length: {type: number, constant: 2}
content:
  type: object
  id: {type: number, id: {}}
`)
	posts := []byte(`
type: array
length: {type: number, constant: 5}
content:
  type: object
  authorId: "@users.content.id"
`)
	ns, err := Load(map[string][]byte{"users": users, "posts": posts}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, []string{"users", "posts"}, ns.Names)

	inv := runtime.New()
	userArr := produceRecords(t, ns, "users", 10, inv)
	require.Len(t, userArr, 2)

	postArr := produceRecords(t, ns, "posts", 20, inv)
	require.Len(t, postArr, 5)

	allowed := map[value.Value]bool{}
	for _, rec := range userArr {
		id, _ := rec.(value.Object).Get("id")
		allowed[id] = true
	}
	for _, rec := range postArr {
		authorID, ok := rec.(value.Object).Get("authorId")
		require.True(t, ok)
		assert.True(t, allowed[authorID], "authorId %v not among users' ids", authorID)
	}
}

func TestScenario4_CycleIsRejectedWithConcretePath(t *testing.T) {
	a := []byte(`
type: array
length: {type: number, constant: 1}
content:
  type: object
  link: "@b.content.link"
`)
	b := []byte(`
type: array
length: {type: number, constant: 1}
content:
  type: object
  link: "@a.content.link"
`)
	_, err := Load(map[string][]byte{"a": a, "b": b}, fixedNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle: a -> b -> a")
}

func TestLoadRejectsUnknownCollectionReference(t *testing.T) {
	doc := []byte(`
type: array
length: {type: number, constant: 1}
content:
  type: object
  x: "@ghost.content.y"
`)
	_, err := Load(map[string][]byte{"only": doc}, fixedNow)
	assert.Error(t, err)
}

func TestLoadRejectsDanglingSameAsPathIntoExistingCollection(t *testing.T) {
	users := []byte(`
type: array
length: {type: number, constant: 1}
content:
  type: object
  id: {type: number, id: {}}
`)
	posts := []byte(`
type: array
length: {type: number, constant: 1}
content:
  type: object
  authorId: "@users.content.missing"
`)
	_, err := Load(map[string][]byte{"users": users, "posts": posts}, fixedNow)
	require.Error(t, err)
	kind, ok := diag.AsKind(err)
	require.True(t, ok)
	assert.Equal(t, diag.KindConfiguration, kind)
	assert.Contains(t, err.Error(), "users.content.missing")
}

func TestLoadRejectsDanglingSameRecordPath(t *testing.T) {
	doc := []byte(`
type: array
length: {type: number, constant: 1}
content:
  type: object
  a: {type: null}
  b: "@mirror.content.missing"
`)
	_, err := Load(map[string][]byte{"mirror": doc}, fixedNow)
	require.Error(t, err)
	kind, ok := diag.AsKind(err)
	require.True(t, ok)
	assert.Equal(t, diag.KindConfiguration, kind)
}

func TestLoadRejectsNonArrayTopLevel(t *testing.T) {
	doc := []byte(`type: object`)
	_, err := Load(map[string][]byte{"bad": doc}, fixedNow)
	assert.Error(t, err)
}

func TestLoadRejectsZeroWeightOneOf(t *testing.T) {
	doc := []byte(`
type: array
length: {type: number, constant: 1}
content:
  type: one_of
  variants:
    - weight: 0
      generator: {type: null}
`)
	_, err := Load(map[string][]byte{"c": doc}, fixedNow)
	assert.Error(t, err)
}

func TestLoadRejectsEmptyRangeWithoutIncludeHigh(t *testing.T) {
	doc := []byte(`
type: array
length: {type: number, constant: 1}
content:
  type: number
  range: {low: 5, high: 5}
`)
	_, err := Load(map[string][]byte{"c": doc}, fixedNow)
	assert.Error(t, err)
}

func TestSameRecordReferenceMirrorsSibling(t *testing.T) {
	doc := []byte(`
type: array
length: {type: number, constant: 3}
content:
  type: object
  a:
    type: string
    pattern: "[a-z]{5}"
  b: "@mirror.content.a"
`)
	ns, err := Load(map[string][]byte{"mirror": doc}, fixedNow)
	require.NoError(t, err)
	arr := produceRecords(t, ns, "mirror", 7, runtime.New())
	for _, rec := range arr {
		obj := rec.(value.Object)
		a, _ := obj.Get("a")
		b, _ := obj.Get("b")
		assert.True(t, a.Equal(b))
	}
}

func TestObjectFieldOrderSurvivesCompile(t *testing.T) {
	doc := []byte(`
type: array
length: {type: number, constant: 1}
content:
  type: object
  zebra: {type: null}
  apple: {type: null}
  middle: {type: null}
`)
	ns, err := Load(map[string][]byte{"c": doc}, fixedNow)
	require.NoError(t, err)
	arr := produceRecords(t, ns, "c", 1, runtime.New())
	obj := arr[0].(value.Object)
	require.Len(t, obj, 3)
	assert.Equal(t, "zebra", obj[0].Name)
	assert.Equal(t, "apple", obj[1].Name)
	assert.Equal(t, "middle", obj[2].Name)
}

func TestShorthandRefEquivalentToExplicitSameAs(t *testing.T) {
	doc := []byte(`
type: array
length: {type: number, constant: 1}
content:
  type: object
  a: {type: string, pattern: "[a-z]{3}"}
  explicit: {type: same_as, ref: "@shorthand.content.a"}
  shorthand: "@shorthand.content.a"
`)
	ns, err := Load(map[string][]byte{"shorthand": doc}, fixedNow)
	require.NoError(t, err)
	arr := produceRecords(t, ns, "shorthand", 3, runtime.New())
	obj := arr[0].(value.Object)
	explicit, _ := obj.Get("explicit")
	short, _ := obj.Get("shorthand")
	a, _ := obj.Get("a")
	assert.True(t, explicit.Equal(a))
	assert.True(t, short.Equal(a))
}
