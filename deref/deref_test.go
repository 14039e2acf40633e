package deref

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesseanwright/json-schema-deref-sync/dereferrors"
	"github.com/jamesseanwright/json-schema-deref-sync/internal/testutil"
	"github.com/jamesseanwright/json-schema-deref-sync/loader"
)

// memoryLoader serves documents keyed by "mem:<name>" targets and counts loads.
type memoryLoader struct {
	docs  map[string]any
	calls map[string]int
}

func newMemoryLoader(docs map[string]any) *memoryLoader {
	return &memoryLoader{docs: docs, calls: make(map[string]int)}
}

func (m *memoryLoader) Kind() string { return "mem" }

func (m *memoryLoader) Match(target string) bool { return strings.HasPrefix(target, "mem:") }

func (m *memoryLoader) Locate(target, base string) (loader.Location, error) {
	return loader.Location{ID: target, Base: base}, nil
}

func (m *memoryLoader) Load(loc loader.Location) (any, error) {
	m.calls[loc.ID]++
	doc, ok := m.docs[loc.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", loader.ErrNotFound, loc.ID)
	}
	return doc, nil
}

func (m *memoryLoader) totalCalls() int {
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// requireNoRefs fails if any $ref key remains in doc.
func requireNoRefs(t *testing.T, doc any) {
	t.Helper()
	var walk func(node any, path string)
	walk = func(node any, path string) {
		switch v := node.(type) {
		case map[string]any:
			_, has := v[RefKey]
			require.False(t, has, "unexpected $ref at %s", path)
			for k, val := range v {
				walk(val, path+"/"+k)
			}
		case []any:
			for i, val := range v {
				walk(val, fmt.Sprintf("%s/%d", path, i))
			}
		}
	}
	walk(doc, "#")
}

func TestDeref_NoReferencesUnchanged(t *testing.T) {
	docs := []string{
		`null`,
		`"scalar"`,
		`[1, "two", true, null]`,
		`{}`,
		`{"type": "object", "properties": {"name": {"type": "string"}}, "required": ["name"]}`,
		`{"$refs": "not a ref key", "ref": "#/nope", "items": [{"enum": ["a", "b"]}]}`,
	}

	for _, src := range docs {
		t.Run(src, func(t *testing.T) {
			doc := testutil.DecodeJSON(t, src)
			result, err := New().Deref(doc)
			require.NoError(t, err)
			assert.Equal(t, doc, result.Document)
			assert.Empty(t, result.Missing)
			assert.Zero(t, result.Stats.References)
		})
	}
}

func TestDeref_NestedLocalReferencesFlatten(t *testing.T) {
	doc := testutil.DecodeJSON(t, `{
		"definitions": {
			"id": {"type": "integer"},
			"pet": {"type": "object", "properties": {"id": {"$ref": "#/definitions/id"}}},
			"pets": {"type": "array", "items": {"$ref": "#/definitions/pet"}}
		},
		"properties": {"pets": {"$ref": "#/definitions/pets"}}
	}`)

	result, err := New().Deref(doc)
	require.NoError(t, err)
	requireNoRefs(t, result.Document)

	want := testutil.DecodeJSON(t, `{
		"type": "array",
		"items": {"type": "object", "properties": {"id": {"type": "integer"}}}
	}`)
	out := result.Document.(map[string]any)
	assert.Equal(t, want, out["properties"].(map[string]any)["pets"])
	assert.Equal(t, want, out["definitions"].(map[string]any)["pets"])
	assert.Empty(t, result.Missing)
}

func TestDeref_SubstitutesDeepCopies(t *testing.T) {
	doc := testutil.DecodeJSON(t, `{
		"definitions": {"tag": {"type": "object", "properties": {"name": {"type": "string"}}}},
		"a": {"$ref": "#/definitions/tag"},
		"b": {"$ref": "#/definitions/tag"}
	}`)

	result, err := New().Deref(doc)
	require.NoError(t, err)
	out := result.Document.(map[string]any)

	a := out["a"].(map[string]any)
	a["properties"].(map[string]any)["name"].(map[string]any)["type"] = "integer"

	b := out["b"].(map[string]any)
	tag := out["definitions"].(map[string]any)["tag"].(map[string]any)
	assert.Equal(t, "string", b["properties"].(map[string]any)["name"].(map[string]any)["type"])
	assert.Equal(t, "string", tag["properties"].(map[string]any)["name"].(map[string]any)["type"])
}

func TestDeref_DoesNotMutateInput(t *testing.T) {
	src := `{"definitions": {"s": {"type": "string"}}, "a": {"$ref": "#/definitions/s"}}`
	doc := testutil.DecodeJSON(t, src)

	_, err := New().Deref(doc)
	require.NoError(t, err)
	assert.Equal(t, testutil.DecodeJSON(t, src), doc)
}

func TestDeref_LocalCircularReferences(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "mutual", src: `{"a": {"$ref": "#/b"}, "b": {"$ref": "#/a"}}`},
		{name: "root self reference", src: `{"$ref": "#"}`},
		{name: "root with slash", src: `{"a": {"$ref": "#/"}}`},
		{name: "self", src: `{"a": {"$ref": "#/a"}}`},
		{name: "descendant", src: `{"a": {"$ref": "#/a/b", "b": {"type": "string"}}}`},
		{name: "through containment", src: `{"a": {"x": {"$ref": "#/b"}}, "b": {"$ref": "#/a"}}`},
		{name: "recursive schema", src: `{"definitions": {"node": {"properties": {"next": {"$ref": "#/definitions/node"}}}}}`},
		{name: "three step", src: `{"a": {"$ref": "#/b"}, "b": {"$ref": "#/c"}, "c": {"$ref": "#/a"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := newMemoryLoader(nil)
			d := New()
			d.Loaders = []loader.Loader{counter}

			result, err := d.Deref(testutil.DecodeJSON(t, tt.src))
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, dereferrors.ErrCircularReference)
			assert.Zero(t, counter.totalCalls())
		})
	}
}

func TestDeref_RootReferenceNode(t *testing.T) {
	doc := testutil.DecodeJSON(t, `{
		"$ref": "#/definitions/pet",
		"definitions": {
			"pet": {"type": "object", "properties": {"tag": {"$ref": "#/definitions/tag"}}},
			"tag": {"type": "string"}
		}
	}`)

	result, err := New().Deref(doc)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"type":       "object",
		"properties": map[string]any{"tag": map[string]any{"type": "string"}},
	}, result.Document)
	assert.Empty(t, result.Missing)

	result, err = DerefWithOptions(doc, WithMergeAdditionalProperties(true))
	require.NoError(t, err)
	out := result.Document.(map[string]any)
	assert.Equal(t, "object", out["type"])
	assert.Contains(t, out, "definitions")
	requireNoRefs(t, out)
}

func TestDeref_CircularErrorReportsChain(t *testing.T) {
	_, err := New().Deref(testutil.DecodeJSON(t, `{"a": {"$ref": "#/b"}, "b": {"$ref": "#/a"}}`))

	var refErr *dereferrors.ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.True(t, refErr.IsCircular)
	assert.Equal(t, "local", refErr.RefType)
	assert.Equal(t, []string{"#/b", "#/a", "#/b"}, refErr.Chain)
}

func TestDeref_SiblingReferencesDoNotCollide(t *testing.T) {
	doc := testutil.DecodeJSON(t, `{
		"c": {"type": "string"},
		"b": {"x": {"$ref": "#/c"}, "y": {"$ref": "#/c"}},
		"a": {"$ref": "#/b"}
	}`)

	result, err := New().Deref(doc)
	require.NoError(t, err)
	requireNoRefs(t, result.Document)
	assert.Equal(t,
		testutil.DecodeJSON(t, `{"x": {"type": "string"}, "y": {"type": "string"}}`),
		result.Document.(map[string]any)["a"])
}

func TestDeref_MissingReference(t *testing.T) {
	src := `{"a": {"$ref": "#/missing/path"}}`

	t.Run("reported by default", func(t *testing.T) {
		result, err := New().Deref(testutil.DecodeJSON(t, src))
		require.NoError(t, err)
		assert.Equal(t, []string{"#/missing/path"}, result.Missing)
		assert.True(t, result.HasMissing())
		assert.Equal(t, testutil.DecodeJSON(t, src), result.Document)
	})

	t.Run("fatal when strict", func(t *testing.T) {
		result, err := DerefWithOptions(testutil.DecodeJSON(t, src), WithFailOnMissing(true))
		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, dereferrors.ErrMissingReference)

		var refErr *dereferrors.ReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, "#/missing/path", refErr.Ref)
	})
}

func TestDeref_MissingReferencesInDiscoveryOrder(t *testing.T) {
	doc := testutil.DecodeJSON(t, `{
		"z": {"$ref": "#/nope1"},
		"a": {"$ref": "#/nope2"},
		"m": [{"$ref": "#/nope3"}, {"$ref": "#/nope2"}]
	}`)

	result, err := New().Deref(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"#/nope2", "#/nope3", "#/nope1"}, result.Missing)
}

func TestDeref_ExternalDocumentLoadedOnce(t *testing.T) {
	mem := newMemoryLoader(map[string]any{
		"mem:shared": map[string]any{
			"definitions": map[string]any{
				"x": "leaf",
				"y": map[string]any{"$ref": "#/definitions/x"},
			},
		},
	})
	doc := testutil.DecodeJSON(t, `{
		"a": {"$ref": "mem:shared#/definitions/x"},
		"b": {"$ref": "mem:shared#/definitions/y"},
		"c": {"$ref": "mem:shared"}
	}`)

	result, err := DerefWithOptions(doc, WithLoaders(mem))
	require.NoError(t, err)

	assert.Equal(t, 1, mem.calls["mem:shared"])
	out := result.Document.(map[string]any)
	assert.Equal(t, "leaf", out["a"])
	assert.Equal(t, "leaf", out["b"])
	assert.Equal(t, map[string]any{"definitions": map[string]any{"x": "leaf", "y": "leaf"}}, out["c"])
	requireNoRefs(t, result.Document)

	assert.Equal(t, 1, result.Stats.Loads)
	assert.Equal(t, 2, result.Stats.CacheHits)
	assert.Equal(t, 3, result.Stats.External)
	assert.Equal(t, 1, result.Stats.Local)
}

func TestDeref_CacheIsolatedBetweenCalls(t *testing.T) {
	mem := newMemoryLoader(map[string]any{"mem:doc": map[string]any{"v": "one"}})
	d := New()
	d.Loaders = []loader.Loader{mem}

	first, err := d.Deref(map[string]any{"a": map[string]any{"$ref": "mem:doc#/v"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "one"}, first.Document)

	mem.docs["mem:doc"] = map[string]any{"v": "two"}

	second, err := d.Deref(map[string]any{"b": map[string]any{"$ref": "mem:doc#/v"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": "two"}, second.Document)
	assert.Equal(t, 2, mem.calls["mem:doc"])
}

func TestDeref_CachedDocumentsAreNotAliased(t *testing.T) {
	mem := newMemoryLoader(map[string]any{
		"mem:doc": map[string]any{"obj": map[string]any{"k": "v"}},
	})
	result, err := DerefWithOptions(map[string]any{
		"a": map[string]any{"$ref": "mem:doc#/obj"},
		"b": map[string]any{"$ref": "mem:doc#/obj"},
	}, WithLoaders(mem))
	require.NoError(t, err)

	out := result.Document.(map[string]any)
	out["a"].(map[string]any)["k"] = "changed"
	assert.Equal(t, "v", out["b"].(map[string]any)["k"])
	assert.Equal(t, "v", mem.docs["mem:doc"].(map[string]any)["obj"].(map[string]any)["k"])
}

func TestDeref_ExternalLocalCycleDetectedDynamically(t *testing.T) {
	mem := newMemoryLoader(map[string]any{
		"mem:loop": map[string]any{
			"a": map[string]any{"$ref": "#/b"},
			"b": map[string]any{"$ref": "#/a"},
		},
	})

	_, err := DerefWithOptions(map[string]any{"x": map[string]any{"$ref": "mem:loop"}}, WithLoaders(mem))
	require.Error(t, err)
	assert.ErrorIs(t, err, dereferrors.ErrCircularReference)

	var refErr *dereferrors.ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, []string{"mem:loop", "mem:loop:#/b", "mem:loop:#/a", "mem:loop:#/b"}, refErr.Chain)
}

func TestDeref_ExternalMarkersIgnoreCase(t *testing.T) {
	mem := newMemoryLoader(map[string]any{
		"mem:Doc": map[string]any{"next": map[string]any{"$ref": "mem:doc"}},
		"mem:doc": map[string]any{"v": "leaf"},
	})

	_, err := DerefWithOptions(map[string]any{"x": map[string]any{"$ref": "mem:Doc"}}, WithLoaders(mem))
	assert.ErrorIs(t, err, dereferrors.ErrCircularReference)
}

func TestDeref_ExternalMissingPointer(t *testing.T) {
	mem := newMemoryLoader(map[string]any{"mem:doc": map[string]any{"a": "b"}})
	doc := map[string]any{
		"x": map[string]any{"$ref": "mem:doc#/nope"},
		"y": map[string]any{"$ref": "mem:absent"},
	}

	result, err := DerefWithOptions(doc, WithLoaders(mem))
	require.NoError(t, err)
	assert.Equal(t, []string{"mem:doc#/nope", "mem:absent"}, result.Missing)
	assert.Equal(t, doc, result.Document)

	_, err = DerefWithOptions(doc, WithLoaders(mem), WithFailOnMissing(true))
	assert.ErrorIs(t, err, dereferrors.ErrMissingReference)

	_, err = DerefWithOptions(map[string]any{"y": map[string]any{"$ref": "mem:absent"}},
		WithLoaders(mem), WithFailOnMissing(true))
	assert.ErrorIs(t, err, dereferrors.ErrMissingReference)
	assert.ErrorIs(t, err, loader.ErrNotFound)
}

func TestDeref_UnsupportedReferences(t *testing.T) {
	doc := testutil.DecodeJSON(t, `{"a": {"$ref": "https://example.com/schema.json#/x"}, "b": {"$ref": ""}}`)

	result, err := New().Deref(doc)
	require.NoError(t, err)
	assert.Equal(t, doc, result.Document)
	assert.Empty(t, result.Missing)

	_, err = DerefWithOptions(doc, WithFailOnMissing(true))
	assert.ErrorIs(t, err, dereferrors.ErrMissingReference)
}

func TestDeref_NoLoadersLeavesExternalReferences(t *testing.T) {
	doc := testutil.DecodeJSON(t, `{"a": {"$ref": "other.json"}}`)

	result, err := DerefWithOptions(doc, WithLoaders())
	require.NoError(t, err)
	assert.Equal(t, doc, result.Document)
}

func TestDeref_InputErrors(t *testing.T) {
	_, err := New().Deref(map[string]any{"n": math.NaN()})
	require.Error(t, err)
	assert.ErrorIs(t, err, dereferrors.ErrInput)
}

func TestDeref_NormalizesHostTypes(t *testing.T) {
	type refNode struct {
		Ref string `json:"$ref"`
	}
	doc := map[string]any{
		"defs": map[string]string{"name": "string"},
		"pet":  refNode{Ref: "#/defs/name"},
		"ids":  []int{1, 2},
	}

	result, err := New().Deref(doc)
	require.NoError(t, err)
	out := result.Document.(map[string]any)
	assert.Equal(t, "string", out["pet"])
	assert.Equal(t, []any{float64(1), float64(2)}, out["ids"])
}

func TestDeref_MergeAdditionalProperties(t *testing.T) {
	src := `{
		"defs": {"base": {"type": "object"}},
		"a": {"$ref": "#/defs/base", "description": "extended", "type": "ignored"}
	}`

	result, err := DerefWithOptions(testutil.DecodeJSON(t, src), WithMergeAdditionalProperties(true))
	require.NoError(t, err)
	assert.Equal(t,
		map[string]any{"type": "object", "description": "extended"},
		result.Document.(map[string]any)["a"])

	result, err = New().Deref(testutil.DecodeJSON(t, src))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "object"}, result.Document.(map[string]any)["a"])
}

func TestDeref_RemoveIDs(t *testing.T) {
	doc := testutil.DecodeJSON(t, `{
		"$id": "root",
		"defs": {"x": {"$id": "x", "type": "string"}},
		"a": {"$ref": "#/defs/x"}
	}`)

	result, err := DerefWithOptions(doc, WithRemoveIDs(true))
	require.NoError(t, err)
	assert.Equal(t, testutil.DecodeJSON(t, `{
		"defs": {"x": {"type": "string"}},
		"a": {"type": "string"}
	}`), result.Document)
}

func TestDeref_MaxRefDepth(t *testing.T) {
	doc := testutil.DecodeJSON(t, `{
		"r": {"$ref": "#/a"},
		"a": {"$ref": "#/b"},
		"b": {"$ref": "#/c"},
		"c": "end"
	}`)

	_, err := DerefWithOptions(doc, WithMaxRefDepth(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, dereferrors.ErrResourceLimit)

	result, err := DerefWithOptions(doc, WithMaxRefDepth(3))
	require.NoError(t, err)
	assert.Equal(t, "end", result.Document.(map[string]any)["r"])
}

func TestDeref_MaxCachedDocuments(t *testing.T) {
	mem := newMemoryLoader(map[string]any{"mem:one": "1", "mem:two": "2"})
	doc := map[string]any{
		"a": map[string]any{"$ref": "mem:one"},
		"b": map[string]any{"$ref": "mem:two"},
	}

	_, err := DerefWithOptions(doc, WithLoaders(mem), WithMaxCachedDocuments(1))
	assert.ErrorIs(t, err, dereferrors.ErrResourceLimit)

	result, err := DerefWithOptions(doc, WithLoaders(mem), WithMaxCachedDocuments(2))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1", "b": "2"}, result.Document)
}

func TestDeref_MaxCachedDocumentsCountsPendingLoads(t *testing.T) {
	mem := newMemoryLoader(map[string]any{
		"mem:a": map[string]any{"next": map[string]any{"$ref": "mem:b"}},
		"mem:b": map[string]any{"next": map[string]any{"$ref": "mem:c"}},
		"mem:c": "end",
	})
	doc := map[string]any{"start": map[string]any{"$ref": "mem:a"}}

	_, err := DerefWithOptions(doc, WithLoaders(mem), WithMaxCachedDocuments(2))
	var limitErr *dereferrors.ResourceLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "cached_documents", limitErr.ResourceType)
	assert.Equal(t, int64(3), limitErr.Actual)
	assert.Zero(t, mem.calls["mem:c"])

	result, err := DerefWithOptions(doc, WithLoaders(mem), WithMaxCachedDocuments(3))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"start": map[string]any{"next": map[string]any{"next": "end"}}}, result.Document)
}

func TestDeref_FailedLoadDoesNotHoldCacheSlot(t *testing.T) {
	mem := newMemoryLoader(map[string]any{"mem:one": "1"})
	doc := map[string]any{
		"a": map[string]any{"$ref": "mem:absent"},
		"b": map[string]any{"$ref": "mem:one"},
	}

	result, err := DerefWithOptions(doc, WithLoaders(mem), WithMaxCachedDocuments(1))
	require.NoError(t, err)
	assert.Equal(t, "1", result.Document.(map[string]any)["b"])
	assert.Equal(t, []string{"mem:absent"}, result.Missing)
}

func TestDerefWithOptions_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{name: "empty base dir", opt: WithBaseDir("")},
		{name: "nil logger", opt: WithLogger(nil)},
		{name: "nil loader", opt: WithLoaders(loader.NewFileLoader(), nil)},
		{name: "zero depth", opt: WithMaxRefDepth(0)},
		{name: "negative cache size", opt: WithMaxCachedDocuments(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DerefWithOptions(map[string]any{}, tt.opt)
			require.Error(t, err)
			assert.ErrorIs(t, err, dereferrors.ErrConfig)
			assert.Contains(t, err.Error(), "deref: invalid options")
		})
	}
}
