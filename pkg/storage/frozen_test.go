package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreezeSnapshotIsolation(t *testing.T) {
	store := socialGraph(t)
	frozen := store.Freeze()

	store.RemoveNodes("a")
	require.NoError(t, store.NodeProperties("b").Set("name", "Robert"))
	store.NodeLabels("b").Add("Z")

	assert.Equal(t, 4, frozen.NodeCount())
	assert.Equal(t, 6, frozen.RelationshipCount(""))
	assert.True(t, frozen.HasNode("a"))
	assert.Equal(t, "Bob", frozen.NodeProperties("b").Get("name"))

	labels, ok := frozen.NodeLabels("b")
	require.True(t, ok)
	assert.Equal(t, []string{"X", "Y"}, labels)
}

func TestFrozenAccessors(t *testing.T) {
	frozen := socialGraph(t).Freeze()

	t.Run("labels report absence through the second return", func(t *testing.T) {
		labels, ok := frozen.NodeLabels("a")
		assert.True(t, ok)
		assert.Equal(t, []string{"X"}, labels)

		labels, ok = frozen.NodeLabels("z")
		assert.False(t, ok)
		assert.Nil(t, labels)
	})

	t.Run("properties come back as immutable records", func(t *testing.T) {
		props := frozen.NodeProperties("a")
		require.NotNil(t, props)
		assert.Equal(t, "Alice", props.Get("name"))

		rel := frozen.RelationshipProperties("knows-ab")
		require.NotNil(t, rel)
		assert.Equal(t, int64(1999), rel.Get("since"))

		assert.Nil(t, frozen.NodeProperties("z"))
		assert.Nil(t, frozen.RelationshipProperties("gone"))
	})
}

func TestNewFrozenGraphStore(t *testing.T) {
	t.Run("nil source yields an empty store", func(t *testing.T) {
		frozen := NewFrozenGraphStore(nil)
		assert.Equal(t, 0, frozen.NodeCount())
		assert.Equal(t, 0, frozen.RelationshipCount(""))
	})

	t.Run("freezing a frozen store shares internals", func(t *testing.T) {
		first := socialGraph(t).Freeze()
		second := NewFrozenGraphStore(first)
		assert.Same(t, first.graphStore, second.graphStore)
		assert.True(t, first.Equal(second))
	})

	t.Run("freezing a mutable store copies", func(t *testing.T) {
		store := socialGraph(t)
		frozen := NewFrozenGraphStore(store)
		store.RemoveNodes("a")
		assert.True(t, frozen.HasNode("a"))
	})
}

func TestFrozenEqualAndHash(t *testing.T) {
	t.Run("equal regardless of assembly order", func(t *testing.T) {
		whole := socialGraph(t).Freeze()

		// Assemble the same graph in two steps via a merge.
		part, err := Build(
			map[NodeID]NodeInput{
				"a": {Labels: []string{"X"}, Properties: map[string]any{"name": "Alice"}},
				"b": {Labels: []string{"X", "Y"}, Properties: map[string]any{"name": "Bob"}},
				"c": {Labels: []string{"X", "Y"}, Properties: map[string]any{"name": "Carol"}},
			},
			map[RelationshipID]RelationshipInput{
				"likes-ab": {Type: "LIKES", Endpoints: []NodeID{"a", "b"}},
				"likes-ba": {Type: "LIKES", Endpoints: []NodeID{"b", "a"}},
				"knows-ab": {Type: "KNOWS", Endpoints: []NodeID{"a", "b"}, Properties: map[string]any{"since": 1999}},
				"knows-ac": {Type: "KNOWS", Endpoints: []NodeID{"a", "c"}, Properties: map[string]any{"since": 2000}},
				"knows-cb": {Type: "KNOWS", Endpoints: []NodeID{"c", "b"}, Properties: map[string]any{"since": 2001}},
			},
		)
		require.NoError(t, err)
		rest, err := Build(
			map[NodeID]NodeInput{
				"d": {Labels: []string{"Y"}, Properties: map[string]any{"name": "Dave"}},
			},
			map[RelationshipID]RelationshipInput{
				"married-cd": {Type: "MARRIED_TO", Endpoints: []NodeID{"c", "d"}},
			},
		)
		require.NoError(t, err)
		part.Update(rest)
		merged := part.Freeze()

		assert.True(t, whole.Equal(merged))
		assert.Equal(t, whole.Hash(), merged.Hash())
	})

	t.Run("hash distinguishes different graphs", func(t *testing.T) {
		base := socialGraph(t).Freeze()

		changed := socialGraph(t)
		require.NoError(t, changed.NodeProperties("a").Set("name", "Alicia"))
		assert.NotEqual(t, base.Hash(), changed.Freeze().Hash())

		relabeled := socialGraph(t)
		relabeled.NodeLabels("d").Add("Z")
		assert.NotEqual(t, base.Hash(), relabeled.Freeze().Hash())

		rewired := socialGraph(t)
		rewired.RemoveRelationships("married-cd")
		_, err := rewired.AddRelationship("MARRIED_TO", []NodeID{"d", "c"}, nil)
		require.NoError(t, err)
		assert.NotEqual(t, base.Hash(), rewired.Freeze().Hash(), "endpoint order is significant")
	})

	t.Run("equality mismatches", func(t *testing.T) {
		base := socialGraph(t).Freeze()

		smaller := socialGraph(t)
		smaller.RemoveNodes("d")
		assert.False(t, base.Equal(smaller.Freeze()))

		retyped := socialGraph(t)
		require.NoError(t, retyped.RekeyRelationship("knows-ab", "renamed"))
		assert.False(t, base.Equal(retyped.Freeze()))
	})

	t.Run("empty stores are equal and hash to zero", func(t *testing.T) {
		a := NewFrozenGraphStore(nil)
		b := NewMutableGraphStore().Freeze()
		assert.True(t, a.Equal(b))
		assert.Equal(t, a.Hash(), b.Hash())
	})
}

func TestThawFrozenStore(t *testing.T) {
	frozen := socialGraph(t).Freeze()
	thawed := NewMutableGraphStoreFrom(frozen)

	assert.True(t, thawed.Freeze().Equal(frozen))
	requireIndexesConsistent(t, thawed)

	// The thawed copy is fully mutable and independent.
	require.NoError(t, thawed.NodeProperties("a").Set("name", "Alicia"))
	thawed.RemoveNodes("d")
	assert.Equal(t, "Alice", frozen.NodeProperties("a").Get("name"))
	assert.True(t, frozen.HasNode("d"))
}
