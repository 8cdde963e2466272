package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// graphReader is the read surface shared by both store variants; the matrix
// tests below run against each through it.
type graphReader interface {
	NodeCount(labels ...string) int
	Nodes(labels ...string) []NodeID
	HasNode(id NodeID) bool
	HasRelationship(id RelationshipID) bool
	Labels() []string
	RelationshipCount(typ string) int
	Degree(id NodeID) int
	RelationshipNodes(id RelationshipID) []NodeID
	RelationshipType(id RelationshipID) (string, bool)
	RelationshipTypes() []string
	Relationships(typ string, endpoints *Endpoints) ([]RelationshipID, error)
}

// seqKeys hands out deterministic sequential ids so tests can predict them.
type seqKeys struct{ nodes, rels int }

func (k *seqKeys) NewNodeID() NodeID {
	k.nodes++
	return NodeID(fmt.Sprintf("n%02d", k.nodes))
}

func (k *seqKeys) NewRelationshipID() RelationshipID {
	k.rels++
	return RelationshipID(fmt.Sprintf("r%02d", k.rels))
}

// socialGraph builds the shared fixture: four people and six relationships
// between them.
//
//	a (X)    Alice    LIKES->b, KNOWS->b, KNOWS->c
//	b (X,Y)  Bob      LIKES->a
//	c (X,Y)  Carol    KNOWS->b, MARRIED_TO->d
//	d (Y)    Dave
func socialGraph(t *testing.T) *MutableGraphStore {
	t.Helper()
	store, err := Build(
		map[NodeID]NodeInput{
			"a": {Labels: []string{"X"}, Properties: map[string]any{"name": "Alice"}},
			"b": {Labels: []string{"X", "Y"}, Properties: map[string]any{"name": "Bob"}},
			"c": {Labels: []string{"X", "Y"}, Properties: map[string]any{"name": "Carol"}},
			"d": {Labels: []string{"Y"}, Properties: map[string]any{"name": "Dave"}},
		},
		map[RelationshipID]RelationshipInput{
			"likes-ab":   {Type: "LIKES", Endpoints: []NodeID{"a", "b"}},
			"likes-ba":   {Type: "LIKES", Endpoints: []NodeID{"b", "a"}},
			"knows-ab":   {Type: "KNOWS", Endpoints: []NodeID{"a", "b"}, Properties: map[string]any{"since": 1999}},
			"knows-ac":   {Type: "KNOWS", Endpoints: []NodeID{"a", "c"}, Properties: map[string]any{"since": 2000}},
			"knows-cb":   {Type: "KNOWS", Endpoints: []NodeID{"c", "b"}, Properties: map[string]any{"since": 2001}},
			"married-cd": {Type: "MARRIED_TO", Endpoints: []NodeID{"c", "d"}},
		},
	)
	require.NoError(t, err)
	return store
}

func queryRels(t *testing.T, s graphReader, typ string, endpoints *Endpoints) []RelationshipID {
	t.Helper()
	ids, err := s.Relationships(typ, endpoints)
	require.NoError(t, err)
	return ids
}

// TestReadSurface runs the full read matrix against both the mutable store
// and a frozen snapshot of it; the two must answer identically.
func TestReadSurface(t *testing.T) {
	mutable := socialGraph(t)
	variants := map[string]graphReader{
		"mutable": mutable,
		"frozen":  mutable.Freeze(),
	}

	for name, store := range variants {
		t.Run(name, func(t *testing.T) {
			t.Run("node counts", func(t *testing.T) {
				assert.Equal(t, 4, store.NodeCount())
				assert.Equal(t, 3, store.NodeCount("X"))
				assert.Equal(t, 3, store.NodeCount("Y"))
				assert.Equal(t, 2, store.NodeCount("X", "Y"))
				assert.Equal(t, 0, store.NodeCount("Z"))
			})

			t.Run("node listing", func(t *testing.T) {
				assert.ElementsMatch(t, []NodeID{"a", "b", "c", "d"}, store.Nodes())
				assert.ElementsMatch(t, []NodeID{"a", "b", "c"}, store.Nodes("X"))
				assert.ElementsMatch(t, []NodeID{"b", "c"}, store.Nodes("X", "Y"))
				assert.Empty(t, store.Nodes("Z"))
				assert.Empty(t, store.Nodes("X", "Z"))
			})

			t.Run("membership", func(t *testing.T) {
				assert.True(t, store.HasNode("a"))
				assert.False(t, store.HasNode("z"))
				assert.True(t, store.HasRelationship("knows-ab"))
				assert.False(t, store.HasRelationship("gone"))
			})

			t.Run("label and type catalogs", func(t *testing.T) {
				assert.Equal(t, []string{"X", "Y"}, store.Labels())
				assert.Equal(t, []string{"KNOWS", "LIKES", "MARRIED_TO"}, store.RelationshipTypes())
			})

			t.Run("relationship counts", func(t *testing.T) {
				assert.Equal(t, 6, store.RelationshipCount(""))
				assert.Equal(t, 3, store.RelationshipCount("KNOWS"))
				assert.Equal(t, 2, store.RelationshipCount("LIKES"))
				assert.Equal(t, 1, store.RelationshipCount("MARRIED_TO"))
				assert.Equal(t, 0, store.RelationshipCount("HATES"))
			})

			t.Run("degrees", func(t *testing.T) {
				assert.Equal(t, 4, store.Degree("a"))
				assert.Equal(t, 4, store.Degree("b"))
				assert.Equal(t, 3, store.Degree("c"))
				assert.Equal(t, 1, store.Degree("d"))
				assert.Equal(t, 0, store.Degree("z"))
			})

			t.Run("relationship detail", func(t *testing.T) {
				assert.Equal(t, []NodeID{"a", "b"}, store.RelationshipNodes("knows-ab"))
				assert.Nil(t, store.RelationshipNodes("gone"))

				typ, ok := store.RelationshipType("married-cd")
				assert.True(t, ok)
				assert.Equal(t, "MARRIED_TO", typ)

				_, ok = store.RelationshipType("gone")
				assert.False(t, ok)
			})

			t.Run("no filters returns everything", func(t *testing.T) {
				assert.Len(t, queryRels(t, store, "", nil), 6)
			})

			t.Run("type filter", func(t *testing.T) {
				assert.ElementsMatch(t,
					[]RelationshipID{"knows-ab", "knows-ac", "knows-cb"},
					queryRels(t, store, "KNOWS", nil))
				assert.Empty(t, queryRels(t, store, "HATES", nil))
			})

			t.Run("ordered endpoint filters", func(t *testing.T) {
				assert.ElementsMatch(t,
					[]RelationshipID{"likes-ab", "knows-ab", "knows-ac"},
					queryRels(t, store, "", OrderedEndpoints("a", "")),
					"starting at a")
				assert.ElementsMatch(t,
					[]RelationshipID{"likes-ab", "knows-ab", "knows-cb"},
					queryRels(t, store, "", OrderedEndpoints("", "b")),
					"ending at b")
				assert.ElementsMatch(t,
					[]RelationshipID{"likes-ab", "knows-ab"},
					queryRels(t, store, "", OrderedEndpoints("a", "b")),
					"from a to b")
				assert.Empty(t, queryRels(t, store, "", OrderedEndpoints("d", "")))
			})

			t.Run("unordered endpoint filters", func(t *testing.T) {
				assert.ElementsMatch(t,
					[]RelationshipID{"likes-ab", "likes-ba", "knows-ab", "knows-ac"},
					queryRels(t, store, "", UnorderedEndpoints("a")),
					"touching a")
				assert.ElementsMatch(t,
					[]RelationshipID{"likes-ab", "likes-ba", "knows-ab"},
					queryRels(t, store, "", UnorderedEndpoints("a", "b")),
					"touching both a and b")
				assert.ElementsMatch(t,
					[]RelationshipID{"married-cd"},
					queryRels(t, store, "", UnorderedEndpoints("d")))
			})

			t.Run("combined type and endpoint filters", func(t *testing.T) {
				assert.ElementsMatch(t,
					[]RelationshipID{"knows-ab", "knows-ac"},
					queryRels(t, store, "KNOWS", OrderedEndpoints("a", "")))
				assert.ElementsMatch(t,
					[]RelationshipID{"likes-ab", "likes-ba"},
					queryRels(t, store, "LIKES", UnorderedEndpoints("a", "b")))
				assert.Empty(t,
					queryRels(t, store, "MARRIED_TO", OrderedEndpoints("a", "")))
			})

			t.Run("wildcard-only filters match everything", func(t *testing.T) {
				assert.Len(t, queryRels(t, store, "", OrderedEndpoints("", "")), 6)
				assert.Len(t, queryRels(t, store, "", UnorderedEndpoints()), 6)
			})

			t.Run("zero-value endpoint filter is rejected", func(t *testing.T) {
				_, err := store.Relationships("", &Endpoints{ids: []NodeID{"a"}})
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidEndpoints)
			})
		})
	}
}

func TestEmptyStore(t *testing.T) {
	store := NewMutableGraphStore()

	assert.Equal(t, 0, store.NodeCount())
	assert.Empty(t, store.Nodes())
	assert.Empty(t, store.Labels())
	assert.Equal(t, 0, store.RelationshipCount(""))
	assert.Empty(t, store.RelationshipTypes())
	assert.Empty(t, queryRels(t, store, "", nil))
}
