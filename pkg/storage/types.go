// Package storage implements an in-memory storage engine for labeled
// property graphs.
//
// A graph is held in two primary maps (nodes and relationships) plus three
// derived indices that are maintained incrementally under every mutation:
//
//	nodesByLabel:  label   -> set of node ids
//	relsByType:    type    -> set of relationship ids
//	relsByNode:    node id -> set of (relationship id, role) pairs
//
// The indices are never independently authoritative: after any mutation
// they match exactly what a full rescan of the primary maps would produce,
// and an emptied index bucket is dropped rather than left dangling.
//
// Two store variants share one read algorithm:
//
//   - MutableGraphStore: the live store. Batch mutations are guarded by a
//     single write lock, node label sets are edited through LabelSet views
//     that keep the label index synchronized inline, and properties are
//     held in mutable PropertyDict containers.
//   - FrozenGraphStore: an immutable snapshot with structural equality and
//     an order-independent hash. Label sets and index buckets are frozen,
//     properties become PropertyRecord values.
//
// Relationships have an ordered endpoint list of arbitrary arity. A node's
// position in that list is its role: the first endpoint has role 0, the
// last has the distinguished RoleLast sentinel, and interior endpoints keep
// their literal index. Role-aware queries ("starts at", "ends at", "passes
// through") therefore work without knowing a relationship's arity.
//
// Example:
//
//	store := storage.NewMutableGraphStore()
//	ids, err := store.AddNodes(
//		storage.NodeInput{Labels: []string{"Person"}, Properties: map[string]any{"name": "Alice"}},
//		storage.NodeInput{Labels: []string{"Person"}, Properties: map[string]any{"name": "Bob"}},
//	)
//	if err != nil {
//		return err
//	}
//	_, err = store.AddRelationships(storage.RelationshipInput{
//		Type:       "KNOWS",
//		Endpoints:  []storage.NodeID{ids[0], ids[1]},
//		Properties: map[string]any{"since": 1999},
//	})
//	if err != nil {
//		return err
//	}
//
//	// Which relationships start at Alice?
//	rels, _ := store.Relationships("", storage.OrderedEndpoints(ids[0], ""))
//
//	// Snapshot for hashing or safe sharing.
//	frozen := store.Freeze()
//	fmt.Println(frozen.NodeCount("Person")) // 2
package storage

import (
	"errors"

	"github.com/google/uuid"
)

// Common errors. Lookup misses are deliberately not errors: accessors
// report absence through their return values and batch removals skip
// unknown ids. Only structurally invalid arguments fail.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidEndpoints = errors.New("invalid endpoint filter")
)

// NodeID is a strongly-typed unique identifier for graph nodes.
//
// Ids are opaque strings. The default generator produces random 128-bit
// UUIDs in text form, assigned once at creation and never reused; tests
// inject deterministic generators through KeyGen.
type NodeID string

// RelationshipID is a strongly-typed unique identifier for relationships.
type RelationshipID string

// Role is the positional slot a node occupies within a relationship's
// endpoint list. The first endpoint has role 0 and interior endpoints keep
// their literal index, but the final endpoint always has RoleLast no matter
// the arity, so "ends at" queries need not know how many endpoints a
// relationship has.
type Role int

// RoleLast marks the final endpoint of a relationship.
const RoleLast Role = -1

// roleOf computes the role of position i within an endpoint list of length
// n, applying the first/interior/last rule. A single-endpoint relationship
// gets RoleLast for its only slot.
func roleOf(i, n int) Role {
	if i == n-1 {
		return RoleLast
	}
	return Role(i)
}

// endpointRole pairs a relationship with the role a node occupies in it.
// These pairs are the members of the relationships-by-node index buckets.
type endpointRole struct {
	rel  RelationshipID
	role Role
}

// NodeInput describes a node to be added: its labels and its properties.
// Property values must satisfy the property value domain.
type NodeInput struct {
	Labels     []string
	Properties map[string]any
}

// RelationshipInput describes a relationship to be added. Endpoints is an
// ordered list of node ids of any length; arity two is the common case but
// nothing in the engine assumes it.
type RelationshipInput struct {
	Type       string
	Endpoints  []NodeID
	Properties map[string]any
}

// Properties is the read surface common to both property container kinds.
// Mutable stores hold *values.PropertyDict behind it, frozen stores hold
// *values.PropertyRecord.
type Properties interface {
	Get(key string) any
	Len() int
	Keys() []string
	Map() map[string]any
}

// KeyGen produces fresh node and relationship ids. The store takes the
// generator as an explicit capability so tests can substitute deterministic
// sequences instead of patching a process-wide default.
type KeyGen interface {
	NewNodeID() NodeID
	NewRelationshipID() RelationshipID
}

// uuidKeys is the default KeyGen: random 128-bit UUIDs.
type uuidKeys struct{}

func (uuidKeys) NewNodeID() NodeID { return NodeID(uuid.NewString()) }

func (uuidKeys) NewRelationshipID() RelationshipID { return RelationshipID(uuid.NewString()) }
