package storage

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/orneryd/graphstore/pkg/values"
)

// FrozenGraphStore is an immutable snapshot of a graph store.
//
// Once constructed it is never mutated: label sets and index buckets are
// frozen copies and properties are immutable PropertyRecord values, so a
// snapshot can be shared across goroutines, compared structurally and
// hashed without further coordination.
//
// Two frozen stores built from equivalent graphs compare Equal and return
// the same Hash even when the graphs were assembled by differently ordered
// mutation sequences.
type FrozenGraphStore struct {
	*graphStore
}

// NewFrozenGraphStore creates an immutable snapshot.
//
// A nil src yields an empty store. Freezing a FrozenGraphStore is cheap:
// the already-immutable internals are shared, not copied. Freezing any
// other store deep-copies every entry into frozen equivalents, after which
// the snapshot's lifetime is independent of the source.
func NewFrozenGraphStore(src Store) *FrozenGraphStore {
	switch s := src.(type) {
	case nil:
		return &FrozenGraphStore{graphStore: newGraphStore()}
	case *FrozenGraphStore:
		return &FrozenGraphStore{graphStore: s.graphStore}
	case *MutableGraphStore:
		return s.Freeze()
	default:
		return freezeLocked(src.graphStoreRef())
	}
}

// freezeLocked deep-copies src into a frozen store. The caller guarantees
// src is not being mutated (it holds src's lock, or src is immutable).
func freezeLocked(src *graphStore) *FrozenGraphStore {
	dst := newGraphStore()
	for id, entry := range src.nodes {
		labels := make(map[string]struct{}, len(entry.labels))
		for label := range entry.labels {
			labels[label] = struct{}{}
		}
		dst.nodes[id] = &nodeEntry{labels: labels, props: freezeProperties(entry.props)}
	}
	for id, entry := range src.relationships {
		endpoints := make([]NodeID, len(entry.endpoints))
		copy(endpoints, entry.endpoints)
		dst.relationships[id] = &relationshipEntry{typ: entry.typ, endpoints: endpoints, props: freezeProperties(entry.props)}
	}
	for label, set := range src.nodesByLabel {
		frozen := make(map[NodeID]struct{}, len(set))
		for id := range set {
			frozen[id] = struct{}{}
		}
		dst.nodesByLabel[label] = frozen
	}
	for typ, set := range src.relsByType {
		frozen := make(map[RelationshipID]struct{}, len(set))
		for id := range set {
			frozen[id] = struct{}{}
		}
		dst.relsByType[typ] = frozen
	}
	for node, set := range src.relsByNode {
		frozen := make(map[endpointRole]struct{}, len(set))
		for pair := range set {
			frozen[pair] = struct{}{}
		}
		dst.relsByNode[node] = frozen
	}
	return &FrozenGraphStore{graphStore: dst}
}

// freezeProperties converts any property container into an immutable one.
// Already-frozen records are reused outright.
func freezeProperties(p Properties) *values.PropertyRecord {
	switch v := p.(type) {
	case *values.PropertyRecord:
		return v
	case *values.PropertyDict:
		return v.Freeze()
	default:
		r, _ := values.NewPropertyRecord(nil)
		return r
	}
}

// NodeLabels returns a sorted copy of the node's labels, or false if the
// id is unknown. Absence is reported through the second return, never an
// error.
func (f *FrozenGraphStore) NodeLabels(id NodeID) ([]string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nodeLabelsLocked(id)
}

// NodeProperties returns the node's immutable properties, or nil if the id
// is unknown.
func (f *FrozenGraphStore) NodeProperties(id NodeID) *values.PropertyRecord {
	props, _ := f.nodeProperties(id).(*values.PropertyRecord)
	return props
}

// RelationshipProperties returns the relationship's immutable properties,
// or nil if the id is unknown.
func (f *FrozenGraphStore) RelationshipProperties(id RelationshipID) *values.PropertyRecord {
	props, _ := f.relationshipProperties(id).(*values.PropertyRecord)
	return props
}

// Equal reports whether two frozen stores hold structurally identical
// graphs: the same node ids with the same labels and properties, and the
// same relationship ids with the same type, endpoint order and properties.
// The derived indices need no comparison; they are functions of the
// primary maps.
func (f *FrozenGraphStore) Equal(other *FrozenGraphStore) bool {
	if other == nil {
		return f == nil
	}
	if f.graphStore == other.graphStore {
		return true
	}
	if len(f.nodes) != len(other.nodes) || len(f.relationships) != len(other.relationships) {
		return false
	}
	for id, entry := range f.nodes {
		otherEntry, ok := other.nodes[id]
		if !ok || len(entry.labels) != len(otherEntry.labels) {
			return false
		}
		for label := range entry.labels {
			if _, ok := otherEntry.labels[label]; !ok {
				return false
			}
		}
		if !entry.props.(*values.PropertyRecord).Equal(otherEntry.props.(*values.PropertyRecord)) {
			return false
		}
	}
	for id, entry := range f.relationships {
		otherEntry, ok := other.relationships[id]
		if !ok || entry.typ != otherEntry.typ || len(entry.endpoints) != len(otherEntry.endpoints) {
			return false
		}
		for i, node := range entry.endpoints {
			if otherEntry.endpoints[i] != node {
				return false
			}
		}
		if !entry.props.(*values.PropertyRecord).Equal(otherEntry.props.(*values.PropertyRecord)) {
			return false
		}
	}
	return true
}

// Hash returns a structural hash of the whole graph: the XOR of one digest
// per node and per relationship. XOR makes the result independent of map
// iteration order, so equal stores hash equal regardless of how they were
// assembled.
func (f *FrozenGraphStore) Hash() uint64 {
	var h uint64
	for id, entry := range f.nodes {
		h ^= hashNodeEntry(id, entry)
	}
	for id, entry := range f.relationships {
		h ^= hashRelationshipEntry(id, entry)
	}
	return h
}

func hashNodeEntry(id NodeID, entry *nodeEntry) uint64 {
	d := xxhash.New()
	_, _ = d.Write([]byte{'n'})
	writeString(d, string(id))
	// XOR the label digests separately: label sets are unordered.
	var labelHash uint64
	for label := range entry.labels {
		labelHash ^= xxhash.Sum64String(label)
	}
	writeUint64(d, labelHash)
	writeUint64(d, entry.props.(*values.PropertyRecord).Hash())
	return d.Sum64()
}

func hashRelationshipEntry(id RelationshipID, entry *relationshipEntry) uint64 {
	d := xxhash.New()
	_, _ = d.Write([]byte{'r'})
	writeString(d, string(id))
	writeString(d, entry.typ)
	for _, node := range entry.endpoints {
		writeString(d, string(node))
	}
	writeUint64(d, entry.props.(*values.PropertyRecord).Hash())
	return d.Sum64()
}

func writeString(d *xxhash.Digest, s string) {
	writeUint64(d, uint64(len(s)))
	_, _ = d.WriteString(s)
}

func writeUint64(d *xxhash.Digest, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = d.Write(buf[:])
}

var _ Store = (*FrozenGraphStore)(nil)
