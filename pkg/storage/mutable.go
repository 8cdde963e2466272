package storage

import (
	"fmt"

	"github.com/orneryd/graphstore/pkg/values"
)

// MutableGraphStore is the live, write-guarded graph store.
//
// Every batch mutation (AddNodes, RemoveNodes, AddRelationships,
// RemoveRelationships, Update, the rekey operations) acquires one write
// lock for its whole body, so a batch touching the two primary maps and
// three indices appears atomic to every other accessor. Reads take the
// read side of the same lock; a reader never observes a half-applied batch.
//
// Batches are atomic but not transactional: if one entry of a batch fails
// validation, entries already applied within the same batch stay applied.
//
// Id generation is injectable:
//
//	store := storage.NewMutableGraphStore(storage.WithKeys(myKeys))
//
// The default generator draws random UUIDs.
type MutableGraphStore struct {
	*graphStore
	keys KeyGen
}

// Option configures a MutableGraphStore at construction time.
type Option func(*MutableGraphStore)

// WithKeys replaces the default UUID id generator.
func WithKeys(keys KeyGen) Option {
	return func(m *MutableGraphStore) { m.keys = keys }
}

// NewMutableGraphStore creates an empty mutable graph store.
func NewMutableGraphStore(opts ...Option) *MutableGraphStore {
	m := &MutableGraphStore{
		graphStore: newGraphStore(),
		keys:       uuidKeys{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMutableGraphStoreFrom creates a mutable store holding an independent
// copy of src's nodes, relationships and indices. Mutating either store
// afterward leaves the other untouched.
func NewMutableGraphStoreFrom(src Store, opts ...Option) *MutableGraphStore {
	m := NewMutableGraphStore(opts...)
	if src != nil {
		m.Update(src)
	}
	return m
}

// Build creates a mutable store from raw entries keyed by caller-supplied
// ids. It is a convenience constructor for fixtures and imports; ordinary
// creation goes through AddNodes and AddRelationships, which generate ids.
func Build(nodes map[NodeID]NodeInput, relationships map[RelationshipID]RelationshipInput, opts ...Option) (*MutableGraphStore, error) {
	m := NewMutableGraphStore(opts...)
	for id, in := range nodes {
		props, err := values.NewPropertyDict(in.Properties)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		m.insertNodeLocked(id, in.Labels, props)
	}
	for id, in := range relationships {
		props, err := values.NewPropertyDict(in.Properties)
		if err != nil {
			return nil, fmt.Errorf("relationship %s: %w", id, err)
		}
		m.insertRelationshipLocked(id, in.Type, in.Endpoints, props)
	}
	return m, nil
}

// NodeLabels returns a live view of the node's label set, or nil if the id
// is unknown. Edits through the view update the label index inline, so
//
//	store.NodeLabels(id).Add("Admin")
//
// is immediately visible to store.Nodes("Admin").
func (m *MutableGraphStore) NodeLabels(id NodeID) *LabelSet {
	m.mu.RLock()
	_, ok := m.nodes[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return &LabelSet{store: m, node: id}
}

// NodeProperties returns the node's live property container, or nil if the
// id is unknown. Edits through the container are visible to every reader
// of this store.
func (m *MutableGraphStore) NodeProperties(id NodeID) *values.PropertyDict {
	props, _ := m.nodeProperties(id).(*values.PropertyDict)
	return props
}

// RelationshipProperties returns the relationship's live property
// container, or nil if the id is unknown.
func (m *MutableGraphStore) RelationshipProperties(id RelationshipID) *values.PropertyDict {
	props, _ := m.relationshipProperties(id).(*values.PropertyDict)
	return props
}

// AddNodes creates one node per input and returns the generated ids in
// input order. Each entry is validated independently as it is processed:
// on a coercion failure the ids created so far are returned alongside the
// error and their nodes remain in the store.
func (m *MutableGraphStore) AddNodes(entries ...NodeInput) ([]NodeID, error) {
	ids := make([]NodeID, 0, len(entries))

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range entries {
		props, err := values.NewPropertyDict(in.Properties)
		if err != nil {
			return ids, err
		}
		id := m.keys.NewNodeID()
		m.insertNodeLocked(id, in.Labels, props)
		ids = append(ids, id)
	}
	return ids, nil
}

// AddNode creates a single node and returns its generated id.
func (m *MutableGraphStore) AddNode(labels []string, properties map[string]any) (NodeID, error) {
	ids, err := m.AddNodes(NodeInput{Labels: labels, Properties: properties})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (m *MutableGraphStore) insertNodeLocked(id NodeID, labels []string, props *values.PropertyDict) {
	entry := &nodeEntry{
		labels: make(map[string]struct{}, len(labels)),
		props:  props,
	}
	for _, label := range labels {
		entry.labels[label] = struct{}{}
	}
	m.nodes[id] = entry
	for label := range entry.labels {
		addToBucket(m.nodesByLabel, label, id)
	}
}

// RemoveNodes removes the given nodes and, through the node index, every
// relationship that touches them. Unknown ids are skipped, so removal is
// idempotent.
func (m *MutableGraphStore) RemoveNodes(ids ...NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		entry, ok := m.nodes[id]
		if !ok {
			continue
		}
		delete(m.nodes, id)
		for label := range entry.labels {
			dropFromBucket(m.nodesByLabel, label, id)
		}

		// Cascade. Collect first: removing a relationship edits the very
		// bucket being iterated.
		attached := make([]RelationshipID, 0, len(m.relsByNode[id]))
		for pair := range m.relsByNode[id] {
			attached = append(attached, pair.rel)
		}
		m.removeRelationshipsLocked(attached)
	}
}

// AddRelationships creates one relationship per input and returns the
// generated ids in input order. Endpoint roles are assigned by the
// first/interior/last rule over each input's endpoint list. Entries are
// validated independently; see AddNodes for the failure semantics.
func (m *MutableGraphStore) AddRelationships(entries ...RelationshipInput) ([]RelationshipID, error) {
	ids := make([]RelationshipID, 0, len(entries))

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range entries {
		props, err := values.NewPropertyDict(in.Properties)
		if err != nil {
			return ids, err
		}
		id := m.keys.NewRelationshipID()
		m.insertRelationshipLocked(id, in.Type, in.Endpoints, props)
		ids = append(ids, id)
	}
	return ids, nil
}

// AddRelationship creates a single relationship and returns its generated
// id.
func (m *MutableGraphStore) AddRelationship(typ string, endpoints []NodeID, properties map[string]any) (RelationshipID, error) {
	ids, err := m.AddRelationships(RelationshipInput{Type: typ, Endpoints: endpoints, Properties: properties})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (m *MutableGraphStore) insertRelationshipLocked(id RelationshipID, typ string, endpoints []NodeID, props *values.PropertyDict) {
	entry := &relationshipEntry{
		typ:       typ,
		endpoints: make([]NodeID, len(endpoints)),
		props:     props,
	}
	copy(entry.endpoints, endpoints)
	m.relationships[id] = entry
	addToBucket(m.relsByType, typ, id)
	for i, node := range entry.endpoints {
		addToBucket(m.relsByNode, node, endpointRole{rel: id, role: roleOf(i, len(entry.endpoints))})
	}
}

// RemoveRelationships removes the given relationships from the primary map
// and all indices. Unknown ids are skipped.
func (m *MutableGraphStore) RemoveRelationships(ids ...RelationshipID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeRelationshipsLocked(ids)
}

func (m *MutableGraphStore) removeRelationshipsLocked(ids []RelationshipID) {
	for _, id := range ids {
		entry, ok := m.relationships[id]
		if !ok {
			continue
		}
		delete(m.relationships, id)
		dropFromBucket(m.relsByType, entry.typ, id)
		for i, node := range entry.endpoints {
			dropFromBucket(m.relsByNode, node, endpointRole{rel: id, role: roleOf(i, len(entry.endpoints))})
		}
	}
}

// Update merges src into this store: nodes and relationships with
// colliding ids are overwritten, index buckets are unioned. The merged
// entries are independent copies; later mutations of src do not leak in.
func (m *MutableGraphStore) Update(src Store) {
	s := src.graphStoreRef()
	if s != m.graphStore {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, entry := range s.nodes {
		labels := make(map[string]struct{}, len(entry.labels))
		for label := range entry.labels {
			labels[label] = struct{}{}
		}
		m.nodes[id] = &nodeEntry{labels: labels, props: thawProperties(entry.props)}
	}
	for id, entry := range s.relationships {
		endpoints := make([]NodeID, len(entry.endpoints))
		copy(endpoints, entry.endpoints)
		m.relationships[id] = &relationshipEntry{typ: entry.typ, endpoints: endpoints, props: thawProperties(entry.props)}
	}
	for label, set := range s.nodesByLabel {
		for id := range set {
			addToBucket(m.nodesByLabel, label, id)
		}
	}
	for typ, set := range s.relsByType {
		for id := range set {
			addToBucket(m.relsByType, typ, id)
		}
	}
	for node, set := range s.relsByNode {
		for pair := range set {
			addToBucket(m.relsByNode, node, pair)
		}
	}
}

// RekeyNode reassigns a node's id, atomically rewriting the primary map,
// the label index, the node index, and the endpoint lists of every
// relationship that references the old id. This is an identity-mutation
// escape hatch, not ordinary behavior; it exists so callers that must
// renumber entries cannot leave an index stale.
func (m *MutableGraphStore) RekeyNode(old, new NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.nodes[old]
	if !ok {
		return fmt.Errorf("node %s: %w", old, ErrNotFound)
	}
	if _, taken := m.nodes[new]; taken {
		return fmt.Errorf("node %s: %w", new, ErrAlreadyExists)
	}

	delete(m.nodes, old)
	m.nodes[new] = entry
	for label := range entry.labels {
		dropFromBucket(m.nodesByLabel, label, old)
		addToBucket(m.nodesByLabel, label, new)
	}

	pairs := m.relsByNode[old]
	delete(m.relsByNode, old)
	for pair := range pairs {
		rel := m.relationships[pair.rel]
		for i, node := range rel.endpoints {
			if node == old && roleOf(i, len(rel.endpoints)) == pair.role {
				rel.endpoints[i] = new
			}
		}
		addToBucket(m.relsByNode, new, pair)
	}
	return nil
}

// RekeyRelationship reassigns a relationship's id, atomically rewriting the
// primary map, the type index and every endpoint's node-index bucket.
func (m *MutableGraphStore) RekeyRelationship(old, new RelationshipID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.relationships[old]
	if !ok {
		return fmt.Errorf("relationship %s: %w", old, ErrNotFound)
	}
	if _, taken := m.relationships[new]; taken {
		return fmt.Errorf("relationship %s: %w", new, ErrAlreadyExists)
	}

	delete(m.relationships, old)
	m.relationships[new] = entry
	dropFromBucket(m.relsByType, entry.typ, old)
	addToBucket(m.relsByType, entry.typ, new)
	for i, node := range entry.endpoints {
		role := roleOf(i, len(entry.endpoints))
		dropFromBucket(m.relsByNode, node, endpointRole{rel: old, role: role})
		addToBucket(m.relsByNode, node, endpointRole{rel: new, role: role})
	}
	return nil
}

// Freeze takes an immutable snapshot of the store's current state under
// the read lock. The snapshot shares nothing mutable with this store.
func (m *MutableGraphStore) Freeze() *FrozenGraphStore {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return freezeLocked(m.graphStore)
}

// thawProperties converts any property container into a fresh mutable one.
func thawProperties(p Properties) *values.PropertyDict {
	switch v := p.(type) {
	case *values.PropertyDict:
		return v.Clone()
	case *values.PropertyRecord:
		return v.Thaw()
	default:
		d, _ := values.NewPropertyDict(nil)
		return d
	}
}

var _ Store = (*MutableGraphStore)(nil)
