package storage

import (
	"fmt"
	"sort"
	"sync"
)

// Store is the protocol shared by every graph store variant. Both
// MutableGraphStore and FrozenGraphStore satisfy it; the unexported method
// keeps the set of implementations closed, so constructors that copy from a
// Store never see a foreign type.
type Store interface {
	graphStoreRef() *graphStore
}

// nodeEntry is the primary-store record for one node: authoritative label
// membership plus a property container.
type nodeEntry struct {
	labels map[string]struct{}
	props  Properties
}

// relationshipEntry is the primary-store record for one relationship.
type relationshipEntry struct {
	typ       string
	endpoints []NodeID
	props     Properties
}

// graphStore holds the two primary maps, the three derived indices, and the
// shared read algorithm. Store variants embed a *graphStore: the mutable
// variant writes under mu, the frozen variant never writes after
// construction, and a frozen copy of a frozen store shares the pointer
// outright.
type graphStore struct {
	mu sync.RWMutex

	nodes         map[NodeID]*nodeEntry
	relationships map[RelationshipID]*relationshipEntry

	nodesByLabel map[string]map[NodeID]struct{}
	relsByType   map[string]map[RelationshipID]struct{}
	relsByNode   map[NodeID]map[endpointRole]struct{}
}

func newGraphStore() *graphStore {
	return &graphStore{
		nodes:         make(map[NodeID]*nodeEntry),
		relationships: make(map[RelationshipID]*relationshipEntry),
		nodesByLabel:  make(map[string]map[NodeID]struct{}),
		relsByType:    make(map[string]map[RelationshipID]struct{}),
		relsByNode:    make(map[NodeID]map[endpointRole]struct{}),
	}
}

func (s *graphStore) graphStoreRef() *graphStore { return s }

// addToBucket inserts value into the bucket under key, creating the bucket
// on first use.
func addToBucket[K, V comparable](buckets map[K]map[V]struct{}, key K, value V) {
	set, ok := buckets[key]
	if !ok {
		set = make(map[V]struct{})
		buckets[key] = set
	}
	set[value] = struct{}{}
}

// dropFromBucket removes value from the bucket under key and drops the
// bucket entirely once it empties, so no index ever holds a dangling empty
// set.
func dropFromBucket[K, V comparable](buckets map[K]map[V]struct{}, key K, value V) {
	set, ok := buckets[key]
	if !ok {
		return
	}
	delete(set, value)
	if len(set) == 0 {
		delete(buckets, key)
	}
}

// NodeCount returns the number of nodes in the store. With labels given it
// counts only the nodes carrying all of them: one label reads the index
// bucket size directly, several run the intersection query.
func (s *graphStore) NodeCount(labels ...string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch len(labels) {
	case 0:
		return len(s.nodes)
	case 1:
		return len(s.nodesByLabel[labels[0]])
	default:
		return len(s.nodesLocked(labels))
	}
}

// Nodes returns the ids of all nodes, or of the nodes carrying all the
// given labels. A label unknown to the store short-circuits to an empty
// result. Order is unspecified.
func (s *graphStore) Nodes(labels ...string) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodesLocked(labels)
}

func (s *graphStore) nodesLocked(labels []string) []NodeID {
	if len(labels) == 0 {
		ids := make([]NodeID, 0, len(s.nodes))
		for id := range s.nodes {
			ids = append(ids, id)
		}
		return ids
	}

	seen := make(map[string]struct{}, len(labels))
	sets := make([]map[NodeID]struct{}, 0, len(labels))
	for _, label := range labels {
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		set, ok := s.nodesByLabel[label]
		if !ok {
			return nil
		}
		sets = append(sets, set)
	}
	return intersect(sets)
}

// HasNode reports whether the store contains a node with the given id.
func (s *graphStore) HasNode(id NodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// HasRelationship reports whether the store contains a relationship with
// the given id.
func (s *graphStore) HasRelationship(id RelationshipID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.relationships[id]
	return ok
}

// Labels returns every label known to the store, sorted.
func (s *graphStore) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]string, 0, len(s.nodesByLabel))
	for label := range s.nodesByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// nodeLabelsLocked returns a sorted copy of a node's labels. Callers hold
// at least a read lock.
func (s *graphStore) nodeLabelsLocked(id NodeID) ([]string, bool) {
	entry, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return sortedLabels(entry.labels), true
}

func (s *graphStore) nodeProperties(id NodeID) Properties {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.nodes[id]
	if !ok {
		return nil
	}
	return entry.props
}

// RelationshipCount returns the number of relationships in the store, or,
// with a non-empty typ, the size of that type's index bucket.
func (s *graphStore) RelationshipCount(typ string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if typ == "" {
		return len(s.relationships)
	}
	return len(s.relsByType[typ])
}

// Degree returns the number of (relationship, role) attachments the node
// has. A relationship touching the node in two roles counts twice.
func (s *graphStore) Degree(id NodeID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.relsByNode[id])
}

// RelationshipNodes returns a copy of a relationship's ordered endpoint
// list, or nil if the id is unknown.
func (s *graphStore) RelationshipNodes(id RelationshipID) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.relationships[id]
	if !ok {
		return nil
	}
	endpoints := make([]NodeID, len(entry.endpoints))
	copy(endpoints, entry.endpoints)
	return endpoints
}

func (s *graphStore) relationshipProperties(id RelationshipID) Properties {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.relationships[id]
	if !ok {
		return nil
	}
	return entry.props
}

// RelationshipType returns a relationship's type and whether the id is
// known.
func (s *graphStore) RelationshipType(id RelationshipID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.relationships[id]
	if !ok {
		return "", false
	}
	return entry.typ, true
}

// RelationshipTypes returns every relationship type known to the store,
// sorted.
func (s *graphStore) RelationshipTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.relsByType))
	for typ := range s.relsByType {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// endpointKind distinguishes the two endpoint filter shapes.
type endpointKind int

const (
	endpointOrdered endpointKind = iota + 1
	endpointUnordered
)

// Endpoints filters relationships by the nodes they connect. Build one with
// OrderedEndpoints or UnorderedEndpoints; the zero value is invalid and
// rejected by Relationships.
type Endpoints struct {
	kind endpointKind
	ids  []NodeID
}

// OrderedEndpoints matches relationships positionally: the id at position p
// must occupy role p of the relationship, with roles computed over the
// filter's own length by the first/interior/last rule. An empty id is a
// wildcard for its position.
//
//	OrderedEndpoints(a, "")  // starts at a
//	OrderedEndpoints("", b)  // ends at b
//	OrderedEndpoints(a, b)   // starts at a and ends at b
func OrderedEndpoints(ids ...NodeID) *Endpoints {
	return &Endpoints{kind: endpointOrdered, ids: ids}
}

// UnorderedEndpoints matches relationships that touch every given node in
// any role. Empty ids are skipped.
//
//	UnorderedEndpoints(a, b) // touches both a and b, in any order
func UnorderedEndpoints(ids ...NodeID) *Endpoints {
	return &Endpoints{kind: endpointUnordered, ids: ids}
}

// wildcardOnly reports whether the filter constrains nothing.
func (e *Endpoints) wildcardOnly() bool {
	for _, id := range e.ids {
		if id != "" {
			return false
		}
	}
	return true
}

// Relationships returns the ids of relationships matching the given
// filters. An empty typ matches any type; a nil endpoints filter matches
// any endpoints. With no filters at all, every relationship id is returned.
//
// The result is the intersection of one candidate set per active filter:
// the type's index bucket, plus one set per constrained endpoint looked up
// in the relationships-by-node index (role-exact for ordered filters, any
// role for unordered ones). An endpoints filter that was not built with
// OrderedEndpoints or UnorderedEndpoints fails with ErrInvalidEndpoints.
func (s *graphStore) Relationships(typ string, endpoints *Endpoints) ([]RelationshipID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sets []map[RelationshipID]struct{}
	if typ != "" {
		sets = append(sets, s.relsByType[typ])
	}

	if endpoints != nil && !endpoints.wildcardOnly() {
		switch endpoints.kind {
		case endpointOrdered:
			n := len(endpoints.ids)
			for i, id := range endpoints.ids {
				if id == "" {
					continue
				}
				role := roleOf(i, n)
				set := make(map[RelationshipID]struct{})
				for pair := range s.relsByNode[id] {
					if pair.role == role {
						set[pair.rel] = struct{}{}
					}
				}
				sets = append(sets, set)
			}
		case endpointUnordered:
			for _, id := range endpoints.ids {
				if id == "" {
					continue
				}
				set := make(map[RelationshipID]struct{})
				for pair := range s.relsByNode[id] {
					set[pair.rel] = struct{}{}
				}
				sets = append(sets, set)
			}
		default:
			return nil, fmt.Errorf("%w: endpoints must be built with OrderedEndpoints or UnorderedEndpoints", ErrInvalidEndpoints)
		}
	}

	if len(sets) == 0 {
		ids := make([]RelationshipID, 0, len(s.relationships))
		for id := range s.relationships {
			ids = append(ids, id)
		}
		return ids, nil
	}
	return intersect(sets), nil
}

// intersect returns the members common to every set. Iteration starts from
// the smallest set so the cost tracks the tightest filter.
func intersect[V comparable](sets []map[V]struct{}) []V {
	if len(sets) == 0 {
		return nil
	}
	smallest := sets[0]
	for _, set := range sets[1:] {
		if len(set) < len(smallest) {
			smallest = set
		}
	}

	var out []V
candidates:
	for v := range smallest {
		for _, set := range sets {
			if _, ok := set[v]; !ok {
				continue candidates
			}
		}
		out = append(out, v)
	}
	return out
}
