package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Dump renders the store as human-readable text for diagnostics: one line
// per node as
//
//	(#a1b2c3d:Person:Admin {name: "Alice"})
//
// and one line per relationship as
//
//	(#a1b2c3d)-[#e4f5a6b:KNOWS {since: 1999}]->(#c7d8e9f)
//
// with any endpoints beyond the first joined by ";" in the trailing group.
// UUID ids are abbreviated to their last seven hex digits; other ids are
// shown verbatim. Lines are sorted by id so the output is stable.
func (s *graphStore) Dump() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodeIDs := make([]NodeID, 0, len(s.nodes))
	for id := range s.nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

	relIDs := make([]RelationshipID, 0, len(s.relationships))
	for id := range s.relationships {
		relIDs = append(relIDs, id)
	}
	sort.Slice(relIDs, func(i, j int) bool { return relIDs[i] < relIDs[j] })

	var b strings.Builder
	for _, id := range nodeIDs {
		entry := s.nodes[id]
		b.WriteString(nodeString(id, entry))
		b.WriteByte('\n')
	}
	for _, id := range relIDs {
		entry := s.relationships[id]
		b.WriteString(relationshipString(id, entry))
		b.WriteByte('\n')
	}
	return b.String()
}

func nodeString(id NodeID, entry *nodeEntry) string {
	key := keyString(string(id))
	props := propsString(entry.props)
	if len(entry.labels) == 0 {
		return fmt.Sprintf("(%s %s)", key, props)
	}
	return fmt.Sprintf("(%s:%s %s)", key, strings.Join(sortedLabels(entry.labels), ":"), props)
}

func relationshipString(id RelationshipID, entry *relationshipEntry) string {
	key := keyString(string(id))
	props := propsString(entry.props)
	start := ""
	if len(entry.endpoints) > 0 {
		start = keyString(string(entry.endpoints[0]))
	}
	rest := make([]string, 0, len(entry.endpoints))
	for _, node := range entry.endpoints[min(1, len(entry.endpoints)):] {
		rest = append(rest, keyString(string(node)))
	}
	return fmt.Sprintf("(%s)-[%s:%s %s]->(%s)", start, key, entry.typ, props, strings.Join(rest, ";"))
}

// keyString abbreviates UUID ids to "#" plus their last seven hex digits,
// matching the dump convention for generated keys.
func keyString(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		hex := strings.ReplaceAll(u.String(), "-", "")
		return "#" + hex[len(hex)-7:]
	}
	return id
}

func propsString(props Properties) string {
	keys := props.Keys()
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, valueString(props.Get(key))))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func valueString(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = valueString(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
