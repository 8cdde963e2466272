package storage

import "sort"

// LabelSet is a live, owning view of one node's label set.
//
// The view holds a handle to its store rather than a copy of the labels:
// every mutation edits the node's authoritative label membership and the
// store's label index in the same step, under the store's write lock, with
// exactly the elements that changed membership. The index therefore never
// needs a resync pass after label edits.
//
//	labels := store.NodeLabels(id)
//	labels.Add("Admin")            // store.Nodes("Admin") now includes id
//	labels.Discard("Temp")         // index bucket dropped if emptied
//
// A LabelSet whose node has been removed from the store reads as empty and
// ignores mutations.
type LabelSet struct {
	store *MutableGraphStore
	node  NodeID
}

// Contains reports whether the node currently carries label.
func (l *LabelSet) Contains(label string) bool {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	entry, ok := l.store.nodes[l.node]
	if !ok {
		return false
	}
	_, has := entry.labels[label]
	return has
}

// Len returns the number of labels on the node.
func (l *LabelSet) Len() int {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	entry, ok := l.store.nodes[l.node]
	if !ok {
		return 0
	}
	return len(entry.labels)
}

// Values returns the node's labels, sorted.
func (l *LabelSet) Values() []string {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	labels, _ := l.store.nodeLabelsLocked(l.node)
	return labels
}

// Add puts the given labels on the node. Labels already present change
// nothing; new ones are inserted into the label index as they are applied.
func (l *LabelSet) Add(labels ...string) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	entry, ok := l.store.nodes[l.node]
	if !ok {
		return
	}
	for _, label := range labels {
		if _, has := entry.labels[label]; has {
			continue
		}
		entry.labels[label] = struct{}{}
		addToBucket(l.store.nodesByLabel, label, l.node)
	}
}

// Discard takes the given labels off the node. Absent labels change
// nothing; removed ones leave the label index as they are applied, and an
// emptied bucket is dropped.
func (l *LabelSet) Discard(labels ...string) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	entry, ok := l.store.nodes[l.node]
	if !ok {
		return
	}
	for _, label := range labels {
		l.discardLocked(entry, label)
	}
}

// Remove takes label off the node and reports whether it was present.
func (l *LabelSet) Remove(label string) bool {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	entry, ok := l.store.nodes[l.node]
	if !ok {
		return false
	}
	if _, has := entry.labels[label]; !has {
		return false
	}
	l.discardLocked(entry, label)
	return true
}

// Pop removes and returns an arbitrary label, or false if the node has
// none.
func (l *LabelSet) Pop() (string, bool) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	entry, ok := l.store.nodes[l.node]
	if !ok {
		return "", false
	}
	for label := range entry.labels {
		l.discardLocked(entry, label)
		return label, true
	}
	return "", false
}

// Clear removes every label from the node.
func (l *LabelSet) Clear() {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	entry, ok := l.store.nodes[l.node]
	if !ok {
		return
	}
	for label := range entry.labels {
		l.discardLocked(entry, label)
	}
}

// Retain keeps only the given labels on the node, removing the rest. This
// is intersection-assignment: labels in the argument that the node does
// not carry are not added.
func (l *LabelSet) Retain(labels ...string) {
	keep := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		keep[label] = struct{}{}
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	entry, ok := l.store.nodes[l.node]
	if !ok {
		return
	}
	for label := range entry.labels {
		if _, kept := keep[label]; !kept {
			l.discardLocked(entry, label)
		}
	}
}

// SymmetricDifference toggles the given labels: those the node carries are
// removed, those it lacks are added.
func (l *LabelSet) SymmetricDifference(labels ...string) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	entry, ok := l.store.nodes[l.node]
	if !ok {
		return
	}
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		if _, has := entry.labels[label]; has {
			l.discardLocked(entry, label)
		} else {
			entry.labels[label] = struct{}{}
			addToBucket(l.store.nodesByLabel, label, l.node)
		}
	}
}

// discardLocked removes one label from both the node entry and the label
// index. Caller holds the store's write lock and has verified the entry.
func (l *LabelSet) discardLocked(entry *nodeEntry, label string) {
	delete(entry.labels, label)
	dropFromBucket(l.store.nodesByLabel, label, l.node)
}

// sortedLabels flattens a label membership set into sorted order.
func sortedLabels(set map[string]struct{}) []string {
	labels := make([]string, 0, len(set))
	for label := range set {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
