package values

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Item is a single key/value pair used to construct records in a defined
// order.
type Item struct {
	Key   string
	Value any
}

// Record is an ordered, keyed, immutable tuple of general values.
//
// Construction coerces every value through the general policy and
// deduplicates keys: a repeated key keeps its first position but takes its
// last value, matching insertion-order map semantics.
//
// Records support lookup by position and by key. Equality is defined over
// the key-to-value mapping, independent of internal order, so two records
// built from the same pairs in different orders compare equal.
type Record struct {
	keys   []string
	values []any
}

// NewRecord builds a record from ordered key/value pairs.
func NewRecord(items []Item) (*Record, error) {
	return newRecord(items, Coerce)
}

// NewRecordFromMap builds a record from a map, ordering keys lexically so
// that construction is deterministic.
func NewRecordFromMap(m map[string]any) (*Record, error) {
	return newRecord(sortedItems(m), Coerce)
}

func newRecord(items []Item, coerce func(any) (any, error)) (*Record, error) {
	r := &Record{
		keys:   make([]string, 0, len(items)),
		values: make([]any, 0, len(items)),
	}
	index := make(map[string]int, len(items))
	for _, item := range items {
		value, err := coerce(item.Value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", item.Key, err)
		}
		if i, seen := index[item.Key]; seen {
			r.values[i] = value
			continue
		}
		index[item.Key] = len(r.keys)
		r.keys = append(r.keys, item.Key)
		r.values = append(r.values, value)
	}
	return r, nil
}

func sortedItems(m map[string]any) []Item {
	items := make([]Item, 0, len(m))
	for key, value := range m {
		items = append(items, Item{Key: key, Value: value})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items
}

// Len returns the number of entries in the record.
func (r *Record) Len() int {
	return len(r.keys)
}

// At returns the value at position i and whether i is in range.
func (r *Record) At(i int) (any, bool) {
	if i < 0 || i >= len(r.values) {
		return nil, false
	}
	return r.values[i], true
}

// Index returns the position of key, or -1 if the key is absent.
func (r *Record) Index(key string) int {
	for i, k := range r.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// Lookup returns the value stored under key and whether the key is present.
func (r *Record) Lookup(key string) (any, bool) {
	if i := r.Index(key); i >= 0 {
		return r.values[i], true
	}
	return nil, false
}

// Keys returns the record's keys in storage order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Values returns the record's values in storage order.
func (r *Record) Values() []any {
	values := make([]any, len(r.values))
	copy(values, r.values)
	return values
}

// Items returns the record's entries in storage order.
func (r *Record) Items() []Item {
	items := make([]Item, len(r.keys))
	for i, key := range r.keys {
		items[i] = Item{Key: key, Value: r.values[i]}
	}
	return items
}

// Map returns the record's entries as a map.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.keys))
	for i, key := range r.keys {
		m[key] = r.values[i]
	}
	return m
}

// Equal reports whether two records hold the same key-to-value mapping,
// regardless of entry order.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return r == nil
	}
	return reflect.DeepEqual(r.Map(), other.Map())
}

// PropertyRecord is an immutable property container.
//
// Construction applies the property coercion policy, silently drops any
// pair whose value is nil (absence and null are the same state), and sorts
// the surviving pairs by key so that iteration order and hashing are
// deterministic.
//
// PropertyRecord values are structurally hashable: two records holding the
// same properties have the same hash even when built from differently
// ordered inputs.
type PropertyRecord struct {
	record Record
}

// NewPropertyRecord builds an immutable property container from key/value
// pairs. Pairs with nil values are dropped; remaining values must satisfy
// the property domain.
func NewPropertyRecord(items []Item) (*PropertyRecord, error) {
	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Value == nil {
			continue
		}
		kept = append(kept, item)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Key < kept[j].Key })
	r, err := newRecord(kept, CoerceProperty)
	if err != nil {
		return nil, err
	}
	return &PropertyRecord{record: *r}, nil
}

// PropertyRecordFromMap builds an immutable property container from a map.
func PropertyRecordFromMap(m map[string]any) (*PropertyRecord, error) {
	return NewPropertyRecord(sortedItems(m))
}

// newPropertyRecordCoerced wraps already-coerced properties without
// revalidating them. Internal use only: the input must come from a
// container that has already applied the property policy.
func newPropertyRecordCoerced(m map[string]any) *PropertyRecord {
	items := sortedItems(m)
	r := Record{
		keys:   make([]string, len(items)),
		values: make([]any, len(items)),
	}
	for i, item := range items {
		r.keys[i] = item.Key
		r.values[i] = item.Value
	}
	return &PropertyRecord{record: r}
}

// Len returns the number of properties.
func (p *PropertyRecord) Len() int { return p.record.Len() }

// Keys returns the property keys in sorted order.
func (p *PropertyRecord) Keys() []string { return p.record.Keys() }

// Items returns the properties in sorted key order.
func (p *PropertyRecord) Items() []Item { return p.record.Items() }

// Map returns the properties as a map.
func (p *PropertyRecord) Map() map[string]any { return p.record.Map() }

// Get returns the value stored under key, or nil if the key is absent.
// Absence and null are the same state in the property domain, so there is
// no separate presence report.
func (p *PropertyRecord) Get(key string) any {
	value, _ := p.record.Lookup(key)
	return value
}

// Equal reports whether two property records hold the same properties.
func (p *PropertyRecord) Equal(other *PropertyRecord) bool {
	if other == nil {
		return p == nil
	}
	return p.record.Equal(&other.record)
}

// EqualMap reports whether the record holds the same properties as m,
// ignoring any key in m that maps to nil.
func (p *PropertyRecord) EqualMap(m map[string]any) bool {
	return equalIgnoringNil(p.Map(), m)
}

// Hash returns a structural hash of the record: the XOR of one digest per
// property. XOR is associative and commutative, so the hash is independent
// of iteration order by construction.
func (p *PropertyRecord) Hash() uint64 {
	var h uint64
	for _, item := range p.record.Items() {
		d := xxhash.New()
		_, _ = d.WriteString(item.Key)
		hashValue(d, item.Value)
		h ^= d.Sum64()
	}
	return h
}

// Thaw returns a mutable copy of the record.
func (p *PropertyRecord) Thaw() *PropertyDict {
	return newPropertyDictCoerced(p.Map())
}

// hashValue writes a canonical, type-tagged encoding of a coerced value
// into the digest. A one-byte tag keeps 1 and "1" from colliding.
func hashValue(d *xxhash.Digest, v any) {
	var buf [8]byte
	switch val := v.(type) {
	case bool:
		if val {
			_, _ = d.Write([]byte{'b', 1})
		} else {
			_, _ = d.Write([]byte{'b', 0})
		}
	case int64:
		binary.LittleEndian.PutUint64(buf[:], uint64(val))
		_, _ = d.Write([]byte{'i'})
		_, _ = d.Write(buf[:])
	case float64:
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(val))
		_, _ = d.Write([]byte{'f'})
		_, _ = d.Write(buf[:])
	case string:
		binary.LittleEndian.PutUint64(buf[:], uint64(len(val)))
		_, _ = d.Write([]byte{'s'})
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(val)
	case []any:
		binary.LittleEndian.PutUint64(buf[:], uint64(len(val)))
		_, _ = d.Write([]byte{'l'})
		_, _ = d.Write(buf[:])
		for _, item := range val {
			hashValue(d, item)
		}
	}
}

// equalIgnoringNil compares stored (already coerced) properties against an
// arbitrary map. Keys mapped to nil in want are ignored, so {} and
// {"x": nil} describe the same state. Values in want are coerced before
// comparison; a value outside the property domain simply compares unequal.
func equalIgnoringNil(have, want map[string]any) bool {
	trimmed := make(map[string]any, len(want))
	for key, value := range want {
		if value == nil {
			continue
		}
		coerced, err := CoerceProperty(value)
		if err != nil {
			return false
		}
		trimmed[key] = coerced
	}
	return reflect.DeepEqual(have, trimmed)
}
