package values

import "sort"

// PropertyDict is a mutable property container.
//
// A PropertyDict treats a nil value and a missing key as semantically
// identical: reading an absent key returns nil instead of failing, and
// assigning nil deletes the key. After any sequence of operations the
// container holds no nil values at all.
//
// Every stored value passes through the property coercion policy, so a
// PropertyDict can never hold a nil, a map, or a heterogeneous list.
//
// Example:
//
//	d, _ := values.NewPropertyDict(nil)
//	d.Set("name", "banana")
//	d.Set("colour", "yellow")
//	d.Set("colour", nil)        // deletes the key
//	fmt.Println(d.Get("colour")) // <nil>
//	fmt.Println(d.Len())         // 1
//
// PropertyDict is not safe for concurrent mutation; the owning store
// serializes access.
type PropertyDict struct {
	values map[string]any
}

// NewPropertyDict builds a mutable property container, coercing every value
// of m through the property policy. Keys mapped to nil are skipped. A nil
// map yields an empty container.
func NewPropertyDict(m map[string]any) (*PropertyDict, error) {
	d := &PropertyDict{values: make(map[string]any, len(m))}
	if err := d.Update(m); err != nil {
		return nil, err
	}
	return d, nil
}

// newPropertyDictCoerced wraps already-coerced values without revalidation.
func newPropertyDictCoerced(m map[string]any) *PropertyDict {
	d := &PropertyDict{values: make(map[string]any, len(m))}
	for key, value := range m {
		d.values[key] = value
	}
	return d
}

// Len returns the number of stored properties.
func (d *PropertyDict) Len() int { return len(d.values) }

// Get returns the value stored under key, or nil if the key is absent.
func (d *PropertyDict) Get(key string) any {
	return d.values[key]
}

// Set stores a coerced value under key. Assigning nil deletes the key,
// which keeps the nil-equals-absent invariant without a separate call.
func (d *PropertyDict) Set(key string, value any) error {
	if value == nil {
		delete(d.values, key)
		return nil
	}
	coerced, err := CoerceProperty(value)
	if err != nil {
		return err
	}
	d.values[key] = coerced
	return nil
}

// Delete removes key from the container. Deleting an absent key is a no-op.
func (d *PropertyDict) Delete(key string) {
	delete(d.values, key)
}

// SetDefault returns the value stored under key if present. Otherwise it
// stores fallback under key and returns the coerced fallback; a nil
// fallback stores nothing and returns nil.
func (d *PropertyDict) SetDefault(key string, fallback any) (any, error) {
	if value, ok := d.values[key]; ok {
		return value, nil
	}
	if fallback == nil {
		return nil, nil
	}
	coerced, err := CoerceProperty(fallback)
	if err != nil {
		return nil, err
	}
	d.values[key] = coerced
	return coerced, nil
}

// Update applies every entry of m through Set, so nil values delete their
// keys. On error the entries already applied remain in place.
func (d *PropertyDict) Update(m map[string]any) error {
	for key, value := range m {
		if err := d.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (d *PropertyDict) Keys() []string {
	keys := make([]string, 0, len(d.values))
	for key := range d.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the stored properties.
func (d *PropertyDict) Map() map[string]any {
	m := make(map[string]any, len(d.values))
	for key, value := range d.values {
		m[key] = value
	}
	return m
}

// Equal reports whether the container holds the same properties as m,
// ignoring any key in m that maps to nil.
func (d *PropertyDict) Equal(m map[string]any) bool {
	return equalIgnoringNil(d.values, m)
}

// EqualDict reports whether two containers hold the same properties.
func (d *PropertyDict) EqualDict(other *PropertyDict) bool {
	if other == nil {
		return d == nil
	}
	return equalIgnoringNil(d.values, other.values)
}

// Clone returns an independent copy of the container.
func (d *PropertyDict) Clone() *PropertyDict {
	return newPropertyDictCoerced(d.values)
}

// Freeze returns an immutable snapshot of the container.
func (d *PropertyDict) Freeze() *PropertyRecord {
	return newPropertyRecordCoerced(d.values)
}
