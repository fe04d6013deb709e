package xarray

import (
	"fmt"
	"sort"
	"strings"
)

// Mapping is the read capability shared by every mapping type in this
// package. Helpers that compare or merge mappings only rely on Mapping, so
// any concrete representation can take part
type Mapping interface {
	// Keys in iteration order
	Keys() []string
	// Get is an indexed lookup
	Get(key string) (val interface{}, has bool)
	Len() int
}

// MutableMapping is a Mapping that supports assignment and deletion
type MutableMapping interface {
	Mapping
	Set(key string, val interface{}) error
	Delete(key string) error
}

// Item looks up key in m, returning an error wrapping ErrKeyNotFound when the
// key is absent
func Item(m Mapping, key string) (interface{}, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, keyError(key)
	}
	return v, nil
}

// Contains reports whether m holds key
func Contains(m Mapping, key string) bool {
	_, ok := m.Get(key)
	return ok
}

func keyError(key string) error {
	return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
}

// Attributes is a plain Go map of values keyed by name. Keys are reported
// in sorted order
type Attributes map[string]interface{}

var _ MutableMapping = (Attributes)(nil)

func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a Attributes) Get(key string) (interface{}, bool) {
	v, ok := a[key]
	return v, ok
}

func (a Attributes) Len() int { return len(a) }

func (a Attributes) Set(key string, val interface{}) error {
	a[key] = val
	return nil
}

func (a Attributes) Delete(key string) error {
	if _, ok := a[key]; !ok {
		return keyError(key)
	}
	delete(a, key)
	return nil
}

// OrderedDict is a mapping that remembers insertion order
type OrderedDict struct {
	keys []string
	data map[string]interface{}
}

var _ MutableMapping = (*OrderedDict)(nil)

func NewOrderedDict() *OrderedDict {
	return &OrderedDict{data: map[string]interface{}{}}
}

// CopyMapping returns an OrderedDict holding the items of m in m's key
// order
func CopyMapping(m Mapping) *OrderedDict {
	d := NewOrderedDict()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		d.Set(k, v)
	}
	return d
}

func (d *OrderedDict) Keys() []string {
	return append([]string(nil), d.keys...)
}

func (d *OrderedDict) Get(key string) (interface{}, bool) {
	v, ok := d.data[key]
	return v, ok
}

func (d *OrderedDict) Len() int { return len(d.keys) }

// Set assigns val to key. Existing keys keep their position
func (d *OrderedDict) Set(key string, val interface{}) error {
	if d.data == nil {
		d.data = map[string]interface{}{}
	}
	if _, ok := d.data[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.data[key] = val
	return nil
}

func (d *OrderedDict) Delete(key string) error {
	if _, ok := d.data[key]; !ok {
		return keyError(key)
	}
	delete(d.data, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (d *OrderedDict) String() string {
	return truncateRepr("OrderedDict(" + formatItems(d) + ")")
}

// Frozen wraps a mapping to make it immutable. Reads pass through to the
// wrapped Mapping. The zero Frozen is empty
type Frozen struct {
	Mapping Mapping
}

var _ MutableMapping = Frozen{}

func NewFrozen(m Mapping) Frozen { return Frozen{Mapping: m} }

func (f Frozen) Keys() []string                     { return f.wrapped().Keys() }
func (f Frozen) Get(key string) (interface{}, bool) { return f.wrapped().Get(key) }
func (f Frozen) Len() int                           { return f.wrapped().Len() }

func (f Frozen) wrapped() Mapping {
	if f.Mapping == nil {
		return Attributes(nil)
	}
	return f.Mapping
}

// Set always fails with ErrImmutable
func (f Frozen) Set(key string, val interface{}) error {
	return fmt.Errorf("%w: cannot set %q on Frozen", ErrImmutable, key)
}

// Delete always fails with ErrImmutable
func (f Frozen) Delete(key string) error {
	return fmt.Errorf("%w: cannot delete %q from Frozen", ErrImmutable, key)
}

// Update always fails: Frozen has no bulk update
func (f Frozen) Update(other Mapping) error {
	return fmt.Errorf("%w: Frozen has no update", ErrUnsupported)
}

func (f Frozen) String() string {
	return truncateRepr("Frozen(" + formatItems(f.wrapped()) + ")")
}

// SortedKeysDict iterates over the wrapped mapping in sorted key order. The
// zero SortedKeysDict is empty and rejects writes; use NewSortedKeysDict for
// a writable one
type SortedKeysDict struct {
	Mapping MutableMapping
}

var _ MutableMapping = SortedKeysDict{}

// NewSortedKeysDict wraps m, or an empty Attributes if m is nil
func NewSortedKeysDict(m MutableMapping) SortedKeysDict {
	if m == nil {
		m = Attributes{}
	}
	return SortedKeysDict{Mapping: m}
}

func (s SortedKeysDict) Keys() []string {
	keys := s.wrapped().Keys()
	sort.Strings(keys)
	return keys
}

func (s SortedKeysDict) Get(key string) (interface{}, bool) { return s.wrapped().Get(key) }
func (s SortedKeysDict) Len() int                           { return s.wrapped().Len() }

func (s SortedKeysDict) Set(key string, val interface{}) error {
	if s.Mapping == nil {
		return fmt.Errorf("%w: SortedKeysDict has no mapping to write to", ErrUnsupported)
	}
	return s.Mapping.Set(key, val)
}

func (s SortedKeysDict) Delete(key string) error {
	if s.Mapping == nil {
		return keyError(key)
	}
	return s.Mapping.Delete(key)
}

func (s SortedKeysDict) wrapped() MutableMapping {
	if s.Mapping == nil {
		return Attributes(nil)
	}
	return s.Mapping
}

func (s SortedKeysDict) String() string {
	return truncateRepr("SortedKeysDict(" + formatItems(s) + ")")
}

// ChainMap groups mappings into a single view. Lookups search Maps in
// order; writes and deletes only touch Maps[0]. Writing to a ChainMap with
// no maps adds an empty Attributes to receive the write
type ChainMap struct {
	Maps []MutableMapping
}

var _ MutableMapping = (*ChainMap)(nil)

// NewChainMap builds a chain over maps. With no maps, the chain holds one
// empty Attributes to receive writes
func NewChainMap(maps ...MutableMapping) *ChainMap {
	if len(maps) == 0 {
		maps = []MutableMapping{Attributes{}}
	}
	return &ChainMap{Maps: maps}
}

// Keys is the union of the keys of every map, in first-seen order
func (c *ChainMap) Keys() []string {
	seen := map[string]struct{}{}
	var keys []string
	for _, m := range c.Maps {
		for _, k := range m.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *ChainMap) Get(key string) (interface{}, bool) {
	for _, m := range c.Maps {
		if v, ok := m.Get(key); ok {
			return v, true
		}
	}
	return nil, false
}

func (c *ChainMap) Len() int { return len(c.Keys()) }

func (c *ChainMap) Set(key string, val interface{}) error {
	if len(c.Maps) == 0 {
		c.Maps = []MutableMapping{Attributes{}}
	}
	return c.Maps[0].Set(key, val)
}

// Delete removes key from the first mapping only. Keys that only live in
// later mappings cannot be deleted through the chain
func (c *ChainMap) Delete(key string) error {
	if len(c.Maps) == 0 {
		return keyError(key)
	}
	if _, ok := c.Maps[0].Get(key); !ok {
		return fmt.Errorf("%w: key not found in the first mapping: %q", ErrKeyNotFound, key)
	}
	return c.Maps[0].Delete(key)
}

// HiddenKeyDict acts like the wrapped mapping with the hidden keys removed
type HiddenKeyDict struct {
	data   MutableMapping
	hidden map[string]struct{}
}

var _ MutableMapping = (*HiddenKeyDict)(nil)

func NewHiddenKeyDict(data MutableMapping, hiddenKeys []string) *HiddenKeyDict {
	h := &HiddenKeyDict{
		data:   data,
		hidden: make(map[string]struct{}, len(hiddenKeys)),
	}
	for _, k := range hiddenKeys {
		h.hidden[k] = struct{}{}
	}
	return h
}

func (h *HiddenKeyDict) isHidden(key string) bool {
	_, ok := h.hidden[key]
	return ok
}

func (h *HiddenKeyDict) Keys() []string {
	var keys []string
	for _, k := range h.data.Keys() {
		if !h.isHidden(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (h *HiddenKeyDict) Get(key string) (interface{}, bool) {
	if h.isHidden(key) {
		return nil, false
	}
	return h.data.Get(key)
}

func (h *HiddenKeyDict) Len() int {
	n := h.data.Len()
	for k := range h.hidden {
		if _, ok := h.data.Get(k); ok {
			n--
		}
	}
	return n
}

func (h *HiddenKeyDict) Set(key string, val interface{}) error {
	if h.isHidden(key) {
		return fmt.Errorf("%w: key %q is hidden", ErrKeyNotFound, key)
	}
	return h.data.Set(key, val)
}

func (h *HiddenKeyDict) Delete(key string) error {
	if h.isHidden(key) {
		return fmt.Errorf("%w: key %q is hidden", ErrKeyNotFound, key)
	}
	return h.data.Delete(key)
}

func formatItems(m Mapping) string {
	if m == nil {
		return "{}"
	}
	keys := m.Keys()
	items := make([]string, len(keys))
	for i, k := range keys {
		v, _ := m.Get(k)
		items[i] = fmt.Sprintf("%q: %s", k, formatValue(v))
	}
	return "{" + strings.Join(items, ", ") + "}"
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return x.String()
	case nil:
		return "nil"
	}
	return fmt.Sprintf("%v", v)
}
