package xarray

import "fmt"

// CompatFunc decides whether two values may be treated as the same value
// when comparing or merging mappings. A nil CompatFunc means Equivalent
type CompatFunc func(a, b interface{}) bool

func (f CompatFunc) orDefault() CompatFunc {
	if f == nil {
		return Equivalent
	}
	return f
}

// UpdateSafetyCheck checks that updating first with second would not
// override any value already in first. It never mutates either mapping
func UpdateSafetyCheck(first, second Mapping, compat CompatFunc) error {
	compat = compat.orDefault()
	for _, k := range second.Keys() {
		v, _ := second.Get(k)
		if fv, ok := first.Get(k); ok && !compat(v, fv) {
			return fmt.Errorf("%w; conflicting key %q", ErrConflict, k)
		}
	}
	return nil
}

// RemoveIncompatibleItems deletes from first every key that is missing
// from second or whose values are not compatible
func RemoveIncompatibleItems(first MutableMapping, second Mapping, compat CompatFunc) error {
	compat = compat.orDefault()
	for _, k := range first.Keys() {
		fv, _ := first.Get(k)
		if sv, ok := second.Get(k); ok && compat(fv, sv) {
			continue
		}
		if err := first.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// OrderedDictIntersection returns the items present in both mappings with
// compatible values, in the key order of first
func OrderedDictIntersection(first, second Mapping, compat CompatFunc) *OrderedDict {
	d := CopyMapping(first)
	// deleting from a fresh OrderedDict only fails for absent keys
	_ = RemoveIncompatibleItems(d, second, compat)
	return d
}

// DictEquiv is true when both mappings hold the same keys and every pair of
// values is compatible. Key order and the concrete mapping types are
// irrelevant
func DictEquiv(first, second Mapping, compat CompatFunc) bool {
	compat = compat.orDefault()
	for _, k := range first.Keys() {
		fv, _ := first.Get(k)
		sv, ok := second.Get(k)
		if !ok || !compat(fv, sv) {
			return false
		}
	}
	for _, k := range second.Keys() {
		if _, ok := first.Get(k); !ok {
			return false
		}
	}
	return true
}
