package xarray

import (
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/sirupsen/logrus"
)

// Equivalent compares two values with NaN equal to NaN. If either value is
// array-like the comparison is element-wise (see ArrayEquiv). Two mappings
// are compared with DictEquiv
func Equivalent(a, b interface{}) bool {
	if isArrayLike(a) || isArrayLike(b) {
		return ArrayEquiv(a, b)
	}
	if am, ok := asMapping(a); ok {
		if bm, ok := asMapping(b); ok {
			return DictEquiv(am, bm, nil)
		}
		return false
	}
	return valuesEqual(a, b) || (IsNull(a) && IsNull(b))
}

func isArrayLike(v interface{}) bool {
	switch x := v.(type) {
	case *NDArray:
		return x != nil
	case []byte:
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func asMapping(v interface{}) (Mapping, bool) {
	switch x := v.(type) {
	case Mapping:
		return x, true
	case map[string]interface{}:
		return Attributes(x), true
	}
	return nil, false
}

// Hashable reports whether v can be used as a Go map key. Go arrays of
// hashable values are hashable (the analogue of tuples); slices, maps and
// funcs, or arrays and structs holding them, are not
func Hashable(v interface{}) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	m := make(map[interface{}]struct{}, 1)
	m[v] = struct{}{}
	return len(m) == 1
}

type ndimer interface {
	Ndim() int
}

// IsScalar reports whether v has no dimensions. Values that know their
// dimensionality, including lazily evaluated arrays, answer from their
// shape metadata without computing any data. Strings are scalars
func IsScalar(v interface{}) bool {
	switch x := v.(type) {
	case ndimer:
		return x.Ndim() == 0
	case string, []byte:
		return true
	case Mapping:
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return false
	}
	return true
}

// IsRemoteURI is true for http and https URLs
func IsRemoteURI(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// IsGribPath is true when path has a GRIB file extension
func IsGribPath(path string) bool {
	switch fileExt(path) {
	case ".grib", ".grb", ".grib2", ".grb2":
		return true
	}
	return false
}

// fileExt is the extension of the last path element. Leading dots start a
// hidden file name, not an extension
func fileExt(path string) string {
	return filepath.Ext(strings.TrimLeft(filepath.Base(path), "."))
}

// Tolerance bounds the difference allowed between two floats:
// |a - b| <= ATol + RTol * |b|
type Tolerance struct {
	RTol float64
	ATol float64
}

// DefaultTolerance matches numpy.isclose
var DefaultTolerance = Tolerance{RTol: 1e-5, ATol: 1e-8}

func (t Tolerance) close(a, b float64) bool {
	return math.Abs(a-b) <= t.ATol+t.RTol*math.Abs(b)
}

// IsUniformSpaced reports whether consecutive values are evenly spaced
func IsUniformSpaced(values []float64) bool {
	return IsUniformSpacedWithin(values, DefaultTolerance)
}

// IsUniformSpacedWithin reports whether the smallest and largest step
// between consecutive values are close within tol. Out of order values
// produce steps of different sign and are never uniform. Sequences of two
// or fewer values are trivially uniform
func IsUniformSpacedWithin(values []float64, tol Tolerance) bool {
	if len(values) <= 2 {
		return true
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if math.IsNaN(d) {
			return false
		}
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return tol.close(lo, hi)
}

// IsUniformAndSorted is the old name of IsUniformSpaced.
//
// Deprecated: use IsUniformSpaced.
func IsUniformAndSorted(values []float64) bool {
	warnDeprecated("IsUniformAndSorted", "IsUniformSpaced")
	return IsUniformSpaced(values)
}

// Alias wraps fn under a deprecated name. Each call logs a deprecation
// warning before calling fn
func Alias(fn func(), oldName, newName string) func() {
	return func() {
		warnDeprecated(oldName, newName)
		fn()
	}
}

func warnDeprecated(oldName, newName string) {
	log.WithFields(logrus.Fields{
		"deprecated":  oldName,
		"replacement": newName,
	}).Warnf("%s has been deprecated. Use %s instead.", oldName, newName)
}

// EitherDictOrKwargs picks between the two ways of passing named arguments
// to funcName: a positional map or keyword-style options. Supplying both is
// an error
func EitherDictOrKwargs(pos, kw map[string]interface{}, funcName string) (map[string]interface{}, error) {
	if pos != nil {
		if len(kw) > 0 {
			return nil, fmt.Errorf("%w: cannot specify both keyword and positional arguments to .%s", ErrInvalidArgument, funcName)
		}
		return pos, nil
	}
	return kw, nil
}

// ReprObject is a sentinel whose text representation is a fixed label
type ReprObject struct {
	value string
}

func NewReprObject(value string) *ReprObject {
	return &ReprObject{value: value}
}

func (r *ReprObject) String() string { return r.value }
