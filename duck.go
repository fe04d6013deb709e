package xarray

import (
	"math"
	"math/cmplx"
	"reflect"
	"time"
)

// NaT marks a missing timestamp. It is the instant at the minimum int64
// nanosecond offset from the Unix epoch, the value datetime64 reserves for
// "not a time". The zero time.Time is an ordinary date
var NaT = time.Unix(0, math.MinInt64).UTC()

// IsNull reports missing values: nil, NaN, and NaT. A 0-dimensional array is
// unwrapped first, so a 0-d object array holding NaN is null
func IsNull(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case complex128:
		return cmplx.IsNaN(x)
	case complex64:
		return cmplx.IsNaN(complex128(x))
	case time.Time:
		return x.Equal(NaT)
	case *NDArray:
		if x == nil {
			return true
		}
		if x.Ndim() == 0 && len(x.Values) == 1 {
			return IsNull(x.Values[0])
		}
	}
	return false
}

// ArrayEquiv is true when a and b have the same shape and every pair of
// elements is either equal or jointly null. Scalars are treated as
// 0-dimensional arrays, so a scalar never matches an array with elements
// along any axis
func ArrayEquiv(a, b interface{}) bool {
	x, y := asArray(a), asArray(b)
	if !sameShape(x.Shape, y.Shape) {
		return false
	}
	for i := range x.Values {
		xv, yv := x.Values[i], y.Values[i]
		if valuesEqual(xv, yv) || (IsNull(xv) && IsNull(yv)) {
			continue
		}
		return false
	}
	return true
}

func asArray(v interface{}) *NDArray {
	a, err := NewArray(v)
	if err != nil {
		// ragged input compares as a single opaque object
		return &NDArray{Dtype: Object, Values: []interface{}{v}}
	}
	return a
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// valuesEqual compares two scalar elements. Go numeric kinds compare by
// value across types, so int64(1) equals float32(1)
func valuesEqual(a, b interface{}) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	if ac, ok := a.(complex128); ok {
		bc, ok := b.(complex128)
		return ok && ac == bc
	}
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case CFDatetime:
		y, ok := b.(CFDatetime)
		return ok && x.Equal(y)
	case *NDArray:
		return ArrayEquiv(x, b)
	}
	return safeEqual(a, b)
}

// safeEqual is == on interface values that never panics on uncomparable
// dynamic types
func safeEqual(a, b interface{}) (eq bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	defer func() {
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}

// toFloat converts Go booleans and real numeric kinds to float64.
// time.Duration is excluded: durations only compare with durations
func toFloat(v interface{}) (float64, bool) {
	if _, ok := v.(time.Duration); ok {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
