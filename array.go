package xarray

import (
	"fmt"
	"reflect"
	"time"
	"unicode/utf8"
)

// NDArray is an in-memory N-dimensional array. Values are stored flat in
// row-major ("C") order. An array with an empty shape is 0-dimensional and
// holds exactly one value
type NDArray struct {
	Dtype  Dtype
	Shape  []int
	Values []interface{}
}

// NewArray builds an array from a Go scalar, a (possibly nested) slice or
// Go array, or an existing *NDArray, which is returned as-is. The dtype is
// inferred from the element values
func NewArray(v interface{}) (*NDArray, error) {
	if a, ok := v.(*NDArray); ok && a != nil {
		return a, nil
	}
	shape, values, err := collect(reflect.ValueOf(v), 0, nil, nil)
	if err != nil {
		return nil, err
	}
	dt := inferDtype(values)
	if dt == Int64 || dt == Float64 {
		for i, el := range values {
			values[i], _ = castValue(el, dt)
		}
	}
	return &NDArray{
		Dtype:  dt,
		Shape:  shape,
		Values: values,
	}, nil
}

// ObjectArray is NewArray with the dtype forced to Object
func ObjectArray(v interface{}) (*NDArray, error) {
	a, err := NewArray(v)
	if err != nil {
		return nil, err
	}
	return a.AsType(Object)
}

// Arange returns the 1-d int64 array [0, 1, ... n-1]
func Arange(n int) *NDArray {
	values := make([]interface{}, n)
	for i := range values {
		values[i] = int64(i)
	}
	return &NDArray{Dtype: Int64, Shape: []int{n}, Values: values}
}

// Ndim reads the number of dimensions from the shape
func (a *NDArray) Ndim() int {
	if a == nil {
		return 0
	}
	return len(a.Shape)
}

// Size is the total number of elements
func (a *NDArray) Size() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// At returns the element at the given position, one index per dimension.
// Calling At with no arguments on a 0-d array returns its value
func (a *NDArray) At(idx ...int) interface{} {
	if len(idx) != len(a.Shape) {
		panic(fmt.Sprintf("xarray: %d indices for %d-dimensional array", len(idx), len(a.Shape)))
	}
	flat := 0
	for i, ix := range idx {
		if ix < 0 || ix >= a.Shape[i] {
			panic(fmt.Sprintf("xarray: index %d out of range for axis %d with size %d", ix, i, a.Shape[i]))
		}
		flat = flat*a.Shape[i] + ix
	}
	return a.Values[flat]
}

// AsType returns a copy of the array converted to dtype. Numeric values are
// converted to the Go type backing the target dtype; object targets keep
// values unchanged
func (a *NDArray) AsType(dt Dtype) (*NDArray, error) {
	out := &NDArray{
		Dtype:  dt,
		Shape:  append([]int(nil), a.Shape...),
		Values: make([]interface{}, len(a.Values)),
	}
	for i, v := range a.Values {
		cv, err := castValue(v, dt)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Values[i] = cv
	}
	return out, nil
}

func (a *NDArray) String() string {
	return truncateRepr(fmt.Sprintf("<xarray.NDArray %s %v %v>", a.Dtype, a.Shape, a.Values))
}

func castValue(v interface{}, dt Dtype) (interface{}, error) {
	switch dt.BasicType {
	case BTObject:
		return v, nil
	case BTFloatingPoint:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("cannot cast %T to %s", v, dt)
		}
		if dt.ByteSize == 4 {
			return float32(f), nil
		}
		return f, nil
	case BTInteger:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("cannot cast %T to %s", v, dt)
		}
		return int64(f), nil
	case BTBoolean:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("cannot cast %T to %s", v, dt)
		}
		return f != 0, nil
	case BTDatetime, BTTimedelta:
		switch v.(type) {
		case time.Time, time.Duration, CFDatetime:
			return v, nil
		}
		return nil, fmt.Errorf("cannot cast %T to %s", v, dt)
	}
	return v, nil
}

func collect(rv reflect.Value, dim int, shape []int, out []interface{}) ([]int, []interface{}, error) {
	if rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	if isSequence(rv) {
		n := rv.Len()
		if dim == len(shape) {
			shape = append(shape, n)
		} else if dim > len(shape) || shape[dim] != n {
			return nil, nil, fmt.Errorf("%w: ragged nested sequence", ErrInvalidArgument)
		}
		var err error
		for i := 0; i < n; i++ {
			if shape, out, err = collect(rv.Index(i), dim+1, shape, out); err != nil {
				return nil, nil, err
			}
		}
		return shape, out, nil
	}
	if dim != len(shape) {
		return nil, nil, fmt.Errorf("%w: ragged nested sequence", ErrInvalidArgument)
	}
	if !rv.IsValid() {
		return shape, append(out, nil), nil
	}
	return shape, append(out, rv.Interface()), nil
}

func isSequence(rv reflect.Value) bool {
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

func inferDtype(values []interface{}) Dtype {
	if len(values) == 0 {
		return Float64
	}
	var (
		bools, ints, uints, floats, times, durations, strs int
		maxRunes                                           int
	)
	for _, v := range values {
		switch x := v.(type) {
		case bool:
			bools++
		case time.Time:
			times++
		case time.Duration:
			durations++
		case int, int8, int16, int32, int64:
			ints++
		case uint, uint8, uint16, uint32, uint64:
			uints++
		case float32, float64:
			floats++
		case string:
			strs++
			if n := utf8.RuneCountInString(x); n > maxRunes {
				maxRunes = n
			}
		}
	}

	n := len(values)
	switch {
	case bools == n:
		return Bool
	case times == n:
		return Datetime64
	case durations == n:
		return Timedelta64
	case strs == n:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTUnicode, ByteSize: 4 * maxRunes}
	case ints == n:
		return Int64
	case uints == n:
		return Dtype{ByteOrder: BOLittleEndian, BasicType: BTUnsigned, ByteSize: 8}
	case ints+uints+floats == n:
		return Float64
	}
	return Object
}
