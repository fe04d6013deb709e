package xarray

import (
	"fmt"
	"math"
	"time"
)

// DataArray is an N-dimensional array with named dimensions and
// coordinates. Coords maps a name to either an Index along the dimension of
// the same name or to a scalar coordinate value
type DataArray struct {
	Name   string
	Dims   []string
	Data   *NDArray
	Coords *OrderedDict
}

// NewDataArray builds a DataArray from data, one index-like coordinate per
// dimension, and dimension names. coords may be nil
func NewDataArray(data interface{}, coords []interface{}, dims []string) (*DataArray, error) {
	arr, err := NewArray(data)
	if err != nil {
		return nil, err
	}
	if len(dims) != arr.Ndim() {
		return nil, fmt.Errorf("%w: %d dimension names for %d-dimensional data", ErrInvalidArgument, len(dims), arr.Ndim())
	}
	if coords != nil && len(coords) != len(dims) {
		return nil, fmt.Errorf("%w: %d coordinates for %d dimensions", ErrInvalidArgument, len(coords), len(dims))
	}

	da := &DataArray{
		Dims:   append([]string(nil), dims...),
		Data:   arr,
		Coords: NewOrderedDict(),
	}
	for i, c := range coords {
		idx, err := SafeCastToIndex(c)
		if err != nil {
			return nil, fmt.Errorf("coordinate %q: %w", dims[i], err)
		}
		if idx.Len() != arr.Shape[i] {
			return nil, fmt.Errorf("%w: coordinate %q has length %d, dimension has size %d", ErrInvalidArgument, dims[i], idx.Len(), arr.Shape[i])
		}
		da.Coords.Set(dims[i], idx)
	}
	return da, nil
}

func (da *DataArray) Ndim() int { return da.Data.Ndim() }

func (da *DataArray) axis(dim string) (int, error) {
	for i, d := range da.Dims {
		if d == dim {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: dimension %q not found in %v", ErrKeyNotFound, dim, da.Dims)
}

// ToIndex converts a 1-dimensional DataArray into an index named after its
// dimension
func (da *DataArray) ToIndex() (Index, error) {
	if da.Ndim() != 1 {
		return nil, fmt.Errorf("%w: only 1-dimensional arrays can be converted to an index", ErrInvalidArgument)
	}
	if c, ok := da.Coords.Get(da.Dims[0]); ok {
		if idx, ok := c.(Index); ok {
			return idx, nil
		}
	}
	idx, err := SafeCastToIndex(da.Data)
	if err != nil {
		return nil, err
	}
	return NewIndex(da.Dims[0], idx.Dtype(), idx.Values()), nil
}

// Isel selects position i along dim. The dimension is dropped and its
// coordinate becomes a scalar coordinate
func (da *DataArray) Isel(dim string, i int) (*DataArray, error) {
	ax, err := da.axis(dim)
	if err != nil {
		return nil, err
	}
	n := da.Data.Shape[ax]
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("%w: index %d out of bounds for dimension %q with size %d", ErrInvalidArgument, i, dim, n)
	}

	shape := da.Data.Shape
	inner := 1
	for _, s := range shape[ax+1:] {
		inner *= s
	}
	outer := 0
	if inner > 0 {
		outer = len(da.Data.Values) / (n * inner)
	}
	values := make([]interface{}, 0, outer*inner)
	for o := 0; o < outer; o++ {
		start := (o*n + i) * inner
		values = append(values, da.Data.Values[start:start+inner]...)
	}

	out := &DataArray{
		Name: da.Name,
		Dims: append(append([]string(nil), da.Dims[:ax]...), da.Dims[ax+1:]...),
		Data: &NDArray{
			Dtype:  da.Data.Dtype,
			Shape:  append(append([]int(nil), shape[:ax]...), shape[ax+1:]...),
			Values: values,
		},
		Coords: NewOrderedDict(),
	}
	for _, k := range da.Coords.Keys() {
		c, _ := da.Coords.Get(k)
		if idx, ok := c.(Index); ok && k == dim {
			c = idx.At(i)
		}
		out.Coords.Set(k, c)
	}
	return out, nil
}

// Identical is true when name, dimensions, dtype, values and coordinates all
// match
func (da *DataArray) Identical(other *DataArray) bool {
	if da.Name != other.Name || len(da.Dims) != len(other.Dims) {
		return false
	}
	for i := range da.Dims {
		if da.Dims[i] != other.Dims[i] {
			return false
		}
	}
	if da.Data.Dtype != other.Data.Dtype || !ArrayEquiv(da.Data, other.Data) {
		return false
	}
	return DictEquiv(da.Coords, other.Coords, coordEquiv)
}

func coordEquiv(a, b interface{}) bool {
	ai, aok := a.(Index)
	bi, bok := b.(Index)
	if aok != bok {
		return false
	}
	if aok {
		return ai.Dtype() == bi.Dtype() && ArrayEquiv(ai.Values(), bi.Values())
	}
	return Equivalent(a, b)
}

// DateRange returns periods times starting at start, step apart
func DateRange(start time.Time, periods int, step time.Duration) []time.Time {
	times := make([]time.Time, periods)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * step)
	}
	return times
}

// NumericOptions configure DatetimeToNumeric
type NumericOptions struct {
	// Offset is subtracted from every timestamp. It may be a time.Time, a
	// CFDatetime, a time.Duration (for timedelta data) or a 0-dimensional
	// *DataArray holding one of those. Defaults to the earliest timestamp
	Offset interface{}
	// Unit is a datetime unit code such as "h" or "D". Defaults to "ns"
	Unit string
	// Dtype of the result. Defaults to Float64
	Dtype *Dtype
}

// DatetimeToNumeric converts timestamps to numeric offsets from
// opts.Offset, measured in opts.Unit. Standard time.Time data and calendar
// CFDatetime data produce the same numbers for the same dates. Name, dims
// and coordinates are carried over unchanged
func DatetimeToNumeric(da *DataArray, opts NumericOptions) (*DataArray, error) {
	unit := time.Nanosecond
	if opts.Unit != "" {
		u, err := ParseTimeUnit(opts.Unit)
		if err != nil {
			return nil, err
		}
		unit = u
	}
	dtype := Float64
	if opts.Dtype != nil {
		dtype = *opts.Dtype
	}

	offset := opts.Offset
	if sel, ok := offset.(*DataArray); ok {
		if sel.Ndim() != 0 {
			return nil, fmt.Errorf("%w: offset must be 0-dimensional, got %d dimensions", ErrInvalidArgument, sel.Ndim())
		}
		offset = sel.Data.Values[0]
	}
	if offset == nil {
		earliest, err := minTimestamp(da.Data.Values)
		if err != nil {
			return nil, err
		}
		offset = earliest
	}

	values := make([]interface{}, len(da.Data.Values))
	for i, v := range da.Data.Values {
		ns, err := nanosSince(v, offset)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		values[i] = ns / float64(unit)
	}

	data, err := (&NDArray{Dtype: Float64, Shape: da.Data.Shape, Values: values}).AsType(dtype)
	if err != nil {
		return nil, err
	}
	return &DataArray{
		Name:   da.Name,
		Dims:   append([]string(nil), da.Dims...),
		Data:   data,
		Coords: CopyMapping(da.Coords),
	}, nil
}

// nanosSince returns v - offset in nanoseconds as a float, so spans wider
// than a time.Duration are representable. Null timestamps yield NaN
func nanosSince(v, offset interface{}) (float64, error) {
	if IsNull(v) {
		return math.NaN(), nil
	}
	switch x := v.(type) {
	case time.Time:
		o, ok := offset.(time.Time)
		if !ok {
			break
		}
		return float64(x.Unix()-o.Unix())*1e9 + float64(x.Nanosecond()-o.Nanosecond()), nil
	case CFDatetime:
		o, ok := offset.(CFDatetime)
		if !ok {
			break
		}
		us, err := x.microsSince(o)
		if err != nil {
			return 0, err
		}
		return float64(us) * 1e3, nil
	case time.Duration:
		o, ok := offset.(time.Duration)
		if !ok {
			break
		}
		return float64(x) - float64(o), nil
	default:
		return 0, fmt.Errorf("%w: %T is not a datetime", ErrInvalidArgument, v)
	}
	return 0, fmt.Errorf("%w: cannot subtract offset %T from %T", ErrInvalidArgument, offset, v)
}

func minTimestamp(values []interface{}) (interface{}, error) {
	var earliest interface{}
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		if earliest == nil {
			earliest = v
			continue
		}
		switch x := v.(type) {
		case time.Time:
			if m, ok := earliest.(time.Time); ok && x.Before(m) {
				earliest = x
			}
		case CFDatetime:
			if m, ok := earliest.(CFDatetime); ok && x.Before(m) {
				earliest = x
			}
		case time.Duration:
			if m, ok := earliest.(time.Duration); ok && x < m {
				earliest = x
			}
		default:
			return nil, fmt.Errorf("%w: %T is not a datetime", ErrInvalidArgument, v)
		}
	}
	if earliest == nil {
		return nil, fmt.Errorf("%w: no timestamps to take an offset from", ErrInvalidArgument)
	}
	return earliest, nil
}
