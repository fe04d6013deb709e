package xarray

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Index is an ordered, typed sequence of labels used to align data along a
// dimension
type Index interface {
	Name() string
	Dtype() Dtype
	Len() int
	At(i int) interface{}
	// Values returns a copy of the labels
	Values() []interface{}
}

// ToIndexer is implemented by values that know how to convert themselves
// into an Index, like coordinates of a DataArray
type ToIndexer interface {
	ToIndex() (Index, error)
}

// BaseIndex is a generic typed index
type BaseIndex struct {
	name   string
	dtype  Dtype
	values []interface{}
}

var _ Index = (*BaseIndex)(nil)

// NewIndex builds an index from values with an explicit dtype
func NewIndex(name string, dtype Dtype, values []interface{}) *BaseIndex {
	return &BaseIndex{
		name:   name,
		dtype:  dtype,
		values: append([]interface{}(nil), values...),
	}
}

func (idx *BaseIndex) Name() string          { return idx.name }
func (idx *BaseIndex) Dtype() Dtype          { return idx.dtype }
func (idx *BaseIndex) Len() int              { return len(idx.values) }
func (idx *BaseIndex) At(i int) interface{}  { return idx.values[i] }
func (idx *BaseIndex) Values() []interface{} { return append([]interface{}(nil), idx.values...) }

func (idx *BaseIndex) String() string {
	return truncateRepr(fmt.Sprintf("Index(%v, dtype=%s)", idx.values, idx.dtype))
}

// datetime64[ns] can represent instants between these bounds. The int64
// minimum itself is NaT
var (
	minDatetime64 = time.Unix(0, math.MinInt64+1).UTC()
	maxDatetime64 = time.Unix(0, math.MaxInt64).UTC()
)

// SafeCastToIndex converts v into an Index without losing its semantic
// type. Indexes are returned unchanged and ToIndexers convert themselves.
// Arrays keep an object dtype when they have one; otherwise time.Time data
// becomes a datetime64[ns] index (object, if any date is outside the
// nanosecond range) and durations a timedelta64[ns] index. Object indexes
// of calendar dates become a CFTimeIndex when that is enabled
func SafeCastToIndex(v interface{}) (Index, error) {
	var idx Index
	switch x := v.(type) {
	case Index:
		idx = x
	case ToIndexer:
		i, err := x.ToIndex()
		if err != nil {
			return nil, err
		}
		idx = i
	default:
		arr, err := NewArray(v)
		if err != nil {
			return nil, err
		}
		if arr.Ndim() > 1 {
			return nil, fmt.Errorf("%w: index data must be 1-dimensional, got %d dimensions", ErrInvalidArgument, arr.Ndim())
		}
		dtype := arr.Dtype
		if dtype.BasicType == BTDatetime && !inDatetime64Range(arr.Values) {
			dtype = Object
		}
		idx = NewIndex("", dtype, arr.Values)
	}
	return maybeCastToCFTimeIndex(idx), nil
}

func inDatetime64Range(values []interface{}) bool {
	for _, v := range values {
		t, ok := v.(time.Time)
		if !ok || IsNull(t) {
			continue
		}
		if t.Before(minDatetime64) || t.After(maxDatetime64) {
			return false
		}
	}
	return true
}

func maybeCastToCFTimeIndex(idx Index) Index {
	if !GetOptions().EnableCFTimeIndex || idx.Dtype().BasicType != BTObject || idx.Len() == 0 {
		return idx
	}
	if _, ok := idx.(*CFTimeIndex); ok {
		return idx
	}
	cf, err := NewCFTimeIndex(idx.Name(), idx.Values())
	if err != nil {
		log.WithFields(logrus.Fields{
			"index": idx.Name(),
			"len":   idx.Len(),
		}).WithError(err).Debug("keeping object index")
		return idx
	}
	return cf
}

// CFTimeIndex is an index of CFDatetime values that all share one calendar
type CFTimeIndex struct {
	name     string
	calendar string
	dates    []CFDatetime
}

var _ Index = (*CFTimeIndex)(nil)

// NewCFTimeIndex builds a CFTimeIndex. Every value must be a valid
// CFDatetime and all values must share a registered calendar
func NewCFTimeIndex(name string, values []interface{}) (*CFTimeIndex, error) {
	idx := &CFTimeIndex{name: name, dates: make([]CFDatetime, len(values))}
	for i, v := range values {
		d, ok := v.(CFDatetime)
		if !ok {
			return nil, fmt.Errorf("%w: CFTimeIndex requires CFDatetime values, element %d is %T", ErrInvalidArgument, i, v)
		}
		if i == 0 {
			idx.calendar = d.Calendar
		} else if d.Calendar != idx.calendar {
			return nil, fmt.Errorf("%w: CFTimeIndex requires a single calendar, got %s and %s", ErrInvalidArgument, idx.calendar, d.Calendar)
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		idx.dates[i] = d
	}
	return idx, nil
}

func (idx *CFTimeIndex) Name() string         { return idx.name }
func (idx *CFTimeIndex) Dtype() Dtype         { return Object }
func (idx *CFTimeIndex) Len() int             { return len(idx.dates) }
func (idx *CFTimeIndex) At(i int) interface{} { return idx.dates[i] }

// Calendar is the calendar shared by every date
func (idx *CFTimeIndex) Calendar() string { return idx.calendar }

// Dates returns a copy of the dates
func (idx *CFTimeIndex) Dates() []CFDatetime { return append([]CFDatetime(nil), idx.dates...) }

func (idx *CFTimeIndex) Values() []interface{} {
	values := make([]interface{}, len(idx.dates))
	for i, d := range idx.dates {
		values[i] = d
	}
	return values
}

func (idx *CFTimeIndex) String() string {
	return truncateRepr(fmt.Sprintf("CFTimeIndex(%v, calendar=%s)", idx.dates, idx.calendar))
}

// Factorize encodes the values of idx as codes into a list of unique values
// in order of first appearance. Null values get code -1 and are left out of
// the uniques
func Factorize(idx Index) (codes []int, uniques *BaseIndex) {
	codes = make([]int, idx.Len())
	var seen []interface{}
	lookup := map[interface{}]int{}
	for i := 0; i < idx.Len(); i++ {
		v := idx.At(i)
		if IsNull(v) {
			codes[i] = -1
			continue
		}
		if Hashable(v) {
			key := factorizeKey(v)
			if c, ok := lookup[key]; ok {
				codes[i] = c
				continue
			}
			lookup[key] = len(seen)
		} else if c := indexOfEquivalent(seen, v); c >= 0 {
			codes[i] = c
			continue
		}
		codes[i] = len(seen)
		seen = append(seen, v)
	}
	return codes, NewIndex(idx.Name(), idx.Dtype(), seen)
}

// factorizeKey normalizes values that compare equal but hash differently
func factorizeKey(v interface{}) interface{} {
	switch x := v.(type) {
	case time.Time:
		return [2]int64{x.Unix(), int64(x.Nanosecond())}
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

func indexOfEquivalent(values []interface{}, v interface{}) int {
	for i, el := range values {
		if Equivalent(el, v) {
			return i
		}
	}
	return -1
}

// MultiIndex is a hierarchical index: each label is a tuple with one value
// per level, stored as a list of codes into each level
type MultiIndex struct {
	names  []string
	levels []*BaseIndex
	codes  [][]int
}

var _ Index = (*MultiIndex)(nil)

// MultiIndexFromProductLevels builds the Cartesian product of levels. The
// last level varies fastest. Duplicate values within a level are collapsed
// so each level holds unique values in order of first appearance
func MultiIndexFromProductLevels(levels []Index, names []string) (*MultiIndex, error) {
	if names != nil && len(names) != len(levels) {
		return nil, fmt.Errorf("%w: got %d names for %d levels", ErrInvalidArgument, len(names), len(levels))
	}
	mi := &MultiIndex{
		names:  make([]string, len(levels)),
		levels: make([]*BaseIndex, len(levels)),
		codes:  make([][]int, len(levels)),
	}
	copy(mi.names, names)

	splitCodes := make([][]int, len(levels))
	size := 1
	for i, lev := range levels {
		if lev == nil {
			return nil, fmt.Errorf("%w: level %d is nil", ErrInvalidArgument, i)
		}
		splitCodes[i], mi.levels[i] = Factorize(lev)
		size *= len(splitCodes[i])
	}
	if len(levels) == 0 {
		size = 0
	}

	// meshgrid with ij indexing, raveled in row-major order
	for i := range splitCodes {
		inner := 1
		for _, c := range splitCodes[i+1:] {
			inner *= len(c)
		}
		codes := make([]int, size)
		for j := range codes {
			codes[j] = splitCodes[i][(j/inner)%len(splitCodes[i])]
		}
		mi.codes[i] = codes
	}
	return mi, nil
}

func (mi *MultiIndex) Name() string { return "" }
func (mi *MultiIndex) Dtype() Dtype { return Object }

func (mi *MultiIndex) Len() int {
	if len(mi.codes) == 0 {
		return 0
	}
	return len(mi.codes[0])
}

// Names are the level names
func (mi *MultiIndex) Names() []string { return append([]string(nil), mi.names...) }

// Levels are the unique values of each level
func (mi *MultiIndex) Levels() []*BaseIndex { return append([]*BaseIndex(nil), mi.levels...) }

// Codes holds, per level, the position of each label's value in that level
func (mi *MultiIndex) Codes() [][]int {
	out := make([][]int, len(mi.codes))
	for i, c := range mi.codes {
		out[i] = append([]int(nil), c...)
	}
	return out
}

// At returns the tuple at position i. Null codes yield nil elements
func (mi *MultiIndex) At(i int) interface{} {
	tuple := make([]interface{}, len(mi.levels))
	for l, lev := range mi.levels {
		if c := mi.codes[l][i]; c >= 0 {
			tuple[l] = lev.At(c)
		}
	}
	return tuple
}

func (mi *MultiIndex) Values() []interface{} {
	values := make([]interface{}, mi.Len())
	for i := range values {
		values[i] = mi.At(i)
	}
	return values
}

func (mi *MultiIndex) String() string {
	return truncateRepr(fmt.Sprintf("MultiIndex(levels=%v, codes=%v, names=%v)", mi.levels, mi.codes, mi.names))
}
