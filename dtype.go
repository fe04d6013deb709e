package xarray

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dtype describes the element type of an array or index, using the NumPy
// array protocol type string (typestr) format. The format consists of 3
// parts and an optional unit:
//  * One character describing the byteorder of the data:
//    "<": little-endian; ">": big-endian; "|": not-relevant)
//  * One character code giving the basic type of the array:
//    * "b": Boolean
//    * "i": integer;
//    * "u": unsigned integer
//    * "f": floating point
//    * "c": complex floating point
//    * "m": timedelta;
//    * "M": datetime
//    * "S": string (fixed-length sequence of char)
//    * "U": unicode
//    * "V": other (fixed-size chunk of memory)
//    * "O": object (any Go value)
//  * An integer specifying the number of bytes the type uses.
//  * For "m" and "M", a bracketed time unit such as "[ns]"
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
	Units     string
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = (*Dtype)(nil)
)

// Commonly used dtypes
var (
	Bool        = Dtype{ByteOrder: BONotRelevant, BasicType: BTBoolean, ByteSize: 1}
	Int64       = Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 8}
	Float32     = Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 4}
	Float64     = Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 8}
	Object      = Dtype{ByteOrder: BONotRelevant, BasicType: BTObject, ByteSize: 8}
	Datetime64  = Dtype{ByteOrder: BOLittleEndian, BasicType: BTDatetime, ByteSize: 8, Units: "[ns]"}
	Timedelta64 = Dtype{ByteOrder: BOLittleEndian, BasicType: BTTimedelta, ByteSize: 8, Units: "[ns]"}
)

func ParseDtype(s string) (dt Dtype, err error) {
	// the python implementation HTML-escapes byte order markers in JSON
	s = strings.Replace(s, "&lt;", "<", 1)
	s = strings.Replace(s, "&gt;", ">", 1)

	if len(s) < 3 {
		return dt, fmt.Errorf("invalid Dtype string. %q is too short", s)
	}

	boByte, s := s[0], s[1:]
	dt.ByteOrder, err = ParseByteOrder(rune(boByte))
	if err != nil {
		return dt, err
	}

	typeByte, s := s[0], s[1:]
	dt.BasicType, err = ParseBasicType(rune(typeByte))
	if err != nil {
		return dt, err
	}

	sizeStr, unitStr := s, ""
	if i := strings.IndexByte(s, '['); i >= 0 {
		sizeStr, unitStr = s[:i], s[i:]
	}

	size, err := strconv.ParseInt(sizeStr, 10, 0)
	if err != nil {
		return dt, err
	}
	dt.ByteSize = int(size)

	if unitStr != "" {
		if !dt.BasicType.IsTemporal() {
			return dt, fmt.Errorf("invalid Dtype string. units %q on non-temporal type %q", unitStr, string(dt.BasicType))
		}
		if _, err := ParseTimeUnit(strings.Trim(unitStr, "[]")); err != nil {
			return dt, err
		}
	}
	dt.Units = unitStr

	return dt, nil
}

func (dt Dtype) String() string {
	s := fmt.Sprintf("%s%s%d", string(dt.ByteOrder), string(dt.BasicType), dt.ByteSize)
	if dt.Units != "" {
		s += dt.Units
	}
	return s
}

// Kind is the single-character basic type code, as in numpy's dtype.kind
func (dt Dtype) Kind() BasicType { return dt.BasicType }

// IsNumeric reports whether values of this dtype are stored as Go numbers
func (dt Dtype) IsNumeric() bool {
	switch dt.BasicType {
	case BTBoolean, BTInteger, BTUnsigned, BTFloatingPoint, BTComplex:
		return true
	}
	return false
}

// TimeUnit returns the duration of one tick of a datetime or timedelta
// dtype. Temporal dtypes without units are nanosecond resolution
func (dt Dtype) TimeUnit() (time.Duration, error) {
	if !dt.BasicType.IsTemporal() {
		return 0, fmt.Errorf("dtype %s has no time unit", dt)
	}
	if dt.Units == "" {
		return time.Nanosecond, nil
	}
	return ParseTimeUnit(strings.Trim(dt.Units, "[]"))
}

func (dt Dtype) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.String() + `"`), nil
}

func (dt *Dtype) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	t, err := ParseDtype(s)
	if err != nil {
		return err
	}

	*dt = t
	return nil
}

var timeUnits = map[string]time.Duration{
	"W":  7 * 24 * time.Hour,
	"D":  24 * time.Hour,
	"h":  time.Hour,
	"m":  time.Minute,
	"s":  time.Second,
	"ms": time.Millisecond,
	"us": time.Microsecond,
	"ns": time.Nanosecond,
}

// ParseTimeUnit interprets a numpy datetime unit code. Calendar units
// ("Y", "M") have no fixed length and are rejected
func ParseTimeUnit(s string) (time.Duration, error) {
	d, ok := timeUnits[s]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported datetime unit %q", ErrInvalidArgument, s)
	}
	return d, nil
}

type ByteOrder rune

func ParseByteOrder(r rune) (ByteOrder, error) {
	o := ByteOrder(r)
	if _, ok := byteOrders[o]; !ok {
		return o, fmt.Errorf("unsupported byte order format: %q", r)
	}
	return o, nil
}

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
	// BONative is '=' in numpy; zarr stores never write it
	BONative ByteOrder = '='
)

var byteOrders = map[ByteOrder]struct{}{
	BONotRelevant:  {},
	BOLittleEndian: {},
	BOBigEndian:    {},
	BONative:       {},
}

type BasicType rune

func ParseBasicType(r rune) (BasicType, error) {
	t := BasicType(r)
	if _, ok := supportedBasicTypes[t]; !ok {
		return t, fmt.Errorf("unsupported basic type: %q", r)
	}
	return t, nil
}

func (bt BasicType) Human() string {
	return supportedBasicTypes[bt]
}

// IsTemporal is true for datetime and timedelta types
func (bt BasicType) IsTemporal() bool {
	return bt == BTDatetime || bt == BTTimedelta
}

const (
	BTBoolean       BasicType = 'b'
	BTInteger       BasicType = 'i'
	BTUnsigned      BasicType = 'u'
	BTFloatingPoint BasicType = 'f'
	BTComplex       BasicType = 'c'
	BTTimedelta     BasicType = 'm'
	BTDatetime      BasicType = 'M'
	BTString        BasicType = 'S'
	BTUnicode       BasicType = 'U'
	BTOther         BasicType = 'V'
	BTObject        BasicType = 'O'
)

var supportedBasicTypes = map[BasicType]string{
	BTBoolean:       "bool",
	BTInteger:       "int",
	BTUnsigned:      "uint",
	BTFloatingPoint: "float",
	BTComplex:       "complex",
	BTTimedelta:     "timedelta64",
	BTDatetime:      "datetime64",
	BTString:        "bytes",
	BTUnicode:       "str",
	BTOther:         "void",
	BTObject:        "object",
}

// StructuredType is a zarr data type that is either a basic Dtype or a list
// of named fields
type StructuredType struct {
	Fieldname string
	Dtype     Dtype
	Shape     interface{}
	Children  []StructuredType
}

func ParseStructuredType(d interface{}) (StructuredType, error) {
	switch v := d.(type) {
	case string:
		dt, err := ParseDtype(v)
		if err != nil {
			return StructuredType{}, err
		}
		return StructuredType{Dtype: dt}, nil
	case []interface{}:
		return parseStructuredTypeSlice(v)
	default:
		return StructuredType{}, fmt.Errorf("unexpected type %T", d)
	}
}

func parseStructuredTypeSlice(d []interface{}) (StructuredType, error) {
	if len(d) == 1 {
		childSlice, ok := d[0].([]interface{})
		if !ok {
			return StructuredType{}, fmt.Errorf("expected single element array to contain an array of structure types")
		}
		parent := StructuredType{}
		for i, el := range childSlice {
			ch, err := ParseStructuredType(el)
			if err != nil {
				return StructuredType{}, fmt.Errorf("element %d: %w", i, err)
			}
			parent.Children = append(parent.Children, ch)
		}
		return parent, nil
	} else if len(d) < 2 {
		return StructuredType{}, fmt.Errorf("invalid structured Dtype: length %d is too short", len(d))
	}

	t := StructuredType{}
	fieldName, ok := d[0].(string)
	if !ok {
		return StructuredType{}, fmt.Errorf("invalid structured Dtype: field name must be a string. got %T", d[0])
	}
	t.Fieldname = fieldName

	switch x := d[1].(type) {
	case string:
		dtype, err := ParseDtype(x)
		if err != nil {
			return StructuredType{}, err
		}
		t.Dtype = dtype
	case []interface{}:
		ch, err := ParseStructuredType(x)
		if err != nil {
			return StructuredType{}, err
		}
		t.Children = append(t.Children, ch)
	default:
		return t, fmt.Errorf("invalid structured Dtype: want either string or Structured Type. got %T", d[1])
	}

	if len(d) > 2 {
		t.Shape = d[2]
	}

	return t, nil
}

// IsBasic is true when the type is a plain Dtype with no fields
func (st *StructuredType) IsBasic() bool {
	return st.Fieldname == "" && st.Shape == nil && len(st.Children) == 0
}

func (st *StructuredType) Human() string {
	if st.IsBasic() {
		return st.Dtype.BasicType.Human()
	}
	return "struct"
}

func (st *StructuredType) MarshalJSON() ([]byte, error) {
	if st.IsBasic() {
		return st.Dtype.MarshalJSON()
	}

	d := []interface{}{
		st.Fieldname,
		st.Dtype,
	}
	if st.Shape != nil {
		d = append(d, st.Shape)
	}

	return json.Marshal(d)
}

func (st *StructuredType) UnmarshalJSON(d []byte) error {
	var v interface{}
	if err := json.Unmarshal(d, &v); err != nil {
		return err
	}

	t, err := ParseStructuredType(v)
	if err != nil {
		return err
	}

	*st = t
	return nil
}
