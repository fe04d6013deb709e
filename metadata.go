package xarray

import (
	"encoding/json"
	"fmt"
)

type MetaType string

const (
	// MTAttributes stores userland metadata keyed by array name
	MTAttributes MetaType = ".zattrs"
	// MTArray is the key for storing metadata on an array store
	MTArray MetaType = ".zarray"
	// MTGroup is the key for storing group definitions on an array store
	MTGroup MetaType = ".zgroup"
	// MTMetadata is the key for composite metadata
	MTMetadata MetaType = ".zmetadata"
)

type MetaTyper interface {
	MetaType() MetaType
}

var metaTypes = map[MetaType]struct{}{
	MTAttributes: {},
	MTArray:      {},
	MTGroup:      {},
}

// KeyMetaType reads the metadata type from the last path segment of a
// store key. All metadata key names are 7 characters long
func KeyMetaType(s string) (mt MetaType, ok bool) {
	if len(s) < 7 {
		return mt, false
	}
	mt = MetaType(s[len(s)-7:])
	_, ok = metaTypes[mt]
	return mt, ok
}

func (Attributes) MetaType() MetaType { return MTAttributes }

// Group marks a logical path as a group of arrays and other groups
type Group struct {
	ZarrFormat int `json:"zarr_format"`
}

func (Group) MetaType() MetaType { return MTGroup }

// ConsolidatedMetadata bundles the metadata documents of a whole hierarchy
// under a single ".zmetadata" key
type ConsolidatedMetadata struct {
	ConsolidatedFormat int                  `json:"zarr_consolidated_format"`
	Metadata           map[string]MetaTyper `json:"metadata"`
}

type consolidatedMetaDecoder struct {
	ConsolidatedFormat int                        `json:"zarr_consolidated_format"`
	Metadata           map[string]json.RawMessage `json:"metadata"`
}

func (m *ConsolidatedMetadata) UnmarshalJSON(d []byte) error {
	cd := consolidatedMetaDecoder{}
	if err := json.Unmarshal(d, &cd); err != nil {
		return err
	}
	cm := ConsolidatedMetadata{
		ConsolidatedFormat: cd.ConsolidatedFormat,
		Metadata:           map[string]MetaTyper{},
	}

	for key, data := range cd.Metadata {
		kt, ok := KeyMetaType(key)
		if !ok {
			return fmt.Errorf("invalid consolidated metadata key: %q", key)
		}

		switch kt {
		case MTArray:
			arr := &ArrayMeta{}
			if err := json.Unmarshal(data, arr); err != nil {
				return fmt.Errorf("reading %q metadata: %w", key, err)
			}
			cm.Metadata[key] = arr
		case MTAttributes:
			attr := Attributes{}
			if err := json.Unmarshal(data, &attr); err != nil {
				return fmt.Errorf("reading %q attributes: %w", key, err)
			}
			cm.Metadata[key] = attr
		case MTGroup:
			grp := Group{}
			if err := json.Unmarshal(data, &grp); err != nil {
				return fmt.Errorf("reading %q group: %w", key, err)
			}
			cm.Metadata[key] = grp
		}
	}

	*m = cm
	return nil
}

// ArrayMeta is the configuration metadata stored as JSON under the
// ".zarray" key of an array
type ArrayMeta struct {
	// version of the storage specification the array store adheres to
	ZarrFormat int `json:"zarr_format"`
	// length of each dimension of the array
	Shape []int `json:"shape"`
	// length of each dimension of a chunk. All chunks of an array have the
	// same shape
	Chunks []int `json:"chunks"`
	// element type, a typestr or a list of structured fields
	Dtype StructuredType `json:"dtype"`
	// primary compression codec, or null for uncompressed chunks
	Compressor *CompressionMeta `json:"compressor"`
	// FillValue is used for uninitialized portions of the array, or null
	FillValue interface{} `json:"fill_value"`
	// Either "C" (row-major) or "F" (column-major) layout within chunks
	Order   string   `json:"order"`
	Filters []Filter `json:"filters"`

	// optional fields

	// Either "." or "/", placed between the dimensions of a chunk key.
	// Defaults to "."
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

func (a ArrayMeta) MetaType() MetaType { return MTArray }

// Validate checks that the metadata describes an array this package can
// read
func (a *ArrayMeta) Validate() error {
	if len(a.Chunks) != len(a.Shape) {
		return fmt.Errorf("%w: chunks %v do not match shape %v", ErrInvalidArgument, a.Chunks, a.Shape)
	}
	for i, c := range a.Chunks {
		if c <= 0 {
			return fmt.Errorf("%w: chunk length %d on axis %d", ErrInvalidArgument, c, i)
		}
		if a.Shape[i] < 0 {
			return fmt.Errorf("%w: negative length %d on axis %d", ErrInvalidArgument, a.Shape[i], i)
		}
	}
	if !a.Dtype.IsBasic() {
		return fmt.Errorf("%w: structured dtypes", ErrUnsupported)
	}
	if a.Order != "" && a.Order != "C" {
		return fmt.Errorf("%w: chunk order %q", ErrUnsupported, a.Order)
	}
	if len(a.Filters) > 0 {
		return fmt.Errorf("%w: filters", ErrUnsupported)
	}
	switch a.DimensionSeparator {
	case "", ".", "/":
	default:
		return fmt.Errorf("%w: dimension separator %q", ErrInvalidArgument, a.DimensionSeparator)
	}
	return nil
}

func (a *ArrayMeta) separator() string {
	if a.DimensionSeparator == "" {
		return "."
	}
	return a.DimensionSeparator
}

type Filter struct {
	ID     string `json:"id"`
	Delta  string `json:"delta,omitempty"`
	Dtype  string `json:"dtype,omitempty"`
	AsType string `json:"astype,omitempty"`
}

const (
	// Not a Number
	FillValueNaN = "NaN"
	// Infinity
	FillValueInfinity = "Infinity"
	// -Infinity
	FillValueNegativeInfinity = "-Infinity"
)
