package xarray

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// https://zarr.readthedocs.io/en/stable/spec/v2.html#metadata
const zarrV2Example = `{
  "chunks": [
    1000,
    1000
  ],
	"compressor": {
			"id": "blosc",
			"cname": "lz4",
			"clevel": 5,
			"shuffle": 1
	},
	"dtype": "<f8",
	"fill_value": "NaN",
	"filters": [
			{"id": "delta", "dtype": "<f8", "astype": "<f4"}
	],
	"order": "C",
	"shape": [
			10000,
			10000
	],
	"zarr_format": 2
}`

func TestMetadataSerialization(t *testing.T) {
	m := &ArrayMeta{}
	require.NoError(t, json.Unmarshal([]byte(zarrV2Example), m))

	assert.Equal(t, 2, m.ZarrFormat)
	assert.Equal(t, []int{10000, 10000}, m.Shape)
	assert.Equal(t, []int{1000, 1000}, m.Chunks)
	assert.Equal(t, Float64, m.Dtype.Dtype)
	assert.Equal(t, &CompressionMeta{ID: "blosc", Cname: "lz4", Clevel: 5, Shuffle: 1}, m.Compressor)
	assert.Equal(t, FillValueNaN, m.FillValue)
	assert.Equal(t, []Filter{{ID: "delta", Dtype: "<f8", AsType: "<f4"}}, m.Filters)
	assert.Equal(t, ".", m.separator())

	err := m.Validate()
	assert.ErrorIs(t, err, ErrUnsupported, "filters are not supported")

	m.Filters = nil
	assert.NoError(t, m.Validate())

	b, err := json.Marshal(m)
	require.NoError(t, err)
	rt := &ArrayMeta{}
	require.NoError(t, json.Unmarshal(b, rt))
	assert.Equal(t, m, rt)
}

func TestMetadataNullCompressor(t *testing.T) {
	m := &ArrayMeta{}
	require.NoError(t, json.Unmarshal([]byte(`{"zarr_format": 2, "shape": [3], "chunks": [3], "dtype": "|b1", "compressor": null, "fill_value": null, "order": "C", "filters": null, "dimension_separator": "/"}`), m))
	assert.Nil(t, m.Compressor)
	assert.Nil(t, m.FillValue)
	assert.Equal(t, "/", m.separator())
	assert.NoError(t, m.Validate())

	m.DimensionSeparator = ":"
	assert.ErrorIs(t, m.Validate(), ErrInvalidArgument)
}

const consolidatedExample = `{
  "metadata": {
    ".zattrs": {"title": "barbados"},
    ".zgroup": {"zarr_format": 2},
    "sst/.zarray": {
      "chunks": [10, 20], "compressor": null, "dtype": "<f4", "fill_value": "NaN",
      "filters": null, "order": "C", "shape": [100, 200], "zarr_format": 2
    },
    "sst/.zattrs": {"_ARRAY_DIMENSIONS": ["lat", "lon"], "units": "K"}
  },
  "zarr_consolidated_format": 1
}`

func TestConsolidatedMetadata(t *testing.T) {
	cm := &ConsolidatedMetadata{}
	require.NoError(t, json.Unmarshal([]byte(consolidatedExample), cm))

	assert.Equal(t, 1, cm.ConsolidatedFormat)
	require.Len(t, cm.Metadata, 4)

	for key, want := range map[string]MetaType{
		".zattrs":     MTAttributes,
		".zgroup":     MTGroup,
		"sst/.zarray": MTArray,
		"sst/.zattrs": MTAttributes,
	} {
		require.Contains(t, cm.Metadata, key)
		assert.Equal(t, want, cm.Metadata[key].MetaType(), key)
	}

	arr := cm.Metadata["sst/.zarray"].(*ArrayMeta)
	assert.Equal(t, []int{100, 200}, arr.Shape)
	assert.Equal(t, Float32, arr.Dtype.Dtype)

	attrs := cm.Metadata["sst/.zattrs"].(Attributes)
	assert.Equal(t, "K", attrs["units"])
	assert.Equal(t, Group{ZarrFormat: 2}, cm.Metadata[".zgroup"])

	err := json.Unmarshal([]byte(`{"metadata": {"sst/.zbogus": {}}}`), &ConsolidatedMetadata{})
	assert.Error(t, err)
}

func TestKeyMetaType(t *testing.T) {
	mt, ok := KeyMetaType("a/b/.zarray")
	assert.True(t, ok)
	assert.Equal(t, MTArray, mt)

	_, ok = KeyMetaType("a/0.0")
	assert.False(t, ok)
	_, ok = KeyMetaType("x")
	assert.False(t, ok)
	_, ok = KeyMetaType(".zmetadata")
	assert.False(t, ok)
}
