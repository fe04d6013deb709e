package xarray

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records chunk reads made through it
type countingStore struct {
	Store
	chunkReads int
}

func (s *countingStore) Get(key string) (io.ReadCloser, error) {
	if _, ok := KeyMetaType(key); !ok {
		s.chunkReads++
	}
	return s.Store.Get(key)
}

func grid(rows, cols int) [][]int {
	out := make([][]int, rows)
	for r := range out {
		out[r] = make([]int, cols)
		for c := range out[r] {
			out[r][c] = r*cols + c
		}
	}
	return out
}

func TestCreateOpenCompute(t *testing.T) {
	store := NewMemoryStore()
	data, err := NewArray(grid(5, 4))
	require.NoError(t, err)

	meta := ArrayMeta{
		Shape:  []int{5, 4},
		Chunks: []int{2, 3},
		Dtype:  StructuredType{Dtype: Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 4}},
	}
	_, err = CreateArray(store, "foo/bar", ModeWrite, meta, data)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"foo/bar/.zarray",
		"foo/bar/0.0", "foo/bar/0.1",
		"foo/bar/1.0", "foo/bar/1.1",
		"foo/bar/2.0", "foo/bar/2.1",
	}, store.Keys())

	a, err := OpenArray(store, "/foo/bar/", ModeRead)
	require.NoError(t, err)
	assert.Equal(t, "foo/bar", a.Path())
	assert.Equal(t, ModeRead, a.Mode())
	assert.Equal(t, []int{5, 4}, a.Shape())
	assert.Equal(t, 2, a.Ndim())
	assert.Equal(t, "<i4", a.Dtype().String())
	assert.Equal(t, "<xarray.ChunkedArray foo/bar shape=[5 4] chunks=[2 3] dtype=<i4>", a.Info())

	got, err := a.Compute()
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, got.Shape)
	assert.True(t, ArrayEquiv(data, got))
	assert.Equal(t, int32(19), got.At(4, 3))
}

func TestCreateArrayNestedSeparator(t *testing.T) {
	store := NewMemoryStore()
	data, err := NewArray([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	meta := ArrayMeta{
		Shape:              []int{2, 2},
		Chunks:             []int{1, 2},
		Dtype:              StructuredType{Dtype: Float64},
		DimensionSeparator: "/",
	}
	_, err = CreateArray(store, "nested", ModeWrite, meta, data)
	require.NoError(t, err)
	assert.Contains(t, store.Keys(), "nested/1/0")

	a, err := OpenArray(store, "nested", ModeReadWrite)
	require.NoError(t, err)
	got, err := a.Compute()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0, 4.0}, got.Values)
}

func TestComputeMissingChunks(t *testing.T) {
	store := NewMemoryStore()
	meta := `{"zarr_format": 2, "shape": [5], "chunks": [2], "dtype": "<f8",
		"compressor": null, "fill_value": "NaN", "order": "C", "filters": null}`
	require.NoError(t, store.Put("x/.zarray", strings.NewReader(meta)))

	chunk := &bytes.Buffer{}
	require.NoError(t, binary.Write(chunk, binary.LittleEndian, []float64{1, 2}))
	require.NoError(t, store.Put("x/0", chunk))

	a, err := OpenArray(store, "x", ModeRead)
	require.NoError(t, err)
	got, err := a.Compute()
	require.NoError(t, err)
	require.Len(t, got.Values, 5)
	assert.Equal(t, 1.0, got.Values[0])
	assert.Equal(t, 2.0, got.Values[1])
	for _, v := range got.Values[2:] {
		assert.True(t, math.IsNaN(v.(float64)))
	}
}

func TestComputeFillValues(t *testing.T) {
	cases := []struct {
		dtype Dtype
		fill  interface{}
		want  interface{}
	}{
		{Int64, nil, int64(0)},
		{Int64, 42.0, int64(42)},
		{Float32, FillValueInfinity, float32(math.Inf(1))},
		{Float64, FillValueNegativeInfinity, math.Inf(-1)},
		{Bool, true, true},
	}
	for _, c := range cases {
		got, err := fillValue(c.fill, c.dtype)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s %v", c.dtype, c.fill)
	}

	_, err := fillValue(nil, Object)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestIsScalarDoesNotReadChunks(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}

	_, err := CreateArray(store, "lazy", ModeWrite, ArrayMeta{
		Shape:  []int{8},
		Chunks: []int{4},
		Dtype:  StructuredType{Dtype: Int64},
	}, Arange(8))
	require.NoError(t, err)

	scalar, err := NewArray(7.5)
	require.NoError(t, err)
	_, err = CreateArray(store, "scalar", ModeWrite, ArrayMeta{
		Shape:  []int{},
		Chunks: []int{},
		Dtype:  StructuredType{Dtype: Float64},
	}, scalar)
	require.NoError(t, err)

	store.chunkReads = 0
	lazy, err := OpenArray(store, "lazy", ModeRead)
	require.NoError(t, err)
	assert.False(t, IsScalar(lazy))
	s, err := OpenArray(store, "scalar", ModeRead)
	require.NoError(t, err)
	assert.True(t, IsScalar(s))
	assert.Equal(t, 0, store.chunkReads)

	got, err := s.Compute()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{7.5}, got.Values)
	assert.Equal(t, 1, store.chunkReads)
}

func TestOpenArrayErrors(t *testing.T) {
	store := NewMemoryStore()

	_, err := OpenArray(store, "missing", ModeRead)
	assert.ErrorIs(t, err, ErrNotfound)

	_, err = OpenArray(store, "missing", ModeWrite)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = OpenArray(store, "../escape", ModeRead)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, store.Put("f/.zarray", strings.NewReader(`{"zarr_format": 2, "shape": [4], "chunks": [2], "dtype": "<f8", "order": "F"}`)))
	_, err = OpenArray(store, "f", ModeRead)
	assert.ErrorIs(t, err, ErrUnsupported)

	require.NoError(t, store.Put("c/.zarray", strings.NewReader(`{"zarr_format": 2, "shape": [4], "chunks": [2], "dtype": "<f8", "compressor": {"id": "blosc"}}`)))
	require.NoError(t, store.Put("c/0", strings.NewReader("not blosc")))
	a, err := OpenArray(store, "c", ModeRead)
	require.NoError(t, err)
	_, err = a.Compute()
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCreateArrayWriteFailCorruptMetadata(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put("c/.zarray", strings.NewReader("{not json")))
	meta := ArrayMeta{Shape: []int{3}, Chunks: []int{3}, Dtype: StructuredType{Dtype: Int64}}

	_, err := CreateArray(store, "c", ModeWriteFail, meta, Arange(3))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotfound)
	assert.Equal(t, []string{"c/.zarray"}, store.Keys(), "nothing is written")

	r, err := store.Get("c/.zarray")
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(b))
}

func TestCreateArrayErrors(t *testing.T) {
	store := NewMemoryStore()
	meta := ArrayMeta{Shape: []int{3}, Chunks: []int{3}, Dtype: StructuredType{Dtype: Int64}}

	_, err := CreateArray(store, "a", ModeWriteFail, meta, Arange(3))
	require.NoError(t, err)
	_, err = CreateArray(store, "a", ModeWriteFail, meta, Arange(3))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = CreateArray(store, "a", ModeWrite, meta, Arange(3))
	assert.NoError(t, err)

	_, err = CreateArray(store, "b", ModeRead, meta, Arange(3))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = CreateArray(store, "b", ModeWrite, meta, Arange(4))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	compressed := meta
	compressed.Compressor = &CompressionMeta{ID: "zstd"}
	_, err = CreateArray(store, "b", ModeWrite, compressed, Arange(3))
	assert.ErrorIs(t, err, ErrUnsupported)

	bad := meta
	bad.Chunks = []int{0}
	_, err = CreateArray(store, "b", ModeWrite, bad, Arange(3))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	strs, err := NewArray([]string{"a", "b", "c"})
	require.NoError(t, err)
	text := meta
	text.Dtype = StructuredType{Dtype: strs.Dtype}
	_, err = CreateArray(store, "b", ModeWrite, text, strs)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestArrayAttrs(t *testing.T) {
	store := NewMemoryStore()
	_, err := CreateArray(store, "t", ModeWrite, ArrayMeta{Shape: []int{1}, Chunks: []int{1}, Dtype: StructuredType{Dtype: Float64}}, Arange(1))
	require.NoError(t, err)
	require.NoError(t, store.Put("t/.zattrs", strings.NewReader(`{"units": "K", "scale": 2}`)))

	a, err := OpenArray(store, "t", ModeRead)
	require.NoError(t, err)
	attrs := a.Attrs()
	assert.Equal(t, []string{"scale", "units"}, attrs.Keys())
	v, err := Item(attrs, "units")
	require.NoError(t, err)
	assert.Equal(t, "K", v)
	assert.ErrorIs(t, attrs.Set("units", "C"), ErrImmutable)
}

func TestLocalStoreArray(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	data, err := NewArray([]bool{true, false, true})
	require.NoError(t, err)
	_, err = CreateArray(store, "flags.zarr", ModeWrite, ArrayMeta{Shape: []int{3}, Chunks: []int{2}, Dtype: StructuredType{Dtype: Bool}}, data)
	require.NoError(t, err)

	a, err := OpenArray(store, "flags.zarr", ModeRead)
	require.NoError(t, err)
	got, err := a.Compute()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{true, false, true}, got.Values)

	_, err = store.Get("flags.zarr/9")
	assert.ErrorIs(t, err, ErrNotfound)
}

func TestPath(t *testing.T) {
	p, err := NewPath(`/foo//bar\baz/`)
	require.NoError(t, err)
	assert.Equal(t, Path{"foo", "bar", "baz"}, p)
	assert.Equal(t, "foo/bar/baz", p.String())

	root, err := NewPath("")
	require.NoError(t, err)
	assert.Equal(t, "", root.String())

	for _, bad := range []string{"a/../b", "./a", ".."} {
		_, err := NewPath(bad)
		assert.ErrorIs(t, err, ErrInvalidArgument, bad)
	}

	head, rest := p.Shift()
	assert.Equal(t, "foo", head)
	assert.Equal(t, Path{"bar", "baz"}, rest)
	head, rest = Path{"x"}.Shift()
	assert.Equal(t, "x", head)
	assert.Nil(t, rest)

	base := make(Path, 1, 4)
	base[0] = "root"
	a := base.Join("a")
	b := base.Join("b")
	assert.Equal(t, "root/a", a.String())
	assert.Equal(t, "root/b", b.String())
}
