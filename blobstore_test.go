package xarray

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewBlobStore(ctx, "mem://", "arrays/")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotfound)

	require.NoError(t, s.Put("a/b", strings.NewReader("hello")))
	r, err := s.Get("a/b")
	require.NoError(t, err)
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
	assert.Equal(t, BlobStoreType, s.Type())
}

func TestBlobStoreArray(t *testing.T) {
	s, err := NewBlobStore(context.Background(), "file://"+t.TempDir(), "")
	require.NoError(t, err)
	defer s.Close()

	data, err := NewArray([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	_, err = CreateArray(s, "grid.zarr", ModeWrite, ArrayMeta{
		Shape:  []int{2, 3},
		Chunks: []int{2, 2},
		Dtype:  StructuredType{Dtype: Float64},
	}, data)
	require.NoError(t, err)

	a, err := OpenArray(s, "grid.zarr", ModeRead)
	require.NoError(t, err)
	assert.False(t, IsScalar(a))
	got, err := a.Compute()
	require.NoError(t, err)
	assert.Equal(t, data.Values, got.Values)
}

func TestNewBlobStoreUnknownScheme(t *testing.T) {
	_, err := NewBlobStore(context.Background(), "nosuchscheme://bucket", "")
	assert.Error(t, err)
}
