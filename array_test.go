package xarray

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArray(t *testing.T) {
	a, err := NewArray([][]int{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, Int64, a.Dtype)
	assert.Equal(t, []int{2, 3}, a.Shape)
	assert.Equal(t, 2, a.Ndim())
	assert.Equal(t, 6, a.Size())
	assert.Equal(t, int64(4), a.At(1, 0))

	same, err := NewArray(a)
	require.NoError(t, err)
	assert.True(t, same == a)

	_, err = NewArray([][]int{{1}, {2, 3}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	s, err := NewArray(3.5)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Ndim())
	assert.Equal(t, 1, s.Size())
	assert.Equal(t, 3.5, s.At())

	assert.Panics(t, func() { a.At(2, 0) })
	assert.Panics(t, func() { a.At(0) })
}

func TestInferDtype(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{[]bool{true, false}, "|b1"},
		{[]int32{1, 2}, "<i8"},
		{[]uint8{1, 2}, "<u8"},
		{[]interface{}{1, 2.5}, "<f8"},
		{[]string{"a", "bcd"}, "<U12"},
		{[]time.Time{time.Unix(0, 0)}, "<M8[ns]"},
		{[]time.Duration{time.Hour}, "<m8[ns]"},
		{[]interface{}{1, "a"}, "|O8"},
		{[]float64{}, "<f8"},
	}
	for _, c := range cases {
		a, err := NewArray(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, a.Dtype.String(), "%#v", c.in)
	}
}

func TestAsType(t *testing.T) {
	a := Arange(3)
	f, err := a.AsType(Float32)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{float32(0), float32(1), float32(2)}, f.Values)
	assert.Equal(t, []interface{}{int64(0), int64(1), int64(2)}, a.Values, "source is unchanged")

	o, err := ObjectArray([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, Object, o.Dtype)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, o.Values)

	_, err = (&NDArray{Dtype: Object, Shape: []int{1}, Values: []interface{}{"x"}}).AsType(Float64)
	assert.Error(t, err)
}

func TestIsNull(t *testing.T) {
	nan0d := &NDArray{Dtype: Object, Values: []interface{}{math.NaN()}}
	for _, v := range []interface{}{nil, math.NaN(), float32(math.NaN()), complex(math.NaN(), 0), NaT, nan0d, (*NDArray)(nil)} {
		assert.True(t, IsNull(v), "%#v", v)
	}
	for _, v := range []interface{}{0, 0.0, "", math.Inf(1), time.Unix(0, 0), time.Time{}, Arange(1)} {
		assert.False(t, IsNull(v), "%#v", v)
	}
}

func TestArrayEquiv0d(t *testing.T) {
	obj := func(v interface{}) *NDArray {
		return &NDArray{Dtype: Object, Values: []interface{}{v}}
	}
	assert.True(t, ArrayEquiv(0, obj(0)))
	assert.True(t, ArrayEquiv(math.NaN(), obj(math.NaN())))
	assert.False(t, ArrayEquiv(0, obj(1)))
}

func TestArrayEquiv(t *testing.T) {
	assert.True(t, ArrayEquiv([][]int{{1, 2}, {3, 4}}, [][]float64{{1, 2}, {3, 4}}))
	assert.False(t, ArrayEquiv([][]int{{1, 2}, {3, 4}}, []int{1, 2, 3, 4}), "shapes differ")
	assert.False(t, ArrayEquiv([]float64{math.NaN()}, []float64{0}))
	assert.True(t, ArrayEquiv([]time.Duration{time.Second}, []time.Duration{time.Second}))
	assert.False(t, ArrayEquiv([]time.Duration{time.Second}, []int64{int64(time.Second)}))
	assert.True(t, ArrayEquiv([]interface{}{[]int{1}}, []interface{}{[]int{1}}))
}
