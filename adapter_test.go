package prefstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolAdapter(t *testing.T) {
	data, err := BoolAdapter.Encode(true)
	require.NoError(t, err)
	assert.Equal(t, []byte("true"), data)

	v, err := BoolAdapter.Decode([]byte("false"))
	require.NoError(t, err)
	assert.False(t, v)

	_, err = BoolAdapter.Decode([]byte("maybe"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestNumericAdapters_RejectGarbage(t *testing.T) {
	_, err := IntAdapter.Decode([]byte("1.5"))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Int64Adapter.Decode([]byte(""))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Float64Adapter.Decode([]byte("NaN-ish"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestStringAdapter_PreservesBytes(t *testing.T) {
	data, err := StringAdapter.Encode("héllo\nworld")
	require.NoError(t, err)

	v, err := StringAdapter.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "héllo\nworld", v)
}

func TestStringSetAdapter_DeduplicatesAndSorts(t *testing.T) {
	data, err := StringSetAdapter.Encode([]string{"b", "a", "b", "c", "a"})
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b","c"]`, string(data))

	v, err := StringSetAdapter.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, v)

	_, err = StringSetAdapter.Decode([]byte("{not an array}"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestJSONAdapter(t *testing.T) {
	type point struct {
		X, Y int
	}

	a := JSON[point]()
	data, err := a.Encode(point{1, 2})
	require.NoError(t, err)

	v, err := a.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, point{1, 2}, v)

	_, err = a.Decode([]byte("boom"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}
