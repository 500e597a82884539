package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueTruthy(t *testing.T) {
	require := require.New(t)

	require.False(Null.Truthy())
	require.False(NewInt64(0).Truthy())
	require.True(NewInt64(1).Truthy())
	require.False(NewString("").Truthy())
	require.False(NewString("0").Truthy())
	require.True(NewString("0.0").Truthy())
}

func TestValueEqual(t *testing.T) {
	require := require.New(t)

	require.True(NewInt64(1).Equal(NewFloat64(1.0)))
	require.True(NewString("abc").Equal(NewString("abc")))
	require.False(Null.Equal(Null))
	require.False(NewInt64(1).Equal(Null))
}

func TestValueCompare(t *testing.T) {
	require := require.New(t)

	require.Equal(-1, NewInt64(1).Compare(NewInt64(2)))
	require.Equal(1, NewFloat64(3.5).Compare(NewInt64(2)))
	require.Equal(0, NewString("a").Compare(NewString("a")))
	require.Equal(-1, NewString("a").Compare(NewString("b")))
}

func TestValueGoString(t *testing.T) {
	require := require.New(t)

	require.Equal("NULL", Null.GoString())
	require.Equal(`"alice"`, NewString("alice").GoString())
	require.Equal("30", NewInt64(30).GoString())
}
