package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneSlice(t *testing.T) {
	require := require.New(t)

	src := []float64{1, 2, 3}
	clone := CloneSlice(src, 0)
	require.Equal(src, clone)

	clone[0] = 99
	require.Equal(float64(1), src[0])

	padded := CloneSlice(src, 5)
	require.Len(padded, 5)
	require.Equal(float64(3), padded[2])
	require.Equal(float64(0), padded[4])
}

func TestSplitFloats(t *testing.T) {
	require := require.New(t)

	values, err := SplitFloats("1.0, 2.5,3")
	require.NoError(err)
	require.Equal([]float64{1.0, 2.5, 3}, values)

	_, err = SplitFloats("")
	require.Error(err)

	_, err = SplitFloats("1.0,abc")
	require.Error(err)
}

func TestParseBoolReply(t *testing.T) {
	require := require.New(t)

	for reply, expected := range map[string]bool{
		"0":    false,
		"1":    true,
		"1.0":  true,
		" 1\r": true,
	} {
		got, err := ParseBoolReply(reply)
		require.NoError(err)
		require.Equal(expected, got, "reply %q", reply)
	}

	_, err := ParseBoolReply("ON")
	require.Error(err)
}

func TestParseFloatReply(t *testing.T) {
	require := require.New(t)

	v, err := ParseFloatReply(" 2500000000.0\n")
	require.NoError(err)
	require.Equal(2.5e9, v)

	_, err = ParseFloatReply("nope")
	require.Error(err)
}
