package secret

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesZeroOnDestroy(t *testing.T) {
	require := require.New(t)

	v := Bytes{1, 2, 3, 4, 5}
	s := New(v)
	require.False(s.Destroyed())

	s.Destroy()
	require.True(s.Destroyed())
	for _, b := range v {
		require.Zero(b)
	}
}

func TestArray32ZeroOnDestroy(t *testing.T) {
	require := require.New(t)

	a := &Array32{}
	for i := range a {
		a[i] = byte(i + 1)
	}
	s := New(a)
	s.Destroy()
	for _, b := range a {
		require.Zero(b)
	}
}

func TestExposeAfterDestroyPanics(t *testing.T) {
	s := New(Bytes{1, 2, 3})
	s.Destroy()
	require.Panics(t, func() { s.Expose() })
}

func TestDestroyIsIdempotent(t *testing.T) {
	s := New(Bytes{1, 2, 3})
	s.Destroy()
	require.NotPanics(t, func() { s.Destroy() })
}

func TestStringRedacted(t *testing.T) {
	require := require.New(t)

	s := New(Bytes("hunter2-but-longer-than-eight-bytes"))
	require.Equal("[REDACTED]", s.String())
	require.Equal("[REDACTED]", fmt.Sprintf("%v", s))
	require.Equal("[REDACTED]", s.GoString())
	require.NotContains(fmt.Sprintf("%v", s), "hunter2")
}

func TestCloneIsIndependent(t *testing.T) {
	require := require.New(t)

	orig := New(Bytes{9, 9, 9})
	clone := Clone(orig)

	orig.Destroy()
	require.Equal(Bytes{9, 9, 9}, clone.Expose())
}

func TestCloneArray32IsIndependent(t *testing.T) {
	require := require.New(t)

	a := &Array32{1, 2, 3}
	orig := New(a)
	clone := CloneArray32(orig)

	orig.Destroy()
	require.Equal(byte(1), clone.Expose()[0])
}
