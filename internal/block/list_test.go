package block

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// makeBlocks carves n 16-byte cells out of one heap buffer and returns their
// addresses. The buffer is pinned for the duration of the test so the
// intrusive links stay valid.
func makeBlocks(t *testing.T, n int) []Pointer {
	t.Helper()
	const cell = 16
	buf := make([]byte, (n+1)*cell)
	t.Cleanup(func() { runtime.KeepAlive(buf) })

	base := uintptr(unsafe.Pointer(&buf[0]))
	pad := (WordSize - base%WordSize) % WordSize

	ptrs := make([]Pointer, n)
	for i := range ptrs {
		ptrs[i] = unsafe.Add(unsafe.Pointer(&buf[0]), int(pad)+i*cell)
	}
	return ptrs
}

func TestListPushPopLIFO(t *testing.T) {
	ptrs := makeBlocks(t, 3)
	var l List

	l.Push(ptrs[0])
	l.Push(ptrs[1])
	l.Push(ptrs[2])
	require.Equal(t, 3, l.Len())

	require.Equal(t, ptrs[2], l.Pop())
	require.Equal(t, ptrs[1], l.Pop())
	require.Equal(t, ptrs[0], l.Pop())
	require.Nil(t, l.Pop())
	require.Equal(t, 0, l.Len())
	require.True(t, l.Empty())
}

func TestListPushAllMeasuresChain(t *testing.T) {
	ptrs := makeBlocks(t, 5)

	// Hand-build a 4-block chain.
	for i := 0; i < 3; i++ {
		SetNext(ptrs[i], ptrs[i+1])
	}
	SetNext(ptrs[3], nil)

	var l List
	l.Push(ptrs[4])
	n := l.PushAll(ptrs[0])
	require.Equal(t, 4, n)
	require.Equal(t, 5, l.Len())

	// Chain order is preserved; the old head hangs off the new tail.
	require.Equal(t, ptrs[0], l.Pop())
	require.Equal(t, ptrs[1], l.Pop())
	require.Equal(t, ptrs[2], l.Pop())
	require.Equal(t, ptrs[3], l.Pop())
	require.Equal(t, ptrs[4], l.Pop())
}

func TestListPopN(t *testing.T) {
	ptrs := makeBlocks(t, 4)
	var l List
	for _, p := range ptrs {
		l.Push(p)
	}

	head, got := l.PopN(3)
	require.Equal(t, 3, got)
	require.Equal(t, 3, Count(head))
	require.Equal(t, 1, l.Len())

	// Asking for more than remains returns what exists.
	head, got = l.PopN(10)
	require.Equal(t, 1, got)
	require.Equal(t, 1, Count(head))
	require.True(t, l.Empty())

	head, got = l.PopN(1)
	require.Nil(t, head)
	require.Zero(t, got)
}

func TestListSplitKeepsPrefix(t *testing.T) {
	ptrs := makeBlocks(t, 8)
	var l List
	for _, p := range ptrs {
		l.Push(p)
	}

	tail, n := l.Split(2)
	require.Equal(t, 6, n)
	require.Equal(t, 6, Count(tail))
	require.Equal(t, 2, l.Len())

	// Keep is clamped to at least one block.
	tail, n = l.Split(0)
	require.Equal(t, 1, n)
	require.Equal(t, 1, Count(tail))
	require.Equal(t, 1, l.Len())

	// Splitting a list no longer than keep detaches nothing.
	tail, n = l.Split(4)
	require.Nil(t, tail)
	require.Zero(t, n)
	require.Equal(t, 1, l.Len())
}

func TestListPopAll(t *testing.T) {
	ptrs := makeBlocks(t, 3)
	var l List
	for _, p := range ptrs {
		l.Push(p)
	}

	head, n := l.PopAll()
	require.Equal(t, 3, n)
	require.Equal(t, 3, Count(head))
	require.True(t, l.Empty())

	head, n = l.PopAll()
	require.Nil(t, head)
	require.Zero(t, n)
}
