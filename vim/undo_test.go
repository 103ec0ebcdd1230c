package vim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory(Snapshot{Text: "a"}, 0)
	h.Push(Snapshot{Text: "ab"})
	h.Push(Snapshot{Text: "abc"})

	s, ok := h.Undo()
	require.True(t, ok)
	require.Equal(t, "ab", s.Text)

	s, ok = h.Redo()
	require.True(t, ok)
	require.Equal(t, "abc", s.Text)

	_, ok = h.Redo()
	require.False(t, ok)

	s, ok = h.Undo()
	require.True(t, ok)
	require.Equal(t, "ab", s.Text)
	s, ok = h.Undo()
	require.True(t, ok)
	require.Equal(t, "a", s.Text)
	_, ok = h.Undo()
	require.False(t, ok)
}

func TestHistoryPushTruncatesRedoTail(t *testing.T) {
	h := NewHistory(Snapshot{Text: "a"}, 0)
	h.Push(Snapshot{Text: "ab"})
	h.Push(Snapshot{Text: "abc"})

	_, ok := h.Undo()
	require.True(t, ok)

	h.Push(Snapshot{Text: "abX"})
	require.False(t, h.CanRedo())

	s, ok := h.Undo()
	require.True(t, ok)
	require.Equal(t, "ab", s.Text)

	s, ok = h.Redo()
	require.True(t, ok)
	require.Equal(t, "abX", s.Text)
}

func TestHistoryBoundedDepth(t *testing.T) {
	h := NewHistory(Snapshot{Text: "0"}, 5)
	for i := 1; i <= 20; i++ {
		h.Push(Snapshot{Text: fmt.Sprintf("%d", i)})
	}

	require.Equal(t, "20", h.Current().Text)

	var last Snapshot
	n := 0
	for {
		s, ok := h.Undo()
		if !ok {
			break
		}
		last = s
		n++
	}
	require.Equal(t, 4, n)
	require.Equal(t, "16", last.Text)
}
