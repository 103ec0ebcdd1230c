package vim

// Snapshot is one editor state in the undo history.
type Snapshot struct {
	Text   string
	Cursor Position
}

// DefaultUndoDepth bounds the history length.
const DefaultUndoDepth = 200

// History is a bounded undo/redo stack of snapshots. The index points at the
// current state; pushing truncates any redo tail.
type History struct {
	states []Snapshot
	index  int
	limit  int
}

// NewHistory returns a history seeded with the initial state.
func NewHistory(initial Snapshot, limit int) *History {
	if limit <= 0 {
		limit = DefaultUndoDepth
	}
	return &History{states: []Snapshot{initial}, index: 0, limit: limit}
}

// Push records a new current state, discarding the redo tail.
func (h *History) Push(s Snapshot) {
	h.states = append(h.states[:h.index+1], s)
	h.index = len(h.states) - 1
	if len(h.states) > h.limit {
		drop := len(h.states) - h.limit
		h.states = h.states[drop:]
		h.index -= drop
	}
}

// Undo rewinds one snapshot. Returns false at the oldest state.
func (h *History) Undo() (Snapshot, bool) {
	if h.index == 0 {
		return Snapshot{}, false
	}
	h.index--
	return h.states[h.index], true
}

// Redo re-applies one undone snapshot. Returns false at the newest state.
func (h *History) Redo() (Snapshot, bool) {
	if h.index >= len(h.states)-1 {
		return Snapshot{}, false
	}
	h.index++
	return h.states[h.index], true
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return h.index < len(h.states)-1 }

// Current returns the snapshot at the index pointer.
func (h *History) Current() Snapshot { return h.states[h.index] }
