package input

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbterm/dbterm/vim"
)

func TestResolveActionPerFocus(t *testing.T) {
	r := NewRouter()

	tests := []struct {
		name string
		key  string
		ctx  Context
		want string
		ok   bool
	}{
		{
			"d in tree deletes connection",
			"d",
			Context{Focus: FocusTree},
			"delete_connection", true,
		},
		{
			"d in query normal opens delete menu",
			"d",
			Context{Focus: FocusQuery, VimMode: vim.ModeNormal},
			"delete_leader_key", true,
		},
		{
			"i enters insert mode",
			"i",
			Context{Focus: FocusQuery, VimMode: vim.ModeNormal},
			"enter_insert_mode", true,
		},
		{
			"i does nothing in insert mode",
			"i",
			Context{Focus: FocusQuery, VimMode: vim.ModeInsert},
			"", false,
		},
		{
			"enter runs the query in normal mode",
			"enter",
			Context{Focus: FocusQuery, VimMode: vim.ModeNormal},
			"execute_query", true,
		},
		{
			"f5 runs the query in insert mode",
			"f5",
			Context{Focus: FocusQuery, VimMode: vim.ModeInsert},
			"execute_query_insert", true,
		},
		{
			"y in results copies context",
			"y",
			Context{Focus: FocusResults},
			"copy_context", true,
		},
		{
			"slash opens the results filter",
			"slash",
			Context{Focus: FocusResults},
			"results_filter", true,
		},
		{
			"n targets the filter while it is open",
			"n",
			Context{Focus: FocusResults, ResultsFilterVisible: true},
			"results_filter_next", true,
		},
		{
			"ctrl+q quits from anywhere",
			"ctrl+q",
			Context{Focus: FocusResults},
			"quit", true,
		},
		{
			"question mark shows help",
			"question_mark",
			Context{Focus: FocusTree},
			"show_help", true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, ok := r.ResolveAction(test.key, test.ctx)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.want, res.Action)
		})
	}
}

func TestResolveActionGuards(t *testing.T) {
	r := NewRouter()

	// x disconnects only while connected.
	_, ok := r.ResolveAction("x", Context{Focus: FocusTree})
	require.False(t, ok)

	res, ok := r.ResolveAction("x", Context{Focus: FocusTree, HasConnection: true})
	require.True(t, ok)
	require.Equal(t, "disconnect", res.Action)

	// ctrl+z cancels only while a query is running. In the query editor the
	// guarded global binding falls through to undo instead.
	res, ok = r.ResolveAction("ctrl+z", Context{Focus: FocusQuery, VimMode: vim.ModeInsert, QueryExecuting: true})
	require.True(t, ok)
	require.Equal(t, "cancel_operation", res.Action)

	res, ok = r.ResolveAction("ctrl+z", Context{Focus: FocusQuery, VimMode: vim.ModeInsert})
	require.True(t, ok)
	require.Equal(t, "undo", res.Action)
}

func TestResolveActionWhileExecuting(t *testing.T) {
	r := NewRouter()
	ctx := Context{Focus: FocusQuery, VimMode: vim.ModeNormal, QueryExecuting: true}

	_, ok := r.ResolveAction("enter", ctx)
	require.False(t, ok, "execute is unavailable while a query runs")

	res, ok := r.ResolveAction("ctrl+z", ctx)
	require.True(t, ok)
	require.Equal(t, "cancel_operation", res.Action)

	res, ok = r.ResolveAction("ctrl+q", ctx)
	require.True(t, ok)
	require.Equal(t, "quit", res.Action)
}

func TestResolveActionModal(t *testing.T) {
	r := NewRouter()
	ctx := Context{Focus: FocusTree, ModalOpen: true}

	for _, key := range []string{"d", "n", "space", "question_mark", "slash"} {
		_, ok := r.ResolveAction(key, ctx)
		require.False(t, ok, "key %q should be swallowed by the modal", key)
	}

	res, ok := r.ResolveAction("ctrl+q", ctx)
	require.True(t, ok)
	require.Equal(t, "quit", res.Action)
}

func TestResolveLeaderMenu(t *testing.T) {
	r := NewRouter()
	pending := Context{Focus: FocusQuery, LeaderPending: true, LeaderMenu: "leader"}

	res, ok := r.ResolveAction("e", pending)
	require.True(t, ok)
	require.Equal(t, "toggle_explorer", res.Action)
	require.Equal(t, "Toggle Explorer", res.Leader.Label)

	// Guarded entries honour their guard.
	_, ok = r.ResolveAction("x", pending)
	require.False(t, ok)

	connected := pending
	connected.HasConnection = true
	res, ok = r.ResolveAction("x", connected)
	require.True(t, ok)
	require.Equal(t, "disconnect", res.Action)

	// Keys outside the menu resolve to nothing.
	_, ok = r.ResolveAction("1", pending)
	require.False(t, ok)
}

func TestResolveMotionMenus(t *testing.T) {
	r := NewRouter()

	del := Context{Focus: FocusQuery, LeaderPending: true, LeaderMenu: "delete"}
	res, ok := r.ResolveAction("w", del)
	require.True(t, ok)
	require.Equal(t, "word", res.Action)

	res, ok = r.ResolveAction("d", del)
	require.True(t, ok)
	require.Equal(t, "line", res.Action, "dd deletes the line")

	res, ok = r.ResolveAction("i", del)
	require.True(t, ok)
	require.True(t, NeedsTextObject(res.Action))

	res, ok = r.ResolveAction("f", del)
	require.True(t, ok)
	require.True(t, NeedsChar(res.Action))

	g := Context{Focus: FocusQuery, LeaderPending: true, LeaderMenu: "g"}
	res, ok = r.ResolveAction("g", g)
	require.True(t, ok)
	require.Equal(t, "first_line", res.Action)

	yank := Context{Focus: FocusQuery, LeaderPending: true, LeaderMenu: "yank"}
	res, ok = r.ResolveAction("y", yank)
	require.True(t, ok)
	require.Equal(t, "line", res.Action)
}

func TestTextObjectKeys(t *testing.T) {
	for _, key := range []string{"(", ")", "{", "[", `"`, "'", "w", "W", "b"} {
		require.True(t, IsTextObjectKey(key), key)
	}
	require.False(t, IsTextObjectKey("z"))
	require.False(t, IsTextObjectKey("escape"))
}
