package input

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbterm/dbterm/vim"
)

func TestMachineVerdictPrecedence(t *testing.T) {
	m := DefaultMachine(DefaultKeymap())

	// Unknown actions are forbidden by default.
	require.False(t, m.IsAllowed(Context{}, "no_such_action"))

	// The modal overlay wins over every other state.
	modal := Context{Focus: FocusQuery, VimMode: vim.ModeNormal, ModalOpen: true}
	require.False(t, m.IsAllowed(modal, "enter_insert_mode"))
	require.False(t, m.IsAllowed(modal, "show_help"))
	require.True(t, m.IsAllowed(modal, "quit"))

	// The executing overlay forbids execution even though the query state
	// below would allow it.
	executing := Context{Focus: FocusQuery, VimMode: vim.ModeNormal, QueryExecuting: true}
	require.False(t, m.IsAllowed(executing, "execute_query"))
	require.True(t, m.IsAllowed(executing, "cancel_operation"))

	idle := Context{Focus: FocusQuery, VimMode: vim.ModeNormal}
	require.True(t, m.IsAllowed(idle, "execute_query"))
	require.False(t, m.IsAllowed(idle, "cancel_operation"), "nothing to cancel")
}

func TestMachineDisplayBindings(t *testing.T) {
	m := DefaultMachine(DefaultKeymap())

	left, right := m.DisplayBindings(Context{Focus: FocusTree})
	require.Empty(t, left)
	require.Len(t, right, 1)
	require.Equal(t, "leader_key", right[0].Action)

	left, _ = m.DisplayBindings(Context{Focus: FocusQuery, VimMode: vim.ModeNormal, QueryExecuting: true})
	require.Len(t, left, 1)
	require.Equal(t, "cancel_operation", left[0].Action)
}
