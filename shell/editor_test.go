package shell

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/dbterm/dbterm/input"
	"github.com/dbterm/dbterm/vim"
)

func newTestEditor() queryInputModel {
	return newQueryInputModel(&Shell{}, input.NewRouter())
}

// press feeds one key through the modal handler, the way Update would.
func press(m *queryInputModel, key string) tea.Cmd {
	var msg tea.KeyMsg
	switch key {
	case "escape":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+r":
		msg = tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+v":
		msg = tea.KeyMsg{Type: tea.KeyCtrlV}
	case "space":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := m.handleModalKey(msg)
	return cmd
}

func TestEditorModeSwitch(t *testing.T) {
	m := newTestEditor()
	require.Equal(t, vim.ModeInsert, m.ed.mode)

	press(&m, "escape")
	require.Equal(t, vim.ModeNormal, m.ed.mode)

	press(&m, "i")
	require.Equal(t, vim.ModeInsert, m.ed.mode)
}

func TestEditorDeleteMenuMotion(t *testing.T) {
	m := newTestEditor()
	m.textArea.SetValue("SELECT id FROM t")
	press(&m, "escape")
	m.setCursor(vim.Position{})

	cmd := press(&m, "d")
	require.NotNil(t, cmd, "pending sequences arm an expiry tick")
	require.Equal(t, pendingLeader, m.ed.pending.kind)
	require.Equal(t, "delete", m.ed.pending.menu)

	press(&m, "w")
	require.Equal(t, pendingNone, m.ed.pending.kind)
	require.Equal(t, "id FROM t", m.textArea.Value())
	require.Equal(t, "SELECT ", m.ed.clip)
}

func TestEditorDeleteLine(t *testing.T) {
	m := newTestEditor()
	m.textArea.SetValue("SELECT 1")
	press(&m, "escape")

	press(&m, "d")
	press(&m, "d")
	require.Equal(t, "", m.textArea.Value())
	require.Equal(t, "SELECT 1", m.ed.clip)
}

func TestEditorCharMotionOperator(t *testing.T) {
	m := newTestEditor()
	m.textArea.SetValue("a,b,c")
	press(&m, "escape")
	m.setCursor(vim.Position{})

	press(&m, "d")
	press(&m, "f")
	require.Equal(t, pendingChar, m.ed.pending.kind)

	press(&m, ",")
	require.Equal(t, "b,c", m.textArea.Value())
}

func TestEditorTextObject(t *testing.T) {
	m := newTestEditor()
	m.textArea.SetValue(`SELECT "name" FROM t`)
	press(&m, "escape")
	m.setCursor(vim.Position{Col: 9})

	press(&m, "d")
	press(&m, "i")
	require.Equal(t, pendingTextObject, m.ed.pending.kind)

	press(&m, `"`)
	require.Equal(t, `SELECT "" FROM t`, m.textArea.Value())
	require.Equal(t, "name", m.ed.clip)
}

func TestEditorChangeEntersInsert(t *testing.T) {
	m := newTestEditor()
	m.textArea.SetValue("SELECT id")
	press(&m, "escape")
	m.setCursor(vim.Position{})

	press(&m, "c")
	press(&m, "w")
	require.Equal(t, "id", m.textArea.Value())
	require.Equal(t, vim.ModeInsert, m.ed.mode)
}

func TestEditorUndoRedo(t *testing.T) {
	m := newTestEditor()
	m.textArea.SetValue("SELECT 1")
	press(&m, "escape")

	press(&m, "d")
	press(&m, "d")
	require.Equal(t, "", m.textArea.Value())

	press(&m, "u")
	require.Equal(t, "SELECT 1", m.textArea.Value())

	press(&m, "ctrl+r")
	require.Equal(t, "", m.textArea.Value())
}

func TestEditorYankPaste(t *testing.T) {
	m := newTestEditor()
	m.textArea.SetValue("SELECT 1")
	press(&m, "escape")

	press(&m, "y")
	press(&m, "y")
	require.Equal(t, "SELECT 1", m.ed.clip)
	require.Equal(t, "SELECT 1", m.textArea.Value(), "yank leaves the text alone")

	m.setText("", vim.Position{})
	press(&m, "ctrl+v")
	require.Equal(t, "SELECT 1", m.textArea.Value())
}

func TestEditorPendingTimeout(t *testing.T) {
	router := input.NewRouter()
	router.LeaderTimeout = 5 * time.Millisecond
	m := newQueryInputModel(&Shell{}, router)
	m.textArea.SetValue("DELETE FROM t")
	press(&m, "escape")
	m.setCursor(vim.Position{})

	cmd := press(&m, "d")
	require.NotNil(t, cmd)
	require.Equal(t, pendingLeader, m.ed.pending.kind)

	msg := cmd() // the tick blocks for the configured timeout
	expired, ok := msg.(pendingExpiredMsg)
	require.True(t, ok)

	m, _ = m.Update(expired)
	require.Equal(t, pendingNone, m.ed.pending.kind)

	// The follow-up key now moves instead of deleting.
	press(&m, "w")
	require.Equal(t, "DELETE FROM t", m.textArea.Value())
}

func TestEditorStaleExpiryIgnored(t *testing.T) {
	router := input.NewRouter()
	router.LeaderTimeout = 5 * time.Millisecond
	m := newQueryInputModel(&Shell{}, router)
	m.textArea.SetValue("SELECT 1")
	press(&m, "escape")

	deleteTick := press(&m, "d")
	press(&m, "escape") // dismisses the delete menu
	require.Equal(t, pendingNone, m.ed.pending.kind)

	press(&m, "y")
	require.Equal(t, "yank", m.ed.pending.menu)

	m, _ = m.Update(deleteTick())
	require.Equal(t, pendingLeader, m.ed.pending.kind,
		"an expired earlier sequence cannot dismiss a newer one")
	require.Equal(t, "yank", m.ed.pending.menu)
}

func TestEditorLeaderQuit(t *testing.T) {
	m := newTestEditor()
	press(&m, "escape")

	press(&m, "space")
	require.Equal(t, pendingLeader, m.ed.pending.kind)
	require.Equal(t, "leader", m.ed.pending.menu)

	cmd := press(&m, "q")
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())
}
