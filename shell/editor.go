package shell

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dbterm/dbterm/input"
	"github.com/dbterm/dbterm/vim"
)

// pendingKind identifies which multi-key sequence is waiting for its next
// key.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingLeader
	pendingChar
	pendingTextObject
)

// pendingState is one in-flight multi-key sequence. seq invalidates expiry
// ticks armed for earlier sequences.
type pendingState struct {
	kind     pendingKind
	menu     string // leader menu: "leader", "delete", "yank", "change", "g"
	operator string // "d", "y" or "c"; empty for a bare motion
	motion   string // motion key still waiting for its char argument
	around   bool   // text object flavor: a... instead of i...
	seq      int
}

type pendingExpiredMsg struct{ seq int }

// editor is the modal state of the query pane: normal/insert mode, the
// pending sequence, the unnamed register and the undo history. The textarea
// only ever sees insert-mode input; every normal-mode key is resolved here.
type editor struct {
	router  *input.Router
	mode    vim.Mode
	pending pendingState
	history *vim.History
	clip    string
	seq     int
}

func newEditor(router *input.Router) editor {
	return editor{
		router:  router,
		mode:    vim.ModeInsert,
		history: vim.NewHistory(vim.Snapshot{}, vim.DefaultUndoDepth),
	}
}

// routerKey converts a bubbletea key name to the keymap's symbolic name.
func routerKey(msg tea.KeyMsg) string {
	switch msg.String() {
	case " ":
		return "space"
	case "esc":
		return "escape"
	case "?":
		return "question_mark"
	case "/":
		return "slash"
	}
	return msg.String()
}

// motionActionKeys maps the keymap's motion action names to the motion set.
var motionActionKeys = map[string]string{
	"word":             "w",
	"WORD":             "W",
	"word_back":        "b",
	"WORD_back":        "B",
	"word_end":         "e",
	"WORD_end":         "E",
	"line_start":       "0",
	"line_end_motion":  "$",
	"to_end":           "G",
	"find_char":        "f",
	"find_char_back":   "F",
	"till_char":        "t",
	"till_char_back":   "T",
	"matching_bracket": "%",
	"first_line":       "gg",
	"word_end_back":    "ge",
	"WORD_end_back":    "gE",
}

func operatorForMenu(menu string) string {
	switch menu {
	case "delete":
		return "d"
	case "yank":
		return "y"
	case "change":
		return "c"
	}
	return ""
}

// handleModalKey owns mode switching and the whole normal-mode path. It
// reports false only for insert-mode keys the textarea should consume.
func (m *queryInputModel) handleModalKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := routerKey(msg)

	if m.ed.mode == vim.ModeInsert {
		res, ok := m.ed.router.ResolveAction(key, m.inputContext())
		if ok {
			switch res.Action {
			case "exit_insert_mode":
				m.syncHistory()
				m.ed.mode = vim.ModeNormal
				return true, nil
			case "undo", "redo":
				return true, m.applyAction(res.Action)
			}
		}
		return false, nil
	}

	return true, m.handleNormalKey(key)
}

func (m *queryInputModel) handleNormalKey(key string) tea.Cmd {
	switch m.ed.pending.kind {
	case pendingChar:
		p := m.clearPending()
		runes := []rune(key)
		if len(runes) != 1 {
			return nil
		}
		motion, ok := vim.Motions[p.motion]
		if !ok {
			return nil
		}
		pos := m.cursorPos()
		res := motion(m.textArea.Value(), pos.Row, pos.Col, runes[0])
		if p.operator == "" {
			m.setCursor(res.Position)
		} else if res.Range != nil {
			m.applyOperator(p.operator, *res.Range)
		}
		return nil

	case pendingTextObject:
		p := m.clearPending()
		if !input.IsTextObjectKey(key) {
			return nil
		}
		pos := m.cursorPos()
		rng, ok := vim.TextObject([]rune(key)[0], m.textArea.Value(), pos.Row, pos.Col, p.around)
		if !ok {
			return nil
		}
		m.applyOperator(p.operator, rng)
		return nil
	}

	if m.ed.pending.kind == pendingLeader {
		op := operatorForMenu(m.ed.pending.menu)
		res, ok := m.ed.router.ResolveAction(key, m.inputContext())
		m.clearPending()
		if !ok {
			return nil
		}
		return m.applyMenuAction(op, res.Action)
	}

	// Bare motions are not in the binding table; they take precedence over
	// bindings so hjkl and friends keep their editing meaning.
	if vim.CharMotions[key] {
		return m.armPending(pendingState{kind: pendingChar, motion: key})
	}
	if motion, ok := vim.Motions[key]; ok {
		pos := m.cursorPos()
		m.setCursor(motion(m.textArea.Value(), pos.Row, pos.Col, 0).Position)
		return nil
	}

	if res, ok := m.ed.router.ResolveAction(key, m.inputContext()); ok {
		return m.applyAction(res.Action)
	}
	return nil
}

// applyMenuAction resolves a leader menu entry. op is empty for the top
// level and goto menus, whose entries behave like plain actions or motions.
func (m *queryInputModel) applyMenuAction(op, action string) tea.Cmd {
	pos := m.cursorPos()
	text := m.textArea.Value()

	if op == "" {
		if key, ok := motionActionKeys[action]; ok {
			m.setCursor(vim.Motions[key](text, pos.Row, pos.Col, 0).Position)
			return nil
		}
		return m.applyAction(action)
	}

	switch action {
	case "line":
		m.applyOperator(op, lineRangeAt(text, pos.Row))
	case "line_end":
		m.applyEdit(vim.DeleteToLineEnd(text, pos.Row, pos.Col))
	case "char":
		m.applyEdit(vim.DeleteChar(text, pos.Row, pos.Col))
	case "char_back":
		m.applyEdit(vim.DeleteCharBack(text, pos.Row, pos.Col))
	case "inner", "around":
		return m.armPending(pendingState{
			kind:     pendingTextObject,
			operator: op,
			around:   action == "around",
		})
	default:
		key, ok := motionActionKeys[action]
		if !ok {
			return nil
		}
		if input.NeedsChar(action) {
			return m.armPending(pendingState{kind: pendingChar, operator: op, motion: key})
		}
		if res := vim.Motions[key](text, pos.Row, pos.Col, 0); res.Range != nil {
			m.applyOperator(op, *res.Range)
		}
	}
	return nil
}

func (m *queryInputModel) applyAction(action string) tea.Cmd {
	switch action {
	case "enter_insert_mode":
		m.ed.mode = vim.ModeInsert
	case "exit_insert_mode":
		m.clearPending()
	case "leader_key":
		return m.armPending(pendingState{kind: pendingLeader, menu: "leader"})
	case "delete_leader_key":
		return m.armPending(pendingState{kind: pendingLeader, menu: "delete"})
	case "yank_leader_key":
		return m.armPending(pendingState{kind: pendingLeader, menu: "yank"})
	case "change_leader_key":
		return m.armPending(pendingState{kind: pendingLeader, menu: "change"})
	case "g_leader_key":
		return m.armPending(pendingState{kind: pendingLeader, menu: "g"})
	case "execute_query":
		value := strings.TrimSpace(m.textArea.Value())
		if value == "" {
			return nil
		}
		m.syncHistory()
		m.ed.mode = vim.ModeInsert
		freeze := m.freezeAndReset()
		m.disabled = true
		m.textArea.Blur()
		return tea.Sequence(tea.Println(freeze), runCmd(value, ""))
	case "undo":
		m.syncHistory()
		if snap, ok := m.ed.history.Undo(); ok {
			m.setText(snap.Text, snap.Cursor)
		}
	case "redo":
		if snap, ok := m.ed.history.Redo(); ok {
			m.setText(snap.Text, snap.Cursor)
		}
	case "paste":
		if m.ed.clip == "" {
			return nil
		}
		pos := m.cursorPos()
		m.syncHistory()
		res := vim.Paste(m.textArea.Value(), pos.Row, pos.Col, m.ed.clip)
		m.setText(res.Text, res.Cursor)
		m.pushHistory()
	case "select_all", "copy_selection":
		m.ed.clip = m.textArea.Value()
	case "new_query":
		m.syncHistory()
		m.setText("", vim.Position{})
		m.pushHistory()
		m.ed.mode = vim.ModeInsert
	case "quit":
		return tea.Quit
	}
	return nil
}

// armPending starts a multi-key sequence and schedules its expiry tick.
func (m *queryInputModel) armPending(p pendingState) tea.Cmd {
	m.ed.seq++
	p.seq = m.ed.seq
	m.ed.pending = p

	d := m.ed.router.LeaderTimeout
	if d <= 0 {
		d = input.DefaultLeaderTimeout
	}
	seq := p.seq
	return tea.Tick(d, func(time.Time) tea.Msg {
		return pendingExpiredMsg{seq: seq}
	})
}

func (m *queryInputModel) clearPending() pendingState {
	p := m.ed.pending
	m.ed.pending = pendingState{}
	return p
}

func (m *queryInputModel) expirePending(msg pendingExpiredMsg) {
	if m.ed.pending.kind != pendingNone && m.ed.pending.seq == msg.seq {
		m.ed.pending = pendingState{}
	}
}

func (m *queryInputModel) applyOperator(op string, rng vim.Range) {
	f, ok := vim.Operators[op]
	if !ok {
		return
	}
	m.applyEdit(f(m.textArea.Value(), rng))
}

func (m *queryInputModel) applyEdit(res vim.OperatorResult) {
	if res.Yanked != "" {
		m.ed.clip = res.Yanked
	}
	if res.Text != m.textArea.Value() {
		m.syncHistory()
		m.setText(res.Text, res.Cursor)
		m.pushHistory()
	} else {
		m.setCursor(res.Cursor)
	}
	if res.EnterInsert {
		m.ed.mode = vim.ModeInsert
	}
}

// syncHistory records any text the history has not seen yet, so a burst of
// insert-mode typing undoes as one step.
func (m *queryInputModel) syncHistory() {
	if m.textArea.Value() != m.ed.history.Current().Text {
		m.pushHistory()
	}
}

func (m *queryInputModel) pushHistory() {
	m.ed.history.Push(vim.Snapshot{Text: m.textArea.Value(), Cursor: m.cursorPos()})
}

func (m *queryInputModel) cursorPos() vim.Position {
	info := m.textArea.LineInfo()
	return vim.Position{
		Row: m.textArea.Line(),
		Col: info.StartColumn + info.ColumnOffset,
	}
}

func (m *queryInputModel) setCursor(pos vim.Position) {
	for m.textArea.Line() > pos.Row && m.textArea.Line() > 0 {
		m.textArea.CursorUp()
	}
	for m.textArea.Line() < pos.Row {
		before := m.textArea.Line()
		m.textArea.CursorDown()
		if m.textArea.Line() == before {
			break
		}
	}
	m.textArea.SetCursor(pos.Col)
}

func (m *queryInputModel) setText(text string, pos vim.Position) {
	m.textArea.SetValue(text)
	m.textArea.SetHeight(m.textArea.LineCount())
	m.setCursor(pos)
}

func (m *queryInputModel) inputContext() input.Context {
	ctx := input.Context{
		Focus:   input.FocusQuery,
		VimMode: m.ed.mode,
	}
	if m.shell != nil {
		ctx.HasConnection = m.shell.currentRunner() != nil
	}
	if m.ed.pending.kind == pendingLeader {
		ctx.LeaderPending = true
		ctx.LeaderMenu = m.ed.pending.menu
	}
	return ctx
}

func lineRangeAt(text string, row int) vim.Range {
	lines := strings.Split(text, "\n")
	if row > len(lines)-1 {
		row = len(lines) - 1
	}
	return vim.Range{
		Start: vim.Position{Row: row},
		End:   vim.Position{Row: row, Col: len([]rune(lines[row]))},
		Type:  vim.Linewise,
	}
}
