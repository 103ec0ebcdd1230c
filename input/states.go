package input

import "github.com/dbterm/dbterm/vim"

// Verdict is the outcome of asking one state about an action.
type Verdict int

const (
	Pass Verdict = iota // state has no opinion, inherit
	Allowed
	Forbidden
)

// DisplayBinding is footer metadata for an allowed action.
type DisplayBinding struct {
	Key    string
	Label  string
	Action string
	Right  bool
}

// State declares which actions are available while it is active. States are
// arena nodes; Parent is an index into the machine (or -1) used to merge
// display bindings without ownership cycles.
type State struct {
	Name     string
	Parent   int
	Category string

	allowed   map[string]allowedAction
	forbidden map[string]bool

	// Check overrides the table lookup when set.
	Check func(Context, string) Verdict

	// Active reports whether the state participates in resolution.
	Active func(Context) bool

	display []DisplayBinding
}

type allowedAction struct {
	guard string
}

// NewState builds an empty state with no parent.
func NewState(name string) *State {
	return &State{
		Name:      name,
		Parent:    -1,
		allowed:   map[string]allowedAction{},
		forbidden: map[string]bool{},
	}
}

// Allow declares an action as available in this state.
func (s *State) Allow(action string) *State {
	s.allowed[action] = allowedAction{}
	return s
}

// AllowGuarded declares an action available when the named guard passes.
func (s *State) AllowGuarded(action, guard string) *State {
	s.allowed[action] = allowedAction{guard: guard}
	return s
}

// Forbid declares an action explicitly unavailable in this state.
func (s *State) Forbid(action string) *State {
	s.forbidden[action] = true
	return s
}

// Display attaches footer metadata for this state.
func (s *State) Display(b ...DisplayBinding) *State {
	s.display = append(s.display, b...)
	return s
}

// CheckAction returns this state's verdict for an action.
func (s *State) CheckAction(ctx Context, action string) Verdict {
	if s.Check != nil {
		return s.Check(ctx, action)
	}
	if s.forbidden[action] {
		return Forbidden
	}
	if a, ok := s.allowed[action]; ok {
		if guardAllows(a.guard, ctx) {
			return Allowed
		}
		return Forbidden
	}
	return Pass
}

// Machine is the arena of states. Several states are active at once; the
// first non-Pass verdict in declaration order wins.
type Machine struct {
	states []*State
	keymap *Keymap
}

// NewMachine builds a machine over a keymap.
func NewMachine(keymap *Keymap) *Machine {
	return &Machine{keymap: keymap}
}

// Add appends a state and returns its arena index.
func (m *Machine) Add(s *State) int {
	m.states = append(m.states, s)
	return len(m.states) - 1
}

// CheckAction resolves an action against all active states.
func (m *Machine) CheckAction(ctx Context, action string) Verdict {
	for _, s := range m.states {
		if s.Active != nil && !s.Active(ctx) {
			continue
		}
		if v := s.CheckAction(ctx, action); v != Pass {
			return v
		}
	}
	return Forbidden
}

// IsAllowed is CheckAction collapsed to a boolean.
func (m *Machine) IsAllowed(ctx Context, action string) bool {
	return m.CheckAction(ctx, action) == Allowed
}

// DisplayBindings merges footer metadata of the active states, walking
// parent links so child states inherit their parent's right-side entries.
func (m *Machine) DisplayBindings(ctx Context) (left, right []DisplayBinding) {
	seen := map[string]bool{}
	for i, s := range m.states {
		if s.Active != nil && !s.Active(ctx) {
			continue
		}
		for j := i; j >= 0; {
			st := m.states[j]
			for _, b := range st.display {
				if seen[b.Action] {
					continue
				}
				if !m.IsAllowed(ctx, b.Action) {
					continue
				}
				seen[b.Action] = true
				if b.Right {
					right = append(right, b)
				} else {
					left = append(left, b)
				}
			}
			j = st.Parent
		}
	}
	return left, right
}

// DefaultMachine wires the standard states for the application. Overlay
// states (modal, pending leader menu, executing query) are declared before
// the always-active root so their verdicts take precedence.
func DefaultMachine(keymap *Keymap) *Machine {
	m := NewMachine(keymap)

	modal := NewState("modal_active")
	modal.Check = func(ctx Context, action string) Verdict {
		if action == "quit" {
			return Allowed
		}
		return Forbidden
	}
	modal.Active = func(ctx Context) bool { return ctx.ModalOpen }
	m.Add(modal)

	leaderPending := NewState("leader_pending")
	leaderPending.Check = func(ctx Context, action string) Verdict {
		cmd, ok := keymapCommandForAction(keymap, ctx.LeaderMenu, action)
		if !ok {
			return Forbidden
		}
		if guardAllows(cmd.Guard, ctx) {
			return Allowed
		}
		return Forbidden
	}
	leaderPending.Active = func(ctx Context) bool { return ctx.LeaderPending }
	m.Add(leaderPending)

	executing := NewState("query_executing")
	executing.AllowGuarded("cancel_operation", "query_executing").Allow("quit")
	executing.Forbid("execute_query").Forbid("execute_query_insert")
	executing.Active = func(ctx Context) bool { return !ctx.ModalOpen && ctx.QueryExecuting }
	executing.Display(DisplayBinding{Key: "^z", Label: "Cancel", Action: "cancel_operation"})
	m.Add(executing)

	root := NewState("root")
	root.Allow("quit").Allow("show_help").Allow("leader_key")
	root.Active = func(Context) bool { return true }
	rootIdx := m.Add(root)

	mainScreen := NewState("main_screen")
	mainScreen.Parent = rootIdx
	mainScreen.Allow("focus_explorer").Allow("focus_query").Allow("focus_results")
	mainScreen.Allow("toggle_explorer").Allow("toggle_fullscreen")
	mainScreen.Allow("show_connection_picker").Allow("change_theme")
	mainScreen.AllowGuarded("disconnect", "has_connection")
	mainScreen.Active = func(ctx Context) bool { return !ctx.ModalOpen && !ctx.QueryExecuting }
	mainScreen.Display(DisplayBinding{Key: "<space>", Label: "Commands", Action: "leader_key", Right: true})
	m.Add(mainScreen)

	tree := NewState("tree_focused")
	tree.Parent = rootIdx
	tree.Allow("new_connection").Allow("edit_connection").Allow("delete_connection")
	tree.Allow("duplicate_connection").Allow("refresh_tree").Allow("collapse_tree")
	tree.Allow("tree_cursor_down").Allow("tree_cursor_up").Allow("tree_filter")
	tree.AllowGuarded("disconnect", "has_connection")
	tree.AllowGuarded("select_table", "tree_on_table")
	tree.Active = func(ctx Context) bool {
		return !ctx.ModalOpen && ctx.Focus == FocusTree && !ctx.TreeFilterVisible
	}
	m.Add(tree)

	treeFilter := NewState("tree_filter_active")
	treeFilter.Allow("tree_filter_close").Allow("tree_filter_accept")
	treeFilter.Allow("tree_filter_next").Allow("tree_filter_prev")
	treeFilter.Active = func(ctx Context) bool { return ctx.TreeFilterVisible }
	m.Add(treeFilter)

	queryNormal := NewState("query_normal")
	queryNormal.Parent = rootIdx
	queryNormal.Allow("enter_insert_mode").Allow("execute_query")
	queryNormal.Allow("delete_leader_key").Allow("yank_leader_key")
	queryNormal.Allow("change_leader_key").Allow("g_leader_key")
	queryNormal.Allow("new_query").Allow("show_history").Allow("copy_context")
	queryNormal.Allow("select_all").Allow("copy_selection").Allow("paste")
	queryNormal.Allow("undo").Allow("redo")
	queryNormal.Active = func(ctx Context) bool {
		return !ctx.ModalOpen && ctx.Focus == FocusQuery && ctx.VimMode == vim.ModeNormal
	}
	m.Add(queryNormal)

	queryInsert := NewState("query_insert")
	queryInsert.Parent = rootIdx
	queryInsert.Allow("exit_insert_mode").Allow("execute_query_insert")
	queryInsert.Allow("select_all").Allow("copy_selection").Allow("paste")
	queryInsert.Allow("undo").Allow("redo")
	queryInsert.Allow("autocomplete_next").Allow("autocomplete_prev")
	queryInsert.Active = func(ctx Context) bool {
		return !ctx.ModalOpen && ctx.Focus == FocusQuery && ctx.VimMode == vim.ModeInsert
	}
	m.Add(queryInsert)

	results := NewState("results_focused")
	results.Parent = rootIdx
	results.Allow("view_cell").Allow("view_cell_full").Allow("copy_context")
	results.Allow("copy_row").Allow("copy_results").Allow("clear_results")
	results.Allow("results_cursor_left").Allow("results_cursor_down")
	results.Allow("results_cursor_up").Allow("results_cursor_right")
	results.Allow("results_filter")
	results.Active = func(ctx Context) bool {
		return !ctx.ModalOpen && ctx.Focus == FocusResults && !ctx.ResultsFilterVisible
	}
	m.Add(results)

	resultsFilter := NewState("results_filter_active")
	resultsFilter.Allow("results_filter_close").Allow("results_filter_accept")
	resultsFilter.Allow("results_filter_next").Allow("results_filter_prev")
	resultsFilter.Active = func(ctx Context) bool { return ctx.ResultsFilterVisible }
	m.Add(resultsFilter)

	return m
}

func keymapCommandForAction(k *Keymap, menu, action string) (LeaderCommand, bool) {
	if menu == "" {
		menu = "leader"
	}
	for _, c := range k.LeaderCommands(menu) {
		if c.Action == action {
			return c, true
		}
	}
	return LeaderCommand{}, false
}
