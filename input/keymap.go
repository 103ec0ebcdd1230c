package input

// LeaderCommand is one entry of a leader menu: after the leader (or another
// menu prefix) is pressed, Key maps to Action.
type LeaderCommand struct {
	Key      string
	Action   string
	Label    string
	Category string
	Guard    string
	Menu     string // "leader", "delete", "yank", "change", "g"
}

// ActionKey binds a key to an action within an optional context.
type ActionKey struct {
	Key     string
	Action  string
	Context string // empty means any context
	Guard   string
	Primary bool
}

// Keymap holds every binding. It is an explicit service value so tests can
// swap it out.
type Keymap struct {
	leaders []LeaderCommand
	actions []ActionKey
}

// NewKeymap builds a keymap from explicit tables.
func NewKeymap(leaders []LeaderCommand, actions []ActionKey) *Keymap {
	return &Keymap{leaders: leaders, actions: actions}
}

// LeaderCommands returns the commands of one menu.
func (k *Keymap) LeaderCommands(menu string) []LeaderCommand {
	var out []LeaderCommand
	for _, c := range k.leaders {
		if c.Menu == menu {
			out = append(out, c)
		}
	}
	return out
}

// ResolveLeader maps a key within a menu to its command.
func (k *Keymap) ResolveLeader(menu, key string) (LeaderCommand, bool) {
	for _, c := range k.leaders {
		if c.Menu == menu && c.Key == key {
			return c, true
		}
	}
	return LeaderCommand{}, false
}

// Leader returns the key bound to an action in a menu.
func (k *Keymap) Leader(action, menu string) string {
	for _, c := range k.leaders {
		if c.Action == action && c.Menu == menu {
			return c.Key
		}
	}
	return ""
}

// Action returns the primary key for an action, falling back to any alias.
func (k *Keymap) Action(name string) string {
	fallback := ""
	for _, a := range k.actions {
		if a.Action != name {
			continue
		}
		if a.Primary {
			return a.Key
		}
		if fallback == "" {
			fallback = a.Key
		}
	}
	return fallback
}

// KeysForAction returns every key bound to an action, primary keys first.
func (k *Keymap) KeysForAction(name string) []string {
	var primary, secondary []string
	seen := map[string]bool{}
	for _, a := range k.actions {
		if a.Action != name || seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		if a.Primary {
			primary = append(primary, a.Key)
		} else {
			secondary = append(secondary, a.Key)
		}
	}
	return append(primary, secondary...)
}

// Bindings returns every action key, for the router to walk in order.
func (k *Keymap) Bindings() []ActionKey { return k.actions }

var keyDisplayOverrides = map[string]string{
	"question_mark": "?",
	"slash":         "/",
	"space":         "<space>",
	"escape":        "esc",
	"enter":         "enter",
	"tab":           "tab",
}

// FormatKey renders a key name for footer hints.
func FormatKey(key string) string {
	if v, ok := keyDisplayOverrides[key]; ok {
		return v
	}
	if len(key) > 5 && key[:5] == "ctrl+" {
		return "^" + key[5:]
	}
	return key
}

// DefaultKeymap returns the built-in bindings.
func DefaultKeymap() *Keymap {
	motionMenu := func(menu string) []LeaderCommand {
		verb := map[string]string{"delete": "Delete", "yank": "Yank", "change": "Change"}[menu]
		cmds := []LeaderCommand{
			{Key: "w", Action: "word", Label: verb + " word", Category: verb, Menu: menu},
			{Key: "W", Action: "WORD", Label: verb + " WORD", Category: verb, Menu: menu},
			{Key: "b", Action: "word_back", Label: verb + " word back", Category: verb, Menu: menu},
			{Key: "B", Action: "WORD_back", Label: verb + " WORD back", Category: verb, Menu: menu},
			{Key: "e", Action: "word_end", Label: verb + " to word end", Category: verb, Menu: menu},
			{Key: "E", Action: "WORD_end", Label: verb + " to WORD end", Category: verb, Menu: menu},
			{Key: "0", Action: "line_start", Label: verb + " to line start", Category: verb, Menu: menu},
			{Key: "$", Action: "line_end_motion", Label: verb + " to line end", Category: verb, Menu: menu},
			{Key: "G", Action: "to_end", Label: verb + " to end", Category: verb, Menu: menu},
			{Key: "f", Action: "find_char", Label: verb + " to char...", Category: verb, Menu: menu},
			{Key: "F", Action: "find_char_back", Label: verb + " back to char...", Category: verb, Menu: menu},
			{Key: "t", Action: "till_char", Label: verb + " till char...", Category: verb, Menu: menu},
			{Key: "T", Action: "till_char_back", Label: verb + " back till char...", Category: verb, Menu: menu},
			{Key: "%", Action: "matching_bracket", Label: verb + " to bracket", Category: verb, Menu: menu},
			{Key: "i", Action: "inner", Label: verb + " inside...", Category: verb, Menu: menu},
			{Key: "a", Action: "around", Label: verb + " around...", Category: verb, Menu: menu},
		}
		// Doubled verb key works on the whole line: dd, yy, cc.
		cmds = append(cmds, LeaderCommand{Key: menu[:1], Action: "line", Label: verb + " line", Category: verb, Menu: menu})
		return cmds
	}

	leaders := []LeaderCommand{
		// View
		{Key: "e", Action: "toggle_explorer", Label: "Toggle Explorer", Category: "View", Menu: "leader"},
		{Key: "f", Action: "toggle_fullscreen", Label: "Toggle Maximize", Category: "View", Menu: "leader"},
		// Connection
		{Key: "c", Action: "show_connection_picker", Label: "Connect", Category: "Connection", Menu: "leader"},
		{Key: "x", Action: "disconnect", Label: "Disconnect", Category: "Connection", Guard: "has_connection", Menu: "leader"},
		// Actions
		{Key: "z", Action: "cancel_operation", Label: "Cancel", Category: "Actions", Guard: "query_executing", Menu: "leader"},
		{Key: "t", Action: "change_theme", Label: "Change Theme", Category: "Actions", Menu: "leader"},
		{Key: "h", Action: "show_help", Label: "Help", Category: "Actions", Menu: "leader"},
		{Key: "q", Action: "quit", Label: "Quit", Category: "Actions", Menu: "leader"},
		// g menu (vim goto motions)
		{Key: "g", Action: "first_line", Label: "Go to first line", Category: "Goto", Menu: "g"},
		{Key: "e", Action: "word_end_back", Label: "Word end back", Category: "Goto", Menu: "g"},
		{Key: "E", Action: "WORD_end_back", Label: "WORD end back", Category: "Goto", Menu: "g"},
	}
	leaders = append(leaders, motionMenu("delete")...)
	leaders = append(leaders, motionMenu("yank")...)
	leaders = append(leaders, motionMenu("change")...)
	// Extra delete-only entries.
	leaders = append(leaders,
		LeaderCommand{Key: "D", Action: "line_end", Label: "Delete to line end", Category: "Delete", Menu: "delete"},
		LeaderCommand{Key: "x", Action: "char", Label: "Delete char", Category: "Delete", Menu: "delete"},
		LeaderCommand{Key: "X", Action: "char_back", Label: "Delete char back", Category: "Delete", Menu: "delete"},
	)

	actions := []ActionKey{
		// Tree
		{Key: "n", Action: "new_connection", Context: "tree", Primary: true},
		{Key: "s", Action: "select_table", Context: "tree", Primary: true},
		{Key: "f", Action: "refresh_tree", Context: "tree", Primary: true},
		{Key: "R", Action: "refresh_tree", Context: "tree"},
		{Key: "e", Action: "edit_connection", Context: "tree", Primary: true},
		{Key: "d", Action: "delete_connection", Context: "tree", Primary: true},
		{Key: "D", Action: "duplicate_connection", Context: "tree", Primary: true},
		{Key: "x", Action: "disconnect", Context: "tree", Primary: true, Guard: "has_connection"},
		{Key: "z", Action: "collapse_tree", Context: "tree", Primary: true},
		{Key: "j", Action: "tree_cursor_down", Context: "tree", Primary: true},
		{Key: "k", Action: "tree_cursor_up", Context: "tree", Primary: true},
		{Key: "slash", Action: "tree_filter", Context: "tree", Primary: true},
		{Key: "escape", Action: "tree_filter_close", Context: "tree_filter", Primary: true},
		{Key: "enter", Action: "tree_filter_accept", Context: "tree_filter", Primary: true},
		{Key: "n", Action: "tree_filter_next", Context: "tree_filter", Primary: true},
		{Key: "N", Action: "tree_filter_prev", Context: "tree_filter", Primary: true},
		// Global
		{Key: "space", Action: "leader_key", Context: "global", Primary: true},
		{Key: "ctrl+q", Action: "quit", Context: "global", Primary: true},
		{Key: "question_mark", Action: "show_help", Context: "global", Primary: true},
		{Key: "ctrl+z", Action: "cancel_operation", Context: "global", Primary: true, Guard: "query_executing"},
		// Navigation
		{Key: "e", Action: "focus_explorer", Context: "navigation", Primary: true},
		{Key: "q", Action: "focus_query", Context: "navigation", Primary: true},
		{Key: "r", Action: "focus_results", Context: "navigation", Primary: true},
		// Query editor, normal mode
		{Key: "i", Action: "enter_insert_mode", Context: "query_normal", Primary: true},
		{Key: "escape", Action: "exit_insert_mode", Context: "query", Primary: true},
		{Key: "enter", Action: "execute_query", Context: "query_normal", Primary: true},
		{Key: "f5", Action: "execute_query_insert", Context: "query_insert", Primary: true},
		{Key: "ctrl+enter", Action: "execute_query_insert", Context: "query_insert"},
		{Key: "d", Action: "delete_leader_key", Context: "query_normal", Primary: true},
		{Key: "y", Action: "yank_leader_key", Context: "query_normal", Primary: true},
		{Key: "c", Action: "change_leader_key", Context: "query_normal", Primary: true},
		{Key: "g", Action: "g_leader_key", Context: "query_normal", Primary: true},
		{Key: "n", Action: "new_query", Context: "query_normal", Primary: true},
		{Key: "h", Action: "show_history", Context: "query_normal", Primary: true},
		// Query clipboard, both modes
		{Key: "ctrl+a", Action: "select_all", Context: "query", Primary: true},
		{Key: "ctrl+c", Action: "copy_selection", Context: "query", Primary: true},
		{Key: "ctrl+v", Action: "paste", Context: "query", Primary: true},
		// Undo/redo
		{Key: "ctrl+z", Action: "undo", Context: "query_insert", Primary: true},
		{Key: "ctrl+y", Action: "redo", Context: "query", Primary: true},
		{Key: "u", Action: "undo", Context: "query_normal", Primary: true},
		{Key: "ctrl+r", Action: "redo", Context: "query_normal"},
		// Results
		{Key: "v", Action: "view_cell", Context: "results", Primary: true},
		{Key: "V", Action: "view_cell_full", Context: "results", Primary: true},
		{Key: "y", Action: "copy_context", Context: "results", Primary: true},
		{Key: "Y", Action: "copy_row", Context: "results", Primary: true},
		{Key: "a", Action: "copy_results", Context: "results", Primary: true},
		{Key: "h", Action: "results_cursor_left", Context: "results", Primary: true},
		{Key: "j", Action: "results_cursor_down", Context: "results", Primary: true},
		{Key: "k", Action: "results_cursor_up", Context: "results", Primary: true},
		{Key: "l", Action: "results_cursor_right", Context: "results", Primary: true},
		{Key: "x", Action: "clear_results", Context: "results", Primary: true},
		{Key: "slash", Action: "results_filter", Context: "results", Primary: true},
		{Key: "escape", Action: "results_filter_close", Context: "results_filter", Primary: true},
		{Key: "enter", Action: "results_filter_accept", Context: "results_filter", Primary: true},
		{Key: "n", Action: "results_filter_next", Context: "results_filter", Primary: true},
		{Key: "N", Action: "results_filter_prev", Context: "results_filter", Primary: true},
		// Autocomplete
		{Key: "ctrl+j", Action: "autocomplete_next", Context: "autocomplete", Primary: true},
		{Key: "ctrl+k", Action: "autocomplete_prev", Context: "autocomplete", Primary: true},
	}

	return NewKeymap(leaders, actions)
}
