// Package input resolves key presses into named actions. A keymap describes
// bindings per context, a set of state objects decides which actions are
// currently allowed, and the router ties both together, including leader
// menus and the vim pending modes.
package input

import "github.com/dbterm/dbterm/vim"

// Focus identifies the pane that owns the keyboard.
type Focus int

const (
	FocusNone Focus = iota
	FocusTree
	FocusQuery
	FocusResults
)

// NodeKind classifies the selected explorer tree node.
type NodeKind int

const (
	NodeNone NodeKind = iota
	NodeConnection
	NodeDatabase
	NodeFolder
	NodeTable
	NodeObject
)

// Context is a value snapshot of the UI consulted during action resolution.
type Context struct {
	Focus   Focus
	VimMode vim.Mode

	LeaderPending bool
	LeaderMenu    string

	TreeFilterVisible    bool
	ResultsFilterVisible bool
	AutocompleteVisible  bool

	QueryExecuting  bool
	ModalOpen       bool
	HasConnection   bool
	LastResultError bool

	TreeNode NodeKind
}

// ActiveContexts returns the binding context names active for this snapshot.
// The global context is always present.
func (c Context) ActiveContexts() map[string]bool {
	active := map[string]bool{"global": true, "navigation": true}

	switch c.Focus {
	case FocusTree:
		active["tree"] = true
	case FocusQuery:
		active["query"] = true
		if c.VimMode == vim.ModeInsert {
			active["query_insert"] = true
		} else {
			active["query_normal"] = true
		}
	case FocusResults:
		active["results"] = true
	}

	if c.TreeFilterVisible {
		active["tree_filter"] = true
	}
	if c.ResultsFilterVisible {
		active["results_filter"] = true
	}
	if c.AutocompleteVisible {
		active["autocomplete"] = true
	}

	return active
}

// Guard is a predicate evaluated against the context before an action is
// allowed.
type Guard func(Context) bool

// Guards is the named guard registry shared by keymap and states.
var Guards = map[string]Guard{
	"has_connection":    func(c Context) bool { return c.HasConnection },
	"query_executing":   func(c Context) bool { return c.QueryExecuting },
	"last_result_error": func(c Context) bool { return c.LastResultError },
	"tree_on_connection": func(c Context) bool {
		return c.TreeNode == NodeConnection
	},
	"tree_on_table": func(c Context) bool { return c.TreeNode == NodeTable },
}

func guardAllows(name string, c Context) bool {
	if name == "" {
		return true
	}
	g, ok := Guards[name]
	if !ok {
		return false
	}
	return g(c)
}
