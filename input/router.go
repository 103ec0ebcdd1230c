package input

import "time"

// DefaultLeaderTimeout is how long a pending leader menu waits for its
// follow-up key before being dismissed.
const DefaultLeaderTimeout = time.Second

// Resolution is the outcome of routing one key press.
type Resolution struct {
	Action string
	Guard  string
	Leader LeaderCommand // set when resolved through a leader menu
}

// Router resolves raw key names into actions using the keymap for bindings
// and the machine for availability.
type Router struct {
	Keymap  *Keymap
	Machine *Machine

	// LeaderTimeout bounds how long a leader menu stays pending.
	LeaderTimeout time.Duration
}

// NewRouter builds a router over the default keymap and machine.
func NewRouter() *Router {
	k := DefaultKeymap()
	return &Router{Keymap: k, Machine: DefaultMachine(k), LeaderTimeout: DefaultLeaderTimeout}
}

// ResolveAction maps a key press to an action for the given context. When a
// leader menu is pending the key is looked up in that menu; otherwise the
// binding table is walked in order and the first binding whose context is
// active, whose guard passes and whose action the machine allows wins.
// Forbidden bindings fall through so a later binding for the same key in
// another context can still match.
func (r *Router) ResolveAction(key string, ctx Context) (Resolution, bool) {
	if ctx.LeaderPending {
		menu := ctx.LeaderMenu
		if menu == "" {
			menu = "leader"
		}
		cmd, ok := r.Keymap.ResolveLeader(menu, key)
		if !ok {
			return Resolution{}, false
		}
		if !guardAllows(cmd.Guard, ctx) {
			return Resolution{}, false
		}
		// Top-level leader actions are still subject to the machine; motion
		// menu entries are consumed by the editor directly.
		if menu == "leader" && r.Machine.CheckAction(ctx, cmd.Action) == Forbidden {
			return Resolution{}, false
		}
		return Resolution{Action: cmd.Action, Guard: cmd.Guard, Leader: cmd}, true
	}

	active := ctx.ActiveContexts()
	for _, b := range r.Keymap.Bindings() {
		if b.Key != key {
			continue
		}
		if b.Context != "" && !active[b.Context] {
			continue
		}
		if !guardAllows(b.Guard, ctx) {
			continue
		}
		if r.Machine.CheckAction(ctx, b.Action) != Allowed {
			continue
		}
		return Resolution{Action: b.Action, Guard: b.Guard}, true
	}
	return Resolution{}, false
}

// NeedsChar reports whether a resolved motion action still needs a literal
// character argument (the f/F/t/T family).
func NeedsChar(action string) bool {
	switch action {
	case "find_char", "find_char_back", "till_char", "till_char_back":
		return true
	}
	return false
}

// NeedsTextObject reports whether a resolved action expects a text object
// key next (di(, ya" and friends).
func NeedsTextObject(action string) bool {
	return action == "inner" || action == "around"
}

// IsTextObjectKey reports whether a key can complete a pending text object.
func IsTextObjectKey(key string) bool {
	if len(key) != 1 {
		return false
	}
	for _, c := range TextObjectKeys {
		if key == c {
			return true
		}
	}
	return false
}

// TextObjectKeys are the keys accepted after di/da, yi/ya, ci/ca.
var TextObjectKeys = []string{
	"(", ")", "b", "{", "}", "B", "[", "]", "<", ">", `"`, "'", "`", "w", "W",
}
