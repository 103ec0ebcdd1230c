package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/cockroachdb/errors"
)

type command struct {
	Name        string
	Options     string
	DisplayName string
	Description string
	Aliases     []string
}

func (c *command) Usage() string {
	return fmt.Sprintf("%s %s", c.DisplayName, c.Options)
}

var commands = []command{
	{
		Name:        "quit",
		DisplayName: ":q, :quit or :exit",
		Description: "Exit this program.",
		Aliases:     []string{"q", "exit"},
	},
	{
		Name:        "help",
		DisplayName: ":help or :h",
		Description: "List all commands.",
		Aliases:     []string{"h"},
	},
	{
		Name:        "connect",
		Options:     "NAME|URL",
		DisplayName: ":connect or :c",
		Description: "Connect to a saved connection or a connection URL.",
		Aliases:     []string{"c"},
	},
	{
		Name:        "disconnect",
		DisplayName: ":disconnect or :dc",
		Description: "Close the active connection.",
		Aliases:     []string{"dc"},
	},
	{
		Name:        "theme",
		Options:     "NAME",
		DisplayName: ":theme",
		Description: "Switch the color theme.",
	},
	{
		Name:        "run",
		DisplayName: ":run or :r",
		Description: "Execute the editor buffer.",
		Aliases:     []string{"r"},
	},
	{
		Name:        "run!",
		DisplayName: ":run! or :r!",
		Description: "Execute the editor buffer without leaving insert mode.",
		Aliases:     []string{"r!"},
	},
	{
		Name:        "set",
		Options:     "SETTING VALUE",
		DisplayName: ":set",
		Description: "Change a setting: process_worker {on|off}, process_worker_warm {on|off}, process_worker_auto_shutdown {SECONDS|off}.",
	},
}

func getUsage(cmdName string) string {
	for _, c := range commands {
		if c.Name == cmdName {
			return c.Usage()
		}
	}

	return ""
}

// Handler receives the side effects of command mode. The TUI model
// implements it.
type Handler interface {
	Quit()
	Help(out io.Writer) error
	Connect(target string) error
	Disconnect() error
	SetTheme(name string) error
	RunBuffer(stayInsert bool) error
	SetProcessWorker(on bool) error
	SetProcessWorkerWarm(on bool) error
	SetProcessWorkerAutoShutdown(window time.Duration) error
}

// RunCommand executes one command-mode line, without its leading ":".
func RunCommand(in string, h Handler, out io.Writer) error {
	fields := strings.Fields(strings.TrimSpace(in))
	if len(fields) == 0 {
		return nil
	}

	switch canonicalName(fields[0]) {
	case "quit":
		h.Quit()
		return nil
	case "help":
		return h.Help(out)
	case "connect":
		if len(fields) != 2 {
			return errors.New(getUsage("connect"))
		}
		return h.Connect(fields[1])
	case "disconnect":
		return h.Disconnect()
	case "theme":
		if len(fields) != 2 {
			return errors.New(getUsage("theme"))
		}
		return h.SetTheme(fields[1])
	case "run":
		return h.RunBuffer(false)
	case "run!":
		return h.RunBuffer(true)
	case "set":
		return runSetCmd(fields[1:], h)
	default:
		return suggestionError(fields[0])
	}
}

func canonicalName(name string) string {
	for _, c := range commands {
		if c.Name == name {
			return c.Name
		}
		for _, alias := range c.Aliases {
			if alias == name {
				return c.Name
			}
		}
	}
	return name
}

func runSetCmd(args []string, h Handler) error {
	if len(args) != 2 {
		return errors.New(getUsage("set"))
	}

	onOff := func(v string) (bool, error) {
		switch v {
		case "on":
			return true, nil
		case "off":
			return false, nil
		}
		return false, errors.Newf("expected on or off, got %q", v)
	}

	switch args[0] {
	case "process_worker":
		on, err := onOff(args[1])
		if err != nil {
			return err
		}
		return h.SetProcessWorker(on)
	case "process_worker_warm":
		on, err := onOff(args[1])
		if err != nil {
			return err
		}
		return h.SetProcessWorkerWarm(on)
	case "process_worker_auto_shutdown":
		if args[1] == "off" {
			return h.SetProcessWorkerAutoShutdown(0)
		}
		secs, err := strconv.Atoi(args[1])
		if err != nil || secs <= 0 {
			return errors.Newf("expected a positive number of seconds or off, got %q", args[1])
		}
		return h.SetProcessWorkerAutoShutdown(time.Duration(secs) * time.Second)
	default:
		return errors.Newf("unknown setting %q", args[0])
	}
}

// runHelpCmd shows all available commands.
func runHelpCmd(out io.Writer) error {
	for _, c := range commands {
		// indentation for readability.
		spaces := 30
		indent := spaces - len(c.DisplayName) - len(c.Options)
		fmt.Fprintf(out, "%s %s %*s %s\n", c.DisplayName, c.Options, indent, "", c.Description)
	}

	return nil
}

func shouldDisplaySuggestion(name, in string) bool {
	// input should be at least half the command size to get a suggestion.
	d := levenshtein.ComputeDistance(name, in)
	return d < (len(name) / 2)
}

// suggestionError builds the unknown-command error, listing close matches.
func suggestionError(in string) error {
	var suggestions []string
	for _, c := range commands {
		if shouldDisplaySuggestion(c.Name, in) {
			suggestions = append(suggestions, c.Name)
		}

		for _, alias := range c.Aliases {
			if shouldDisplaySuggestion(alias, in) {
				suggestions = append(suggestions, alias)
			}
		}
	}

	if len(suggestions) == 0 {
		return errors.Newf("Unknown command %q. Enter \":help\" for help.", in)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%q is not a command. Did you mean: ", in)
	for i := range suggestions {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", suggestions[i])
	}
	sb.WriteString("?")
	return errors.New(sb.String())
}
