package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/railroadide/richpresence/pkg/config"
	"github.com/railroadide/richpresence/pkg/presence"
)

// Console plays the host: it opens projects and files, reports user
// interaction and edits settings.
type Console struct {
	out    io.Writer
	host   *workspace
	bus    *presence.InteractionBus
	status func() status

	// savePath is the default target of "save".
	savePath string
}

func newConsole(out io.Writer, host *workspace, bus *presence.InteractionBus, status func() status) *Console {
	return &Console{out: out, host: host, bus: bus, status: status}
}

func completer() *readline.PrefixCompleter {
	keys := make([]readline.PrefixCompleterInterface, 0, len(config.Keys()))
	for _, k := range config.Keys() {
		keys = append(keys, readline.PcItem(k))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("project"),
		readline.PcItem("open"),
		readline.PcItem("close"),
		readline.PcItem("clear"),
		readline.PcItem("interact"),
		readline.PcItem("restore"),
		readline.PcItem("status"),
		readline.PcItem("settings"),
		readline.PcItem("set", keys...),
		readline.PcItem("save"),
		readline.PcItem("quit"),
	)
}

// Run reads commands until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, rl *readline.Instance, cancel context.CancelFunc) {
	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if quit := c.exec(ctx, line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// exec runs one command line and reports whether the console should exit.
func (c *Console) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "project", "p":
		if len(args) == 0 {
			fmt.Fprintln(c.out, "Usage: project <name>")
			return false
		}
		c.host.project = strings.Join(args, " ")
		c.host.file = ""
		c.publish(ctx)

	case "open", "o":
		if len(args) == 0 {
			fmt.Fprintln(c.out, "Usage: open <file>")
			return false
		}
		c.host.file = strings.Join(args, " ")
		c.publish(ctx)

	case "close":
		c.host.file = ""
		c.publish(ctx)

	case "clear":
		c.host.project = ""
		c.host.file = ""
		if err := c.host.ctrl.Clear(ctx); err != nil {
			fmt.Fprintf(c.out, "Clear failed: %v\n", err)
			return false
		}
		fmt.Fprintln(c.out, "Activity cleared")

	case "interact", "i":
		c.bus.Notify()
		fmt.Fprintf(c.out, "Presence: %s\n", c.host.ctrl.State())

	case "restore":
		if err := c.host.ctrl.RestoreIfHidden(ctx); err != nil {
			fmt.Fprintf(c.out, "Restore failed: %v\n", err)
			return false
		}
		fmt.Fprintf(c.out, "Presence: %s\n", c.host.ctrl.State())

	case "status", "s":
		c.printStatus()

	case "settings":
		c.printSettings()

	case "set":
		if len(args) < 2 {
			fmt.Fprintf(c.out, "Usage: set <key> <value>\nKeys: %s\n", strings.Join(config.Keys(), ", "))
			return false
		}
		if err := c.host.store.Set(args[0], strings.Join(args[1:], " ")); err != nil {
			fmt.Fprintf(c.out, "Set failed: %v\n", err)
			return false
		}
		fmt.Fprintf(c.out, "%s updated\n", args[0])
		if args[0] == "display_mode" || args[0] == "large_image" {
			c.publish(ctx)
		}

	case "save":
		path := c.savePath
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			fmt.Fprintln(c.out, "Usage: save <file.yaml|file.toml|file.jsonc>")
			return false
		}
		if err := config.Save(path, c.host.store.Get()); err != nil {
			fmt.Fprintf(c.out, "Save failed: %v\n", err)
			return false
		}
		fmt.Fprintf(c.out, "Settings saved to %s\n", path)

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) publish(ctx context.Context) {
	if err := c.host.publish(ctx); err != nil {
		fmt.Fprintf(c.out, "Publish failed: %v\n", err)
		return
	}
	if a := c.host.ctrl.LastKnown(); a != nil {
		fmt.Fprintf(c.out, "Published: %s\n", strings.ReplaceAll(a.Details, "\n", " / "))
	}
}

func (c *Console) printStatus() {
	st := c.status()
	fmt.Fprintf(c.out, "Supervisor:  %s\n", st.Supervisor)
	fmt.Fprintf(c.out, "Connection:  %s\n", st.Connection)
	if st.User != "" {
		fmt.Fprintf(c.out, "User:        %s\n", st.User)
	}
	fmt.Fprintf(c.out, "Client ID:   %s\n", st.ClientID)
	fmt.Fprintf(c.out, "Presence:    %s\n", st.Presence)
	if st.Activity != "" {
		fmt.Fprintf(c.out, "Activity:    %s\n", st.Activity)
	}
	if st.HideAfter != "" {
		fmt.Fprintf(c.out, "Hide after:  %s\n", st.HideAfter)
	}
}

func (c *Console) printSettings() {
	s := c.host.store.Get()
	fmt.Fprintf(c.out, "client_id                    = %s\n", s.ClientID)
	fmt.Fprintf(c.out, "display_mode                 = %s\n", s.DisplayMode)
	fmt.Fprintf(c.out, "hide_after_minutes           = %d\n", s.HideAfterMinutes)
	fmt.Fprintf(c.out, "large_image                  = %s\n", s.LargeImage)
	fmt.Fprintf(c.out, "reconnect_on_activity_update = %t\n", s.Reconnect)
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Presence Commands:
  Workspace:
    project <name>     - Open a project and publish it
    open <file>        - Open a file in the current project
    close              - Close the current file
    clear              - Forget and clear the activity

  Visibility:
    interact           - Report user interaction (restores a hidden activity)
    restore            - Show a hidden activity again

  Settings:
    settings           - Show current settings
    set <key> <value>  - Change a setting
    save [file]        - Write settings to a file (default: --config)

  General:
    status             - Show connection and presence status
    help               - Show this help
    quit               - Exit`)
}
