package fluxgraph

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
)

// Runner drives an Editor from a line-oriented command stream.
// This allows for easy testing and integration with different frontends (CLI, TUI, scripts).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// ErrUnknownCommand is returned by Exec for commands the runner does not know.
var ErrUnknownCommand = errors.New("unknown command")

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes commands until EOF, "exit" or "quit". Command errors are printed and do not
// stop the loop.
func (r *Runner) Run(ctx context.Context, e *Editor) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewScanner(r.Input)

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- fluxgraph %s (type help) ---\n", e.Project().Name)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			return nil
		}
		line, err := SanitizeInput(lines.Text())
		if err != nil {
			fmt.Fprintf(r.Output, "error: %v\n", err)
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "exit" || line == "quit" {
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		}

		out, err := r.Exec(ctx, e, line)
		if err != nil {
			fmt.Fprintf(r.Output, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(r.Output, strings.TrimRight(out, "\n"))
	}
}

// Exec runs one command line against e and returns its output.
func (r *Runner) Exec(ctx context.Context, e *Editor, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		return r.render(helpText)

	case "ls":
		return r.render(Summary(e))

	case "add":
		if len(args) != 1 && len(args) != 3 {
			return "", usage("add <factory> [x y]")
		}
		var pos edit.Position
		if len(args) == 3 {
			x, errX := strconv.ParseFloat(args[1], 64)
			y, errY := strconv.ParseFloat(args[2], 64)
			if err := errors.Join(errX, errY); err != nil {
				return "", usage("add <factory> [x y]")
			}
			pos = edit.Position{X: x, Y: y}
		}
		m, err := e.AddModule(ctx, args[0], pos)
		if err != nil {
			return "", err
		}
		return "added " + m.ModuleID, nil

	case "plugin":
		if len(args) != 2 {
			return "", usage("plugin <factory> <parent>")
		}
		m, err := e.AddPlugin(ctx, args[0], args[1])
		if err != nil {
			return "", err
		}
		return "added " + m.ModuleID, nil

	case "connect":
		if len(args) != 2 {
			return "", usage("connect <module.slot> <module.slot>")
		}
		start, err := ParseSlotRef(args[0])
		if err != nil {
			return "", err
		}
		end, err := ParseSlotRef(args[1])
		if err != nil {
			return "", err
		}
		c, err := e.Connect(ctx, start, end)
		if err != nil {
			return "", err
		}
		return "connected " + c.ConnectionID, nil

	case "disconnect":
		return changed(e.DeleteConnections(ctx, args))

	case "delete":
		return changed(e.DeleteModules(ctx, args))

	case "move":
		if len(args) != 3 {
			return "", usage("move <module> <x> <y>")
		}
		x, errX := strconv.ParseFloat(args[1], 64)
		y, errY := strconv.ParseFloat(args[2], 64)
		if err := errors.Join(errX, errY); err != nil {
			return "", usage("move <module> <x> <y>")
		}
		return changed(e.MoveModules(ctx, map[string]edit.Position{args[0]: {X: x, Y: y}}, true))

	case "adaptor":
		if len(args) < 1 {
			return "", usage("adaptor <connection> [expression]")
		}
		return changed(e.SetAdaptor(ctx, args[0], strings.Join(args[1:], " ")))

	case "group":
		if len(args) < 2 {
			return "", usage("group <title> <module>...")
		}
		g, err := e.Group(ctx, args[1:], args[0])
		if err != nil {
			return "", err
		}
		if g == nil {
			return "no change", nil
		}
		return "grouped into " + g.ModuleID, nil

	case "rename":
		if len(args) < 2 {
			return "", usage("rename <layer> <title>")
		}
		return changed(e.RenameLayer(ctx, args[0], strings.Join(args[1:], " ")))

	case "enter":
		if len(args) != 1 {
			return "", usage("enter <group>")
		}
		if err := e.EnterLayer(ctx, args[0]); err != nil {
			return "", err
		}
		return "layer " + e.ActiveLayer(), nil

	case "leave":
		if _, err := e.LeaveLayer(ctx); err != nil {
			return "", err
		}
		return "layer " + e.ActiveLayer(), nil

	case "undo":
		return moved(e.Undo(ctx))

	case "redo":
		return moved(e.Redo(ctx))
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
}

func (r *Runner) render(md string) (string, error) {
	if r.Renderer == nil {
		return md, nil
	}
	out, err := r.Renderer(md)
	if err != nil {
		return md, nil
	}
	return out, nil
}

// ParseSlotRef parses "module.slot".
func ParseSlotRef(s string) (domain.SlotRef, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return domain.SlotRef{}, fmt.Errorf("%w: invalid slot reference %q (want module.slot)", domain.ErrPrecondition, s)
	}
	return domain.SlotRef{ModuleID: s[:i], SlotID: s[i+1:]}, nil
}

// Summary describes the active layer of e as markdown.
func Summary(e *Editor) string {
	p := e.Project()
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	fmt.Fprintf(&b, "Layer `%s`, history %d/%d\n\n", e.ActiveLayer(), e.History().Index()+1, e.History().Len())

	displayed, err := e.DisplayedModules()
	if err == nil && len(displayed) > 0 {
		b.WriteString("| Module | Factory | Title | Outside |\n|---|---|---|---|\n")
		for _, d := range displayed {
			ref := ""
			if d.Module.Factory != nil {
				ref = d.Module.Factory.Ref()
			}
			outside := ""
			if d.OutsideLayer {
				outside = "yes"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", d.Module.ModuleID, ref, d.Module.Title(), outside)
		}
		b.WriteString("\n")
	}

	if len(p.Workflow.Connections) > 0 {
		b.WriteString("Connections:\n\n")
		for _, c := range p.Workflow.Connections {
			fmt.Fprintf(&b, "- `%s`", c)
			if c.Adaptor != nil {
				fmt.Fprintf(&b, " via `%s`", c.Adaptor.Source)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func changed(ok bool, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if !ok {
		return "no change", nil
	}
	return "ok", nil
}

func moved(ok bool, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if !ok {
		return "nothing to do", nil
	}
	return "ok", nil
}

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}

const helpText = `Commands:

- add <factory> [x y]
- plugin <factory> <parent>
- connect <module.slot> <module.slot>
- disconnect <connection>...
- delete <module>...
- move <module> <x> <y>
- adaptor <connection> [expression]
- group <title> <module>...
- rename <layer> <title>
- enter <group>, leave
- undo, redo
- ls, help, exit
`
