package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/fluxgraph"
	"github.com/aretw0/fluxgraph/internal/presentation/tui"
)

// EditOptions configures an interactive editing session.
type EditOptions struct {
	Project  string
	Headless bool
	Input    io.Reader
	Output   io.Writer
}

// RunEdit opens (or creates) a project and feeds it commands read from opts.Input until EOF
// or an interrupt signal. The project is saved on exit if it changed.
func RunEdit(app *App, opts EditOptions) error {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if !opts.Headless {
		tui.PrintBanner(opts.Output, fluxgraph.Version)
	}

	if _, err := app.Sessions.OpenOrCreate(sigCtx, opts.Project); err != nil {
		return fmt.Errorf("error opening project: %w", err)
	}
	app.Logger.Info("Session Started", "project", opts.Project)

	r := fluxgraph.NewRunner()
	r.Input = NewInterruptibleReader(opts.Input, sigCtx.Done())
	r.Output = opts.Output
	r.Headless = opts.Headless
	if f, ok := opts.Output.(*os.File); ok && !opts.Headless {
		r.Renderer = tui.NewRenderer(f)
	}

	// Saving must outlive the interrupt that ends the loop.
	err := app.Sessions.Edit(context.WithoutCancel(sigCtx), opts.Project, func(_ context.Context, e *fluxgraph.Editor) error {
		return r.Run(sigCtx, e)
	})

	if sig := sigCtx.Signal(); sig != nil && !opts.Headless {
		fmt.Fprintln(opts.Output)
		printSystemMessage(opts.Output, "Interrupted (%v). Project '%s' saved.", sig, opts.Project)
	}
	return HandleExecutionError(err)
}
