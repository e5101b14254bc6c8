// Package eval walks a validated script and threads a lazy dataframe
// through each pipeline's steps, maintaining the process-wide variable
// table and display configuration and dispatching to sinks and terminals.
package eval

import (
	"io"

	"dply/internal/display"
	"dply/internal/engine"
)

// Context is the process-wide evaluation state: the variable table and
// display configuration, both of which persist across pipelines within a
// single script or REPL session.
type Context struct {
	Vars    map[string]*engine.LazyFrame
	Display *display.Config
	Out     io.Writer

	// LastSchema is the schema of the most recently produced dataframe,
	// used by the REPL for completion.
	LastSchema engine.Schema
}

// NewContext builds a fresh evaluation context.
func NewContext(out io.Writer) *Context {
	return &Context{
		Vars:    map[string]*engine.LazyFrame{},
		Display: display.Default(),
		Out:     out,
	}
}
