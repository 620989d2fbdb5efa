package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"aitask/internal/config"
	"aitask/internal/exitcode"
	"aitask/internal/output"
	"aitask/internal/service"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
type ShowCmd struct {
	format string
}

// SetFormat sets the output format (for testing).
func (c *ShowCmd) SetFormat(format string) {
	c.format = format
}

func (c *ShowCmd) Name() string       { return "show" }
func (c *ShowCmd) Aliases() []string  { return []string{"get"} }
func (c *ShowCmd) Synopsis() string   { return "Show a single task" }
func (c *ShowCmd) Usage() string      { return "aitask show [--format text|json|yaml] <id>" }
func (c *ShowCmd) NeedsService() bool { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", "", "")
	fs.StringVar(&c.format, "f", "", "")
}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := parseSingleTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	format, err := output.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	task, err := svc.GetTask(ctx, id)
	if err != nil {
		return reportError(errOut, err, fmt.Sprintf("task %d", id))
	}

	if err := output.WriteTask(out, format, task); err != nil {
		fmt.Fprintf(errOut, "error: failed to write output: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
