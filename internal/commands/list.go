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
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `aitask` (no args) and `aitask list`.
type ListCmd struct {
	user   string
	format string
}

// SetUser sets the user ID (for testing).
func (c *ListCmd) SetUser(user string) {
	c.user = user
}

// SetFormat sets the output format (for testing).
func (c *ListCmd) SetFormat(format string) {
	c.format = format
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List a user's tasks" }
func (c *ListCmd) Usage() string      { return "aitask list [--user <id>] [--format text|json|yaml]" }
func (c *ListCmd) NeedsService() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.user, "user", "", "")
	fs.StringVar(&c.user, "u", "", "")
	fs.StringVar(&c.format, "format", "", "")
	fs.StringVar(&c.format, "f", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	format, err := output.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	user, ok := resolveUser(cfg, c.user)
	if !ok {
		fmt.Fprintln(errOut, errUserRequired)
		return exitcode.UserError
	}

	tasks, err := svc.ListUserTasks(ctx, user)
	if err != nil {
		return reportError(errOut, err, "user "+user)
	}

	if len(tasks) == 0 && format == output.FormatText {
		if !cfg.Quiet {
			fmt.Fprintf(out, "no tasks found for user %q\n", user)
		}
		return exitcode.Success
	}

	if err := output.WriteTasks(out, format, tasks); err != nil {
		fmt.Fprintf(errOut, "error: failed to write output: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
