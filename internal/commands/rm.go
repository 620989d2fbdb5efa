package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"aitask/internal/config"
	"aitask/internal/exitcode"
	"aitask/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete tasks" }
func (c *RmCmd) Usage() string      { return "aitask rm <id>..." }
func (c *RmCmd) NeedsService() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	ids, err := ParseTaskIDs(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// Stop at the first failure; earlier deletions are not rolled back.
	for _, id := range ids {
		if err := svc.DeleteTask(ctx, id); err != nil {
			return reportError(errOut, err, fmt.Sprintf("task %d", id))
		}
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
