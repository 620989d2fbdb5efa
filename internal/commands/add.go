package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"aitask/internal/config"
	"aitask/internal/exitcode"
	"aitask/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	user        string
	description string
}

// SetUser sets the user ID (for testing).
func (c *AddCmd) SetUser(user string) {
	c.user = user
}

// SetDescription sets the task description (for testing).
func (c *AddCmd) SetDescription(desc string) {
	c.description = desc
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) Usage() string      { return "aitask add [--user <id>] [--description <text>] <title...>" }
func (c *AddCmd) NeedsService() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.user, "user", "", "")
	fs.StringVar(&c.user, "u", "", "")
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	user, ok := resolveUser(cfg, c.user)
	if !ok {
		fmt.Fprintln(errOut, errUserRequired)
		return exitcode.UserError
	}

	// The backend runs the AI classifier before answering, so this call
	// can take several seconds.
	task, err := svc.CreateTask(ctx, service.NewTask{
		Title:       title,
		Description: strings.TrimSpace(c.description),
		UserID:      user,
	})
	if err != nil {
		return reportError(errOut, err, "user "+user)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %d\n", task.ID)
	}
	return exitcode.Success
}
