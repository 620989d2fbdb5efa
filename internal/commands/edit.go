package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"aitask/internal/config"
	"aitask/internal/exitcode"
	"aitask/internal/service"
	"aitask/internal/subtasks"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the fields given as flags are
// sent; the backend keeps the rest.
type EditCmd struct {
	title         *string
	description   *string
	priority      *string
	category      *string
	minutes       *string
	subtasks      []string
	clearSubtasks bool
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change fields of a task" }
func (c *EditCmd) Usage() string {
	return "aitask edit [--title <t>] [--description <d>] [--priority <p>] [--category <c>] [--minutes <n>] [--subtask <s>]... [--clear-subtasks] <id>"
}
func (c *EditCmd) NeedsService() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditCmd{}
	fs.Func("title", "", optional(&c.title))
	fs.Func("description", "", optional(&c.description))
	fs.Func("priority", "", optional(&c.priority))
	fs.Func("category", "", optional(&c.category))
	fs.Func("minutes", "", optional(&c.minutes))
	fs.Func("subtask", "", func(s string) error {
		c.subtasks = append(c.subtasks, s)
		return nil
	})
	fs.BoolVar(&c.clearSubtasks, "clear-subtasks", false, "")
}

// optional records that a string flag was given, even when empty.
func optional(dst **string) func(string) error {
	return func(s string) error {
		*dst = &s
		return nil
	}
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := parseSingleTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	update, err := c.buildUpdate()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if update.IsEmpty() {
		fmt.Fprintln(errOut, "error: nothing to update")
		return exitcode.UserError
	}

	if _, err := svc.UpdateTask(ctx, id, update); err != nil {
		return reportError(errOut, err, fmt.Sprintf("task %d", id))
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// buildUpdate validates the flags client-side, so a typo in an enum never
// reaches the backend.
func (c *EditCmd) buildUpdate() (service.TaskUpdate, error) {
	var u service.TaskUpdate

	if c.title != nil {
		title := strings.TrimSpace(*c.title)
		if title == "" {
			return u, fmt.Errorf("title cannot be empty")
		}
		u.Title = &title
	}

	if c.description != nil {
		desc := strings.TrimSpace(*c.description)
		u.Description = &desc
	}

	if c.priority != nil {
		p, err := service.ParsePriority(*c.priority)
		if err != nil {
			return u, err
		}
		u.Priority = &p
	}

	if c.category != nil {
		cat, err := service.ParseCategory(*c.category)
		if err != nil {
			return u, err
		}
		u.Category = &cat
	}

	if c.minutes != nil {
		n, err := strconv.Atoi(strings.TrimSpace(*c.minutes))
		if err != nil || n < 0 {
			return u, fmt.Errorf("invalid minutes: %s", *c.minutes)
		}
		u.EstimatedMinutes = &n
	}

	if c.clearSubtasks && len(c.subtasks) > 0 {
		return u, fmt.Errorf("cannot use both --subtask and --clear-subtasks")
	}
	if c.clearSubtasks {
		encoded := subtasks.Encode(nil)
		u.Subtasks = &encoded
	}
	if len(c.subtasks) > 0 {
		items := make([]string, 0, len(c.subtasks))
		for _, s := range c.subtasks {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		if len(items) == 0 {
			return u, fmt.Errorf("subtask cannot be empty")
		}
		encoded := subtasks.Encode(items)
		u.Subtasks = &encoded
	}

	return u, nil
}
