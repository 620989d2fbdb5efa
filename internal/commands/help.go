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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "aitask help [command]" }
func (c *HelpCmd) NeedsService() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(out, helpText)
		return exitcode.Success
	}

	cmd, ok := DefaultRegistry.Find(args[0])
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
		return exitcode.UserError
	}
	fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n", cmd.Synopsis(), cmd.Usage())
	return exitcode.Success
}

const helpText = `Usage:
  aitask                                             List the default user's tasks
  aitask list [common flags] [--user <id>] [--format text|json|yaml]
  aitask add [common flags] [--user <id>] [--description <text>] <title...>
  aitask show [common flags] [--format text|json|yaml] <id>
  aitask edit [common flags] [--title <t>] [--description <d>] [--priority <p>]
              [--category <c>] [--minutes <n>] [--subtask <s>]... [--clear-subtasks] <id>
  aitask rm [common flags] <id>...
  aitask config [common flags]
  aitask setconfig [common flags] --provider-url <url> --token <token> --model <name>
  aitask checkconfig [common flags] --provider-url <url> --token <token> --model <name>
  aitask health [common flags]
  aitask login [common flags] [--token <token>]
  aitask logout [common flags]
  aitask set [common flags] url|user|timeout [value]
  aitask help [command]
  aitask version

Task ids are the numbers shown on task cards; "12" and "#12" are the same task.
Priorities: High, Medium, Low. Categories: Work, Personal, Learning, Health, Other.

Common flags:
  --config <dir>   Override config directory
  --url <url>      Task manager API base URL (default http://localhost:5000)
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  AITASK_URL, AITASK_USER, AITASK_TIMEOUT override config.toml.
`
