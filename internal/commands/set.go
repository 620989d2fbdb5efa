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
	Register(&SetCmd{})
}

// SetCmd implements the set command. It writes one client setting to
// config.toml; environment variables and --url still take precedence.
type SetCmd struct{}

func (c *SetCmd) Name() string       { return "set" }
func (c *SetCmd) Aliases() []string  { return nil }
func (c *SetCmd) Synopsis() string   { return "Save a client setting (url, user, timeout)" }
func (c *SetCmd) NeedsService() bool { return false }

func (c *SetCmd) Usage() string {
	return "aitask set url|user|timeout [value]"
}

func (c *SetCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SetCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintf(errOut, "error: setting required (want one of %s)\n", strings.Join(config.SettingKeys, ", "))
		return exitcode.UserError
	}
	if len(args) > 2 {
		fmt.Fprintf(errOut, "error: too many arguments: %s\n", strings.Join(args[2:], " "))
		return exitcode.UserError
	}

	key, value := args[0], ""
	if len(args) == 2 {
		value = args[1]
	}

	// Validate before taking the lock so a typo never touches the file.
	if err := (&config.Settings{}).Set(key, value); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	err := cfg.UpdateSettings(func(s *config.Settings) error {
		return s.Set(key, value)
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to save settings: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
