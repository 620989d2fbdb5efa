// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"aitask/internal/config"
	"aitask/internal/exitcode"
	"aitask/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsService returns true if the command talks to the task manager API.
	// Commands like help, version, login, logout return false.
	NeedsService() bool

	// RegisterFlags registers command-specific flags.
	// Called once per invocation, before Run.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, base URL, default user).
	// svc is nil if NeedsService() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}

// reportError prints a backend error and returns the matching exit code.
// what names the missing object for not-found errors, e.g. "task 12".
func reportError(errOut io.Writer, err error, what string) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: %s not found\n", what)
		return exitcode.UserError
	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: auth error: %v (run: aitask login)\n", err)
		return exitcode.AuthError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// resolveUser picks the user ID from the --user flag, falling back to the
// configured default.
func resolveUser(cfg *config.Config, flagUser string) (string, bool) {
	if u := strings.TrimSpace(flagUser); u != "" {
		return u, true
	}
	if u := strings.TrimSpace(cfg.User); u != "" {
		return u, true
	}
	return "", false
}

const errUserRequired = "error: user required (use --user, AITASK_USER or user in config.toml)"
