package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"aitask/internal/commands"
	"aitask/internal/config"
	"aitask/internal/exitcode"
	"aitask/internal/logging"
	"aitask/internal/service"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> list the default user's tasks
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	baseURL   string
	quiet     bool
	debug     bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configDir, "config", "", "")
	fs.StringVar(&c.baseURL, "url", "", "")
	fs.BoolVar(&c.quiet, "quiet", false, "")
	fs.BoolVar(&c.debug, "debug", false, "")
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var common commonFlags
	common.register(fs)
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// A leading "-" after parsing means an unknown flag after "--"
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && positionalArgs[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(common.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug
	if u := strings.TrimSpace(common.baseURL); u != "" {
		cfg.BaseURL = u
	}

	logger := logging.New(errOut, cfg.Debug)
	ctx = logging.WithLogger(ctx, logger)
	logger.Debug("dispatch", "command", cmd.Name(), "config", cfg.Dir, "url", cfg.BaseURL)

	var svc service.Service
	if cmd.NeedsService() {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend configured")
			return exitcode.BackendError
		}
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			return factoryError(errOut, logger, err)
		}
	}

	return cmd.Run(ctx, cfg, svc, positionalArgs, out, errOut)
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	errStr := err.Error()

	if strings.HasPrefix(errStr, "flag needs an argument:") {
		flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		return "flag needs an argument: " + flagName
	}
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag provided but not defined:"))
		return "unknown flag: " + flagName
	}
	return errStr
}

// factoryError reports a failure to build the backend client. Token and
// config problems are auth errors; anything else is a backend error.
func factoryError(errOut io.Writer, logger *log.Logger, err error) int {
	logger.Debug("service factory failed", "err", err)
	if errors.Is(err, service.ErrUnauthorized) || strings.Contains(err.Error(), config.TokenFile) {
		fmt.Fprintf(errOut, "error: auth error: %s\n", err)
		return exitcode.AuthError
	}
	if strings.Contains(err.Error(), "invalid base URL") {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: backend error: %s\n", err)
	return exitcode.BackendError
}
