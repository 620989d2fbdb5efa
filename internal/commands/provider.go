package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"

	"aitask/internal/config"
	"aitask/internal/exitcode"
	"aitask/internal/output"
	"aitask/internal/service"
)

func init() {
	Register(&ConfigCmd{})
	Register(&SetConfigCmd{})
	Register(&CheckConfigCmd{})
	Register(&HealthCmd{})
}

// providerFlags are the flags shared by setconfig and checkconfig.
type providerFlags struct {
	providerURL string
	token       string
	model       string
}

func (p *providerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&p.providerURL, "provider-url", "", "")
	fs.StringVar(&p.token, "token", "", "")
	fs.StringVar(&p.model, "model", "", "")
}

// config validates the flags. All three are required, as the backend
// replaces the whole provider configuration at once.
func (p *providerFlags) config() (service.ProviderConfig, error) {
	cfg := service.ProviderConfig{
		ProviderURL: strings.TrimSpace(p.providerURL),
		APIToken:    strings.TrimSpace(p.token),
		ModelName:   strings.TrimSpace(p.model),
	}

	var missing []string
	if cfg.ProviderURL == "" {
		missing = append(missing, "--provider-url")
	}
	if cfg.APIToken == "" {
		missing = append(missing, "--token")
	}
	if cfg.ModelName == "" {
		missing = append(missing, "--model")
	}
	if len(missing) > 0 {
		return cfg, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}

	u, err := url.Parse(cfg.ProviderURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return cfg, fmt.Errorf("invalid provider url: %s", cfg.ProviderURL)
	}
	return cfg, nil
}

// ConfigCmd implements the config command.
type ConfigCmd struct{}

func (c *ConfigCmd) Name() string       { return "config" }
func (c *ConfigCmd) Aliases() []string  { return nil }
func (c *ConfigCmd) Synopsis() string   { return "Show the AI provider configuration" }
func (c *ConfigCmd) Usage() string      { return "aitask config" }
func (c *ConfigCmd) NeedsService() bool { return true }

func (c *ConfigCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ConfigCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	status, err := svc.ProviderStatus(ctx)
	if err != nil {
		return reportError(errOut, err, "configuration")
	}

	output.FormatClientSettings(out, cfg.BaseURL, cfg.User)
	output.FormatProviderStatus(out, status)
	return exitcode.Success
}

// SetConfigCmd implements the setconfig command.
type SetConfigCmd struct {
	flags providerFlags
}

// SetProvider sets the provider flags (for testing).
func (c *SetConfigCmd) SetProvider(providerURL, token, model string) {
	c.flags = providerFlags{providerURL: providerURL, token: token, model: model}
}

func (c *SetConfigCmd) Name() string       { return "setconfig" }
func (c *SetConfigCmd) Aliases() []string  { return nil }
func (c *SetConfigCmd) Synopsis() string   { return "Replace the AI provider configuration" }
func (c *SetConfigCmd) NeedsService() bool { return true }

func (c *SetConfigCmd) Usage() string {
	return "aitask setconfig --provider-url <url> --token <token> --model <name>"
}

func (c *SetConfigCmd) RegisterFlags(fs *flag.FlagSet) {
	c.flags.register(fs)
}

func (c *SetConfigCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	providerCfg, err := c.flags.config()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	msg, err := svc.UpdateProvider(ctx, providerCfg)
	if err != nil {
		return reportError(errOut, err, "configuration")
	}

	if !cfg.Quiet {
		if msg == "" {
			msg = "ok"
		}
		fmt.Fprintln(out, msg)
	}
	return exitcode.Success
}

// CheckConfigCmd implements the checkconfig command. It asks the backend to
// validate a provider configuration without storing it.
type CheckConfigCmd struct {
	flags providerFlags
}

// SetProvider sets the provider flags (for testing).
func (c *CheckConfigCmd) SetProvider(providerURL, token, model string) {
	c.flags = providerFlags{providerURL: providerURL, token: token, model: model}
}

func (c *CheckConfigCmd) Name() string       { return "checkconfig" }
func (c *CheckConfigCmd) Aliases() []string  { return nil }
func (c *CheckConfigCmd) Synopsis() string   { return "Validate an AI provider configuration" }
func (c *CheckConfigCmd) NeedsService() bool { return true }

func (c *CheckConfigCmd) Usage() string {
	return "aitask checkconfig --provider-url <url> --token <token> --model <name>"
}

func (c *CheckConfigCmd) RegisterFlags(fs *flag.FlagSet) {
	c.flags.register(fs)
}

func (c *CheckConfigCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	providerCfg, err := c.flags.config()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	status, err := svc.Health(ctx, &providerCfg)
	if err != nil {
		return reportError(errOut, err, "health endpoint")
	}

	if !status.Healthy() {
		msg := status.Message
		if msg == "" {
			msg = status.Status
		}
		fmt.Fprintf(errOut, "error: configuration check failed: %s\n", msg)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		model := status.Model
		if model == "" {
			model = providerCfg.ModelName
		}
		fmt.Fprintf(out, "configuration valid (model: %s)\n", model)
	}
	return exitcode.Success
}

// HealthCmd implements the health command.
type HealthCmd struct{}

func (c *HealthCmd) Name() string       { return "health" }
func (c *HealthCmd) Aliases() []string  { return nil }
func (c *HealthCmd) Synopsis() string   { return "Check the backend" }
func (c *HealthCmd) Usage() string      { return "aitask health" }
func (c *HealthCmd) NeedsService() bool { return true }

func (c *HealthCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HealthCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	status, err := svc.Health(ctx, nil)
	if err != nil {
		return reportError(errOut, err, "health endpoint")
	}

	output.FormatHealth(out, status)
	if !status.Healthy() {
		return exitcode.BackendError
	}
	return exitcode.Success
}
