package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"aitask/internal/config"
	"aitask/internal/exitcode"
	"aitask/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. It stores the bearer token the
// client sends to the task manager API.
type LoginCmd struct {
	token string
	input io.Reader
}

// SetToken sets the token flag (for testing).
func (c *LoginCmd) SetToken(token string) {
	c.token = token
}

// SetInput sets the reader the token is read from when --token is absent
// (for testing). Defaults to stdin.
func (c *LoginCmd) SetInput(r io.Reader) {
	c.input = r
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Store an API token" }
func (c *LoginCmd) Usage() string      { return "aitask login [--token <token>]" }
func (c *LoginCmd) NeedsService() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.token, "token", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	token := strings.TrimSpace(c.token)
	if token == "" {
		var err error
		token, err = readToken(c.input)
		if err != nil {
			fmt.Fprintf(errOut, "error: failed to read token: %v\n", err)
			return exitcode.AuthError
		}
	}
	if token == "" {
		fmt.Fprintln(errOut, "error: token required (use --token or pipe it on stdin)")
		return exitcode.UserError
	}

	if err := cfg.SaveToken(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// readToken reads the first line of r, or of stdin when r is nil.
func readToken(r io.Reader) (string, error) {
	if r == nil {
		r = os.Stdin
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
