package command

import (
	"context"
	"errors"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/app"
	"github.com/adamavenir/gram/internal/core"
	"github.com/spf13/cobra"
)

// CommandContext provides shared command resources.
type CommandContext struct {
	Session  *app.Session
	Config   core.Config
	Log      *core.Logger
	JSONMode bool
}

// commandCtx returns the command's context, or a background context when the
// command runs outside Execute.
func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// GetContext loads config and credentials and builds a session. The signed-in
// user is not fetched; use RequireUser for commands that act as the user.
func GetContext(cmd *cobra.Command, opts ...app.Option) (*CommandContext, error) {
	return getContextWithLogger(cmd, func(debug bool) (*core.Logger, error) {
		log := core.NewLogger(AppName, debug)
		log.SetOutput(cmd.ErrOrStderr())
		return log, nil
	}, opts...)
}

func getContextWithLogger(cmd *cobra.Command, newLog func(debug bool) (*core.Logger, error), opts ...app.Option) (*CommandContext, error) {
	jsonMode, _ := cmd.Flags().GetBool("json")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLog(debug || cfg.Debug)
	if err != nil {
		return nil, err
	}

	session, err := app.New(cfg, log, opts...)
	if err != nil {
		return nil, err
	}
	return &CommandContext{Session: session, Config: cfg, Log: log, JSONMode: jsonMode}, nil
}

// RequireUser fetches the signed-in user. Without a token it fails before any
// request is made.
func (c *CommandContext) RequireUser(ctx context.Context) error {
	if !c.Session.SignedIn() {
		return api.ErrUnauthenticated
	}
	if err := c.Session.Open(ctx); err != nil {
		return err
	}
	return nil
}

// Close releases the session and the log.
func (c *CommandContext) Close() {
	if c == nil || c.Session == nil {
		return
	}
	_ = c.Session.Close()
	_ = c.Log.Close()
}

func isUnauthenticated(err error) bool {
	if errors.Is(err, api.ErrUnauthenticated) {
		return true
	}
	var apiErr *api.APIError
	return errors.As(err, &apiErr) && apiErr.Status == 401
}
