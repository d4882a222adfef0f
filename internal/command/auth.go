package command

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/adamavenir/gram/internal/api"
	"github.com/adamavenir/gram/internal/core"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email-or-username>",
		Short: "Log in and store the session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer cctx.Close()

			fromStdin, _ := cmd.Flags().GetBool("password-stdin")
			password, err := readPassword(cmd, fromStdin)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			ctx := commandCtx(cmd)
			token, err := cctx.Session.Client.Login(ctx, args[0], password)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			client, err := api.NewClient(cctx.Config.APIURL, api.StaticToken(token), api.WithTimeout(cctx.Config.Timeout()), api.WithLogger(cctx.Log))
			if err != nil {
				return writeCommandError(cmd, err)
			}
			me, err := client.AuthMe(ctx)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := core.SaveCredentials(core.Credentials{Token: token, Username: me.Username}); err != nil {
				return writeCommandError(cmd, err)
			}

			if cctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"username": me.Username, "id": me.ID})
			}
			writeSuccess(cmd, "Logged in as @%s", me.Username)
			return nil
		},
	}
	cmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	return cmd
}

// NewRegisterCmd creates the register command.
func NewRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer cctx.Close()

			reg := api.Registration{}
			reg.Email, _ = cmd.Flags().GetString("email")
			reg.FullName, _ = cmd.Flags().GetString("full-name")
			reg.Username, _ = cmd.Flags().GetString("username")
			required := []struct{ flag, value string }{
				{"email", reg.Email}, {"full-name", reg.FullName}, {"username", reg.Username},
			}
			for _, r := range required {
				if strings.TrimSpace(r.value) == "" {
					return writeCommandError(cmd, fmt.Errorf("--%s is required", r.flag))
				}
			}

			fromStdin, _ := cmd.Flags().GetBool("password-stdin")
			if reg.Password, err = readPassword(cmd, fromStdin); err != nil {
				return writeCommandError(cmd, err)
			}

			message, err := cctx.Session.Client.Register(commandCtx(cmd), reg)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if cctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"message": message})
			}
			if message == "" {
				message = "Account created"
			}
			writeSuccess(cmd, "%s. Log in with: gram login %s", strings.TrimSuffix(message, "."), reg.Username)
			return nil
		},
	}
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("full-name", "", "full name")
	cmd.Flags().String("username", "", "username")
	cmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	return cmd
}

// NewResetPasswordCmd creates the reset-password command.
func NewResetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email-or-username>",
		Short: "Request a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer cctx.Close()

			message, err := cctx.Session.Client.ResetPassword(commandCtx(cmd), args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if cctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"message": message})
			}
			if message == "" {
				message = "Check your email for a reset link"
			}
			writeSuccess(cmd, "%s", message)
			return nil
		},
	}
}

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := core.ClearCredentials(); err != nil {
				return writeCommandError(cmd, err)
			}
			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]bool{"logged_out": true})
			}
			writeSuccess(cmd, "Logged out")
			if strings.TrimSpace(os.Getenv("GRAM_TOKEN")) != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "GRAM_TOKEN is still set in the environment")
			}
			return nil
		},
	}
}

// readPassword reads from stdin when asked or when stdin is not a terminal,
// and otherwise prompts without echo.
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !fromStdin && term.IsTerminal(f.Fd()) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		data, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return requirePassword(string(data))
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return requirePassword(strings.TrimRight(line, "\r\n"))
}

func requirePassword(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("password is required")
	}
	return p, nil
}
