package command

import (
	"errors"
	"fmt"

	"github.com/adamavenir/gram/internal/coordinator"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	successLabel = color.New(color.FgGreen)
	hintLabel    = color.New(color.FgYellow)
)

func writeCommandError(cmd *cobra.Command, err error) error {
	errorLabel.Fprint(cmd.ErrOrStderr(), "Error: ")
	fmt.Fprintln(cmd.ErrOrStderr(), coordinator.Message(err))

	if hint := errorHint(err); hint != "" {
		hintLabel.Fprint(cmd.ErrOrStderr(), "Hint: ")
		fmt.Fprintln(cmd.ErrOrStderr(), hint)
	}

	return &reportedError{err: err}
}

// reportedError marks an error that has already been written to stderr.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already printed by a command.
func Reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

func errorHint(err error) string {
	var remote *coordinator.RemoteError
	switch {
	case err == nil:
		return ""
	case isUnauthenticated(err):
		return "log in first: gram login <email-or-username>"
	case errors.Is(err, coordinator.ErrBusy):
		return "wait for the running request to finish"
	case errors.As(err, &remote) && remote.Status == 0:
		return "check the API address: gram config api_url"
	case errors.As(err, &remote) && remote.IsNotFound():
		return "it may have been deleted"
	}
	return ""
}

func writeSuccess(cmd *cobra.Command, format string, args ...any) {
	successLabel.Fprint(cmd.OutOrStdout(), "✓ ")
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
