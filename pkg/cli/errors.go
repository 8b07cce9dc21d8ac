package cli

import (
	"errors"
	"fmt"

	"github.com/psaab/nocterm/pkg/netmodel"
	"github.com/psaab/nocterm/pkg/output"
	"github.com/psaab/nocterm/pkg/session"
)

var (
	// ErrUnknownCommand means no registry entry matched.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrIncompleteCommand is raised by handlers missing an argument.
	ErrIncompleteCommand = errors.New("incomplete command")
	// ErrInvalidInput is raised for an unrecognised subcommand or argument.
	ErrInvalidInput = errors.New("invalid input")
)

const (
	msgInvalidInput = "% Invalid input detected at '^' marker."
	msgNotInMode    = msgInvalidInput + " (Not available in this mode)"
	msgIncomplete   = "% Incomplete command."
	msgBadInterface = "% Invalid interface."
	msgInternal     = "Internal error: command failed safely."
	msgNoHelp       = "% No help available for this context."
)

// unknownCommandError names the word that matched no registry entry.
type unknownCommandError struct {
	name string
}

func (e *unknownCommandError) Error() string { return "unknown command: " + e.name }
func (e *unknownCommandError) Unwrap() error { return ErrUnknownCommand }

// UsageError carries a line shown verbatim in error style, such as a
// Linux usage hint.
type UsageError struct {
	Text string
}

func (e *UsageError) Error() string { return e.Text }

func usagef(format string, args ...any) error {
	return &UsageError{Text: fmt.Sprintf(format, args...)}
}

// internalError marks a fault the user must not see the details of.
type internalError struct {
	cause any
}

func (e *internalError) Error() string { return fmt.Sprintf("handler fault: %v", e.cause) }

// errorLine maps a dispatch or handler error to the single line shown to
// the user in mode. ok is false for internal faults.
func errorLine(err error, mode session.Mode) (string, bool) {
	var (
		usage   *UsageError
		unknown *unknownCommandError
	)
	switch {
	case errors.As(err, &unknown):
		if mode == session.Linux {
			return unknown.name + ": command not found", true
		}
		return msgInvalidInput, true
	case errors.Is(err, ErrUnknownCommand):
		return msgInvalidInput, true
	case errors.As(err, &usage):
		return usage.Text, true
	case errors.Is(err, ErrIncompleteCommand):
		return msgIncomplete, true
	case errors.Is(err, netmodel.ErrUnknownInterface):
		return msgBadInterface, true
	case errors.Is(err, session.ErrModeRejected):
		return msgNotInMode, true
	case errors.Is(err, ErrInvalidInput), errors.Is(err, netmodel.ErrInvalidAddress):
		return msgInvalidInput, true
	}
	return msgInternal, false
}

func (c *CLI) printError(text string) {
	c.out.Print(output.StyleError, text)
}
