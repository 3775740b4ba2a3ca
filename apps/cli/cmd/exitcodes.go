package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/config"
	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/abdul-hamid-achik/hitdraft/packages/store"
)

// Exit codes for hitdraft CLI
const (
	// ExitSuccess indicates the request completed
	ExitSuccess = 0

	// ExitFailure indicates an unexpected error
	ExitFailure = 1

	// ExitParseError indicates a draft file or curl command could not be parsed
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates the request produced a failure descriptor
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries an exit code out of a command. A silent exitError has
// already been reported by the formatter.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status"
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCode maps an error returned by a command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	var inputErr *draft.InputError
	if errors.As(err, &inputErr) || errors.Is(err, store.ErrNotFound) {
		return ExitUsageError
	}

	var parseErr *config.ParseError
	if errors.As(err, &parseErr) {
		return ExitConfigError
	}

	return ExitFailure
}
