package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuth             = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrCancelled        = fmt.Errorf("cancelled by user")

	// API and service errors
	ErrAPI              = fmt.Errorf("API request failed")
	ErrNetwork          = fmt.Errorf("network request failed")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrSearchMiss       = fmt.Errorf("no search results")
	ErrSubmission       = fmt.Errorf("playlist submission failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// Process exit codes returned by [ExitCode].
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCode maps an error returned by a command to the process exit status.
//
// Usage errors (bad flags, arguments or configuration) exit with [ExitUsage];
// every other failure, including auth, network and submission errors, exits with [ExitFailure].
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidFlag),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrMissingArgument),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrMissingConfig),
		errors.Is(err, ErrMissingCredentials):
		return ExitUsage
	default:
		return ExitFailure
	}
}
