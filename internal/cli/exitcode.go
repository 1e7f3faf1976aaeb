package cli

// Semantic exit codes: 0 for success, distinct small integers for each
// class of failure. cmd/loom exits with ExitRunFailure for every error,
// including config and invocation errors; it does not return the other
// failure codes.
const (
	ExitSuccess           = 0
	ExitRunFailure        = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)
