package postprocess

import (
	"errors"

	"notifyplex/internal/services"
)

// Outcome is the NZBGet post-processing result.
type Outcome int

const (
	Success Outcome = 93
	Error   Outcome = 94
	None    Outcome = 95
)

// ExitCode returns the process exit status NZBGet expects for the outcome.
func (o Outcome) ExitCode() int {
	return int(o)
}

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Error:
		return "error"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// ResolveOutcome applies the boundary policy. Permission problems with the
// credential cache never fail a run. Auth and connectivity failures become
// success in silent mode, except for operator-triggered diagnostics.
func ResolveOutcome(err error, silent, diagnostic bool) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, services.ErrPermission) && !errors.Is(err, services.ErrConfiguration):
		return Success
	case silent && !diagnostic && services.Recoverable(err):
		return Success
	default:
		return Error
	}
}
