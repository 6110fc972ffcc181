package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a use case wraps exactly one of these.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidSchedule   = errors.New("invalid schedule")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation error")
)

// Domain errors.
var (
	ErrTaskNotFound     = fmt.Errorf("task %w", ErrNotFound)
	ErrParentNotFound   = fmt.Errorf("parent task %w", ErrNotFound)
	ErrAgentNotFound    = fmt.Errorf("agent %w", ErrNotFound)
	ErrEpicNotFound     = fmt.Errorf("epic %w", ErrNotFound)
	ErrScheduleNotFound = fmt.Errorf("schedule %w", ErrNotFound)
	ErrConfigNotFound   = fmt.Errorf("config entry %w", ErrNotFound)
	ErrMappingNotFound  = fmt.Errorf("inbox mapping %w", ErrNotFound)
	ErrMessageNotFound  = fmt.Errorf("inbox message %w", ErrNotFound)

	ErrClaimConflict     = fmt.Errorf("%w: task already claimed", ErrConflict)
	ErrTaskModified      = fmt.Errorf("%w: task was modified concurrently", ErrConflict)
	ErrScheduleExists    = fmt.Errorf("%w: schedule name already exists", ErrConflict)
	ErrScheduleModified  = fmt.Errorf("%w: schedule was modified concurrently", ErrConflict)
	ErrAgentExists       = fmt.Errorf("%w: agent already exists", ErrConflict)
	ErrTaskTerminal      = fmt.Errorf("%w: task is in a terminal state", ErrInvalidTransition)
	ErrNoCadence         = fmt.Errorf("%w: one of cron expression or interval is required", ErrInvalidSchedule)
	ErrBothCadences      = fmt.Errorf("%w: cron expression and interval are mutually exclusive", ErrInvalidSchedule)
	ErrNoFutureRun       = fmt.Errorf("%w: schedule has no future occurrence", ErrInvalidSchedule)
	ErrEmptyDescription  = fmt.Errorf("%w: description cannot be empty", ErrValidation)
	ErrInvalidPriority   = fmt.Errorf("%w: priority must be between 0 and 100", ErrValidation)
	ErrInvalidStatus     = fmt.Errorf("%w: unknown status", ErrValidation)
	ErrInvalidScope      = fmt.Errorf("%w: invalid config scope", ErrValidation)
	ErrEmptyKey          = fmt.Errorf("%w: key cannot be empty", ErrValidation)
	ErrEmptyName         = fmt.Errorf("%w: name cannot be empty", ErrValidation)
	ErrNoFieldsToUpdate  = fmt.Errorf("%w: no fields to update", ErrValidation)
	ErrNotInitialized    = errors.New("swarm not initialized (run 'swarm init' first)")
	ErrConfigExists      = errors.New("config file already exists")
	ErrNotGitRepository  = errors.New("not a git repository (or any of the parent directories)")
	ErrNoOriginRemote    = errors.New("repository has no remote to derive an id from")
	ErrUnknownEventKind  = errors.New("unknown inbound event kind")
	ErrInvalidSignature  = fmt.Errorf("%w: invalid webhook signature", ErrUnauthorized)
	ErrMissingCaller     = fmt.Errorf("%w: caller identity required", ErrUnauthorized)
	ErrEmptyToolName     = fmt.Errorf("%w: tool name cannot be empty", ErrValidation)
	ErrEmptySessionKey   = fmt.Errorf("%w: session key cannot be empty", ErrValidation)
	ErrInvalidEpicStatus = fmt.Errorf("%w: unknown epic status", ErrValidation)
)

// ErrorKind classifies errors for callers that report them outside Go.
type ErrorKind string

// Error kinds reported to callers.
const (
	KindNotFound          ErrorKind = "NotFound"
	KindConflict          ErrorKind = "Conflict"
	KindInvalidTransition ErrorKind = "InvalidTransition"
	KindInvalidSchedule   ErrorKind = "InvalidSchedule"
	KindUnauthorized      ErrorKind = "Unauthorized"
	KindValidation        ErrorKind = "ValidationError"
	KindInternal          ErrorKind = "Internal"
)

// KindOf returns the kind of err, or KindInternal for errors outside the domain.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrInvalidSchedule):
		return KindInvalidSchedule
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindInternal
	}
}
