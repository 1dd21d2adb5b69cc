package core

import (
	"errors"
	"fmt"
)

// Domain errors. The HTTP layer is the only place these are translated to
// status codes; everything below it returns them unwrapped or wrapped with %w.
var (
	ErrWeekend          = errors.New("attendance actions are only allowed Monday through Friday")
	ErrAlreadySignedIn  = errors.New("a sign-in already exists for today")
	ErrAlreadySignedOut = errors.New("a sign-out has already been recorded for today")
	ErrNotSignedIn      = errors.New("no sign-in exists for today")
	ErrAlreadyProcessed = errors.New("submission has already been approved or rejected")
	ErrForbidden        = errors.New("admin role required")
	ErrNotFound         = errors.New("not found")

	ErrLocationTimeout     = errors.New("location acquisition timed out")
	ErrLocationDenied      = errors.New("location permission denied")
	ErrLocationUnavailable = errors.New("location unavailable")
)

// OutOfRangeError is returned when a sample falls outside the hub geofence.
// It carries the measured distance and the allowed radius for user messaging.
type OutOfRangeError struct {
	DistanceMeters int
	RadiusMeters   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("you are %dm away from the hub; be within %.0fm to sign in or out",
		e.DistanceMeters, e.RadiusMeters)
}

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
