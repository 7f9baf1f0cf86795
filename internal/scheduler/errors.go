package scheduler

import "errors"

// Business-rule failures surfaced by the scheduling core. Handlers map these
// onto HTTP status codes; everything else is an internal error.
var (
	// ErrValidation wraps bad or missing input the caller can fix.
	ErrValidation = errors.New("invalid request")

	// ErrSlotConflict means the candidate interval overlaps an existing
	// non-cancelled appointment for the same doctor and date.
	ErrSlotConflict = errors.New("time slot is already booked")

	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrNoActiveDoctor      = errors.New("no active doctor available")

	// Link validity failures, in the order they are checked.
	ErrLinkNotFound       = errors.New("link not found")
	ErrLinkInactive       = errors.New("link is no longer active")
	ErrLinkExpired        = errors.New("link has expired")
	ErrLinkExhausted      = errors.New("link has reached its use limit")
	ErrLinkDoctorMismatch = errors.New("link is for a different doctor")
)
