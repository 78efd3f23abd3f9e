package fire

import (
	"errors"
	"fmt"
)

// Kind is the stable, client-facing classification of a failure.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindInvalidTransition  Kind = "invalid_transition"
	KindMissingCoordinates Kind = "missing_coordinates"
	KindNoStations         Kind = "no_stations"
	KindStorage            Kind = "storage"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the same kind, so errors.Is(err, ErrNotFound) works
// for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition}
	ErrMissingCoordinates = &Error{Kind: KindMissingCoordinates}
	ErrNoStations         = &Error{Kind: KindNoStations}
	ErrStorage            = &Error{Kind: KindStorage}
)

// KindOf classifies err; anything that is not an *Error is a storage failure.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindStorage
}

func validationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(entity string, id uint) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s #%d not found", entity, id)}
}

func invalidTransitionError(format string, args ...any) error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func missingCoordinatesError(alertID uint) error {
	return &Error{
		Kind:    KindMissingCoordinates,
		Message: fmt.Sprintf("detection for alert #%d has no coordinates, cannot find nearest stations", alertID),
	}
}

func noStationsError() error {
	return &Error{Kind: KindNoStations, Message: "no stations with coordinates configured"}
}

// storageError wraps a persistence failure. Errors that already carry a kind
// pass through untouched.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Kind: KindStorage, Message: op, Err: err}
}
