package world

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for lookups and mutations on an entity id
	// that is not registered with the manager.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidArgument is returned when something other than a usable
	// entity is handed to the manager, or an event is routed to an
	// entity type that cannot receive it.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyRegistered is returned when an entity that already
	// carries a manager-stamped id is added again.
	ErrAlreadyRegistered = errors.New("entity already registered")
)

// DecodeError reports corrupt or incompatible serialized bytes.
type DecodeError struct {
	Schema string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Schema != "" {
		return fmt.Sprintf("decode %s: %v", e.Schema, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(schema string, format string, args ...any) *DecodeError {
	return &DecodeError{Schema: schema, Err: fmt.Errorf(format, args...)}
}
