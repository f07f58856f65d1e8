package errs

import "errors"

// Domain sentinel errors, mapped to HTTP codes in controllers.
var (
	ErrInvalidTransition      = errors.New("invalid table state transition")
	ErrNotOccupied            = errors.New("table is not occupied")
	ErrDestinationUnavailable = errors.New("destination table is occupied by another session")
	ErrNotFound               = errors.New("not found")
	ErrDuplicateRequest       = errors.New("duplicate move request")
	ErrStorageConflict        = errors.New("storage conflict, retry the operation")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrLightNotSupported      = errors.New("table kind does not support lighting")
	ErrUnauthorized           = errors.New("invalid credentials")
)
