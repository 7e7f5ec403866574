package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInvalidPhase       = errors.New("action not valid in current phase")
	ErrOutOfOrder         = errors.New("card selected before vehicle")
	ErrCapacity           = errors.New("room capacity exceeded or below minimum")
	ErrUnauthorized       = errors.New("operation requires the host")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
