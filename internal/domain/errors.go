package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("session not found")
	ErrEnded               = errors.New("session has ended")
	ErrFull                = errors.New("session is full")
	ErrAlreadyJoined       = errors.New("user already joined this session")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrImmutableField      = errors.New("field is immutable")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrAlreadyEnded        = errors.New("session already ended")
	ErrInvalidInput        = errors.New("invalid input")
)

func ImmutableFieldError(field string) error {
	return fmt.Errorf("%w: %s", ErrImmutableField, field)
}

func InvalidInputError(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, msg)
}
