package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("design not found")
	ErrParentNotFound    = errors.New("parent design not found")
	ErrForbidden         = errors.New("design belongs to another user")
	ErrCycleDetected     = errors.New("cycle detected in design chain")
	ErrInvalidTransition = errors.New("invalid design status transition")
	ErrHasChildren       = errors.New("design has regenerations")
	ErrNoOutputs         = errors.New("generation produced no outputs")
)

// notFoundOr maps a missing record to notFound and wraps anything else.
func notFoundOr(err error, notFound error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
