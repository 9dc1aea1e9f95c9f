package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRecord  = errors.New("invalid record")
	ErrEmptyDocument  = errors.New("empty document")
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTemporary      = errors.New("temporary failure")
	ErrQueueDisabled  = errors.New("submission queue disabled")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
