// Package common provides small helpers shared across nasweb packages.
package common

import (
	"errors"
	"fmt"

	"github.com/spu-nas/nasweb/logger"
)

// NewErrorf formats an error message.
func NewErrorf(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return errors.New(msg)
}

// Combine joins the non-nil errors into one. It returns nil when all are nil.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

// Recover logs a panic with msg and returns the recovered value.
// It must be called directly by a deferred statement.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Error(msg, " panic: ", panicErr)
		}
	}
	return panicErr
}
