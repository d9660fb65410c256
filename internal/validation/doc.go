// Package validation checks caller input before any request is sent.
//
// Every failure is an *errors.Error with CodeInvalidInput, so callers can
// match it with errors.Is(err, errors.ErrInvalidInput).
package validation
