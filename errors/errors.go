// Package errors provides the error types returned by s4 operations.
package errors

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// Error represents a failed s4 operation with context about where it failed.
// It matches the sentinel for its Code with errors.Is and unwraps to the cause.
type Error struct {
	// Op is the operation that failed (e.g., "list", "upload", "download")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// Code classifies the failure
	Code ErrorCode

	// Err is the underlying error from the collaborator or local source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s4.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s4.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s4.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s4.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for the error's code.
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Code]
	return ok && sentinel == target
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation, code and cause.
func NewError(op string, code ErrorCode, err error) *Error {
	return &Error{
		Op:   op,
		Code: code,
		Err:  err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op string, code ErrorCode, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Code:   code,
		Err:    err,
	}
}

// CompletionError is the cause of a CodeCompletionFailed error. The upload
// is still open on the service; the caller may retry completion with the same
// parts or abort it.
type CompletionError struct {
	UploadID string
	Parts    []s4types.CompletedPart
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("complete upload %s with %d parts: %v", e.UploadID, len(e.Parts), e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Sentinel errors, one per ErrorCode.
// These can be used with errors.Is() for error checking.
var (
	// ErrListingFailed indicates that a listing page could not be fetched
	ErrListingFailed = errors.New("s4: listing failed")

	// ErrRetrievalFailed indicates that retrieving an iterated object failed
	ErrRetrievalFailed = errors.New("s4: retrieval failed")

	// ErrProtocolViolation indicates a malformed service response
	ErrProtocolViolation = errors.New("s4: protocol violation")

	// ErrUploadStartFailed indicates that a multipart upload could not be created
	ErrUploadStartFailed = errors.New("s4: upload start failed")

	// ErrSourceReadFailed indicates that the upload source failed mid-upload
	ErrSourceReadFailed = errors.New("s4: source read failed mid-upload")

	// ErrPartUploadFailed indicates that a part upload failed mid-upload
	ErrPartUploadFailed = errors.New("s4: part upload failed mid-upload")

	// ErrCompletionFailed indicates that completing a multipart upload failed
	ErrCompletionFailed = errors.New("s4: completion failed")

	// ErrAbortFailed indicates that aborting a multipart upload failed
	ErrAbortFailed = errors.New("s4: abort failed")

	// ErrInvalidState indicates an illegal multipart session transition
	ErrInvalidState = errors.New("s4: invalid session state")

	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("s4: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("s4: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("s4: access denied")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("s4: invalid input")

	// ErrIO indicates a local I/O failure
	ErrIO = errors.New("s4: i/o error")
)

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// ServiceCode classifies a collaborator error by its API error code.
// It returns fallback when the error carries no recognized code.
func ServiceCode(err error, fallback ErrorCode) ErrorCode {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fallback
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return CodeNotFound
	case "NoSuchBucket":
		return CodeBucketNotFound
	case "AccessDenied", "Forbidden":
		return CodeAccessDenied
	}
	return fallback
}

// AsCompletionError extracts the completion details from err.
func AsCompletionError(err error) (*CompletionError, bool) {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsObjectNotFound checks if an error indicates that an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
