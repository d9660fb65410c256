package errors

// ErrorCode classifies an s4 failure.
// Codes are string based so they read well in logs and CLI output.
type ErrorCode string

const (
	// Iteration errors.

	// CodeListingFailed indicates a page of the listing could not be fetched.
	CodeListingFailed ErrorCode = "LISTING_FAILED"

	// CodeRetrievalFailed indicates a per-item retrieval failed while iterating.
	CodeRetrievalFailed ErrorCode = "RETRIEVAL_FAILED"

	// CodeProtocolViolation indicates the service returned a malformed response.
	CodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"

	// Upload errors.

	// CodeUploadStartFailed indicates the multipart upload could not be created.
	CodeUploadStartFailed ErrorCode = "UPLOAD_START_FAILED"

	// CodeSourceReadFailed indicates the local byte source failed mid-upload.
	CodeSourceReadFailed ErrorCode = "SOURCE_READ_FAILED"

	// CodePartUploadFailed indicates the service rejected a part.
	CodePartUploadFailed ErrorCode = "PART_UPLOAD_FAILED"

	// CodeCompletionFailed indicates the complete call failed after all parts succeeded.
	CodeCompletionFailed ErrorCode = "COMPLETION_FAILED"

	// CodeAbortFailed indicates the abort call itself failed.
	CodeAbortFailed ErrorCode = "ABORT_FAILED"

	// CodeInvalidState indicates an operation was attempted in the wrong session state.
	CodeInvalidState ErrorCode = "INVALID_STATE"

	// Resource errors.

	// CodeNotFound indicates the object does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeBucketNotFound indicates the bucket does not exist.
	CodeBucketNotFound ErrorCode = "BUCKET_NOT_FOUND"

	// CodeAccessDenied indicates the caller lacks permission.
	CodeAccessDenied ErrorCode = "ACCESS_DENIED"

	// Validation and local errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeIO indicates a local file could not be opened, created or written.
	CodeIO ErrorCode = "IO_ERROR"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// sentinels maps each code to the sentinel matched by errors.Is.
var sentinels = map[ErrorCode]error{
	CodeListingFailed:     ErrListingFailed,
	CodeRetrievalFailed:   ErrRetrievalFailed,
	CodeProtocolViolation: ErrProtocolViolation,
	CodeUploadStartFailed: ErrUploadStartFailed,
	CodeSourceReadFailed:  ErrSourceReadFailed,
	CodePartUploadFailed:  ErrPartUploadFailed,
	CodeCompletionFailed:  ErrCompletionFailed,
	CodeAbortFailed:       ErrAbortFailed,
	CodeInvalidState:      ErrInvalidState,
	CodeNotFound:          ErrObjectNotFound,
	CodeBucketNotFound:    ErrBucketNotFound,
	CodeAccessDenied:      ErrAccessDenied,
	CodeInvalidInput:      ErrInvalidInput,
	CodeIO:                ErrIO,
}
