// Package s4types provides shared type definitions for the s4 module.
package s4types

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultMultipartThreshold is the size below which a single-part upload
	// is sent with one put instead of a multipart session.
	DefaultMultipartThreshold int64 = 20 * 1024 * 1024

	// MinPartSize is the smallest part size the service accepts for any part
	// but the last.
	MinPartSize int64 = 5 * 1024 * 1024

	// MaxPartSize is the largest part the service accepts.
	MaxPartSize int64 = 5 * 1024 * 1024 * 1024

	// MaxParts is the largest number of parts in one multipart upload.
	MaxParts = 10000
)

// StorageClass represents the storage class for uploaded objects.
type StorageClass string

// Predefined storage classes
const (
	// StorageClassStandard is the default storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacierIR provides Glacier Instant Retrieval storage
	StorageClassGlacierIR StorageClass = "GLACIER_IR"

	StorageClassReducedRedundancy StorageClass = "REDUCED_REDUNDANCY"
	StorageClassOneZoneIA         StorageClass = "ONEZONE_IA"
	StorageClassGlacier           StorageClass = "GLACIER"
	StorageClassDeepArchive       StorageClass = "DEEP_ARCHIVE"
)

// Object is one listing record. Records are immutable once yielded.
type Object struct {
	// Key is the object key
	Key string

	// Size is the object size in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the entity tag for the object
	ETag string

	// StorageClass is the storage class reported by the listing
	StorageClass string
}

// ObjectContent is a retrieved object. Callers must close Body.
type ObjectContent struct {
	// Object is the listing record the content was retrieved for
	Object Object

	// Body streams the object content
	Body io.ReadCloser

	ContentLength int64
	ContentType   string
	ETag          string
	LastModified  time.Time
	VersionID     string
	Metadata      map[string]string
}

// CompletedPart identifies an uploaded part in a multipart session.
type CompletedPart struct {
	// PartNumber is the 1-based part index
	PartNumber int32

	// ETag is the tag the service returned for the part
	ETag string

	// Size is the part length in bytes
	Size int64
}

// MultipartUpload is an open multipart upload reported by the service.
type MultipartUpload struct {
	Key       string
	UploadID  string
	Initiated time.Time
}

// ProgressTracker defines the interface for tracking transfer progress.
type ProgressTracker interface {
	// Update is called after each part with transfer progress; totalBytes
	// is -1 when the source size is unknown
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Key is the object key that was uploaded
	Key string

	// Size is the size of the uploaded object in bytes
	Size int64

	// ETag is the entity tag for the uploaded object
	ETag string

	// VersionID is the version ID if versioning is enabled
	VersionID string

	// UploadID is set when the object was uploaded in a multipart session
	UploadID string

	// Parts is the number of parts uploaded; zero for a single put
	Parts int

	// Duration is how long the upload took
	Duration time.Duration
}

// DownloadResult contains the result of a download operation.
type DownloadResult struct {
	// Key is the object key that was downloaded
	Key string

	// ContentLength is the length reported by the service
	ContentLength int64

	// BytesWritten is the number of bytes copied to the destination
	BytesWritten int64

	// ETag is the entity tag for the downloaded object
	ETag string

	// Duration is how long the download took
	Duration time.Duration
}

// Configuration types for functional options

// ClientConfig holds configuration for the s4 client.
type ClientConfig struct {
	Region             string
	Endpoint           string
	AccessKeyID        string
	SecretAccessKey    string
	SessionToken       string
	MaxRetries         int
	Timeout            time.Duration
	PartSize           int64
	MultipartThreshold int64
	ForcePathStyle     bool
	CustomAWSConfig    *aws.Config
	CustomHTTPClient   *http.Client
	DefaultBucket      string
	Filesystem         fs.Filesystem
	Logger             *slog.Logger
	Registerer         prometheus.Registerer
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	ContentType     string
	Metadata        map[string]string
	StorageClass    StorageClass
	ProgressTracker ProgressTracker
	PartSize        int64
}

// Option is a functional option for configuring the s4 client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
)
