package s4

import (
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// WithRegion sets the AWS region for S3 operations.
// If not specified, uses the default AWS region from the credential chain.
func WithRegion(region string) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.Region = region
	}
}

// WithMaxRetries sets the maximum number of attempts the AWS SDK makes for
// a request. Default is 3.
func WithMaxRetries(maxRetries int) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout of the HTTP client used for requests.
// Default is no timeout. Ignored when WithCustomHTTPClient is given.
func WithTimeout(timeout time.Duration) s4types.Option {
	return func(c *s4types.ClientConfig) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithPartSize sets the default multipart part size. Without a part size,
// uploads read their whole source and put it in one request.
func WithPartSize(partSize int64) s4types.Option {
	return func(c *s4types.ClientConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithMultipartThreshold sets the size from which uploads use a multipart
// session even when they fit in one part. Default is 20 MiB.
func WithMultipartThreshold(threshold int64) s4types.Option {
	return func(c *s4types.ClientConfig) {
		if threshold > 0 {
			c.MultipartThreshold = threshold
		}
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
func WithForcePathStyle(forcePathStyle bool) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig provides a custom AWS configuration instead of loading the
// default one.
func WithAWSConfig(config *aws.Config) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithCredentials sets static credentials instead of the default chain.
func WithCredentials(accessKeyID, secretAccessKey string) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
	}
}

// WithSessionToken adds a session token to the static credentials.
func WithSessionToken(token string) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.SessionToken = token
	}
}

// WithCustomHTTPClient provides the HTTP client used for requests.
func WithCustomHTTPClient(client *http.Client) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithDefaultBucket sets the bucket used by operations given an empty bucket.
func WithDefaultBucket(bucket string) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.DefaultBucket = bucket
	}
}

// WithFilesystem sets the filesystem used by UploadFile and DownloadFile.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the structured logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.Logger = logger
	}
}

// WithMetricsRegisterer registers the client's Prometheus counters on reg.
func WithMetricsRegisterer(reg prometheus.Registerer) s4types.Option {
	return func(c *s4types.ClientConfig) {
		c.Registerer = reg
	}
}

// WithContentType sets the content type for upload operations. By default
// it is detected from the first bytes of the source.
func WithContentType(contentType string) s4types.UploadOption {
	return func(c *s4types.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets user metadata for upload operations.
func WithMetadata(metadata map[string]string) s4types.UploadOption {
	return func(c *s4types.UploadOptionConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string, len(metadata))
		}
		maps.Copy(c.Metadata, metadata)
	}
}

// WithStorageClass sets the storage class for upload operations.
func WithStorageClass(storageClass s4types.StorageClass) s4types.UploadOption {
	return func(c *s4types.UploadOptionConfig) {
		c.StorageClass = storageClass
	}
}

// WithProgress sets a progress tracker for upload operations.
func WithProgress(tracker s4types.ProgressTracker) s4types.UploadOption {
	return func(c *s4types.UploadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithUploadPartSize sets the part size for one upload, overriding the
// client default.
func WithUploadPartSize(partSize int64) s4types.UploadOption {
	return func(c *s4types.UploadOptionConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}
