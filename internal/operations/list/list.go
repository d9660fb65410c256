package list

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// DefaultPageSize is the number of keys requested per page.
const DefaultPageSize int32 = 1000

// S3Interface defines the S3 operations we need.
type S3Interface interface {
	ListObjectsV2(
		ctx context.Context,
		input *s3.ListObjectsV2Input,
		opts ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)
}

// PageFetcher issues one listing request per call and tracks the
// continuation token between calls.
type PageFetcher struct {
	client            S3Interface
	bucket            string
	prefix            string
	pageSize          int32
	continuationToken *string
	exhausted         bool
	logger            *slog.Logger
	metrics           *metrics.Recorder
}

// Option configures a PageFetcher.
type Option func(*PageFetcher)

// WithPageSize overrides the number of keys requested per page.
// Values outside 1..1000 are ignored.
func WithPageSize(n int32) Option {
	return func(p *PageFetcher) {
		if n > 0 && n <= DefaultPageSize {
			p.pageSize = n
		}
	}
}

// WithLogger sets the logger used for page fetches.
func WithLogger(logger *slog.Logger) Option {
	return func(p *PageFetcher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the recorder for fetched pages.
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *PageFetcher) {
		p.metrics = r
	}
}

// NewPageFetcher creates a fetcher for the keys of bucket starting with prefix.
// The prefix is sent unmodified; an empty prefix lists the whole bucket.
func NewPageFetcher(client S3Interface, bucket, prefix string, opts ...Option) *PageFetcher {
	p := &PageFetcher{
		client:   client,
		bucket:   bucket,
		prefix:   prefix,
		pageSize: DefaultPageSize,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Exhausted reports whether the last fetched page carried no continuation token.
func (p *PageFetcher) Exhausted() bool {
	return p.exhausted
}

// FetchPage fetches the next page. It returns nil without a request once the
// listing is exhausted. A failed fetch leaves the token untouched.
func (p *PageFetcher) FetchPage(ctx context.Context) ([]s4types.Object, error) {
	if p.exhausted {
		return nil, nil
	}

	input := &s3.ListObjectsV2Input{
		Bucket:            aws.String(p.bucket),
		MaxKeys:           aws.Int32(p.pageSize),
		ContinuationToken: p.continuationToken,
	}
	if p.prefix != "" {
		input.Prefix = aws.String(p.prefix)
	}

	output, err := p.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, s4errors.NewObjectError("list", s4errors.CodeListingFailed, p.bucket, "", err).
			WithMessage(fmt.Sprintf("fetch page (prefix %q)", p.prefix))
	}

	p.continuationToken = output.NextContinuationToken
	p.exhausted = aws.ToString(output.NextContinuationToken) == ""

	objects := convertObjects(output)
	p.metrics.PageFetched(len(objects))
	p.logger.DebugContext(ctx, "fetched listing page",
		"bucket", p.bucket,
		"prefix", p.prefix,
		"objects", len(objects),
		"exhausted", p.exhausted,
	)

	return objects, nil
}

// convertObjects converts S3 output to listing records. A record without a
// key keeps an empty Key; callers that address objects by key must reject it.
func convertObjects(output *s3.ListObjectsV2Output) []s4types.Object {
	objects := make([]s4types.Object, 0, len(output.Contents))
	for _, obj := range output.Contents {
		objects = append(objects, s4types.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         aws.ToString(obj.ETag),
			StorageClass: string(obj.StorageClass),
		})
	}
	return objects
}
