package upload

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

const (
	// DefaultContentType is used when detection finds nothing more specific.
	DefaultContentType = "application/octet-stream"

	// sniffLen is how much of the source is inspected for content type
	// detection.
	sniffLen = 3072
)

// API is the subset of the collaborator the uploader needs.
type API interface {
	multipart.API
	PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Request describes one upload.
type Request struct {
	Bucket string
	Key    string
	Body   io.Reader

	// Size is the source length, or -1 when unknown.
	Size int64

	Options s4types.UploadOptionConfig
}

// Uploader runs uploads against the collaborator.
type Uploader struct {
	client    API
	multipart *multipart.Uploader
	threshold int64
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// New creates an uploader. A threshold of zero or less selects
// s4types.DefaultMultipartThreshold.
func New(client API, threshold int64, logger *slog.Logger, rec *metrics.Recorder) *Uploader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if threshold <= 0 {
		threshold = s4types.DefaultMultipartThreshold
	}
	return &Uploader{
		client:    client,
		multipart: multipart.NewUploader(client, logger, rec),
		threshold: threshold,
		logger:    logger,
		metrics:   rec,
	}
}

// Threshold returns the size from which uploads use a multipart session.
func (u *Uploader) Threshold() int64 {
	return u.threshold
}

// Upload sends req.Body to the service.
//
// Without a part size the whole body is read and put. With one, a known-size
// body whose plan has a single part below the threshold is put; anything
// larger is uploaded in parts. A body of unknown size is read up to one part
// or the threshold, whichever is smaller, to make the same decision.
func (u *Uploader) Upload(ctx context.Context, req Request) (*s4types.UploadResult, error) {
	start := time.Now()
	opts := req.Options

	if opts.PartSize <= 0 {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, u.readFailed(req, err)
		}
		return u.put(ctx, req.Bucket, req.Key, data, opts, start)
	}

	if req.Size >= 0 {
		return u.uploadSized(ctx, req, start)
	}
	return u.uploadStream(ctx, req, start)
}

// Put uploads data in one call.
func (u *Uploader) Put(
	ctx context.Context,
	bucket, key string,
	data []byte,
	opts s4types.UploadOptionConfig,
) (*s4types.UploadResult, error) {
	return u.put(ctx, bucket, key, data, opts, time.Now())
}

func (u *Uploader) uploadSized(ctx context.Context, req Request, start time.Time) (*s4types.UploadResult, error) {
	opts := req.Options
	if multipart.PartCount(req.Size, opts.PartSize) == 1 && req.Size < u.threshold {
		data := make([]byte, req.Size)
		if _, err := io.ReadFull(req.Body, data); err != nil {
			return nil, u.readFailed(req, err)
		}
		return u.put(ctx, req.Bucket, req.Key, data, opts, start)
	}

	br := bufio.NewReaderSize(req.Body, sniffLen)
	if opts.ContentType == "" {
		head, err := br.Peek(sniffLen)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, u.readFailed(req, err)
		}
		opts.ContentType = detect(head)
	}
	return u.uploadParts(ctx, req, br, req.Size, opts)
}

func (u *Uploader) uploadStream(ctx context.Context, req Request, start time.Time) (*s4types.UploadResult, error) {
	opts := req.Options
	br := bufio.NewReader(req.Body)

	head := make([]byte, min(opts.PartSize, u.threshold))
	n, err := io.ReadFull(br, head)
	head = head[:n]
	switch {
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return u.put(ctx, req.Bucket, req.Key, head, opts, start)
	case err != nil:
		return nil, u.readFailed(req, err)
	}

	if _, err := br.Peek(1); err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, u.readFailed(req, err)
		}
		if int64(n) < u.threshold {
			return u.put(ctx, req.Bucket, req.Key, head, opts, start)
		}
	}

	if opts.ContentType == "" {
		opts.ContentType = detect(head)
	}
	return u.uploadParts(ctx, req, io.MultiReader(bytes.NewReader(head), br), -1, opts)
}

func (u *Uploader) uploadParts(
	ctx context.Context,
	req Request,
	src io.Reader,
	size int64,
	opts s4types.UploadOptionConfig,
) (*s4types.UploadResult, error) {
	return u.multipart.Upload(ctx, req.Bucket, req.Key, src, size, multipart.Config{
		PartSize: opts.PartSize,
		Object: multipart.ObjectOptions{
			ContentType:  opts.ContentType,
			Metadata:     opts.Metadata,
			StorageClass: opts.StorageClass,
		},
		Progress: opts.ProgressTracker,
	})
}

func (u *Uploader) put(
	ctx context.Context,
	bucket, key string,
	data []byte,
	opts s4types.UploadOptionConfig,
	start time.Time,
) (*s4types.UploadResult, error) {
	contentType := opts.ContentType
	if contentType == "" {
		contentType = detect(data)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		Metadata:      opts.Metadata,
	}
	if opts.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(opts.StorageClass)
	}

	output, err := u.client.PutObject(ctx, input)
	if err != nil {
		err = s4errors.NewObjectError("put", s4errors.ServiceCode(err, s4errors.CodeUnknown), bucket, key, err)
		if opts.ProgressTracker != nil {
			opts.ProgressTracker.Error(err)
		}
		return nil, err
	}

	size := int64(len(data))
	u.metrics.SinglePut(size)
	u.logger.Info("object put", "bucket", bucket, "key", key, "size", size)

	if opts.ProgressTracker != nil {
		opts.ProgressTracker.Update(size, size)
		opts.ProgressTracker.Complete()
	}

	return &s4types.UploadResult{
		Key:       key,
		Size:      size,
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Duration:  time.Since(start),
	}, nil
}

func (u *Uploader) readFailed(req Request, err error) error {
	err = s4errors.NewObjectError("upload", s4errors.CodeSourceReadFailed, req.Bucket, req.Key,
		fmt.Errorf("read source: %w", err))
	if req.Options.ProgressTracker != nil {
		req.Options.ProgressTracker.Error(err)
	}
	return err
}

// detect returns the content type of data, falling back to
// DefaultContentType for empty input.
func detect(data []byte) string {
	if len(data) == 0 {
		return DefaultContentType
	}
	return mimetype.Detect(data).String()
}
