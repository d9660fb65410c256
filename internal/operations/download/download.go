package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// filePerm is the mode of files created by DownloadFile.
const filePerm os.FileMode = 0o644

// API is the subset of the collaborator the downloader needs.
type API interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Downloader handles S3 download operations.
type Downloader struct {
	client  API
	fs      fs.Filesystem
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// New creates a new Downloader. filesystem is only used by DownloadFile.
func New(client API, filesystem fs.Filesystem, logger *slog.Logger, rec *metrics.Recorder) *Downloader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Downloader{
		client:  client,
		fs:      filesystem,
		logger:  logger,
		metrics: rec,
	}
}

// Open requests an object and returns its content. The caller must close
// the returned Body.
func (d *Downloader) Open(ctx context.Context, bucket, key string) (*s4types.ObjectContent, error) {
	output, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s4errors.NewObjectError("get", s4errors.ServiceCode(err, s4errors.CodeUnknown), bucket, key, err)
	}
	d.metrics.ObjectRetrieved()
	d.logger.Debug("object retrieved", "bucket", bucket, "key", key,
		"content_length", aws.ToInt64(output.ContentLength))

	body := output.Body
	if body == nil {
		body = io.NopCloser(bytes.NewReader(nil))
	}
	lastModified := aws.ToTime(output.LastModified)
	return &s4types.ObjectContent{
		Object: s4types.Object{
			Key:          key,
			Size:         aws.ToInt64(output.ContentLength),
			LastModified: lastModified,
			ETag:         aws.ToString(output.ETag),
			StorageClass: string(output.StorageClass),
		},
		Body:          body,
		ContentLength: aws.ToInt64(output.ContentLength),
		ContentType:   aws.ToString(output.ContentType),
		ETag:          aws.ToString(output.ETag),
		LastModified:  lastModified,
		VersionID:     aws.ToString(output.VersionId),
		Metadata:      output.Metadata,
	}, nil
}

// Download streams an object to w.
func (d *Downloader) Download(ctx context.Context, bucket, key string, w io.Writer) (*s4types.DownloadResult, error) {
	start := time.Now()
	content, err := d.Open(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer content.Body.Close()

	n, err := copyBody(w, content.Body)
	if err != nil {
		return nil, s4errors.NewObjectError("download", s4errors.CodeIO, bucket, key, err)
	}
	return result(key, content, n, start), nil
}

// DownloadFile streams an object to a new file at path. No file is created
// when the object cannot be retrieved; an existing file is an error. The
// partial file is removed when the copy fails.
func (d *Downloader) DownloadFile(ctx context.Context, bucket, key, path string) (*s4types.DownloadResult, error) {
	start := time.Now()
	content, err := d.Open(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer content.Body.Close()

	file, err := d.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return nil, s4errors.NewObjectError("downloadFile", s4errors.CodeIO, bucket, key,
			fmt.Errorf("create %s: %w", path, err))
	}

	n, err := copyBody(file, content.Body)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", path, closeErr)
	}
	if err != nil {
		if rmErr := d.fs.Remove(path); rmErr != nil {
			err = errors.Join(err, fmt.Errorf("remove partial file: %w", rmErr))
		}
		return nil, s4errors.NewObjectError("downloadFile", s4errors.CodeIO, bucket, key, err)
	}

	d.logger.Info("object downloaded", "bucket", bucket, "key", key, "path", path, "bytes", n)
	return result(key, content, n, start), nil
}

// Get returns an object's entire content.
func (d *Downloader) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.Download(ctx, bucket, key, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func copyBody(w io.Writer, r io.Reader) (int64, error) {
	buf := pool.GetCopyBuffer()
	defer pool.PutCopyBuffer(buf)

	n, err := io.CopyBuffer(w, r, buf)
	if err != nil {
		return n, fmt.Errorf("copy body after %d bytes: %w", n, err)
	}
	return n, nil
}

func result(key string, content *s4types.ObjectContent, written int64, start time.Time) *s4types.DownloadResult {
	return &s4types.DownloadResult{
		Key:           key,
		ContentLength: content.ContentLength,
		BytesWritten:  written,
		ETag:          content.ETag,
		Duration:      time.Since(start),
	}
}
