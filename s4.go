package s4

import (
	"context"
	"errors"
	"io"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/listing"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// DefaultContentType is stored when content type detection finds nothing
// more specific.
const DefaultContentType = upload.DefaultContentType

// Iterate returns an iterator over the keys of bucket starting with prefix,
// in the order the service lists them. No request is made until the first
// call on the iterator. An empty bucket selects the default bucket.
//
// Example:
//
//	it, err := client.Iterate("my-bucket", "photos/")
//	if err != nil {
//	    return err
//	}
//	n, err := it.Count(ctx)
func (c *Client) Iterate(bucket, prefix string) (*listing.KeyIterator, error) {
	it, _, err := c.keyIterator("iterate", bucket, prefix)
	return it, err
}

// IterateWithRetrieval is like Iterate but yields object content. Only the
// records a call returns are retrieved; Count retrieves nothing.
func (c *Client) IterateWithRetrieval(bucket, prefix string) (*listing.FetchingIterator, error) {
	keys, bucket, err := c.keyIterator("iterate", bucket, prefix)
	if err != nil {
		return nil, err
	}
	return listing.NewFetchingIterator(keys, c.downloader, bucket), nil
}

// keyIterator builds a key iterator and returns it with the resolved bucket.
func (c *Client) keyIterator(op, bucket, prefix string) (*listing.KeyIterator, string, error) {
	bucket, err := c.resolveBucket(op, bucket)
	if err != nil {
		return nil, "", err
	}
	if err := validation.ValidatePrefix(prefix); err != nil {
		return nil, "", withOp(op, err)
	}

	fetcher := list.NewPageFetcher(c.s3Client, bucket, prefix,
		list.WithLogger(c.logger),
		list.WithMetrics(c.metrics),
	)
	return listing.NewKeyIterator(fetcher), bucket, nil
}

// Upload uploads data from r to bucket/key.
//
// Without a part size the source is read fully and put in one request.
// With a part size, sources whose single part is below the multipart
// threshold are put; larger sources are uploaded in parts, and the upload
// is aborted if the source or a part fails. The size of r is known when it
// has a Len method, as *bytes.Reader and *strings.Reader do; other readers
// are streamed part by part.
//
// Errors:
//   - ErrInvalidInput: If bucket, key or an option is invalid, or r is nil
//   - ErrSourceReadFailed: If reading r failed
//   - ErrPartUploadFailed: If the service rejected a part
//   - ErrCompletionFailed: If completion failed; see CompleteUpload
//
// Example:
//
//	result, err := client.Upload(ctx, "my-bucket", "data.bin", r,
//	    s4.WithUploadPartSize(16*1024*1024),
//	    s4.WithContentType("application/octet-stream"),
//	)
func (c *Client) Upload(
	ctx context.Context,
	bucket, key string,
	r io.Reader,
	opts ...s4types.UploadOption,
) (*s4types.UploadResult, error) {
	bucket, cfg, err := c.prepareUpload("upload", bucket, key, opts)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, s4errors.NewObjectError("upload", s4errors.CodeInvalidInput, bucket, key,
			errors.New("reader cannot be nil"))
	}

	size := int64(-1)
	if l, ok := r.(interface{ Len() int }); ok {
		size = int64(l.Len())
	}

	return c.uploader.Upload(ctx, upload.Request{
		Bucket:  bucket,
		Key:     key,
		Body:    r,
		Size:    size,
		Options: cfg,
	})
}

// UploadFile uploads the file at path to bucket/key, using the file size to
// choose between a single put and a multipart upload. The file is opened
// through the client filesystem before any request is made.
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, path string,
	opts ...s4types.UploadOption,
) (*s4types.UploadResult, error) {
	bucket, cfg, err := c.prepareUpload("uploadFile", bucket, key, opts)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, s4errors.NewObjectError("uploadFile", s4errors.CodeInvalidInput, bucket, key,
			errors.New("file path cannot be empty"))
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		return nil, s4errors.NewObjectError("uploadFile", s4errors.CodeIO, bucket, key, err)
	}
	if info.IsDir() {
		return nil, s4errors.NewObjectError("uploadFile", s4errors.CodeInvalidInput, bucket, key,
			errors.New("file path points to a directory"))
	}

	file, err := c.fs.Open(path)
	if err != nil {
		return nil, s4errors.NewObjectError("uploadFile", s4errors.CodeIO, bucket, key, err)
	}
	defer file.Close()

	return c.uploader.Upload(ctx, upload.Request{
		Bucket:  bucket,
		Key:     key,
		Body:    file,
		Size:    info.Size(),
		Options: cfg,
	})
}

// Put uploads data to bucket/key in one request, whatever its size.
//
// Example:
//
//	_, err := client.Put(ctx, "my-bucket", "config.json", data,
//	    s4.WithContentType("application/json"),
//	)
func (c *Client) Put(
	ctx context.Context,
	bucket, key string,
	data []byte,
	opts ...s4types.UploadOption,
) (*s4types.UploadResult, error) {
	bucket, cfg, err := c.prepareUpload("put", bucket, key, opts)
	if err != nil {
		return nil, err
	}
	return c.uploader.Put(ctx, bucket, key, data, cfg)
}

// Download streams the object at bucket/key to w.
//
// Errors:
//   - ErrInvalidInput: If bucket or key is invalid, or w is nil
//   - ErrObjectNotFound: If the object does not exist
//   - ErrIO: If copying the body to w failed
func (c *Client) Download(ctx context.Context, bucket, key string, w io.Writer) (*s4types.DownloadResult, error) {
	bucket, err := c.resolveObject("download", bucket, key)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, s4errors.NewObjectError("download", s4errors.CodeInvalidInput, bucket, key,
			errors.New("writer cannot be nil"))
	}
	return c.downloader.Download(ctx, bucket, key, w)
}

// DownloadFile streams the object at bucket/key into a new file at path.
// The object is requested before the file is created, so a missing object
// leaves no file behind. An existing file at path is an ErrIO error wrapping
// os.ErrExist and is left untouched.
func (c *Client) DownloadFile(ctx context.Context, bucket, key, path string) (*s4types.DownloadResult, error) {
	bucket, err := c.resolveObject("downloadFile", bucket, key)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, s4errors.NewObjectError("downloadFile", s4errors.CodeInvalidInput, bucket, key,
			errors.New("file path cannot be empty"))
	}
	return c.downloader.DownloadFile(ctx, bucket, key, path)
}

// Get returns the content of the object at bucket/key.
//
// WARNING: This method loads the entire object into memory. Use Download
// for large objects.
func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	bucket, err := c.resolveObject("get", bucket, key)
	if err != nil {
		return nil, err
	}
	return c.downloader.Get(ctx, bucket, key)
}

func (c *Client) prepareUpload(
	op, bucket, key string,
	opts []s4types.UploadOption,
) (string, s4types.UploadOptionConfig, error) {
	cfg := s4types.UploadOptionConfig{PartSize: c.cfg.PartSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	bucket, err := c.resolveObject(op, bucket, key)
	if err != nil {
		return "", cfg, err
	}

	for _, check := range []func() error{
		func() error { return validation.ValidatePartSize(cfg.PartSize) },
		func() error { return validation.ValidateMetadata(cfg.Metadata) },
		func() error { return validation.ValidateStorageClass(cfg.StorageClass) },
		func() error { return validation.ValidateContentType(cfg.ContentType) },
	} {
		if err := check(); err != nil {
			return "", cfg, withObject(op, bucket, key, err)
		}
	}
	return bucket, cfg, nil
}

func (c *Client) resolveObject(op, bucket, key string) (string, error) {
	bucket, err := c.resolveBucket(op, bucket)
	if err != nil {
		return "", err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return "", withObject(op, bucket, key, err)
	}
	return bucket, nil
}

func (c *Client) resolveBucket(op, bucket string) (string, error) {
	if bucket == "" {
		bucket = c.cfg.DefaultBucket
	}
	if err := validation.ValidateBucketName(bucket); err != nil {
		return "", withOp(op, err)
	}
	return bucket, nil
}

func withOp(op string, err error) error {
	var e *s4errors.Error
	if errors.As(err, &e) {
		e.Op = op
	}
	return err
}

func withObject(op, bucket, key string, err error) error {
	var e *s4errors.Error
	if errors.As(err, &e) {
		e.Op, e.Bucket, e.Key = op, bucket, key
	}
	return err
}
