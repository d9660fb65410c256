package testutil

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// MockBuilder provides a fluent interface for configuring MockS3Client.
type MockBuilder struct {
	client *MockS3Client
}

// NewMockBuilder creates a new MockBuilder.
func NewMockBuilder() *MockBuilder {
	return &MockBuilder{
		client: &MockS3Client{},
	}
}

// Build returns the configured MockS3Client.
func (b *MockBuilder) Build() *MockS3Client {
	return b.client
}

// WithListPages serves the given pages of keys in order. Each page but the
// last carries a continuation token "page-<next index>". Requests made past
// the last page fail.
func (b *MockBuilder) WithListPages(pages ...[]string) *MockBuilder {
	b.client.ListObjectsV2Func = func(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
		idx := 0
		if token := aws.ToString(params.ContinuationToken); token != "" {
			if _, err := fmt.Sscanf(token, "page-%d", &idx); err != nil {
				return nil, fmt.Errorf("bad continuation token %q", token)
			}
		}
		if idx >= len(pages) {
			return nil, fmt.Errorf("page %d requested after exhaustion", idx)
		}

		out := &s3.ListObjectsV2Output{
			Name:     params.Bucket,
			Prefix:   params.Prefix,
			MaxKeys:  params.MaxKeys,
			KeyCount: aws.Int32(int32(len(pages[idx]))),
		}
		for _, key := range pages[idx] {
			out.Contents = append(out.Contents, CreateTestObject(key, int64(len(key))))
		}
		if idx+1 < len(pages) {
			out.IsTruncated = aws.Bool(true)
			out.NextContinuationToken = aws.String(fmt.Sprintf("page-%d", idx+1))
		}
		return out, nil
	}
	return b
}

// WithGetObject configures the GetObject behavior.
func (b *MockBuilder) WithGetObject(
	fn func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error),
) *MockBuilder {
	b.client.GetObjectFunc = func(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithObjectBodies serves GetObject from a key to content map and reports
// NoSuchKey for other keys.
func (b *MockBuilder) WithObjectBodies(bodies map[string]string) *MockBuilder {
	return b.WithGetObject(func(_ context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		body, ok := bodies[aws.ToString(params.Key)]
		if !ok {
			return nil, NoSuchKeyError()
		}
		return CreateGetObjectOutput([]byte(body), "text/plain"), nil
	})
}

// WithObjectNotFound configures the mock to return object not found errors.
func (b *MockBuilder) WithObjectNotFound() *MockBuilder {
	b.client.GetObjectFunc = func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return nil, NoSuchKeyError()
	}
	return b
}

// WithSuccessfulPut configures the mock to accept every put.
func (b *MockBuilder) WithSuccessfulPut() *MockBuilder {
	b.client.PutObjectFunc = func(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		if params.Body != nil {
			_, _ = io.Copy(io.Discard, params.Body)
		}
		return &s3.PutObjectOutput{
			ETag: aws.String(`"test-etag"`),
		}, nil
	}
	return b
}

// WithMultipartUpload configures the mock to accept a multipart upload with
// upload id "test-upload-id"; part etags are "etag-<part number>".
func (b *MockBuilder) WithMultipartUpload() *MockBuilder {
	b.client.CreateMultipartUploadFunc = func(_ context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		return &s3.CreateMultipartUploadOutput{
			UploadId: aws.String("test-upload-id"),
			Bucket:   params.Bucket,
			Key:      params.Key,
		}, nil
	}

	b.client.UploadPartFunc = func(_ context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		if params.Body != nil {
			_, _ = io.Copy(io.Discard, params.Body)
		}
		return &s3.UploadPartOutput{
			ETag: aws.String(fmt.Sprintf("etag-%d", aws.ToInt32(params.PartNumber))),
		}, nil
	}

	b.client.CompleteMultipartUploadFunc = func(_ context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		return &s3.CompleteMultipartUploadOutput{
			ETag:   aws.String(`"multipart-etag"`),
			Bucket: params.Bucket,
			Key:    params.Key,
		}, nil
	}

	b.client.AbortMultipartUploadFunc = func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		return &s3.AbortMultipartUploadOutput{}, nil
	}

	return b
}

// WithFailedPart makes part number n fail with err. It must be applied
// after WithMultipartUpload.
func (b *MockBuilder) WithFailedPart(n int32, err error) *MockBuilder {
	next := b.client.UploadPartFunc
	b.client.UploadPartFunc = func(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		if aws.ToInt32(params.PartNumber) == n {
			return nil, err
		}
		return next(ctx, params, optFns...)
	}
	return b
}

// WithAccessDenied configures every operation to fail with AccessDenied.
func (b *MockBuilder) WithAccessDenied() *MockBuilder {
	denied := APIError("AccessDenied", "Access Denied")

	b.client.ListObjectsV2Func = func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
		return nil, denied
	}
	b.client.GetObjectFunc = func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return nil, denied
	}
	b.client.PutObjectFunc = func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, denied
	}
	b.client.CreateMultipartUploadFunc = func(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		return nil, denied
	}
	return b
}

// CreateTestObject creates a listing entry for testing.
func CreateTestObject(key string, size int64) types.Object {
	return types.Object{
		Key:          aws.String(key),
		Size:         aws.Int64(size),
		ETag:         aws.String(CalculateETag([]byte(key))),
		StorageClass: types.ObjectStorageClassStandard,
	}
}
