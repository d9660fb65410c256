package testutil

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"io"
	"math/rand"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// GenerateRandomData generates deterministic pseudo-random bytes of the given size.
func GenerateRandomData(size int) []byte {
	rng := rand.New(rand.NewSource(int64(size) + 1))
	data := make([]byte, size)
	_, _ = rng.Read(data)
	return data
}

// CalculateETag returns the quoted hex MD5 the service uses as a single-part etag.
func CalculateETag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// CreateGetObjectOutput creates a GetObject output streaming data.
func CreateGetObjectOutput(data []byte, contentType string) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ETag:          aws.String(CalculateETag(data)),
	}
}

// NoSuchKeyError returns the service error for a missing key.
func NoSuchKeyError() error {
	return &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
}

// APIError returns a generic service error with the given code.
func APIError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message}
}

// FailingReader returns data and then fails with err.
type FailingReader struct {
	r   io.Reader
	err error
}

// NewFailingReader creates a reader that yields n bytes and then fails with err.
func NewFailingReader(n int, err error) *FailingReader {
	return &FailingReader{r: strings.NewReader(strings.Repeat("x", n)), err: err}
}

func (f *FailingReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err == io.EOF {
		return n, f.err
	}
	return n, err
}
