package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// opaqueReader hides the concrete reader so nothing can learn its length.
type opaqueReader struct {
	r io.Reader
}

func (o opaqueReader) Read(p []byte) (int, error) {
	return o.r.Read(p)
}

func partSizes(fake *testutil.FakeS3) []int64 {
	var sizes []int64
	for _, c := range fake.CallsOf(testutil.OpUploadPart) {
		sizes = append(sizes, c.Size)
	}
	return sizes
}

func TestUploader_Upload_PathSelection(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		known     bool
		partSize  int64
		threshold int64
		wantPut   bool
		wantParts []int64
	}{
		{name: "no part size puts everything", size: 50, known: true, threshold: 8, wantPut: true},
		{name: "no part size streamed", size: 50, threshold: 8, wantPut: true},
		{name: "one part below threshold", size: 7, known: true, partSize: 10, threshold: 100, wantPut: true},
		{name: "empty known source", size: 0, known: true, partSize: 10, threshold: 100, wantPut: true},
		{name: "one part at threshold", size: 8, known: true, partSize: 10, threshold: 8, wantParts: []int64{8}},
		{name: "several parts", size: 25, known: true, partSize: 10, threshold: 100, wantParts: []int64{10, 10, 5}},
		{name: "streamed short", size: 7, partSize: 10, threshold: 100, wantPut: true},
		{name: "streamed exactly one part", size: 10, partSize: 10, threshold: 100, wantPut: true},
		{name: "streamed empty", size: 0, partSize: 10, threshold: 100, wantPut: true},
		{name: "streamed several parts", size: 25, partSize: 10, threshold: 100, wantParts: []int64{10, 10, 5}},
		{name: "streamed above small threshold", size: 6, partSize: 10, threshold: 4, wantParts: []int64{6}},
		{name: "streamed exactly threshold", size: 8, partSize: 10, threshold: 8, wantParts: []int64{8}},
		{name: "max part size above threshold", size: 64, known: true, partSize: math.MaxInt64, threshold: 32, wantParts: []int64{64}},
		{name: "max part size below threshold", size: 16, known: true, partSize: math.MaxInt64, threshold: 32, wantPut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeS3("bucket")
			u := New(fake, tt.threshold, nil, nil)
			data := testutil.GenerateRandomData(tt.size)

			req := Request{
				Bucket:  "bucket",
				Key:     "obj",
				Body:    opaqueReader{r: bytes.NewReader(data)},
				Size:    -1,
				Options: s4types.UploadOptionConfig{PartSize: tt.partSize},
			}
			if tt.known {
				req.Size = int64(tt.size)
			}

			result, err := u.Upload(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, int64(tt.size), result.Size)

			if tt.wantPut {
				assert.Equal(t, 1, fake.CallCount(testutil.OpPut))
				assert.Zero(t, fake.CallCount(testutil.OpCreate))
				assert.Empty(t, result.UploadID)
				assert.Zero(t, result.Parts)
			} else {
				assert.Zero(t, fake.CallCount(testutil.OpPut))
				assert.Equal(t, tt.wantParts, partSizes(fake))
				assert.NotEmpty(t, result.UploadID)
				assert.Equal(t, len(tt.wantParts), result.Parts)
			}

			stored, ok := fake.Object("bucket", "obj")
			require.True(t, ok)
			assert.Equal(t, data, stored)
			assert.Zero(t, fake.OpenUploads())
		})
	}
}

func TestUploader_Upload_DefaultThreshold(t *testing.T) {
	u := New(testutil.NewFakeS3(), 0, nil, nil)
	assert.Equal(t, s4types.DefaultMultipartThreshold, u.Threshold())
}

func TestUploader_ContentType(t *testing.T) {
	pdf := append([]byte("%PDF-1.4\n"), testutil.GenerateRandomData(16)...)

	tests := []struct {
		name        string
		data        []byte
		contentType string
		partSize    int64
		want        string
	}{
		{name: "detected for put", data: pdf, want: "application/pdf"},
		{name: "detected for multipart", data: pdf, partSize: 10, want: "application/pdf"},
		{name: "explicit type kept", data: pdf, contentType: "application/x-custom", want: "application/x-custom"},
		{name: "empty body", data: []byte{}, want: DefaultContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeS3("bucket")
			u := New(fake, 8, nil, nil)

			_, err := u.Upload(context.Background(), Request{
				Bucket: "bucket",
				Key:    "doc",
				Body:   bytes.NewReader(tt.data),
				Size:   int64(len(tt.data)),
				Options: s4types.UploadOptionConfig{
					ContentType: tt.contentType,
					PartSize:    tt.partSize,
				},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, fake.ContentType("bucket", "doc"))
		})
	}
}

func TestUploader_SourceFailures(t *testing.T) {
	boom := errors.New("disk gone")

	tests := []struct {
		name     string
		body     io.Reader
		size     int64
		partSize int64
		wantErr  error
	}{
		{name: "read all fails", body: testutil.NewFailingReader(5, boom), size: -1, wantErr: boom},
		{name: "stream head fails", body: testutil.NewFailingReader(5, boom), size: -1, partSize: 10, wantErr: boom},
		{name: "known size short", body: bytes.NewReader([]byte("abc")), size: 5, partSize: 10, wantErr: io.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeS3("bucket")
			u := New(fake, 100, nil, nil)
			progress := &testutil.MockProgressTracker{}

			_, err := u.Upload(context.Background(), Request{
				Bucket: "bucket",
				Key:    "obj",
				Body:   tt.body,
				Size:   tt.size,
				Options: s4types.UploadOptionConfig{
					PartSize:        tt.partSize,
					ProgressTracker: progress,
				},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, s4errors.ErrSourceReadFailed)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, fake.Calls)
			assert.True(t, progress.ErrorCalled)
			assert.False(t, progress.CompleteCalled)
		})
	}
}

func TestUploader_MultipartSourceFailureAborts(t *testing.T) {
	fake := testutil.NewFakeS3("bucket")
	u := New(fake, 100, nil, nil)
	boom := errors.New("pipe closed")

	_, err := u.Upload(context.Background(), Request{
		Bucket:  "bucket",
		Key:     "obj",
		Body:    testutil.NewFailingReader(25, boom),
		Size:    -1,
		Options: s4types.UploadOptionConfig{PartSize: 10},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, s4errors.ErrSourceReadFailed)
	assert.Equal(t, 1, fake.CallCount(testutil.OpAbort))
	assert.Zero(t, fake.CallCount(testutil.OpComplete))
	assert.Zero(t, fake.OpenUploads())
	_, ok := fake.Object("bucket", "obj")
	assert.False(t, ok)
}

func TestUploader_Put(t *testing.T) {
	t.Run("stores data and reports progress", func(t *testing.T) {
		fake := testutil.NewFakeS3("bucket")
		u := New(fake, 0, nil, nil)
		progress := &testutil.MockProgressTracker{}

		result, err := u.Put(context.Background(), "bucket", "cfg.json", []byte(`{"a":1}`),
			s4types.UploadOptionConfig{
				ContentType:     "application/json",
				Metadata:        map[string]string{"owner": "ops"},
				ProgressTracker: progress,
			})
		require.NoError(t, err)
		assert.Equal(t, int64(7), result.Size)
		assert.Equal(t, testutil.CalculateETag([]byte(`{"a":1}`)), result.ETag)
		assert.Equal(t, "application/json", fake.ContentType("bucket", "cfg.json"))
		assert.True(t, progress.CompleteCalled)
		assert.Equal(t, testutil.ProgressUpdate{Transferred: 7, Total: 7}, progress.Last())
	})

	t.Run("missing bucket", func(t *testing.T) {
		fake := testutil.NewFakeS3()
		u := New(fake, 0, nil, nil)

		_, err := u.Put(context.Background(), "nope", "k", []byte("x"), s4types.UploadOptionConfig{})
		require.Error(t, err)
		assert.ErrorIs(t, err, s4errors.ErrBucketNotFound)
		assert.Equal(t, s4errors.CodeBucketNotFound, s4errors.CodeOf(err))
	})

	t.Run("access denied", func(t *testing.T) {
		mock := testutil.NewMockBuilder().WithAccessDenied().Build()
		u := New(mock, 0, nil, nil)

		_, err := u.Put(context.Background(), "bucket", "k", []byte("x"), s4types.UploadOptionConfig{})
		require.Error(t, err)
		assert.ErrorIs(t, err, s4errors.ErrAccessDenied)
	})
}
