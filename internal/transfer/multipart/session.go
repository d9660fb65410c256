package multipart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// API is the subset of the collaborator a session needs.
type API interface {
	CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// ObjectOptions are applied when the upload is created.
type ObjectOptions struct {
	ContentType  string
	Metadata     map[string]string
	StorageClass s4types.StorageClass
}

// Session is one multipart upload at the service. It is not safe for
// concurrent use.
type Session struct {
	client   API
	bucket   string
	key      string
	object   ObjectOptions
	uploadID string
	parts    []s4types.CompletedPart
	size     int64
	state    State
	logger   *slog.Logger
	metrics  *metrics.Recorder
}

// NewSession creates a session in StateNotStarted.
func NewSession(client API, bucket, key string, object ObjectOptions, logger *slog.Logger, rec *metrics.Recorder) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		client:  client,
		bucket:  bucket,
		key:     key,
		object:  object,
		state:   StateNotStarted,
		logger:  logger,
		metrics: rec,
	}
}

// ResumeSession returns an active session for an upload created elsewhere,
// such as one whose completion failed. parts must be in part-number order.
func ResumeSession(client API, bucket, key, uploadID string, parts []s4types.CompletedPart, logger *slog.Logger, rec *metrics.Recorder) *Session {
	s := NewSession(client, bucket, key, ObjectOptions{}, logger, rec)
	s.uploadID = uploadID
	s.parts = slices.Clone(parts)
	for _, p := range parts {
		s.size += p.Size
	}
	s.state = StateActive
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// UploadID returns the service upload id, empty before Start succeeds.
func (s *Session) UploadID() string {
	return s.uploadID
}

// Parts returns a copy of the parts accepted so far, in part-number order.
func (s *Session) Parts() []s4types.CompletedPart {
	return slices.Clone(s.parts)
}

// Size returns the number of bytes accepted so far.
func (s *Session) Size() int64 {
	return s.size
}

func (s *Session) step(ev event) (call, error) {
	next, c, err := transition(s.state, ev)
	if err != nil {
		return callNone, err
	}
	s.state = next
	return c, nil
}

// Start creates the upload and moves the session to StateActive. On failure
// the session stays in StateNotStarted and nothing needs cleaning up.
func (s *Session) Start(ctx context.Context) error {
	if _, err := s.step(eventStart); err != nil {
		return err
	}

	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}
	if s.object.ContentType != "" {
		input.ContentType = aws.String(s.object.ContentType)
	}
	if s.object.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(s.object.StorageClass)
	}
	if len(s.object.Metadata) > 0 {
		input.Metadata = s.object.Metadata
	}

	output, err := s.client.CreateMultipartUpload(ctx, input)
	if err == nil && aws.ToString(output.UploadId) == "" {
		err = errors.New("response is missing upload id")
	}
	if err != nil {
		_, _ = s.step(eventCreateFailed)
		return s4errors.NewObjectError("createMultipartUpload", s4errors.CodeUploadStartFailed, s.bucket, s.key, err)
	}

	s.uploadID = aws.ToString(output.UploadId)
	_, _ = s.step(eventCreated)
	s.logger.InfoContext(ctx, "started multipart upload",
		"bucket", s.bucket,
		"key", s.key,
		"upload_id", s.uploadID,
	)
	return nil
}

// UploadPart sends the next part. number must follow the last accepted part.
// A rejected part aborts the upload and the returned error wraps
// ErrPartUploadFailed.
func (s *Session) UploadPart(ctx context.Context, number int32, data []byte) error {
	if s.state == StateActive && int(number) != len(s.parts)+1 {
		return s4errors.NewObjectError("uploadPart", s4errors.CodeInvalidInput, s.bucket, s.key,
			fmt.Errorf("part %d out of order, expected %d", number, len(s.parts)+1))
	}
	if _, err := s.step(eventSendPart); err != nil {
		return err
	}

	output, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		UploadId:      aws.String(s.uploadID),
		PartNumber:    aws.Int32(number),
		ContentLength: aws.Int64(int64(len(data))),
		Body:          bytes.NewReader(data),
	})
	if err == nil && aws.ToString(output.ETag) == "" {
		err = errors.New("response is missing etag")
	}
	if err != nil {
		cause := s4errors.NewObjectError("uploadPart", s4errors.CodePartUploadFailed, s.bucket, s.key, err).
			WithMessage(fmt.Sprintf("part %d", number))
		return s.abort(ctx, eventPartFailed, cause)
	}

	s.parts = append(s.parts, s4types.CompletedPart{
		PartNumber: number,
		ETag:       aws.ToString(output.ETag),
		Size:       int64(len(data)),
	})
	s.size += int64(len(data))
	s.metrics.PartUploaded(int64(len(data)))
	s.logger.DebugContext(ctx, "uploaded part",
		"key", s.key,
		"upload_id", s.uploadID,
		"part", number,
		"size", len(data),
	)
	return nil
}

// Fail aborts the upload because the source failed. cause is returned,
// joined with the abort error if the abort itself fails.
func (s *Session) Fail(ctx context.Context, cause error) error {
	return s.abort(ctx, eventSourceFailed, cause)
}

// Abort discards an active upload, for example after a failed completion.
func (s *Session) Abort(ctx context.Context) error {
	return s.abort(ctx, eventAbort, nil)
}

func (s *Session) abort(ctx context.Context, ev event, cause error) error {
	if _, err := s.step(ev); err != nil {
		return errors.Join(cause, err)
	}

	// Cleanup must reach the service even when ctx was cancelled.
	_, err := s.client.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.key),
		UploadId: aws.String(s.uploadID),
	})
	if err != nil {
		s.metrics.UploadFinished(metrics.OutcomeAbortFailed)
		abortErr := s4errors.NewObjectError("abortMultipartUpload", s4errors.CodeAbortFailed, s.bucket, s.key, err)
		s.logger.ErrorContext(ctx, "failed to abort multipart upload",
			"bucket", s.bucket,
			"key", s.key,
			"upload_id", s.uploadID,
			"error", err,
		)
		return errors.Join(cause, abortErr)
	}

	s.metrics.UploadFinished(metrics.OutcomeAborted)
	s.logger.WarnContext(ctx, "aborted multipart upload",
		"bucket", s.bucket,
		"key", s.key,
		"upload_id", s.uploadID,
		"parts", len(s.parts),
		"cause", cause,
	)
	return cause
}

// Complete assembles the accepted parts into the object. If the service
// rejects the request the session stays active and the error carries a
// *errors.CompletionError with the upload id and parts.
func (s *Session) Complete(ctx context.Context) (*s3.CompleteMultipartUploadOutput, error) {
	if s.state == StateActive && len(s.parts) == 0 {
		return nil, s4errors.NewObjectError("completeMultipartUpload", s4errors.CodeInvalidState, s.bucket, s.key,
			errors.New("no parts uploaded"))
	}
	if _, err := s.step(eventFinish); err != nil {
		return nil, err
	}

	completed := make([]awstypes.CompletedPart, 0, len(s.parts))
	for _, p := range s.parts {
		completed = append(completed, awstypes.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.PartNumber),
		})
	}

	output, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.key),
		UploadId: aws.String(s.uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		_, _ = s.step(eventCompleteFailed)
		s.metrics.UploadFinished(metrics.OutcomeFailed)
		s.logger.ErrorContext(ctx, "failed to complete multipart upload; upload left open",
			"bucket", s.bucket,
			"key", s.key,
			"upload_id", s.uploadID,
			"parts", len(s.parts),
			"error", err,
		)
		return nil, s4errors.NewObjectError("completeMultipartUpload", s4errors.CodeCompletionFailed, s.bucket, s.key,
			&s4errors.CompletionError{
				UploadID: s.uploadID,
				Parts:    s.Parts(),
				Err:      err,
			})
	}

	_, _ = s.step(eventCompleted)
	s.metrics.UploadFinished(metrics.OutcomeCompleted)
	s.logger.InfoContext(ctx, "completed multipart upload",
		"bucket", s.bucket,
		"key", s.key,
		"upload_id", s.uploadID,
		"parts", len(s.parts),
		"size", s.size,
	)
	return output, nil
}
