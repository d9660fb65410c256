package multipart

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// Config holds per-upload settings.
type Config struct {
	PartSize int64
	Object   ObjectOptions
	Progress s4types.ProgressTracker
}

// Uploader drives multipart sessions from a byte source.
type Uploader struct {
	client  API
	parts   *pool.PartPool
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewUploader creates a new multipart uploader.
func NewUploader(client API, logger *slog.Logger, rec *metrics.Recorder) *Uploader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Uploader{
		client:  client,
		parts:   pool.NewPartPool(),
		logger:  logger,
		metrics: rec,
	}
}

// Upload sends src as a multipart upload. size is the source length, or -1
// when unknown, in which case parts are read until the source ends. On any
// error other than a completion failure the upload has been aborted.
func (u *Uploader) Upload(
	ctx context.Context,
	bucket, key string,
	src io.Reader,
	size int64,
	cfg Config,
) (*s4types.UploadResult, error) {
	start := time.Now()
	if cfg.PartSize <= 0 {
		return nil, s4errors.NewError("plan", s4errors.CodeInvalidInput,
			fmt.Errorf("part size must be positive, got %d", cfg.PartSize))
	}

	bufSize := cfg.PartSize
	if size >= 0 {
		bufSize = min(cfg.PartSize, size)
	}

	var parts partReader
	if size >= 0 {
		plan, err := Plan(size, cfg.PartSize)
		if err != nil {
			return nil, err
		}
		parts = &plannedParts{src: src, plan: plan}
	} else {
		parts = &streamedParts{src: bufio.NewReader(src)}
	}

	session := NewSession(u.client, bucket, key, cfg.Object, u.logger, u.metrics)
	if err := session.Start(ctx); err != nil {
		notifyError(cfg.Progress, err)
		return nil, err
	}

	// One buffer serves every part; UploadPart has consumed it before the
	// next part is read.
	buf := u.parts.Get(int(bufSize))
	defer u.parts.Put(buf)

	for {
		number := int32(len(session.parts) + 1)
		data, ok, err := parts.next(buf)
		if err != nil {
			return nil, u.fail(ctx, session, cfg, number, err)
		}
		if !ok {
			break
		}
		if err := session.UploadPart(ctx, number, data); err != nil {
			notifyError(cfg.Progress, err)
			return nil, err
		}
		if cfg.Progress != nil {
			cfg.Progress.Update(session.Size(), size)
		}
	}

	output, err := u.finish(ctx, session)
	if err != nil {
		notifyError(cfg.Progress, err)
		return nil, err
	}
	if cfg.Progress != nil {
		cfg.Progress.Complete()
	}

	return &s4types.UploadResult{
		Key:       key,
		Size:      session.Size(),
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		UploadID:  session.UploadID(),
		Parts:     len(session.parts),
		Duration:  time.Since(start),
	}, nil
}

// finish completes the session. Only a rejected completion leaves the
// upload open; any other failure aborts it.
func (u *Uploader) finish(ctx context.Context, session *Session) (*s3.CompleteMultipartUploadOutput, error) {
	output, err := session.Complete(ctx)
	if err != nil && !errors.Is(err, s4errors.ErrCompletionFailed) {
		return nil, session.Fail(ctx, err)
	}
	return output, err
}

func (u *Uploader) fail(ctx context.Context, session *Session, cfg Config, number int32, err error) error {
	var s4err *s4errors.Error
	if !errors.As(err, &s4err) {
		err = s4errors.NewObjectError("upload", s4errors.CodeSourceReadFailed, session.bucket, session.key, err).
			WithMessage(fmt.Sprintf("read part %d", number))
	}
	err = session.Fail(ctx, err)
	notifyError(cfg.Progress, err)
	return err
}

func notifyError(p s4types.ProgressTracker, err error) {
	if p != nil {
		p.Error(err)
	}
}

// partReader yields the parts of a source one at a time.
type partReader interface {
	// next reads the next part into buf and returns it, or false when no
	// part remains.
	next(buf []byte) ([]byte, bool, error)
}

// plannedParts reads the parts of a source of known size.
type plannedParts struct {
	src  io.Reader
	plan UploadPlan
	idx  int
}

func (p *plannedParts) next(buf []byte) ([]byte, bool, error) {
	if p.idx >= len(p.plan.Parts) {
		return nil, false, nil
	}

	part := p.plan.Parts[p.idx]
	data := buf[:part.Length]
	if _, err := io.ReadFull(p.src, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, false, fmt.Errorf("source ended inside bytes %d-%d of %d: %w",
				part.Offset, part.End(), p.plan.TotalSize, io.ErrUnexpectedEOF)
		}
		return nil, false, err
	}
	p.idx++
	return data, true, nil
}

// streamedParts reads a source of unknown size in parts of len(buf) bytes.
// It never emits an empty trailing part; an empty source yields one
// zero-length part.
type streamedParts struct {
	src     *bufio.Reader
	emitted int
	done    bool
}

func (p *streamedParts) next(buf []byte) ([]byte, bool, error) {
	if p.done {
		return nil, false, nil
	}
	if p.emitted >= s4types.MaxParts {
		return nil, false, s4errors.NewError("plan", s4errors.CodeInvalidInput,
			fmt.Errorf("source exceeds %d parts of %d bytes", s4types.MaxParts, len(buf)))
	}

	n, err := io.ReadFull(p.src, buf)
	switch {
	case err == nil:
		// A full part: peek to learn whether it was the last one.
		if _, peekErr := p.src.Peek(1); peekErr != nil {
			if !errors.Is(peekErr, io.EOF) {
				return nil, false, peekErr
			}
			p.done = true
		}
	case errors.Is(err, io.ErrUnexpectedEOF):
		p.done = true
	case errors.Is(err, io.EOF):
		p.done = true
		if p.emitted > 0 {
			return nil, false, nil
		}
	default:
		return nil, false, err
	}

	p.emitted++
	return buf[:n], true, nil
}
