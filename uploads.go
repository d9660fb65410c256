package s4

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// ListMultipartUploads returns the multipart uploads in bucket that are
// neither completed nor aborted, for keys starting with prefix.
func (c *Client) ListMultipartUploads(ctx context.Context, bucket, prefix string) ([]s4types.MultipartUpload, error) {
	uploads, _, err := c.listUploads(ctx, "listMultipartUploads", bucket, prefix)
	return uploads, err
}

// listUploads pages through the open uploads and returns them with the
// resolved bucket.
func (c *Client) listUploads(ctx context.Context, op, bucket, prefix string) ([]s4types.MultipartUpload, string, error) {
	bucket, err := c.resolveBucket(op, bucket)
	if err != nil {
		return nil, "", err
	}
	if err := validation.ValidatePrefix(prefix); err != nil {
		return nil, "", withOp(op, err)
	}

	input := &s3.ListMultipartUploadsInput{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var uploads []s4types.MultipartUpload
	for {
		output, err := c.s3Client.ListMultipartUploads(ctx, input)
		if err != nil {
			return nil, "", s4errors.NewObjectError(op,
				s4errors.ServiceCode(err, s4errors.CodeListingFailed), bucket, "", err)
		}
		for _, u := range output.Uploads {
			uploads = append(uploads, s4types.MultipartUpload{
				Key:       aws.ToString(u.Key),
				UploadID:  aws.ToString(u.UploadId),
				Initiated: aws.ToTime(u.Initiated),
			})
		}
		if !aws.ToBool(output.IsTruncated) {
			return uploads, bucket, nil
		}
		input.KeyMarker = output.NextKeyMarker
		input.UploadIdMarker = output.NextUploadIdMarker
	}
}

// AbortUpload aborts the multipart upload uploadID of bucket/key, discarding
// its parts.
func (c *Client) AbortUpload(ctx context.Context, bucket, key, uploadID string) error {
	bucket, err := c.resolveObject("abortUpload", bucket, key)
	if err != nil {
		return err
	}
	if uploadID == "" {
		return s4errors.NewObjectError("abortUpload", s4errors.CodeInvalidInput, bucket, key,
			errors.New("upload id cannot be empty"))
	}

	session := multipart.ResumeSession(c.s3Client, bucket, key, uploadID, nil, c.logger, c.metrics)
	return session.Abort(ctx)
}

// CompleteUpload completes the multipart upload uploadID of bucket/key from
// parts, typically those carried by a failed completion:
//
//	if ce, ok := s4errors.AsCompletionError(err); ok {
//	    _, err = client.CompleteUpload(ctx, bucket, key, ce.UploadID, ce.Parts)
//	}
//
// A failure leaves the upload open and returns a CompletionFailed error again.
func (c *Client) CompleteUpload(
	ctx context.Context,
	bucket, key, uploadID string,
	parts []s4types.CompletedPart,
) (*s4types.UploadResult, error) {
	start := time.Now()
	bucket, err := c.resolveObject("completeUpload", bucket, key)
	if err != nil {
		return nil, err
	}
	if uploadID == "" {
		return nil, s4errors.NewObjectError("completeUpload", s4errors.CodeInvalidInput, bucket, key,
			errors.New("upload id cannot be empty"))
	}
	for i, p := range parts {
		if p.PartNumber != int32(i+1) {
			return nil, s4errors.NewObjectError("completeUpload", s4errors.CodeInvalidInput, bucket, key,
				errors.New("parts must be numbered consecutively from 1"))
		}
	}

	session := multipart.ResumeSession(c.s3Client, bucket, key, uploadID, parts, c.logger, c.metrics)
	output, err := session.Complete(ctx)
	if err != nil {
		return nil, err
	}
	return &s4types.UploadResult{
		Key:       key,
		Size:      session.Size(),
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		UploadID:  uploadID,
		Parts:     len(parts),
		Duration:  time.Since(start),
	}, nil
}

// AbortIncompleteUploads aborts every open multipart upload in bucket for
// keys starting with prefix and returns how many were aborted. It keeps
// going after a failed abort and returns the joined errors.
func (c *Client) AbortIncompleteUploads(ctx context.Context, bucket, prefix string) (int, error) {
	uploads, bucket, err := c.listUploads(ctx, "abortIncompleteUploads", bucket, prefix)
	if err != nil {
		return 0, err
	}

	aborted := 0
	var errs []error
	for _, u := range uploads {
		session := multipart.ResumeSession(c.s3Client, bucket, u.Key, u.UploadID, nil, c.logger, c.metrics)
		if err := session.Abort(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		aborted++
	}
	return aborted, errors.Join(errs...)
}
