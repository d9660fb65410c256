package multipart

import (
	"fmt"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

// Part is one contiguous byte range of an object.
type Part struct {
	// Number is the 1-based part number
	Number int32

	// Offset is the first byte of the part within the object
	Offset int64

	// Length is the number of bytes in the part
	Length int64
}

// End returns the offset one past the last byte of the part.
func (p Part) End() int64 {
	return p.Offset + p.Length
}

// UploadPlan is the immutable split of an object into parts.
type UploadPlan struct {
	TotalSize int64
	PartSize  int64
	Parts     []Part
}

// Plan splits totalSize bytes into parts of partSize bytes. The last part
// carries the remainder, or a full part when the size divides evenly, and an
// empty object still gets one zero-length part.
func Plan(totalSize, partSize int64) (UploadPlan, error) {
	if partSize <= 0 {
		return UploadPlan{}, s4errors.NewError("plan", s4errors.CodeInvalidInput,
			fmt.Errorf("part size must be positive, got %d", partSize))
	}
	if totalSize < 0 {
		return UploadPlan{}, s4errors.NewError("plan", s4errors.CodeInvalidInput,
			fmt.Errorf("total size must not be negative, got %d", totalSize))
	}

	count := PartCount(totalSize, partSize)
	if count > s4types.MaxParts {
		return UploadPlan{}, s4errors.NewError("plan", s4errors.CodeInvalidInput,
			fmt.Errorf("%d bytes at part size %d needs %d parts, limit is %d",
				totalSize, partSize, count, s4types.MaxParts))
	}

	parts := make([]Part, count)
	for i := range parts {
		offset := int64(i) * partSize
		parts[i] = Part{
			Number: int32(i + 1),
			Offset: offset,
			Length: min(partSize, totalSize-offset),
		}
	}

	return UploadPlan{
		TotalSize: totalSize,
		PartSize:  partSize,
		Parts:     parts,
	}, nil
}

// PartCount returns the number of parts Plan produces for the given sizes.
// It does not overflow for any positive partSize.
func PartCount(totalSize, partSize int64) int64 {
	if totalSize <= 0 {
		return 1
	}
	return 1 + (totalSize-1)/partSize
}
