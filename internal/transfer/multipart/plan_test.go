package multipart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPlan(t *testing.T) {
	const partSize = 8

	tests := []struct {
		name      string
		total     int64
		wantParts int
		wantLast  int64
	}{
		{name: "empty object", total: 0, wantParts: 1, wantLast: 0},
		{name: "one byte", total: 1, wantParts: 1, wantLast: 1},
		{name: "one below part size", total: partSize - 1, wantParts: 1, wantLast: partSize - 1},
		{name: "exactly part size", total: partSize, wantParts: 1, wantLast: partSize},
		{name: "one above part size", total: partSize + 1, wantParts: 2, wantLast: 1},
		{name: "two parts", total: 2 * partSize, wantParts: 2, wantLast: partSize},
		{name: "three parts", total: 3 * partSize, wantParts: 3, wantLast: partSize},
		{name: "four parts", total: 4 * partSize, wantParts: 4, wantLast: partSize},
		{name: "one below four parts", total: 4*partSize - 1, wantParts: 4, wantLast: partSize - 1},
		{name: "one above four parts", total: 4*partSize + 1, wantParts: 5, wantLast: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Plan(tt.total, partSize)
			require.NoError(t, err)

			require.Len(t, plan.Parts, tt.wantParts)
			assert.Equal(t, tt.total, plan.TotalSize)
			assert.Equal(t, int64(partSize), plan.PartSize)
			assert.Equal(t, tt.wantLast, plan.Parts[len(plan.Parts)-1].Length)
			assert.Equal(t, tt.total-int64(tt.wantParts-1)*partSize, plan.Parts[len(plan.Parts)-1].Length)

			// Ranges tile [0, total) with no gap or overlap.
			var offset int64
			for i, p := range plan.Parts {
				assert.Equal(t, int32(i+1), p.Number)
				assert.Equal(t, offset, p.Offset, "part %d starts where the previous ended", p.Number)
				if i < len(plan.Parts)-1 {
					assert.Equal(t, int64(partSize), p.Length)
				}
				offset = p.End()
			}
			assert.Equal(t, tt.total, offset)
			assert.Equal(t, int64(tt.wantParts), PartCount(tt.total, partSize))
		})
	}
}

func TestPlan_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		partSize int64
		contains string
	}{
		{name: "zero part size", total: 10, partSize: 0, contains: "part size must be positive"},
		{name: "negative part size", total: 10, partSize: -1, contains: "part size must be positive"},
		{name: "negative total", total: -1, partSize: 8, contains: "must not be negative"},
		{name: "too many parts", total: 10001, partSize: 1, contains: "limit is 10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.total, tt.partSize)
			require.Error(t, err)
			assert.ErrorIs(t, err, s4errors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestPlan_MaxParts(t *testing.T) {
	plan, err := Plan(10000, 1)
	require.NoError(t, err)
	assert.Len(t, plan.Parts, 10000)
}

func TestPlan_LargePartSize(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		partSize int64
	}{
		{name: "max part size", total: 64, partSize: math.MaxInt64},
		{name: "max part size one byte", total: 1, partSize: math.MaxInt64},
		{name: "max total and part size", total: math.MaxInt64, partSize: math.MaxInt64},
		{name: "part size just above total", total: 64, partSize: math.MaxInt64 - 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, int64(1), PartCount(tt.total, tt.partSize))

			plan, err := Plan(tt.total, tt.partSize)
			require.NoError(t, err)
			require.Len(t, plan.Parts, 1)
			assert.Equal(t, tt.total, plan.Parts[0].Length)
			assert.Equal(t, tt.total, plan.Parts[0].End())
		})
	}
}

func TestPartCount_NearOverflow(t *testing.T) {
	assert.Equal(t, int64(2), PartCount(math.MaxInt64, math.MaxInt64/2+1))
	assert.Equal(t, int64(math.MaxInt64), PartCount(math.MaxInt64, 1))
}
