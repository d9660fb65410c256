package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name   string
		bucket string
		errMsg string
	}{
		{"valid_simple", "my-bucket", ""},
		{"valid_with_numbers", "my-bucket123", ""},
		{"valid_with_dots", "my.bucket", ""},
		{"valid_starts_with_number", "1bucket", ""},
		{"valid_min_length", "abc", ""},
		{"valid_max_length", strings.Repeat("a", 63), ""},

		{"empty", "", "bucket name cannot be empty"},
		{"too_short", "ab", "between 3 and 63 characters"},
		{"too_long", strings.Repeat("a", 64), "between 3 and 63 characters"},
		{"starts_with_hyphen", "-bucket", "cannot start or end with a hyphen or dot"},
		{"ends_with_dot", "bucket.", "cannot start or end with a hyphen or dot"},
		{"contains_uppercase", "MyBucket", "can only contain lowercase letters"},
		{"contains_underscore", "my_bucket", "can only contain lowercase letters"},
		{"ip_address", "192.168.1.1", "formatted as an IP address"},
		{"double_dots", "my..bucket", "two adjacent periods or hyphens"},
		{"double_hyphens", "my--bucket", "two adjacent periods or hyphens"},
		{"localhost", "localhost", "reserved word"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, s4errors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		errMsg string
	}{
		{"valid_simple", "my-file.txt", ""},
		{"valid_with_path", "folder/subfolder/file.txt", ""},
		{"valid_unicode", "файл.txt", ""},
		{"valid_spaces", "file with spaces.txt", ""},
		{"valid_dot_segments", "logs/../2024/01.log", ""},
		{"valid_leading_slash", "/rooted", ""},
		{"valid_max_length", strings.Repeat("k", 1024), ""},

		{"empty", "", "object key cannot be empty"},
		{"too_long", strings.Repeat("a", 1025), "cannot exceed 1024 bytes"},
		{"invalid_utf8", "bad\xffkey", "must be valid UTF-8"},
		{"control_characters", "file\x00null.txt", "cannot contain control characters"},
		{"newline", "file\nname", "cannot contain control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, s4errors.IsInvalidInput(err))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	assert.NoError(t, ValidatePrefix(""))
	assert.NoError(t, ValidatePrefix("photos/2024/"))
	assert.ErrorIs(t, ValidatePrefix("a\tb"), s4errors.ErrInvalidInput)
	assert.ErrorIs(t, ValidatePrefix(strings.Repeat("p", 1025)), s4errors.ErrInvalidInput)
}

func TestValidatePartSize(t *testing.T) {
	assert.NoError(t, ValidatePartSize(0))
	assert.NoError(t, ValidatePartSize(s4types.MinPartSize))
	assert.ErrorIs(t, ValidatePartSize(-1), s4errors.ErrInvalidInput)
	assert.NoError(t, ValidatePartSize(s4types.MaxPartSize))
	assert.ErrorIs(t, ValidatePartSize(s4types.MaxPartSize+1), s4errors.ErrInvalidInput)
	assert.ErrorIs(t, ValidatePartSize(math.MaxInt64), s4errors.ErrInvalidInput)
}

func TestValidateStorageClass(t *testing.T) {
	assert.NoError(t, ValidateStorageClass(""))
	assert.NoError(t, ValidateStorageClass(s4types.StorageClassGlacierIR))
	assert.ErrorIs(t, ValidateStorageClass("COLD"), s4errors.ErrInvalidInput)
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
		errMsg   string
	}{
		{"nil", nil, ""},
		{"valid", map[string]string{"author": "ops", "note": "a\tb"}, ""},
		{"empty_key", map[string]string{"": "v"}, "cannot be empty"},
		{"long_key", map[string]string{strings.Repeat("k", 129): "v"}, "cannot exceed 128"},
		{"reserved_prefix", map[string]string{"X-Amz-Meta": "v"}, "reserved prefix"},
		{"space_in_key", map[string]string{"my key": "v"}, "printable ASCII"},
		{"long_value", map[string]string{"k": strings.Repeat("v", 2049)}, "cannot exceed 2048"},
		{"control_in_value", map[string]string{"k": "a\x01b"}, "printable characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetadata(tt.metadata)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, s4errors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateContentType(t *testing.T) {
	for _, valid := range []string{"", "text/plain", "application/vnd.api+json", "text/html; charset=utf-8"} {
		assert.NoError(t, ValidateContentType(valid), valid)
	}
	for _, invalid := range []string{"plain", "/json", "text/", "text plain"} {
		assert.ErrorIs(t, ValidateContentType(invalid), s4errors.ErrInvalidInput, invalid)
	}
}
