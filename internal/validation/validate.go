package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	s4errors "github.com/input-output-hk/catalyst-forge-libs/aws/s4/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s4/s4types"
)

const (
	maxKeyLength           = 1024
	maxMetadataKeyLength   = 128
	maxMetadataValueLength = 2048
)

var mimePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-+.]*/[a-zA-Z0-9][a-zA-Z0-9\-+.]*(\s*;.*)?$`)

// ValidateBucketName reports whether bucket is a DNS-compliant bucket name.
func ValidateBucketName(bucket string) error {
	fail := func(msg string) error {
		return s4errors.NewObjectError("validate", s4errors.CodeInvalidInput, bucket, "", errors.New(msg))
	}

	if bucket == "" {
		return fail("bucket name cannot be empty")
	}
	if len(bucket) < 3 || len(bucket) > 63 {
		return fail("bucket name must be between 3 and 63 characters long")
	}
	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return fail("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}
	if strings.ContainsAny(bucket[:1], ".-") || strings.ContainsAny(bucket[len(bucket)-1:], ".-") {
		return fail("bucket name cannot start or end with a hyphen or dot")
	}
	if isIPAddress(bucket) {
		return fail("bucket name cannot be formatted as an IP address")
	}
	if strings.Contains(bucket, "..") || strings.Contains(bucket, "--") {
		return fail("bucket name cannot contain two adjacent periods or hyphens")
	}
	if bucket == "localhost" {
		return fail("bucket name cannot be a reserved word")
	}
	return nil
}

// ValidateObjectKey reports whether key can name an object.
func ValidateObjectKey(key string) error {
	if key == "" {
		return invalidKey(key, "object key cannot be empty")
	}
	return validateKeyText(key, "object key")
}

// ValidatePrefix reports whether prefix can filter a listing. The empty
// prefix lists the whole bucket.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	return validateKeyText(prefix, "prefix")
}

// ValidatePartSize reports whether size can be used as a multipart part
// size. Zero selects the single-put path and is accepted.
func ValidatePartSize(size int64) error {
	if size < 0 {
		return s4errors.NewError("validate", s4errors.CodeInvalidInput,
			fmt.Errorf("part size cannot be negative, got %d", size))
	}
	if size > s4types.MaxPartSize {
		return s4errors.NewError("validate", s4errors.CodeInvalidInput,
			fmt.Errorf("part size %d exceeds the maximum of %d", size, s4types.MaxPartSize))
	}
	return nil
}

// ValidateStorageClass reports whether class is empty or a known storage class.
func ValidateStorageClass(class s4types.StorageClass) error {
	switch class {
	case "",
		s4types.StorageClassStandard,
		s4types.StorageClassReducedRedundancy,
		s4types.StorageClassStandardIA,
		s4types.StorageClassOneZoneIA,
		s4types.StorageClassGlacier,
		s4types.StorageClassDeepArchive,
		s4types.StorageClassIntelligentTiering,
		s4types.StorageClassGlacierIR:
		return nil
	}
	return s4errors.NewError("validate", s4errors.CodeInvalidInput,
		fmt.Errorf("unknown storage class %q", class))
}

// ValidateMetadata validates user metadata keys and values.
func ValidateMetadata(metadata map[string]string) error {
	for key, value := range metadata {
		if err := validateMetadataKey(key); err != nil {
			return err
		}
		if err := validateMetadataValue(key, value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateContentType reports whether contentType is empty or looks like a
// MIME type.
func ValidateContentType(contentType string) error {
	if contentType == "" || mimePattern.MatchString(contentType) {
		return nil
	}
	return s4errors.NewError("validate", s4errors.CodeInvalidInput,
		fmt.Errorf("content type %q must be a valid MIME type", contentType))
}

func validateKeyText(s, what string) error {
	if len(s) > maxKeyLength {
		return invalidKey(s, fmt.Sprintf("%s cannot exceed %d bytes", what, maxKeyLength))
	}
	if !utf8.ValidString(s) {
		return invalidKey(s, what+" must be valid UTF-8")
	}
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return invalidKey(s, what+" cannot contain control characters")
	}
	return nil
}

func invalidKey(key, msg string) error {
	return s4errors.NewObjectError("validate", s4errors.CodeInvalidInput, "", key, errors.New(msg))
}

func validateMetadataKey(key string) error {
	fail := func(msg string) error {
		return s4errors.NewError("validate", s4errors.CodeInvalidInput, fmt.Errorf("metadata key %q: %s", key, msg))
	}

	if key == "" {
		return fail("cannot be empty")
	}
	if len(key) > maxMetadataKeyLength {
		return fail(fmt.Sprintf("cannot exceed %d characters", maxMetadataKeyLength))
	}
	lower := strings.ToLower(key)
	for _, prefix := range []string{"aws:", "x-amz-", "x-amz:"} {
		if strings.HasPrefix(lower, prefix) {
			return fail("cannot start with reserved prefix " + prefix)
		}
	}
	for _, char := range key {
		if char <= ' ' || char > '~' {
			return fail("can only contain printable ASCII characters other than space")
		}
	}
	return nil
}

func validateMetadataValue(key, value string) error {
	if len(value) > maxMetadataValueLength {
		return s4errors.NewError("validate", s4errors.CodeInvalidInput,
			fmt.Errorf("metadata value for %q cannot exceed %d characters", key, maxMetadataValueLength))
	}
	for _, char := range value {
		if !unicode.IsPrint(char) && char != '\t' {
			return s4errors.NewError("validate", s4errors.CodeInvalidInput,
				fmt.Errorf("metadata value for %q can only contain printable characters", key))
		}
	}
	return nil
}

func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

// isIPAddress reports whether s has the shape of a dotted IPv4 address.
func isIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return false
		}
		for _, char := range part {
			if char < '0' || char > '9' {
				return false
			}
		}
	}
	return true
}
