package gitcli

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// safePattern is the allow-list for values reaching a git command
// line: alphanumerics, dash, underscore, dot and forward slash.
var safePattern = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)

var credentialPattern = regexp.MustCompile(`(https?://)([^@]+)@`)

// Sanitize rejects values that are not safe to place on a git command
// line. Path traversal sequences are refused outright even though the
// remaining characters would pass the allow-list.
func Sanitize(field, value string) error {
	switch {
	case value == "":
		return domain.ValidationError{URI: field, Reason: "empty value"}
	case strings.ContainsRune(value, '\x00'):
		return domain.ValidationError{URI: field, Reason: "contains a null byte"}
	case strings.ContainsAny(value, "\n\r"):
		return domain.ValidationError{URI: field, Reason: "contains newlines"}
	case strings.Contains(value, ".."):
		return domain.ValidationError{URI: field, Reason: "contains a path traversal sequence"}
	case !safePattern.MatchString(value):
		return domain.ValidationError{URI: field, Reason: "contains characters outside [a-zA-Z0-9._/-]"}
	}
	return nil
}

// MaskCredentials hides the userinfo part of a URL so tokens never
// reach logs or error messages.
func MaskCredentials(url string) string {
	return credentialPattern.ReplaceAllString(url, "$1***@")
}
