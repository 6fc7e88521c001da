package errors

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxNodeIDLength bounds node ids accepted from upstream extractors.
const MaxNodeIDLength = 256

// ValidateNodeID validates a log node id.
//
// Ids come from an untrusted extraction step and end up in cache keys, DOT
// output and terminal text, so the rules are conservative:
//   - No empty ids
//   - No control characters
//   - No surrounding whitespace
//   - Maximum length of 256 bytes
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNode, "node id cannot be empty")
	}

	if len(id) > MaxNodeIDLength {
		return New(ErrCodeInvalidNode, "node id too long (max %d characters)", MaxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "node id %q contains control characters", id)
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidNode, "node id %q has leading or trailing whitespace", id)
	}

	return nil
}

// ValidateSessionID checks that id is a canonical UUID. Session ids become
// file names and database keys, so anything else is rejected.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidSessionID, "session id cannot be empty")
	}
	u, err := uuid.Parse(id)
	if err != nil || u.String() != id {
		return New(ErrCodeInvalidSessionID, "invalid session id: %q", id)
	}
	return nil
}

// ValidatePath validates a local file path given on the command line or in
// the config file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
