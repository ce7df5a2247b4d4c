package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// MaxNodeIDLength bounds host-supplied identifiers that do not name a node
// of the loaded document. Identifiers inside documents are not limited, and
// callers look an id up in the document before validating it.
const MaxNodeIDLength = 512

// ValidateNodeID validates a node identifier supplied by a host, such as the
// {id} path parameter of the toggle endpoint or an --expand flag value.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - Maximum length of MaxNodeIDLength characters
//
// Whether the id exists in the current document is checked by the caller.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > MaxNodeIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", MaxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}

	return nil
}

// documentExtensions lists the file extensions ReadDocumentFile understands.
var documentExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// ValidateDocumentFilename validates that a graph document path has a
// supported extension (.json, .yaml or .yml).
func ValidateDocumentFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidInput, "document filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !documentExtensions[ext] {
		return New(ErrCodeInvalidFormat, "unsupported document extension %q (want .json, .yaml or .yml)", ext)
	}

	return nil
}

// ValidatePath validates a relative file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateOneOf validates that value is one of the allowed values.
// The field name is used in the error message.
func ValidateOneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "invalid %s %q (want one of: %s)", field, value, strings.Join(allowed, ", "))
}
