package errors

import (
	"regexp"
	"unicode"
)

// ValidateDocumentName validates a stored diagram's display name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateDocumentName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "document name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "document name too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "document name contains invalid control characters")
		}
	}

	return nil
}

// documentIDRegex matches identifiers that are safe in URLs and storage keys.
var documentIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateDocumentID validates a document identifier. IDs appear in URL
// paths and as storage keys, so anything outside a conservative character
// set is rejected.
//
// Validation rules:
//   - ID cannot be empty
//   - Maximum length of 128 characters
//   - Must start with a letter or digit
//   - Only letters, digits, dots, underscores and dashes
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "document id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "document id too long (max 128 characters)")
	}

	if !documentIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid document id: %q", id)
	}

	return nil
}
