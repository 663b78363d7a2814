package utils

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request body limit (in bytes)
const MaxJSONSize = 1 * 1024 * 1024 // 1MB - maximum JSON payload size

// String length limits
const (
	MaxNameLength          = 128
	MaxTitleLength         = 256
	MaxEmailLength         = 255
	MaxStudentNumberLength = 32
	MinCodeLength          = 2
	MaxCodeLength          = 10
)

// Regular expressions for validation
var (
	// EmailPattern is a basic email validation
	EmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// CodePattern matches faculty and course codes after upper-casing
	CodePattern = regexp.MustCompile(`^[A-Z0-9]+$`)
	// StudentNumberPattern allows alphanumerics and hyphens
	StudentNumberPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

// ErrValidation is matched by every validation failure via errors.Is
var ErrValidation = errors.New("validation failed")

// FieldError describes one invalid field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a FieldError
func Invalid(field, format string, args ...interface{}) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidationErrors collects field errors for one document
type ValidationErrors struct {
	Entity string
	Fields []*FieldError
}

// Add records err when it is non-nil
func (v *ValidationErrors) Add(err *FieldError) {
	if err != nil {
		v.Fields = append(v.Fields, err)
	}
}

// Err returns nil when nothing was recorded
func (v *ValidationErrors) Err() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%s validation failed: %s", v.Entity, strings.Join(parts, ", "))
}

func (v *ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

var strictPolicy = bluemonday.StrictPolicy()

// Sanitize strips markup from user supplied text and trims it
func Sanitize(value string) string {
	if value == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(value)))
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) *FieldError {
	if required && value == "" {
		return Invalid(fieldName, "is required")
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return Invalid(fieldName, "must be at least %d characters", minLen)
	}
	if length > maxLen {
		return Invalid(fieldName, "must not exceed %d characters", maxLen)
	}

	// Null bytes never reach the store
	if strings.Contains(value, "\x00") {
		return Invalid(fieldName, "contains invalid characters")
	}

	return nil
}

// ValidateName validates a required name field
func ValidateName(name, fieldName string) *FieldError {
	return ValidateString(name, fieldName, 1, MaxNameLength, true)
}

// ValidateEmail validates an email address
func ValidateEmail(email string, required bool) *FieldError {
	if err := ValidateString(email, "email", 0, MaxEmailLength, required); err != nil {
		return err
	}

	if email != "" && !EmailPattern.MatchString(email) {
		return Invalid("email", "invalid email format")
	}

	return nil
}

// ValidateCode validates an already upper-cased faculty or course code
func ValidateCode(code string, required bool) *FieldError {
	if err := ValidateString(code, "code", MinCodeLength, MaxCodeLength, required); err != nil {
		return err
	}

	if code != "" && !CodePattern.MatchString(code) {
		return Invalid("code", "must contain only letters and digits")
	}

	return nil
}

// ValidateRange checks min <= value <= max
func ValidateRange[N int | float64](value, lo, hi N, fieldName string) *FieldError {
	if value < lo || value > hi {
		return Invalid(fieldName, "must be between %v and %v", lo, hi)
	}
	return nil
}

// ValidateNonNegative checks value >= 0
func ValidateNonNegative[N int | float64](value N, fieldName string) *FieldError {
	if value < 0 {
		return Invalid(fieldName, "must not be negative")
	}
	return nil
}

// ParseObjectIDs converts hex references, reporting the first bad one
func ParseObjectIDs(values []string, fieldName string) ([]primitive.ObjectID, *FieldError) {
	ids := make([]primitive.ObjectID, 0, len(values))
	for i, v := range values {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return nil, Invalid(fmt.Sprintf("%s[%d]", fieldName, i), "is not a valid id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseOptionalObjectID converts an optional hex reference. Empty means none.
func ParseOptionalObjectID(value, fieldName string) (*primitive.ObjectID, *FieldError) {
	if value == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return nil, Invalid(fieldName, "is not a valid id")
	}
	return &id, nil
}
