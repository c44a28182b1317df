package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/desertthunder/chorus/internal/shared"
)

// usernamePattern permits letters, digits, underscores, and periods.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// handle charset rule shared by registration and profile edits
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return v
}

// checkStruct runs the package validator and wraps failures in the
// validation error category.
func checkStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}

// CheckFields validates a tagged parameter struct with the package
// validator. Exposed for callers assembling their own field sets.
func CheckFields(s any) error {
	return checkStruct(s)
}

// NormalizeUsername lowercases and trims a username for case-insensitive
// comparison. Stored usernames keep their original casing; only lookups
// and uniqueness checks normalize.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidatePassword enforces the registration password policy: at least
// eight characters with one letter and one digit, no whitespace.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return fmt.Errorf("%w: password must not contain whitespace", shared.ErrValidation)
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: password must contain a letter and a digit", shared.ErrValidation)
	}

	return nil
}
