package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/benvon/smart-wardrobe/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("category", validateCategory); err != nil {
		panic(fmt.Sprintf("failed to register category validator: %v", err))
	}
	if err := Validate.RegisterValidation("style_tag", validateStyleTag); err != nil {
		panic(fmt.Sprintf("failed to register style_tag validator: %v", err))
	}
}

// validateCategory validates that a string is a valid Category enum value
func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

// validateStyleTag validates that a string is one of the fixed style tags
func validateStyleTag(fl validator.FieldLevel) bool {
	return models.StyleTag(fl.Field().String()).Valid()
}

// Struct validates s and flattens validator errors into one readable message
func Struct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateCategory validates a Category string value
func ValidateCategory(value string) error {
	if !models.Category(value).Valid() {
		return fmt.Errorf("invalid category: %s (must be one of top, bottom, shoes, accessory, outerwear)", value)
	}
	return nil
}
