package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxInputLength caps free-text search input after sanitising.
const MaxInputLength = 100

// SubredditPattern matches Reddit community names.
var SubredditPattern = regexp.MustCompile(`^[A-Za-z0-9_]{2,21}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("subreddit", func(fl validator.FieldLevel) bool {
		return SubredditPattern.MatchString(fl.Field().String())
	})
	return v
}

// SearchRequest is the ephemeral input triple. APIKey is only ever sent to
// the classification service.
type SearchRequest struct {
	Subreddit string `json:"subreddit" validate:"required,subreddit"`
	Keyword   string `json:"keyword" validate:"required,max=100"`
	APIKey    string `json:"mistralApiKey" validate:"required"`
}

// String redacts the credential so the request is safe to log.
func (r SearchRequest) String() string {
	key := "<missing>"
	if r.APIKey != "" {
		key = "<redacted>"
	}
	return fmt.Sprintf("r/%s keyword=%q key=%s", r.Subreddit, r.Keyword, key)
}

// Normalize strips an optional r/ prefix and sanitises the free-text fields.
func (r *SearchRequest) Normalize() {
	sub := strings.TrimSpace(r.Subreddit)
	sub = strings.TrimPrefix(sub, "/")
	sub = strings.TrimPrefix(strings.TrimPrefix(sub, "r/"), "R/")
	r.Subreddit = SanitizeInput(strings.TrimSuffix(sub, "/"))
	r.Keyword = SanitizeInput(r.Keyword)
	r.APIKey = strings.TrimSpace(r.APIKey)
}

// Validate normalizes then validates the request.
func (r *SearchRequest) Validate() error {
	r.Normalize()
	return toValidationError(validate.Struct(r))
}

// FeedbackRequest is what the beta feedback form submits.
type FeedbackRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Feedback string `json:"feedback" validate:"max=5000"`
}

// Validate trims and validates the feedback.
func (r *FeedbackRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Feedback = strings.TrimSpace(r.Feedback)
	return toValidationError(validate.Struct(r))
}

// SanitizeInput removes angle brackets, trims and caps the length.
func SanitizeInput(s string) string {
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > MaxInputLength {
		s = string(r[:MaxInputLength])
	}
	return s
}

// toValidationError turns validator output into the first failing field's message.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "request", Message: err.Error()}
	}
	fe := verrs[0]
	return &ValidationError{Field: fieldName(fe.Field()), Message: validationMessage(fe)}
}

func fieldName(structField string) string {
	switch structField {
	case "APIKey":
		return "mistralApiKey"
	default:
		return strings.ToLower(structField[:1]) + structField[1:]
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		switch fe.Field() {
		case "APIKey":
			return "API key is required"
		case "Email":
			return "Email is required"
		}
		return fmt.Sprintf("%s is required", fe.Field())
	case "subreddit":
		return "Subreddit names are 2-21 letters, digits or underscores"
	case "email":
		return "Please enter a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
