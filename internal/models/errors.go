package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Request-level sentinels.
var (
	ErrMissingCredential = errors.New("API key is required")
	ErrInvalidSubreddit  = errors.New("invalid subreddit name")
	ErrEmptyKeyword      = errors.New("keyword is required")
)

// ValidationError reports a bad field in a user request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ConfigurationError is caller-fatal and never retried.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// RetrievalKind distinguishes why the content platform could not be searched.
type RetrievalKind string

const (
	RetrievalUnreachable RetrievalKind = "unreachable"
	RetrievalAuth        RetrievalKind = "auth"
	RetrievalNotFound    RetrievalKind = "not_found"
	RetrievalRateLimited RetrievalKind = "rate_limited"
	RetrievalMalformed   RetrievalKind = "malformed"
	RetrievalUpstream    RetrievalKind = "upstream"
)

// RetrievalError aborts a whole search: without a fetch there is nothing to classify.
type RetrievalError struct {
	Kind      RetrievalKind
	Subreddit string
	Status    int
	Transport string
	Cause     error
}

func (e *RetrievalError) Error() string {
	msg := fmt.Sprintf("reddit retrieval failed (%s)", e.Kind)
	if e.Transport != "" {
		msg += " via " + e.Transport
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" status %d", e.Status)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

// NotFound reports whether the community does not exist or is private.
func (e *RetrievalError) NotFound() bool {
	return e.Kind == RetrievalNotFound
}

// UserMessage is safe to show in the UI. Not-found is user-correctable so it
// gets its own wording.
func (e *RetrievalError) UserMessage() string {
	switch e.Kind {
	case RetrievalNotFound:
		return fmt.Sprintf("Subreddit r/%s was not found or is private. Please check the name and try again.", e.Subreddit)
	case RetrievalRateLimited:
		return "Reddit is rate limiting requests right now. Please wait a moment and try again."
	default:
		return "Failed to fetch posts from Reddit. Please check the subreddit name and try again."
	}
}

// TransportKind classifies a failed classification call.
type TransportKind string

const (
	TransportInvalidCredential TransportKind = "invalid_credential"
	TransportRateLimited       TransportKind = "rate_limited"
	TransportUnavailable       TransportKind = "unavailable"
	TransportTimeout           TransportKind = "timeout"
	TransportNetwork           TransportKind = "network"
	TransportOther             TransportKind = "other"
)

// ClassificationTransportError is isolated to one post and never aborts a batch.
type ClassificationTransportError struct {
	Kind    TransportKind
	Status  int
	Message string
	Cause   error
}

func (e *ClassificationTransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("classification %s (status %d): %v", e.Kind, e.Status, e.Cause)
	}
	return fmt.Sprintf("classification %s (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *ClassificationTransportError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether trying again later might succeed.
func (e *ClassificationTransportError) Retryable() bool {
	switch e.Kind {
	case TransportRateLimited, TransportUnavailable, TransportTimeout, TransportNetwork:
		return true
	default:
		return false
	}
}

// UserMessage is the per-card warning shown next to a failed post.
func (e *ClassificationTransportError) UserMessage() string {
	switch e.Kind {
	case TransportInvalidCredential:
		return "Invalid API key. Please check your API key and try again."
	case TransportRateLimited:
		return "Rate limit exceeded. Please wait a moment and try again."
	case TransportUnavailable:
		return "The AI service is temporarily unavailable. Please try again later."
	case TransportTimeout:
		return "Request timeout. The AI analysis took too long. Please try again."
	case TransportNetwork:
		return "Network error. Please check your internet connection."
	default:
		msg := e.Message
		if msg == "" && e.Cause != nil {
			msg = e.Cause.Error()
		}
		return fmt.Sprintf("API Error (%d): %s", e.Status, msg)
	}
}

// TransportKindForStatus maps an HTTP status from the classification service.
func TransportKindForStatus(status int) TransportKind {
	switch {
	case status == http.StatusUnauthorized:
		return TransportInvalidCredential
	case status == http.StatusTooManyRequests:
		return TransportRateLimited
	case status >= 500:
		return TransportUnavailable
	default:
		return TransportOther
	}
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		verr *ValidationError
		cerr *ConfigurationError
		rerr *RetrievalError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &cerr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &rerr):
		if rerr.NotFound() {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the text to show for a request-level error.
func UserMessage(err error) string {
	var (
		verr *ValidationError
		cerr *ConfigurationError
		rerr *RetrievalError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &cerr):
		return cerr.Message
	case errors.As(err, &rerr):
		return rerr.UserMessage()
	default:
		return "An unexpected error occurred"
	}
}
