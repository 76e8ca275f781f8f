package services

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/rahul4469/opportunity-finder/internal/models"
)

// CompletionRequest is a single-turn prompt for a chat model.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completer sends a prompt to a language model using the caller's credential
// and returns the raw text reply. Failures are *models.ClassificationTransportError.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest, credential string) (string, error)
}

// transportError classifies a failed outbound call that never produced a
// status code.
func transportError(err error) *models.ClassificationTransportError {
	var terr *models.ClassificationTransportError
	if errors.As(err, &terr) {
		return terr
	}

	kind := models.TransportOther
	var (
		netErr net.Error
		dnsErr *net.DNSError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = models.TransportTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = models.TransportTimeout
	case errors.As(err, &dnsErr), errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		kind = models.TransportNetwork
	}

	return &models.ClassificationTransportError{Kind: kind, Message: err.Error(), Cause: err}
}
