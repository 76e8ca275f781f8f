package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/rahul4469/opportunity-finder/internal/models"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient completes prompts with Google's Gemini API. A client is built
// per call because the key belongs to the user, not the server.
type GeminiClient struct {
	Model      string
	BaseURL    string // empty uses the SDK default
	HTTPClient *http.Client
}

func NewGeminiClient(model string, timeout time.Duration) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = DefaultClassifierTimeout
	}
	return &GeminiClient{
		Model:      model,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (g *GeminiClient) Complete(ctx context.Context, creq CompletionRequest, credential string) (string, error) {
	if credential == "" {
		return "", &models.ConfigurationError{Message: models.ErrMissingCredential.Error()}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      credential,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  g.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.BaseURL},
	})
	if err != nil {
		return "", &models.ConfigurationError{Message: "failed to create genai client", Cause: err}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(creq.Temperature)),
		MaxOutputTokens:  int32(creq.MaxTokens),
		ResponseMIMEType: "application/json",
	}
	if creq.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(creq.System, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, g.Model, genai.Text(creq.Prompt), cfg)
	if err != nil {
		return "", geminiError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &models.ClassificationTransportError{
			Kind:    models.TransportOther,
			Status:  http.StatusOK,
			Message: "no response from gemini",
		}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := models.TransportKindForStatus(apiErr.Code)
		// Gemini reports a bad key as 400 INVALID_ARGUMENT or 403.
		if apiErr.Code == http.StatusForbidden ||
			(apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key")) {
			kind = models.TransportInvalidCredential
		}
		return &models.ClassificationTransportError{
			Kind:    kind,
			Status:  apiErr.Code,
			Message: fmt.Sprintf("%s: %s", apiErr.Status, apiErr.Message),
			Cause:   err,
		}
	}
	return transportError(err)
}
