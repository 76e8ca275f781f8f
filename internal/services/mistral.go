package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rahul4469/opportunity-finder/internal/models"
)

const (
	DefaultMistralURL   = "https://api.mistral.ai/v1/chat/completions"
	DefaultMistralModel = "mistral-large-latest"
)

// MistralClient calls Mistral's chat-completions endpoint. It holds no
// credential; each call carries the user's key.
type MistralClient struct {
	URL    string
	Model  string
	Client *http.Client
}

// NewMistralClient creates a Mistral completer. Empty url or model use the defaults.
func NewMistralClient(url, model string, timeout time.Duration) *MistralClient {
	if url == "" {
		url = DefaultMistralURL
	}
	if model == "" {
		model = DefaultMistralModel
	}
	if timeout <= 0 {
		timeout = DefaultClassifierTimeout
	}
	return &MistralClient{
		URL:   url,
		Model: model,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Request to Mistral
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response from Mistral
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type chatErrorBody struct {
	Message any    `json:"message"`
	Detail  any    `json:"detail"`
	Type    string `json:"type"`
}

func (c *MistralClient) Complete(ctx context.Context, creq CompletionRequest, credential string) (string, error) {
	if credential == "" {
		return "", &models.ConfigurationError{Message: models.ErrMissingCredential.Error()}
	}

	reqBody := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: creq.System},
			{Role: "user", Content: creq.Prompt},
		},
		Temperature: creq.Temperature,
		MaxTokens:   creq.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return "", &models.ClassificationTransportError{
			Kind:    models.TransportKindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: chatErrorMessage(body, resp.Status),
		}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &models.ClassificationTransportError{
			Kind:    models.TransportOther,
			Status:  resp.StatusCode,
			Message: "failed to decode response",
			Cause:   err,
		}
	}

	if len(chatResp.Choices) == 0 {
		return "", &models.ClassificationTransportError{
			Kind:    models.TransportOther,
			Status:  resp.StatusCode,
			Message: "no response choices from Mistral API",
		}
	}

	return chatResp.Choices[0].Message.Content, nil
}

// chatErrorMessage pulls a readable message out of an error body.
func chatErrorMessage(body []byte, status string) string {
	var eb chatErrorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		for _, v := range []any{eb.Message, eb.Detail} {
			switch m := v.(type) {
			case string:
				if m != "" {
					return m
				}
			case nil:
			default:
				if b, err := json.Marshal(m); err == nil {
					return string(b)
				}
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return status
}
