package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul4469/opportunity-finder/internal/config"
	"github.com/rahul4469/opportunity-finder/internal/models"
)

func TestNewTransportFromConfig(t *testing.T) {
	base := config.RedditConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RelayURL:     "https://relay.example.com/fetch",
		Timeout:      time.Second,
	}

	tests := []struct {
		transport string
		chain     []string
		want      string
	}{
		{"public", nil, "public"},
		{"relay", nil, "relay"},
		{"oauth", nil, "oauth"},
		{"chain", []string{"oauth", "public", "relay"}, "chain(oauth,public,relay)"},
	}

	for _, tt := range tests {
		t.Run(tt.transport, func(t *testing.T) {
			cfg := base
			cfg.Transport = tt.transport
			cfg.Chain = tt.chain

			transport, err := NewTransportFromConfig(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, transport.Name())
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := NewTransportFromConfig(config.RedditConfig{Transport: "chain", Chain: []string{"public", "scrape"}})
		assert.Error(t, err)
	})
}

func TestNewCompleterFromConfig(t *testing.T) {
	c, err := NewCompleterFromConfig(config.ClassifierConfig{Provider: "mistral"})
	require.NoError(t, err)
	assert.IsType(t, &MistralClient{}, c)

	c, err = NewCompleterFromConfig(config.ClassifierConfig{Provider: "gemini"})
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, c)

	_, err = NewCompleterFromConfig(config.ClassifierConfig{Provider: "openai"})
	assert.Error(t, err)
}

func TestNewSearchServiceFromConfig(t *testing.T) {
	svc, err := NewSearchServiceFromConfig(&config.Config{
		Reddit:     config.RedditConfig{Transport: "public", Timeout: time.Second},
		Classifier: config.ClassifierConfig{Provider: "mistral", BodyLimit: 2000, Concurrency: 1},
		Limits:     config.LimitsConfig{MaxSearchesPerSession: 3, SearchMaxResults: 10},
	})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGeminiClient_Complete(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"isOpportunity\": true,"}, {"text": " \"confidence\": 70}"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGeminiClient("", time.Second)
	g.BaseURL = srv.URL

	reply, err := g.Complete(context.Background(), CompletionRequest{System: systemPrompt, Prompt: "hi", Temperature: 0.1, MaxTokens: 400}, "gemini-key")
	require.NoError(t, err)
	assert.Equal(t, `{"isOpportunity": true, "confidence": 70}`, reply)
	assert.Equal(t, "gemini-key", gotKey)
	assert.True(t, strings.HasSuffix(gotPath, "models/"+DefaultGeminiModel+":generateContent"), gotPath)
}

func TestGeminiClient_InvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid. Please pass a valid API key.", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	g := NewGeminiClient("", time.Second)
	g.BaseURL = srv.URL

	_, err := g.Complete(context.Background(), CompletionRequest{Prompt: "hi"}, "bad-key")

	var terr *models.ClassificationTransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.TransportInvalidCredential, terr.Kind)
	assert.Equal(t, http.StatusBadRequest, terr.Status)
}

func TestGeminiClient_EmptyCredential(t *testing.T) {
	_, err := NewGeminiClient("", time.Second).Complete(context.Background(), CompletionRequest{Prompt: "hi"}, "")

	var cerr *models.ConfigurationError
	assert.ErrorAs(t, err, &cerr)
}
