package services

import (
	"fmt"

	"github.com/rahul4469/opportunity-finder/internal/config"
)

// NewTransportFromConfig builds the configured Reddit transport.
func NewTransportFromConfig(cfg config.RedditConfig) (SearchTransport, error) {
	if cfg.Transport != "chain" {
		return newTransport(cfg.Transport, cfg)
	}

	transports := make([]SearchTransport, 0, len(cfg.Chain))
	for _, name := range cfg.Chain {
		t, err := newTransport(name, cfg)
		if err != nil {
			return nil, err
		}
		transports = append(transports, t)
	}
	return NewChainTransport(transports...), nil
}

func newTransport(name string, cfg config.RedditConfig) (SearchTransport, error) {
	switch name {
	case "public":
		return NewPublicTransport("", cfg.Timeout, cfg.UserAgent), nil
	case "relay":
		return NewRelayTransport(cfg.RelayURL, cfg.Timeout, cfg.UserAgent), nil
	case "oauth":
		tokens, err := NewClientCredentialsCache(cfg.ClientID, cfg.ClientSecret, "", cfg.UserAgent, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return NewOAuthTransport("", tokens, cfg.Timeout, cfg.UserAgent), nil
	default:
		return nil, fmt.Errorf("unknown reddit transport %q", name)
	}
}

// NewCompleterFromConfig builds the configured language-model client.
func NewCompleterFromConfig(cfg config.ClassifierConfig) (Completer, error) {
	switch cfg.Provider {
	case "", "mistral":
		return NewMistralClient(cfg.MistralURL, cfg.MistralModel, cfg.Timeout), nil
	case "gemini":
		return NewGeminiClient(cfg.GeminiModel, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// NewSearchServiceFromConfig wires fetcher, classifier and pipeline together.
func NewSearchServiceFromConfig(cfg *config.Config) (*SearchService, error) {
	transport, err := NewTransportFromConfig(cfg.Reddit)
	if err != nil {
		return nil, fmt.Errorf("failed to build reddit transport: %w", err)
	}
	completer, err := NewCompleterFromConfig(cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("failed to build completer: %w", err)
	}

	fetcher := NewRedditFetcher(transport, cfg.Limits.SearchMaxResults)
	classifier := NewClassifier(completer, ClassifierOptions{
		Timeout:          cfg.Classifier.Timeout,
		BodyExcerptLimit: cfg.Classifier.BodyLimit,
		Concurrency:      cfg.Classifier.Concurrency,
	})
	return NewSearchService(fetcher, classifier, cfg.Limits.SearchMaxResults), nil
}
