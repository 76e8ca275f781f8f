package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server config
	Server ServerConfig

	// CSRF and session cookie config
	Security SecurityConfig

	// Reddit retrieval config
	Reddit RedditConfig

	// language model config
	Classifier ClassifierConfig

	// per-session and per-search limits
	Limits LimitsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	BaseURL     string
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	CSRFSecret         string
	CSRFTrustedOrigins []string
	SessionSecret      string
	SearchCountCookie  string
	SecureCookies      bool // true in production
}

// RedditConfig selects and configures the Reddit transport.
type RedditConfig struct {
	Transport    string // oauth, public, relay, chain
	Chain        []string
	ClientID     string
	ClientSecret string
	RelayURL     string
	UserAgent    string
	Timeout      time.Duration
}

// ClassifierConfig configures the completion provider. The API key itself is
// supplied per request and never lives here.
type ClassifierConfig struct {
	Provider     string // mistral, gemini
	MistralURL   string
	MistralModel string
	GeminiModel  string
	Timeout      time.Duration
	BodyLimit    int
	Concurrency  int
}

// LimitsConfig holds quota settings.
type LimitsConfig struct {
	MaxSearchesPerSession int
	SearchMaxResults      int
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func Load() (*Config, error) {
	// .env is optional; deployments set real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []error

	cfg.Server = ServerConfig{
		Port:        getEnvOrDefault("SERVER_PORT", "8080"),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		BaseURL:     getEnvOrDefault("BASE_URL", "http://localhost:8080"),
	}

	cfg.Security = SecurityConfig{
		CSRFSecret:         os.Getenv("CSRF_SECRET"),
		CSRFTrustedOrigins: getEnvList("CSRF_TRUSTED_ORIGINS"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		SearchCountCookie:  getEnvOrDefault("SEARCH_COUNT_COOKIE", "search_count"),
		SecureCookies:      cfg.Server.Environment == "production",
	}

	redditTimeout, err := getEnvDuration("REDDIT_TIMEOUT", 15*time.Second)
	errs = appendErr(errs, err)

	cfg.Reddit = RedditConfig{
		Transport:    strings.ToLower(getEnvOrDefault("REDDIT_TRANSPORT", "public")),
		Chain:        getEnvList("REDDIT_CHAIN"),
		ClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		ClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RelayURL:     os.Getenv("REDDIT_RELAY_URL"),
		UserAgent:    getEnvOrDefault("REDDIT_USER_AGENT", "OpportunityFinder/1.0"),
		Timeout:      redditTimeout,
	}

	classifierTimeout, err := getEnvDuration("CLASSIFIER_TIMEOUT", 30*time.Second)
	errs = appendErr(errs, err)
	bodyLimit, err := getEnvInt("CLASSIFIER_BODY_LIMIT", 2000)
	errs = appendErr(errs, err)
	concurrency, err := getEnvInt("CLASSIFIER_CONCURRENCY", 1)
	errs = appendErr(errs, err)

	cfg.Classifier = ClassifierConfig{
		Provider:     strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "mistral")),
		MistralURL:   getEnvOrDefault("MISTRAL_API_URL", "https://api.mistral.ai/v1/chat/completions"),
		MistralModel: getEnvOrDefault("MISTRAL_MODEL", "mistral-large-latest"),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		Timeout:      classifierTimeout,
		BodyLimit:    bodyLimit,
		Concurrency:  concurrency,
	}

	maxSearches, err := getEnvInt("MAX_SEARCHES_PER_SESSION", 3)
	errs = appendErr(errs, err)
	maxResults, err := getEnvInt("SEARCH_MAX_RESULTS", 10)
	errs = appendErr(errs, err)

	cfg.Limits = LimitsConfig{
		MaxSearchesPerSession: maxSearches,
		SearchMaxResults:      maxResults,
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration parse failed:\n%w", errors.Join(errs...))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var (
	validEnvs       = map[string]bool{"development": true, "staging": true, "production": true}
	validTransports = map[string]bool{"oauth": true, "public": true, "relay": true, "chain": true}
	validProviders  = map[string]bool{"mistral": true, "gemini": true}
)

// validate checks that all required configuration is present and valid.
func (c *Config) validate() error {
	var errs []error

	if !validEnvs[c.Server.Environment] {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of: development, staging, production (got: %s)", c.Server.Environment))
	}

	errs = append(errs, c.Reddit.validate()...)

	if !validProviders[c.Classifier.Provider] {
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be one of: mistral, gemini (got: %s)", c.Classifier.Provider))
	}
	if c.Classifier.BodyLimit <= 0 {
		errs = append(errs, errors.New("CLASSIFIER_BODY_LIMIT must be positive"))
	}
	if c.Classifier.Concurrency < 1 || c.Classifier.Concurrency > 3 {
		errs = append(errs, errors.New("CLASSIFIER_CONCURRENCY must be between 1 and 3"))
	}

	if c.Limits.MaxSearchesPerSession < 1 {
		errs = append(errs, errors.New("MAX_SEARCHES_PER_SESSION must be at least 1"))
	}
	if c.Limits.SearchMaxResults < 1 || c.Limits.SearchMaxResults > 100 {
		errs = append(errs, errors.New("SEARCH_MAX_RESULTS must be between 1 and 100"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%w", errors.Join(errs...))
	}

	return nil
}

// ValidateServer checks the secrets only the web server needs.
func (c *Config) ValidateServer() error {
	var errs []error

	if c.Security.CSRFSecret == "" {
		errs = append(errs, errors.New("CSRF_SECRET is required"))
	} else if len(c.Security.CSRFSecret) < 32 {
		errs = append(errs, errors.New("CSRF_SECRET must be at least 32 characters"))
	}

	if c.Security.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	} else if len(c.Security.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 characters"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("server configuration invalid:\n%w", errors.Join(errs...))
	}
	return nil
}

func (r RedditConfig) validate() []error {
	var errs []error

	if !validTransports[r.Transport] {
		return append(errs, fmt.Errorf("REDDIT_TRANSPORT must be one of: oauth, public, relay, chain (got: %s)", r.Transport))
	}

	used := []string{r.Transport}
	if r.Transport == "chain" {
		if len(r.Chain) == 0 {
			errs = append(errs, errors.New("REDDIT_CHAIN is required when REDDIT_TRANSPORT=chain"))
		}
		used = r.Chain
	}

	for _, name := range used {
		switch name {
		case "oauth":
			if r.ClientID == "" || r.ClientSecret == "" {
				errs = append(errs, errors.New("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required for the oauth transport"))
			}
		case "relay":
			if r.RelayURL == "" {
				errs = append(errs, errors.New("REDDIT_RELAY_URL is required for the relay transport"))
			}
		case "public":
		default:
			errs = append(errs, fmt.Errorf("REDDIT_CHAIN entry %q is not a transport", name))
		}
	}

	return errs
}

// getEnvOrDefault returns the .env value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// getEnvDuration accepts Go durations ("15s") or plain seconds ("15").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

// MustLoad is like Load but also requires the server secrets and panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
