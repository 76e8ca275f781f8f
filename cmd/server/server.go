package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/spf13/cobra"

	"github.com/rahul4469/opportunity-finder/internal/config"
	"github.com/rahul4469/opportunity-finder/internal/controllers"
	"github.com/rahul4469/opportunity-finder/internal/crypto"
	"github.com/rahul4469/opportunity-finder/internal/middleware"
	"github.com/rahul4469/opportunity-finder/internal/services"
	"github.com/rahul4469/opportunity-finder/internal/views"
	"github.com/rahul4469/opportunity-finder/templates"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long:  `Start the HTTP server with the search form, results pages and JSON API.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.MustLoad()
	if servePort != "" {
		cfg.Server.Port = servePort
	}

	searchService, err := services.NewSearchServiceFromConfig(cfg)
	if err != nil {
		return err
	}

	router, err := newRouter(cfg, searchService, controllers.LogFeedbackSink{})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server at port %s (env=%s, reddit=%s, llm=%s)...",
			cfg.Server.Port, cfg.Server.Environment, cfg.Reddit.Transport, cfg.Classifier.Provider)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// newRouter builds the full handler tree.
func newRouter(cfg *config.Config, searcher controllers.Searcher, sink controllers.FeedbackSink) (http.Handler, error) {
	sealer, err := crypto.NewSealerFromSecret(cfg.Security.SessionSecret, "opportunity-finder search counter")
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie sealer: %w", err)
	}
	quotaMw := middleware.NewQuotaMiddleware(
		sealer,
		cfg.Security.SearchCountCookie,
		cfg.Limits.MaxSearchesPerSession,
		cfg.Security.SecureCookies,
	)

	homeTpl, err := views.ParseFS(templates.FS, "pages/home.gohtml")
	if err != nil {
		return nil, err
	}
	resultsTpl, err := views.ParseFS(templates.FS, "pages/results.gohtml")
	if err != nil {
		return nil, err
	}
	feedbackTpl, err := views.ParseFS(templates.FS, "pages/feedback.gohtml")
	if err != nil {
		return nil, err
	}

	staticCtrl := controllers.NewStaticController(controllers.StaticTemplates{Home: homeTpl})
	searchCtrl := controllers.NewSearchController(searcher, quotaMw, controllers.SearchTemplates{
		Form:    homeTpl,
		Results: resultsTpl,
	})
	feedbackCtrl := controllers.NewFeedbackController(sink, controllers.FeedbackTemplates{Form: feedbackTpl})

	csrfMw := csrf.Protect(
		[]byte(cfg.Security.CSRFSecret),
		csrf.Secure(cfg.Security.SecureCookies),
		csrf.Path("/"),
		csrf.TrustedOrigins(cfg.Security.CSRFTrustedOrigins),
	)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", controllers.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(csrfRequestMode(!cfg.IsProduction()))
		r.Use(csrfMw)
		r.Use(quotaMw.SetQuota)

		r.Get("/", staticCtrl.GetHome)
		r.With(quotaMw.RequireQuota).Post("/search", searchCtrl.PostSearch)

		r.Get("/feedback", feedbackCtrl.GetFeedback)
		r.Post("/feedback", feedbackCtrl.PostFeedback)

		r.Route("/api", func(r chi.Router) {
			r.With(quotaMw.RequireQuota).Post("/search", searchCtrl.PostSearchAPI)
			r.Post("/feedback", feedbackCtrl.PostFeedbackAPI)
		})
	})

	return r, nil
}

// csrfRequestMode marks JSON API calls as exempt from the CSRF check and,
// outside production, marks plain-HTTP requests so the referer check does
// not demand TLS.
func csrfRequestMode(plaintext bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") &&
				strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				r = csrf.UnsafeSkipCheck(r)
			}
			if plaintext && r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}
