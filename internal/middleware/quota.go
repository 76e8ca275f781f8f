package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/rahul4469/opportunity-finder/context"
	"github.com/rahul4469/opportunity-finder/internal/crypto"
	"github.com/rahul4469/opportunity-finder/internal/models"
)

// LimitRedirect is where exhausted sessions are sent.
const LimitRedirect = "/feedback?limit=1"

// QuotaMiddleware tracks searches per browser session in an encrypted cookie.
type QuotaMiddleware struct {
	sealer      *crypto.Sealer
	cookieName  string
	maxSearches int
	secure      bool
}

func NewQuotaMiddleware(sealer *crypto.Sealer, cookieName string, maxSearches int, secure bool) *QuotaMiddleware {
	return &QuotaMiddleware{
		sealer:      sealer,
		cookieName:  cookieName,
		maxSearches: maxSearches,
		secure:      secure,
	}
}

// SetQuota loads the session's quota into the request context. It runs on
// all routes and never blocks.
func (m *QuotaMiddleware) SetQuota(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		quota := models.SearchQuota{Used: m.readCount(r), Max: m.maxSearches}
		ctx := context.ContextSetQuota(r.Context(), quota)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireQuota stops exhausted sessions before any search work happens.
func (m *QuotaMiddleware) RequireQuota(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Quota(r).Exhausted() {
			if wantsJSON(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":    "Search limit reached for this session",
					"redirect": LimitRedirect,
				})
				return
			}
			http.Redirect(w, r, LimitRedirect, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Quota returns the quota in the request context, reading the cookie
// directly if SetQuota did not run.
func (m *QuotaMiddleware) Quota(r *http.Request) models.SearchQuota {
	if q, ok := context.ContextGetQuota(r.Context()); ok {
		return q
	}
	return models.SearchQuota{Used: m.readCount(r), Max: m.maxSearches}
}

// Increment records one completed search and returns the new quota.
func (m *QuotaMiddleware) Increment(w http.ResponseWriter, r *http.Request) models.SearchQuota {
	q := m.Quota(r)
	q.Used++
	if q.Used > q.Max {
		q.Used = q.Max
	}
	if err := m.writeCount(w, q.Used); err != nil {
		log.Printf("[quota] failed to write %s cookie: %v", m.cookieName, err)
	}
	return q
}

// readCount fails closed: a cookie that cannot be opened counts as exhausted.
func (m *QuotaMiddleware) readCount(r *http.Request) int {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return 0
	}

	plain, err := m.sealer.Open(cookie.Value, m.cookieName)
	if err != nil {
		return m.maxSearches
	}
	n, err := strconv.Atoi(plain)
	if err != nil || n < 0 {
		return m.maxSearches
	}
	return n
}

func (m *QuotaMiddleware) writeCount(w http.ResponseWriter, n int) error {
	value, err := m.sealer.Seal(strconv.Itoa(n), m.cookieName)
	if err != nil {
		return err
	}
	// No MaxAge: the counter lives as long as the browser session.
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// CurrentQuota is a helper to get the quota from any handler.
func CurrentQuota(r *http.Request) models.SearchQuota {
	q, _ := context.ContextGetQuota(r.Context())
	return q
}
