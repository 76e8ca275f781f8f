package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul4469/opportunity-finder/internal/crypto"
)

const cookieName = "search_count"

func newTestQuota(t *testing.T, max int) *QuotaMiddleware {
	t.Helper()
	sealer, err := crypto.NewSealerFromSecret(strings.Repeat("k", 32), "quota-test")
	require.NoError(t, err)
	return NewQuotaMiddleware(sealer, cookieName, max, false)
}

// countCookie runs Increment n times starting from an empty session and
// returns the resulting cookie.
func countCookie(t *testing.T, m *QuotaMiddleware, n int) *http.Cookie {
	t.Helper()
	var cookie *http.Cookie
	for i := 0; i < n; i++ {
		r := httptest.NewRequest(http.MethodPost, "/search", nil)
		if cookie != nil {
			r.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		m.Increment(w, r)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		cookie = cookies[0]
	}
	return cookie
}

func TestSetQuota_FreshSession(t *testing.T) {
	m := newTestQuota(t, 3)

	var seen bool
	h := m.SetQuota(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = true
		q := CurrentQuota(r)
		assert.Equal(t, 0, q.Used)
		assert.Equal(t, 3, q.Remaining())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, seen)
}

func TestIncrement_PersistsAcrossRequests(t *testing.T) {
	m := newTestQuota(t, 3)
	cookie := countCookie(t, m, 2)

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.NotEqual(t, "2", cookie.Value)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	q := m.Quota(r)
	assert.Equal(t, 2, q.Used)
	assert.Equal(t, 1, q.Remaining())
}

func TestIncrement_NeverExceedsMax(t *testing.T) {
	m := newTestQuota(t, 2)
	cookie := countCookie(t, m, 5)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookie)
	assert.Equal(t, 2, m.Quota(r).Used)
}

func TestReadCount_TamperedCookieFailsClosed(t *testing.T) {
	m := newTestQuota(t, 3)

	for _, value := range []string{"0", "garbage", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: cookieName, Value: value})
		assert.True(t, m.Quota(r).Exhausted(), value)
	}
}

func TestRequireQuota(t *testing.T) {
	m := newTestQuota(t, 1)
	exhausted := countCookie(t, m, 1)

	var calls int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	h := m.SetQuota(m.RequireQuota(next))

	t.Run("allows remaining", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/search", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, calls)
	})

	t.Run("redirects form posts", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/search", nil)
		r.AddCookie(exhausted)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, LimitRedirect, w.Header().Get("Location"))
		assert.Equal(t, 1, calls)
	})

	t.Run("json for api", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "application/json")
		r.AddCookie(exhausted)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, LimitRedirect, body["redirect"])
		assert.NotEmpty(t, body["error"])
		assert.Equal(t, 1, calls)
	})
}
