package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAdminToken("secret", logger)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/events", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepts matching token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/admin/events", nil)
		r.Header.Set(HeaderAdminToken, "secret")
		w := httptest.NewRecorder()
		RequireAdminToken("secret", logger)(ok).ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("disabled when unconfigured", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAdminToken("", logger)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/events", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
