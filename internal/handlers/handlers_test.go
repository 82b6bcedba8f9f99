package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
}

var (
	customer = middleware.Identity{UserID: "cust-1", Name: "Lan", Role: models.RoleUser}
	admin    = middleware.Identity{UserID: "admin", Name: "Shop", Role: models.RoleAdmin}
)

// newRouter returns an engine that treats every request as coming from who.
func newRouter(who *middleware.Identity) *gin.Engine {
	r := gin.New()
	if who != nil {
		identity := *who
		r.Use(func(c *gin.Context) {
			middleware.WithIdentity(c, identity)
			c.Next()
		})
	}
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
