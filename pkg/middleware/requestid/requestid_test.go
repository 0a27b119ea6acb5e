package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(HeaderKey, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	w, seen := serve("batch-42.import_1")
	assert.Equal(t, "batch-42.import_1", seen)
	assert.Equal(t, seen, w.Header().Get(HeaderKey))
}

func TestMiddlewareReplacesUnsafeID(t *testing.T) {
	for _, header := range []string{"", "a b", "id\nforged=1", strings.Repeat("x", 65)} {
		w, seen := serve(header)
		assert.Len(t, seen, 36, "header %q", header)
		assert.Equal(t, seen, w.Header().Get(HeaderKey))
	}
}
