package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster/internal/models"
	appErrors "github.com/noah-isme/school-roster/pkg/errors"
)

type staticValidator struct {
	token string
}

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != v.token {
		return nil, appErrors.Wrap(errors.New("signature mismatch"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	return &models.JWTClaims{Username: "secretariat"}, nil
}

func newGuardedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/students", JWT(staticValidator{token: "good"}), func(c *gin.Context) {
		claims, _ := c.Get(ContextUserKey)
		c.String(http.StatusOK, claims.(*models.JWTClaims).Username)
	})
	return r
}

func TestJWT(t *testing.T) {
	r := newGuardedRouter()
	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic good", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/students", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, "header %q", tc.header)
	}
}

type recordingObserver struct {
	paths []string
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.paths = append(o.paths, method+" "+path)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/students/1", "/students/2", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}
	require.Len(t, observer.paths, 3)
	assert.Equal(t, []string{"GET /students/:id", "GET /students/:id", "GET unmatched"}, observer.paths)
}
