package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareAssignsAndEchoesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = Value(c) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(headerKey))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, "abc-123")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc-123", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, strings.Repeat("x", 500))
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36)
}

func TestMiddlewareReplacesUnsafeIDAndFillsRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var fromCtx, fromGin string
	r.GET("/", func(c *gin.Context) {
		fromCtx = FromContext(c.Request.Context())
		fromGin = Value(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, "abc\" status=200 forged=1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	_, err := uuid.Parse(fromCtx)
	assert.NoError(t, err)
	assert.Equal(t, fromGin, fromCtx)
	assert.Equal(t, fromCtx, rec.Header().Get(headerKey))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerKey, "tasmi.job_42-retry")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "tasmi.job_42-retry", fromCtx)

	assert.Equal(t, "", FromContext(context.Background()))
}
