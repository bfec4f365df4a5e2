package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spu-nas/nasweb/util/metrics"
	"github.com/stretchr/testify/assert"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RedirectMiddleware())
	engine.Use(AccessLogMiddleware())
	handler := func(c *gin.Context) {
		c.String(http.StatusOK, "%s %s|%s", c.Request.Method, c.FullPath(), c.PostForm("firstName"))
	}
	engine.POST("/items/:id", handler)
	engine.PUT("/items/:id", handler)
	engine.DELETE("/items/:id", handler)
	return engine
}

func postForm(h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMethodOverride(t *testing.T) {
	h := MethodOverride(newEngine())

	w := postForm(h, "/items/1", url.Values{"_method": {"PUT"}, "firstName": {"J"}})
	assert.Equal(t, "PUT /items/:id|J", w.Body.String())

	w = postForm(h, "/items/1", url.Values{"_method": {"delete"}})
	assert.Equal(t, "DELETE /items/:id|", w.Body.String())

	w = postForm(h, "/items/1?_method=PUT", url.Values{"firstName": {"K"}})
	assert.Equal(t, "PUT /items/:id|K", w.Body.String())

	// only PUT, PATCH and DELETE may be requested
	w = postForm(h, "/items/1", url.Values{"_method": {"GET"}, "firstName": {"J"}})
	assert.Equal(t, "POST /items/:id|J", w.Body.String())

	// GET requests are never rewritten
	req := httptest.NewRequest(http.MethodGet, "/items/1?_method=DELETE", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRedirectMiddleware(t *testing.T) {
	engine := newEngine()

	tests := []struct {
		path     string
		location string
	}{
		{"/admin", "/myadmin"},
		{"/admin/edit/42", "/myadmin/edit/42"},
		{"/login", "/users/login"},
		{"/register", "/users/register"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMovedPermanently, w.Code, tt.path)
		assert.Equal(t, tt.location, w.Header().Get("Location"), tt.path)
	}

	req := httptest.NewRequest(http.MethodGet, "/administrator", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainValidatorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(DomainValidatorMiddleware("nas.example.edu"))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for host, code := range map[string]int{
		"nas.example.edu":      http.StatusOK,
		"nas.example.edu:5000": http.StatusOK,
		"evil.example.com":     http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, code, w.Code, host)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(MetricsMiddleware())
	engine.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "204")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
