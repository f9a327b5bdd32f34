package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg SwaggerConfig, auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, auth), okHandler)
	return router
}

func TestSwaggerProtection_Disabled(t *testing.T) {
	router := swaggerRouter(SwaggerConfig{Enabled: false}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}

func TestSwaggerProtection_AllowList(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		remoteAddr string
		want       int
	}{
		{"no list allows all", nil, "203.0.113.9:1000", http.StatusOK},
		{"exact ip", []string{"127.0.0.1"}, "127.0.0.1:12345", http.StatusOK},
		{"ip not listed", []string{"127.0.0.1"}, "192.168.1.100:12345", http.StatusForbidden},
		{"cidr match", []string{"10.20.0.0/16"}, "10.20.3.4:80", http.StatusOK},
		{"cidr miss", []string{"10.20.0.0/16"}, "10.21.3.4:80", http.StatusForbidden},
		{"ipv6 loopback", []string{"::1"}, "[::1]:8080", http.StatusOK},
		{"garbage entries ignored", []string{"not-an-ip", "10.0.0.0/99", "127.0.0.1"}, "127.0.0.1:1", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := swaggerRouter(SwaggerConfig{Enabled: true, AllowedIPs: tt.allowed}, nil)
			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remoteAddr
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSwaggerProtection_RequireAuth(t *testing.T) {
	denyAll := func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	}
	allowAll := func(c *gin.Context) {}

	w := httptest.NewRecorder()
	swaggerRouter(SwaggerConfig{Enabled: true, RequireAuth: true}, denyAll).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	swaggerRouter(SwaggerConfig{Enabled: true, RequireAuth: true}, allowAll).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	swaggerRouter(SwaggerConfig{Enabled: true, RequireAuth: false}, denyAll).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code, "auth hook only runs when required")
}

func TestIPAllowed(t *testing.T) {
	prefixes := parseAllowList([]string{"192.168.0.0/24", " 8.8.8.8 "})

	assert.True(t, ipAllowed("192.168.0.77", prefixes))
	assert.True(t, ipAllowed("8.8.8.8", prefixes))
	assert.True(t, ipAllowed("::ffff:8.8.8.8", prefixes))
	assert.False(t, ipAllowed("8.8.4.4", prefixes))
	assert.False(t, ipAllowed("", prefixes))
}
