package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthEndpointsWithoutDatabase(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"register bad email", "/api/v1/auth/register", gin.H{"email": "nope", "password": "longenough"}, http.StatusBadRequest},
		{"register short password", "/api/v1/auth/register", gin.H{"email": "ops@example.com", "password": "short"}, http.StatusBadRequest},
		{"register", "/api/v1/auth/register", gin.H{"email": "ops@example.com", "password": "longenough"}, http.StatusServiceUnavailable},
		{"login missing password", "/api/v1/auth/login", gin.H{"email": "ops@example.com"}, http.StatusBadRequest},
		{"login", "/api/v1/auth/login", gin.H{"email": "ops@example.com", "password": "longenough"}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body, nil)
			require.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, decode[gin.H](t, w)["error"])
		})
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, testConfig(), true)

	w := env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "logged out", decode[gin.H](t, w)["message"])
}
