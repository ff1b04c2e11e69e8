package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/infrastructure/auth"
	"github.com/ehr/pharmacy/internal/infrastructure/config"
	"github.com/ehr/pharmacy/internal/infrastructure/logger"
	"github.com/ehr/pharmacy/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newIdentityRouter(jwtService *auth.JWTService) *gin.Engine {
	router := gin.New()
	router.Use(logger.GinMiddleware(zap.NewNop()), Identity(jwtService))
	router.GET("/whoami", func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":      actor.ID,
			"role":    actor.Role,
			"ctx_uid": logger.GetUserID(c.Request.Context()),
		})
	})
	return router
}

func TestIdentity_HeaderMode(t *testing.T) {
	router := newIdentityRouter(auth.NewJWTService(config.JWTConfig{}))

	tests := []struct {
		name     string
		userID   string
		role     string
		wantCode int
	}{
		{"pharmacist", "u-pharm", "Pharmacist", http.StatusOK},
		{"missing user", "", "admin", http.StatusUnauthorized},
		{"unknown role", "u-1", "janitor", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set(HeaderUserID, tt.userID)
			req.Header.Set(HeaderUserRole, tt.role)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				var resp dto.Response
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
				assert.NotEmpty(t, resp.Error.RequestID)
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "u-pharm", body["id"])
			assert.Equal(t, "pharmacist", body["role"])
			assert.Equal(t, "u-pharm", body["ctx_uid"])
		})
	}
}

func TestIdentity_BearerMode(t *testing.T) {
	svc := auth.NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-bytes!", Issuer: "pharmacy"})
	router := newIdentityRouter(svc)

	token, err := svc.Issue(identity.NewActor("u-admin", "Asha", "admin"), time.Hour)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(AuthHeaderKey, "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"admin"`)
	})

	t.Run("headers ignored when secret set", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(HeaderUserID, "u-admin")
		req.Header.Set(HeaderUserRole, "admin")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(AuthHeaderKey, "Bearer "+token+"x")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token")
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := svc.Issue(identity.NewActor("u-admin", "Asha", "admin"), -time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(AuthHeaderKey, "Bearer "+expired)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token has expired")
	})
}
