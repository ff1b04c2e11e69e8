package middleware

import (
	"errors"
	"net/http"

	"github.com/ehr/pharmacy/internal/domain/identity"
	"github.com/ehr/pharmacy/internal/infrastructure/auth"
	"github.com/ehr/pharmacy/internal/infrastructure/logger"
	"github.com/ehr/pharmacy/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Identity headers honoured when no JWT secret is configured
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"

	AuthHeaderKey = "Authorization"
	ActorKey      = "actor"
)

// Identity resolves the acting user for every request. With a configured
// secret the Authorization bearer token is required; otherwise the
// X-User-* headers are trusted as-is. The actor is stored on the gin
// context and its ID and role are attached to the request logger.
func Identity(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := resolveActor(c, jwtService)
		if err != nil {
			logger.GetGinLogger(c).Info("request not authenticated", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, unauthorizedMessage(err), c.GetString("request_id")))
			return
		}

		ctx, reqLogger := logger.WithActor(c.Request.Context(), logger.GetGinLogger(c), actor.ID, actor.Role.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set("logger", reqLogger)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

var errNoIdentity = errors.New("no user identity on request")

func resolveActor(c *gin.Context, jwtService *auth.JWTService) (identity.Actor, error) {
	if jwtService != nil && jwtService.Enabled() {
		token, ok := auth.BearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			return identity.Actor{}, errNoIdentity
		}
		return jwtService.Actor(token)
	}

	actor := identity.NewActor(c.GetHeader(HeaderUserID), c.GetHeader(HeaderUserName), c.GetHeader(HeaderUserRole))
	if actor.ID == "" {
		return identity.Actor{}, errNoIdentity
	}
	if actor.Role == identity.RoleUnknown {
		return identity.Actor{}, auth.ErrUnknownRole
	}
	return actor, nil
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrUnknownRole):
		return "Role is not recognised"
	case errors.Is(err, errNoIdentity):
		return "Authentication required"
	default:
		return "Invalid token"
	}
}

// GetActor returns the actor resolved by Identity
func GetActor(c *gin.Context) (identity.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return identity.Actor{}, false
	}
	actor, ok := v.(identity.Actor)
	return actor, ok
}
