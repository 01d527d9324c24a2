package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mmotors/backoffice/internal/app"
	"github.com/mmotors/backoffice/internal/pkg/jwtutil"
	"github.com/mmotors/backoffice/internal/transport/http/response"
)

const ContextActorKey = "actor"

// AuthJWT requires a valid bearer token mapping to an active account and
// stores the resolved actor in the request context.
func AuthJWT(secret string, auth *app.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := resolveActor(c, secret, auth)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, err.Error())
			c.Abort()
			return
		}
		c.Set(ContextActorKey, *actor)
		c.Next()
	}
}

// OptionalAuthJWT resolves the actor when a usable token is present and lets
// the request through as a guest otherwise.
func OptionalAuthJWT(secret string, auth *app.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, err := resolveActor(c, secret, auth); err == nil {
			c.Set(ContextActorKey, *actor)
		}
		c.Next()
	}
}

// Actor returns the authenticated caller, if any.
func Actor(c *gin.Context) (app.Actor, bool) {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return app.Actor{}, false
	}
	actor, ok := value.(app.Actor)
	return actor, ok
}

func resolveActor(c *gin.Context, secret string, auth *app.AuthService) (*app.Actor, error) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return nil, errors.New("missing authorization header")
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return nil, errors.New("invalid authorization scheme")
	}

	claims, err := jwtutil.ParseToken(secret, strings.TrimSpace(strings.TrimPrefix(authHeader, prefix)))
	if err != nil {
		return nil, errors.New("invalid or expired token")
	}

	actor, err := auth.ResolveActor(claims.UserID)
	if err != nil {
		return nil, errors.New("account unavailable")
	}
	return actor, nil
}
