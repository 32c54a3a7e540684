package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	cache "github.com/patrickmn/go-cache"

	"github.com/medicore/hospital-api/internal/handler"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/service/identity"
	"github.com/medicore/hospital-api/pkg/auth"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
)

type AuthMiddleware struct {
	jwtService auth.JWTService
	identity   *identity.Service
	actors     *cache.Cache
}

func NewAuthMiddleware(jwtService auth.JWTService, identitySvc *identity.Service) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		identity:   identitySvc,
		// Short TTL: role or tenant changes take effect within a minute
		// without a per-request profile read.
		actors: cache.New(time.Minute, 5*time.Minute),
	}
}

// Authenticate validates the bearer token, resolves the caller's staff
// profile and stores the actor in the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		actor, err := m.resolve(c, claims)
		if err != nil {
			appErr := apperrors.From(err)
			c.JSON(appErr.StatusCode(), handler.NewErrorResponse(appErr.Message))
			c.Abort()
			return
		}

		c.Set(handler.ContextActor, actor)
		c.Next()
	}
}

// resolve re-reads the profile behind the token so a revoked or re-roled
// account loses access when the cache entry expires, not when the token
// does.
func (m *AuthMiddleware) resolve(c *gin.Context, claims *auth.Claims) (*model.Actor, error) {
	key := claims.UserID.String()
	if cached, ok := m.actors.Get(key); ok {
		return cached.(*model.Actor), nil
	}

	actor, err := m.identity.Resolve(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	m.actors.SetDefault(key, actor)
	return actor, nil
}

// Forget drops a cached actor, used after staff mutations so the change
// is visible immediately.
func (m *AuthMiddleware) Forget(userID string) {
	m.actors.Delete(userID)
}

// RequireRole gates a route group to the listed roles. Authorization on
// individual operations still happens in the services; this only shapes
// the route surface.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor, err := handler.Actor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
			c.Abort()
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}
