package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"clinic-appointment-engine/internal/domain/entity"
	"clinic-appointment-engine/pkg/jwt"
	"clinic-appointment-engine/pkg/response"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "user_email"
	RoleIDKey    contextKey = "role_id"
	TokenIDKey   contextKey = "token_id"
)

type AuthMiddleware struct {
	jwtService      *jwt.JWTService
	redisClient     *redis.Client
	checkRevocation bool
	log             *logrus.Logger
}

// NewAuthMiddleware validates tokens issued by the identity service. When
// checkRevocation is set, the token must still be present in the shared Redis.
func NewAuthMiddleware(jwtService *jwt.JWTService, redisClient *redis.Client, checkRevocation bool, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:      jwtService,
		redisClient:     redisClient,
		checkRevocation: checkRevocation && redisClient != nil,
		log:             log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		if entity.RoleName(claims.RoleID) == "" {
			response.Unauthorized(w, "Unknown role")
			return
		}

		if m.checkRevocation {
			tokenKey := fmt.Sprintf("access_token:%s:%s", claims.UserID.String(), claims.TokenID)
			exists, err := m.redisClient.Exists(r.Context(), tokenKey).Result()
			if err != nil {
				m.log.Warnf("Failed to check token revocation: %+v", err)
				response.InternalServerError(w, "Failed to validate token")
				return
			}
			if exists == 0 {
				response.Unauthorized(w, "Token has been revoked")
				return
			}
		}

		// Add user info to context
		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
		ctx = context.WithValue(ctx, RoleIDKey, claims.RoleID)
		ctx = context.WithValue(ctx, TokenIDKey, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetRoleIDFromContext extracts role ID from context
func GetRoleIDFromContext(ctx context.Context) (int, bool) {
	roleID, ok := ctx.Value(RoleIDKey).(int)
	return roleID, ok
}

// ActorFromContext builds the caller identity set by Authenticate.
func ActorFromContext(ctx context.Context) (entity.Actor, bool) {
	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		return entity.Actor{}, false
	}
	roleID, ok := GetRoleIDFromContext(ctx)
	if !ok {
		return entity.Actor{}, false
	}
	return entity.Actor{ID: userID, RoleID: roleID}, true
}

// WithActor stores an actor the same way Authenticate does.
func WithActor(ctx context.Context, actor entity.Actor) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, actor.ID)
	return context.WithValue(ctx, RoleIDKey, actor.RoleID)
}
