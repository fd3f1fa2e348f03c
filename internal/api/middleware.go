package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rongwang/cgtracker/internal/models"
	"github.com/rongwang/cgtracker/internal/service"
	"go.uber.org/zap"
)

// Context keys set by the middleware
const (
	actorKey     = "actor"
	requestIDKey = "request_id"
)

// ActorResolver looks up the current identity behind a token subject
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID int64) (models.Actor, error)
}

// AuthMiddleware returns a Gin middleware that authenticates the Bearer
// token and stores the actor it names in the context. Username and role
// are read back from the store, so renamed or deleted accounts take effect
// on tokens issued before the change.
func AuthMiddleware(jwtSecret []byte, resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the JWT token from the Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authentication required")
			return
		}

		// Check if the Authorization header starts with "Bearer "
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid token format")
			return
		}

		// Parse the JWT token
		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		userID, ok := userIDFromClaims(claims)
		if !ok {
			abortUnauthorized(c, "Invalid user in token")
			return
		}

		actor, err := resolver.ResolveActor(c.Request.Context(), userID)
		if errors.Is(err, service.ErrUnauthorized) {
			abortUnauthorized(c, "User no longer exists")
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
				Status:  "error",
				Code:    "STORAGE_FAILURE",
				Message: "Internal server error",
			})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// AdminOnly rejects actors without the admin role. It must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentActor(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Status:  "error",
				Code:    "FORBIDDEN",
				Message: "Admin role required",
			})
			return
		}
		c.Next()
	}
}

// RequestID tags every request with an id, reusing X-Request-ID when sent
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Request.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger writes one log line per request
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if v, exists := c.Get(actorKey); exists {
			if actor, ok := v.(models.Actor); ok {
				fields = append(fields, zap.Int64("user_id", actor.UserID))
			}
		}

		switch {
		case status >= 500:
			logger.Error("Server error", fields...)
		case status >= 400:
			logger.Warn("Client error", fields...)
		default:
			logger.Info("Request", fields...)
		}
	}
}

func userIDFromClaims(claims jwt.MapClaims) (int64, bool) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}

// currentActor returns the authenticated actor, or the zero actor on
// routes without AuthMiddleware
func currentActor(c *gin.Context) models.Actor {
	if v, exists := c.Get(actorKey); exists {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Status:  "error",
		Code:    "UNAUTHORIZED",
		Message: message,
	})
}
