package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bizdocs/backend/internal/domain/document"
	"github.com/bizdocs/backend/internal/infrastructure/auth"
	"github.com/bizdocs/backend/internal/infrastructure/logger"
	"github.com/bizdocs/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor context key and request headers
const (
	ActorKey        = "actor"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
	HeaderUserID    = "X-User-ID"
	HeaderUserName  = "X-User-Name"
	HeaderUserAdmin = "X-User-Admin"
)

// TokenValidator validates bearer tokens and resolves them into actors
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
	Actor(claims *auth.Claims) document.Actor
}

// ActorConfig holds configuration for the actor middleware
type ActorConfig struct {
	Tokens TokenValidator
	// AllowHeaders accepts X-User-* headers when no bearer token is sent
	AllowHeaders bool
	Logger       *zap.Logger
}

// ActorMiddleware resolves the acting user of every request.
// Authentication happens upstream; this only extracts who is acting.
func ActorMiddleware(cfg ActorConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		actor, err := resolveActor(c, cfg)
		if err != nil {
			code := dto.ErrCodeUnauthorized
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
			}
			cfg.Logger.Debug("Actor rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(code, err.Error(), GetRequestID(c)))
			return
		}

		c.Set(ActorKey, actor)
		if actor.ID != nil {
			c.Set(logger.GinActorIDKey, actor.ID.String())
			c.Request = c.Request.WithContext(logger.WithActorID(c.Request.Context(), actor.ID.String()))
		}
		c.Next()
	}
}

func resolveActor(c *gin.Context, cfg ActorConfig) (document.Actor, error) {
	if header := c.GetHeader(AuthHeaderKey); header != "" {
		if cfg.Tokens == nil {
			return document.Actor{}, errors.New("token authentication is not configured")
		}
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || token == "" {
			return document.Actor{}, errors.New("invalid authorization header format")
		}
		claims, err := cfg.Tokens.ValidateToken(token)
		if err != nil {
			return document.Actor{}, err
		}
		return cfg.Tokens.Actor(claims), nil
	}

	if cfg.AllowHeaders {
		return headerActor(c)
	}
	return document.Actor{}, errors.New("missing authorization header")
}

// headerActor reads the development X-User-* headers
func headerActor(c *gin.Context) (document.Actor, error) {
	rawID := c.GetHeader(HeaderUserID)
	if rawID == "" {
		return document.Actor{}, errors.New("missing " + HeaderUserID + " header")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return document.Actor{}, errors.New("invalid " + HeaderUserID + " header")
	}
	admin, _ := strconv.ParseBool(c.GetHeader(HeaderUserAdmin))
	return document.Actor{ID: &id, Name: c.GetHeader(HeaderUserName), Admin: admin}, nil
}

// GetActor returns the actor set by ActorMiddleware, or the system actor
func GetActor(c *gin.Context) document.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(document.Actor); ok {
			return actor
		}
	}
	return document.SystemActor
}
