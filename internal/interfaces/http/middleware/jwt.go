package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mtax/backend/internal/infrastructure/auth"
	"github.com/mtax/backend/internal/infrastructure/logger"
	"github.com/mtax/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	// DevUserHeader names the acting user in development when no token is sent.
	DevUserHeader = "X-User-ID"

	// JWTUserIDKey holds the acting user id in the gin context.
	JWTUserIDKey = "jwt_user_id"

	jwtClaimsKey   = "jwt_claims"
	jwtUsernameKey = "jwt_username"
)

var errMissingCredentials = errors.New("missing bearer token")

// JWTMiddlewareConfig configures JWTAuthMiddlewareWithConfig.
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// SkipPaths match exactly; SkipPathPrefixes match by prefix.
	SkipPaths        []string
	SkipPathPrefixes []string
	// AllowDevUserHeader accepts X-User-ID on requests without an
	// Authorization header. The server enables it outside production only.
	AllowDevUserHeader bool
	// OnError replaces the default 401 response.
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig leaves health, ping, docs and the gateway callback open.
// The callback carries its own HMAC signature instead of a user token.
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/system/ping",
			"/api/v1/ledger/payments/gateway/callback",
		},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// JWTAuthMiddlewareWithConfig resolves the acting user of each request.
// Ledger writes record that user as created_by / revoked_by.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	open := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		open[p] = struct{}{}
	}
	isOpen := func(path string) bool {
		if _, ok := open[path]; ok {
			return true
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	fail := func(c *gin.Context, err error) {
		if cfg.OnError != nil {
			cfg.OnError(c, err)
			return
		}
		log.Warn("JWT authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		code, text := authErrorCode(err)
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			dto.NewErrorResponseWithRequestID(code, text, GetRequestID(c)))
	}

	return func(c *gin.Context) {
		if isOpen(c.Request.URL.Path) {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			devUser := c.GetHeader(DevUserHeader)
			if !cfg.AllowDevUserHeader || devUser == "" {
				fail(c, errMissingCredentials)
				return
			}
			log.Debug("Acting as development user", zap.String("user_id", devUser))
			setActingUser(c, devUser, "")
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || token == "" {
			fail(c, errMissingCredentials)
			return
		}
		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(jwtClaimsKey, claims)
		setActingUser(c, claims.UserID, claims.Username)
		c.Next()
	}
}

func authErrorCode(err error) (code, message string) {
	switch {
	case errors.Is(err, errMissingCredentials):
		return dto.ErrCodeUnauthorized, "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

func setActingUser(c *gin.Context, userID, username string) {
	c.Set(JWTUserIDKey, userID)
	if username != "" {
		c.Set(jwtUsernameKey, username)
	}
	ctx, _ := logger.WithUserID(c.Request.Context(), logger.FromContext(c.Request.Context()), userID)
	c.Request = c.Request.WithContext(ctx)
}

// GetJWTClaims returns the verified token claims, or nil when the request
// came in through the development header.
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(jwtClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// GetJWTUserID returns the acting user id.
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

func GetJWTUsername(c *gin.Context) string {
	return c.GetString(jwtUsernameKey)
}
