package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fuyanik/user-management-case/internal/auth"
	"github.com/fuyanik/user-management-case/internal/config"
	"github.com/fuyanik/user-management-case/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const claimsKey = "claims"

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				respondError(c, http.StatusInternalServerError, "Internal server error", nil)
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		if claims, ok := c.Get(claimsKey); ok {
			event = event.Str("user_id", claims.(*auth.Claims).UserID)
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS. Session cookies need credentials, so the
// request origin is echoed instead of a wildcard.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware requires a valid session token from the auth cookie or a
// Bearer Authorization header.
func authMiddleware(authSvc service.AuthService, cfg *config.AuthConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cfg.CookieName)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}

		claims, err := authSvc.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrAccountDisabled):
			clearSessionCookie(c, cfg)
			respondError(c, http.StatusUnauthorized, "Account is deactivated", nil)
			return
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
			clearSessionCookie(c, cfg)
			respondError(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		default:
			log.Error().Err(err).Msg("Failed to verify session")
			respondError(c, http.StatusInternalServerError, "Failed to verify session", nil)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// adminOnly rejects requests whose session does not carry the ADMIN role
func adminOnly(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := currentClaims(c); claims == nil || !claims.IsAdmin() {
			respondError(c, http.StatusForbidden, message, nil)
			return
		}
		c.Next()
	}
}

func sessionToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func currentClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func setSessionCookie(c *gin.Context, cfg *config.AuthConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, token, int(cfg.TokenTTL.Seconds()), "/", "", cfg.CookieSecure, true)
}

func clearSessionCookie(c *gin.Context, cfg *config.AuthConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)
}
