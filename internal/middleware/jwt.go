package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/streamtube/internal/auth"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// (or the accessToken cookie set at login) and injects the token's identity
// claims into the request context.  The provided secret must match the one
// used when issuing access tokens.  This middleware wraps protected routes
// so handlers can read the caller via c.Get("user_id"), c.Get("user_name"),
// c.Get("email") and c.Get("full_name").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractAccessToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing access token"})
			}
			claims, err := auth.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			setIdentity(c, claims)
			return next(c)
		}
	}
}

// OptionalJWT is like JWTAuth but lets unauthenticated requests through with
// no identity in context.  Public endpoints use it to personalize responses
// (e.g. is_subscribed on channel profiles, watch history recording) without
// requiring login.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := extractAccessToken(c); raw != "" {
				if claims, err := auth.ParseAccessToken(secret, raw); err == nil {
					setIdentity(c, claims)
				}
				// An invalid token on a public route is treated as anonymous,
				// not rejected.
			}
			return next(c)
		}
	}
}

// extractAccessToken reads the access token from the Authorization header
// first, then falls back to the accessToken cookie written at login.
func extractAccessToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if ck, err := c.Cookie("accessToken"); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}

func setIdentity(c echo.Context, claims auth.AccessClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("user_name", claims.UserName)
	c.Set("email", claims.Email)
	c.Set("full_name", claims.FullName)
}
