package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamtube/internal/auth"
)

// Cookie names for the token pair.  Both cookies are HttpOnly so scripts
// cannot read them, SameSite=Strict, and Secure in production so they only
// travel over TLS.  Each cookie's lifetime is aligned with its token's TTL.
const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// setAuthCookies writes both token cookies.  Called on login and on every
// successful rotation.
func setAuthCookies(c echo.Context, access, refresh auth.Token, secure bool) {
	setTokenCookie(c, accessCookieName, access.Value, access.Exp, secure)
	setTokenCookie(c, refreshCookieName, refresh.Value, refresh.Exp, secure)
}

// clearAuthCookies expires both token cookies client-side.  Logout clears
// the server-side refresh slot first and these cookies second, so by the
// time the cookies disappear any copied refresh token is already dead.
func clearAuthCookies(c echo.Context, secure bool) {
	expireTokenCookie(c, accessCookieName, secure)
	expireTokenCookie(c, refreshCookieName, secure)
}

func setTokenCookie(c echo.Context, name, value string, expires time.Time, secure bool) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func expireTokenCookie(c echo.Context, name string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
