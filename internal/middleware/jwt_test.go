package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/streamtube/internal/auth"
	"github.com/iliyamo/streamtube/internal/model"
)

const jwtTestSecret = "test-access-secret"

func freshAccessToken(t *testing.T) string {
	t.Helper()
	tok, err := auth.NewAccessToken(jwtTestSecret, model.User{
		ID: 5, UserName: "carol", Email: "carol@example.com", FullName: "Carol C",
	}, time.Minute)
	require.NoError(t, err)
	return tok.Value
}

func runWith(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	_ = handler(c)
	return rec, c
}

func TestJWTAuthBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+freshAccessToken(t))

	rec, c := runWith(JWTAuth(jwtTestSecret), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(5), c.Get("user_id"))
	assert.Equal(t, "carol", c.Get("user_name"))
}

func TestJWTAuthCookieFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: freshAccessToken(t)})

	rec, c := runWith(JWTAuth(jwtTestSecret), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(5), c.Get("user_id"))
}

func TestJWTAuthRejections(t *testing.T) {
	// No token at all.
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec, _ := runWith(JWTAuth(jwtTestSecret), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with a different secret.
	other, err := auth.NewAccessToken("other-secret", model.User{ID: 5}, time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+other.Value)
	rec, c := runWith(JWTAuth(jwtTestSecret), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, c.Get("user_id"))
}

func TestOptionalJWTAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/videos", nil)
	rec, c := runWith(OptionalJWT(jwtTestSecret), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("user_id"))
}

func TestOptionalJWTInvalidTokenIsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/videos", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec, c := runWith(OptionalJWT(jwtTestSecret), req)

	// A bad token on a public route does not reject the request.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("user_id"))
}

func TestOptionalJWTWithIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/videos", nil)
	req.Header.Set("Authorization", "Bearer "+freshAccessToken(t))
	rec, c := runWith(OptionalJWT(jwtTestSecret), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(5), c.Get("user_id"))
}
