package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/utils"
)

const testSecret = "unit-test-secret"

func invoke(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(testSecret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := invoke(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMalformedHeader(t *testing.T) {
	rec, _ := invoke(t, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthInvalidToken(t *testing.T) {
	rec, _ := invoke(t, "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("some-other-secret", 7, 15)
	require.NoError(t, err)

	rec, _ := invoke(t, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 7, 15)
	require.NoError(t, err)

	rec, c := invoke(t, "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	uid, ok := UserID(c)
	require.True(t, ok)
	assert.Equal(t, uint64(7), uid)
}

func TestUserIDMissing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := UserID(c)
	assert.False(t, ok)
}
