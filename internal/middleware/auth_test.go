package middleware

import (
	"lounge-portal/internal/config"
	"lounge-portal/internal/model"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, claims Claims, key string, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func validClaims(role string) Claims {
	return Claims{
		Email: "alice@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

// run passes a request through Identity and returns the status and resolved
// identity.
func run(t *testing.T, cfg config.Auth, req *http.Request, extra ...echo.MiddlewareFunc) (int, model.Identity) {
	t.Helper()

	e := echo.New()
	var seen model.Identity
	h := func(c echo.Context) error {
		seen = IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	}
	for i := len(extra) - 1; i >= 0; i-- {
		h = extra[i](h)
	}
	h = Identity(cfg)(h)

	rec := httptest.NewRecorder()
	err := h(e.NewContext(req, rec))
	if err != nil {
		e.HTTPErrorHandler(err, e.NewContext(req, rec))
	}

	return rec.Code, seen
}

func TestIdentity_BearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, validClaims("staff"), secret, jwt.SigningMethodHS256))

	code, identity := run(t, config.Auth{JWTSecret: secret}, req)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.AuthenticatedIdentity("user-alice", "alice@example.com", "staff"), identity)
}

func TestIdentity_QueryTokenAndDefaultRole(t *testing.T) {
	token := sign(t, validClaims("authenticated"), secret, jwt.SigningMethodHS256)
	req := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)

	code, identity := run(t, config.Auth{JWTSecret: secret}, req)

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, identity.IsAuthenticated())
	assert.Equal(t, model.RoleCustomer, identity.Role)
}

func TestIdentity_RejectsBadTokens(t *testing.T) {
	expired := validClaims("")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims("")
	noSubject.Subject = ""

	cases := map[string]string{
		"wrong key":  sign(t, validClaims(""), "other", jwt.SigningMethodHS256),
		"wrong alg":  sign(t, validClaims(""), secret, jwt.SigningMethodHS512),
		"expired":    sign(t, expired, secret, jwt.SigningMethodHS256),
		"no subject": sign(t, noSubject, secret, jwt.SigningMethodHS256),
		"garbage":    "not-a-jwt",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)

			code, _ := run(t, config.Auth{JWTSecret: secret, GuestMode: true}, req)
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	}
}

func TestIdentity_GuestMode(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	code, identity := run(t, config.Auth{JWTSecret: secret, GuestMode: true}, req, RequireUser())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.GuestIdentity(), identity)

	code, _ = run(t, config.Auth{JWTSecret: secret}, httptest.NewRequest(http.MethodGet, "/", nil), RequireUser())
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRequireRole(t *testing.T) {
	staffReq := httptest.NewRequest(http.MethodGet, "/", nil)
	staffReq.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, validClaims("staff"), secret, jwt.SigningMethodHS256))
	code, _ := run(t, config.Auth{JWTSecret: secret}, staffReq, RequireRole(model.RoleStaff, model.RoleAdmin))
	assert.Equal(t, http.StatusOK, code)

	customerReq := httptest.NewRequest(http.MethodGet, "/", nil)
	customerReq.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, validClaims(""), secret, jwt.SigningMethodHS256))
	code, _ = run(t, config.Auth{JWTSecret: secret}, customerReq, RequireRole(model.RoleStaff, model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = run(t, config.Auth{JWTSecret: secret, GuestMode: true}, httptest.NewRequest(http.MethodGet, "/", nil), RequireRole(model.RoleStaff))
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestParseToken_EmptySecret(t *testing.T) {
	claims := validClaims(model.RoleAdmin)
	claims.Subject = "intruder"
	forged := sign(t, claims, "", jwt.SigningMethodHS256)

	_, err := ParseToken("", forged)
	assert.ErrorIs(t, err, ErrNoSigningSecret)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+forged)
	code, _ := run(t, config.Auth{}, req, RequireRole(model.RoleStaff, model.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, code)
}
