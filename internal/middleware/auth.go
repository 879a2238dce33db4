package middleware

import (
	"errors"
	"lounge-portal/internal/config"
	"lounge-portal/internal/model"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

var ErrNoSigningSecret = errors.New("token signing secret is not configured")

// Claims of the access tokens issued by the auth provider.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Identity resolves the caller once per request. A valid bearer token gives
// an authenticated identity. Without a token the caller is a guest when guest
// mode is on and anonymous otherwise. A malformed or expired token is
// rejected outright.
func Identity(cfg config.Auth) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := model.Identity{Kind: model.IdentityAnonymous}
			if cfg.GuestMode {
				identity = model.GuestIdentity()
			}

			if raw := tokenFromRequest(c); raw != "" {
				parsed, err := ParseToken(cfg.JWTSecret, raw)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				identity = parsed
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

func ParseToken(secret, raw string) (model.Identity, error) {
	if secret == "" {
		return model.Identity{}, ErrNoSigningSecret
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Identity{}, err
	}
	if claims.Subject == "" {
		return model.Identity{}, errors.New("token has no subject")
	}

	role := claims.Role
	if role == "" || role == "authenticated" {
		role = model.RoleCustomer
	}

	return model.AuthenticatedIdentity(claims.Subject, claims.Email, role), nil
}

// tokenFromRequest reads the bearer header, falling back to the token query
// parameter that browsers use for websocket upgrades.
func tokenFromRequest(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.QueryParam("token")
}

func IdentityFrom(c echo.Context) model.Identity {
	identity, ok := c.Get(identityKey).(model.Identity)
	if !ok {
		return model.Identity{Kind: model.IdentityAnonymous}
	}
	return identity
}

// RequireUser rejects anonymous callers. Guests pass.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IdentityFrom(c).HasUser() {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if !identity.IsAuthenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			for _, role := range roles {
				if identity.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
	}
}
