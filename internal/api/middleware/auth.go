package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Auth validates the bearer token and injects the verified user id into
// context under "user_id". Requests without a valid token are rejected.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := parseBearer(c, jwtSecret)
			if err != nil {
				return err
			}
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			c.Set("user_id", userID)
			return next(c)
		}
	}
}

// OptionalAuth injects the user id when a valid bearer token is present but
// lets anonymous requests through. A token that is present yet invalid is
// still rejected: silently downgrading bad credentials to anonymous would
// mask client bugs.
func OptionalAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := parseBearer(c, jwtSecret)
			if err != nil {
				return err
			}
			if userID != "" {
				c.Set("user_id", userID)
			}
			return next(c)
		}
	}
}

// parseBearer extracts and verifies the Authorization header. It returns an
// empty id (and nil error) when no header is present.
func parseBearer(c echo.Context, jwtSecret string) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	userID, _ := claims["id"].(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}
	return userID, nil
}
