// internal/middleware/jwt_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuthMiddleware validates an HS256 bearer token signed with secret and
// stores its subject in the context under "subject". A ?token= query value
// is accepted for websocket clients that cannot set headers.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := c.QueryParam("token")

			if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					return unauthorized(c, "Invalid authorization header format", "INVALID_AUTH_HEADER")
				}
				tokenString = parts[1]
			}
			if tokenString == "" {
				return unauthorized(c, "Unauthorized", "UNAUTHORIZED")
			}

			token, err := parser.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil || !token.Valid {
				return unauthorized(c, "Invalid or expired token", "INVALID_TOKEN")
			}

			subject, _ := token.Claims.GetSubject()
			c.Set("subject", subject)

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, message, code string) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"error": message,
		"code":  code,
	})
}
