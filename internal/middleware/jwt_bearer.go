package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jpcervantes/tours-api/internal/utils"
)

// JWTFromHeader valida "Authorization: Bearer <token>" y deja el token
// parseado en locals para AttachJWTLocals. Cualquier falla corta con
// 401, nunca llega al handler.
func JWTFromHeader(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token requerido",
			})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Formato de token inválido",
			})
		}

		token, err := jwt.ParseWithClaims(parts[1], &utils.Claims{}, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token inválido o expirado",
			})
		}

		c.Locals("user", token)
		return c.Next()
	}
}
