package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// jwtMiddleware проверяет JWT токен администратора. Токен берётся из
// заголовка Authorization, для websocket допускается параметр ?token=.
func (rs *RestServer) jwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Отсутствует токен авторизации",
			})
			return
		}

		claims, err := rs.signer.Validate(token)
		if err != nil {
			rs.log.Debug("🔒 Отклонён токен: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Недействительный токен",
			})
			return
		}
		if !claims.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, GenericResponse{
				Success: false,
				Message: "Недостаточно прав доступа",
			})
			return
		}

		c.Set("subject", claims.Subject)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// corsMiddleware разрешает запросы с любых источников (админ-панель)
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
