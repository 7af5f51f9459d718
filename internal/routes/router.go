// meet-ai/internal/routes/router.go
package routes

import (
	"github.com/maxwell-appwrk/meet-ai/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes инициализирует все маршруты приложения.
func SetupRoutes(r *gin.Engine) {
	// --- Публичные маршруты ---
	// Гостевой вход по ссылке и вебхуки провайдера не требуют сессии.
	RegisterPublicRoutes(r)

	// --- Защищенная группа маршрутов ---
	// Все остальные маршруты требуют валидного сессионного токена.
	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware())
	{
		RegisterAPIRoutes(authRequired)
	}
}
