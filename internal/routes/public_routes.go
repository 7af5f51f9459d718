// meet-ai/internal/routes/public_routes.go
package routes

import (
	"github.com/maxwell-appwrk/meet-ai/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes регистрирует маршруты, не требующие аутентификации:
// гостевой вход по публичной ссылке и колбэки видеопровайдера.
func RegisterPublicRoutes(r *gin.Engine) {
	// Гостевой доступ: валидация ссылки и вход в звонок
	r.GET("/api/join/:accessToken", handlers.ValidateGuestAccessHandler)
	r.POST("/api/join/:accessToken", handlers.GenerateGuestTokenHandler)

	// Колбэки провайдера двигают жизненный цикл встречи
	r.POST("/api/webhooks/stream", handlers.StreamWebhookHandler)
}
