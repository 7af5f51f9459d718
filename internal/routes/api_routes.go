// meet-ai/internal/routes/api_routes.go
package routes

import (
	"github.com/maxwell-appwrk/meet-ai/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes регистрирует все маршруты API, требующие аутентификации.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		// --- ВСТРЕЧИ ---
		meetings := apiGroup.Group("/meetings")
		{
			meetings.GET("", handlers.ListMeetingsHandler)
			meetings.POST("", handlers.CreateMeetingHandler)
			// Токены провайдера для владельца; регистрируются до /:id,
			// чтобы не конфликтовать с параметрным маршрутом
			meetings.POST("/token", handlers.GenerateTokenHandler)
			meetings.POST("/chat-token", handlers.GenerateChatTokenHandler)

			meetings.GET("/:id", handlers.GetMeetingHandler)
			meetings.PUT("/:id", handlers.UpdateMeetingHandler)
			meetings.DELETE("/:id", handlers.RemoveMeetingHandler)
			meetings.POST("/:id/cancel", handlers.CancelMeetingHandler)
			meetings.POST("/:id/share", handlers.TogglePublicAccessHandler)
			meetings.GET("/:id/share", handlers.GetShareableLinkHandler)
			meetings.GET("/:id/transcript", handlers.GetTranscriptHandler)
		}

		// --- АГЕНТЫ ---
		agents := apiGroup.Group("/agents")
		{
			agents.GET("", handlers.ListAgentsHandler)
			agents.POST("", handlers.CreateAgentHandler)
			agents.GET("/:id", handlers.GetAgentHandler)
			agents.PUT("/:id", handlers.UpdateAgentHandler)
			agents.DELETE("/:id", handlers.DeleteAgentHandler)
		}

		// --- ДАШБОРД И ПРОФИЛЬ ---
		apiGroup.GET("/dashboard", handlers.GetDashboardDataHandler)
		apiGroup.GET("/profile", handlers.GetProfileHandler)
	}
}
