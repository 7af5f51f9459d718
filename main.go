// meet-ai/main.go

package main

import (
	"log/slog"
	"os"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/internal/routes"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Файл .env не найден, используются переменные окружения.")
	}

	config.ConnectDB()
	config.ConnectRedis()
	config.InitSessionKey()

	if err := config.InitStream(); err != nil {
		slog.Error("Не удалось инициализировать клиент видеопровайдера", "error", err)
		os.Exit(1)
	}

	// Gemini опционален: без него просто не будет резюме встреч
	if err := config.InitGoogleServices(); err != nil {
		slog.Warn("Gemini недоступен, резюме встреч отключены", "error", err)
	}

	if err := config.DB.AutoMigrate(
		&models.User{},
		&models.Agent{},
		&models.Meeting{},
		&models.MeetingGuest{},
	); err != nil {
		slog.Error("Ошибка миграции базы данных", "error", err)
		os.Exit(1)
	}

	r := gin.Default()
	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		slog.Error("Сервер остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
}
