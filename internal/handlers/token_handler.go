// meet-ai/internal/handlers/token_handler.go

package handlers

import (
	"net/http"
	"time"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/internal/stream"

	"github.com/gin-gonic/gin"
)

// hostTokenTTL - время жизни токена владельца встречи.
const hostTokenTTL = time.Hour

// hostUpsertUser собирает данные текущего пользователя для провайдера.
func hostUpsertUser(c *gin.Context) stream.UpsertUser {
	image := c.GetString("userImage")
	var imagePtr *string
	if image != "" {
		imagePtr = &image
	}
	return stream.UpsertUser{
		ID:    c.GetString("user_id"),
		Name:  c.GetString("userName"),
		Role:  "admin",
		Image: userAvatar(c.GetString("userName"), imagePtr),
	}
}

// GenerateTokenHandler выдает владельцу токен для входа в видеозвонок.
// Токен владельца не привязан к конкретному звонку.
func GenerateTokenHandler(c *gin.Context) {
	if err := config.Stream.UpsertUsers(c.Request.Context(), hostUpsertUser(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue credential"})
		return
	}

	token, err := config.Stream.GenerateUserToken(c.GetString("user_id"), hostTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue credential"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// GenerateChatTokenHandler выдает владельцу токен для чата завершенной встречи.
// Подпись токена у видео и чата общая, поэтому отдельного кодека не нужно.
func GenerateChatTokenHandler(c *gin.Context) {
	if err := config.Stream.UpsertUsers(c.Request.Context(), hostUpsertUser(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue credential"})
		return
	}

	token, err := config.Stream.GenerateUserToken(c.GetString("user_id"), hostTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue credential"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
