// meet-ai/internal/handlers/profile_handler.go

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetProfileHandler возвращает данные текущего авторизованного пользователя.
// Middleware уже загрузило всё нужное в контекст, лишних запросов не делаем.
func GetProfileHandler(c *gin.Context) {
	image := c.GetString("userImage")
	var imagePtr *string
	if image != "" {
		imagePtr = &image
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    c.GetString("user_id"),
		"name":  c.GetString("userName"),
		"email": c.GetString("userEmail"),
		"image": userAvatar(c.GetString("userName"), imagePtr),
	})
}
