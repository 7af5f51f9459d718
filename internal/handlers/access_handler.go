// meet-ai/internal/handlers/access_handler.go

package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/internal/stream"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// guestTokenTTL - время жизни гостевого токена у видеопровайдера.
const guestTokenTTL = time.Hour

// generateAccessToken выпускает непрозрачный токен публичной ссылки:
// 32 байта криптографической случайности в URL-безопасной кодировке.
// Токен нигде не разбирается - только сравнивается с сохраненным значением.
func generateAccessToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// generateGuestID выпускает идентификатор гостя. Префикс "guest_" держит
// гостей в отдельном пространстве speaker_id от пользователей и агентов.
func generateGuestID() string {
	return "guest_" + uuid.NewString()
}

// ToggleAccessInput - структура для включения/выключения публичного доступа.
type ToggleAccessInput struct {
	IsPublic  *bool      `json:"isPublic" binding:"required"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// GuestJoinInput - структура запроса гостя на вход в звонок.
type GuestJoinInput struct {
	GuestName string `json:"guestName" binding:"required,max=50"`
}

// TogglePublicAccessHandler включает или выключает публичный доступ к встрече.
// Флаг и токен меняются одним UPDATE: читатель никогда не увидит публичную
// встречу без токена или приватную с живым токеном. При каждом включении
// генерируется новый токен - старые ссылки перестают работать.
func TogglePublicAccessHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var input ToggleAccessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	updates := map[string]interface{}{
		"is_public":    *input.IsPublic,
		"access_token": nil,
		"expires_at":   input.ExpiresAt,
	}
	if *input.IsPublic {
		token, err := generateAccessToken()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update meeting"})
			return
		}
		updates["access_token"] = token
	}

	result := config.DB.Model(&models.Meeting{}).
		Where("id = ? AND user_id = ?", c.Param("id"), currentUserID).
		Updates(updates)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update meeting"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		return
	}

	var meeting models.Meeting
	if err := config.DB.First(&meeting, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update meeting"})
		return
	}
	c.JSON(http.StatusOK, toMeetingResponse(meeting))
}

// GetShareableLinkHandler возвращает публичную ссылку на встречу
// или null, если встреча не публичная.
func GetShareableLinkHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var meeting models.Meeting
	err := config.DB.Where("id = ? AND user_id = ?", c.Param("id"), currentUserID).First(&meeting).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		return
	}

	if !meeting.IsPublic || meeting.AccessToken == nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	baseURL := os.Getenv("APP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	c.JSON(http.StatusOK, gin.H{
		"link":      fmt.Sprintf("%s/join/%s", baseURL, *meeting.AccessToken),
		"expiresAt": meeting.ExpiresAt,
	})
}

// checkGuestAccess проверяет, что по встрече можно пустить гостя.
// Возвращает HTTP-статус и сообщение либо (0, "") при успехе.
// Используется и при валидации ссылки, и при самом входе: состояние могло
// измениться между двумя запросами, поэтому вход перепроверяет всё заново.
func checkGuestAccess(meeting *models.Meeting) (int, string) {
	if !meeting.IsPublic {
		return http.StatusForbidden, "This meeting is not public"
	}
	if meeting.ExpiresAt != nil && meeting.ExpiresAt.Before(time.Now()) {
		return http.StatusForbidden, "This meeting link has expired"
	}
	if meeting.Status == models.StatusCompleted || meeting.Status == models.StatusCancelled {
		return http.StatusForbidden, "This meeting has ended"
	}
	return 0, ""
}

// ValidateGuestAccessHandler проверяет публичную ссылку и возвращает данные
// для экрана подтверждения входа - ничего чувствительного.
func ValidateGuestAccessHandler(c *gin.Context) {
	var meeting models.Meeting
	err := config.DB.Preload("Agent").
		Where("access_token = ?", c.Param("accessToken")).
		First(&meeting).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid meeting link"})
		return
	}

	if status, message := checkGuestAccess(&meeting); status != 0 {
		c.JSON(status, gin.H{"error": message})
		return
	}

	agentName := ""
	if meeting.Agent != nil {
		agentName = meeting.Agent.Name
	}

	c.JSON(http.StatusOK, gin.H{
		"meetingId":   meeting.ID,
		"meetingName": meeting.Name,
		"agentName":   agentName,
		"status":      meeting.Status,
	})
}

// GenerateGuestTokenHandler впускает гостя в звонок: создает одноразовую
// гостевую личность и выдает токен провайдера, привязанный ровно к одному
// звонку. Токен гостя нельзя использовать для входа в другие встречи.
func GenerateGuestTokenHandler(c *gin.Context) {
	var input GuestJoinInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	var meeting models.Meeting
	err := config.DB.Where("access_token = ?", c.Param("accessToken")).First(&meeting).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid meeting link"})
		return
	}

	if status, message := checkGuestAccess(&meeting); status != 0 {
		c.JSON(status, gin.H{"error": message})
		return
	}

	// Каждый вход - новая гостевая личность, повторного использования нет.
	// Гостевая запись и выдача токена идут в одной транзакции: запись о госте
	// существует только для успешных входов, ошибка провайдера откатывает вставку.
	guestID := generateGuestID()
	guest := models.MeetingGuest{
		MeetingID: meeting.ID,
		GuestID:   guestID,
		GuestName: input.GuestName,
	}
	var token string
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&guest).Error; err != nil {
			return err
		}
		if err := config.Stream.UpsertUsers(c.Request.Context(), stream.UpsertUser{
			ID:    guestID,
			Name:  input.GuestName,
			Role:  "user",
			Image: generateAvatarURI(input.GuestName, avatarVariantInitials),
		}); err != nil {
			return err
		}
		signed, err := config.Stream.GenerateUserToken(guestID, guestTokenTTL, "default:"+meeting.ID)
		if err != nil {
			return err
		}
		token = signed
		return nil
	})
	if err != nil {
		slog.Warn("Не удалось впустить гостя в звонок", "error", err, "meeting_id", meeting.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join meeting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"guestId":   guestID,
		"meetingId": meeting.ID,
	})
}
