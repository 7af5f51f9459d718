// meet-ai/internal/handlers/meeting_handler.go

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/internal/stream"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MeetingInput - структура для создания встречи.
type MeetingInput struct {
	Name      string     `json:"name" binding:"required"`
	AgentID   string     `json:"agentId" binding:"required"`
	IsPublic  bool       `json:"isPublic"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// MeetingUpdateInput - структура для обновления встречи владельцем.
type MeetingUpdateInput struct {
	Name    string `json:"name" binding:"required"`
	AgentID string `json:"agentId" binding:"required"`
}

// meetingResponse - встреча с агентом и длительностью звонка для фронтенда.
type meetingResponse struct {
	models.Meeting
	Duration *float64 `json:"duration"`
}

func toMeetingResponse(m models.Meeting) meetingResponse {
	return meetingResponse{Meeting: m, Duration: m.Duration()}
}

// CreateMeetingHandler создает встречу и соответствующий ей звонок у провайдера.
// Встреча не должна существовать без звонка, поэтому создание идет в одной
// транзакции: ошибка провайдера откатывает вставку.
func CreateMeetingHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var input MeetingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	var agent models.Agent
	if err := config.DB.Where("id = ? AND user_id = ?", input.AgentID, currentUserID).First(&agent).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	}

	meeting := models.Meeting{
		UserID:   currentUserID,
		AgentID:  agent.ID,
		Name:     input.Name,
		Status:   models.StatusUpcoming,
		IsPublic: input.IsPublic,
	}
	if input.IsPublic {
		token, err := generateAccessToken()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create meeting"})
			return
		}
		meeting.AccessToken = &token
		meeting.ExpiresAt = input.ExpiresAt
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&meeting).Error; err != nil {
			return err
		}
		return config.Stream.CreateCall(c.Request.Context(), "default", meeting.ID, currentUserID, map[string]interface{}{
			"meetingId":   meeting.ID,
			"meetingName": meeting.Name,
		})
	})
	if err != nil {
		slog.Error("Не удалось создать звонок у провайдера", "error", err, "user_id", currentUserID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create meeting"})
		return
	}

	// Регистрируем агента у провайдера, чтобы он мог подключиться к звонку
	err = config.Stream.UpsertUsers(c.Request.Context(), stream.UpsertUser{
		ID:    agent.ID,
		Name:  agent.Name,
		Role:  "user",
		Image: generateAvatarURI(agent.Name, avatarVariantBot),
	})
	if err != nil {
		slog.Warn("Не удалось зарегистрировать агента у провайдера", "error", err, "agent_id", agent.ID)
	}

	meeting.Agent = &agent
	c.JSON(http.StatusCreated, toMeetingResponse(meeting))
}

// ListMeetingsHandler возвращает встречи пользователя с агентами,
// с пагинацией, поиском по названию и фильтрами по агенту и статусу.
func ListMeetingsHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	query := config.DB.Model(&models.Meeting{}).Where("user_id = ?", currentUserID)
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}
	if agentID := c.Query("agentId"); agentID != "" {
		query = query.Where("agent_id = ?", agentID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count meetings"})
		return
	}

	var meetings []models.Meeting
	err := query.
		Preload("Agent").
		Order("created_at DESC, id DESC").
		Scopes(Paginate(c)).
		Find(&meetings).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch meetings"})
		return
	}

	items := make([]meetingResponse, 0, len(meetings))
	for _, m := range meetings {
		items = append(items, toMeetingResponse(m))
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, items, total))
}

// GetMeetingHandler возвращает одну встречу пользователя с агентом.
func GetMeetingHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var meeting models.Meeting
	err := config.DB.Preload("Agent").
		Where("id = ? AND user_id = ?", c.Param("id"), currentUserID).
		First(&meeting).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		return
	}

	c.JSON(http.StatusOK, toMeetingResponse(meeting))
}

// UpdateMeetingHandler переименовывает встречу или меняет её агента.
func UpdateMeetingHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var input MeetingUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	// Новый агент тоже должен принадлежать пользователю
	var agent models.Agent
	if err := config.DB.Where("id = ? AND user_id = ?", input.AgentID, currentUserID).First(&agent).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	}

	result := config.DB.Model(&models.Meeting{}).
		Where("id = ? AND user_id = ?", c.Param("id"), currentUserID).
		Updates(map[string]interface{}{
			"name":     input.Name,
			"agent_id": input.AgentID,
		})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update meeting"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		return
	}

	var meeting models.Meeting
	if err := config.DB.Preload("Agent").First(&meeting, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update meeting"})
		return
	}
	c.JSON(http.StatusOK, toMeetingResponse(meeting))
}

// RemoveMeetingHandler удаляет встречу пользователя вместе с гостевыми записями.
func RemoveMeetingHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var meeting models.Meeting
	err := config.DB.Where("id = ? AND user_id = ?", c.Param("id"), currentUserID).First(&meeting).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meeting.ID).Delete(&models.MeetingGuest{}).Error; err != nil {
			return err
		}
		return tx.Delete(&meeting).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete meeting"})
		return
	}

	c.JSON(http.StatusOK, toMeetingResponse(meeting))
}

// CancelMeetingHandler отменяет встречу. Отмена возможна только до начала
// звонка - все остальные переходы отвергает таблица переходов. Запись идет
// условным UPDATE: если вебхук провайдера успел стартовать звонок между
// чтением и записью, отмена получает конфликт, а не затирает статус.
func CancelMeetingHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var meeting models.Meeting
	err := config.DB.Where("id = ? AND user_id = ?", c.Param("id"), currentUserID).First(&meeting).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		return
	}

	if err := meeting.TransitionAndSave(config.DB, models.StatusCancelled, nil); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) || errors.Is(err, models.ErrStatusConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Meeting can no longer be cancelled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel meeting"})
		return
	}

	c.JSON(http.StatusOK, toMeetingResponse(meeting))
}
