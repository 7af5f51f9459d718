// meet-ai/internal/handlers/agent_handler.go

package handlers

import (
	"net/http"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/gin-gonic/gin"
)

// AgentInput - структура для создания и обновления агента.
type AgentInput struct {
	Name         string `json:"name" binding:"required"`
	Instructions string `json:"instructions" binding:"required"`
}

// agentWithMeetingCount - агент со счетчиком встреч для списков и дашборда.
type agentWithMeetingCount struct {
	models.Agent
	MeetingCount int64 `json:"meetingCount"`
}

// CreateAgentHandler создает нового агента для текущего пользователя.
func CreateAgentHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var input AgentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	agent := models.Agent{
		UserID:       currentUserID,
		Name:         input.Name,
		Instructions: input.Instructions,
	}
	if err := config.DB.Create(&agent).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create agent"})
		return
	}

	c.JSON(http.StatusCreated, agent)
}

// ListAgentsHandler возвращает агентов пользователя со счетчиком встреч,
// с пагинацией и поиском по имени.
func ListAgentsHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	query := config.DB.Model(&models.Agent{}).Where("agents.user_id = ?", currentUserID)
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(agents.name) LIKE LOWER(?)", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count agents"})
		return
	}

	var agents []agentWithMeetingCount
	err := query.
		Select("agents.*, count(meetings.id) as meeting_count").
		Joins("LEFT JOIN meetings ON meetings.agent_id = agents.id").
		Group("agents.id").
		Order("agents.created_at DESC").
		Scopes(Paginate(c)).
		Scan(&agents).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch agents"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, agents, total))
}

// GetAgentHandler возвращает одного агента пользователя.
func GetAgentHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var agent models.Agent
	err := config.DB.Where("id = ? AND user_id = ?", c.Param("id"), currentUserID).First(&agent).Error
	if err != nil {
		// Чужой агент выглядит так же, как несуществующий
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	}

	c.JSON(http.StatusOK, agent)
}

// UpdateAgentHandler обновляет имя и инструкции агента.
func UpdateAgentHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var input AgentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result := config.DB.Model(&models.Agent{}).
		Where("id = ? AND user_id = ?", c.Param("id"), currentUserID).
		Updates(map[string]interface{}{
			"name":         input.Name,
			"instructions": input.Instructions,
		})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update agent"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	}

	var agent models.Agent
	if err := config.DB.First(&agent, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update agent"})
		return
	}
	c.JSON(http.StatusOK, agent)
}

// DeleteAgentHandler удаляет агента пользователя.
func DeleteAgentHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	result := config.DB.Where("id = ? AND user_id = ?", c.Param("id"), currentUserID).Delete(&models.Agent{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete agent"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Agent deleted successfully"})
}
