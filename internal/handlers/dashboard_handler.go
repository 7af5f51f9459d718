// meet-ai/internal/handlers/dashboard_handler.go

package handlers

import (
	"net/http"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/gin-gonic/gin"
)

// GetDashboardDataHandler собирает данные для главной страницы:
// последние встречи, последние агенты со счетчиками встреч и общая статистика.
func GetDashboardDataHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var recentMeetings []models.Meeting
	err := config.DB.Preload("Agent").
		Where("user_id = ?", currentUserID).
		Order("created_at DESC").
		Limit(4).
		Find(&recentMeetings).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard data"})
		return
	}

	meetingItems := make([]meetingResponse, 0, len(recentMeetings))
	for _, m := range recentMeetings {
		meetingItems = append(meetingItems, toMeetingResponse(m))
	}

	var recentAgents []agentWithMeetingCount
	err = config.DB.Model(&models.Agent{}).
		Select("agents.*, count(meetings.id) as meeting_count").
		Joins("LEFT JOIN meetings ON meetings.agent_id = agents.id").
		Where("agents.user_id = ?", currentUserID).
		Group("agents.id").
		Order("agents.created_at DESC").
		Limit(3).
		Scan(&recentAgents).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard data"})
		return
	}

	var totalMeetings, completedMeetings, totalAgents int64
	config.DB.Model(&models.Meeting{}).Where("user_id = ?", currentUserID).Count(&totalMeetings)
	config.DB.Model(&models.Meeting{}).Where("user_id = ? AND status = ?", currentUserID, models.StatusCompleted).Count(&completedMeetings)
	config.DB.Model(&models.Agent{}).Where("user_id = ?", currentUserID).Count(&totalAgents)

	c.JSON(http.StatusOK, gin.H{
		"recentMeetings": meetingItems,
		"recentAgents":   recentAgents,
		"stats": gin.H{
			"totalMeetings":     totalMeetings,
			"completedMeetings": completedMeetings,
			"totalAgents":       totalAgents,
		},
	})
}
