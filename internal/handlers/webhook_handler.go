// meet-ai/internal/handlers/webhook_handler.go

package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
)

var (
	errMissingWebhookSecret = errors.New("STREAM_WEBHOOK_SECRET is not set")
	errBadWebhookSignature  = errors.New("signature mismatch")
)

// StreamWebhookInput - событие жизненного цикла звонка от видеопровайдера.
// Только эти события двигают статус встречи: само приложение ничего не опрашивает.
type StreamWebhookInput struct {
	Type    string `json:"type"`
	CallCID string `json:"call_cid"` // Формат "default:<meetingId>"

	CallTranscription struct {
		URL string `json:"url"`
	} `json:"call_transcription"`
	CallRecording struct {
		URL string `json:"url"`
	} `json:"call_recording"`
}

// StreamWebhookHandler обрабатывает колбэки провайдера:
//   - call.session_started:      upcoming -> active
//   - call.session_ended:        active -> processing
//   - call.transcription_ready:  processing -> completed (+ транскрипт и резюме)
//   - call.recording_ready:      сохраняет ссылку на запись
//
// Недопустимый переход отклоняется, статус остается прежним.
func StreamWebhookHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	// Для локальной разработки проверку подписи можно отключить
	if os.Getenv("SKIP_WEBHOOK_VERIFICATION") != "true" {
		signature := c.GetHeader("X-Signature")
		if err := verifyWebhookSignature(signature, body, os.Getenv("STREAM_WEBHOOK_SECRET")); err != nil {
			slog.Warn("Неверная подпись вебхука", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
			return
		}
	}

	var input StreamWebhookInput
	if err := json.Unmarshal(body, &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	meetingID := meetingIDFromCallCID(input.CallCID)
	if meetingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing call_cid"})
		return
	}

	var meeting models.Meeting
	if err := config.DB.Where("id = ?", meetingID).First(&meeting).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		return
	}

	// Переходы статуса пишутся условным UPDATE (TransitionAndSave): прочитанный
	// статус входит в WHERE, поэтому два конкурирующих события не могут оба
	// пройти проверку против одной и той же устаревшей копии строки.
	now := time.Now()
	switch input.Type {
	case "call.session_started":
		err = meeting.TransitionAndSave(config.DB, models.StatusActive, map[string]interface{}{
			"started_at": now,
		})

	case "call.session_ended":
		err = meeting.TransitionAndSave(config.DB, models.StatusProcessing, map[string]interface{}{
			"ended_at": now,
		})

	case "call.transcription_ready":
		updates := map[string]interface{}{}
		if input.CallTranscription.URL != "" {
			updates["transcript_url"] = input.CallTranscription.URL
			meeting.TranscriptURL = &input.CallTranscription.URL
		}
		if summary := generateMeetingSummary(&meeting); summary != "" {
			updates["summary"] = summary
		}
		err = meeting.TransitionAndSave(config.DB, models.StatusCompleted, updates)

	case "call.recording_ready":
		// Статус не меняется, сохраняем только ссылку на запись
		if input.CallRecording.URL != "" {
			err = config.DB.Model(&meeting).Update("recording_url", input.CallRecording.URL).Error
		}

	default:
		// Остальные события провайдера нам не интересны
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) || errors.Is(err, models.ErrStatusConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Invalid meeting state transition"})
			return
		}
		slog.Error("Не удалось сохранить изменения встречи из вебхука", "error", err, "meeting_id", meeting.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update meeting"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// verifyWebhookSignature сверяет HMAC-SHA256 подпись тела запроса.
func verifyWebhookSignature(signature string, body []byte, secret string) error {
	if secret == "" {
		return errMissingWebhookSecret
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return errBadWebhookSignature
	}
	return nil
}

// meetingIDFromCallCID извлекает идентификатор встречи из call_cid провайдера.
func meetingIDFromCallCID(callCID string) string {
	_, id, found := strings.Cut(callCID, ":")
	if !found {
		return ""
	}
	return id
}

// generateMeetingSummary строит короткое резюме завершенной встречи по её
// транскрипту. Резюме - приятное дополнение, а не обязательная часть
// жизненного цикла: любая ошибка здесь просто оставляет поле пустым.
func generateMeetingSummary(meeting *models.Meeting) string {
	if config.GeminiClient == nil || meeting.TranscriptURL == nil {
		return ""
	}

	events := fetchTranscript(*meeting.TranscriptURL)
	if len(events) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Summarize the following meeting transcript in a few sentences. " +
		"Mention the main topics and any decisions made. Transcript:\n\n")
	for _, event := range events {
		sb.WriteString(event.SpeakerID)
		sb.WriteString(": ")
		sb.WriteString(event.Text)
		sb.WriteString("\n")
	}

	resp, err := config.GeminiClient.GenerateContent(config.Ctx, genai.Text(sb.String()))
	if err != nil {
		slog.Warn("Не удалось сгенерировать резюме встречи", "error", err, "meeting_id", meeting.ID)
		return ""
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	if text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
		return string(text)
	}
	return ""
}
