// meet-ai/internal/handlers/webhook_handler_test.go

package handlers_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookEvent(eventType, meetingID string, extra map[string]interface{}) map[string]interface{} {
	event := map[string]interface{}{
		"type":     eventType,
		"call_cid": "default:" + meetingID,
	}
	for k, v := range extra {
		event[k] = v
	}
	return event
}

func TestStreamWebhookLifecycle(t *testing.T) {
	t.Setenv("SKIP_WEBHOOK_VERIFICATION", "true")
	r := setupTest(t)
	agent := seedAgent(t, testUserID, "Tutor")
	meeting := seedMeeting(t, testUserID, agent.ID, "Lesson", nil)

	loadMeeting := func() models.Meeting {
		var m models.Meeting
		require.NoError(t, config.DB.First(&m, "id = ?", meeting.ID).Error)
		return m
	}

	// Звонок начался: upcoming -> active
	w := doJSON(t, r, http.MethodPost, "/api/webhooks/stream", webhookEvent("call.session_started", meeting.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	m := loadMeeting()
	assert.Equal(t, models.StatusActive, m.Status)
	require.NotNil(t, m.StartedAt)

	// Звонок завершился: active -> processing
	w = doJSON(t, r, http.MethodPost, "/api/webhooks/stream", webhookEvent("call.session_ended", meeting.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	m = loadMeeting()
	assert.Equal(t, models.StatusProcessing, m.Status)
	require.NotNil(t, m.EndedAt)
	assert.False(t, m.EndedAt.Before(*m.StartedAt))

	// Запись готова: статус не меняется, сохраняется ссылка
	w = doJSON(t, r, http.MethodPost, "/api/webhooks/stream", webhookEvent("call.recording_ready", meeting.ID, map[string]interface{}{
		"call_recording": map[string]interface{}{"url": "https://storage.example.com/rec.mp4"},
	}))
	require.Equal(t, http.StatusOK, w.Code)
	m = loadMeeting()
	assert.Equal(t, models.StatusProcessing, m.Status)
	require.NotNil(t, m.RecordingURL)

	// Транскрипт готов: processing -> completed
	w = doJSON(t, r, http.MethodPost, "/api/webhooks/stream", webhookEvent("call.transcription_ready", meeting.ID, map[string]interface{}{
		"call_transcription": map[string]interface{}{"url": "https://storage.example.com/transcript.jsonl"},
	}))
	require.Equal(t, http.StatusOK, w.Code)
	m = loadMeeting()
	assert.Equal(t, models.StatusCompleted, m.Status)
	require.NotNil(t, m.TranscriptURL)
}

func TestStreamWebhookRejectsInvalidTransition(t *testing.T) {
	t.Setenv("SKIP_WEBHOOK_VERIFICATION", "true")
	r := setupTest(t)
	agent := seedAgent(t, testUserID, "Tutor")
	meeting := seedMeeting(t, testUserID, agent.ID, "Lesson", func(m *models.Meeting) {
		m.Status = models.StatusCompleted
	})

	// Завершенная встреча не может снова стать активной
	w := doJSON(t, r, http.MethodPost, "/api/webhooks/stream", webhookEvent("call.session_started", meeting.ID, nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	var m models.Meeting
	require.NoError(t, config.DB.First(&m, "id = ?", meeting.ID).Error)
	assert.Equal(t, models.StatusCompleted, m.Status)
}

func TestStreamWebhookUnknownMeeting(t *testing.T) {
	t.Setenv("SKIP_WEBHOOK_VERIFICATION", "true")
	r := setupTest(t)

	w := doJSON(t, r, http.MethodPost, "/api/webhooks/stream", webhookEvent("call.session_started", "no-such-meeting", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamWebhookSignature(t *testing.T) {
	t.Setenv("STREAM_WEBHOOK_SECRET", "hook-secret")
	r := setupTest(t)
	agent := seedAgent(t, testUserID, "Tutor")
	meeting := seedMeeting(t, testUserID, agent.ID, "Lesson", nil)

	body := []byte(`{"type":"call.session_started","call_cid":"default:` + meeting.ID + `"}`)

	send := func(signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stream", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if signature != "" {
			req.Header.Set("X-Signature", signature)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// Без подписи или с неверной подписью - отказ
	assert.Equal(t, http.StatusUnauthorized, send("").Code)
	assert.Equal(t, http.StatusUnauthorized, send("deadbeef").Code)

	// С корректной подписью событие обрабатывается
	mac := hmac.New(sha256.New, []byte("hook-secret"))
	mac.Write(body)
	w := send(hex.EncodeToString(mac.Sum(nil)))
	assert.Equal(t, http.StatusOK, w.Code)
}

// Проверяем, что движок маршрутов вообще собрался без конфликтов
func TestRouterSetup(t *testing.T) {
	assert.NotPanics(t, func() {
		gin.SetMode(gin.TestMode)
		_ = setupTest(t)
	})
}
