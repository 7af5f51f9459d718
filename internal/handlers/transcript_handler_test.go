// meet-ai/internal/handlers/transcript_handler_test.go

package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveTranscript поднимает заглушку хранилища артефактов с заданным JSONL.
func serveTranscript(t *testing.T, body string, status int) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

type transcriptEntryResp struct {
	SpeakerID string `json:"speaker_id"`
	Text      string `json:"text"`
	StartTs   int64  `json:"start_ts"`
	User      struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"user"`
}

func TestGetTranscript(t *testing.T) {
	r := setupTest(t)
	owner := seedUser(t, testUserID, "Bob")
	agent := seedAgent(t, testUserID, "Tutor")

	jsonl := fmt.Sprintf(
		"{\"speaker_id\":%q,\"text\":\"Hello\",\"start_ts\":0,\"stop_ts\":2}\n"+
			"{\"speaker_id\":%q,\"text\":\"Hi, Bob\",\"start_ts\":2,\"stop_ts\":4}\n"+
			"{\"speaker_id\":\"mystery\",\"text\":\"Who am I?\",\"start_ts\":4,\"stop_ts\":6}\n",
		owner.ID, agent.ID,
	)
	url := serveTranscript(t, jsonl, http.StatusOK)

	meeting := seedMeeting(t, testUserID, agent.ID, "Lesson", func(m *models.Meeting) {
		m.Status = models.StatusCompleted
		m.TranscriptURL = &url
	})

	w := doJSON(t, r, http.MethodGet, "/api/meetings/"+meeting.ID+"/transcript", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []transcriptEntryResp
	decodeBody(t, w, &entries)

	// Порядок и количество реплик совпадают с сырым логом
	require.Len(t, entries, 3)
	assert.Equal(t, "Hello", entries[0].Text)
	assert.Equal(t, "Hi, Bob", entries[1].Text)
	assert.Equal(t, "Who am I?", entries[2].Text)

	// Пользователь и агент разрешены по своим таблицам
	assert.Equal(t, "Bob", entries[0].User.Name)
	assert.Equal(t, "Tutor", entries[1].User.Name)
	assert.Contains(t, entries[1].User.Image, "bottts-neutral")

	// Неизвестный спикер получает имя Unknown и непустой аватар
	assert.Equal(t, "Unknown", entries[2].User.Name)
	assert.NotEmpty(t, entries[2].User.Image)

	// Ни одна реплика не остается без имени
	for _, entry := range entries {
		assert.NotEmpty(t, entry.User.Name)
		assert.NotEmpty(t, entry.User.Image)
	}
}

func TestGetTranscriptResolvesGuests(t *testing.T) {
	r := setupTest(t)
	agent := seedAgent(t, testUserID, "Tutor")

	guestID := "guest_abc123"
	jsonl := fmt.Sprintf("{\"speaker_id\":%q,\"text\":\"Hello from guest\",\"start_ts\":0,\"stop_ts\":2}\n", guestID)
	url := serveTranscript(t, jsonl, http.StatusOK)

	meeting := seedMeeting(t, testUserID, agent.ID, "Lesson", func(m *models.Meeting) {
		m.Status = models.StatusCompleted
		m.TranscriptURL = &url
	})
	require.NoError(t, config.DB.Create(&models.MeetingGuest{
		MeetingID: meeting.ID,
		GuestID:   guestID,
		GuestName: "Alice",
	}).Error)

	w := doJSON(t, r, http.MethodGet, "/api/meetings/"+meeting.ID+"/transcript", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []transcriptEntryResp
	decodeBody(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "Alice", entries[0].User.Name)
}

func TestGetTranscriptNoArtifact(t *testing.T) {
	r := setupTest(t)
	agent := seedAgent(t, testUserID, "Tutor")
	// Встреча еще в processing, транскрипта нет - это не ошибка
	meeting := seedMeeting(t, testUserID, agent.ID, "Lesson", func(m *models.Meeting) {
		m.Status = models.StatusProcessing
	})

	w := doJSON(t, r, http.MethodGet, "/api/meetings/"+meeting.ID+"/transcript", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []transcriptEntryResp
	decodeBody(t, w, &entries)
	assert.Empty(t, entries)
}

func TestGetTranscriptFetchFailure(t *testing.T) {
	r := setupTest(t)
	agent := seedAgent(t, testUserID, "Tutor")

	t.Run("storage error", func(t *testing.T) {
		url := serveTranscript(t, "oops", http.StatusInternalServerError)
		meeting := seedMeeting(t, testUserID, agent.ID, "Lesson", func(m *models.Meeting) {
			m.TranscriptURL = &url
		})

		// Сломанный экспорт провайдера деградирует до пустого транскрипта
		w := doJSON(t, r, http.MethodGet, "/api/meetings/"+meeting.ID+"/transcript", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var entries []transcriptEntryResp
		decodeBody(t, w, &entries)
		assert.Empty(t, entries)
	})

	t.Run("malformed jsonl", func(t *testing.T) {
		url := serveTranscript(t, "{not json}\n", http.StatusOK)
		meeting := seedMeeting(t, testUserID, agent.ID, "Lesson", func(m *models.Meeting) {
			m.TranscriptURL = &url
		})

		w := doJSON(t, r, http.MethodGet, "/api/meetings/"+meeting.ID+"/transcript", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var entries []transcriptEntryResp
		decodeBody(t, w, &entries)
		assert.Empty(t, entries)
	})
}

func TestGetTranscriptNotOwned(t *testing.T) {
	r := setupTest(t)
	agent := seedAgent(t, otherTestUserID, "Tutor")
	meeting := seedMeeting(t, otherTestUserID, agent.ID, "Чужая встреча", nil)

	w := doJSON(t, r, http.MethodGet, "/api/meetings/"+meeting.ID+"/transcript", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
