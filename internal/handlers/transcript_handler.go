// meet-ai/internal/handlers/transcript_handler.go

package handlers

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/gin-gonic/gin"
)

// transcriptFetchTimeout ограничивает загрузку сырого транскрипта: если
// хранилище провайдера не отвечает, отдаем пустой транскрипт, а не висим.
const transcriptFetchTimeout = 15 * time.Second

// transcriptHTTPClient переопределяется в тестах.
var transcriptHTTPClient = &http.Client{Timeout: transcriptFetchTimeout}

// TranscriptEvent - одна реплика из сырого JSONL-лога провайдера.
// speaker_id может принадлежать пользователю, агенту или гостю.
type TranscriptEvent struct {
	SpeakerID string `json:"speaker_id"`
	Type      string `json:"type,omitempty"`
	Text      string `json:"text"`
	StartTs   int64  `json:"start_ts"`
	StopTs    int64  `json:"stop_ts"`
}

// transcriptSpeaker - разрешенная личность спикера для отображения.
type transcriptSpeaker struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// TranscriptEntry - реплика с разрешенным спикером. Имя и картинка заполнены
// всегда, даже если спикер не нашелся ни в одной таблице.
type TranscriptEntry struct {
	TranscriptEvent
	User transcriptSpeaker `json:"user"`
}

// GetTranscriptHandler строит готовый к отображению транскрипт встречи:
// скачивает сырой лог, собирает уникальные speaker_id и разрешает их
// по таблицам пользователей и агентов.
func GetTranscriptHandler(c *gin.Context) {
	currentUserID := c.GetString("user_id")

	var meeting models.Meeting
	err := config.DB.Where("id = ? AND user_id = ?", c.Param("id"), currentUserID).First(&meeting).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		return
	}

	// Встреча без транскрипта (например, еще в processing) - штатная ситуация
	if meeting.TranscriptURL == nil || *meeting.TranscriptURL == "" {
		c.JSON(http.StatusOK, []TranscriptEntry{})
		return
	}

	events := fetchTranscript(*meeting.TranscriptURL)
	if len(events) == 0 {
		c.JSON(http.StatusOK, []TranscriptEntry{})
		return
	}

	speakers := resolveSpeakers(events)

	entries := make([]TranscriptEntry, 0, len(events))
	for _, event := range events {
		speaker, ok := speakers[event.SpeakerID]
		if !ok {
			speaker = transcriptSpeaker{
				Name:  "Unknown",
				Image: generateAvatarURI("Unknown", avatarVariantInitials),
			}
		}
		entries = append(entries, TranscriptEntry{TranscriptEvent: event, User: speaker})
	}

	c.JSON(http.StatusOK, entries)
}

// fetchTranscript скачивает и разбирает JSONL-лог. Любая ошибка загрузки или
// разбора не фатальна: дашборд должен работать, даже когда экспорт у
// провайдера сломан, поэтому возвращаем пустой список, а не ошибку.
func fetchTranscript(url string) []TranscriptEvent {
	resp, err := transcriptHTTPClient.Get(url)
	if err != nil {
		slog.Warn("Не удалось скачать транскрипт", "error", err, "url", url)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Хранилище транскриптов вернуло ошибку", "status", resp.StatusCode, "url", url)
		return nil
	}

	var events []TranscriptEvent
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event TranscriptEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			slog.Warn("Не удалось разобрать строку транскрипта", "error", err)
			return nil
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("Ошибка чтения транскрипта", "error", err)
		return nil
	}
	return events
}

// resolveSpeakers разрешает speaker_id по таблицам пользователей, агентов и гостей.
// Пространства идентификаторов не пересекаются по построению (гости имеют
// префикс guest_), но на случай коллизии приоритет зафиксирован явно:
// пользователи раньше агентов.
func resolveSpeakers(events []TranscriptEvent) map[string]transcriptSpeaker {
	seen := make(map[string]bool)
	var speakerIDs []string
	for _, event := range events {
		if !seen[event.SpeakerID] {
			seen[event.SpeakerID] = true
			speakerIDs = append(speakerIDs, event.SpeakerID)
		}
	}

	speakers := make(map[string]transcriptSpeaker)

	var users []models.User
	if err := config.DB.Where("id IN ?", speakerIDs).Find(&users).Error; err != nil {
		slog.Error("Не удалось загрузить пользователей для транскрипта", "error", err)
	}
	for _, user := range users {
		speakers[user.ID] = transcriptSpeaker{
			Name:  user.Name,
			Image: userAvatar(user.Name, user.Image),
		}
	}

	var agents []models.Agent
	if err := config.DB.Where("id IN ?", speakerIDs).Find(&agents).Error; err != nil {
		slog.Error("Не удалось загрузить агентов для транскрипта", "error", err)
	}
	for _, agent := range agents {
		if _, exists := speakers[agent.ID]; exists {
			continue
		}
		speakers[agent.ID] = transcriptSpeaker{
			Name:  agent.Name,
			Image: generateAvatarURI(agent.Name, avatarVariantBot),
		}
	}

	// Гости живут в своем пространстве идентификаторов (префикс guest_),
	// записи о них хранятся именно для атрибуции в транскриптах
	var guests []models.MeetingGuest
	if err := config.DB.Where("guest_id IN ?", speakerIDs).Find(&guests).Error; err != nil {
		slog.Error("Не удалось загрузить гостей для транскрипта", "error", err)
	}
	for _, guest := range guests {
		if _, exists := speakers[guest.GuestID]; exists {
			continue
		}
		speakers[guest.GuestID] = transcriptSpeaker{
			Name:  guest.GuestName,
			Image: generateAvatarURI(guest.GuestName, avatarVariantInitials),
		}
	}

	return speakers
}
