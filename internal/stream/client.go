// meet-ai/internal/stream/client.go

package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client - минимальный REST-клиент для видео/чат-провайдера (Stream).
// Токены подписываются локально (см. token.go), поэтому сетевые вызовы
// нужны только для upsert пользователей и создания звонков.
type Client struct {
	APIKey  string
	BaseURL string // Переопределяется в тестах

	apiSecret  string
	httpClient *http.Client
}

// NewClient создает клиент провайдера с ключом и секретом приложения.
func NewClient(apiKey, apiSecret string) *Client {
	return &Client{
		APIKey:    apiKey,
		BaseURL:   "https://video.stream-io-api.com",
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// UpsertUser - данные участника (пользователя, агента или гостя) для провайдера.
type UpsertUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"` // "admin" для владельца встречи, "user" для агентов и гостей
	Image string `json:"image,omitempty"`
}

// UpsertUsers создает или обновляет участников на стороне видеопровайдера.
// Провайдер не пустит в звонок субъекта, о котором ничего не знает,
// поэтому upsert всегда делается до выдачи токена.
func (c *Client) UpsertUsers(ctx context.Context, users ...UpsertUser) error {
	byID := make(map[string]UpsertUser, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return c.post(ctx, "/api/v2/users", map[string]interface{}{"users": byID})
}

// CreateCall создает звонок у провайдера с включенными записью и транскрипцией.
// Идентификатор звонка совпадает с идентификатором встречи.
func (c *Client) CreateCall(ctx context.Context, callType, callID, createdByID string, custom map[string]interface{}) error {
	body := map[string]interface{}{
		"data": map[string]interface{}{
			"created_by_id": createdByID,
			"custom":        custom,
			"settings_override": map[string]interface{}{
				"transcription": map[string]interface{}{
					"language":            "en",
					"mode":                "auto-on",
					"closed_caption_mode": "auto-on",
				},
				"recording": map[string]interface{}{
					"mode":    "auto-on",
					"quality": "1080p",
				},
			},
		},
	}
	path := fmt.Sprintf("/api/v2/video/call/%s/%s", callType, callID)
	return c.post(ctx, path, body)
}

// post выполняет запрос к API провайдера с серверной аутентификацией.
func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("stream: failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s%s?api_key=%s", c.BaseURL, path, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	serverToken, err := c.serverToken()
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", serverToken)
	req.Header.Set("stream-auth-type", "jwt")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stream: request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("stream: %s returned status %d: %s", path, resp.StatusCode, string(respBody))
	}
	return nil
}
