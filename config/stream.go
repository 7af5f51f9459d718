// meet-ai/config/stream.go

package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/maxwell-appwrk/meet-ai/internal/stream"
)

// Stream - клиент внешнего видео/чат-провайдера. Все звонки, участники и
// токены доступа к звонкам идут через него.
var Stream *stream.Client

func InitStream() error {
	apiKey := os.Getenv("STREAM_API_KEY")
	apiSecret := os.Getenv("STREAM_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		return fmt.Errorf("STREAM_API_KEY and STREAM_API_SECRET environment variables must be set")
	}

	Stream = stream.NewClient(apiKey, apiSecret)
	if baseURL := os.Getenv("STREAM_BASE_URL"); baseURL != "" {
		Stream.BaseURL = baseURL
	}
	slog.Info("Клиент видеопровайдера инициализирован.")
	return nil
}
