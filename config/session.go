// meet-ai/config/session.go

package config

import (
	"log/slog"
	"os"
)

// JwtKey - ключ проверки подписи сессионных токенов внешнего сервиса
// аутентификации. Сами токены выпускает внешний сервис; мы их только читаем.
var JwtKey []byte

func InitSessionKey() {
	key := os.Getenv("SESSION_JWT_SECRET")
	if key == "" {
		slog.Error("Критическая ошибка: переменная окружения SESSION_JWT_SECRET не установлена.")
		os.Exit(1)
	}
	JwtKey = []byte(key)
}
