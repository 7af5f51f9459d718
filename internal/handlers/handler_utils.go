// meet-ai/internal/handlers/handler_utils.go

package handlers

import (
	"fmt"
	"net/url"
)

const avatarBaseURL = "https://api.dicebear.com/9.x"

// Варианты генерируемых аватаров: инициалы для людей, роботы для агентов.
const (
	avatarVariantInitials = "initials"
	avatarVariantBot      = "bottts-neutral"
)

// generateAvatarURI строит детерминированный URL аватара по seed-строке.
// Один и тот же seed всегда дает одну и ту же картинку, поэтому аватары
// в транскриптах стабильны между запросами.
func generateAvatarURI(seed, variant string) string {
	return fmt.Sprintf("%s/%s/svg?seed=%s", avatarBaseURL, variant, url.QueryEscape(seed))
}

// userAvatar возвращает фото пользователя, а при его отсутствии - аватар по имени.
func userAvatar(name string, image *string) string {
	if image != nil && *image != "" {
		return *image
	}
	return generateAvatarURI(name, avatarVariantInitials)
}
