// meet-ai/models/guest.go

package models

import (
	"gorm.io/gorm"
)

// MeetingGuest - запись о госте, присоединившемся к публичной встрече по ссылке.
// Создается один раз при успешном join и больше не изменяется: GuestID попадает
// в speaker_id транскрипта и нужен для атрибуции после звонка.
type MeetingGuest struct {
	gorm.Model
	MeetingID string `json:"meetingId" gorm:"not null;index"`
	GuestID   string `json:"guestId" gorm:"not null;uniqueIndex"` // Всегда с префиксом "guest_"
	GuestName string `json:"guestName" gorm:"not null"`           // Отображаемое имя со слов гостя, не является идентификатором
}
