// meet-ai/models/user.go

package models

import (
	"time"
)

// User - локальная копия пользователя из внешнего сервиса сессий.
// Запись создается и обновляется только middleware аутентификации;
// само приложение пароли не хранит и не проверяет.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"unique;not null"`
	Image     *string   `json:"image"` // NULL, если у пользователя нет фото — тогда аватар генерируется по имени
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
