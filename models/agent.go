// meet-ai/models/agent.go

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agent - именованная конфигурация AI-собеседника.
// Агент принадлежит пользователю и может использоваться в нескольких встречах.
type Agent struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"userId" gorm:"not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Instructions string    `json:"instructions" gorm:"not null"` // Системный промпт, определяющий поведение агента
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate генерирует идентификатор агента.
// Идентификаторы пользователей, агентов и гостей живут в одном пространстве
// speaker_id в транскриптах, поэтому они должны быть глобально уникальными.
func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
