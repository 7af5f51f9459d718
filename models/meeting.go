// meet-ai/models/meeting.go

package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MeetingStatus - статус встречи в её жизненном цикле.
type MeetingStatus string

const (
	StatusUpcoming   MeetingStatus = "upcoming"
	StatusActive     MeetingStatus = "active"
	StatusProcessing MeetingStatus = "processing"
	StatusCompleted  MeetingStatus = "completed"
	StatusCancelled  MeetingStatus = "cancelled"
)

var (
	// ErrInvalidTransition - запрошенный переход запрещен таблицей переходов.
	ErrInvalidTransition = errors.New("недопустимый переход статуса встречи")
	// ErrStatusConflict - статус в базе успел измениться параллельным запросом.
	ErrStatusConflict = errors.New("статус встречи изменен параллельным запросом")
)

// allowedTransitions - явная таблица разрешенных переходов статуса.
// Все проверки жизненного цикла идут через неё: встреча, которая уже началась
// (active и далее), не может быть отменена, а completed и cancelled - терминальные.
var allowedTransitions = map[MeetingStatus][]MeetingStatus{
	StatusUpcoming:   {StatusActive, StatusCancelled},
	StatusActive:     {StatusProcessing},
	StatusProcessing: {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition проверяет, разрешен ли переход из статуса from в статус to.
func CanTransition(from, to MeetingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Meeting - встреча пользователя с AI-агентом.
type Meeting struct {
	ID      string `json:"id" gorm:"primaryKey"`
	UserID  string `json:"userId" gorm:"not null;index"`
	AgentID string `json:"agentId" gorm:"not null;index"`
	Name    string `json:"name" gorm:"not null"`

	Status MeetingStatus `json:"status" gorm:"type:varchar(20);not null;default:'upcoming'"`

	// Публичный доступ по ссылке. Инвариант: AccessToken не NULL только пока
	// IsPublic == true; при каждом включении генерируется новый токен.
	IsPublic    bool       `json:"isPublic" gorm:"not null;default:false"`
	AccessToken *string    `json:"-" gorm:"uniqueIndex"` // Секрет, наружу не сериализуется
	ExpiresAt   *time.Time `json:"expiresAt"`

	StartedAt     *time.Time `json:"startedAt"`
	EndedAt       *time.Time `json:"endedAt"`
	TranscriptURL *string    `json:"transcriptUrl"`
	RecordingURL  *string    `json:"recordingUrl"`
	Summary       *string    `json:"summary"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Agent *Agent `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
}

// BeforeCreate генерирует идентификатор встречи. Он же используется как
// идентификатор звонка у видеопровайдера.
func (m *Meeting) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = StatusUpcoming
	}
	return nil
}

// Transition переводит встречу в новый статус. Недопустимый переход оставляет
// статус без изменений и возвращает ошибку.
func (m *Meeting) Transition(to MeetingStatus) error {
	if !CanTransition(m.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, to)
	}
	m.Status = to
	return nil
}

// TransitionAndSave выполняет переход статуса и записывает его вместе с
// дополнительными полями одним условным UPDATE. Прочитанный статус входит
// в WHERE: если строка успела измениться параллельным запросом, UPDATE не
// затронет ни одной строки и вернется ErrStatusConflict, а состояние в базе
// останется нетронутым. Только так гарантируется, что каждый переход
// проверен против живой строки, а не против прочитанной когда-то копии.
func (m *Meeting) TransitionAndSave(db *gorm.DB, to MeetingStatus, updates map[string]interface{}) error {
	from := m.Status
	if err := m.Transition(to); err != nil {
		return err
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	result := db.Model(&Meeting{}).
		Where("id = ? AND status = ?", m.ID, from).
		Updates(updates)
	if result.Error != nil {
		m.Status = from
		return result.Error
	}
	if result.RowsAffected == 0 {
		m.Status = from
		return ErrStatusConflict
	}
	return nil
}

// Duration возвращает длительность звонка в секундах или nil, если звонок
// ещё не завершился.
func (m *Meeting) Duration() *float64 {
	if m.StartedAt == nil || m.EndedAt == nil {
		return nil
	}
	d := m.EndedAt.Sub(*m.StartedAt).Seconds()
	return &d
}
