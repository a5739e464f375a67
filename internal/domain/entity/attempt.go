package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Статусы жизненного цикла попытки. Статус вычисляется из CompletedAt и в БД не хранится.
const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"
)

// UintArray - пользовательский тип для хранения порядка вопросов в JSONB
type UintArray []uint

// Scan реализует интерфейс sql.Scanner для UintArray
func (a *UintArray) Scan(value interface{}) error {
	if value == nil {
		*a = UintArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		// SQLite отдаёт JSON как строку
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*a = UintArray{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Value реализует интерфейс driver.Valuer для UintArray
func (a UintArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Attempt: одна попытка пользователя пройти тест.
// ID: UUID, он же источник зерна для перемешивания вопросов.
type Attempt struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	UserID        uint       `gorm:"not null;index;uniqueIndex:idx_attempt_number" json:"user_id"`
	QuizID        uint       `gorm:"not null;index;uniqueIndex:idx_attempt_number" json:"quiz_id"`
	AttemptNumber int        `gorm:"not null;uniqueIndex:idx_attempt_number" json:"attempt_number"`
	QuestionOrder UintArray  `gorm:"type:jsonb;not null" json:"question_order"`
	StartedAt     time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt   *time.Time `gorm:"index" json:"completed_at,omitempty"`
	Score         *float64   `json:"score,omitempty"`  // процент, nil до завершения
	Passed        *bool      `json:"passed,omitempty"` // nil до завершения и навсегда, если у теста нет проходного балла
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Attempt) TableName() string {
	return "attempts"
}

// IsCompleted проверяет, завершена ли попытка
func (a *Attempt) IsCompleted() bool {
	return a.CompletedAt != nil
}

// IsInProgress проверяет, идёт ли попытка
func (a *Attempt) IsInProgress() bool {
	return a.CompletedAt == nil
}

// Status возвращает статус жизненного цикла
func (a *Attempt) Status() string {
	if a.IsCompleted() {
		return AttemptStatusCompleted
	}
	return AttemptStatusInProgress
}

// ExpiresAt возвращает рекомендуемый дедлайн попытки, если у теста есть ограничение по времени
func (a *Attempt) ExpiresAt(quiz *Quiz) (time.Time, bool) {
	limit, ok := quiz.TimeLimit()
	if !ok {
		return time.Time{}, false
	}
	return a.StartedAt.Add(limit), true
}

// AttemptAnswer: ответ на один вопрос в рамках попытки (уникален по паре attempt+question).
// Payload хранит нормализованный ответ в конверте с типом вопроса на момент отправки.
type AttemptAnswer struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AttemptID    string         `gorm:"size:36;not null;uniqueIndex:idx_attempt_question" json:"attempt_id"`
	QuestionID   uint           `gorm:"not null;uniqueIndex:idx_attempt_question" json:"question_id"`
	QuestionType QuestionType   `gorm:"size:32;not null" json:"question_type"`
	Payload      datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	IsCorrect    bool           `gorm:"not null;default:false" json:"is_correct"`
	Score        int            `gorm:"not null;default:0" json:"score"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}

// DecodeAnswer восстанавливает типизированный ответ из сохранённого конверта
func (a *AttemptAnswer) DecodeAnswer() (Answer, error) {
	return DecodeAnswer(a.Payload)
}
