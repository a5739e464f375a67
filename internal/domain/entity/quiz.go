package entity

import (
	"time"
)

// Quiz представляет тест с набором вопросов и настройками прохождения
type Quiz struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Title                string     `gorm:"size:200;not null" json:"title"`
	Description          string     `gorm:"size:1000;not null;default:''" json:"description"`
	TimeLimitMinutes     *int       `json:"time_limit_minutes,omitempty"` // nil — без ограничения
	RandomizeQuestions   bool       `gorm:"not null;default:false" json:"randomize_questions"`
	ShowCorrectAnswer    bool       `gorm:"not null;default:false" json:"show_correct_answer"`
	PassingGrade         *float64   `json:"passing_grade,omitempty"` // nil — понятия "сдал/не сдал" нет
	RetakePenaltyPercent float64    `gorm:"not null;default:0" json:"retake_penalty_percent"`
	Questions            []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// HasPassingGrade сообщает, определён ли проходной балл
func (q *Quiz) HasPassingGrade() bool {
	return q.PassingGrade != nil
}

// TimeLimit возвращает ограничение по времени и признак его наличия
func (q *Quiz) TimeLimit() (time.Duration, bool) {
	if q.TimeLimitMinutes == nil || *q.TimeLimitMinutes <= 0 {
		return 0, false
	}
	return time.Duration(*q.TimeLimitMinutes) * time.Minute, true
}

// TotalPoints возвращает сумму максимальных баллов всех вопросов теста.
// Вопросы должны быть загружены (Preload).
func (q *Quiz) TotalPoints() int {
	total := 0
	for i := range q.Questions {
		total += q.Questions[i].Points
	}
	return total
}

// FindQuestion ищет вопрос теста по ID среди загруженных вопросов
func (q *Quiz) FindQuestion(questionID uint) (*Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return &q.Questions[i], true
		}
	}
	return nil, false
}
