package repository

import (
	"context"
	"time"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
)

// GradeFunc пересчитывает итог попытки по сохранённым ответам.
// Возвращает процент и признак сдачи (nil, если проходной балл не задан).
type GradeFunc func(answers []entity.AttemptAnswer) (score float64, passed *bool, err error)

// AttemptRepository определяет методы для работы с попытками и ответами
type AttemptRepository interface {
	// CreateInProgress атомарно создаёт новую попытку: проверяет отсутствие незавершённой,
	// назначает attempt_number = 1 + число прошлых попыток и сохраняет запись.
	// Возвращает apperrors.ErrAlreadyInProgress, если незавершённая попытка уже есть.
	CreateInProgress(ctx context.Context, attempt *entity.Attempt) error
	GetByID(ctx context.Context, id string) (*entity.Attempt, error)
	// GetActive возвращает незавершённую попытку пользователя по тесту
	GetActive(ctx context.Context, userID, quizID uint) (*entity.Attempt, error)
	ListByUserQuiz(ctx context.Context, userID, quizID uint) ([]entity.Attempt, error)
	ListByQuiz(ctx context.Context, quizID uint) ([]entity.Attempt, error)
	// UpsertAnswer сохраняет ответ с семантикой перезаписи, если попытка ещё не завершена.
	// Возвращает apperrors.ErrAttemptNotInProgress, если завершение уже зафиксировано.
	UpsertAnswer(ctx context.Context, answer *entity.AttemptAnswer) error
	ListAnswers(ctx context.Context, attemptID string) ([]entity.AttemptAnswer, error)
	// Complete фиксирует завершение ровно один раз и сохраняет результат grade.
	// Повторный вызов возвращает уже сохранённую попытку; второй результат true, если
	// завершение выполнено этим вызовом.
	Complete(ctx context.Context, attemptID string, completedAt time.Time, grade GradeFunc) (*entity.Attempt, bool, error)
}
