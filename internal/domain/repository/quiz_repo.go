package repository

import (
	"context"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
)

// QuizRepository определяет методы для работы с банком вопросов.
// Движок оценивания только читает эти данные; запись нужна авторской стороне.
type QuizRepository interface {
	Create(ctx context.Context, quiz *entity.Quiz) error
	// AddQuestions сохраняет вопросы вместе с ключами ответов в одной транзакции
	AddQuestions(ctx context.Context, quizID uint, questions []entity.Question) error
	GetByID(ctx context.Context, id uint) (*entity.Quiz, error)
	// GetWithQuestions возвращает тест с вопросами и всеми коллекциями ключей ответов
	GetWithQuestions(ctx context.Context, id uint) (*entity.Quiz, error)
	List(ctx context.Context, limit, offset int) ([]entity.Quiz, int64, error)
	Delete(ctx context.Context, id uint) error
	// HasAttempts сообщает, есть ли по тесту хотя бы одна попытка
	HasAttempts(ctx context.Context, quizID uint) (bool, error)
}
