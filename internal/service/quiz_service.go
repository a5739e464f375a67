package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	"github.com/Wetende/crossview-sub004/internal/domain/repository"
	apperrors "github.com/Wetende/crossview-sub004/internal/pkg/errors"
)

// QuizService предоставляет методы для работы с банком вопросов (авторская сторона)
type QuizService struct {
	quizRepo  repository.QuizRepository
	cacheRepo repository.CacheRepository
}

// NewQuizService создает новый сервис тестов. cacheRepo может быть nil.
func NewQuizService(quizRepo repository.QuizRepository, cacheRepo repository.CacheRepository) *QuizService {
	return &QuizService{
		quizRepo:  quizRepo,
		cacheRepo: cacheRepo,
	}
}

// CreateQuiz проверяет и создает новый тест (вместе с вопросами, если они переданы)
func (s *QuizService) CreateQuiz(ctx context.Context, quiz *entity.Quiz) error {
	if err := ValidateQuiz(quiz); err != nil {
		return err
	}
	for i := range quiz.Questions {
		if err := ValidateQuestion(&quiz.Questions[i]); err != nil {
			return fmt.Errorf("question #%d: %w", i+1, err)
		}
		warnPointsMismatch(&quiz.Questions[i])
	}

	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}

	log.Printf("[QuizService] Создан тест #%d: %s (вопросов: %d)", quiz.ID, quiz.Title, len(quiz.Questions))
	return nil
}

// AddQuestions проверяет и добавляет вопросы в тест
func (s *QuizService) AddQuestions(ctx context.Context, quizID uint, questions []entity.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions to add", apperrors.ErrValidation)
	}
	for i := range questions {
		if err := ValidateQuestion(&questions[i]); err != nil {
			return fmt.Errorf("question #%d: %w", i+1, err)
		}
		warnPointsMismatch(&questions[i])
	}

	if err := s.quizRepo.AddQuestions(ctx, quizID, questions); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)

	log.Printf("[QuizService] В тест #%d добавлено вопросов: %d", quizID, len(questions))
	return nil
}

// GetQuiz возвращает тест без вопросов
func (s *QuizService) GetQuiz(ctx context.Context, quizID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetByID(ctx, quizID)
}

// GetQuizWithQuestions возвращает тест с вопросами и ключами ответов
func (s *QuizService) GetQuizWithQuestions(ctx context.Context, quizID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetWithQuestions(ctx, quizID)
}

// ListQuizzes возвращает страницу тестов и общее количество
func (s *QuizService) ListQuizzes(ctx context.Context, page, pageSize int) ([]entity.Quiz, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.quizRepo.List(ctx, pageSize, (page-1)*pageSize)
}

// DeleteQuiz удаляет тест, если по нему ещё нет попыток
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID uint) error {
	has, err := s.quizRepo.HasAttempts(ctx, quizID)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: quiz #%d already has attempts", apperrors.ErrConflict, quizID)
	}

	if err := s.quizRepo.Delete(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)

	log.Printf("[QuizService] Удалён тест #%d", quizID)
	return nil
}

func (s *QuizService) invalidate(ctx context.Context, quizID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(ctx, quizCacheKey(quizID)); err != nil {
		log.Printf("[QuizService] WARNING: не удалось сбросить кеш теста #%d: %v", quizID, err)
	}
}

// warnPointsMismatch логирует расхождение баллов вопроса и его ключа ответа.
// Такой вопрос допустим: при оценке баллы ограничиваются Question.Points.
func warnPointsMismatch(q *entity.Question) {
	if q.Type.UsesOptions() {
		return
	}
	if key := q.KeyPoints(); key != q.Points {
		log.Printf("[QuizService] WARNING: вопрос %q (%s) стоит %d баллов, а ключ ответа — %d",
			truncate(q.Text, 40), q.Type, q.Points, key)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
