package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	apperrors "github.com/Wetende/crossview-sub004/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий тестов
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает новый тест (вместе с вопросами, если они заполнены)
func (r *QuizRepo) Create(ctx context.Context, quiz *entity.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

// AddQuestions добавляет вопросы с ключами ответов в существующий тест.
// Все вопросы сохраняются в одной транзакции: либо все, либо ни одного.
func (r *QuizRepo) AddQuestions(ctx context.Context, quizID uint, questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz entity.Quiz
		if err := tx.Select("id").First(&quiz, quizID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		for i := range questions {
			questions[i].QuizID = quizID
		}
		if err := tx.Create(&questions).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate option order, gap identifier or pair key", apperrors.ErrValidation)
			}
			return fmt.Errorf("create questions for quiz #%d: %w", quizID, err)
		}
		return nil
	})
}

// GetByID возвращает тест по ID без вопросов
func (r *QuizRepo) GetByID(ctx context.Context, id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.WithContext(ctx).First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions возвращает тест вместе с вопросами и всеми ключами ответов.
// Вопросы и варианты упорядочены по sort_order, затем по id.
func (r *QuizRepo) GetWithQuestions(ctx context.Context, id uint) (*entity.Quiz, error) {
	byOrder := func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order, id")
	}

	var quiz entity.Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", byOrder).
		Preload("Questions.Options", byOrder).
		Preload("Questions.GapAnswers", byOrder).
		Preload("Questions.KeywordAnswers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Questions.MatchingPairs", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// List возвращает страницу тестов (новые первыми) и общее количество
func (r *QuizRepo) List(ctx context.Context, limit, offset int) ([]entity.Quiz, int64, error) {
	var (
		quizzes []entity.Quiz
		total   int64
	)
	query := r.db.WithContext(ctx).Model(&entity.Quiz{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Limit(limit).Offset(offset).Order("id DESC").Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

// Delete удаляет тест вместе с вопросами и ключами ответов
func (r *QuizRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questionIDs := tx.Model(&entity.Question{}).Select("id").Where("quiz_id = ?", id)

		for _, satellite := range []interface{}{
			&entity.Option{}, &entity.GapAnswer{}, &entity.KeywordAnswer{}, &entity.MatchingPair{},
		} {
			if err := tx.Where("question_id IN (?)", questionIDs).Delete(satellite).Error; err != nil {
				return fmt.Errorf("delete answer keys of quiz #%d: %w", id, err)
			}
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&entity.Question{}).Error; err != nil {
			return fmt.Errorf("delete questions of quiz #%d: %w", id, err)
		}

		result := tx.Delete(&entity.Quiz{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// HasAttempts сообщает, есть ли по тесту хотя бы одна попытка
func (r *QuizRepo) HasAttempts(ctx context.Context, quizID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Attempt{}).
		Where("quiz_id = ?", quizID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
