package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	"github.com/Wetende/crossview-sub004/internal/domain/repository"
	apperrors "github.com/Wetende/crossview-sub004/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository.
// Переходы состояния попытки выполняются условными UPDATE по completed_at IS NULL,
// поэтому отправка ответа и завершение сериализуются блокировкой строки попытки.
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// CreateInProgress атомарно создаёт попытку со следующим attempt_number.
// Частичный уникальный индекс idx_attempt_active (user_id, quiz_id WHERE completed_at IS NULL)
// и уникальный idx_attempt_number закрывают гонку двух одновременных стартов:
// проигравший получает 23505, который превращается в ErrAlreadyInProgress.
func (r *AttemptRepo) CreateInProgress(ctx context.Context, attempt *entity.Attempt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		err := tx.Model(&entity.Attempt{}).
			Where("user_id = ? AND quiz_id = ? AND completed_at IS NULL", attempt.UserID, attempt.QuizID).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: user #%d, quiz #%d", apperrors.ErrAlreadyInProgress, attempt.UserID, attempt.QuizID)
		}

		var prior int64
		err = tx.Model(&entity.Attempt{}).
			Where("user_id = ? AND quiz_id = ?", attempt.UserID, attempt.QuizID).
			Count(&prior).Error
		if err != nil {
			return err
		}
		attempt.AttemptNumber = int(prior) + 1

		if err := tx.Create(attempt).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: user #%d, quiz #%d", apperrors.ErrAlreadyInProgress, attempt.UserID, attempt.QuizID)
			}
			return fmt.Errorf("create attempt: %w", err)
		}
		return nil
	})
}

// GetByID возвращает попытку по ID
func (r *AttemptRepo) GetByID(ctx context.Context, id string) (*entity.Attempt, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// GetActive возвращает незавершённую попытку пользователя по тесту
func (r *AttemptRepo) GetActive(ctx context.Context, userID, quizID uint) (*entity.Attempt, error) {
	return r.first(r.db.WithContext(ctx), "user_id = ? AND quiz_id = ? AND completed_at IS NULL", userID, quizID)
}

func (r *AttemptRepo) first(db *gorm.DB, query string, args ...interface{}) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := db.Where(query, args...).First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// ListByUserQuiz возвращает все попытки пользователя по тесту в порядке номеров
func (r *AttemptRepo) ListByUserQuiz(ctx context.Context, userID, quizID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("attempt_number").
		Find(&attempts).Error
	return attempts, err
}

// ListByQuiz возвращает все попытки по тесту (для выгрузки)
func (r *AttemptRepo) ListByQuiz(ctx context.Context, quizID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("user_id, attempt_number").
		Find(&attempts).Error
	return attempts, err
}

// UpsertAnswer сохраняет ответ с перезаписью предыдущего по (attempt_id, question_id).
// Сначала условно "трогает" строку попытки: это и проверка состояния, и блокировка строки
// до конца транзакции, так что завершение не может вклиниться между проверкой и записью.
func (r *AttemptRepo) UpsertAnswer(ctx context.Context, answer *entity.AttemptAnswer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guard := tx.Model(&entity.Attempt{}).
			Where("id = ? AND completed_at IS NULL", answer.AttemptID).
			Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP"))
		if guard.Error != nil {
			return guard.Error
		}
		if guard.RowsAffected == 0 {
			if _, err := r.first(tx, "id = ?", answer.AttemptID); err != nil {
				return err
			}
			return fmt.Errorf("%w: attempt %s", apperrors.ErrAttemptNotInProgress, answer.AttemptID)
		}

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"question_type", "payload", "is_correct", "score", "updated_at",
			}),
		}).Create(answer).Error
		if err != nil {
			return fmt.Errorf("upsert answer for question #%d: %w", answer.QuestionID, err)
		}

		// После ON CONFLICT DO UPDATE перечитываем строку, чтобы вернуть актуальные id и created_at
		var stored entity.AttemptAnswer
		err = tx.Where("attempt_id = ? AND question_id = ?", answer.AttemptID, answer.QuestionID).
			First(&stored).Error
		if err != nil {
			return err
		}
		*answer = stored
		return nil
	})
}

// ListAnswers возвращает сохранённые ответы попытки
func (r *AttemptRepo) ListAnswers(ctx context.Context, attemptID string) ([]entity.AttemptAnswer, error) {
	var answers []entity.AttemptAnswer
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id").
		Find(&answers).Error
	return answers, err
}

// Complete завершает попытку ровно один раз.
// Условный UPDATE completed_at выигрывает только у первого вызова; остальные
// (в том числе параллельные) получают уже сохранённый результат без пересчёта.
func (r *AttemptRepo) Complete(ctx context.Context, attemptID string, completedAt time.Time, grade repository.GradeFunc) (*entity.Attempt, bool, error) {
	var (
		attempt   *entity.Attempt
		completed bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&entity.Attempt{}).
			Where("id = ? AND completed_at IS NULL", attemptID).
			Update("completed_at", completedAt)
		if claim.Error != nil {
			return claim.Error
		}

		var err error
		if claim.RowsAffected == 0 {
			attempt, err = r.first(tx, "id = ?", attemptID)
			return err
		}

		var answers []entity.AttemptAnswer
		if err := tx.Where("attempt_id = ?", attemptID).Order("question_id").Find(&answers).Error; err != nil {
			return err
		}

		score, passed, err := grade(answers)
		if err != nil {
			return err
		}

		err = tx.Model(&entity.Attempt{}).
			Where("id = ?", attemptID).
			Updates(map[string]interface{}{
				"score":  score,
				"passed": passed,
			}).Error
		if err != nil {
			return fmt.Errorf("store result of attempt %s: %w", attemptID, err)
		}

		attempt, err = r.first(tx, "id = ?", attemptID)
		completed = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return attempt, completed, nil
}

// isUniqueViolation проверяет unique violation (23505) для pgconn и lib/pq драйверов,
// а также переведённую gorm ошибку (TranslateError)
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
