package postgres

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
)

// newTestDB открывает изолированную in-memory SQLite базу со схемой, совпадающей с миграциями
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.Quiz{},
		&entity.Question{},
		&entity.Option{},
		&entity.GapAnswer{},
		&entity.KeywordAnswer{},
		&entity.MatchingPair{},
		&entity.Attempt{},
		&entity.AttemptAnswer{},
	))
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_attempt_active ON attempts (user_id, quiz_id) WHERE completed_at IS NULL",
	).Error)

	return db
}

func seedQuiz(t *testing.T, db *gorm.DB) *entity.Quiz {
	t.Helper()

	quiz := &entity.Quiz{
		Title: "География",
		Questions: []entity.Question{
			{
				Type:   entity.QuestionSingleChoice,
				Text:   "Столица Франции?",
				Points: 1,
				Order:  2,
				Options: []entity.Option{
					{Text: "Париж", IsCorrect: true, Order: 1},
					{Text: "Рим", Order: 0},
				},
			},
			{
				Type:   entity.QuestionFillInTheGap,
				Text:   "{{g1}} — столица Италии",
				Points: 1,
				Order:  1,
				GapAnswers: []entity.GapAnswer{
					{GapIdentifier: "g1", CorrectText: "Рим", Points: 1},
				},
			},
		},
	}
	require.NoError(t, db.Create(quiz).Error)
	return quiz
}
