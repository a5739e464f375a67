package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	"github.com/Wetende/crossview-sub004/internal/domain/repository"
	apperrors "github.com/Wetende/crossview-sub004/internal/pkg/errors"
	"github.com/Wetende/crossview-sub004/internal/service/assessment"
)

const testAttemptID = "3f2a9c1e-7b4d-4e8a-9c2b-1d5e6f7a8b9c"

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func boolPtr(v bool) *bool          { return &v }
func floatPtr(v float64) *float64   { return &v }
func intPtr(v int) *int             { return &v }
func timePtr(v time.Time) *time.Time { return &v }

// testQuiz: тест из трёх вопросов: single_choice (2 балла), fill_in_the_gap (2), keywords (1)
func testQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:           5,
		Title:        "Основы",
		PassingGrade: floatPtr(60),
		Questions: []entity.Question{
			{
				ID: 11, QuizID: 5, Type: entity.QuestionSingleChoice, Text: "2+2?", Points: 2, Order: 1,
				Options: []entity.Option{
					{ID: 101, QuestionID: 11, Text: "3", Order: 0},
					{ID: 102, QuestionID: 11, Text: "4", IsCorrect: true, Order: 1},
				},
			},
			{
				ID: 12, QuizID: 5, Type: entity.QuestionFillInTheGap, Text: "{{a}} и {{b}}", Points: 2, Order: 2,
				GapAnswers: []entity.GapAnswer{
					{ID: 201, QuestionID: 12, GapIdentifier: "a", CorrectText: "Paris", Points: 1},
					{ID: 202, QuestionID: 12, GapIdentifier: "b", CorrectText: "Rome", Points: 1},
				},
			},
			{
				ID: 13, QuizID: 5, Type: entity.QuestionKeywords, Text: "Назовите цикл", Points: 1, Order: 3,
				KeywordAnswers: []entity.KeywordAnswer{
					{ID: 301, QuestionID: 13, AcceptableKeyword: "loop", PointsPerKeyword: 1},
				},
			},
		},
	}
}

func inProgressAttempt(number int) *entity.Attempt {
	return &entity.Attempt{
		ID:            testAttemptID,
		UserID:        42,
		QuizID:        5,
		AttemptNumber: number,
		QuestionOrder: entity.UintArray{11, 12, 13},
		StartedAt:     testNow,
	}
}

func newTestAttemptService(quizRepo *MockQuizRepository, attemptRepo *MockAttemptRepository, cacheRepo repository.CacheRepository, cfg *assessment.Config) *AttemptService {
	s := NewAttemptService(quizRepo, attemptRepo, cacheRepo, cfg).WithClock(func() time.Time { return testNow })
	s.newID = func() string { return testAttemptID }
	return s
}

// ============================================================================
// StartAttempt
// ============================================================================

func TestStartAttempt_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	cacheRepo := new(MockCacheRepository)
	cfg := assessment.DefaultConfig()
	s := newTestAttemptService(quizRepo, attemptRepo, cacheRepo, cfg)

	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(testQuiz(), nil)
	attemptRepo.On("CreateInProgress", ctx, mock.MatchedBy(func(a *entity.Attempt) bool {
		return a.ID == testAttemptID && a.UserID == 42 && a.QuizID == 5 && a.StartedAt.Equal(testNow)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Attempt).AttemptNumber = 3
	}).Return(nil)
	cacheRepo.On("SetJSON", ctx, "attempt:"+testAttemptID+":order", []uint{11, 12, 13}, cfg.QuestionOrderTTL).Return(nil)

	// Act
	attempt, err := s.StartAttempt(ctx, 42, 5)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, attempt.AttemptNumber)
	assert.Equal(t, entity.UintArray{11, 12, 13}, attempt.QuestionOrder, "без перемешивания порядок следует Question.Order")
	assert.True(t, attempt.IsInProgress())
	attemptRepo.AssertExpectations(t)
	cacheRepo.AssertExpectations(t)
}

func TestStartAttempt_RandomizedOrderIsSeededByAttemptID(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

	quiz := testQuiz()
	quiz.RandomizeQuestions = true
	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(quiz, nil)
	attemptRepo.On("CreateInProgress", ctx, mock.Anything).Return(nil)

	attempt, err := s.StartAttempt(ctx, 42, 5)

	require.NoError(t, err)
	want := assessment.QuestionOrder(quiz.Questions, true, assessment.SeedFromAttemptID(testAttemptID))
	assert.Equal(t, entity.UintArray(want), attempt.QuestionOrder)
	assert.ElementsMatch(t, []uint{11, 12, 13}, []uint(attempt.QuestionOrder))
}

func TestStartAttempt_AlreadyInProgress(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(testQuiz(), nil)
	attemptRepo.On("CreateInProgress", ctx, mock.Anything).Return(apperrors.ErrAlreadyInProgress)

	attempt, err := s.StartAttempt(ctx, 42, 5)

	assert.Nil(t, attempt)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyInProgress)
}

func TestStartAttempt_QuizNotFound(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(nil, apperrors.ErrNotFound)

	_, err := s.StartAttempt(ctx, 42, 5)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	attemptRepo.AssertNotCalled(t, "CreateInProgress", mock.Anything, mock.Anything)
}

func TestStartAttempt_UsesQuizCache(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	cacheRepo := new(MockCacheRepository)
	cfg := assessment.DefaultConfig()
	cfg.QuizCacheTTL = time.Minute
	cfg.QuestionOrderTTL = 0
	s := newTestAttemptService(quizRepo, attemptRepo, cacheRepo, cfg)

	cacheRepo.On("GetJSON", ctx, "quiz:5:definition", mock.Anything).Return(apperrors.ErrNotFound).Once()
	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(testQuiz(), nil).Once()
	cacheRepo.On("SetJSON", ctx, "quiz:5:definition", mock.Anything, time.Minute).Return(nil).Once()
	attemptRepo.On("CreateInProgress", ctx, mock.Anything).Return(nil)

	_, err := s.StartAttempt(ctx, 42, 5)

	require.NoError(t, err)
	quizRepo.AssertExpectations(t)
	cacheRepo.AssertExpectations(t)
}

// ============================================================================
// SubmitAnswer
// ============================================================================

func TestSubmitAnswer_ScoresAndUpserts(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

	attemptRepo.On("GetByID", ctx, testAttemptID).Return(inProgressAttempt(1), nil)
	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(testQuiz(), nil)
	attemptRepo.On("UpsertAnswer", ctx, mock.MatchedBy(func(a *entity.AttemptAnswer) bool {
		return a.AttemptID == testAttemptID && a.QuestionID == 12 && a.QuestionType == entity.QuestionFillInTheGap
	})).Return(nil)

	answer, err := s.SubmitAnswer(ctx, testAttemptID, 12, json.RawMessage(`{"a": "PARIS", "b": "Milan"}`))

	require.NoError(t, err)
	assert.Equal(t, 1, answer.Score)
	assert.False(t, answer.IsCorrect, "частичный ответ не считается верным")

	decoded, err := answer.DecodeAnswer()
	require.NoError(t, err)
	assert.Equal(t, entity.GapFillAnswer{Gaps: map[string]string{"a": "PARIS", "b": "Milan"}}, decoded)
}

func TestSubmitAnswer_MatchingAcceptsOnlyAttemptTokens(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	cfg := assessment.DefaultConfig()
	cfg.TokenSecret = []byte("service-secret")
	s := newTestAttemptService(quizRepo, attemptRepo, nil, cfg)

	quiz := testQuiz()
	quiz.Questions = append(quiz.Questions, entity.Question{
		ID: 14, QuizID: 5, Type: entity.QuestionMatching, Text: "Сопоставьте", Points: 2, Order: 4,
		MatchingPairs: []entity.MatchingPair{
			{ID: 401, QuestionID: 14, PairKey: "A", Points: 1},
			{ID: 402, QuestionID: 14, PairKey: "B", Points: 1},
		},
	})
	attemptRepo.On("GetByID", ctx, testAttemptID).Return(inProgressAttempt(1), nil)
	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(quiz, nil)
	attemptRepo.On("UpsertAnswer", ctx, mock.Anything).Return(nil)

	// Ключи ответов по умолчанию совпадают с подсказками: без токена ответ не засчитывается
	answer, err := s.SubmitAnswer(ctx, testAttemptID, 14, json.RawMessage(`{"A": "A", "B": "B"}`))
	require.NoError(t, err)
	assert.Equal(t, 0, answer.Score)

	tokens := s.MatchingTokens(testAttemptID)
	raw, err := json.Marshal(map[string]string{"A": tokens.Token(14, "A"), "B": tokens.Token(14, "B")})
	require.NoError(t, err)

	answer, err = s.SubmitAnswer(ctx, testAttemptID, 14, raw)

	require.NoError(t, err)
	assert.Equal(t, 2, answer.Score)
	assert.True(t, answer.IsCorrect)
	decoded, err := answer.DecodeAnswer()
	require.NoError(t, err)
	assert.Equal(t, entity.MatchingAnswer{Matches: map[string]string{"A": "A", "B": "B"}}, decoded, "хранятся авторские ключи")
}

func TestNewAttemptService_GeneratesTokenSecret(t *testing.T) {
	cfg := assessment.DefaultConfig()

	a := NewAttemptService(nil, nil, nil, cfg)
	b := NewAttemptService(nil, nil, nil, cfg)

	assert.Empty(t, cfg.TokenSecret, "конфигурация вызывающего не меняется")
	assert.Len(t, a.config.TokenSecret, 32)
	assert.NotEqual(t, a.MatchingTokens(testAttemptID).Token(1, "A"), b.MatchingTokens(testAttemptID).Token(1, "A"),
		"без заданного секрета токены разных процессов не совпадают")
}

func TestRevealsAnswerScores(t *testing.T) {
	ctx := context.Background()

	completed := inProgressAttempt(1)
	completed.CompletedAt = timePtr(testNow)

	tests := []struct {
		name    string
		attempt *entity.Attempt
		show    bool
		want    bool
	}{
		{"попытка идёт", inProgressAttempt(1), true, false},
		{"завершена, тест скрывает ответы", completed, false, false},
		{"завершена, тест показывает ответы", completed, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quizRepo := new(MockQuizRepository)
			s := newTestAttemptService(quizRepo, new(MockAttemptRepository), nil, nil)
			quiz := testQuiz()
			quiz.ShowCorrectAnswer = tt.show
			quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(quiz, nil).Maybe()

			got, err := s.RevealsAnswerScores(ctx, tt.attempt)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmitAnswer_AfterCompletion(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

	completed := inProgressAttempt(1)
	completed.CompletedAt = timePtr(testNow.Add(time.Minute))
	attemptRepo.On("GetByID", ctx, testAttemptID).Return(completed, nil)

	_, err := s.SubmitAnswer(ctx, testAttemptID, 11, json.RawMessage(`102`))

	assert.ErrorIs(t, err, apperrors.ErrAttemptNotInProgress)
	attemptRepo.AssertNotCalled(t, "UpsertAnswer", mock.Anything, mock.Anything)
}

func TestSubmitAnswer_LosesRaceAgainstCompletion(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

	attemptRepo.On("GetByID", ctx, testAttemptID).Return(inProgressAttempt(1), nil)
	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(testQuiz(), nil)
	attemptRepo.On("UpsertAnswer", ctx, mock.Anything).Return(apperrors.ErrAttemptNotInProgress)

	_, err := s.SubmitAnswer(ctx, testAttemptID, 11, json.RawMessage(`102`))

	assert.ErrorIs(t, err, apperrors.ErrAttemptNotInProgress)
}

func TestSubmitAnswer_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		questionID uint
		raw        string
		wantErr    error
	}{
		{"вопрос из другого теста", 99, `1`, apperrors.ErrQuestionNotInQuiz},
		{"ответ не той формы", 11, `{"a": "x"}`, apperrors.ErrMalformedAnswer},
		{"null для keywords", 13, `null`, apperrors.ErrMalformedAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			quizRepo := new(MockQuizRepository)
			attemptRepo := new(MockAttemptRepository)
			s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

			attemptRepo.On("GetByID", ctx, testAttemptID).Return(inProgressAttempt(1), nil)
			quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(testQuiz(), nil)

			_, err := s.SubmitAnswer(ctx, testAttemptID, tt.questionID, json.RawMessage(tt.raw))

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			attemptRepo.AssertNotCalled(t, "UpsertAnswer", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitAnswer_UnknownAttempt(t *testing.T) {
	ctx := context.Background()
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(new(MockQuizRepository), attemptRepo, nil, nil)

	attemptRepo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := s.SubmitAnswer(ctx, "missing", 11, json.RawMessage(`102`))

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ============================================================================
// CompleteAttempt
// ============================================================================

func TestCompleteAttempt_AggregatesWithRetakePenalty(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

	quiz := testQuiz()
	quiz.RetakePenaltyPercent = 10
	attempt := inProgressAttempt(3)

	// 4 из 5 баллов = 80%, третья попытка: 80 - 10*2 = 60
	answers := []entity.AttemptAnswer{
		{AttemptID: testAttemptID, QuestionID: 11, Score: 2},
		{AttemptID: testAttemptID, QuestionID: 12, Score: 2},
	}

	var gotScore float64
	var gotPassed *bool
	finished := inProgressAttempt(3)
	finished.CompletedAt = timePtr(testNow)

	attemptRepo.On("GetByID", ctx, testAttemptID).Return(attempt, nil)
	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(quiz, nil)
	attemptRepo.On("Complete", ctx, testAttemptID, testNow, mock.Anything).
		Run(func(args mock.Arguments) {
			grade := args.Get(3).(repository.GradeFunc)
			score, passed, err := grade(answers)
			require.NoError(t, err)
			gotScore, gotPassed = score, passed
			finished.Score, finished.Passed = &score, passed
		}).
		Return(finished, true, nil)

	result, err := s.CompleteAttempt(ctx, testAttemptID)

	require.NoError(t, err)
	assert.InDelta(t, 60.0, gotScore, 1e-9)
	require.NotNil(t, gotPassed)
	assert.True(t, *gotPassed, "60% при проходном 60 — сдано")
	assert.Same(t, finished, result)
}

func TestCompleteAttempt_IdempotentForCompleted(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

	completed := inProgressAttempt(1)
	completed.CompletedAt = timePtr(testNow)
	completed.Score = floatPtr(80)
	completed.Passed = boolPtr(true)
	attemptRepo.On("GetByID", ctx, testAttemptID).Return(completed, nil)

	first, err := s.CompleteAttempt(ctx, testAttemptID)
	require.NoError(t, err)
	second, err := s.CompleteAttempt(ctx, testAttemptID)
	require.NoError(t, err, "повторное завершение не должно возвращать ошибку")

	assert.Equal(t, *first.Score, *second.Score)
	assert.Equal(t, *first.Passed, *second.Passed)
	attemptRepo.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	quizRepo.AssertNotCalled(t, "GetWithQuestions", mock.Anything, mock.Anything)
}

func TestCompleteAttempt_StorageErrorPropagates(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

	dbErr := errors.New("connection reset")
	attemptRepo.On("GetByID", ctx, testAttemptID).Return(inProgressAttempt(1), nil)
	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(testQuiz(), nil)
	attemptRepo.On("Complete", ctx, testAttemptID, testNow, mock.Anything).Return(nil, false, dbErr)

	_, err := s.CompleteAttempt(ctx, testAttemptID)

	assert.ErrorIs(t, err, dbErr)
}

// ============================================================================
// Чтение
// ============================================================================

func TestGetQuestionOrder_CacheHitAndMiss(t *testing.T) {
	ctx := context.Background()
	attemptRepo := new(MockAttemptRepository)
	cacheRepo := new(MockCacheRepository)
	cfg := assessment.DefaultConfig()
	s := newTestAttemptService(new(MockQuizRepository), attemptRepo, cacheRepo, cfg)
	key := "attempt:" + testAttemptID + ":order"

	// Промах кеша: берём из попытки и кладём в кеш
	cacheRepo.On("GetJSON", ctx, key, mock.Anything).Return(apperrors.ErrNotFound).Once()
	attemptRepo.On("GetByID", ctx, testAttemptID).Return(inProgressAttempt(1), nil).Once()
	cacheRepo.On("SetJSON", ctx, key, []uint{11, 12, 13}, cfg.QuestionOrderTTL).Return(nil).Once()

	first, err := s.GetQuestionOrder(ctx, testAttemptID)
	require.NoError(t, err)

	// Попадание: попытка из БД не читается
	cacheRepo.On("GetJSON", ctx, key, mock.Anything).Run(func(args mock.Arguments) {
		*(args.Get(2).(*[]uint)) = []uint{11, 12, 13}
	}).Return(nil).Once()

	second, err := s.GetQuestionOrder(ctx, testAttemptID)
	require.NoError(t, err)

	assert.Equal(t, first, second, "порядок вопросов попытки стабилен между запросами")
	attemptRepo.AssertNumberOfCalls(t, "GetByID", 1)
	cacheRepo.AssertExpectations(t)
}

func TestGetAttemptQuestions_SkipsDeletedAndAppendsLate(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

	attempt := inProgressAttempt(1)
	attempt.QuestionOrder = entity.UintArray{13, 77, 11}
	attemptRepo.On("GetByID", ctx, testAttemptID).Return(attempt, nil)
	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(testQuiz(), nil)

	_, _, questions, err := s.GetAttemptQuestions(ctx, testAttemptID)

	require.NoError(t, err)
	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	assert.Equal(t, []uint{13, 11, 12}, ids)
}

func TestListAttemptAnswers_UnknownAttempt(t *testing.T) {
	ctx := context.Background()
	attemptRepo := new(MockAttemptRepository)
	s := newTestAttemptService(new(MockQuizRepository), attemptRepo, nil, nil)

	attemptRepo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := s.ListAttemptAnswers(ctx, "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	attemptRepo.AssertNotCalled(t, "ListAnswers", mock.Anything, mock.Anything)
}

func TestGetAttemptReview(t *testing.T) {
	ctx := context.Background()

	t.Run("попытка ещё идёт", func(t *testing.T) {
		attemptRepo := new(MockAttemptRepository)
		s := newTestAttemptService(new(MockQuizRepository), attemptRepo, nil, nil)
		attemptRepo.On("GetByID", ctx, testAttemptID).Return(inProgressAttempt(1), nil)

		_, err := s.GetAttemptReview(ctx, testAttemptID)

		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("тест скрывает ответы", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		attemptRepo := new(MockAttemptRepository)
		s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

		completed := inProgressAttempt(1)
		completed.CompletedAt = timePtr(testNow)
		attemptRepo.On("GetByID", ctx, testAttemptID).Return(completed, nil)
		quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(testQuiz(), nil)

		_, err := s.GetAttemptReview(ctx, testAttemptID)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("разбор с ответами", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		attemptRepo := new(MockAttemptRepository)
		s := newTestAttemptService(quizRepo, attemptRepo, nil, nil)

		completed := inProgressAttempt(1)
		completed.CompletedAt = timePtr(testNow)
		quiz := testQuiz()
		quiz.ShowCorrectAnswer = true

		payload, err := entity.EncodeAnswer(entity.ChoiceAnswer{Type: entity.QuestionSingleChoice, OptionID: 102})
		require.NoError(t, err)

		attemptRepo.On("GetByID", ctx, testAttemptID).Return(completed, nil)
		quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(quiz, nil)
		attemptRepo.On("ListAnswers", ctx, testAttemptID).Return([]entity.AttemptAnswer{
			{AttemptID: testAttemptID, QuestionID: 11, Payload: payload, Score: 2, IsCorrect: true},
		}, nil)

		review, err := s.GetAttemptReview(ctx, testAttemptID)

		require.NoError(t, err)
		require.Len(t, review.Items, 3)
		assert.Equal(t, uint(11), review.Items[0].Question.ID)
		require.NotNil(t, review.Items[0].Answer)
		assert.Equal(t, entity.ChoiceAnswer{Type: entity.QuestionSingleChoice, OptionID: 102}, review.Items[0].Submitted)
		assert.Nil(t, review.Items[1].Answer, "неотвеченный вопрос остаётся в разборе без ответа")
	})
}

func TestGetDeadline(t *testing.T) {
	ctx := context.Background()
	quizRepo := new(MockQuizRepository)
	cfg := assessment.DefaultConfig()
	cfg.TimeLimitGrace = 30 * time.Second
	s := newTestAttemptService(quizRepo, new(MockAttemptRepository), nil, cfg)

	quiz := testQuiz()
	quiz.TimeLimitMinutes = intPtr(30)
	quizRepo.On("GetWithQuestions", ctx, uint(5)).Return(quiz, nil)
	attempt := inProgressAttempt(1)

	tests := []struct {
		name          string
		now           time.Time
		wantRemaining time.Duration
		wantExpired   bool
	}{
		{"идёт", testNow.Add(20 * time.Minute), 10 * time.Minute, false},
		{"в пределах запаса", testNow.Add(30*time.Minute + 10*time.Second), 0, false},
		{"просрочена", testNow.Add(45 * time.Minute), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.WithClock(func() time.Time { return tt.now })

			d, err := s.GetDeadline(ctx, attempt)

			require.NoError(t, err)
			require.NotNil(t, d.ExpiresAt)
			assert.True(t, d.ExpiresAt.Equal(testNow.Add(30*time.Minute)))
			assert.Equal(t, tt.wantRemaining, d.Remaining)
			assert.Equal(t, tt.wantExpired, d.Expired)
		})
	}

	quiz.TimeLimitMinutes = nil
	d, err := s.GetDeadline(ctx, attempt)
	require.NoError(t, err)
	assert.Nil(t, d.ExpiresAt, "без ограничения по времени дедлайна нет")
}
