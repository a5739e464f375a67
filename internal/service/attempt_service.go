package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	"github.com/Wetende/crossview-sub004/internal/domain/repository"
	apperrors "github.com/Wetende/crossview-sub004/internal/pkg/errors"
	"github.com/Wetende/crossview-sub004/internal/service/assessment"
)

// AttemptService управляет жизненным циклом попыток: старт, отправка ответов, завершение,
// а также отдаёт данные попытки для отображения прогресса и разбора.
type AttemptService struct {
	quizRepo    repository.QuizRepository
	attemptRepo repository.AttemptRepository
	cacheRepo   repository.CacheRepository
	config      *assessment.Config
	now         func() time.Time
	newID       func() string
}

// NewAttemptService создает новый сервис попыток. cacheRepo может быть nil.
func NewAttemptService(
	quizRepo repository.QuizRepository,
	attemptRepo repository.AttemptRepository,
	cacheRepo repository.CacheRepository,
	config *assessment.Config,
) *AttemptService {
	if config == nil {
		config = assessment.DefaultConfig()
	}
	if len(config.TokenSecret) == 0 {
		// Без заданного секрета токены живут до перезапуска процесса
		withSecret := *config
		withSecret.TokenSecret = randomSecret()
		config = &withSecret
	}
	return &AttemptService{
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		cacheRepo:   cacheRepo,
		config:      config,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithClock подменяет источник текущего времени
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// Deadline: рекомендуемый дедлайн попытки. Движок его не навязывает:
// завершить просроченную попытку должен вызывающий.
type Deadline struct {
	ExpiresAt *time.Time
	Remaining time.Duration
	Expired   bool
}

// ReviewItem: вопрос попытки вместе с отправленным ответом (если он был)
type ReviewItem struct {
	Question  entity.Question
	Answer    *entity.AttemptAnswer
	Submitted entity.Answer
}

// AttemptReview: разбор завершённой попытки с ключами ответов
type AttemptReview struct {
	Attempt *entity.Attempt
	Quiz    *entity.Quiz
	Items   []ReviewItem
}

// StartAttempt начинает новую попытку пользователя по тесту.
// Порядок вопросов фиксируется при старте и сохраняется вместе с попыткой.
func (s *AttemptService) StartAttempt(ctx context.Context, userID, quizID uint) (*entity.Attempt, error) {
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	attempt := &entity.Attempt{
		ID:            id,
		UserID:        userID,
		QuizID:        quizID,
		QuestionOrder: assessment.QuestionOrder(quiz.Questions, quiz.RandomizeQuestions, assessment.SeedFromAttemptID(id)),
		StartedAt:     s.now(),
	}

	if err := s.attemptRepo.CreateInProgress(ctx, attempt); err != nil {
		return nil, fmt.Errorf("start attempt: %w", err)
	}
	s.cacheQuestionOrder(ctx, attempt)

	log.Printf("[AttemptService] Пользователь #%d начал попытку %s (№%d) по тесту #%d, вопросов: %d",
		userID, attempt.ID, attempt.AttemptNumber, quizID, len(attempt.QuestionOrder))
	return attempt, nil
}

// SubmitAnswer нормализует, оценивает и сохраняет ответ на вопрос попытки.
// Повторная отправка ответа на тот же вопрос перезаписывает предыдущую.
func (s *AttemptService) SubmitAnswer(ctx context.Context, attemptID string, questionID uint, raw json.RawMessage) (*entity.AttemptAnswer, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted() {
		return nil, fmt.Errorf("%w: attempt %s", apperrors.ErrAttemptNotInProgress, attemptID)
	}

	quiz, err := s.loadQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	question, ok := quiz.FindQuestion(questionID)
	if !ok {
		return nil, fmt.Errorf("%w: question #%d, quiz #%d", apperrors.ErrQuestionNotInQuiz, questionID, quiz.ID)
	}

	normalized, err := assessment.NormalizeForAttempt(question, raw, s.MatchingTokens(attemptID))
	if err != nil {
		return nil, err
	}
	result := assessment.Score(question, normalized)

	payload, err := entity.EncodeAnswer(normalized)
	if err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}

	answer := &entity.AttemptAnswer{
		AttemptID:    attemptID,
		QuestionID:   questionID,
		QuestionType: question.Type,
		Payload:      payload,
		IsCorrect:    result.IsCorrect,
		Score:        result.Score,
	}
	if err := s.attemptRepo.UpsertAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	return answer, nil
}

// CompleteAttempt завершает попытку и фиксирует итог.
// Повторный вызов для завершённой попытки возвращает сохранённый итог без пересчёта.
func (s *AttemptService) CompleteAttempt(ctx context.Context, attemptID string) (*entity.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted() {
		return attempt, nil
	}

	quiz, err := s.loadQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	var outcome assessment.Outcome
	grade := func(answers []entity.AttemptAnswer) (float64, *bool, error) {
		outcome = assessment.Aggregate(quiz, attempt.AttemptNumber, answers, s.config.PenaltyMode)
		return outcome.Score, outcome.Passed, nil
	}

	completed, completedNow, err := s.attemptRepo.Complete(ctx, attemptID, s.now(), grade)
	if err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}
	if completedNow {
		log.Printf("[AttemptService] Попытка %s завершена: %d/%d баллов, %.2f%% (штраф %.2f), passed=%s",
			attemptID, outcome.Earned, outcome.Possible, outcome.Score, outcome.Penalty, formatPassed(outcome.Passed))
	}
	return completed, nil
}

// MatchingTokens возвращает генератор токенов ответов на сопоставление для попытки
func (s *AttemptService) MatchingTokens(attemptID string) *assessment.MatchingTokens {
	return assessment.NewMatchingTokens(s.config.TokenSecret, attemptID)
}

// RevealsAnswerScores сообщает, можно ли показать студенту баллы и правильность его ответов:
// только после завершения попытки и только если тест разрешает показ правильных ответов.
func (s *AttemptService) RevealsAnswerScores(ctx context.Context, attempt *entity.Attempt) (bool, error) {
	if attempt.IsInProgress() {
		return false, nil
	}
	quiz, err := s.loadQuiz(ctx, attempt.QuizID)
	if err != nil {
		return false, err
	}
	return quiz.ShowCorrectAnswer, nil
}

// GetAttempt возвращает попытку по ID
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID string) (*entity.Attempt, error) {
	return s.attemptRepo.GetByID(ctx, attemptID)
}

// ListAttemptAnswers возвращает сохранённые ответы попытки
func (s *AttemptService) ListAttemptAnswers(ctx context.Context, attemptID string) ([]entity.AttemptAnswer, error) {
	if _, err := s.attemptRepo.GetByID(ctx, attemptID); err != nil {
		return nil, err
	}
	return s.attemptRepo.ListAnswers(ctx, attemptID)
}

// GetQuestionOrder возвращает зафиксированный при старте порядок вопросов попытки
func (s *AttemptService) GetQuestionOrder(ctx context.Context, attemptID string) ([]uint, error) {
	if s.cacheRepo != nil {
		var order []uint
		err := s.cacheRepo.GetJSON(ctx, questionOrderCacheKey(attemptID), &order)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AttemptService] WARNING: не удалось прочитать порядок вопросов %s из кеша: %v", attemptID, err)
		}
	}

	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	s.cacheQuestionOrder(ctx, attempt)
	return []uint(attempt.QuestionOrder), nil
}

// GetAttemptQuestions возвращает попытку, её тест и вопросы в порядке показа.
// Вопросы, удалённые из теста после старта, пропускаются; добавленные после старта идут в конце.
func (s *AttemptService) GetAttemptQuestions(ctx context.Context, attemptID string) (*entity.Attempt, *entity.Quiz, []entity.Question, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, nil, nil, err
	}
	quiz, err := s.loadQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, nil, nil, err
	}
	return attempt, quiz, orderQuestions(quiz, attempt.QuestionOrder), nil
}

// GetAttemptReview возвращает разбор завершённой попытки.
// Доступен только если тест разрешает показ правильных ответов.
func (s *AttemptService) GetAttemptReview(ctx context.Context, attemptID string) (*AttemptReview, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsInProgress() {
		return nil, fmt.Errorf("%w: attempt %s is still in progress", apperrors.ErrConflict, attemptID)
	}

	quiz, err := s.loadQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	if !quiz.ShowCorrectAnswer {
		return nil, fmt.Errorf("%w: quiz #%d does not reveal correct answers", apperrors.ErrForbidden, quiz.ID)
	}

	answers, err := s.attemptRepo.ListAnswers(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[uint]*entity.AttemptAnswer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	review := &AttemptReview{Attempt: attempt, Quiz: quiz}
	for _, q := range orderQuestions(quiz, attempt.QuestionOrder) {
		item := ReviewItem{Question: q, Answer: byQuestion[q.ID]}
		if item.Answer != nil {
			decoded, err := item.Answer.DecodeAnswer()
			if err != nil {
				log.Printf("[AttemptService] WARNING: не удалось разобрать ответ попытки %s на вопрос #%d: %v", attemptID, q.ID, err)
			} else {
				item.Submitted = decoded
			}
		}
		review.Items = append(review.Items, item)
	}
	return review, nil
}

// ListUserAttempts возвращает историю попыток пользователя по тесту
func (s *AttemptService) ListUserAttempts(ctx context.Context, userID, quizID uint) ([]entity.Attempt, error) {
	return s.attemptRepo.ListByUserQuiz(ctx, userID, quizID)
}

// GetActiveAttempt возвращает незавершённую попытку пользователя (для продолжения)
func (s *AttemptService) GetActiveAttempt(ctx context.Context, userID, quizID uint) (*entity.Attempt, error) {
	return s.attemptRepo.GetActive(ctx, userID, quizID)
}

// ListQuizAttempts возвращает все попытки по тесту (для выгрузки)
func (s *AttemptService) ListQuizAttempts(ctx context.Context, quizID uint) ([]entity.Attempt, error) {
	if _, err := s.quizRepo.GetByID(ctx, quizID); err != nil {
		return nil, err
	}
	return s.attemptRepo.ListByQuiz(ctx, quizID)
}

// GetDeadline вычисляет рекомендуемый дедлайн попытки
func (s *AttemptService) GetDeadline(ctx context.Context, attempt *entity.Attempt) (Deadline, error) {
	quiz, err := s.loadQuiz(ctx, attempt.QuizID)
	if err != nil {
		return Deadline{}, err
	}
	return s.deadline(attempt, quiz), nil
}

func (s *AttemptService) deadline(attempt *entity.Attempt, quiz *entity.Quiz) Deadline {
	expiresAt, ok := attempt.ExpiresAt(quiz)
	if !ok {
		return Deadline{}
	}

	d := Deadline{ExpiresAt: &expiresAt}
	if attempt.IsCompleted() {
		return d
	}
	now := s.now()
	d.Remaining = expiresAt.Sub(now)
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	d.Expired = now.After(expiresAt.Add(s.config.TimeLimitGrace))
	return d
}

// loadQuiz загружает тест с вопросами, при включённом кеше — через Redis
func (s *AttemptService) loadQuiz(ctx context.Context, quizID uint) (*entity.Quiz, error) {
	cacheable := s.cacheRepo != nil && s.config.QuizCacheTTL > 0
	key := quizCacheKey(quizID)

	if cacheable {
		var cached entity.Quiz
		err := s.cacheRepo.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AttemptService] WARNING: не удалось прочитать тест #%d из кеша: %v", quizID, err)
		}
	}

	quiz, err := s.quizRepo.GetWithQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cacheRepo.SetJSON(ctx, key, quiz, s.config.QuizCacheTTL); err != nil {
			log.Printf("[AttemptService] WARNING: не удалось сохранить тест #%d в кеш: %v", quizID, err)
		}
	}
	return quiz, nil
}

func (s *AttemptService) cacheQuestionOrder(ctx context.Context, attempt *entity.Attempt) {
	if s.cacheRepo == nil || s.config.QuestionOrderTTL <= 0 {
		return
	}
	order := []uint(attempt.QuestionOrder)
	if order == nil {
		order = []uint{}
	}
	if err := s.cacheRepo.SetJSON(ctx, questionOrderCacheKey(attempt.ID), order, s.config.QuestionOrderTTL); err != nil {
		log.Printf("[AttemptService] WARNING: не удалось сохранить порядок вопросов %s в кеш: %v", attempt.ID, err)
	}
}

// orderQuestions раскладывает вопросы теста по сохранённому порядку попытки
func orderQuestions(quiz *entity.Quiz, order entity.UintArray) []entity.Question {
	out := make([]entity.Question, 0, len(quiz.Questions))
	placed := make(map[uint]struct{}, len(order))
	for _, id := range order {
		if q, ok := quiz.FindQuestion(id); ok {
			out = append(out, *q)
			placed[id] = struct{}{}
		}
	}

	var late []entity.Question
	for _, q := range quiz.Questions {
		if _, ok := placed[q.ID]; !ok {
			late = append(late, q)
		}
	}
	sort.SliceStable(late, func(i, j int) bool {
		if late[i].Order != late[j].Order {
			return late[i].Order < late[j].Order
		}
		return late[i].ID < late[j].ID
	})
	return append(out, late...)
}

func randomSecret() []byte {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return secret
}

func quizCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d:definition", quizID)
}

func questionOrderCacheKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:order", attemptID)
}

func formatPassed(passed *bool) string {
	if passed == nil {
		return "n/a"
	}
	if *passed {
		return "true"
	}
	return "false"
}
