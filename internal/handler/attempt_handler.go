package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	"github.com/Wetende/crossview-sub004/internal/handler/dto"
	"github.com/Wetende/crossview-sub004/internal/middleware"
	apperrors "github.com/Wetende/crossview-sub004/internal/pkg/errors"
	"github.com/Wetende/crossview-sub004/internal/service"
)

// AttemptHandler обрабатывает запросы прохождения тестов
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// StartAttempt начинает новую попытку текущего пользователя
// POST /api/quizzes/:id/attempts
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, "AttemptHandler", apperrors.ErrUnauthorized)
		return
	}

	attempt, err := h.attemptService.StartAttempt(c.Request.Context(), userID, quizID)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return
	}

	c.JSON(http.StatusCreated, h.attemptResponse(c.Request.Context(), attempt))
}

// ListMyAttempts возвращает историю попыток текущего пользователя по тесту
// GET /api/quizzes/:id/attempts
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, "AttemptHandler", apperrors.ErrUnauthorized)
		return
	}

	attempts, err := h.attemptService.ListUserAttempts(c.Request.Context(), userID, quizID)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListAttemptResponse(attempts))
}

// GetActiveAttempt возвращает незавершённую попытку текущего пользователя для продолжения
// GET /api/quizzes/:id/attempts/active
func (h *AttemptHandler) GetActiveAttempt(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, "AttemptHandler", apperrors.ErrUnauthorized)
		return
	}

	attempt, err := h.attemptService.GetActiveAttempt(c.Request.Context(), userID, quizID)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return
	}

	c.JSON(http.StatusOK, h.attemptResponse(c.Request.Context(), attempt))
}

// GetAttempt возвращает попытку с рекомендуемым дедлайном
// GET /api/attempts/:attemptId
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attempt, ok := h.authorizedAttempt(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.attemptResponse(c.Request.Context(), attempt))
}

// GetAttemptQuestions возвращает вопросы попытки в порядке показа, без ключей ответов
// GET /api/attempts/:attemptId/questions
func (h *AttemptHandler) GetAttemptQuestions(c *gin.Context) {
	if _, ok := h.authorizedAttempt(c, false); !ok {
		return
	}
	attemptID := c.MustGet("attemptID").(string)
	tokens := h.attemptService.MatchingTokens(attemptID)

	attempt, _, questions, err := h.attemptService.GetAttemptQuestions(c.Request.Context(), attemptID)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return
	}

	resp := dto.AttemptQuestionsResponse{
		Attempt:   h.attemptResponse(c.Request.Context(), attempt),
		Questions: make([]dto.StudentQuestionResponse, len(questions)),
	}
	for i := range questions {
		resp.Questions[i] = dto.NewStudentQuestionResponse(&questions[i], attempt.ID, tokens)
	}
	c.JSON(http.StatusOK, resp)
}

// GetQuestionOrder возвращает зафиксированный порядок вопросов попытки
// GET /api/attempts/:attemptId/order
func (h *AttemptHandler) GetQuestionOrder(c *gin.Context) {
	if _, ok := h.authorizedAttempt(c, false); !ok {
		return
	}
	attemptID := c.MustGet("attemptID").(string)

	order, err := h.attemptService.GetQuestionOrder(c.Request.Context(), attemptID)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return
	}
	if order == nil {
		order = []uint{}
	}

	c.JSON(http.StatusOK, gin.H{"attempt_id": attemptID, "question_order": order})
}

// ListAnswers возвращает сохранённые ответы попытки.
// Баллы студент видит только после завершения и только если тест показывает правильные ответы.
// GET /api/attempts/:attemptId/answers
func (h *AttemptHandler) ListAnswers(c *gin.Context) {
	attempt, ok := h.authorizedAttempt(c, false)
	if !ok {
		return
	}

	answers, err := h.attemptService.ListAttemptAnswers(c.Request.Context(), attempt.ID)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return
	}
	view, err := h.answerView(c, attempt)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListAnswerResponse(answers, view))
}

// SubmitAnswer сохраняет ответ на вопрос попытки (повторная отправка перезаписывает ответ)
// PUT /api/attempts/:attemptId/answers/:questionId
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	attempt, ok := h.authorizedAttempt(c, true)
	if !ok {
		return
	}
	attemptID := c.MustGet("attemptID").(string)
	questionID := c.MustGet("questionID").(uint)

	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Answer) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "answer is required"})
		return
	}

	answer, err := h.attemptService.SubmitAnswer(c.Request.Context(), attemptID, questionID, req.Answer)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return
	}

	// Попытка ещё идёт: баллы и правильность не раскрываются
	c.JSON(http.StatusOK, dto.NewAnswerResponse(answer, dto.AnswerView{Tokens: h.attemptService.MatchingTokens(attempt.ID)}))
}

// CompleteAttempt завершает попытку и возвращает итог.
// Повторный вызов возвращает тот же итог.
// POST /api/attempts/:attemptId/complete
func (h *AttemptHandler) CompleteAttempt(c *gin.Context) {
	if _, ok := h.authorizedAttempt(c, true); !ok {
		return
	}
	attemptID := c.MustGet("attemptID").(string)

	attempt, err := h.attemptService.CompleteAttempt(c.Request.Context(), attemptID)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return
	}

	c.JSON(http.StatusOK, h.attemptResponse(c.Request.Context(), attempt))
}

// GetReview возвращает разбор завершённой попытки с правильными ответами
// GET /api/attempts/:attemptId/review
func (h *AttemptHandler) GetReview(c *gin.Context) {
	if _, ok := h.authorizedAttempt(c, false); !ok {
		return
	}
	attemptID := c.MustGet("attemptID").(string)

	review, err := h.attemptService.GetAttemptReview(c.Request.Context(), attemptID)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return
	}

	resp := dto.AttemptReviewResponse{
		Attempt:  dto.NewAttemptResponse(review.Attempt),
		Possible: review.Quiz.TotalPoints(),
		Items:    make([]dto.ReviewItemResponse, len(review.Items)),
	}
	for i, item := range review.Items {
		ri := dto.ReviewItemResponse{Question: item.Question, Answer: item.Submitted}
		if item.Answer != nil {
			ri.Answered = true
			ri.Score = item.Answer.Score
			ri.IsCorrect = item.Answer.IsCorrect
			resp.Earned += item.Answer.Score
		}
		resp.Items[i] = ri
	}
	c.JSON(http.StatusOK, resp)
}

// authorizedAttempt загружает попытку и проверяет, что её владелец — текущий пользователь.
// Администратор может читать любые попытки, но не действовать от имени студента.
func (h *AttemptHandler) authorizedAttempt(c *gin.Context, write bool) (*entity.Attempt, bool) {
	attemptID := c.MustGet("attemptID").(string)
	userID, ok := middleware.UserID(c)
	if !ok {
		handleError(c, "AttemptHandler", apperrors.ErrUnauthorized)
		return nil, false
	}

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), attemptID)
	if err != nil {
		handleError(c, "AttemptHandler", err)
		return nil, false
	}
	if attempt.UserID != userID && (write || !middleware.IsAdmin(c)) {
		log.Printf("[AttemptHandler] Пользователь #%d запросил чужую попытку %s", userID, attemptID)
		handleError(c, "AttemptHandler", fmt.Errorf("%w: attempt %s belongs to another user", apperrors.ErrForbidden, attemptID))
		return nil, false
	}
	return attempt, true
}

// answerView решает, что показать из сохранённых ответов: администратор видит всё как есть,
// студент видит токены вместо ключей сопоставления, а баллы только по правилам теста
func (h *AttemptHandler) answerView(c *gin.Context, attempt *entity.Attempt) (dto.AnswerView, error) {
	if middleware.IsAdmin(c) {
		return dto.AnswerView{RevealScores: true}, nil
	}
	reveal, err := h.attemptService.RevealsAnswerScores(c.Request.Context(), attempt)
	if err != nil {
		return dto.AnswerView{}, err
	}
	return dto.AnswerView{RevealScores: reveal, Tokens: h.attemptService.MatchingTokens(attempt.ID)}, nil
}

// attemptResponse строит DTO попытки с дедлайном; ошибка расчёта дедлайна не мешает ответу
func (h *AttemptHandler) attemptResponse(ctx context.Context, attempt *entity.Attempt) *dto.AttemptResponse {
	resp := dto.NewAttemptResponse(attempt)
	deadline, err := h.attemptService.GetDeadline(ctx, attempt)
	if err != nil {
		log.Printf("[AttemptHandler] WARNING: не удалось вычислить дедлайн попытки %s: %v", attempt.ID, err)
		return resp
	}
	return resp.WithDeadline(deadline.ExpiresAt, deadline.Remaining, deadline.Expired)
}
