package dto

import (
	"encoding/json"
	"time"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	"github.com/Wetende/crossview-sub004/internal/handler/helper"
	"github.com/Wetende/crossview-sub004/internal/service/assessment"
)

// SubmitAnswerRequest: тело запроса на отправку ответа; форма answer зависит от типа вопроса
type SubmitAnswerRequest struct {
	Answer json.RawMessage `json:"answer"`
}

// AttemptResponse представляет попытку в формате для ответа клиенту
type AttemptResponse struct {
	ID               string     `json:"id"`
	QuizID           uint       `json:"quiz_id"`
	UserID           uint       `json:"user_id"`
	AttemptNumber    int        `json:"attempt_number"`
	Status           string     `json:"status"`
	QuestionOrder    []uint     `json:"question_order"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Score            *float64   `json:"score,omitempty"`
	Passed           *bool      `json:"passed,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	TimeRemainingSec *int       `json:"time_remaining_sec,omitempty"`
	Expired          bool       `json:"expired"`
}

// NewAttemptResponse создает DTO для попытки без сведений о дедлайне
func NewAttemptResponse(a *entity.Attempt) *AttemptResponse {
	if a == nil {
		return nil
	}
	order := []uint(a.QuestionOrder)
	if order == nil {
		order = []uint{}
	}
	return &AttemptResponse{
		ID:            a.ID,
		QuizID:        a.QuizID,
		UserID:        a.UserID,
		AttemptNumber: a.AttemptNumber,
		Status:        a.Status(),
		QuestionOrder: order,
		StartedAt:     a.StartedAt,
		CompletedAt:   a.CompletedAt,
		Score:         a.Score,
		Passed:        a.Passed,
	}
}

// WithDeadline дополняет ответ рекомендуемым дедлайном
func (r *AttemptResponse) WithDeadline(expiresAt *time.Time, remaining time.Duration, expired bool) *AttemptResponse {
	if r == nil || expiresAt == nil {
		return r
	}
	r.ExpiresAt = expiresAt
	r.Expired = expired
	if r.Status == entity.AttemptStatusInProgress {
		sec := int(remaining.Seconds())
		r.TimeRemainingSec = &sec
	}
	return r
}

// NewListAttemptResponse создает слайс DTO для списка попыток
func NewListAttemptResponse(attempts []entity.Attempt) []*AttemptResponse {
	list := make([]*AttemptResponse, len(attempts))
	for i := range attempts {
		list[i] = NewAttemptResponse(&attempts[i])
	}
	return list
}

// AnswerResponse: сохранённый ответ на вопрос попытки
type AnswerResponse struct {
	QuestionID   uint                `json:"question_id"`
	QuestionType entity.QuestionType `json:"question_type"`
	Answer       entity.Answer       `json:"answer,omitempty"`
	Score        *int                `json:"score,omitempty"`
	IsCorrect    *bool               `json:"is_correct,omitempty"`
	SubmittedAt  time.Time           `json:"submitted_at"`
}

// AnswerView определяет, что из сохранённого ответа видит получатель
type AnswerView struct {
	// RevealScores: показывать баллы и правильность
	RevealScores bool
	// Tokens: если задан, ключи ответов на сопоставление заменяются токенами попытки
	Tokens *assessment.MatchingTokens
}

// NewAnswerResponse создает DTO для ответа. Неразбираемый payload отдаётся без тела ответа.
func NewAnswerResponse(a *entity.AttemptAnswer, view AnswerView) *AnswerResponse {
	resp := &AnswerResponse{
		QuestionID:   a.QuestionID,
		QuestionType: a.QuestionType,
		SubmittedAt:  a.UpdatedAt,
	}
	if view.RevealScores {
		score, correct := a.Score, a.IsCorrect
		resp.Score = &score
		resp.IsCorrect = &correct
	}
	if decoded, err := a.DecodeAnswer(); err == nil {
		if m, ok := decoded.(entity.MatchingAnswer); ok && view.Tokens != nil {
			decoded = view.Tokens.Tokenize(a.QuestionID, m)
		}
		resp.Answer = decoded
	}
	return resp
}

// NewListAnswerResponse создает слайс DTO для ответов попытки
func NewListAnswerResponse(answers []entity.AttemptAnswer, view AnswerView) []*AnswerResponse {
	list := make([]*AnswerResponse, len(answers))
	for i := range answers {
		list[i] = NewAnswerResponse(&answers[i], view)
	}
	return list
}

// StudentQuestionResponse: вопрос без ключа ответа, как его видит проходящий тест
type StudentQuestionResponse struct {
	ID           uint                    `json:"id"`
	Type         entity.QuestionType     `json:"type"`
	Text         string                  `json:"text"`
	ImageURL     string                  `json:"image_url,omitempty"`
	Points       int                     `json:"points"`
	Options      []helper.QuestionOption `json:"options,omitempty"`
	Gaps         []string                `json:"gaps,omitempty"`
	Prompts      []helper.MatchingSide   `json:"prompts,omitempty"`
	MatchAnswers []helper.MatchingSide   `json:"answers,omitempty"`
}

// NewStudentQuestionResponse строит вопрос без ключей ответа.
// Ответы вопроса на сопоставление перемешиваются зерном попытки, одинаково при каждом запросе.
func NewStudentQuestionResponse(q *entity.Question, attemptID string, tokens *assessment.MatchingTokens) StudentQuestionResponse {
	resp := StudentQuestionResponse{
		ID:       q.ID,
		Type:     q.Type,
		Text:     q.Text,
		ImageURL: q.ImageURL,
		Points:   q.Points,
	}
	switch q.Type {
	case entity.QuestionMatching:
		resp.Prompts, resp.MatchAnswers = helper.ConvertMatching(q, assessment.SeedFromAttemptID(attemptID), tokens)
	case entity.QuestionFillInTheGap:
		resp.Gaps = helper.GapIdentifiers(q)
	case entity.QuestionKeywords:
		// свободный текст, показывать нечего
	default:
		resp.Options = helper.ConvertOptions(q)
	}
	return resp
}

// AttemptQuestionsResponse: попытка и её вопросы в порядке показа
type AttemptQuestionsResponse struct {
	Attempt   *AttemptResponse          `json:"attempt"`
	Questions []StudentQuestionResponse `json:"questions"`
}

// ReviewItemResponse: вопрос с ключом ответа и отправленным ответом
type ReviewItemResponse struct {
	Question  entity.Question `json:"question"`
	Answer    entity.Answer   `json:"answer,omitempty"`
	Score     int             `json:"score"`
	IsCorrect bool            `json:"is_correct"`
	Answered  bool            `json:"answered"`
}

// AttemptReviewResponse: разбор завершённой попытки
type AttemptReviewResponse struct {
	Attempt  *AttemptResponse     `json:"attempt"`
	Earned   int                  `json:"earned"`
	Possible int                  `json:"possible"`
	Items    []ReviewItemResponse `json:"items"`
}
