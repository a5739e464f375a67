package dto

import (
	"time"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
)

// OptionRequest: вариант ответа в запросе автора
type OptionRequest struct {
	Text      string `json:"text"`
	ImageURL  string `json:"image_url"`
	IsCorrect bool   `json:"is_correct"`
	Order     *int   `json:"order"` // по умолчанию — позиция в массиве
}

// GapAnswerRequest: ключ ответа для одного пропуска
type GapAnswerRequest struct {
	GapIdentifier string `json:"gap_identifier"`
	CorrectText   string `json:"correct_text"`
	CaseSensitive bool   `json:"case_sensitive"`
	Points        int    `json:"points"`
}

// KeywordAnswerRequest: допустимое ключевое слово
type KeywordAnswerRequest struct {
	AcceptableKeyword string `json:"acceptable_keyword"`
	CaseSensitive     bool   `json:"case_sensitive"`
	PointsPerKeyword  int    `json:"points_per_keyword"`
}

// MatchingPairRequest: пара для вопроса на сопоставление
type MatchingPairRequest struct {
	PairKey     string `json:"matching_pair_key"`
	AnswerKey   string `json:"answer_key"`
	PromptText  string `json:"prompt_text"`
	PromptImage string `json:"prompt_image"`
	AnswerText  string `json:"answer_text"`
	AnswerImage string `json:"answer_image"`
	Points      int    `json:"points"`
}

// QuestionRequest представляет вопрос в запросе на создание/добавление
type QuestionRequest struct {
	Type           entity.QuestionType    `json:"type" binding:"required"`
	Text           string                 `json:"text" binding:"required"`
	ImageURL       string                 `json:"image_url"`
	Points         int                    `json:"points" binding:"required"`
	Order          *int                   `json:"order"`
	Options        []OptionRequest        `json:"options"`
	GapAnswers     []GapAnswerRequest     `json:"gap_answers"`
	KeywordAnswers []KeywordAnswerRequest `json:"keyword_answers"`
	MatchingPairs  []MatchingPairRequest  `json:"matching_pairs"`
}

// CreateQuizRequest представляет запрос на создание теста
type CreateQuizRequest struct {
	Title                string            `json:"title" binding:"required,max=200"`
	Description          string            `json:"description" binding:"omitempty,max=1000"`
	TimeLimitMinutes     *int              `json:"time_limit_minutes"`
	RandomizeQuestions   bool              `json:"randomize_questions"`
	ShowCorrectAnswer    bool              `json:"show_correct_answer"`
	PassingGrade         *float64          `json:"passing_grade"`
	RetakePenaltyPercent float64           `json:"retake_penalty_percent"`
	Questions            []QuestionRequest `json:"questions" binding:"omitempty,dive"`
}

// AddQuestionsRequest представляет запрос на добавление вопросов
type AddQuestionsRequest struct {
	Questions []QuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// ToEntity преобразует запрос в тест
func (r *CreateQuizRequest) ToEntity() *entity.Quiz {
	return &entity.Quiz{
		Title:                r.Title,
		Description:          r.Description,
		TimeLimitMinutes:     r.TimeLimitMinutes,
		RandomizeQuestions:   r.RandomizeQuestions,
		ShowCorrectAnswer:    r.ShowCorrectAnswer,
		PassingGrade:         r.PassingGrade,
		RetakePenaltyPercent: r.RetakePenaltyPercent,
		Questions:            QuestionsToEntity(r.Questions),
	}
}

// QuestionsToEntity преобразует вопросы запроса; порядок по умолчанию — позиция в массиве
func QuestionsToEntity(reqs []QuestionRequest) []entity.Question {
	questions := make([]entity.Question, len(reqs))
	for i, r := range reqs {
		q := entity.Question{
			Type:     r.Type,
			Text:     r.Text,
			ImageURL: r.ImageURL,
			Points:   r.Points,
			Order:    orderOr(r.Order, i),
		}
		for j, o := range r.Options {
			q.Options = append(q.Options, entity.Option{
				Text: o.Text, ImageURL: o.ImageURL, IsCorrect: o.IsCorrect, Order: orderOr(o.Order, j),
			})
		}
		for j, g := range r.GapAnswers {
			q.GapAnswers = append(q.GapAnswers, entity.GapAnswer{
				GapIdentifier: g.GapIdentifier, CorrectText: g.CorrectText, CaseSensitive: g.CaseSensitive,
				Points: g.Points, Order: j,
			})
		}
		for _, k := range r.KeywordAnswers {
			q.KeywordAnswers = append(q.KeywordAnswers, entity.KeywordAnswer{
				AcceptableKeyword: k.AcceptableKeyword, CaseSensitive: k.CaseSensitive, PointsPerKeyword: k.PointsPerKeyword,
			})
		}
		for _, p := range r.MatchingPairs {
			q.MatchingPairs = append(q.MatchingPairs, entity.MatchingPair{
				PairKey: p.PairKey, AnswerKey: p.AnswerKey,
				PromptText: p.PromptText, PromptImage: p.PromptImage,
				AnswerText: p.AnswerText, AnswerImage: p.AnswerImage,
				Points: p.Points,
			})
		}
		questions[i] = q
	}
	return questions
}

func orderOr(order *int, fallback int) int {
	if order != nil {
		return *order
	}
	return fallback
}

// QuizResponse представляет тест в формате для ответа клиенту
type QuizResponse struct {
	ID                   uint              `json:"id"`
	Title                string            `json:"title"`
	Description          string            `json:"description,omitempty"`
	TimeLimitMinutes     *int              `json:"time_limit_minutes,omitempty"`
	RandomizeQuestions   bool              `json:"randomize_questions"`
	ShowCorrectAnswer    bool              `json:"show_correct_answer"`
	PassingGrade         *float64          `json:"passing_grade,omitempty"`
	RetakePenaltyPercent float64           `json:"retake_penalty_percent"`
	QuestionCount        int               `json:"question_count,omitempty"`
	TotalPoints          int               `json:"total_points,omitempty"`
	Questions            []entity.Question `json:"questions,omitempty"` // с ключами ответов, только для автора
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// NewQuizResponse создает DTO для теста. Вопросы с ключами включаются только по запросу автора.
func NewQuizResponse(quiz *entity.Quiz, includeQuestions bool) *QuizResponse {
	if quiz == nil {
		return nil
	}
	resp := &QuizResponse{
		ID:                   quiz.ID,
		Title:                quiz.Title,
		Description:          quiz.Description,
		TimeLimitMinutes:     quiz.TimeLimitMinutes,
		RandomizeQuestions:   quiz.RandomizeQuestions,
		ShowCorrectAnswer:    quiz.ShowCorrectAnswer,
		PassingGrade:         quiz.PassingGrade,
		RetakePenaltyPercent: quiz.RetakePenaltyPercent,
		QuestionCount:        len(quiz.Questions),
		TotalPoints:          quiz.TotalPoints(),
		CreatedAt:            quiz.CreatedAt,
		UpdatedAt:            quiz.UpdatedAt,
	}
	if includeQuestions {
		resp.Questions = quiz.Questions
	}
	return resp
}

// NewListQuizResponse создает слайс DTO для списка тестов
func NewListQuizResponse(quizzes []entity.Quiz) []*QuizResponse {
	list := make([]*QuizResponse, len(quizzes))
	for i := range quizzes {
		list[i] = NewQuizResponse(&quizzes[i], false)
	}
	return list
}
