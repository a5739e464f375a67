package service

import (
	"fmt"
	"strings"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	apperrors "github.com/Wetende/crossview-sub004/internal/pkg/errors"
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, fmt.Sprintf(format, args...))
}

// ValidateQuiz проверяет настройки теста
func ValidateQuiz(quiz *entity.Quiz) error {
	if strings.TrimSpace(quiz.Title) == "" {
		return invalid("title is required")
	}
	if quiz.TimeLimitMinutes != nil && *quiz.TimeLimitMinutes <= 0 {
		return invalid("time_limit_minutes must be positive when set")
	}
	if quiz.PassingGrade != nil && (*quiz.PassingGrade < 0 || *quiz.PassingGrade > 100) {
		return invalid("passing_grade must be within [0, 100]")
	}
	if quiz.RetakePenaltyPercent < 0 || quiz.RetakePenaltyPercent > 100 {
		return invalid("retake_penalty_percent must be within [0, 100]")
	}
	return nil
}

// ValidateQuestion проверяет структуру вопроса и его ключа ответа.
// Сумма баллов ключа здесь не проверяется: расхождение допустимо и ограничивается при оценке.
// Идентификаторы пропусков и ключи пар сохраняются без окружающих пробелов.
func ValidateQuestion(q *entity.Question) error {
	if !q.Type.IsValid() {
		return invalid("unknown question type %q", q.Type)
	}
	if strings.TrimSpace(q.Text) == "" {
		return invalid("question text is required")
	}
	if q.Points <= 0 {
		return invalid("points must be positive")
	}

	if q.Type.UsesOptions() {
		if len(q.GapAnswers)+len(q.KeywordAnswers)+len(q.MatchingPairs) > 0 {
			return invalid("%s question stores its answer key in options only", q.Type)
		}
		return validateOptions(q)
	}
	if len(q.Options) > 0 {
		return invalid("%s question does not use options", q.Type)
	}

	switch q.Type {
	case entity.QuestionFillInTheGap:
		if len(q.KeywordAnswers)+len(q.MatchingPairs) > 0 {
			return invalid("fill_in_the_gap question stores its answer key in gap answers only")
		}
		return validateGaps(q)
	case entity.QuestionKeywords:
		if len(q.GapAnswers)+len(q.MatchingPairs) > 0 {
			return invalid("keywords question stores its answer key in keyword answers only")
		}
		return validateKeywords(q)
	case entity.QuestionMatching:
		if len(q.GapAnswers)+len(q.KeywordAnswers) > 0 {
			return invalid("matching question stores its answer key in matching pairs only")
		}
		return validatePairs(q)
	}
	return nil
}

func validateOptions(q *entity.Question) error {
	if len(q.Options) < 2 {
		return invalid("%s question needs at least two options", q.Type)
	}

	orders := make(map[int]struct{}, len(q.Options))
	for i, o := range q.Options {
		if strings.TrimSpace(o.Text) == "" && strings.TrimSpace(o.ImageURL) == "" {
			return invalid("option #%d needs text or an image", i+1)
		}
		if q.Type == entity.QuestionImageMatching && strings.TrimSpace(o.ImageURL) == "" {
			return invalid("image_matching option #%d needs an image", i+1)
		}
		if _, dup := orders[o.Order]; dup {
			return invalid("option order %d is used twice", o.Order)
		}
		orders[o.Order] = struct{}{}
	}

	correct := q.CorrectOptionCount()
	switch q.Type {
	case entity.QuestionTrueFalse:
		if len(q.Options) != 2 || correct != 1 {
			return invalid("true_false question needs exactly two options with exactly one correct")
		}
	case entity.QuestionSingleChoice, entity.QuestionImageMatching:
		if correct != 1 {
			return invalid("%s question needs exactly one correct option, got %d", q.Type, correct)
		}
	case entity.QuestionMultipleChoice:
		if correct < 1 {
			return invalid("multiple_choice question needs at least one correct option")
		}
	}
	return nil
}

func validateGaps(q *entity.Question) error {
	if len(q.GapAnswers) == 0 {
		return invalid("fill_in_the_gap question needs at least one gap answer")
	}
	seen := make(map[string]struct{}, len(q.GapAnswers))
	for i := range q.GapAnswers {
		g := &q.GapAnswers[i]
		g.GapIdentifier = strings.TrimSpace(g.GapIdentifier)
		id := g.GapIdentifier
		if id == "" {
			return invalid("gap_identifier is required")
		}
		if _, dup := seen[id]; dup {
			return invalid("gap_identifier %q is used twice", id)
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(g.CorrectText) == "" {
			return invalid("gap %q needs correct_text", id)
		}
		if g.Points < 0 {
			return invalid("gap %q has negative points", id)
		}
	}
	return nil
}

func validateKeywords(q *entity.Question) error {
	if len(q.KeywordAnswers) == 0 {
		return invalid("keywords question needs at least one keyword answer")
	}
	for _, k := range q.KeywordAnswers {
		if strings.TrimSpace(k.AcceptableKeyword) == "" {
			return invalid("acceptable_keyword is required")
		}
		if k.PointsPerKeyword < 0 {
			return invalid("keyword %q has negative points", k.AcceptableKeyword)
		}
	}
	return nil
}

func validatePairs(q *entity.Question) error {
	if len(q.MatchingPairs) == 0 {
		return invalid("matching question needs at least one pair")
	}
	prompts := make(map[string]struct{}, len(q.MatchingPairs))
	answers := make(map[string]struct{}, len(q.MatchingPairs))
	for i := range q.MatchingPairs {
		p := &q.MatchingPairs[i]
		p.PairKey = strings.TrimSpace(p.PairKey)
		p.AnswerKey = strings.TrimSpace(p.AnswerKey)
		key := p.PairKey
		if key == "" {
			return invalid("matching_pair_key is required")
		}
		if _, dup := prompts[key]; dup {
			return invalid("matching_pair_key %q is used twice", key)
		}
		prompts[key] = struct{}{}

		answer := p.ResolvedAnswerKey()
		if _, dup := answers[answer]; dup {
			return invalid("answer key %q is used by two pairs", answer)
		}
		answers[answer] = struct{}{}

		if p.PromptText == "" && p.PromptImage == "" {
			return invalid("pair %q needs a prompt text or image", key)
		}
		if p.AnswerText == "" && p.AnswerImage == "" {
			return invalid("pair %q needs an answer text or image", key)
		}
		if p.Points < 0 {
			return invalid("pair %q has negative points", key)
		}
	}
	return nil
}
