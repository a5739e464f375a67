package helper

import (
	"sort"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	"github.com/Wetende/crossview-sub004/internal/service/assessment"
)

// QuestionOption представляет вариант ответа для студента (без признака правильности)
type QuestionOption struct {
	ID       uint   `json:"id"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// MatchingSide: один элемент стороны вопроса на сопоставление
type MatchingSide struct {
	Key   string `json:"key"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// ConvertOptions возвращает варианты в порядке Order без правильных ответов
func ConvertOptions(q *entity.Question) []QuestionOption {
	sorted := q.SortedOptions()
	converted := make([]QuestionOption, len(sorted))
	for i, opt := range sorted {
		converted[i] = QuestionOption{ID: opt.ID, Text: opt.Text, ImageURL: opt.ImageURL}
	}
	return converted
}

// GapIdentifiers возвращает идентификаторы пропусков в порядке Order
func GapIdentifiers(q *entity.Question) []string {
	gaps := make([]entity.GapAnswer, len(q.GapAnswers))
	copy(gaps, q.GapAnswers)
	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Order != gaps[j].Order {
			return gaps[i].Order < gaps[j].Order
		}
		return gaps[i].ID < gaps[j].ID
	})

	ids := make([]string, len(gaps))
	for i, g := range gaps {
		ids[i] = g.GapIdentifier
	}
	return ids
}

// ConvertMatching разделяет пары на подсказки и ответы.
// Подсказки идут в порядке хранения, ответы перемешаны зерном seed, чтобы позиция не выдавала пару.
// Ключи ответов заменены токенами попытки: авторский ключ часто совпадает с ключом подсказки.
func ConvertMatching(q *entity.Question, seed int64, tokens *assessment.MatchingTokens) (prompts, answers []MatchingSide) {
	prompts = make([]MatchingSide, len(q.MatchingPairs))
	answers = make([]MatchingSide, len(q.MatchingPairs))
	for i := range q.MatchingPairs {
		p := &q.MatchingPairs[i]
		prompts[i] = MatchingSide{Key: p.PairKey, Text: p.PromptText, Image: p.PromptImage}
		answers[i] = MatchingSide{Key: tokens.Token(q.ID, p.ResolvedAnswerKey()), Text: p.AnswerText, Image: p.AnswerImage}
	}
	assessment.Shuffle(answers, assessment.SubSeed(seed, q.ID))
	return prompts, answers
}
