package entity

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// QuestionType: закрытый набор типов вопросов
type QuestionType string

// Типы вопросов
const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionMatching       QuestionType = "matching"
	QuestionImageMatching  QuestionType = "image_matching"
	QuestionFillInTheGap   QuestionType = "fill_in_the_gap"
	QuestionKeywords       QuestionType = "keywords"
)

// QuestionTypes перечисляет все поддерживаемые типы в порядке объявления
var QuestionTypes = []QuestionType{
	QuestionSingleChoice,
	QuestionMultipleChoice,
	QuestionTrueFalse,
	QuestionMatching,
	QuestionImageMatching,
	QuestionFillInTheGap,
	QuestionKeywords,
}

// IsValid проверяет, входит ли тип в закрытый набор
func (t QuestionType) IsValid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// UsesOptions сообщает, хранится ли ключ ответа в вариантах (Options)
func (t QuestionType) UsesOptions() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionTrueFalse, QuestionImageMatching:
		return true
	}
	return false
}

// Question представляет вопрос теста.
// Ключ ответа хранится ровно в одной из связанных коллекций, в зависимости от Type.
type Question struct {
	ID       uint         `gorm:"primaryKey" json:"id"`
	QuizID   uint         `gorm:"not null;index" json:"quiz_id"`
	Type     QuestionType `gorm:"size:32;not null" json:"type"`
	Text     string       `gorm:"type:text;not null" json:"text"`
	ImageURL string       `gorm:"size:500;not null;default:''" json:"image_url,omitempty"`
	Points   int          `gorm:"not null;default:1" json:"points"`
	Order    int          `gorm:"column:sort_order;not null;default:0" json:"order"`

	Options        []Option        `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	GapAnswers     []GapAnswer     `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"gap_answers,omitempty"`
	KeywordAnswers []KeywordAnswer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"keyword_answers,omitempty"`
	MatchingPairs  []MatchingPair  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"matching_pairs,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// KeyPoints возвращает сумму баллов, заложенных в ключ ответа.
// Для вопросов с вариантами это всегда Points: вариант не несёт собственных баллов.
func (q *Question) KeyPoints() int {
	sum := 0
	switch q.Type {
	case QuestionFillInTheGap:
		for _, g := range q.GapAnswers {
			sum += g.Points
		}
	case QuestionKeywords:
		for _, k := range q.KeywordAnswers {
			sum += k.PointsPerKeyword
		}
	case QuestionMatching:
		for _, p := range q.MatchingPairs {
			sum += p.Points
		}
	default:
		return q.Points
	}
	return sum
}

// HasAnswerKey сообщает, заполнен ли ключ ответа для типа вопроса
func (q *Question) HasAnswerKey() bool {
	switch q.Type {
	case QuestionFillInTheGap:
		return len(q.GapAnswers) > 0
	case QuestionKeywords:
		return len(q.KeywordAnswers) > 0
	case QuestionMatching:
		return len(q.MatchingPairs) > 0
	default:
		return q.CorrectOptionCount() > 0
	}
}

// FindOption ищет вариант ответа по ID
func (q *Question) FindOption(optionID uint) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// CorrectOptionIDs возвращает ID всех вариантов, отмеченных правильными
func (q *Question) CorrectOptionIDs() []uint {
	ids := make([]uint, 0, 1)
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// CorrectOptionCount возвращает количество правильных вариантов
func (q *Question) CorrectOptionCount() int {
	return len(q.CorrectOptionIDs())
}

// SortedOptions возвращает копию вариантов, упорядоченную по Order, затем по ID
func (q *Question) SortedOptions() []Option {
	out := make([]Option, len(q.Options))
	copy(out, q.Options)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// TrueFalseKey возвращает булево значение правильного варианта вопроса true_false.
// Значение берётся из текста правильного варианта ("true"/"false", "да"/"нет");
// если текст не распознан — по позиции: первый вариант означает true, второй false.
// ok=false, если правильный вариант не задан.
func (q *Question) TrueFalseKey() (value bool, ok bool) {
	sorted := q.SortedOptions()
	for i, o := range sorted {
		if !o.IsCorrect {
			continue
		}
		if v, parsed := ParseBoolText(o.Text); parsed {
			return v, true
		}
		return i == 0, true
	}
	return false, false
}

// ParseBoolText распознаёт текстовое булево значение без учёта регистра
func ParseBoolText(s string) (bool, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "да", "верно", "правда", "yes":
		return true, true
	case "нет", "неверно", "ложь", "no":
		return false, true
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return v, true
}

// Option: вариант ответа (текст или изображение) для вопросов с выбором
type Option struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index;uniqueIndex:idx_option_order" json:"question_id"`
	Text       string `gorm:"size:1000;not null;default:''" json:"text"`
	ImageURL   string `gorm:"size:500;not null;default:''" json:"image_url,omitempty"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
	Order      int    `gorm:"column:sort_order;not null;default:0;uniqueIndex:idx_option_order" json:"order"`
}

// TableName определяет имя таблицы для GORM
func (Option) TableName() string {
	return "question_options"
}

// GapAnswer: правильный текст для одного пропуска вопроса fill_in_the_gap
type GapAnswer struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	QuestionID    uint   `gorm:"not null;index;uniqueIndex:idx_gap_identifier" json:"question_id"`
	GapIdentifier string `gorm:"size:100;not null;uniqueIndex:idx_gap_identifier" json:"gap_identifier"`
	CorrectText   string `gorm:"size:500;not null" json:"correct_text"`
	CaseSensitive bool   `gorm:"not null;default:false" json:"case_sensitive"`
	Points        int    `gorm:"not null;default:1" json:"points"`
	Order         int    `gorm:"column:sort_order;not null;default:0" json:"order"`
}

// TableName определяет имя таблицы для GORM
func (GapAnswer) TableName() string {
	return "gap_answers"
}

// KeywordAnswer: допустимое ключевое слово для вопроса keywords
type KeywordAnswer struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	QuestionID        uint   `gorm:"not null;index" json:"question_id"`
	AcceptableKeyword string `gorm:"size:200;not null" json:"acceptable_keyword"`
	CaseSensitive     bool   `gorm:"not null;default:false" json:"case_sensitive"`
	PointsPerKeyword  int    `gorm:"not null;default:1" json:"points_per_keyword"`
}

// TableName определяет имя таблицы для GORM
func (KeywordAnswer) TableName() string {
	return "keyword_answers"
}

// MatchingPair: пара "подсказка → ответ" для вопроса matching.
// PairKey идентифицирует сторону подсказки, AnswerKey — сторону ответа.
// Пустой AnswerKey означает, что ответ идентифицируется тем же ключом, что и пара.
type MatchingPair struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	QuestionID  uint   `gorm:"not null;index;uniqueIndex:idx_matching_pair_key" json:"question_id"`
	PairKey     string `gorm:"column:matching_pair_key;size:100;not null;uniqueIndex:idx_matching_pair_key" json:"matching_pair_key"`
	AnswerKey   string `gorm:"size:100;not null;default:''" json:"answer_key,omitempty"`
	PromptText  string `gorm:"size:1000;not null;default:''" json:"prompt_text,omitempty"`
	PromptImage string `gorm:"size:500;not null;default:''" json:"prompt_image,omitempty"`
	AnswerText  string `gorm:"size:1000;not null;default:''" json:"answer_text,omitempty"`
	AnswerImage string `gorm:"size:500;not null;default:''" json:"answer_image,omitempty"`
	Points      int    `gorm:"not null;default:1" json:"points"`
}

// TableName определяет имя таблицы для GORM
func (MatchingPair) TableName() string {
	return "matching_pairs"
}

// ResolvedAnswerKey возвращает ключ стороны ответа с учётом значения по умолчанию
func (p *MatchingPair) ResolvedAnswerKey() string {
	if p.AnswerKey == "" {
		return p.PairKey
	}
	return p.AnswerKey
}
