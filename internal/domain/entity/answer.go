package entity

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// Answer: нормализованный ответ на вопрос.
// Закрытое объединение: реализации есть только в этом пакете, по одной на форму ответа.
type Answer interface {
	// Kind возвращает тип вопроса, для которого ответ был нормализован
	Kind() QuestionType
	isAnswer()
}

// ChoiceAnswer: ответ single_choice / image_matching: один выбранный вариант.
// OptionID == 0 означает, что вариант не выбран (или ссылался на удалённый вариант).
type ChoiceAnswer struct {
	Type     QuestionType `json:"-"`
	OptionID uint         `json:"option_id"`
}

// MultipleChoiceAnswer: множество выбранных вариантов (без повторов, по возрастанию ID)
type MultipleChoiceAnswer struct {
	OptionIDs []uint `json:"option_ids"`
}

// TrueFalseAnswer: булев ответ
type TrueFalseAnswer struct {
	Value bool `json:"value"`
}

// MatchingAnswer: соответствия promptKey → answerKey, не более одного ответа на подсказку
type MatchingAnswer struct {
	Matches map[string]string `json:"matches"`
}

// GapFillAnswer: тексты по идентификаторам пропусков
type GapFillAnswer struct {
	Gaps map[string]string `json:"gaps"`
}

// KeywordsAnswer: свободный текст, разбивается на токены при оценке
type KeywordsAnswer struct {
	Text string `json:"text"`
}

// Kind реализует Answer
func (a ChoiceAnswer) Kind() QuestionType {
	if a.Type == "" {
		return QuestionSingleChoice
	}
	return a.Type
}

// Kind реализует Answer
func (MultipleChoiceAnswer) Kind() QuestionType { return QuestionMultipleChoice }

// Kind реализует Answer
func (TrueFalseAnswer) Kind() QuestionType { return QuestionTrueFalse }

// Kind реализует Answer
func (MatchingAnswer) Kind() QuestionType { return QuestionMatching }

// Kind реализует Answer
func (GapFillAnswer) Kind() QuestionType { return QuestionFillInTheGap }

// Kind реализует Answer
func (KeywordsAnswer) Kind() QuestionType { return QuestionKeywords }

func (ChoiceAnswer) isAnswer()         {}
func (MultipleChoiceAnswer) isAnswer() {}
func (TrueFalseAnswer) isAnswer()      {}
func (MatchingAnswer) isAnswer()       {}
func (GapFillAnswer) isAnswer()        {}
func (KeywordsAnswer) isAnswer()       {}

// answerEnvelope: формат хранения ответа: тип вопроса на момент отправки + тело
type answerEnvelope struct {
	Type   QuestionType    `json:"type"`
	Answer json.RawMessage `json:"answer"`
}

// EncodeAnswer сериализует ответ в конверт с тегом типа
func EncodeAnswer(a Answer) (datatypes.JSON, error) {
	if a == nil {
		return nil, fmt.Errorf("encode answer: nil answer")
	}
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode answer: %w", err)
	}
	env, err := json.Marshal(answerEnvelope{Type: a.Kind(), Answer: body})
	if err != nil {
		return nil, fmt.Errorf("encode answer envelope: %w", err)
	}
	return datatypes.JSON(env), nil
}

// DecodeAnswer восстанавливает ответ из конверта.
// Тип берётся из конверта, а не из текущего типа вопроса.
func DecodeAnswer(raw datatypes.JSON) (Answer, error) {
	var env answerEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode answer envelope: %w", err)
	}

	var (
		out Answer
		err error
	)
	switch env.Type {
	case QuestionSingleChoice, QuestionImageMatching:
		var a ChoiceAnswer
		err = json.Unmarshal(env.Answer, &a)
		a.Type = env.Type
		out = a
	case QuestionMultipleChoice:
		var a MultipleChoiceAnswer
		err = json.Unmarshal(env.Answer, &a)
		out = a
	case QuestionTrueFalse:
		var a TrueFalseAnswer
		err = json.Unmarshal(env.Answer, &a)
		out = a
	case QuestionMatching:
		var a MatchingAnswer
		err = json.Unmarshal(env.Answer, &a)
		out = a
	case QuestionFillInTheGap:
		var a GapFillAnswer
		err = json.Unmarshal(env.Answer, &a)
		out = a
	case QuestionKeywords:
		var a KeywordsAnswer
		err = json.Unmarshal(env.Answer, &a)
		out = a
	default:
		return nil, fmt.Errorf("decode answer: unknown answer type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s answer: %w", env.Type, err)
	}
	return out, nil
}
