package assessment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	apperrors "github.com/Wetende/crossview-sub004/internal/pkg/errors"
)

var jsonNull = []byte("null")

// Normalize превращает произвольный ответ клиента в типизированный ответ для типа вопроса.
// Ссылки на неизвестные варианты, пропуски и ключи пар молча отбрасываются:
// отправка не должна падать из-за устаревшего контента.
// Структурно неверный ответ возвращает apperrors.ErrMalformedAnswer.
// Ответы на сопоставление принимаются по авторским ключам.
func Normalize(q *entity.Question, raw json.RawMessage) (entity.Answer, error) {
	return normalize(q, raw, nil)
}

// NormalizeForAttempt работает как Normalize, но ответы на сопоставление принимает
// только в виде токенов попытки и сохраняет их авторскими ключами.
func NormalizeForAttempt(q *entity.Question, raw json.RawMessage, tokens *MatchingTokens) (entity.Answer, error) {
	return normalize(q, raw, tokens)
}

func normalize(q *entity.Question, raw json.RawMessage, tokens *MatchingTokens) (entity.Answer, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, malformed("empty payload")
	}

	switch q.Type {
	case entity.QuestionSingleChoice, entity.QuestionImageMatching:
		return normalizeChoice(q, raw)
	case entity.QuestionMultipleChoice:
		return normalizeMultipleChoice(q, raw)
	case entity.QuestionTrueFalse:
		return normalizeTrueFalse(raw)
	case entity.QuestionMatching:
		return normalizeMatching(q, raw, tokens)
	case entity.QuestionFillInTheGap:
		return normalizeGapFill(q, raw)
	case entity.QuestionKeywords:
		return normalizeKeywords(raw)
	}
	return nil, malformed(fmt.Sprintf("unsupported question type %q", q.Type))
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", apperrors.ErrMalformedAnswer, reason)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(raw, jsonNull)
}

// parseID принимает число или строку с числом
func parseID(raw json.RawMessage) (uint, error) {
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return uint(n), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, malformed(fmt.Sprintf("expected option id, got %s", string(raw)))
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, malformed(fmt.Sprintf("expected option id, got %q", s))
	}
	return uint(n), nil
}

func normalizeChoice(q *entity.Question, raw json.RawMessage) (entity.Answer, error) {
	if isNull(raw) {
		return nil, malformed("option id is required")
	}
	if raw[0] == '{' {
		var obj struct {
			OptionID json.RawMessage `json:"option_id"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, malformed(err.Error())
		}
		if len(obj.OptionID) == 0 || isNull(obj.OptionID) {
			return nil, malformed("option_id is required")
		}
		raw = obj.OptionID
	}

	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	if _, ok := q.FindOption(id); !ok {
		id = 0
	}
	return entity.ChoiceAnswer{Type: q.Type, OptionID: id}, nil
}

func normalizeMultipleChoice(q *entity.Question, raw json.RawMessage) (entity.Answer, error) {
	if isNull(raw) {
		return entity.MultipleChoiceAnswer{OptionIDs: []uint{}}, nil
	}
	if raw[0] == '{' {
		var obj struct {
			OptionIDs json.RawMessage `json:"option_ids"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, malformed(err.Error())
		}
		if len(obj.OptionIDs) == 0 || isNull(obj.OptionIDs) {
			return entity.MultipleChoiceAnswer{OptionIDs: []uint{}}, nil
		}
		raw = obj.OptionIDs
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed("expected an array of option ids")
	}

	seen := make(map[uint]struct{}, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		id, err := parseID(item)
		if err != nil {
			return nil, err
		}
		if _, ok := q.FindOption(id); !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return entity.MultipleChoiceAnswer{OptionIDs: ids}, nil
}

func normalizeTrueFalse(raw json.RawMessage) (entity.Answer, error) {
	if isNull(raw) {
		return nil, malformed("boolean is required")
	}
	if raw[0] == '{' {
		var obj struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, malformed(err.Error())
		}
		if len(obj.Value) == 0 || isNull(obj.Value) {
			return nil, malformed("value is required")
		}
		raw = obj.Value
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return entity.TrueFalseAnswer{Value: b}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, malformed(fmt.Sprintf("expected boolean, got %s", string(raw)))
	}
	v, ok := entity.ParseBoolText(s)
	if !ok {
		return nil, malformed(fmt.Sprintf("expected boolean, got %q", s))
	}
	return entity.TrueFalseAnswer{Value: v}, nil
}

// normalizeMatching принимает объект {prompt: answer} или массив пар.
// Для массива порядок элементов задаёт "последний выигрывает" по ключу подсказки.
// С tokens ответ задаётся токеном попытки, авторский ключ считается неизвестным.
func normalizeMatching(q *entity.Question, raw json.RawMessage, tokens *MatchingTokens) (entity.Answer, error) {
	out := entity.MatchingAnswer{Matches: map[string]string{}}
	if isNull(raw) {
		return out, nil
	}

	prompts := make(map[string]struct{}, len(q.MatchingPairs))
	var answers map[string]string
	if tokens != nil {
		answers = tokens.Resolve(q)
	} else {
		answers = make(map[string]string, len(q.MatchingPairs))
		for i := range q.MatchingPairs {
			key := q.MatchingPairs[i].ResolvedAnswerKey()
			answers[key] = key
		}
	}
	for i := range q.MatchingPairs {
		prompts[q.MatchingPairs[i].PairKey] = struct{}{}
	}

	put := func(prompt, answer string) {
		prompt = strings.TrimSpace(prompt)
		answer = strings.TrimSpace(answer)
		if _, ok := prompts[prompt]; !ok {
			return
		}
		key, ok := answers[answer]
		if !ok {
			// Неизвестный ответ снимает предыдущий выбор для подсказки
			delete(out.Matches, prompt)
			return
		}
		out.Matches[prompt] = key
	}

	switch raw[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, malformed(err.Error())
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if isNull(obj[k]) {
				continue
			}
			var answer string
			if err := json.Unmarshal(obj[k], &answer); err != nil {
				return nil, malformed(fmt.Sprintf("answer key for %q must be a string", k))
			}
			put(k, answer)
		}
	case '[':
		var items []struct {
			PromptKey *string `json:"prompt_key"`
			AnswerKey *string `json:"answer_key"`
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, malformed(err.Error())
		}
		for i, item := range items {
			if item.PromptKey == nil || item.AnswerKey == nil {
				return nil, malformed(fmt.Sprintf("pair #%d must have prompt_key and answer_key", i))
			}
			put(*item.PromptKey, *item.AnswerKey)
		}
	default:
		return nil, malformed("expected an object or an array of pairs")
	}
	return out, nil
}

func normalizeGapFill(q *entity.Question, raw json.RawMessage) (entity.Answer, error) {
	out := entity.GapFillAnswer{Gaps: map[string]string{}}
	if isNull(raw) {
		return out, nil
	}
	if raw[0] != '{' {
		return nil, malformed("expected an object of gap texts")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, malformed(err.Error())
	}

	known := make(map[string]struct{}, len(q.GapAnswers))
	for _, g := range q.GapAnswers {
		known[g.GapIdentifier] = struct{}{}
	}

	for id, value := range obj {
		if isNull(value) {
			continue
		}
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			return nil, malformed(fmt.Sprintf("text for gap %q must be a string", id))
		}
		if _, ok := known[id]; !ok {
			continue
		}
		out.Gaps[id] = text
	}
	return out, nil
}

func normalizeKeywords(raw json.RawMessage) (entity.Answer, error) {
	if isNull(raw) {
		return nil, malformed("text is required")
	}
	if raw[0] == '{' {
		var obj struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, malformed(err.Error())
		}
		if obj.Text == nil {
			return nil, malformed("text is required")
		}
		return entity.KeywordsAnswer{Text: *obj.Text}, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, malformed("expected a string")
	}
	return entity.KeywordsAnswer{Text: text}, nil
}
