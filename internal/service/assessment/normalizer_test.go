package assessment

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	apperrors "github.com/Wetende/crossview-sub004/internal/pkg/errors"
)

func TestNormalize_SingleChoice(t *testing.T) {
	q := singleChoiceQuestion()

	tests := []struct {
		name string
		raw  string
		want uint
	}{
		{"число", `11`, 11},
		{"строка с числом", `" 11 "`, 11},
		{"объект", `{"option_id": 12}`, 12},
		{"объект со строкой", `{"option_id": "10"}`, 10},
		{"неизвестный вариант отбрасывается", `999`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(q, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, entity.ChoiceAnswer{Type: entity.QuestionSingleChoice, OptionID: tt.want}, got)
		})
	}
}

func TestNormalize_ImageMatchingKeepsType(t *testing.T) {
	got, err := Normalize(imageMatchingQuestion(), json.RawMessage(`71`))
	require.NoError(t, err)
	assert.Equal(t, entity.QuestionImageMatching, got.Kind(), "тип ответа должен совпадать с типом вопроса")
}

func TestNormalize_MultipleChoice(t *testing.T) {
	q := multipleChoiceQuestion()

	tests := []struct {
		name string
		raw  string
		want []uint
	}{
		{"массив с дублями", `[21, 20, 21]`, []uint{20, 21}},
		{"строки и числа", `["20", 22]`, []uint{20, 22}},
		{"объект", `{"option_ids": [22]}`, []uint{22}},
		{"null — пустое множество", `null`, []uint{}},
		{"пустой массив", `[]`, []uint{}},
		{"неизвестные отбрасываются", `[20, 500, 600]`, []uint{20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(q, json.RawMessage(tt.raw))
			require.NoError(t, err)
			mc, ok := got.(entity.MultipleChoiceAnswer)
			require.True(t, ok)
			assert.Equal(t, tt.want, mc.OptionIDs)
		})
	}
}

func TestNormalize_TrueFalse(t *testing.T) {
	q := trueFalseQuestion()

	tests := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`"TRUE"`, true},
		{`"false"`, false},
		{`{"value": true}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Normalize(q, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, entity.TrueFalseAnswer{Value: tt.want}, got)
		})
	}
}

func TestNormalize_MatchingArrayLastWriteWins(t *testing.T) {
	q := matchingQuestion()

	raw := `[
		{"prompt_key": "A", "answer_key": "2"},
		{"prompt_key": "A", "answer_key": "1"},
		{"prompt_key": "B", "answer_key": "2"},
		{"prompt_key": "Z", "answer_key": "1"},
		{"prompt_key": "C", "answer_key": "nope"}
	]`
	got, err := Normalize(q, json.RawMessage(raw))
	require.NoError(t, err)

	assert.Equal(t, entity.MatchingAnswer{Matches: map[string]string{"A": "1", "B": "2"}}, got,
		"последний выбор для подсказки должен побеждать, неизвестные ключи отбрасываются")
}

func TestNormalize_MatchingObject(t *testing.T) {
	got, err := Normalize(matchingQuestion(), json.RawMessage(`{"A": "1", "B": "3", "C": "3"}`))
	require.NoError(t, err)
	assert.Equal(t, entity.MatchingAnswer{Matches: map[string]string{"A": "1", "B": "3", "C": "3"}}, got)
}

func TestNormalize_GapFill(t *testing.T) {
	got, err := Normalize(gapQuestion(), json.RawMessage(`{"gap1": "Paris", "gap9": "x", "gap2": null}`))
	require.NoError(t, err)
	assert.Equal(t, entity.GapFillAnswer{Gaps: map[string]string{"gap1": "Paris"}}, got)
}

func TestNormalize_Keywords(t *testing.T) {
	q := keywordsQuestion()

	got, err := Normalize(q, json.RawMessage(`"I used a loop"`))
	require.NoError(t, err)
	assert.Equal(t, entity.KeywordsAnswer{Text: "I used a loop"}, got)

	got, err = Normalize(q, json.RawMessage(`{"text": ""}`))
	require.NoError(t, err)
	assert.Equal(t, entity.KeywordsAnswer{Text: ""}, got)
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		q    *entity.Question
		raw  string
	}{
		{"пустой ответ", singleChoiceQuestion(), ``},
		{"null для single_choice", singleChoiceQuestion(), `null`},
		{"отрицательный id", singleChoiceQuestion(), `-1`},
		{"текст вместо id", singleChoiceQuestion(), `"Париж"`},
		{"массив для single_choice", singleChoiceQuestion(), `[11]`},
		{"объект без option_id", singleChoiceQuestion(), `{"id": 11}`},
		{"строка для multiple_choice", multipleChoiceQuestion(), `"20"`},
		{"объект в массиве multiple_choice", multipleChoiceQuestion(), `[{"id": 20}]`},
		{"null для true_false", trueFalseQuestion(), `null`},
		{"число для true_false", trueFalseQuestion(), `1`},
		{"непонятная строка для true_false", trueFalseQuestion(), `"может быть"`},
		{"строка для matching", matchingQuestion(), `"A1"`},
		{"число в ответе matching", matchingQuestion(), `{"A": 1}`},
		{"пара без answer_key", matchingQuestion(), `[{"prompt_key": "A"}]`},
		{"массив для fill_in_the_gap", gapQuestion(), `["Paris"]`},
		{"число в пропуске", gapQuestion(), `{"gap1": 42}`},
		{"null для keywords", keywordsQuestion(), `null`},
		{"число для keywords", keywordsQuestion(), `42`},
		{"объект без text", keywordsQuestion(), `{"body": "loop"}`},
		{"неизвестный тип вопроса", &entity.Question{ID: 99, Type: "essay", Points: 1}, `"text"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.q, json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, apperrors.ErrMalformedAnswer), "ожидалась ErrMalformedAnswer, получено: %v", err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation), "ErrMalformedAnswer должна относиться к ошибкам валидации")
		})
	}
}

func TestNormalizedAnswerSurvivesEnvelope(t *testing.T) {
	payloads := map[*entity.Question]string{
		singleChoiceQuestion():   `11`,
		imageMatchingQuestion():  `71`,
		multipleChoiceQuestion(): `[20, 21]`,
		trueFalseQuestion():      `false`,
		matchingQuestion():       `{"A": "1"}`,
		gapQuestion():            `{"gap1": "Paris"}`,
		keywordsQuestion():       `"loop"`,
	}

	for q, raw := range payloads {
		t.Run(string(q.Type), func(t *testing.T) {
			answer, err := Normalize(q, json.RawMessage(raw))
			require.NoError(t, err)

			stored, err := entity.EncodeAnswer(answer)
			require.NoError(t, err)
			decoded, err := entity.DecodeAnswer(stored)
			require.NoError(t, err)

			assert.Equal(t, Score(q, answer), Score(q, decoded), "оценка сохранённого ответа должна совпадать с исходной")
		})
	}
}
