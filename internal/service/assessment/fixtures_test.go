package assessment

import (
	"github.com/Wetende/crossview-sub004/internal/domain/entity"
)

func singleChoiceQuestion() *entity.Question {
	return &entity.Question{
		ID:     1,
		Type:   entity.QuestionSingleChoice,
		Text:   "Столица Франции?",
		Points: 2,
		Options: []entity.Option{
			{ID: 10, QuestionID: 1, Text: "Берлин", Order: 0},
			{ID: 11, QuestionID: 1, Text: "Париж", IsCorrect: true, Order: 1},
			{ID: 12, QuestionID: 1, Text: "Рим", Order: 2},
		},
	}
}

func imageMatchingQuestion() *entity.Question {
	return &entity.Question{
		ID:     7,
		Type:   entity.QuestionImageMatching,
		Text:   "Выберите изображение кошки",
		Points: 1,
		Options: []entity.Option{
			{ID: 70, QuestionID: 7, ImageURL: "dog.png", Order: 0},
			{ID: 71, QuestionID: 7, ImageURL: "cat.png", IsCorrect: true, Order: 1},
		},
	}
}

func multipleChoiceQuestion() *entity.Question {
	return &entity.Question{
		ID:     2,
		Type:   entity.QuestionMultipleChoice,
		Text:   "Выберите чётные числа",
		Points: 3,
		Options: []entity.Option{
			{ID: 20, QuestionID: 2, Text: "2", IsCorrect: true, Order: 0},
			{ID: 21, QuestionID: 2, Text: "4", IsCorrect: true, Order: 1},
			{ID: 22, QuestionID: 2, Text: "5", Order: 2},
		},
	}
}

func trueFalseQuestion() *entity.Question {
	return &entity.Question{
		ID:     3,
		Type:   entity.QuestionTrueFalse,
		Text:   "Земля вращается вокруг Солнца",
		Points: 1,
		Options: []entity.Option{
			{ID: 30, QuestionID: 3, Text: "True", IsCorrect: true, Order: 0},
			{ID: 31, QuestionID: 3, Text: "False", Order: 1},
		},
	}
}

func matchingQuestion() *entity.Question {
	return &entity.Question{
		ID:     4,
		Type:   entity.QuestionMatching,
		Text:   "Сопоставьте",
		Points: 3,
		MatchingPairs: []entity.MatchingPair{
			{ID: 40, QuestionID: 4, PairKey: "A", AnswerKey: "1", Points: 1},
			{ID: 41, QuestionID: 4, PairKey: "B", AnswerKey: "2", Points: 1},
			{ID: 42, QuestionID: 4, PairKey: "C", AnswerKey: "3", Points: 1},
		},
	}
}

func gapQuestion() *entity.Question {
	return &entity.Question{
		ID:     5,
		Type:   entity.QuestionFillInTheGap,
		Text:   "Столица Франции — {{gap1}}, Италии — {{gap2}}",
		Points: 2,
		GapAnswers: []entity.GapAnswer{
			{ID: 50, QuestionID: 5, GapIdentifier: "gap1", CorrectText: "Paris", Points: 1, Order: 0},
			{ID: 51, QuestionID: 5, GapIdentifier: "gap2", CorrectText: "Rome", Points: 1, Order: 1},
		},
	}
}

func keywordsQuestion() *entity.Question {
	return &entity.Question{
		ID:     6,
		Type:   entity.QuestionKeywords,
		Text:   "Какие конструкции вы использовали?",
		Points: 3,
		KeywordAnswers: []entity.KeywordAnswer{
			{ID: 60, QuestionID: 6, AcceptableKeyword: "loop", PointsPerKeyword: 1},
			{ID: 61, QuestionID: 6, AcceptableKeyword: "array", PointsPerKeyword: 1},
			{ID: 62, QuestionID: 6, AcceptableKeyword: "function", PointsPerKeyword: 1},
		},
	}
}

func allQuestions() []*entity.Question {
	return []*entity.Question{
		singleChoiceQuestion(),
		multipleChoiceQuestion(),
		trueFalseQuestion(),
		matchingQuestion(),
		gapQuestion(),
		keywordsQuestion(),
		imageMatchingQuestion(),
	}
}

func floatPtr(v float64) *float64 { return &v }
