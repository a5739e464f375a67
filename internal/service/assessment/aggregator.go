package assessment

import (
	"log"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
)

// Outcome: итог попытки, вычисленный из сохранённых ответов
type Outcome struct {
	Earned     int     // сумма баллов за ответы (каждый ограничен баллами вопроса)
	Possible   int     // сумма баллов всех вопросов теста
	RawPercent float64 // процент до штрафа
	Penalty    float64 // вычтенный штраф за пересдачу, в процентных пунктах
	Score      float64 // итоговый процент, не меньше 0
	Passed     *bool   // nil, если у теста нет проходного балла
}

// Aggregate пересчитывает итог попытки заново по ответам.
// Ответы на вопросы, которых больше нет в тесте, не учитываются.
// Неотвеченные вопросы входят в знаменатель с нулём баллов.
func Aggregate(quiz *entity.Quiz, attemptNumber int, answers []entity.AttemptAnswer, mode PenaltyMode) Outcome {
	perQuestion := make(map[uint]int, len(answers))
	for _, a := range answers {
		q, ok := quiz.FindQuestion(a.QuestionID)
		if !ok {
			log.Printf("[Aggregator] WARNING: в попытке %s есть ответ на вопрос #%d, которого нет в тесте #%d; пропускаем",
				a.AttemptID, a.QuestionID, quiz.ID)
			continue
		}
		score := a.Score
		if score < 0 {
			score = 0
		}
		if score > q.Points {
			score = q.Points
		}
		perQuestion[a.QuestionID] = score
	}

	out := Outcome{Possible: quiz.TotalPoints()}
	for _, s := range perQuestion {
		out.Earned += s
	}
	if out.Possible > 0 {
		out.RawPercent = 100 * float64(out.Earned) / float64(out.Possible)
	}

	out.Penalty = RetakePenalty(quiz.RetakePenaltyPercent, attemptNumber, mode)
	out.Score = out.RawPercent - out.Penalty
	if out.Score < 0 {
		out.Score = 0
	}

	if quiz.PassingGrade != nil {
		passed := out.Score >= *quiz.PassingGrade
		out.Passed = &passed
	}
	return out
}

// RetakePenalty возвращает штраф в процентных пунктах для номера попытки
func RetakePenalty(percent float64, attemptNumber int, mode PenaltyMode) float64 {
	if percent <= 0 || attemptNumber <= 1 {
		return 0
	}
	if mode == PenaltyFlat {
		return percent
	}
	return percent * float64(attemptNumber-1)
}
