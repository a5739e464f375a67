package assessment

import (
	"log"
	"strings"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
)

// Result: результат оценки одного ответа
type Result struct {
	Score     int
	IsCorrect bool
}

// Score оценивает нормализованный ответ на вопрос. Функция чистая: не обращается к хранилищу.
// Баллы всегда лежат в [0, q.Points]. Пустой ключ ответа или несовпадение типа ответа
// с типом вопроса дают 0 баллов и предупреждение в логе, но не ошибку.
func Score(q *entity.Question, answer entity.Answer) Result {
	if q.Points <= 0 {
		log.Printf("[Scorer] WARNING: у вопроса #%d неположительное количество баллов (%d)", q.ID, q.Points)
		return Result{}
	}
	if answer == nil {
		return Result{}
	}
	if answer.Kind() != q.Type {
		log.Printf("[Scorer] WARNING: вопрос #%d имеет тип %s, а ответ нормализован как %s; начислено 0",
			q.ID, q.Type, answer.Kind())
		return Result{}
	}
	if !q.HasAnswerKey() {
		log.Printf("[Scorer] WARNING: у вопроса #%d (%s) пустой ключ ответа; начислено 0", q.ID, q.Type)
		return Result{}
	}

	var earned int
	switch a := answer.(type) {
	case entity.ChoiceAnswer:
		earned = scoreChoice(q, a)
	case entity.MultipleChoiceAnswer:
		earned = scoreMultipleChoice(q, a)
	case entity.TrueFalseAnswer:
		earned = scoreTrueFalse(q, a)
	case entity.MatchingAnswer:
		earned = scoreMatching(q, a)
	case entity.GapFillAnswer:
		earned = scoreGapFill(q, a)
	case entity.KeywordsAnswer:
		earned = scoreKeywords(q, a)
	default:
		log.Printf("[Scorer] WARNING: вопрос #%d: неподдерживаемый ответ %T; начислено 0", q.ID, answer)
		return Result{}
	}

	return clamp(q, earned)
}

// clamp ограничивает баллы вопросом и вычисляет IsCorrect.
// Верным считается только ответ с полным баллом вопроса, в том числе для частичных типов:
// если ключ ответа стоит меньше вопроса, верного ответа у такого вопроса нет.
func clamp(q *entity.Question, earned int) Result {
	if earned < 0 {
		earned = 0
	}
	if earned > q.Points {
		log.Printf("[Scorer] WARNING: ключ ответа вопроса #%d стоит %d баллов, больше чем сам вопрос (%d); баллы ограничены",
			q.ID, q.KeyPoints(), q.Points)
		earned = q.Points
	}
	return Result{
		Score:     earned,
		IsCorrect: earned == q.Points,
	}
}

func scoreChoice(q *entity.Question, a entity.ChoiceAnswer) int {
	if a.OptionID == 0 {
		return 0
	}
	opt, ok := q.FindOption(a.OptionID)
	if !ok || !opt.IsCorrect {
		return 0
	}
	return q.Points
}

func scoreMultipleChoice(q *entity.Question, a entity.MultipleChoiceAnswer) int {
	correct := make(map[uint]struct{})
	for _, id := range q.CorrectOptionIDs() {
		correct[id] = struct{}{}
	}

	submitted := make(map[uint]struct{}, len(a.OptionIDs))
	for _, id := range a.OptionIDs {
		submitted[id] = struct{}{}
	}

	if len(submitted) != len(correct) {
		return 0
	}
	for id := range submitted {
		if _, ok := correct[id]; !ok {
			return 0
		}
	}
	return q.Points
}

func scoreTrueFalse(q *entity.Question, a entity.TrueFalseAnswer) int {
	key, ok := q.TrueFalseKey()
	if !ok || key != a.Value {
		return 0
	}
	return q.Points
}

// scoreMatching засчитывает пару, если для её подсказки выбран её же ответ.
// Ответ, выбранный сразу для нескольких подсказок, не засчитывается ни в одной из них.
func scoreMatching(q *entity.Question, a entity.MatchingAnswer) int {
	usage := make(map[string]int, len(a.Matches))
	for _, chosen := range a.Matches {
		usage[chosen]++
	}

	earned := 0
	for i := range q.MatchingPairs {
		pair := &q.MatchingPairs[i]
		chosen, ok := a.Matches[pair.PairKey]
		if !ok || usage[chosen] > 1 {
			continue
		}
		if chosen == pair.ResolvedAnswerKey() {
			earned += pair.Points
		}
	}
	return earned
}

func scoreGapFill(q *entity.Question, a entity.GapFillAnswer) int {
	earned := 0
	for _, gap := range q.GapAnswers {
		submitted := strings.TrimSpace(a.Gaps[gap.GapIdentifier])
		if submitted == "" {
			continue
		}
		expected := strings.TrimSpace(gap.CorrectText)
		if gap.CaseSensitive {
			if submitted == expected {
				earned += gap.Points
			}
		} else if strings.EqualFold(submitted, expected) {
			earned += gap.Points
		}
	}
	return earned
}

// scoreKeywords начисляет баллы один раз за каждое найденное ключевое слово.
// Текст разбивается по пробелам; у токена учитывается и исходная форма, и форма без
// окружающих знаков препинания предложения ("array," совпадает с "array", но "C#"
// остаётся "C#"). Ключевое слово из нескольких слов ищется как последовательность токенов.
func scoreKeywords(q *entity.Question, a entity.KeywordsAnswer) int {
	tokens := tokenize(a.Text)

	exact := make(map[string]struct{}, len(tokens)*2)
	folded := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		for _, form := range []string{t.raw, t.trimmed} {
			if form == "" {
				continue
			}
			exact[form] = struct{}{}
			folded[strings.ToLower(form)] = struct{}{}
		}
	}

	earned := 0
	for _, kw := range q.KeywordAnswers {
		keyword := strings.TrimSpace(kw.AcceptableKeyword)
		if keyword == "" {
			continue
		}

		var matched bool
		if parts := strings.Fields(keyword); len(parts) > 1 {
			matched = containsPhrase(tokens, parts, kw.CaseSensitive)
		} else if kw.CaseSensitive {
			_, matched = exact[keyword]
		} else {
			_, matched = folded[strings.ToLower(keyword)]
		}

		if matched {
			earned += kw.PointsPerKeyword
		}
	}
	return earned
}

type token struct {
	raw     string
	trimmed string
}

func tokenize(text string) []token {
	fields := strings.Fields(text)
	out := make([]token, 0, len(fields))
	for _, f := range fields {
		out = append(out, token{
			raw:     f,
			trimmed: trimSentencePunct(f),
		})
	}
	return out
}

// sentencePunct: знаки, которыми слово может примыкать к тексту вокруг.
// Символы внутри терминов ("C#", "C++", "node.js") сюда не входят.
const sentencePunct = ".,;:!?\"'()[]{}«»„“”‘’…"

func trimSentencePunct(s string) string {
	return strings.Trim(s, sentencePunct)
}

func containsPhrase(tokens []token, parts []string, caseSensitive bool) bool {
	equal := func(a, b string) bool {
		if caseSensitive {
			return a == b
		}
		return strings.EqualFold(a, b)
	}

	for start := 0; start+len(parts) <= len(tokens); start++ {
		ok := true
		for i, p := range parts {
			t := tokens[start+i]
			want := trimSentencePunct(p)
			if !equal(t.raw, p) && !equal(t.trimmed, want) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
