package assessment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
)

const matchingTokenLen = 16

// MatchingTokens выдаёт непрозрачные ключи ответов вопроса на сопоставление в пределах одной попытки.
// Авторский ключ ответа (по умолчанию совпадающий с ключом подсказки) студент не видит:
// токен зависит от секрета сервера, поэтому по id попытки его не вычислить.
type MatchingTokens struct {
	secret    []byte
	attemptID string
}

// NewMatchingTokens создает генератор токенов для попытки
func NewMatchingTokens(secret []byte, attemptID string) *MatchingTokens {
	return &MatchingTokens{secret: secret, attemptID: attemptID}
}

// Token возвращает токен ответа answerKey вопроса questionID
func (t *MatchingTokens) Token(questionID uint, answerKey string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(t.attemptID))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatUint(uint64(questionID), 10)))
	mac.Write([]byte{0})
	mac.Write([]byte(answerKey))
	return hex.EncodeToString(mac.Sum(nil))[:matchingTokenLen]
}

// Resolve строит отображение токен -> ключ ответа для всех пар вопроса
func (t *MatchingTokens) Resolve(q *entity.Question) map[string]string {
	out := make(map[string]string, len(q.MatchingPairs))
	for i := range q.MatchingPairs {
		key := q.MatchingPairs[i].ResolvedAnswerKey()
		out[t.Token(q.ID, key)] = key
	}
	return out
}

// Tokenize заменяет ключи ответов сохранённого сопоставления на токены попытки
func (t *MatchingTokens) Tokenize(questionID uint, a entity.MatchingAnswer) entity.MatchingAnswer {
	out := entity.MatchingAnswer{Matches: make(map[string]string, len(a.Matches))}
	for prompt, key := range a.Matches {
		out.Matches[prompt] = t.Token(questionID, key)
	}
	return out
}
