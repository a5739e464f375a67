package assessment

import (
	"fmt"
	"strings"
	"time"
)

// PenaltyMode определяет, как штраф за пересдачу зависит от номера попытки
type PenaltyMode string

const (
	// PenaltyLinear: штраф растёт линейно: percent * (attempt_number - 1)
	PenaltyLinear PenaltyMode = "linear"
	// PenaltyFlat: однократный штраф percent для любой попытки после первой
	PenaltyFlat PenaltyMode = "flat"
)

// ParsePenaltyMode разбирает режим штрафа; пустая строка означает linear
func ParsePenaltyMode(s string) (PenaltyMode, error) {
	switch PenaltyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", PenaltyLinear:
		return PenaltyLinear, nil
	case PenaltyFlat:
		return PenaltyFlat, nil
	}
	return "", fmt.Errorf("unknown retake penalty mode %q (expected linear or flat)", s)
}

// Config содержит настройки движка оценивания
type Config struct {
	PenaltyMode PenaltyMode

	// QuestionOrderTTL: время жизни порядка вопросов попытки в кеше
	QuestionOrderTTL time.Duration
	// QuizCacheTTL: время жизни определения теста в кеше; 0 отключает кеш
	QuizCacheTTL time.Duration
	// TimeLimitGrace добавляется к рекомендуемому дедлайну при вычислении признака expired
	TimeLimitGrace time.Duration
	// TokenSecret: ключ HMAC для токенов ответов на сопоставление
	TokenSecret []byte
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		PenaltyMode:      PenaltyLinear,
		QuestionOrderTTL: 24 * time.Hour,
		QuizCacheTTL:     0,
		TimeLimitGrace:   0,
	}
}
