package errors

import (
	"errors"
	"fmt"
)

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, удаление теста, по которому уже есть попытки).
	ErrConflict = errors.New("resource state conflict")
)

// Ошибки движка оценивания. Каждая оборачивает общий класс,
// поэтому errors.Is срабатывает и на конкретную ошибку, и на класс.
var (
	// ErrAlreadyInProgress: у пользователя уже есть незавершённая попытка по этому тесту.
	ErrAlreadyInProgress = fmt.Errorf("attempt already in progress: %w", ErrConflict)

	// ErrAttemptNotInProgress: попытка уже завершена, изменять её нельзя.
	ErrAttemptNotInProgress = fmt.Errorf("attempt is not in progress: %w", ErrConflict)

	// ErrQuestionNotInQuiz: вопрос не принадлежит тесту попытки.
	ErrQuestionNotInQuiz = fmt.Errorf("question does not belong to the attempt's quiz: %w", ErrValidation)

	// ErrMalformedAnswer: структура ответа не соответствует типу вопроса.
	ErrMalformedAnswer = fmt.Errorf("malformed answer: %w", ErrValidation)
)
