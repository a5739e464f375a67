package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/Wetende/crossview-sub004/internal/domain/entity"
	"github.com/Wetende/crossview-sub004/internal/handler/dto"
	"github.com/Wetende/crossview-sub004/internal/middleware"
	apperrors "github.com/Wetende/crossview-sub004/internal/pkg/errors"
	"github.com/Wetende/crossview-sub004/internal/service"
)

// QuizHandler обрабатывает запросы, связанные с тестами
type QuizHandler struct {
	quizService    *service.QuizService
	attemptService *service.AttemptService
}

// NewQuizHandler создает новый обработчик тестов
func NewQuizHandler(quizService *service.QuizService, attemptService *service.AttemptService) *QuizHandler {
	return &QuizHandler{
		quizService:    quizService,
		attemptService: attemptService,
	}
}

// CreateQuiz обрабатывает запрос на создание теста
// POST /api/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req dto.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz := req.ToEntity()
	if err := h.quizService.CreateQuiz(c.Request.Context(), quiz); err != nil {
		handleError(c, "QuizHandler", err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuizResponse(quiz, true))
}

// AddQuestions обрабатывает запрос на добавление вопросов к тесту
// POST /api/quizzes/:id/questions
func (h *QuizHandler) AddQuestions(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	var req dto.AddQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	questions := dto.QuestionsToEntity(req.Questions)
	if err := h.quizService.AddQuestions(c.Request.Context(), quizID, questions); err != nil {
		handleError(c, "QuizHandler", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Questions added successfully",
		"questions": questions,
	})
}

// GetQuiz возвращает информацию о тесте.
// Автор может запросить вопросы с ключами ответов: ?include=questions
// GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	includeQuestions := c.Query("include") == "questions" && middleware.IsAdmin(c)

	quiz, err := h.quizService.GetQuizWithQuestions(c.Request.Context(), quizID)
	if err != nil {
		handleError(c, "QuizHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz, includeQuestions))
}

// ListQuizzes возвращает список тестов с пагинацией
// GET /api/quizzes?page=1&page_size=20
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	quizzes, total, err := h.quizService.ListQuizzes(c.Request.Context(), page, pageSize)
	if err != nil {
		handleError(c, "QuizHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quizzes": dto.NewListQuizResponse(quizzes),
		"total":   total,
		"page":    page,
		"size":    pageSize,
	})
}

// DeleteQuiz удаляет тест без попыток
// DELETE /api/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	if err := h.quizService.DeleteQuiz(c.Request.Context(), quizID); err != nil {
		handleError(c, "QuizHandler", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportQuizAttempts экспортирует попытки теста в CSV или Excel формате
// GET /api/quizzes/:id/attempts/export?format=csv|xlsx
func (h *QuizHandler) ExportQuizAttempts(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	attempts, err := h.attemptService.ListQuizAttempts(c.Request.Context(), quizID)
	if err != nil {
		handleError(c, "QuizHandler", err)
		return
	}

	filename := fmt.Sprintf("quiz_%d_attempts_%s", quizID, time.Now().Format("2006-01-02"))
	if format == "xlsx" {
		h.exportXLSX(c, attempts, filename)
		return
	}
	h.exportCSV(c, attempts, filename)
}

var exportHeaders = []string{"Попытка", "Пользователь", "Номер попытки", "Начата", "Завершена", "Результат, %", "Сдано"}

// exportRow форматирует попытку для выгрузки
func exportRow(a *entity.Attempt) []string {
	completed := ""
	if a.CompletedAt != nil {
		completed = a.CompletedAt.UTC().Format(time.RFC3339)
	}
	score := ""
	if a.Score != nil {
		score = strconv.FormatFloat(*a.Score, 'f', 2, 64)
	}
	passed := ""
	if a.Passed != nil {
		passed = "Нет"
		if *a.Passed {
			passed = "Да"
		}
	}
	return []string{
		sanitizeForExcel(a.ID),
		strconv.FormatUint(uint64(a.UserID), 10),
		strconv.Itoa(a.AttemptNumber),
		a.StartedAt.UTC().Format(time.RFC3339),
		completed,
		score,
		passed,
	}
}

// exportCSV экспортирует попытки в CSV с правильным экранированием спецсимволов
func (h *QuizHandler) exportCSV(c *gin.Context, attempts []entity.Attempt, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write(exportHeaders); err != nil {
		log.Printf("[QuizHandler] Ошибка записи заголовков CSV: %v", err)
		return
	}
	for i := range attempts {
		if err := writer.Write(exportRow(&attempts[i])); err != nil {
			log.Printf("[QuizHandler] Ошибка записи строки CSV %d: %v", i+1, err)
			return
		}
	}
}

// exportXLSX экспортирует попытки в Excel с использованием StreamWriter
func (h *QuizHandler) exportXLSX(c *gin.Context, attempts []entity.Attempt, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Попытки"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		log.Printf("[QuizHandler] Ошибка переименования листа: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[QuizHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	if err := sw.SetRow("A1", toCells(exportHeaders)); err != nil {
		log.Printf("[QuizHandler] Ошибка записи заголовков: %v", err)
	}
	for i := range attempts {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, toCells(exportRow(&attempts[i]))); err != nil {
			log.Printf("[QuizHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		log.Printf("[QuizHandler] Ошибка при Flush: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[QuizHandler] Ошибка записи Excel в response: %v", err)
	}
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleError переводит ошибки сервисов в HTTP ответ
func handleError(c *gin.Context, component string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": conflictType(err)})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": validationType(err)})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in %s: %v", component, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func conflictType(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrAlreadyInProgress):
		return "already_in_progress"
	case errors.Is(err, apperrors.ErrAttemptNotInProgress):
		return "attempt_not_in_progress"
	}
	return "conflict"
}

func validationType(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrQuestionNotInQuiz):
		return "question_not_in_quiz"
	case errors.Is(err, apperrors.ErrMalformedAnswer):
		return "malformed_answer"
	}
	return "validation"
}
