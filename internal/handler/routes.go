package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Wetende/crossview-sub004/internal/middleware"
)

// RegisterRoutes регистрирует маршруты тестов и попыток в группе /api.
// submitLimit применяется к отправке ответов; nil — без ограничения.
func RegisterRoutes(
	api *gin.RouterGroup,
	quizHandler *QuizHandler,
	attemptHandler *AttemptHandler,
	authMiddleware *middleware.AuthMiddleware,
	submitLimit gin.HandlerFunc,
) {
	quizID := middleware.ExtractUintParam("id", "quizID")
	attemptID := middleware.ExtractUUIDParam("attemptId", "attemptID")
	questionID := middleware.ExtractUintParam("questionId", "questionID")
	if submitLimit == nil {
		submitLimit = func(c *gin.Context) { c.Next() }
	}

	quizzes := api.Group("/quizzes", authMiddleware.RequireAuth())
	{
		quizzes.GET("", quizHandler.ListQuizzes)
		quizzes.GET("/:id", quizID, quizHandler.GetQuiz)

		quizzes.POST("/:id/attempts", quizID, attemptHandler.StartAttempt)
		quizzes.GET("/:id/attempts", quizID, attemptHandler.ListMyAttempts)
		quizzes.GET("/:id/attempts/active", quizID, attemptHandler.GetActiveAttempt)

		admin := quizzes.Group("", authMiddleware.AdminOnly())
		{
			admin.POST("", quizHandler.CreateQuiz)
			admin.POST("/:id/questions", quizID, quizHandler.AddQuestions)
			admin.DELETE("/:id", quizID, quizHandler.DeleteQuiz)
			admin.GET("/:id/attempts/export", quizID, quizHandler.ExportQuizAttempts)
		}
	}

	attempts := api.Group("/attempts/:attemptId", authMiddleware.RequireAuth(), attemptID)
	{
		attempts.GET("", attemptHandler.GetAttempt)
		attempts.GET("/questions", attemptHandler.GetAttemptQuestions)
		attempts.GET("/order", attemptHandler.GetQuestionOrder)
		attempts.GET("/answers", attemptHandler.ListAnswers)
		attempts.PUT("/answers/:questionId", questionID, submitLimit, attemptHandler.SubmitAnswer)
		attempts.POST("/complete", attemptHandler.CompleteAttempt)
		attempts.GET("/review", attemptHandler.GetReview)
	}
}
