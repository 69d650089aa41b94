package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/lingua-backend/internal/model"
	"github.com/stemsi/lingua-backend/internal/response"
	"github.com/stemsi/lingua-backend/internal/service"
	"github.com/stemsi/lingua-backend/internal/validator"
)

// QuestionHandler handles question authoring endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/v1/admin/tasks/:task_id/questions
// Lists all questions of a task, answer keys included.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.questionService.ListQuestions(c.Request.Context(), taskID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AddQuestions godoc
// POST /api/v1/admin/tasks/:task_id/questions
// Adds one or more questions to a task.
func (h *QuestionHandler) AddQuestions(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		failBinding(c, fields)
		return
	}

	questions, err := h.questionService.AddQuestions(c.Request.Context(), taskID, req.Questions)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"questions": questions})
}

// RefreshCache godoc
// POST /api/v1/admin/tasks/:task_id/refresh-cache
// Reloads the task's cached question specs.
func (h *QuestionHandler) RefreshCache(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	n, err := h.questionService.RefreshCache(c.Request.Context(), taskID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"task_id": taskID, "questions": n})
}
