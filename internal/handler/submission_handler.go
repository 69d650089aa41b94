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

// SubmissionHandler handles the student-facing submission endpoints.
type SubmissionHandler struct {
	evaluationService *service.EvaluationService
	log               zerolog.Logger
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(evaluationService *service.EvaluationService, log zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		evaluationService: evaluationService,
		log:               log.With().Str("component", "submission_handler").Logger(),
	}
}

// StartSubmission godoc
// POST /api/v1/submissions
// Opens a submission for a student on a task.
func (h *SubmissionHandler) StartSubmission(c *gin.Context) {
	var req model.StartSubmissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		failBinding(c, fields)
		return
	}

	view, err := h.evaluationService.StartSubmission(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"submission": view})
}

// GetSubmission godoc
// GET /api/v1/submissions/:id
// Returns a submission with its answers and current tally.
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.evaluationService.GetSubmission(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": view})
}

// SaveAnswer godoc
// PUT /api/v1/submissions/:id/answers/:question_id
// Stores an answer and returns it evaluated.
func (h *SubmissionHandler) SaveAnswer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		failBinding(c, fields)
		return
	}
	payload, err := req.Payload()
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	view, err := h.evaluationService.SaveAnswer(c.Request.Context(), id, questionID, payload)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": view})
}

// Submit godoc
// POST /api/v1/submissions/:id/submit
// Re-evaluates every answer and finalizes the submission.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.evaluationService.Submit(c.Request.Context(), id)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": view})
}
