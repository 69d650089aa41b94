package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/lingua-backend/internal/evaluator"
	"github.com/stemsi/lingua-backend/internal/model"
	"github.com/stemsi/lingua-backend/internal/response"
	"github.com/stemsi/lingua-backend/internal/service"
	"github.com/stemsi/lingua-backend/internal/validator"
)

// EvaluationHandler serves the stateless evaluator endpoints.
type EvaluationHandler struct {
	log zerolog.Logger
}

// NewEvaluationHandler creates a new EvaluationHandler.
func NewEvaluationHandler(log zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{log: log.With().Str("component", "evaluation_handler").Logger()}
}

// ListQuestionTypes godoc
// GET /api/v1/question-types
// Lists every supported question type with its family.
func (h *EvaluationHandler) ListQuestionTypes(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"question_types": evaluator.SupportedTypes()})
}

// Evaluate godoc
// POST /api/v1/evaluate
// Evaluates an answer against an ad-hoc question without storing anything.
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req model.EvaluateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		failBinding(c, fields)
		return
	}

	view, err := service.Preview(&req)
	if err != nil {
		if errors.Is(err, evaluator.ErrUnsupportedType) {
			h.log.Warn().Str("question_type", req.QuestionType).Msg("Preview of unsupported question type")
		}
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": view})
}
