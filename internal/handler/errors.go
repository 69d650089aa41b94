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

// failFromError maps a service error onto the response envelope. Unknown
// errors are logged and reported as internal.
func failFromError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrQuestionNotInTask):
		response.Fail(c, http.StatusNotFound, response.ErrQuestionNotFound)
	case errors.Is(err, service.ErrSubmissionClosed):
		response.Fail(c, http.StatusConflict, response.ErrSubmissionClosed)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	case errors.Is(err, evaluator.ErrUnsupportedType):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrUnsupportedType)
	case errors.Is(err, model.ErrNoAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrNoAnswer)
	case errors.Is(err, model.ErrAmbiguousAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrAmbiguousAnswer)
	default:
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", response.RequestID(c)).
			Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// failBinding reports a rejected request body. Malformed JSON is
// INVALID_PAYLOAD; failed rules are VALIDATION_ERROR.
func failBinding(c *gin.Context, fields map[string]string) {
	code := response.ErrValidation
	if _, ok := fields[validator.DetailField]; ok && len(fields) == 1 {
		code = response.ErrInvalidPayload
	}
	response.FailWithFields(c, http.StatusBadRequest, code, fields)
}
