package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrAmbiguousAnswer ErrCode = "AMBIGUOUS_ANSWER"
	ErrNoAnswer        ErrCode = "NO_ANSWER"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrQuestionNotFound ErrCode = "QUESTION_NOT_FOUND"

	// ─── Evaluation ────────────────────────────────────────────────────
	ErrSubmissionClosed ErrCode = "SUBMISSION_CLOSED"
	ErrUnsupportedType  ErrCode = "UNSUPPORTED_QUESTION_TYPE"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrAmbiguousAnswer:
		return "Provide exactly one of student_answer, text_answer, selected_option_id or answer_data."
	case ErrNoAnswer:
		return "Provide one of student_answer, text_answer, selected_option_id or answer_data."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrQuestionNotFound:
		return "Question does not belong to this task."

	// ─── Evaluation ────────────────────────────────────────────────────
	case ErrSubmissionClosed:
		return "This submission has already been submitted."
	case ErrUnsupportedType:
		return "Question type is not supported; the answer awaits manual review."
	case ErrNoQuestions:
		return "This task has no questions."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
