package service

import "errors"

// Domain Errors
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSubmissionClosed   = errors.New("submission is already submitted")
	ErrQuestionNotInTask  = errors.New("question does not belong to the submission's task")
	ErrNoQuestions        = errors.New("task has no questions")
)
