package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TaskQuestionsKey returns the hash holding every question spec of a task,
// keyed by question ID.
func (r *CacheKeyStruct) TaskQuestionsKey(taskID string) string {
	return fmt.Sprintf("task:%s:questions", taskID)
}

// SubmissionAnswersKey returns the hash of autosaved raw answers for a submission.
func (r *CacheKeyStruct) SubmissionAnswersKey(submissionID string) string {
	return fmt.Sprintf("submission:%s:answers", submissionID)
}

// SubmissionClosedKey marks a submission as submitted so late autosaves are dropped.
func (r *CacheKeyStruct) SubmissionClosedKey(submissionID string) string {
	return fmt.Sprintf("submission:%s:closed", submissionID)
}

var CacheKey = NewCacheKeyStruct()
