package dto

import (
	"github.com/hqtrung/elearn/internal/model"
)

// StartOrResumeDTO is the snapshot returned by start_or_resume_test_attempt.
// All four fields must be present; questions and saved_answers may be empty
// but not absent.
type StartOrResumeDTO struct {
	Attempt      *model.Attempt               `json:"attempt"`
	Test         *model.Test                  `json:"test"`
	Questions    []model.Question             `json:"questions"`
	SavedAnswers map[string]model.SavedAnswer `json:"saved_answers"`
}

// MissingField names the first absent required field, or "" when complete.
// Empty collections decode non-nil, so presence and emptiness stay distinct.
func (d *StartOrResumeDTO) MissingField() string {
	switch {
	case d.Attempt == nil:
		return "attempt"
	case d.Test == nil:
		return "test"
	case d.Questions == nil:
		return "questions"
	case d.SavedAnswers == nil:
		return "saved_answers"
	}
	return ""
}

// AttemptStatusDTO is the payload of get_test_attempt_status.
type AttemptStatusDTO struct {
	Status    string `json:"status"`
	AttemptID string `json:"attempt_id,omitempty"`
}

// SubmitResponseDTO is the payload returned by submit_test_attempt.
type SubmitResponseDTO struct {
	AttemptID string `json:"attemptId"`
}
