package dto

import (
	"encoding/json"
	"fmt"

	"github.com/hqtrung/elearn/internal/model"
)

// ProgressPayload is the inner document serialized into progress_data on
// every autosave. Answers are keyed by test_question_detail_id while
// LastViewedTestQuestionID carries the underlying question id; the backend
// contract keys the two differently and the asymmetry is intentional.
type ProgressPayload struct {
	Answers              map[string]model.AnswerEntry `json:"answers"`
	RemainingTimeSeconds int                          `json:"remainingTimeSeconds"`
	LastViewedQuestionID string                       `json:"lastViewedTestQuestionId"`
}

// SaveProgressRequest is the body of save_attempt_progress. The inner
// payload travels as a JSON string, not a nested object.
type SaveProgressRequest struct {
	AttemptID    string `json:"attempt_id"`
	ProgressData string `json:"progress_data"`
}

func NewSaveProgressRequest(attemptID string, payload ProgressPayload) (SaveProgressRequest, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return SaveProgressRequest{}, fmt.Errorf("encoding progress payload: %w", err)
	}
	return SaveProgressRequest{AttemptID: attemptID, ProgressData: string(raw)}, nil
}

// SubmissionPayload is the inner document serialized into submission_data.
// Note the remaining-time key differs from the save path (timeLeft vs
// remainingTimeSeconds); both are part of the existing wire contract.
type SubmissionPayload struct {
	Answers              map[string]model.AnswerEntry `json:"answers"`
	TimeLeft             int                          `json:"timeLeft"`
	LastViewedQuestionID string                       `json:"lastViewedTestQuestionId"`
}

// SubmitRequest is the body of submit_test_attempt.
type SubmitRequest struct {
	AttemptID      string `json:"attempt_id"`
	SubmissionData string `json:"submission_data"`
}

func NewSubmitRequest(attemptID string, payload SubmissionPayload) (SubmitRequest, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return SubmitRequest{}, fmt.Errorf("encoding submission payload: %w", err)
	}
	return SubmitRequest{AttemptID: attemptID, SubmissionData: string(raw)}, nil
}
