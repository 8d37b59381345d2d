package model

// Attempt is one user's in-progress or completed run of a test.
// RemainingTimeSeconds is the authoritative countdown start when resuming;
// LastViewedQuestionID is a QuestionID, not a DetailID.
type Attempt struct {
	ID                   string `json:"id"`
	TestID               string `json:"test_id,omitempty"`
	Status               string `json:"status,omitempty"`
	RemainingTimeSeconds int    `json:"remaining_time_seconds"`
	LastViewedQuestionID string `json:"last_viewed_question_id,omitempty"`
	StartTime            string `json:"start_time,omitempty"`
	EndTime              string `json:"end_time,omitempty"`
}

// AttemptSummary is a row in the prior-attempts list for a test.
type AttemptSummary struct {
	ID         string   `json:"id"`
	Status     string   `json:"status,omitempty"`
	FinalScore *float64 `json:"final_score,omitempty"`
	StartTime  string   `json:"start_time,omitempty"`
	EndTime    string   `json:"end_time,omitempty"`
}
