package dto

import (
	"encoding/json"

	"github.com/hqtrung/elearn/internal/model"
)

// ResultDetailsDTO is the scored review payload from
// get_attempt_result_details. attempt, test and questions_answers are all
// required; anything less fails the operation.
type ResultDetailsDTO struct {
	Attempt          *model.Attempt             `json:"attempt"`
	Test             *model.Test                `json:"test"`
	QuestionsAnswers []QuestionAnswerRowDTO     `json:"questions_answers"`
	Summary          map[string]json.RawMessage `json:"summary,omitempty"`
}

func (d *ResultDetailsDTO) MissingField() string {
	switch {
	case d.Attempt == nil:
		return "attempt"
	case d.Test == nil:
		return "test"
	case d.QuestionsAnswers == nil:
		return "questions_answers"
	}
	return ""
}

// QuestionAnswerRowDTO is one scored question in the review table.
type QuestionAnswerRowDTO struct {
	QuestionID    string          `json:"question_id"`
	DetailID      string          `json:"test_question_detail_id"`
	Content       string          `json:"content,omitempty"`
	QuestionType  string          `json:"question_type,omitempty"`
	UserAnswer    json.RawMessage `json:"user_answer,omitempty"`
	CorrectAnswer json.RawMessage `json:"correct_answer,omitempty"`
	IsCorrect     *bool           `json:"is_correct,omitempty"`
	Score         *float64        `json:"score,omitempty"`
	MaxScore      *float64        `json:"max_score,omitempty"`
	TimeSpent     *int            `json:"time_spent,omitempty"`
}

// SRSSummaryDTO is the payload of get_due_srs_summary.
type SRSSummaryDTO struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message,omitempty"`
	DueCount      int           `json:"due_count"`
	UpcomingCount int           `json:"upcoming_count"`
	TotalCount    int           `json:"total_count"`
	Topics        []SRSTopicDTO `json:"topics,omitempty"`
}

// SRSTopicDTO is one due-topic row in the SRS summary.
type SRSTopicDTO struct {
	TopicID   string `json:"topic_id"`
	TopicName string `json:"topic_name"`
	DueCount  int    `json:"due_count"`
}
