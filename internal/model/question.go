package model

// Question is the session view of one question inside an attempt.
//
// Two identifiers travel with every question: QuestionID is the backing
// question document, DetailID (test_question_detail_id) is the per-attempt
// instance key. Answers and files are keyed by DetailID; the backend's
// last-viewed bookmark uses QuestionID.
type Question struct {
	QuestionID string                 `json:"question_id"`
	DetailID   string                 `json:"test_question_detail_id"`
	Ordinal    int                    `json:"order"`
	Type       string                 `json:"question_type"`
	Content    string                 `json:"content,omitempty"`
	Options    []QuestionOption       `json:"options,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}
