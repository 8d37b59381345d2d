package model

import "encoding/json"

// SavedAnswer is one entry of the saved_answers map returned by
// start_or_resume, keyed by DetailID.
type SavedAnswer struct {
	UserAnswer       json.RawMessage `json:"userAnswer,omitempty"`
	TimeSpentSeconds *float64        `json:"timeSpentSeconds,omitempty"`
	Base64Images     []Base64Image   `json:"base64_images,omitempty"`
}

// Base64Image is the wire form of an attached file or drawing.
type Base64Image struct {
	Data     string `json:"data"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

// AnswerEntry is one entry of the answers map sent on save and submit,
// keyed by DetailID.
type AnswerEntry struct {
	UserAnswer   interface{}   `json:"userAnswer"`
	TimeSpent    int           `json:"timeSpent"`
	Base64Images []Base64Image `json:"base64_images,omitempty"`
}
