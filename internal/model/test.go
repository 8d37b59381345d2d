package model

// Test metadata as returned by the catalog and start/resume operations.
type Test struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Topic            string `json:"topic,omitempty"`
	GradeLevel       string `json:"grade_level,omitempty"`
	TestType         string `json:"test_type,omitempty"`
	TimeLimitMinutes int    `json:"time_limit_minutes,omitempty"`
	Instructions     string `json:"instructions,omitempty"`
	DifficultyLevel  string `json:"difficulty_level,omitempty"`
	QuestionCount    int    `json:"question_count,omitempty"`
}

// Topic is a catalog entry from find_all_active_topics.
type Topic struct {
	ID          string `json:"id"`
	Name        string `json:"topic_name"`
	Description string `json:"description,omitempty"`
	GradeLevel  string `json:"grade_level,omitempty"`
}
