package dto

// TestSummaryDTO is one row of find_all_active_tests. The backend names
// documents via "name"; services map it onto the model's ID.
type TestSummaryDTO struct {
	Name             string `json:"name"`
	Title            string `json:"title"`
	Topic            string `json:"topic,omitempty"`
	GradeLevel       string `json:"grade_level,omitempty"`
	TestType         string `json:"test_type,omitempty"`
	TimeLimitMinutes int    `json:"time_limit_minutes,omitempty"`
	Instructions     string `json:"instructions,omitempty"`
	DifficultyLevel  string `json:"difficulty_level,omitempty"`
	QuestionCount    int    `json:"question_count,omitempty"`
}

// TopicDTO is one row of find_all_active_topics.
type TopicDTO struct {
	Name        string `json:"name"`
	TopicName   string `json:"topic_name"`
	Description string `json:"description,omitempty"`
	GradeLevel  string `json:"grade_level,omitempty"`
}

// CatalogFilters narrows find_all_active_tests. TopicID forces the
// Assessment test type upstream; callers set TestType explicitly here.
type CatalogFilters struct {
	TestType   string
	TopicID    string
	GradeLevel string
}
