package stubserver

import (
	"errors"
	"time"
)

// ErrNotFound is returned for unknown document names.
var ErrNotFound = errors.New("document not found")

// TestRecord is a test document. Name is the Frappe-style document id.
type TestRecord struct {
	Name             string    `gorm:"primarykey" json:"name"`
	Title            string    `json:"title"`
	Topic            string    `json:"topic,omitempty"`
	GradeLevel       string    `json:"grade_level,omitempty"`
	TestType         string    `json:"test_type,omitempty"`
	TimeLimitMinutes int       `json:"time_limit_minutes,omitempty"`
	Instructions     string    `json:"instructions,omitempty"`
	DifficultyLevel  string    `json:"difficulty_level,omitempty"`
	Active           bool      `json:"-" gorm:"default:true"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

// QuestionRecord is one question instance within a test. Name doubles as
// the test_question_detail_id handed to clients.
type QuestionRecord struct {
	Name       string `gorm:"primarykey" json:"test_question_detail_id"`
	QuestionID string `gorm:"index" json:"question_id"`
	TestName   string `gorm:"index" json:"-"`
	Ordinal    int    `json:"order"`
	Type       string `json:"question_type"`
	Content    string `json:"content,omitempty"`
	OptionsRaw string `gorm:"type:text" json:"-"`
}

// TopicRecord is a topic catalog entry.
type TopicRecord struct {
	Name        string `gorm:"primarykey" json:"name"`
	TopicName   string `json:"topic_name"`
	Description string `json:"description,omitempty"`
	GradeLevel  string `json:"grade_level,omitempty"`
	Active      bool   `json:"-" gorm:"default:true"`
}

// AttemptRecord is one attempt document. ProgressData and SubmissionData
// hold the client's JSON payloads verbatim.
type AttemptRecord struct {
	Name                 string `gorm:"primarykey"`
	TestName             string `gorm:"index"`
	UserEmail            string `gorm:"index"`
	Status               string `gorm:"default:'in_progress'"`
	RemainingTimeSeconds int
	LastViewedQuestionID string
	ProgressData         string `gorm:"type:text"`
	SubmissionData       string `gorm:"type:text"`
	FinalScore           *float64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SRSRow feeds the due-summary operation.
type SRSRow struct {
	ID        uint   `gorm:"primarykey"`
	UserEmail string `gorm:"index"`
	TopicID   string
	TopicName string
	DueCount  int
	Upcoming  int
	Total     int
}

// Store is the persistence boundary of the stub backend. MemoryStore
// backs tests; GormStore backs the binary.
type Store interface {
	FindActiveTests(testType, topicID, gradeLevel string) ([]TestRecord, error)
	FindActiveTopics() ([]TopicRecord, error)
	GetTest(name string) (*TestRecord, error)
	QuestionsForTest(testName string) ([]QuestionRecord, error)

	ActiveAttempt(testName, userEmail string) (*AttemptRecord, error)
	CreateAttempt(attempt *AttemptRecord) error
	GetAttempt(name string) (*AttemptRecord, error)
	UpdateAttempt(attempt *AttemptRecord) error
	AttemptsForTest(testName, userEmail string) ([]AttemptRecord, error)

	SRSRows(userEmail string) ([]SRSRow, error)
}
