package model

// SaveStatus tracks the persistence state of the in-memory answer set.
type SaveStatus string

const (
	SaveIdle    SaveStatus = "idle"
	SaveUnsaved SaveStatus = "unsaved"
	SaveSaving  SaveStatus = "saving"
	SaveSaved   SaveStatus = "saved"
	SaveError   SaveStatus = "error"
)

// Question types as the backend spells them. Both the display names and
// the snake_case aliases appear in stored data.
const (
	TypeMultipleChoice = "Multiple Choice"
	TypeMultipleSelect = "multiple_select"
	TypeSelfWrite      = "Self Write"
	TypeShortAnswer    = "short_answer"
	TypeEssay          = "Essay"
	TypeLongAnswer     = "long_answer"
	TypeDrawing        = "drawing"
)

// IsEssayType reports whether a question type carries image attachments.
func IsEssayType(questionType string) bool {
	return questionType == TypeEssay || questionType == TypeLongAnswer
}

// AttemptStatus values returned by get_test_attempt_status.
const (
	AttemptNotStarted = "not_started"
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
)
