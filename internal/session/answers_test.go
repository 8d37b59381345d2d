package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqtrung/elearn/internal/model"
)

func float64p(v float64) *float64 { return &v }

func sampleQuestions() []model.Question {
	return []model.Question{
		{QuestionID: "Q1", DetailID: "D1", Type: model.TypeMultipleChoice, Options: []model.QuestionOption{{ID: "OPT-A"}, {ID: "OPT-B"}}},
		{QuestionID: "Q2", DetailID: "D2", Type: model.TypeShortAnswer},
		{QuestionID: "Q3", DetailID: "D3", Type: model.TypeEssay},
		{QuestionID: "Q4", DetailID: "D4", Type: model.TypeDrawing},
	}
}

func TestAnswerStoreInitializeFromSaved(t *testing.T) {
	s := NewAnswerStore(clockwork.NewFakeClock())
	saved := map[string]model.SavedAnswer{
		"D1":      {UserAnswer: json.RawMessage(`"OPT-B"`), TimeSpentSeconds: float64p(12.4)},
		"D2":      {UserAnswer: json.RawMessage(`"paris"`)},
		"D3":      {UserAnswer: json.RawMessage(`"my essay"`)},
		"UNKNOWN": {UserAnswer: json.RawMessage(`"dropped"`)},
	}

	s.Initialize(saved, sampleQuestions())

	assert.True(t, s.Completed("D1"))
	assert.True(t, s.Completed("D2"))
	assert.True(t, s.Completed("D3"))
	assert.False(t, s.Completed("UNKNOWN"))
	assert.Equal(t, 3, s.CompletedCount())
	assert.Equal(t, model.SaveSaved, s.Status(), "a freshly loaded attempt has nothing unsaved")

	out := s.BuildSubmission(sampleQuestions(), nil)
	assert.Equal(t, "OPT-B", out["D1"].UserAnswer)
	assert.Equal(t, 12, out["D1"].TimeSpent)
	assert.Equal(t, "paris", out["D2"].UserAnswer)
}

func TestAnswerStoreChoiceCompletion(t *testing.T) {
	s := NewAnswerStore(clockwork.NewFakeClock())

	s.SetChoice("D1", model.QuestionOption{ID: "OPT-A"})
	assert.True(t, s.Completed("D1"))
	assert.Equal(t, model.SaveUnsaved, s.Status())

	// An option without an id still counts as an attempt.
	s.SetStatus(model.SaveSaved)
	s.SetChoice("D2", model.QuestionOption{})
	assert.True(t, s.Completed("D2"))

	out := s.BuildSubmission(sampleQuestions(), nil)
	assert.Equal(t, "OPT-A", out["D1"].UserAnswer)
	assert.Nil(t, out["D2"].UserAnswer)
}

func TestAnswerStoreTextCompletionFollowsContent(t *testing.T) {
	s := NewAnswerStore(clockwork.NewFakeClock())

	s.SetShort("D2", "an answer")
	assert.True(t, s.Completed("D2"))

	s.SetShort("D2", "   ")
	assert.False(t, s.Completed("D2"), "blank text clears completion")

	s.SetLong("D3", "essay body")
	assert.True(t, s.Completed("D3"))
	s.SetLong("D3", "")
	assert.False(t, s.Completed("D3"))
}

func TestAnswerStoreMarkedForReview(t *testing.T) {
	s := NewAnswerStore(clockwork.NewFakeClock())
	assert.False(t, s.Marked("D1"))
	s.ToggleMarked("D1")
	assert.True(t, s.Marked("D1"))
	s.ToggleMarked("D1")
	assert.False(t, s.Marked("D1"))
}

func TestAnswerStoreTimeTrackingRollsAcrossQuestions(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewAnswerStore(fc)

	s.QuestionChanged("D1")
	fc.Advance(10 * time.Second)
	s.QuestionChanged("D2")
	fc.Advance(4 * time.Second)

	// The active question's open interval is included at build time.
	out := s.BuildSubmission(sampleQuestions(), nil)
	assert.Equal(t, 10, out["D1"].TimeSpent)
	assert.Equal(t, 4, out["D2"].TimeSpent)

	// Returning to a question accumulates instead of resetting.
	s.QuestionChanged("D1")
	fc.Advance(3 * time.Second)
	out = s.BuildSubmission(sampleQuestions(), nil)
	assert.Equal(t, 13, out["D1"].TimeSpent)
}

func TestBuildSubmissionAttachesEssayImages(t *testing.T) {
	s := NewAnswerStore(clockwork.NewFakeClock())
	s.SetLong("D3", "essay text")
	s.SetShort("D2", "short text")

	files := map[string][]model.Attachment{
		"D3": {{Kind: model.AttachmentUpload, Filename: "a.png", MimeType: "image/png", Base64Data: "QQ=="}},
		"D2": {{Kind: model.AttachmentUpload, Filename: "stray.png", Base64Data: "QQ=="}},
	}
	out := s.BuildSubmission(sampleQuestions(), files)

	require.Len(t, out["D3"].Base64Images, 1)
	assert.Equal(t, "a.png", out["D3"].Base64Images[0].Filename)
	assert.Empty(t, out["D2"].Base64Images, "only essay questions carry images")
}

func TestBuildSubmissionKeysEveryQuestionByDetailID(t *testing.T) {
	s := NewAnswerStore(clockwork.NewFakeClock())
	s.SetChoice("D1", model.QuestionOption{ID: "OPT-A"})

	out := s.BuildSubmission(sampleQuestions(), nil)
	require.Len(t, out, 4, "unanswered questions still get an entry")
	assert.Nil(t, out["D4"].UserAnswer)

	noDetail := append(sampleQuestions(), model.Question{QuestionID: "Q5", Type: model.TypeShortAnswer})
	out = s.BuildSubmission(noDetail, nil)
	assert.Len(t, out, 4, "a question without a detail id is skipped")
}
