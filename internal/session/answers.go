package session

import (
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hqtrung/elearn/internal/model"
)

// AnswerStore holds the in-memory answer state for the active attempt:
// per-question answers by type, completion and marked-for-review flags,
// per-question time tracking and the shared save-status cell. All answer
// state is keyed by test_question_detail_id.
type AnswerStore struct {
	clock clockwork.Clock

	mu          sync.Mutex
	choice      map[string]string
	short       map[string]string
	long        map[string]string
	canvas      map[string]json.RawMessage
	completed   map[string]bool
	marked      map[string]bool
	timeSpent   map[string]float64
	activeID    string
	activeSince time.Time
	status      model.SaveStatus
}

func NewAnswerStore(clock clockwork.Clock) *AnswerStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &AnswerStore{clock: clock, status: model.SaveIdle}
	s.resetLocked()
	return s
}

func (s *AnswerStore) resetLocked() {
	s.choice = make(map[string]string)
	s.short = make(map[string]string)
	s.long = make(map[string]string)
	s.canvas = make(map[string]json.RawMessage)
	s.completed = make(map[string]bool)
	s.marked = make(map[string]bool)
	s.timeSpent = make(map[string]float64)
	s.activeID = ""
	s.activeSince = time.Time{}
}

// Initialize resets everything and loads the saved answers of a resumed
// attempt. Entries whose detail id matches no known question are dropped.
func (s *AnswerStore) Initialize(saved map[string]model.SavedAnswer, questions []model.Question) {
	byDetailID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byDetailID[q.DetailID] = q
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()

	for detailID, answer := range saved {
		q, ok := byDetailID[detailID]
		if !ok {
			continue
		}
		if answer.TimeSpentSeconds != nil {
			s.timeSpent[detailID] = *answer.TimeSpentSeconds
		}
		if len(answer.UserAnswer) == 0 || string(answer.UserAnswer) == "null" {
			continue
		}
		s.completed[detailID] = true

		switch q.Type {
		case model.TypeMultipleChoice, model.TypeMultipleSelect:
			var optionID string
			if err := json.Unmarshal(answer.UserAnswer, &optionID); err == nil {
				s.choice[detailID] = optionID
			}
		case model.TypeSelfWrite, model.TypeShortAnswer:
			var text string
			if err := json.Unmarshal(answer.UserAnswer, &text); err == nil {
				s.short[detailID] = text
			}
		case model.TypeEssay, model.TypeLongAnswer:
			var text string
			if err := json.Unmarshal(answer.UserAnswer, &text); err == nil {
				s.long[detailID] = text
			}
		case model.TypeDrawing:
			s.canvas[detailID] = answer.UserAnswer
		default:
			log.Warn().Str("question_type", q.Type).Str("detail_id", detailID).
				Msg("answers: unknown question type during initialization")
		}
	}

	s.status = model.SaveSaved
}

// QuestionChanged accumulates elapsed time on the previously active
// question and starts the clock for the new one. An empty id just closes
// out the current question.
func (s *AnswerStore) QuestionChanged(detailID string) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeID != "" && !s.activeSince.IsZero() {
		s.timeSpent[s.activeID] += now.Sub(s.activeSince).Seconds()
	}
	if detailID != "" {
		s.activeID = detailID
		s.activeSince = now
	} else {
		s.activeID = ""
		s.activeSince = time.Time{}
	}
}

// SetChoice records the selected option id and marks the question complete.
func (s *AnswerStore) SetChoice(detailID string, option model.QuestionOption) {
	if detailID == "" {
		log.Warn().Msg("answers: SetChoice called without a detail id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if option.ID == "" {
		// An attempt was made but there is no option id to store.
		s.setCompletedLocked(detailID, true)
		return
	}
	s.choice[detailID] = option.ID
	s.status = model.SaveUnsaved
	s.setCompletedLocked(detailID, true)
}

// SetShort records a short answer; completion follows non-blank content.
func (s *AnswerStore) SetShort(detailID, value string) {
	if detailID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.short[detailID] = value
	s.status = model.SaveUnsaved
	s.setCompletedLocked(detailID, strings.TrimSpace(value) != "")
}

// SetLong records an essay answer; completion follows non-blank content.
func (s *AnswerStore) SetLong(detailID, value string) {
	if detailID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.long[detailID] = value
	s.status = model.SaveUnsaved
	s.setCompletedLocked(detailID, strings.TrimSpace(value) != "")
}

// SetCanvas records a drawing state; nil clears completion.
func (s *AnswerStore) SetCanvas(detailID string, state json.RawMessage) {
	if detailID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas[detailID] = state
	s.status = model.SaveUnsaved
	s.setCompletedLocked(detailID, state != nil)
}

func (s *AnswerStore) setCompletedLocked(detailID string, completed bool) {
	if s.completed[detailID] != completed {
		s.completed[detailID] = completed
		s.status = model.SaveUnsaved
	}
}

// MarkCompleted flips the completion flag directly.
func (s *AnswerStore) MarkCompleted(detailID string, completed bool) {
	if detailID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCompletedLocked(detailID, completed)
}

// ToggleMarked flips the marked-for-review flag.
func (s *AnswerStore) ToggleMarked(detailID string) {
	if detailID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked[detailID] = !s.marked[detailID]
	s.status = model.SaveUnsaved
}

func (s *AnswerStore) Marked(detailID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marked[detailID]
}

func (s *AnswerStore) Completed(detailID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed[detailID]
}

// CompletedCount counts questions currently flagged complete.
func (s *AnswerStore) CompletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, done := range s.completed {
		if done {
			n++
		}
	}
	return n
}

func (s *AnswerStore) Status() model.SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *AnswerStore) SetStatus(status model.SaveStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// MarkUnsaved is the dirty callback shared with the file store.
func (s *AnswerStore) MarkUnsaved() {
	s.SetStatus(model.SaveUnsaved)
}

// BuildSubmission formats the current answer set for save and submit.
// Entries are keyed by detail id; essay questions carry their staged
// files; time spent includes the still-open active question.
func (s *AnswerStore) BuildSubmission(questions []model.Question, files map[string][]model.Attachment) map[string]model.AnswerEntry {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	finalTimeSpent := make(map[string]float64, len(s.timeSpent))
	for k, v := range s.timeSpent {
		finalTimeSpent[k] = v
	}
	if s.activeID != "" && !s.activeSince.IsZero() {
		finalTimeSpent[s.activeID] += now.Sub(s.activeSince).Seconds()
	}

	out := make(map[string]model.AnswerEntry, len(questions))
	for _, q := range questions {
		if q.DetailID == "" {
			log.Warn().Str("question_id", q.QuestionID).
				Msg("answers: skipping question with missing detail id in submission")
			continue
		}

		var userAnswer interface{}
		var images []model.Base64Image

		switch q.Type {
		case model.TypeMultipleChoice, model.TypeMultipleSelect:
			if v, ok := s.choice[q.DetailID]; ok {
				userAnswer = v
			}
		case model.TypeSelfWrite, model.TypeShortAnswer:
			if v, ok := s.short[q.DetailID]; ok {
				userAnswer = v
			}
		case model.TypeEssay, model.TypeLongAnswer:
			if v, ok := s.long[q.DetailID]; ok {
				userAnswer = v
			}
			for _, f := range files[q.DetailID] {
				images = append(images, f.Wire())
			}
		case model.TypeDrawing:
			if v, ok := s.canvas[q.DetailID]; ok && v != nil {
				userAnswer = v
			}
		default:
			log.Warn().Str("question_type", q.Type).Str("detail_id", q.DetailID).
				Msg("answers: unknown question type during submission")
		}

		entry := model.AnswerEntry{
			UserAnswer: userAnswer,
			TimeSpent:  int(math.Round(finalTimeSpent[q.DetailID])),
		}
		if model.IsEssayType(q.Type) && len(images) > 0 {
			entry.Base64Images = images
		}
		out[q.DetailID] = entry
	}
	return out
}
