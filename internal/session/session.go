package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hqtrung/elearn/internal/model"
	"github.com/hqtrung/elearn/internal/service"
)

// ErrLoadInProgress is returned when Start is called while a previous
// start/resume request for this session is still in flight.
var ErrLoadInProgress = errors.New("attempt load already in progress")

// Options tune a session. Zero values fall back to the defaults the
// backend contract was built around.
type Options struct {
	Clock    clockwork.Clock
	Navigate func(path string)
}

// Session owns one in-progress test attempt: the answer and file stores,
// navigation, countdown, autosave coordinator and submission coordinator,
// initialized from the start/resume snapshot.
type Session struct {
	api      service.AttemptService
	clock    clockwork.Clock
	navigate func(path string)

	Answers  *AnswerStore
	Files    *FileStore
	Nav      *Navigator
	Timer    *Timer
	Autosave *Autosave
	Submit   *Submitter

	testID     string
	submitting atomic.Bool

	mu        sync.Mutex
	loading   bool
	loadError string
	attempt   *model.Attempt
	test      *model.Test
	questions []model.Question
}

func New(api service.AttemptService, testID string, opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Session{
		api:      api,
		clock:    clock,
		navigate: opts.Navigate,
		testID:   testID,
	}
	s.Answers = NewAnswerStore(clock)
	s.Files = NewFileStore(s.Answers.MarkUnsaved)
	s.Nav = NewNavigator(0, 0)
	s.Timer = NewTimer(clock, nil)
	s.Autosave = newAutosave(s, api, clock)
	s.Submit = newSubmitter(s, api, clock)
	return s
}

// Start fetches or resumes the server-side attempt and initializes all
// downstream state from the returned snapshot. A second call while one is
// in flight returns ErrLoadInProgress. Cancellation clears the loading
// flag but records no error state.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrLoadInProgress
	}
	s.loading = true
	s.loadError = ""
	s.attempt = nil
	s.test = nil
	s.questions = nil
	s.mu.Unlock()

	snapshot, err := s.api.StartOrResume(ctx, s.testID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// An intentional abort is not a failure.
			log.Debug().Str("test_id", s.testID).Msg("session: attempt load aborted")
			return err
		}
		s.loadError = err.Error()
		log.Error().Err(err).Str("test_id", s.testID).Msg("session: failed to start or resume attempt")
		return err
	}

	s.attempt = snapshot.Attempt
	s.test = snapshot.Test
	s.questions = snapshot.Questions

	s.Answers.Initialize(snapshot.SavedAnswers, snapshot.Questions)
	s.Files.InitializeFromSaved(snapshot.SavedAnswers, snapshot.Questions)
	s.Nav.Resync(initialIndex(snapshot.Attempt, snapshot.Questions), len(snapshot.Questions))
	s.Timer.Reset(snapshot.Attempt.RemainingTimeSeconds)

	if q, ok := s.currentQuestionLocked(); ok {
		s.Answers.QuestionChanged(q.DetailID)
	}
	return nil
}

// initialIndex resolves the resume position: the attempt bookmarks a
// question id, the navigator wants a position in the detail-id ordering.
func initialIndex(attempt *model.Attempt, questions []model.Question) int {
	if attempt == nil || attempt.LastViewedQuestionID == "" {
		return 0
	}
	for i, q := range questions {
		if q.QuestionID == attempt.LastViewedQuestionID {
			return i
		}
	}
	return 0
}

// GoTo navigates and rolls the per-question time tracking over.
func (s *Session) GoTo(index int) {
	s.Nav.GoTo(index)
	if q, ok := s.CurrentQuestion(); ok {
		s.Answers.QuestionChanged(q.DetailID)
	}
}

func (s *Session) Prev() {
	s.Nav.Prev()
	if q, ok := s.CurrentQuestion(); ok {
		s.Answers.QuestionChanged(q.DetailID)
	}
}

func (s *Session) Next() {
	s.Nav.Next()
	if q, ok := s.CurrentQuestion(); ok {
		s.Answers.QuestionChanged(q.DetailID)
	}
}

func (s *Session) TestID() string { return s.testID }

func (s *Session) AttemptID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt == nil {
		return ""
	}
	return s.attempt.ID
}

func (s *Session) Test() *model.Test {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.test
}

func (s *Session) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *Session) TotalQuestions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

// CurrentQuestion returns the question at the navigator's position.
func (s *Session) CurrentQuestion() (model.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentQuestionLocked()
}

func (s *Session) currentQuestionLocked() (model.Question, bool) {
	idx := s.Nav.Current()
	if idx < 0 || idx >= len(s.questions) {
		return model.Question{}, false
	}
	return s.questions[idx], true
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LoadError is the blocking error from the last failed load, "" when none.
func (s *Session) LoadError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadError
}

func (s *Session) Submitting() bool {
	return s.submitting.Load()
}

func (s *Session) setSubmitting(v bool) {
	s.submitting.Store(v)
}

// Close stops background work. The attempt record itself is simply
// discarded; only submission finalizes it server-side.
func (s *Session) Close() {
	s.Timer.Stop()
	s.Autosave.stop()
}
