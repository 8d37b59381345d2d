package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hqtrung/elearn/internal/dto"
	"github.com/hqtrung/elearn/internal/model"
	"github.com/hqtrung/elearn/internal/service"
)

const (
	autoSaveInterval = 10 * time.Second
	debounceWindow   = time.Second
)

// Autosave persists the current answer snapshot in the background. All
// triggers (interval, visibility, pre-submit) funnel through one debounced
// save so rapid successive triggers collapse into a single request, and at
// most one save is in flight at a time; triggers during a save are dropped.
type Autosave struct {
	sess  *Session
	api   service.AttemptService
	clock clockwork.Clock

	mu       sync.Mutex
	debounce clockwork.Timer
	saving   bool
	waiters  []chan error
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newAutosave(sess *Session, api service.AttemptService, clock clockwork.Clock) *Autosave {
	return &Autosave{sess: sess, api: api, clock: clock, stopCh: make(chan struct{})}
}

// Run drives the periodic trigger until ctx is done or the session closes.
func (a *Autosave) Run(ctx context.Context) {
	ticker := a.clock.NewTicker(autoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCh:
			return
		case <-ticker.Chan():
			if a.sess.AttemptID() != "" && a.sess.TotalQuestions() > 0 && !a.sess.Submitting() {
				a.Trigger("interval")
			}
		}
	}
}

// VisibilityHidden is the page/tab-hidden hook: one opportunistic save.
func (a *Autosave) VisibilityHidden() {
	if a.sess.AttemptID() != "" && a.sess.TotalQuestions() > 0 && !a.sess.Submitting() {
		a.Trigger("visibility")
	}
}

// Trigger schedules a save after the debounce window. A trigger landing
// inside an open window restarts it instead of queueing a second save.
func (a *Autosave) Trigger(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.debounce != nil {
		a.debounce.Reset(debounceWindow)
		return
	}
	a.debounce = a.clock.AfterFunc(debounceWindow, func() {
		a.flush(reason)
	})
}

// PendingSave returns a channel that yields the outcome of the save
// currently debounced or in flight. With nothing pending it yields nil
// immediately. This is the drain point the submission path awaits.
func (a *Autosave) PendingSave() <-chan error {
	ch := make(chan error, 1)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.debounce == nil && !a.saving {
		ch <- nil
		return ch
	}
	a.waiters = append(a.waiters, ch)
	return ch
}

func (a *Autosave) flush(reason string) {
	a.mu.Lock()
	a.debounce = nil

	attemptID := a.sess.AttemptID()
	status := a.sess.Answers.Status()
	switch {
	case attemptID == "":
		a.releaseWaitersLocked(nil)
		a.mu.Unlock()
		return
	case a.sess.Submitting():
		a.releaseWaitersLocked(nil)
		a.mu.Unlock()
		return
	case a.saving:
		// A save is already in flight; this trigger is dropped and the
		// in-flight save settles the waiters.
		a.mu.Unlock()
		return
	case status == model.SaveSaving:
		// The status cell is busy but no save of ours is running (the
		// submitter holds it while finalizing). Nothing here will ever
		// settle the waiters, so release them now.
		a.releaseWaitersLocked(nil)
		a.mu.Unlock()
		return
	}

	current, ok := a.sess.CurrentQuestion()
	if !ok || current.DetailID == "" {
		// Expected while question data is still settling; skip, not an error.
		log.Warn().Str("reason", reason).Msg("autosave: skipped, no current question detail id")
		a.releaseWaitersLocked(nil)
		a.mu.Unlock()
		return
	}

	a.saving = true
	a.mu.Unlock()

	a.sess.Answers.SetStatus(model.SaveSaving)

	payload := dto.ProgressPayload{
		Answers:              a.sess.Answers.BuildSubmission(a.sess.Questions(), a.sess.Files.Snapshot()),
		RemainingTimeSeconds: a.sess.Timer.Remaining(),
		LastViewedQuestionID: current.QuestionID,
	}

	req, err := dto.NewSaveProgressRequest(attemptID, payload)
	if err == nil {
		log.Debug().Str("reason", reason).Str("attempt_id", attemptID).
			Int("answers", len(payload.Answers)).Msg("autosave: saving progress")
		err = a.api.SaveProgress(context.Background(), req)
	}

	if err != nil {
		log.Error().Err(err).Str("reason", reason).Msg("autosave: error saving progress")
		a.sess.Answers.SetStatus(model.SaveError)
	} else {
		a.sess.Answers.SetStatus(model.SaveSaved)
	}

	a.mu.Lock()
	a.saving = false
	a.releaseWaitersLocked(err)
	a.mu.Unlock()
}

func (a *Autosave) releaseWaitersLocked(err error) {
	for _, ch := range a.waiters {
		ch <- err
	}
	a.waiters = nil
}

// Saving reports whether a save request is currently in flight.
func (a *Autosave) Saving() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saving
}

func (a *Autosave) stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.debounce != nil {
		a.debounce.Stop()
		a.debounce = nil
	}
}
