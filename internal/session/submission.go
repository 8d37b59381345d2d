package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/hqtrung/elearn/internal/dto"
	"github.com/hqtrung/elearn/internal/model"
	"github.com/hqtrung/elearn/internal/service"
)

// drainTimeout bounds the best-effort wait for an in-flight save before
// the confirmation dialog is computed. Submission proceeds after the
// timeout even if the save has not settled.
const drainTimeout = 3 * time.Second

// Submitter states.
const (
	SubmitIdle       = "idle"
	SubmitConfirming = "confirming"
	SubmitSubmitting = "submitting"
	SubmitDone       = "done"
	SubmitError      = "error"
)

// User-facing dialog strings, kept verbatim from the product copy.
const (
	msgConfirmIncompleteFmt = "Bạn còn %d câu chưa được đánh dấu hoàn thành. Bạn có chắc chắn muốn nộp bài?"
	msgConfirmComplete      = "Bạn có chắc chắn muốn nộp bài? Bạn không thể thay đổi sau khi nộp."
	msgSubmitErrorTitle     = "Lỗi nộp bài"
	msgMissingAttemptID     = "Không tìm thấy mã bài làm để nộp."
	msgSubmitErrorFmt       = "Lỗi khi nộp bài: %s"
	msgUnknownError         = "Đã xảy ra lỗi không xác định."
)

// Dialog is a user-visible dialog's view state.
type Dialog struct {
	Open    bool
	Title   string
	Message string
}

// Submitter runs the submit flow: drain pending saves, confirm with the
// user, finalize server-side, navigate to results.
type Submitter struct {
	sess  *Session
	api   service.AttemptService
	clock clockwork.Clock

	mu          sync.Mutex
	state       string
	confirm     Dialog
	errorDialog Dialog
}

func newSubmitter(sess *Session, api service.AttemptService, clock clockwork.Clock) *Submitter {
	return &Submitter{sess: sess, api: api, clock: clock, state: SubmitIdle}
}

// RequestSubmit starts the flow. With unsaved or failed state it issues
// one final save and drains it, bounded by drainTimeout, then opens the
// confirmation dialog. A missing attempt id or an in-flight submission
// makes this a no-op.
func (s *Submitter) RequestSubmit(ctx context.Context) {
	if s.sess.AttemptID() == "" || s.sess.Submitting() {
		return
	}

	status := s.sess.Answers.Status()
	if status == model.SaveUnsaved || status == model.SaveError {
		log.Info().Msg("submit: final save before submitting")
		s.sess.Autosave.Trigger("pre-submit")
		select {
		case <-s.sess.Autosave.PendingSave():
		case <-s.clock.After(drainTimeout):
			// Best effort: proceed even if the save has not settled.
			log.Warn().Msg("submit: drain timed out, proceeding with submission")
		case <-ctx.Done():
			return
		}
	}

	unanswered := s.sess.TotalQuestions() - s.sess.Answers.CompletedCount()
	msg := msgConfirmComplete
	if unanswered > 0 {
		msg = fmt.Sprintf(msgConfirmIncompleteFmt, unanswered)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SubmitConfirming
	s.confirm = Dialog{Open: true, Message: msg}
}

// ConfirmSubmit is the user accepting the dialog: finalize the attempt and
// navigate to results. Returns the results path on success.
func (s *Submitter) ConfirmSubmit(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.confirm = Dialog{}
	s.mu.Unlock()

	attemptID := s.sess.AttemptID()
	if attemptID == "" {
		log.Error().Msg("submit: attempt id is missing")
		s.fail(msgMissingAttemptID)
		return "", fmt.Errorf("submit: %s", msgMissingAttemptID)
	}

	// Visual feedback while the finalize request runs.
	s.sess.Answers.SetStatus(model.SaveSaving)
	s.sess.setSubmitting(true)
	s.mu.Lock()
	s.state = SubmitSubmitting
	s.mu.Unlock()
	defer s.sess.setSubmitting(false)

	var lastViewedQuestionID string
	if q, ok := s.sess.CurrentQuestion(); ok {
		lastViewedQuestionID = q.QuestionID
	}

	payload := dto.SubmissionPayload{
		Answers:              s.sess.Answers.BuildSubmission(s.sess.Questions(), s.sess.Files.Snapshot()),
		TimeLeft:             s.sess.Timer.Remaining(),
		LastViewedQuestionID: lastViewedQuestionID,
	}
	req, err := dto.NewSubmitRequest(attemptID, payload)
	if err != nil {
		s.fail(fmt.Sprintf(msgSubmitErrorFmt, err.Error()))
		return "", err
	}

	result, err := s.api.Submit(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("attempt_id", attemptID).Msg("submit: finalize failed")
		msg := err.Error()
		if msg == "" {
			msg = msgUnknownError
		}
		s.fail(fmt.Sprintf(msgSubmitErrorFmt, msg))
		s.sess.Answers.SetStatus(model.SaveError)
		return "", err
	}

	finalAttemptID := result.AttemptID
	if finalAttemptID == "" {
		finalAttemptID = attemptID
	}
	path := fmt.Sprintf("/test/%s/test-result/%s", s.sess.TestID(), finalAttemptID)

	s.mu.Lock()
	s.state = SubmitDone
	s.mu.Unlock()

	if s.sess.navigate != nil {
		s.sess.navigate(path)
	}
	return path, nil
}

// CancelSubmit closes the confirmation dialog without side effects.
func (s *Submitter) CancelSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirm = Dialog{}
	if s.state == SubmitConfirming {
		s.state = SubmitIdle
	}
}

// CloseErrorDialog dismisses the error dialog so the user may retry.
func (s *Submitter) CloseErrorDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorDialog = Dialog{}
}

func (s *Submitter) fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SubmitError
	s.errorDialog = Dialog{Open: true, Title: msgSubmitErrorTitle, Message: message}
}

func (s *Submitter) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Submitter) Confirmation() Dialog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirm
}

func (s *Submitter) ErrorDialog() Dialog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorDialog
}
