package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqtrung/elearn/internal/auth"
	"github.com/hqtrung/elearn/internal/dto"
	"github.com/hqtrung/elearn/internal/model"
	"github.com/hqtrung/elearn/internal/rpc"
)

// fixedBackend answers every dotted method from a canned map keyed by the
// method suffix, and records the requests it saw.
type fixedBackend struct {
	t        *testing.T
	messages map[string]interface{}
	requests []*http.Request
}

func (b *fixedBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.requests = append(b.requests, r.Clone(context.Background()))
		for suffix, message := range b.messages {
			if r.URL.Path == rpc.DefaultMethodPrefix+suffix {
				require.NoError(b.t, json.NewEncoder(w).Encode(map[string]interface{}{"message": message}))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"_error_message": "unknown method"})
	}
}

func newClientFor(t *testing.T, b *fixedBackend) *rpc.Client {
	ts := httptest.NewServer(b.handler())
	t.Cleanup(ts.Close)
	return rpc.NewClient(ts.URL, auth.NewStaticProvider("u@example.com", "key"))
}

func newTestService(t *testing.T, b *fixedBackend) (AttemptService, *rpc.Client) {
	client := newClientFor(t, b)
	return NewAttemptService(client), client
}

func validSnapshot() map[string]interface{} {
	return map[string]interface{}{
		"attempt": map[string]interface{}{"id": "TA-1", "remaining_time_seconds": 300},
		"test":    map[string]interface{}{"id": "T1", "title": "Quiz"},
		"questions": []map[string]interface{}{
			{"question_id": "Q1", "test_question_detail_id": "D1", "order": 1, "question_type": model.TypeMultipleChoice},
		},
		"saved_answers": map[string]interface{}{},
	}
}

func TestStartOrResumeDecodesSnapshot(t *testing.T) {
	b := &fixedBackend{t: t, messages: map[string]interface{}{MethodStartOrResume: validSnapshot()}}
	svc, _ := newTestService(t, b)

	snap, err := svc.StartOrResume(context.Background(), "T1")
	require.NoError(t, err)

	assert.Equal(t, "TA-1", snap.Attempt.ID)
	assert.Equal(t, 300, snap.Attempt.RemainingTimeSeconds)
	require.Len(t, snap.Questions, 1)
	assert.Equal(t, "D1", snap.Questions[0].DetailID)
	assert.NotNil(t, snap.SavedAnswers)

	require.Len(t, b.requests, 1)
	assert.Equal(t, "T1", b.requests[0].URL.Query().Get("test_id"))
}

func TestStartOrResumeRejectsIncompleteSnapshot(t *testing.T) {
	for _, missing := range []string{"attempt", "test", "questions", "saved_answers"} {
		snapshot := validSnapshot()
		delete(snapshot, missing)
		b := &fixedBackend{t: t, messages: map[string]interface{}{MethodStartOrResume: snapshot}}
		svc, _ := newTestService(t, b)

		_, err := svc.StartOrResume(context.Background(), "T1")
		var integrity *rpc.DataIntegrityError
		require.ErrorAs(t, err, &integrity, "missing %s must fail the load", missing)
		assert.Equal(t, missing, integrity.Missing)
	}
}

func TestStartOrResumeEmptyCollectionsAreValid(t *testing.T) {
	snapshot := validSnapshot()
	snapshot["questions"] = []interface{}{}
	b := &fixedBackend{t: t, messages: map[string]interface{}{MethodStartOrResume: snapshot}}
	svc, _ := newTestService(t, b)

	snap, err := svc.StartOrResume(context.Background(), "T1")
	require.NoError(t, err, "an empty question list is present, just empty")
	assert.Empty(t, snap.Questions)
}

func TestSaveProgressSendsPatch(t *testing.T) {
	b := &fixedBackend{t: t, messages: map[string]interface{}{MethodSaveProgress: map[string]string{"status": "saved"}}}
	svc, _ := newTestService(t, b)

	req, err := dto.NewSaveProgressRequest("TA-1", dto.ProgressPayload{
		Answers:              map[string]model.AnswerEntry{"D1": {UserAnswer: "A", TimeSpent: 3}},
		RemainingTimeSeconds: 120,
		LastViewedQuestionID: "Q1",
	})
	require.NoError(t, err)
	require.NoError(t, svc.SaveProgress(context.Background(), req))

	require.Len(t, b.requests, 1)
	assert.Equal(t, http.MethodPatch, b.requests[0].Method)
}

func TestSubmitToleratesUndecodablePayload(t *testing.T) {
	b := &fixedBackend{t: t, messages: map[string]interface{}{MethodSubmitAttempt: "unexpected shape"}}
	svc, _ := newTestService(t, b)

	req, err := dto.NewSubmitRequest("TA-1", dto.SubmissionPayload{})
	require.NoError(t, err)

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err, "a finalized attempt with a weird payload is still a success")
	assert.Empty(t, result.AttemptID)
}

func TestSubmitReturnsServerAttemptID(t *testing.T) {
	b := &fixedBackend{t: t, messages: map[string]interface{}{MethodSubmitAttempt: map[string]string{"attemptId": "TA-9"}}}
	svc, _ := newTestService(t, b)

	req, err := dto.NewSubmitRequest("TA-1", dto.SubmissionPayload{})
	require.NoError(t, err)
	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "TA-9", result.AttemptID)
}

func TestGetStatusDefaultsToNotStarted(t *testing.T) {
	b := &fixedBackend{t: t, messages: map[string]interface{}{MethodAttemptStatus: []int{1, 2, 3}}}
	svc, _ := newTestService(t, b)

	status, err := svc.GetStatus(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, model.AttemptNotStarted, status)
}

func TestGetResultDetailsValidatesShape(t *testing.T) {
	b := &fixedBackend{t: t, messages: map[string]interface{}{MethodAttemptResult: map[string]interface{}{
		"attempt": map[string]interface{}{"id": "TA-1"},
		"test":    map[string]interface{}{"id": "T1"},
	}}}
	svc, _ := newTestService(t, b)

	_, err := svc.GetResultDetails(context.Background(), "TA-1")
	var integrity *rpc.DataIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "questions_answers", integrity.Missing)
}

func TestGetUserAttempts(t *testing.T) {
	b := &fixedBackend{t: t, messages: map[string]interface{}{MethodUserAttempts: []map[string]interface{}{
		{"id": "TA-1", "status": "completed", "final_score": 8.5},
		{"id": "TA-2", "status": "in_progress"},
	}}}
	svc, _ := newTestService(t, b)

	attempts, err := svc.GetUserAttempts(context.Background(), "T1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "TA-1", attempts[0].ID)
	require.NotNil(t, attempts[0].FinalScore)
	assert.InDelta(t, 8.5, *attempts[0].FinalScore, 0.001)
	assert.Nil(t, attempts[1].FinalScore)
}
