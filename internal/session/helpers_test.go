package session

import (
	"context"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/hqtrung/elearn/internal/dto"
	"github.com/hqtrung/elearn/internal/model"
)

// stubAPI is an in-memory attempt backend for coordinator tests.
type stubAPI struct {
	mu        sync.Mutex
	saved     []dto.SaveProgressRequest
	submitted []dto.SubmitRequest

	saveFn   func(ctx context.Context, req dto.SaveProgressRequest) error
	submitFn func(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitResponseDTO, error)
	startFn  func(ctx context.Context, testID string) (*dto.StartOrResumeDTO, error)
}

func (a *stubAPI) StartOrResume(ctx context.Context, testID string) (*dto.StartOrResumeDTO, error) {
	if a.startFn != nil {
		return a.startFn(ctx, testID)
	}
	return sampleSnapshot(), nil
}

func (a *stubAPI) SaveProgress(ctx context.Context, req dto.SaveProgressRequest) error {
	a.mu.Lock()
	a.saved = append(a.saved, req)
	a.mu.Unlock()
	if a.saveFn != nil {
		return a.saveFn(ctx, req)
	}
	return nil
}

func (a *stubAPI) Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitResponseDTO, error) {
	a.mu.Lock()
	a.submitted = append(a.submitted, req)
	a.mu.Unlock()
	if a.submitFn != nil {
		return a.submitFn(ctx, req)
	}
	return &dto.SubmitResponseDTO{}, nil
}

func (a *stubAPI) GetStatus(ctx context.Context, testID string) (string, error) {
	return model.AttemptNotStarted, nil
}

func (a *stubAPI) GetUserAttempts(ctx context.Context, testID string) ([]model.AttemptSummary, error) {
	return nil, nil
}

func (a *stubAPI) GetResultDetails(ctx context.Context, attemptID string) (*dto.ResultDetailsDTO, error) {
	return &dto.ResultDetailsDTO{}, nil
}

func (a *stubAPI) saveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.saved)
}

func (a *stubAPI) lastSaved() dto.SaveProgressRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saved[len(a.saved)-1]
}

func sampleSnapshot() *dto.StartOrResumeDTO {
	return &dto.StartOrResumeDTO{
		Attempt:      &model.Attempt{ID: "TA-00001", TestID: "TEST-1", Status: model.AttemptInProgress, RemainingTimeSeconds: 600},
		Test:         &model.Test{ID: "TEST-1", Title: "Midterm", TimeLimitMinutes: 10},
		Questions:    sampleQuestions(),
		SavedAnswers: map[string]model.SavedAnswer{},
	}
}

func newStartedSession(t *testing.T, fc clockwork.Clock, api *stubAPI) *Session {
	t.Helper()
	sess := New(api, "TEST-1", Options{Clock: fc})
	require.NoError(t, sess.Start(context.Background()))
	t.Cleanup(sess.Close)
	return sess
}
