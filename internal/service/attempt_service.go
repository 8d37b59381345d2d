package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hqtrung/elearn/internal/dto"
	"github.com/hqtrung/elearn/internal/model"
	"github.com/hqtrung/elearn/internal/rpc"
)

// Backend method suffixes for attempt operations. These mirror the dotted
// RPC convention and must not drift from the server side.
const (
	MethodStartOrResume = "test_attempt.test_attempt.start_or_resume_test_attempt"
	MethodSaveProgress  = "test_attempt.test_attempt.save_attempt_progress"
	MethodSubmitAttempt = "test_attempt.test_attempt.submit_test_attempt"
	MethodAttemptStatus = "test_attempt.test_attempt.get_test_attempt_status"
	MethodUserAttempts  = "test_attempt.test_attempt.get_user_attempts_for_test"
	MethodAttemptResult = "test_attempt.test_attempt.get_attempt_result_details"
)

// AttemptService covers the attempt lifecycle: start/resume, progress
// saves, finalization and the read operations around them.
type AttemptService interface {
	StartOrResume(ctx context.Context, testID string) (*dto.StartOrResumeDTO, error)
	SaveProgress(ctx context.Context, req dto.SaveProgressRequest) error
	Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitResponseDTO, error)
	GetStatus(ctx context.Context, testID string) (string, error)
	GetUserAttempts(ctx context.Context, testID string) ([]model.AttemptSummary, error)
	GetResultDetails(ctx context.Context, attemptID string) (*dto.ResultDetailsDTO, error)
}

type attemptService struct {
	client *rpc.Client
}

func NewAttemptService(client *rpc.Client) AttemptService {
	return &attemptService{client: client}
}

func (s *attemptService) StartOrResume(ctx context.Context, testID string) (*dto.StartOrResumeDTO, error) {
	resp, err := s.client.Call(ctx, rpc.Request{
		Method: MethodStartOrResume,
		Verb:   "GET",
		Params: map[string]string{"test_id": testID},
	})
	if err != nil {
		return nil, err
	}

	var snapshot dto.StartOrResumeDTO
	if err := resp.Decode(MethodStartOrResume, &snapshot); err != nil {
		return nil, err
	}
	if missing := snapshot.MissingField(); missing != "" {
		log.Error().Str("test_id", testID).Str("missing", missing).
			Msg("StartOrResume: invalid data structure from backend")
		if resp.ErrorMessage != "" {
			return nil, &rpc.Error{Method: MethodStartOrResume, Message: resp.ErrorMessage}
		}
		return nil, &rpc.DataIntegrityError{Method: MethodStartOrResume, Missing: missing}
	}
	return &snapshot, nil
}

func (s *attemptService) SaveProgress(ctx context.Context, req dto.SaveProgressRequest) error {
	_, err := s.client.Call(ctx, rpc.Request{
		Method: MethodSaveProgress,
		Verb:   "PATCH",
		Body:   req,
	})
	return err
}

func (s *attemptService) Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitResponseDTO, error) {
	resp, err := s.client.Call(ctx, rpc.Request{
		Method: MethodSubmitAttempt,
		Verb:   "POST",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}

	// The server-returned attempt id may be absent on older backends;
	// the submitter falls back to the local one.
	var result dto.SubmitResponseDTO
	if decodeErr := resp.Decode(MethodSubmitAttempt, &result); decodeErr != nil {
		log.Warn().Err(decodeErr).Msg("Submit: finalize succeeded but response payload was not decodable")
		return &dto.SubmitResponseDTO{}, nil
	}
	return &result, nil
}

func (s *attemptService) GetStatus(ctx context.Context, testID string) (string, error) {
	resp, err := s.client.Call(ctx, rpc.Request{
		Method: MethodAttemptStatus,
		Verb:   "GET",
		Params: map[string]string{"test_id": testID},
	})
	if err != nil {
		return "", err
	}

	var status dto.AttemptStatusDTO
	if err := resp.Decode(MethodAttemptStatus, &status); err != nil || status.Status == "" {
		log.Warn().Str("test_id", testID).Msg("GetStatus: invalid status payload, defaulting to not_started")
		return model.AttemptNotStarted, nil
	}
	return status.Status, nil
}

func (s *attemptService) GetUserAttempts(ctx context.Context, testID string) ([]model.AttemptSummary, error) {
	resp, err := s.client.Call(ctx, rpc.Request{
		Method: MethodUserAttempts,
		Verb:   "GET",
		Params: map[string]string{"test_id": testID},
	})
	if err != nil {
		return nil, err
	}

	var attempts []model.AttemptSummary
	if err := resp.Decode(MethodUserAttempts, &attempts); err != nil {
		return nil, fmt.Errorf("fetching prior attempts for test %s: %w", testID, err)
	}
	return attempts, nil
}

func (s *attemptService) GetResultDetails(ctx context.Context, attemptID string) (*dto.ResultDetailsDTO, error) {
	resp, err := s.client.Call(ctx, rpc.Request{
		Method: MethodAttemptResult,
		Verb:   "GET",
		Params: map[string]string{"attempt_id": attemptID},
	})
	if err != nil {
		return nil, err
	}

	var details dto.ResultDetailsDTO
	if err := resp.Decode(MethodAttemptResult, &details); err != nil {
		return nil, err
	}
	if missing := details.MissingField(); missing != "" {
		log.Error().Str("attempt_id", attemptID).Str("missing", missing).
			Msg("GetResultDetails: incomplete result data from backend")
		if resp.ErrorMessage != "" {
			return nil, &rpc.Error{Method: MethodAttemptResult, Message: resp.ErrorMessage}
		}
		return nil, &rpc.DataIntegrityError{Method: MethodAttemptResult, Missing: missing}
	}
	return &details, nil
}
