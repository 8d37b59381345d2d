package service

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"

	"github.com/hqtrung/elearn/internal/dto"
	"github.com/hqtrung/elearn/internal/model"
	"github.com/hqtrung/elearn/internal/rpc"
)

const (
	MethodActiveTests  = "test.test.find_all_active_tests"
	MethodActiveTopics = "topics.topics.find_all_active_topics"
	MethodTestDetails  = "test.test.get_test_details"
)

// CatalogService lists the active tests and topics a user can pick from.
type CatalogService interface {
	FindActiveTests(ctx context.Context, filters dto.CatalogFilters) ([]model.Test, error)
	FindActiveTopics(ctx context.Context) ([]model.Topic, error)
	GetTestDetails(ctx context.Context, testID string) (*model.Test, error)
}

type catalogService struct {
	client *rpc.Client
}

func NewCatalogService(client *rpc.Client) CatalogService {
	return &catalogService{client: client}
}

func (s *catalogService) FindActiveTests(ctx context.Context, filters dto.CatalogFilters) ([]model.Test, error) {
	params := map[string]string{}
	testType := filters.TestType
	if testType == "" {
		// A topic filter implies assessments; plain listings are practice.
		if filters.TopicID != "" {
			testType = "Assessment"
		} else {
			testType = "Practice"
		}
	}
	params["test_type"] = testType
	if filters.TopicID != "" {
		params["topic_id"] = filters.TopicID
	}
	if filters.GradeLevel != "" {
		params["grade_level"] = filters.GradeLevel
	}

	resp, err := s.client.Call(ctx, rpc.Request{Method: MethodActiveTests, Verb: "GET", Params: params})
	if err != nil {
		return nil, err
	}

	var rows []dto.TestSummaryDTO
	if err := resp.Decode(MethodActiveTests, &rows); err != nil {
		return nil, fmt.Errorf("fetching active tests: %w", err)
	}

	tests := make([]model.Test, 0, len(rows))
	for _, row := range rows {
		var t model.Test
		if err := copier.Copy(&t, row); err != nil {
			log.Error().Err(err).Msg("FindActiveTests: failed to map test summary")
			return nil, fmt.Errorf("error preparing test list: %w", err)
		}
		t.ID = row.Name
		tests = append(tests, t)
	}
	return tests, nil
}

func (s *catalogService) FindActiveTopics(ctx context.Context) ([]model.Topic, error) {
	resp, err := s.client.Call(ctx, rpc.Request{Method: MethodActiveTopics, Verb: "GET"})
	if err != nil {
		return nil, err
	}

	var rows []dto.TopicDTO
	if err := resp.Decode(MethodActiveTopics, &rows); err != nil {
		return nil, fmt.Errorf("fetching active topics: %w", err)
	}

	topics := make([]model.Topic, 0, len(rows))
	for _, row := range rows {
		topics = append(topics, model.Topic{
			ID:          row.Name,
			Name:        row.TopicName,
			Description: row.Description,
			GradeLevel:  row.GradeLevel,
		})
	}
	return topics, nil
}

func (s *catalogService) GetTestDetails(ctx context.Context, testID string) (*model.Test, error) {
	resp, err := s.client.Call(ctx, rpc.Request{
		Method: MethodTestDetails,
		Verb:   "GET",
		Params: map[string]string{"test_id": testID},
	})
	if err != nil {
		return nil, err
	}

	var row dto.TestSummaryDTO
	if err := resp.Decode(MethodTestDetails, &row); err != nil {
		return nil, err
	}

	var t model.Test
	if err := copier.Copy(&t, row); err != nil {
		return nil, fmt.Errorf("error preparing test details: %w", err)
	}
	t.ID = row.Name
	return &t, nil
}
