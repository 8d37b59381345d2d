package service

import (
	"context"
	"fmt"

	"github.com/hqtrung/elearn/internal/dto"
	"github.com/hqtrung/elearn/internal/rpc"
)

const MethodDueSRSSummary = "user_srs_progress.user_srs_progress.get_due_srs_summary"

// SRSService reads the spaced-repetition due summary used for the
// dashboard notification badge.
type SRSService interface {
	GetDueSummary(ctx context.Context) (*dto.SRSSummaryDTO, error)
}

type srsService struct {
	client *rpc.Client
}

func NewSRSService(client *rpc.Client) SRSService {
	return &srsService{client: client}
}

func (s *srsService) GetDueSummary(ctx context.Context) (*dto.SRSSummaryDTO, error) {
	resp, err := s.client.Call(ctx, rpc.Request{Method: MethodDueSRSSummary, Verb: "GET"})
	if err != nil {
		return nil, err
	}

	var summary dto.SRSSummaryDTO
	if err := resp.Decode(MethodDueSRSSummary, &summary); err != nil {
		return nil, err
	}
	if !summary.Success {
		msg := summary.Message
		if msg == "" {
			msg = "failed to fetch SRS summary"
		}
		return nil, fmt.Errorf("srs summary: %s", msg)
	}
	return &summary, nil
}
