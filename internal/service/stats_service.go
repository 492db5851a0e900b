package service

import (
	"context"
	"fmt"

	"github.com/roseyy14/project-monitoring/internal/report"
	"github.com/roseyy14/project-monitoring/internal/repository"
)

// DashboardResponse bundles the chart aggregates with the filtered table
// rows so one round trip refreshes the whole dashboard.
type DashboardResponse struct {
	Summary  report.Summary    `json:"summary"`
	Requests []RequestResponse `json:"requests"`
}

// StatsService computes dashboard aggregates over the current snapshot.
type StatsService interface {
	Dashboard(ctx context.Context, q ListRequestsQuery, viewerID string) (*DashboardResponse, error)
}

type statsService struct {
	repo repository.RequestRepository
}

func NewStatsService(repo repository.RequestRepository) StatsService {
	return &statsService{repo: repo}
}

// Dashboard filters the snapshot, then summarizes the filtered set so the
// charts and the table always agree with each other.
func (s *statsService) Dashboard(ctx context.Context, q ListRequestsQuery, viewerID string) (*DashboardResponse, error) {
	requests, err := s.repo.List(ctx, repository.RequestFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}

	filters, err := toReportFilters(q)
	if err != nil {
		return nil, err
	}
	filtered := report.Apply(requests, filters)

	resp := DashboardResponse{
		Summary:  report.Summarize(filtered),
		Requests: make([]RequestResponse, 0, len(filtered)),
	}
	for i := range filtered {
		resp.Requests = append(resp.Requests, toRequestResponse(&filtered[i], viewerID))
	}
	return &resp, nil
}
