package service

import (
	"context"

	"norwegianopen/internal/dashboard"
)

type DashboardService struct {
	registrations *RegistrationService
}

func NewDashboardService(registrations *RegistrationService) *DashboardService {
	return &DashboardService{registrations: registrations}
}

// Summary aggregates every stored registration.
func (s *DashboardService) Summary(ctx context.Context) (dashboard.Summary, error) {
	registrations, err := s.registrations.List(ctx, ListRegistrationsParams{})
	if err != nil {
		return dashboard.Summary{}, err
	}
	return dashboard.Summarize(registrations), nil
}
