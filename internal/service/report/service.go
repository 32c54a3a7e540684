package report

import (
	"context"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
)

// Overview is the owner dashboard snapshot.
type Overview struct {
	VisitsByStatus map[model.VisitStatus]int `json:"visits_by_status"`
	DailyVisits    map[string]int            `json:"daily_visits"`
	TotalRevenue   float64                   `json:"total_revenue"`
	StaffByRole    map[model.Role]int        `json:"staff_by_role"`
}

type Service struct {
	reports repository.ReportRepository
}

func NewService(reports repository.ReportRepository) *Service {
	return &Service{reports: reports}
}

func (s *Service) Overview(ctx context.Context, actor *model.Actor, days int) (*Overview, error) {
	if days <= 0 || days > 90 {
		days = 7
	}

	byStatus, err := s.reports.VisitCountsByStatus(ctx, actor.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	daily, err := s.reports.DailyVisitCounts(ctx, actor.HospitalID, days)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	revenue, err := s.reports.RevenueTotal(ctx, actor.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	staff, err := s.reports.StaffCountsByRole(ctx, actor.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}

	return &Overview{
		VisitsByStatus: byStatus,
		DailyVisits:    daily,
		TotalRevenue:   revenue,
		StaffByRole:    staff,
	}, nil
}
