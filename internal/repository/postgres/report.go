package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/pkg/metrics"
)

type reportRepository struct {
	BaseRepository
}

func NewReportRepository(db *sqlx.DB, m *metrics.Metrics) repository.ReportRepository {
	return &reportRepository{BaseRepository: NewBaseRepository(db, m)}
}

func (r *reportRepository) VisitCountsByStatus(ctx context.Context, hospitalID uuid.UUID) (map[model.VisitStatus]int, error) {
	counts := make(map[model.VisitStatus]int)
	err := r.WithTenant(ctx, hospitalID, "reports.visits_by_status", func(tx *sqlx.Tx) error {
		rows, err := tx.QueryxContext(ctx,
			`SELECT status, COUNT(*) FROM visits WHERE hospital_id = $1 GROUP BY status`, hospitalID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var status model.VisitStatus
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				return err
			}
			counts[status] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapError(err)
	}
	return counts, nil
}

func (r *reportRepository) DailyVisitCounts(ctx context.Context, hospitalID uuid.UUID, days int) (map[string]int, error) {
	query := `
		SELECT to_char(visit_date::date, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM visits
		WHERE hospital_id = $1 AND visit_date >= now() - ($2 || ' days')::interval
		GROUP BY day
		ORDER BY day
	`
	counts := make(map[string]int)
	err := r.WithTenant(ctx, hospitalID, "reports.daily_visits", func(tx *sqlx.Tx) error {
		rows, err := tx.QueryxContext(ctx, query, hospitalID, days)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var day string
			var count int
			if err := rows.Scan(&day, &count); err != nil {
				return err
			}
			counts[day] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapError(err)
	}
	return counts, nil
}

func (r *reportRepository) RevenueTotal(ctx context.Context, hospitalID uuid.UUID) (float64, error) {
	var total float64
	err := r.WithTenant(ctx, hospitalID, "reports.revenue_total", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &total,
			`SELECT COALESCE(SUM(total_amount), 0) FROM invoices WHERE hospital_id = $1 AND status = 'paid'`,
			hospitalID)
	})
	return total, mapError(err)
}

func (r *reportRepository) StaffCountsByRole(ctx context.Context, hospitalID uuid.UUID) (map[model.Role]int, error) {
	counts := make(map[model.Role]int)
	err := r.WithTenant(ctx, hospitalID, "reports.staff_by_role", func(tx *sqlx.Tx) error {
		rows, err := tx.QueryxContext(ctx,
			`SELECT role, COUNT(*) FROM profiles WHERE hospital_id = $1 GROUP BY role`, hospitalID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var role model.Role
			var count int
			if err := rows.Scan(&role, &count); err != nil {
				return err
			}
			counts[role] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapError(err)
	}
	return counts, nil
}
