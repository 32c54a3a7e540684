package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/pkg/metrics"
)

type invoiceRepository struct {
	BaseRepository
}

func NewInvoiceRepository(db *sqlx.DB, m *metrics.Metrics) repository.InvoiceRepository {
	return &invoiceRepository{BaseRepository: NewBaseRepository(db, m)}
}

// Finalize is the one multi-table write the store can make atomic, so it
// runs in a real transaction: invoice insert, item inserts, and the visit's
// terminal compare-and-swap all commit or none do.
func (r *invoiceRepository) Finalize(ctx context.Context, invoice *model.Invoice, items []*model.InvoiceItem) error {
	err := r.WithTenant(ctx, invoice.HospitalID, "invoices.finalize", func(tx *sqlx.Tx) error {
		now := time.Now()
		invoice.CreatedAt = now
		invoice.UpdatedAt = now

		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoices (id, hospital_id, visit_id, patient_id, total_amount,
				status, payment_method, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			invoice.ID,
			invoice.HospitalID,
			invoice.VisitID,
			invoice.PatientID,
			invoice.TotalAmount,
			invoice.Status,
			invoice.PaymentMethod,
			invoice.CreatedAt,
			invoice.UpdatedAt,
		)
		if err != nil {
			return err
		}

		for _, item := range items {
			item.CreatedAt = now
			item.UpdatedAt = now
			_, err := tx.ExecContext(ctx, `
				INSERT INTO invoice_items (id, invoice_id, description, quantity,
					unit_price, total, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`,
				item.ID,
				item.InvoiceID,
				item.Description,
				item.Quantity,
				item.UnitPrice,
				item.Total,
				item.CreatedAt,
				item.UpdatedAt,
			)
			if err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE visits
			SET status = $1, payment_status = $2, updated_at = $3
			WHERE id = $4 AND hospital_id = $5 AND status = $6
		`,
			model.VisitCompleted,
			model.PaymentPaid,
			now,
			invoice.VisitID,
			invoice.HospitalID,
			model.VisitWaitingBilling,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return repository.ErrConflict
		}
		return nil
	})
	if err == repository.ErrConflict {
		return err
	}
	return mapError(err)
}

func (r *invoiceRepository) Get(ctx context.Context, id, hospitalID uuid.UUID) (*model.Invoice, error) {
	query := `SELECT * FROM invoices WHERE id = $1 AND hospital_id = $2`
	var invoice model.Invoice
	err := r.WithTenant(ctx, hospitalID, "invoices.get", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &invoice, query, id, hospitalID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByVisit(ctx context.Context, visitID, hospitalID uuid.UUID) (*model.Invoice, error) {
	query := `SELECT * FROM invoices WHERE visit_id = $1 AND hospital_id = $2`
	var invoice model.Invoice
	err := r.WithTenant(ctx, hospitalID, "invoices.get_by_visit", func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &invoice, query, visitID, hospitalID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListItems(ctx context.Context, invoiceID, hospitalID uuid.UUID) ([]*model.InvoiceItem, error) {
	query := `
		SELECT ii.* FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		WHERE ii.invoice_id = $1 AND i.hospital_id = $2
		ORDER BY ii.created_at ASC, ii.id ASC
	`
	var items []*model.InvoiceItem
	err := r.WithTenant(ctx, hospitalID, "invoices.list_items", func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &items, query, invoiceID, hospitalID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

func (r *invoiceRepository) List(ctx context.Context, hospitalID uuid.UUID, p *model.Pagination) ([]*model.Invoice, error) {
	p.Normalize()
	query := `
		SELECT * FROM invoices WHERE hospital_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var invoices []*model.Invoice
	err := r.WithTenant(ctx, hospitalID, "invoices.list", func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &invoices, query, hospitalID, p.PageSize, p.Offset())
	})
	if err != nil {
		return nil, mapError(err)
	}
	return invoices, nil
}
