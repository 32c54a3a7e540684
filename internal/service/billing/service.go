// Package billing closes visits out. Generating an invoice is the final
// forward transition: the invoice rows and the visit's move to completed
// commit in one transaction, and a repeat request returns the existing
// invoice unchanged.
package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/notify"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/internal/service/authz"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/metrics"
)

type Service struct {
	invoices        repository.InvoiceRepository
	visits          repository.VisitRepository
	patients        repository.PatientRepository
	prescriptions   repository.PrescriptionRepository
	hospitals       repository.HospitalRepository
	notifier        notify.Notifier
	metrics         *metrics.Metrics
	logger          *logger.Logger
	consultationFee float64
}

func NewService(
	invoices repository.InvoiceRepository,
	visits repository.VisitRepository,
	patients repository.PatientRepository,
	prescriptions repository.PrescriptionRepository,
	hospitals repository.HospitalRepository,
	notifier notify.Notifier,
	metrics *metrics.Metrics,
	logger *logger.Logger,
	consultationFee float64,
) *Service {
	return &Service{
		invoices:        invoices,
		visits:          visits,
		patients:        patients,
		prescriptions:   prescriptions,
		hospitals:       hospitals,
		notifier:        notifier,
		metrics:         metrics,
		logger:          logger,
		consultationFee: consultationFee,
	}
}

// Generate bills a visit in waiting_billing and completes it. When the
// request carries no explicit items, lines are seeded from the
// prescription: the consultation fee plus one zero-priced line per
// medication so the printout lists what was dispensed.
func (s *Service) Generate(ctx context.Context, actor *model.Actor, visitID uuid.UUID, req *model.GenerateInvoiceRequest) (*model.Invoice, error) {
	if err := authz.Require(actor, authz.ActionGenerateInvoice); err != nil {
		return nil, err
	}

	visit, err := s.visits.Get(ctx, visitID, actor.HospitalID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("visit")
		}
		return nil, apperrors.Upstream(err)
	}

	if existing, err := s.invoices.GetByVisit(ctx, visitID, actor.HospitalID); err == nil {
		if visit.Status == model.VisitCompleted {
			return s.withItems(ctx, existing)
		}
		return nil, apperrors.Conflict("an invoice already exists for this visit")
	} else if err != repository.ErrNotFound {
		return nil, apperrors.Upstream(err)
	}

	if visit.Status != model.VisitWaitingBilling {
		s.metrics.VisitTransitions.WithLabelValues(string(visit.Status), string(model.VisitCompleted), "conflict").Inc()
		return nil, apperrors.Conflict("visit is in state " + string(visit.Status) + ", cannot move to completed")
	}

	inputs := req.Items
	if len(inputs) == 0 {
		inputs, err = s.defaultItems(ctx, visitID, actor.HospitalID)
		if err != nil {
			return nil, err
		}
	}

	invoice := &model.Invoice{
		Base:          model.Base{ID: uuid.New()},
		HospitalID:    actor.HospitalID,
		VisitID:       visitID,
		PatientID:     visit.PatientID,
		Status:        model.InvoicePaid,
		PaymentMethod: req.PaymentMethod,
	}
	items := make([]*model.InvoiceItem, 0, len(inputs))
	for _, in := range inputs {
		lineTotal := float64(in.Quantity) * in.UnitPrice
		items = append(items, &model.InvoiceItem{
			Base:        model.Base{ID: uuid.New()},
			InvoiceID:   invoice.ID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Total:       lineTotal,
		})
		invoice.TotalAmount += lineTotal
	}

	if err := s.invoices.Finalize(ctx, invoice, items); err != nil {
		if err == repository.ErrConflict || err == repository.ErrDuplicate {
			// The visit moved, or a concurrent request billed it first.
			if existing, getErr := s.invoices.GetByVisit(ctx, visitID, actor.HospitalID); getErr == nil {
				return s.withItems(ctx, existing)
			}
			return nil, apperrors.Conflict("visit is no longer awaiting billing")
		}
		return nil, apperrors.Upstream(err)
	}

	s.metrics.VisitTransitions.WithLabelValues(string(model.VisitWaitingBilling), string(model.VisitCompleted), "ok").Inc()
	s.metrics.ActiveVisits.Dec()
	s.notifier.Changed(ctx, actor.HospitalID, "invoices", "insert", invoice.ID)
	s.notifier.Changed(ctx, actor.HospitalID, "visits", "update", visitID)

	invoice.Items = items
	return invoice, nil
}

// defaultItems builds the seeded line items: the consultation fee, then
// each prescribed medication at zero price.
func (s *Service) defaultItems(ctx context.Context, visitID, hospitalID uuid.UUID) ([]model.InvoiceItemInput, error) {
	items := []model.InvoiceItemInput{
		{Description: "Consultation Fee", Quantity: 1, UnitPrice: s.consultationFee},
	}
	prescription, err := s.prescriptions.GetByVisit(ctx, visitID, hospitalID)
	if err != nil {
		if err == repository.ErrNotFound {
			return items, nil
		}
		return nil, apperrors.Upstream(err)
	}
	for _, med := range prescription.Medications {
		description := med.Name
		if med.Dosage != "" {
			description += " " + med.Dosage
		}
		items = append(items, model.InvoiceItemInput{Description: description, Quantity: 1, UnitPrice: 0})
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.invoices.Get(ctx, id, actor.HospitalID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("invoice")
		}
		return nil, apperrors.Upstream(err)
	}
	return s.withItems(ctx, invoice)
}

func (s *Service) List(ctx context.Context, actor *model.Actor, p model.Pagination) ([]*model.Invoice, error) {
	p.Normalize()
	invoices, err := s.invoices.List(ctx, actor.HospitalID, &p)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	return invoices, nil
}

// Render assembles the full printable view: invoice, patient, visit,
// prescription and hospital letterhead.
func (s *Service) Render(ctx context.Context, actor *model.Actor, invoiceID uuid.UUID) (*model.InvoiceView, error) {
	invoice, err := s.Get(ctx, actor, invoiceID)
	if err != nil {
		return nil, err
	}
	patient, err := s.patients.Get(ctx, invoice.PatientID, actor.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	visit, err := s.visits.Get(ctx, invoice.VisitID, actor.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	hospital, err := s.hospitals.Get(ctx, actor.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	view := &model.InvoiceView{
		Invoice:  invoice,
		Patient:  patient,
		Visit:    visit,
		Hospital: hospital,
	}
	if prescription, err := s.prescriptions.GetByVisit(ctx, invoice.VisitID, actor.HospitalID); err == nil {
		view.Prescription = prescription
	}
	return view, nil
}

func (s *Service) withItems(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	items, err := s.invoices.ListItems(ctx, invoice.ID, invoice.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	invoice.Items = items
	return invoice, nil
}
