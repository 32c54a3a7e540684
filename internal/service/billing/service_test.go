package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/notify"
	"github.com/medicore/hospital-api/internal/repository"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("billing_test")

type fakeVisitRepo struct {
	visits map[uuid.UUID]*model.Visit
}

func (f *fakeVisitRepo) Create(_ context.Context, v *model.Visit) error {
	f.visits[v.ID] = v
	return nil
}

func (f *fakeVisitRepo) Get(_ context.Context, id, hospitalID uuid.UUID) (*model.Visit, error) {
	v, ok := f.visits[id]
	if !ok || v.HospitalID != hospitalID {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVisitRepo) List(_ context.Context, _ *model.VisitFilters) ([]*model.Visit, error) {
	return nil, nil
}

func (f *fakeVisitRepo) AdvanceToDoctor(_ context.Context, _, _, _ uuid.UUID, _ bool) error {
	return repository.ErrConflict
}

func (f *fakeVisitRepo) AdvanceToBilling(_ context.Context, _, _ uuid.UUID) error {
	return repository.ErrConflict
}

func (f *fakeVisitRepo) Cancel(_ context.Context, _, _ uuid.UUID) error {
	return repository.ErrConflict
}

func (f *fakeVisitRepo) ClearDoctorAssignments(_ context.Context, _, _ uuid.UUID) error {
	return nil
}

type fakeInvoiceRepo struct {
	visits   *fakeVisitRepo
	invoices map[uuid.UUID]*model.Invoice
	items    map[uuid.UUID][]*model.InvoiceItem
}

func (f *fakeInvoiceRepo) Finalize(_ context.Context, invoice *model.Invoice, items []*model.InvoiceItem) error {
	for _, existing := range f.invoices {
		if existing.VisitID == invoice.VisitID {
			return repository.ErrDuplicate
		}
	}
	v, ok := f.visits.visits[invoice.VisitID]
	if !ok || v.Status != model.VisitWaitingBilling {
		return repository.ErrConflict
	}
	v.Status = model.VisitCompleted
	v.PaymentStatus = model.PaymentPaid
	f.invoices[invoice.ID] = invoice
	f.items[invoice.ID] = items
	return nil
}

func (f *fakeInvoiceRepo) Get(_ context.Context, id, hospitalID uuid.UUID) (*model.Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok || inv.HospitalID != hospitalID {
		return nil, repository.ErrNotFound
	}
	return inv, nil
}

func (f *fakeInvoiceRepo) GetByVisit(_ context.Context, visitID, hospitalID uuid.UUID) (*model.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.VisitID == visitID && inv.HospitalID == hospitalID {
			return inv, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeInvoiceRepo) ListItems(_ context.Context, invoiceID, hospitalID uuid.UUID) ([]*model.InvoiceItem, error) {
	for _, inv := range f.invoices {
		if inv.ID == invoiceID && inv.HospitalID == hospitalID {
			return f.items[invoiceID], nil
		}
	}
	return nil, nil
}

func (f *fakeInvoiceRepo) List(_ context.Context, hospitalID uuid.UUID, _ *model.Pagination) ([]*model.Invoice, error) {
	var out []*model.Invoice
	for _, inv := range f.invoices {
		if inv.HospitalID == hospitalID {
			out = append(out, inv)
		}
	}
	return out, nil
}

type fakePatientRepo struct{ patients map[uuid.UUID]*model.Patient }

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id, hospitalID uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok || p.HospitalID != hospitalID {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePatientRepo) FindByAadhar(_ context.Context, _ string, _ uuid.UUID) (*model.Patient, error) {
	return nil, repository.ErrNotFound
}

func (f *fakePatientRepo) Update(_ context.Context, _ *model.Patient) error { return nil }

func (f *fakePatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}

type fakePrescriptionRepo struct{ byVisit map[uuid.UUID]*model.Prescription }

func (f *fakePrescriptionRepo) Create(_ context.Context, p *model.Prescription) error {
	f.byVisit[p.VisitID] = p
	return nil
}

func (f *fakePrescriptionRepo) GetByVisit(_ context.Context, visitID, hospitalID uuid.UUID) (*model.Prescription, error) {
	p, ok := f.byVisit[visitID]
	if !ok || p.HospitalID != hospitalID {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePrescriptionRepo) Delete(_ context.Context, id, hospitalID uuid.UUID) error {
	for visitID, p := range f.byVisit {
		if p.ID == id && p.HospitalID == hospitalID {
			delete(f.byVisit, visitID)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakePrescriptionRepo) ClearDoctor(_ context.Context, _, _ uuid.UUID) error { return nil }

type fakeHospitalRepo struct{ hospitals map[uuid.UUID]*model.Hospital }

func (f *fakeHospitalRepo) Create(_ context.Context, h *model.Hospital) error {
	f.hospitals[h.ID] = h
	return nil
}

func (f *fakeHospitalRepo) Get(_ context.Context, id uuid.UUID) (*model.Hospital, error) {
	h, ok := f.hospitals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return h, nil
}

func (f *fakeHospitalRepo) Update(_ context.Context, _ *model.Hospital) error { return nil }
func (f *fakeHospitalRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.hospitals, id)
	return nil
}

type fixture struct {
	svc           *Service
	visits        *fakeVisitRepo
	invoices      *fakeInvoiceRepo
	prescriptions *fakePrescriptionRepo
	hospitalID    uuid.UUID
	patientID     uuid.UUID
	visitID       uuid.UUID
	receptionist  *model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		visits:        &fakeVisitRepo{visits: make(map[uuid.UUID]*model.Visit)},
		prescriptions: &fakePrescriptionRepo{byVisit: make(map[uuid.UUID]*model.Prescription)},
		hospitalID:    uuid.New(),
		patientID:     uuid.New(),
		visitID:       uuid.New(),
	}
	f.invoices = &fakeInvoiceRepo{
		visits:   f.visits,
		invoices: make(map[uuid.UUID]*model.Invoice),
		items:    make(map[uuid.UUID][]*model.InvoiceItem),
	}
	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{
		f.patientID: {Base: model.Base{ID: f.patientID}, HospitalID: f.hospitalID, FullName: "Asha Verma"},
	}}
	hospitals := &fakeHospitalRepo{hospitals: map[uuid.UUID]*model.Hospital{
		f.hospitalID: {Base: model.Base{ID: f.hospitalID}, Name: "City Care"},
	}}

	f.svc = NewService(f.invoices, f.visits, patients, f.prescriptions, hospitals,
		notify.NopNotifier{}, testMetrics, logger.NewLogger(nil), 500)

	f.visits.visits[f.visitID] = &model.Visit{
		Base:          model.Base{ID: f.visitID},
		HospitalID:    f.hospitalID,
		PatientID:     f.patientID,
		Status:        model.VisitWaitingBilling,
		PaymentStatus: model.PaymentPending,
	}
	f.receptionist = &model.Actor{UserID: uuid.New(), HospitalID: f.hospitalID, Role: model.RoleReceptionist}
	return f
}

func TestGenerateSeedsDefaultItems(t *testing.T) {
	f := newFixture(t)
	doctorID := uuid.New()
	f.prescriptions.byVisit[f.visitID] = &model.Prescription{
		Base:       model.Base{ID: uuid.New()},
		HospitalID: f.hospitalID,
		VisitID:    f.visitID,
		DoctorID:   &doctorID,
		Medications: model.MedicationList{
			{Name: "Paracetamol", Dosage: "500mg"},
			{Name: "Cetirizine", Dosage: "10mg"},
		},
	}

	invoice, err := f.svc.Generate(context.Background(), f.receptionist, f.visitID, &model.GenerateInvoiceRequest{
		PaymentMethod: model.PaymentCash,
	})
	require.NoError(t, err)

	// Consultation fee plus one zero-priced line per medication.
	require.Len(t, invoice.Items, 3)
	assert.Equal(t, "Consultation Fee", invoice.Items[0].Description)
	assert.Equal(t, 500.0, invoice.Items[0].UnitPrice)
	assert.Equal(t, "Paracetamol 500mg", invoice.Items[1].Description)
	assert.Equal(t, 0.0, invoice.Items[1].UnitPrice)
	assert.Equal(t, 500.0, invoice.TotalAmount)
	assert.Equal(t, model.InvoicePaid, invoice.Status)

	visit, err := f.visits.Get(context.Background(), f.visitID, f.hospitalID)
	require.NoError(t, err)
	assert.Equal(t, model.VisitCompleted, visit.Status)
	assert.Equal(t, model.PaymentPaid, visit.PaymentStatus)
}

func TestGenerateExplicitItemsTotals(t *testing.T) {
	f := newFixture(t)

	invoice, err := f.svc.Generate(context.Background(), f.receptionist, f.visitID, &model.GenerateInvoiceRequest{
		PaymentMethod: model.PaymentUPI,
		Items: []model.InvoiceItemInput{
			{Description: "Consultation Fee", Quantity: 1, UnitPrice: 500},
			{Description: "Dressing", Quantity: 2, UnitPrice: 25},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 550.0, invoice.TotalAmount)
	require.Len(t, invoice.Items, 2)
	assert.Equal(t, 50.0, invoice.Items[1].Total)
}

func TestGenerateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	req := &model.GenerateInvoiceRequest{PaymentMethod: model.PaymentCash}

	first, err := f.svc.Generate(context.Background(), f.receptionist, f.visitID, req)
	require.NoError(t, err)

	second, err := f.svc.Generate(context.Background(), f.receptionist, f.visitID, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.invoices.invoices, 1)
}

func TestGenerateRejectsWrongState(t *testing.T) {
	f := newFixture(t)
	f.visits.visits[f.visitID].Status = model.VisitWaitingVitals

	_, err := f.svc.Generate(context.Background(), f.receptionist, f.visitID, &model.GenerateInvoiceRequest{
		PaymentMethod: model.PaymentCash,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestGenerateRoleGate(t *testing.T) {
	f := newFixture(t)
	req := &model.GenerateInvoiceRequest{PaymentMethod: model.PaymentCash}

	for _, role := range []model.Role{model.RoleNurse, model.RoleDoctor} {
		actor := &model.Actor{UserID: uuid.New(), HospitalID: f.hospitalID, Role: role}
		_, err := f.svc.Generate(context.Background(), actor, f.visitID, req)
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden), "role %s", role)
	}
}

func TestGenerateTenantIsolation(t *testing.T) {
	f := newFixture(t)
	outsider := &model.Actor{UserID: uuid.New(), HospitalID: uuid.New(), Role: model.RoleOwner}

	_, err := f.svc.Generate(context.Background(), outsider, f.visitID, &model.GenerateInvoiceRequest{
		PaymentMethod: model.PaymentCash,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestRenderAssemblesView(t *testing.T) {
	f := newFixture(t)
	invoice, err := f.svc.Generate(context.Background(), f.receptionist, f.visitID, &model.GenerateInvoiceRequest{
		PaymentMethod: model.PaymentCard,
	})
	require.NoError(t, err)

	view, err := f.svc.Render(context.Background(), f.receptionist, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, view.Invoice.ID)
	assert.Equal(t, "Asha Verma", view.Patient.FullName)
	assert.Equal(t, "City Care", view.Hospital.Name)
	assert.Equal(t, f.visitID, view.Visit.ID)
}
