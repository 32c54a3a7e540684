package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/notify"
	"github.com/medicore/hospital-api/internal/repository"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
)

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	for _, existing := range f.patients {
		if existing.HospitalID == p.HospitalID && existing.AadharNumber == p.AadharNumber {
			return repository.ErrDuplicate
		}
	}
	cp := *p
	f.patients[p.ID] = &cp
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id, hospitalID uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok || p.HospitalID != hospitalID {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePatientRepo) FindByAadhar(_ context.Context, aadhar string, hospitalID uuid.UUID) (*model.Patient, error) {
	for _, p := range f.patients {
		if p.HospitalID == hospitalID && p.AadharNumber == aadhar {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) List(_ context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range f.patients {
		if p.HospitalID == filters.HospitalID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeVisitRepo struct {
	visits []*model.Visit
}

func (f *fakeVisitRepo) Create(_ context.Context, v *model.Visit) error {
	f.visits = append(f.visits, v)
	return nil
}

func (f *fakeVisitRepo) Get(_ context.Context, _, _ uuid.UUID) (*model.Visit, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeVisitRepo) List(_ context.Context, filters *model.VisitFilters) ([]*model.Visit, error) {
	var out []*model.Visit
	for _, v := range f.visits {
		if v.HospitalID == filters.HospitalID && v.PatientID == filters.PatientID {
			out = append(out, v)
		}
	}
	return out, nil
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
func (f *fakeVisitRepo) ClearDoctorAssignments(_ context.Context, _, _ uuid.UUID) error { return nil }

func newService() (*Service, *fakePatientRepo, *fakeVisitRepo) {
	patients := newFakePatientRepo()
	visits := &fakeVisitRepo{}
	svc := NewService(patients, visits, notify.NopNotifier{}, logger.NewLogger(nil))
	return svc, patients, visits
}

func registerRequest() *model.RegisterPatientRequest {
	return &model.RegisterPatientRequest{
		FullName:      "Asha Verma",
		Age:           34,
		Gender:        model.GenderFemale,
		ContactNumber: "9876543210",
		AadharNumber:  "123412341234",
	}
}

func TestRegisterPatient(t *testing.T) {
	svc, _, _ := newService()
	actor := &model.Actor{UserID: uuid.New(), HospitalID: uuid.New(), Role: model.RoleReceptionist}

	p, err := svc.Register(context.Background(), actor, registerRequest())
	require.NoError(t, err)
	assert.Equal(t, actor.HospitalID, p.HospitalID)
	assert.Equal(t, "123412341234", p.AadharNumber)
}

func TestRegisterPatientDuplicateAadhar(t *testing.T) {
	svc, _, _ := newService()
	actor := &model.Actor{UserID: uuid.New(), HospitalID: uuid.New(), Role: model.RoleReceptionist}

	_, err := svc.Register(context.Background(), actor, registerRequest())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), actor, registerRequest())
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestRegisterPatientSameAadharDifferentHospitals(t *testing.T) {
	svc, _, _ := newService()
	first := &model.Actor{UserID: uuid.New(), HospitalID: uuid.New(), Role: model.RoleReceptionist}
	second := &model.Actor{UserID: uuid.New(), HospitalID: uuid.New(), Role: model.RoleReceptionist}

	a, err := svc.Register(context.Background(), first, registerRequest())
	require.NoError(t, err)
	b, err := svc.Register(context.Background(), second, registerRequest())
	require.NoError(t, err)

	// Independent rows per hospital.
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRegisterPatientRoleGate(t *testing.T) {
	svc, _, _ := newService()
	hospitalID := uuid.New()

	for _, role := range []model.Role{model.RoleNurse, model.RoleDoctor} {
		actor := &model.Actor{UserID: uuid.New(), HospitalID: hospitalID, Role: role}
		_, err := svc.Register(context.Background(), actor, registerRequest())
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden), "role %s", role)
	}
}

func TestSearchByAadhar(t *testing.T) {
	svc, _, _ := newService()
	actor := &model.Actor{UserID: uuid.New(), HospitalID: uuid.New(), Role: model.RoleReceptionist}

	registered, err := svc.Register(context.Background(), actor, registerRequest())
	require.NoError(t, err)

	found, err := svc.SearchByAadhar(context.Background(), actor, "123412341234")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, found.ID)

	_, err = svc.SearchByAadhar(context.Background(), actor, "999999999999")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = svc.SearchByAadhar(context.Background(), actor, "12341234")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestSearchByAadharScopedToHospital(t *testing.T) {
	svc, _, _ := newService()
	actor := &model.Actor{UserID: uuid.New(), HospitalID: uuid.New(), Role: model.RoleReceptionist}
	outsider := &model.Actor{UserID: uuid.New(), HospitalID: uuid.New(), Role: model.RoleReceptionist}

	_, err := svc.Register(context.Background(), actor, registerRequest())
	require.NoError(t, err)

	_, err = svc.SearchByAadhar(context.Background(), outsider, "123412341234")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdatePatient(t *testing.T) {
	svc, _, _ := newService()
	actor := &model.Actor{UserID: uuid.New(), HospitalID: uuid.New(), Role: model.RoleReceptionist}

	p, err := svc.Register(context.Background(), actor, registerRequest())
	require.NoError(t, err)

	contact := "9000000000"
	updated, err := svc.Update(context.Background(), actor, p.ID, &model.UpdatePatientRequest{
		ContactNumber: &contact,
	})
	require.NoError(t, err)
	assert.Equal(t, contact, updated.ContactNumber)
	// The national id is immutable through updates.
	assert.Equal(t, p.AadharNumber, updated.AadharNumber)
}

func TestHistory(t *testing.T) {
	svc, _, visits := newService()
	actor := &model.Actor{UserID: uuid.New(), HospitalID: uuid.New(), Role: model.RoleReceptionist}

	p, err := svc.Register(context.Background(), actor, registerRequest())
	require.NoError(t, err)

	visits.visits = append(visits.visits, &model.Visit{
		Base:       model.Base{ID: uuid.New()},
		HospitalID: actor.HospitalID,
		PatientID:  p.ID,
		VisitDate:  time.Now(),
		Status:     model.VisitCompleted,
	})

	history, err := svc.History(context.Background(), actor, p.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = svc.History(context.Background(), actor, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
