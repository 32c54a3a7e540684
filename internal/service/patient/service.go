package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/notify"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/internal/service/authz"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
)

type Service struct {
	patients repository.PatientRepository
	visits   repository.VisitRepository
	notifier notify.Notifier
	logger   *logger.Logger
}

func NewService(patients repository.PatientRepository, visits repository.VisitRepository, notifier notify.Notifier, logger *logger.Logger) *Service {
	return &Service{patients: patients, visits: visits, notifier: notifier, logger: logger}
}

// Register creates the patient record. The national id is unique within
// the hospital, so a duplicate is a conflict, not a silent upsert.
func (s *Service) Register(ctx context.Context, actor *model.Actor, req *model.RegisterPatientRequest) (*model.Patient, error) {
	if err := authz.Require(actor, authz.ActionRegisterPatient); err != nil {
		return nil, err
	}

	patient := &model.Patient{
		Base:          model.Base{ID: uuid.New()},
		HospitalID:    actor.HospitalID,
		FullName:      req.FullName,
		Age:           req.Age,
		Gender:        req.Gender,
		ContactNumber: req.ContactNumber,
		AadharNumber:  req.AadharNumber,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		if err == repository.ErrDuplicate {
			return nil, apperrors.Conflict("a patient with this aadhar number is already registered")
		}
		return nil, apperrors.Upstream(err)
	}

	s.notifier.Changed(ctx, actor.HospitalID, "patients", "insert", patient.ID)
	return patient, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id, actor.HospitalID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Upstream(err)
	}
	return patient, nil
}

// SearchByAadhar drives the front-desk returning-patient flow. A miss is
// reported as NotFound so the caller can branch into registration.
func (s *Service) SearchByAadhar(ctx context.Context, actor *model.Actor, aadhar string) (*model.Patient, error) {
	if len(aadhar) != 12 {
		return nil, apperrors.Validation("aadhar number must be 12 digits")
	}
	patient, err := s.patients.FindByAadhar(ctx, aadhar, actor.HospitalID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Upstream(err)
	}
	return patient, nil
}

func (s *Service) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if err := authz.Require(actor, authz.ActionUpdatePatient); err != nil {
		return nil, err
	}

	patient, err := s.patients.Get(ctx, id, actor.HospitalID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Upstream(err)
	}

	if req.FullName != nil {
		patient.FullName = *req.FullName
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.ContactNumber != nil {
		patient.ContactNumber = *req.ContactNumber
	}

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, apperrors.Upstream(err)
	}
	s.notifier.Changed(ctx, actor.HospitalID, "patients", "update", patient.ID)
	return patient, nil
}

func (s *Service) List(ctx context.Context, actor *model.Actor, search string, p model.Pagination) ([]*model.Patient, error) {
	p.Normalize()
	patients, err := s.patients.List(ctx, &model.PatientFilters{
		HospitalID: actor.HospitalID,
		Search:     search,
		Pagination: p,
	})
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	return patients, nil
}

// History lists every visit the patient has had, newest first.
func (s *Service) History(ctx context.Context, actor *model.Actor, patientID uuid.UUID) ([]*model.Visit, error) {
	if _, err := s.Get(ctx, actor, patientID); err != nil {
		return nil, err
	}
	visits, err := s.visits.List(ctx, &model.VisitFilters{
		HospitalID: actor.HospitalID,
		PatientID:  patientID,
	})
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	return visits, nil
}
