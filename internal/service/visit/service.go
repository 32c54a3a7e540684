// Package visit implements the care workflow. Every visit moves forward
// through waiting_vitals, waiting_doctor, waiting_billing and completed,
// one step at a time; cancellation is the only sideways exit. Transitions
// are conditional updates in the store, so concurrent writers cannot
// skip or repeat a step.
package visit

import (
	"context"
	"time"

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
	visits        repository.VisitRepository
	patients      repository.PatientRepository
	profiles      repository.ProfileRepository
	vitals        repository.VitalRepository
	prescriptions repository.PrescriptionRepository
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

func NewService(
	visits repository.VisitRepository,
	patients repository.PatientRepository,
	profiles repository.ProfileRepository,
	vitals repository.VitalRepository,
	prescriptions repository.PrescriptionRepository,
	notifier notify.Notifier,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		visits:        visits,
		patients:      patients,
		profiles:      profiles,
		vitals:        vitals,
		prescriptions: prescriptions,
		notifier:      notifier,
		metrics:       metrics,
		logger:        logger,
	}
}

// Open creates a visit in waiting_vitals for an existing patient.
func (s *Service) Open(ctx context.Context, actor *model.Actor, req *model.OpenVisitRequest) (*model.Visit, error) {
	if err := authz.Require(actor, authz.ActionOpenVisit); err != nil {
		return nil, err
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.Validation("invalid patient id")
	}
	if _, err := s.patients.Get(ctx, patientID, actor.HospitalID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Upstream(err)
	}

	visit := &model.Visit{
		Base:           model.Base{ID: uuid.New()},
		HospitalID:     actor.HospitalID,
		PatientID:      patientID,
		ChiefComplaint: req.ChiefComplaint,
		VisitDate:      time.Now(),
		Status:         model.VisitWaitingVitals,
		PaymentStatus:  model.PaymentPending,
	}
	if err := s.visits.Create(ctx, visit); err != nil {
		return nil, apperrors.Upstream(err)
	}

	s.metrics.VisitTransitions.WithLabelValues("", string(model.VisitWaitingVitals), "ok").Inc()
	s.metrics.ActiveVisits.Inc()
	s.notifier.Changed(ctx, actor.HospitalID, "visits", "insert", visit.ID)
	return visit, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Visit, error) {
	visit, err := s.visits.Get(ctx, id, actor.HospitalID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("visit")
		}
		return nil, apperrors.Upstream(err)
	}
	return visit, nil
}

// RecordVitals stores the measurement set and hands the visit to the
// chosen doctor. Re-submitting after a success is a no-op that returns
// the visit as it stands.
func (s *Service) RecordVitals(ctx context.Context, actor *model.Actor, visitID uuid.UUID, req *model.RecordVitalsRequest) (*model.Visit, error) {
	if err := authz.Require(actor, authz.ActionRecordVitals); err != nil {
		return nil, err
	}

	visit, err := s.Get(ctx, actor, visitID)
	if err != nil {
		return nil, err
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperrors.Validation("invalid doctor id")
	}
	doctor, err := s.profiles.Get(ctx, doctorID)
	if err != nil || doctor.HospitalID != actor.HospitalID || doctor.Role != model.RoleDoctor {
		return nil, apperrors.Validation("doctor_id must reference a doctor at this hospital")
	}

	if !req.IsEmergency && (req.BloodPressure == "" || req.HeartRate == nil) {
		return nil, apperrors.Validation("blood pressure and heart rate are required for non-emergency visits")
	}

	switch visit.Status {
	case model.VisitWaitingVitals:
		// Proceed.
	case model.VisitWaitingDoctor:
		// Already advanced. If the measurement set exists this is a replay.
		if _, err := s.vitals.GetByVisit(ctx, visitID, actor.HospitalID); err == nil {
			return visit, nil
		}
		return nil, s.transitionConflict(visit, model.VisitWaitingDoctor)
	default:
		return nil, s.transitionConflict(visit, model.VisitWaitingDoctor)
	}

	vital := &model.Vital{
		Base:          model.Base{ID: uuid.New()},
		HospitalID:    actor.HospitalID,
		VisitID:       visitID,
		PatientID:     visit.PatientID,
		RecordedBy:    &actor.UserID,
		BloodPressure: req.BloodPressure,
		HeartRate:     req.HeartRate,
		Temperature:   req.Temperature,
		OxygenLevel:   req.OxygenLevel,
	}
	if err := s.vitals.Create(ctx, vital); err != nil {
		if err == repository.ErrDuplicate {
			// A concurrent submission beat us. Treat ours as the replay.
			return s.replayOrConflict(ctx, actor, visitID, model.VisitWaitingDoctor)
		}
		return nil, apperrors.Upstream(err)
	}

	if err := s.visits.AdvanceToDoctor(ctx, visitID, actor.HospitalID, doctorID, req.IsEmergency); err != nil {
		if err == repository.ErrConflict {
			replayed, rerr := s.replayOrConflict(ctx, actor, visitID, model.VisitWaitingDoctor)
			if rerr != nil {
				// The visit left the workflow between our insert and the
				// status update, usually a concurrent cancel. Detach the
				// measurement set so the terminal visit stays clean.
				if derr := s.vitals.Delete(ctx, vital.ID, actor.HospitalID); derr != nil && derr != repository.ErrNotFound {
					s.logger.Error(derr, "failed to remove orphaned vitals", "visit_id", visitID)
				}
				return nil, rerr
			}
			return replayed, nil
		}
		return nil, apperrors.Upstream(err)
	}

	s.recordTransition(model.VisitWaitingVitals, model.VisitWaitingDoctor)
	s.notifier.Changed(ctx, actor.HospitalID, "visits", "update", visitID)
	return s.Get(ctx, actor, visitID)
}

// RecordPrescription stores the consultation outcome and moves the visit
// to billing. Only the doctor the visit was assigned to may write it.
func (s *Service) RecordPrescription(ctx context.Context, actor *model.Actor, visitID uuid.UUID, req *model.RecordPrescriptionRequest) (*model.Visit, error) {
	if err := authz.Require(actor, authz.ActionRecordPrescription); err != nil {
		return nil, err
	}

	visit, err := s.Get(ctx, actor, visitID)
	if err != nil {
		return nil, err
	}
	if visit.DoctorID == nil || *visit.DoctorID != actor.UserID {
		return nil, apperrors.Forbidden("this visit is assigned to a different doctor")
	}

	switch visit.Status {
	case model.VisitWaitingDoctor:
		// Proceed.
	case model.VisitWaitingBilling:
		if _, err := s.prescriptions.GetByVisit(ctx, visitID, actor.HospitalID); err == nil {
			return visit, nil
		}
		return nil, s.transitionConflict(visit, model.VisitWaitingBilling)
	default:
		return nil, s.transitionConflict(visit, model.VisitWaitingBilling)
	}

	prescription := &model.Prescription{
		Base:        model.Base{ID: uuid.New()},
		HospitalID:  actor.HospitalID,
		VisitID:     visitID,
		PatientID:   visit.PatientID,
		DoctorID:    &actor.UserID,
		Diagnosis:   req.Diagnosis,
		Medications: req.Medications,
		Notes:       req.Notes,
	}
	if err := s.prescriptions.Create(ctx, prescription); err != nil {
		if err == repository.ErrDuplicate {
			return s.replayOrConflict(ctx, actor, visitID, model.VisitWaitingBilling)
		}
		return nil, apperrors.Upstream(err)
	}

	if err := s.visits.AdvanceToBilling(ctx, visitID, actor.HospitalID); err != nil {
		if err == repository.ErrConflict {
			replayed, rerr := s.replayOrConflict(ctx, actor, visitID, model.VisitWaitingBilling)
			if rerr != nil {
				if derr := s.prescriptions.Delete(ctx, prescription.ID, actor.HospitalID); derr != nil && derr != repository.ErrNotFound {
					s.logger.Error(derr, "failed to remove orphaned prescription", "visit_id", visitID)
				}
				return nil, rerr
			}
			return replayed, nil
		}
		return nil, apperrors.Upstream(err)
	}

	s.recordTransition(model.VisitWaitingDoctor, model.VisitWaitingBilling)
	s.notifier.Changed(ctx, actor.HospitalID, "visits", "update", visitID)
	return s.Get(ctx, actor, visitID)
}

// Cancel aborts a non-terminal visit. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, actor *model.Actor, visitID uuid.UUID) (*model.Visit, error) {
	if err := authz.Require(actor, authz.ActionCancelVisit); err != nil {
		return nil, err
	}

	visit, err := s.Get(ctx, actor, visitID)
	if err != nil {
		return nil, err
	}
	if visit.Status == model.VisitCancelled {
		return visit, nil
	}
	if visit.Status == model.VisitCompleted {
		return nil, apperrors.Conflict("a completed visit cannot be cancelled")
	}

	from := visit.Status
	if err := s.visits.Cancel(ctx, visitID, actor.HospitalID); err != nil {
		if err == repository.ErrConflict {
			return s.replayOrConflict(ctx, actor, visitID, model.VisitCancelled)
		}
		return nil, apperrors.Upstream(err)
	}

	s.recordTransition(from, model.VisitCancelled)
	s.metrics.ActiveVisits.Dec()
	s.notifier.Changed(ctx, actor.HospitalID, "visits", "update", visitID)
	return s.Get(ctx, actor, visitID)
}

// List returns visits filtered for the caller's hospital. Receptionists
// and owners see everything; doctors default to their own consultation
// queue; nurses default to the vitals queue. An explicit status filter
// overrides the queue default.
func (s *Service) List(ctx context.Context, actor *model.Actor, filters *model.VisitFilters) ([]*model.Visit, error) {
	filters.HospitalID = actor.HospitalID
	switch actor.Role {
	case model.RoleDoctor:
		filters.DoctorID = actor.UserID
		if filters.Status == "" {
			filters.Status = model.VisitWaitingDoctor
		}
	case model.RoleNurse:
		if filters.Status == "" {
			filters.Status = model.VisitWaitingVitals
		}
	}
	visits, err := s.visits.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	return visits, nil
}

// Detail returns the visit with its vitals and prescription when present.
func (s *Service) Detail(ctx context.Context, actor *model.Actor, visitID uuid.UUID) (*model.Visit, *model.Vital, *model.Prescription, error) {
	visit, err := s.Get(ctx, actor, visitID)
	if err != nil {
		return nil, nil, nil, err
	}
	vital, err := s.vitals.GetByVisit(ctx, visitID, actor.HospitalID)
	if err != nil && err != repository.ErrNotFound {
		return nil, nil, nil, apperrors.Upstream(err)
	}
	prescription, err := s.prescriptions.GetByVisit(ctx, visitID, actor.HospitalID)
	if err != nil && err != repository.ErrNotFound {
		return nil, nil, nil, apperrors.Upstream(err)
	}
	return visit, vital, prescription, nil
}

// replayOrConflict re-reads the visit after a lost conditional update. If
// another request already landed the same transition, the retry succeeds
// idempotently; anything else is a conflict.
func (s *Service) replayOrConflict(ctx context.Context, actor *model.Actor, visitID uuid.UUID, want model.VisitStatus) (*model.Visit, error) {
	visit, err := s.Get(ctx, actor, visitID)
	if err != nil {
		return nil, err
	}
	if visit.Status == want {
		return visit, nil
	}
	return nil, s.transitionConflict(visit, want)
}

func (s *Service) transitionConflict(visit *model.Visit, want model.VisitStatus) error {
	s.metrics.VisitTransitions.WithLabelValues(string(visit.Status), string(want), "conflict").Inc()
	return apperrors.Conflict("visit is in state " + string(visit.Status) + ", cannot move to " + string(want))
}

func (s *Service) recordTransition(from, to model.VisitStatus) {
	s.metrics.VisitTransitions.WithLabelValues(string(from), string(to), "ok").Inc()
}
