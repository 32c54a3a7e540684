// Package tenant manages the hospital, its departments and its staff
// roster. Hospital registration spans the identity provider and the data
// store, so it runs as a saga with compensating deletes rather than a
// database transaction.
package tenant

import (
	"context"

	"github.com/google/uuid"

	idp "github.com/medicore/hospital-api/internal/identity"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/notify"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/internal/service/authz"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/metrics"
	"github.com/medicore/hospital-api/pkg/saga"
)

type Service struct {
	hospitals     repository.HospitalRepository
	departments   repository.DepartmentRepository
	profiles      repository.ProfileRepository
	visits        repository.VisitRepository
	vitals        repository.VitalRepository
	prescriptions repository.PrescriptionRepository
	provider      idp.Provider
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

func NewService(
	hospitals repository.HospitalRepository,
	departments repository.DepartmentRepository,
	profiles repository.ProfileRepository,
	visits repository.VisitRepository,
	vitals repository.VitalRepository,
	prescriptions repository.PrescriptionRepository,
	provider idp.Provider,
	notifier notify.Notifier,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		hospitals:     hospitals,
		departments:   departments,
		profiles:      profiles,
		visits:        visits,
		vitals:        vitals,
		prescriptions: prescriptions,
		provider:      provider,
		notifier:      notifier,
		metrics:       metrics,
		logger:        logger,
	}
}

// RegisterHospital creates the identity account, the hospital and the owner
// profile as one logical operation. Any later step failing rolls the
// earlier ones back; an incomplete rollback surfaces as PartialFailure.
func (s *Service) RegisterHospital(ctx context.Context, req *model.RegisterHospitalRequest) (*model.Hospital, error) {
	// Honeypot: the field is invisible to humans, so any value means a bot.
	// Reject with a generic message that gives nothing away.
	if req.Website != "" {
		return nil, apperrors.Validation("registration failed")
	}

	hospital := &model.Hospital{
		Base:               model.Base{ID: uuid.New()},
		Name:               req.HospitalName,
		SubscriptionStatus: model.SubscriptionActive,
	}
	var userID uuid.UUID

	reg := saga.New("register_hospital", s.logger).
		OnCompensation(func(string) { s.metrics.SagaCompensations.Inc() }).
		AddStep(saga.Step{
			Name: "create_account",
			Run: func(ctx context.Context) error {
				id, err := s.provider.CreateAccount(ctx, req.Email, req.Password)
				if err != nil {
					return err
				}
				userID = id
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.provider.DeleteAccount(ctx, userID)
			},
		}).
		AddStep(saga.Step{
			Name: "create_hospital",
			Run: func(ctx context.Context) error {
				if err := s.hospitals.Create(ctx, hospital); err != nil {
					return apperrors.Upstream(err)
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.hospitals.Delete(ctx, hospital.ID)
			},
		}).
		AddStep(saga.Step{
			Name: "create_owner_profile",
			Run: func(ctx context.Context) error {
				profile := &model.Profile{
					Base:        model.Base{ID: userID},
					Email:       req.Email,
					FullName:    req.FullName,
					HospitalID:  hospital.ID,
					Role:        model.RoleOwner,
					PasswordSet: true,
				}
				if err := s.profiles.Create(ctx, profile); err != nil {
					return apperrors.Upstream(err)
				}
				return nil
			},
		})

	if err := reg.Execute(ctx); err != nil {
		s.metrics.SagaExecutions.WithLabelValues("register_hospital", "failed").Inc()
		return nil, err
	}
	s.metrics.SagaExecutions.WithLabelValues("register_hospital", "ok").Inc()

	s.logger.Info("hospital registered", "hospital_id", hospital.ID, "owner_id", userID)
	return hospital, nil
}

// InviteStaff creates a pending identity account plus a profile bound to
// the inviter's hospital. Owner only.
func (s *Service) InviteStaff(ctx context.Context, actor *model.Actor, req *model.InviteStaffRequest) (*model.Profile, error) {
	if err := authz.Require(actor, authz.ActionInviteStaff); err != nil {
		return nil, err
	}
	if !model.Invitable(req.Role) {
		return nil, apperrors.Validation("role must be doctor, nurse or receptionist")
	}

	var departmentID *uuid.UUID
	if req.DepartmentID != "" {
		id, err := uuid.Parse(req.DepartmentID)
		if err != nil {
			return nil, apperrors.Validation("invalid department id")
		}
		if _, err := s.departments.Get(ctx, id, actor.HospitalID); err != nil {
			if err == repository.ErrNotFound {
				return nil, apperrors.NotFound("department")
			}
			return nil, apperrors.Upstream(err)
		}
		departmentID = &id
	}

	hospital, err := s.hospitals.Get(ctx, actor.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}

	userID, err := s.provider.InviteByEmail(ctx, req.Email, req.FullName, hospital.Name)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		Base:         model.Base{ID: userID},
		Email:        req.Email,
		FullName:     req.FullName,
		HospitalID:   actor.HospitalID,
		Role:         req.Role,
		DepartmentID: departmentID,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		// Roll the invite back so a retry is clean.
		if delErr := s.provider.DeleteAccount(ctx, userID); delErr != nil {
			return nil, apperrors.PartialFailure("invite created but profile failed and cleanup was incomplete", err)
		}
		return nil, apperrors.Upstream(err)
	}

	s.notifier.Changed(ctx, actor.HospitalID, "profiles", "insert", profile.ID)
	return profile, nil
}

func (s *Service) ListStaff(ctx context.Context, actor *model.Actor) ([]*model.Profile, error) {
	profiles, err := s.profiles.List(ctx, actor.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	return profiles, nil
}

func (s *Service) UpdateStaff(ctx context.Context, actor *model.Actor, profileID uuid.UUID, req *model.UpdateStaffRequest) (*model.Profile, error) {
	if err := authz.Require(actor, authz.ActionUpdateStaff); err != nil {
		return nil, err
	}

	profile, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("staff member")
		}
		return nil, apperrors.Upstream(err)
	}
	if err := authz.RequireTenant(actor, profile.HospitalID); err != nil {
		return nil, err
	}
	if profile.Role == model.RoleOwner {
		return nil, apperrors.Forbidden("the owner profile cannot be modified here")
	}

	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.Role != nil {
		profile.Role = *req.Role
	}
	if req.DepartmentID != nil {
		id, err := uuid.Parse(*req.DepartmentID)
		if err != nil {
			return nil, apperrors.Validation("invalid department id")
		}
		profile.DepartmentID = &id
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, apperrors.Upstream(err)
	}
	s.notifier.Changed(ctx, actor.HospitalID, "profiles", "update", profile.ID)
	return profile, nil
}

// RemoveStaff nulls every foreign key held by the staff member's records,
// deletes the identity account, then the profile row. The FK pass keeps
// in-progress visits retrievable with doctor_id NULL instead of orphaning
// them.
func (s *Service) RemoveStaff(ctx context.Context, actor *model.Actor, profileID uuid.UUID) error {
	if err := authz.Require(actor, authz.ActionRemoveStaff); err != nil {
		return err
	}

	profile, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("staff member")
		}
		return apperrors.Upstream(err)
	}
	if err := authz.RequireTenant(actor, profile.HospitalID); err != nil {
		return err
	}
	if profile.Role == model.RoleOwner {
		return apperrors.Forbidden("the owner cannot be removed")
	}

	if err := s.visits.ClearDoctorAssignments(ctx, profileID, actor.HospitalID); err != nil {
		return apperrors.Upstream(err)
	}
	if err := s.vitals.ClearRecordedBy(ctx, profileID, actor.HospitalID); err != nil {
		return apperrors.Upstream(err)
	}
	if err := s.prescriptions.ClearDoctor(ctx, profileID, actor.HospitalID); err != nil {
		return apperrors.Upstream(err)
	}

	if err := s.provider.DeleteAccount(ctx, profileID); err != nil {
		return err
	}

	// The account cascade may already have removed the profile; a zero-row
	// delete is fine.
	if err := s.profiles.Delete(ctx, profileID, actor.HospitalID); err != nil {
		return apperrors.Upstream(err)
	}

	s.notifier.Changed(ctx, actor.HospitalID, "profiles", "delete", profileID)
	return nil
}

func (s *Service) UpdateHospital(ctx context.Context, actor *model.Actor, req *model.UpdateHospitalRequest) (*model.Hospital, error) {
	if err := authz.Require(actor, authz.ActionUpdateHospital); err != nil {
		return nil, err
	}

	hospital, err := s.hospitals.Get(ctx, actor.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	if req.Name != nil {
		hospital.Name = *req.Name
	}
	if req.SubscriptionStatus != nil {
		hospital.SubscriptionStatus = *req.SubscriptionStatus
	}
	if err := s.hospitals.Update(ctx, hospital); err != nil {
		return nil, apperrors.Upstream(err)
	}
	return hospital, nil
}

func (s *Service) CreateDepartment(ctx context.Context, actor *model.Actor, req *model.CreateDepartmentRequest) (*model.Department, error) {
	if err := authz.Require(actor, authz.ActionManageDepartments); err != nil {
		return nil, err
	}

	department := &model.Department{
		Base:       model.Base{ID: uuid.New()},
		HospitalID: actor.HospitalID,
		Name:       req.Name,
	}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, apperrors.Upstream(err)
	}
	s.notifier.Changed(ctx, actor.HospitalID, "departments", "insert", department.ID)
	return department, nil
}

func (s *Service) ListDepartments(ctx context.Context, actor *model.Actor) ([]*model.Department, error) {
	departments, err := s.departments.List(ctx, actor.HospitalID)
	if err != nil {
		return nil, apperrors.Upstream(err)
	}
	return departments, nil
}

func (s *Service) DeleteDepartment(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	if err := authz.Require(actor, authz.ActionManageDepartments); err != nil {
		return err
	}
	if err := s.departments.Delete(ctx, id, actor.HospitalID); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("department")
		}
		return apperrors.Upstream(err)
	}
	s.notifier.Changed(ctx, actor.HospitalID, "departments", "delete", id)
	return nil
}
