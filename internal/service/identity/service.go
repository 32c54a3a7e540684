// Package identity resolves authenticated principals to an Actor: the
// profile's hospital and role. Every other service trusts the Actor it is
// handed, so this resolution gates the whole system.
package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	idp "github.com/medicore/hospital-api/internal/identity"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/pkg/auth"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
)

type Service struct {
	profiles repository.ProfileRepository
	provider idp.Provider
	jwtSvc   auth.JWTService
	expiry   time.Duration
}

func NewService(profiles repository.ProfileRepository, provider idp.Provider, jwtSvc auth.JWTService, expiry time.Duration) *Service {
	if expiry == 0 {
		expiry = 24 * time.Hour
	}
	return &Service{
		profiles: profiles,
		provider: provider,
		jwtSvc:   jwtSvc,
		expiry:   expiry,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	userID, err := s.provider.VerifyPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	actor, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(actor)
}

// Resolve maps an authenticated principal to {hospital_id, role}. An
// authenticated user without a profile row is an error state that requires
// sign-out, not a silent pass-through.
func (s *Service) Resolve(ctx context.Context, userID uuid.UUID) (*model.Actor, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.Unauthenticated("no staff profile for this account, please sign out")
		}
		return nil, apperrors.Upstream(err)
	}
	return &model.Actor{
		UserID:     profile.ID,
		Email:      profile.Email,
		HospitalID: profile.HospitalID,
		Role:       profile.Role,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	userID, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthenticated("invalid refresh token")
	}
	actor, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(actor)
}

// SetPassword activates an invited account (or updates an existing one) and
// flips the profile's password_set flag.
func (s *Service) SetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	if err := s.provider.UpdatePassword(ctx, userID, password); err != nil {
		return err
	}
	return s.markPasswordSet(ctx, userID)
}

func (s *Service) markPasswordSet(ctx context.Context, userID uuid.UUID) error {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("profile")
		}
		return apperrors.Upstream(err)
	}
	if !profile.PasswordSet {
		profile.PasswordSet = true
		if err := s.profiles.Update(ctx, profile); err != nil {
			return apperrors.Upstream(err)
		}
	}
	return nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	return s.provider.SendPasswordReset(ctx, email)
}

func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	userID, err := s.provider.ResetPassword(ctx, token, password)
	if err != nil {
		return err
	}
	return s.markPasswordSet(ctx, userID)
}

func (s *Service) issueTokens(actor *model.Actor) (*model.TokenResponse, error) {
	claims := &auth.Claims{
		UserID:     actor.UserID,
		Email:      actor.Email,
		HospitalID: actor.HospitalID,
		Role:       string(actor.Role),
	}
	access, err := s.jwtSvc.GenerateAccessToken(claims)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(actor.UserID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.expiry.Seconds()),
	}, nil
}
