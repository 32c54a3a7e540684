package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/pkg/auth"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
)

type fakeProvider struct {
	userID   uuid.UUID
	email    string
	password string
	updated  map[uuid.UUID]string
}

func (f *fakeProvider) CreateAccount(_ context.Context, _, _ string) (uuid.UUID, error) {
	return uuid.Nil, apperrors.Internal(nil)
}

func (f *fakeProvider) InviteByEmail(_ context.Context, _, _, _ string) (uuid.UUID, error) {
	return uuid.Nil, apperrors.Internal(nil)
}

func (f *fakeProvider) DeleteAccount(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeProvider) VerifyPassword(_ context.Context, email, password string) (uuid.UUID, error) {
	if email != f.email || password != f.password {
		return uuid.Nil, apperrors.Unauthenticated("invalid credentials")
	}
	return f.userID, nil
}

func (f *fakeProvider) UpdatePassword(_ context.Context, id uuid.UUID, password string) error {
	f.updated[id] = password
	return nil
}

func (f *fakeProvider) SendPasswordReset(_ context.Context, _ string) error { return nil }

func (f *fakeProvider) ResetPassword(_ context.Context, token, password string) (uuid.UUID, error) {
	if token != "valid-token" {
		return uuid.Nil, apperrors.Unauthenticated("invalid or expired reset token")
	}
	f.updated[f.userID] = password
	return f.userID, nil
}

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*model.Profile
}

func (f *fakeProfileRepo) Create(_ context.Context, p *model.Profile) error {
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeProfileRepo) Get(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfileRepo) List(_ context.Context, _ uuid.UUID) ([]*model.Profile, error) {
	return nil, nil
}

func (f *fakeProfileRepo) Update(_ context.Context, p *model.Profile) error {
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeProfileRepo) Delete(_ context.Context, id, _ uuid.UUID) error {
	delete(f.profiles, id)
	return nil
}

var _ repository.ProfileRepository = (*fakeProfileRepo)(nil)

func newFixture(t *testing.T) (*Service, *fakeProvider, *fakeProfileRepo, *model.Profile) {
	t.Helper()

	userID := uuid.New()
	provider := &fakeProvider{
		userID:   userID,
		email:    "doc@citycare.example",
		password: "s3cret-pass",
		updated:  make(map[uuid.UUID]string),
	}
	profile := &model.Profile{
		Base:        model.Base{ID: userID},
		Email:       "doc@citycare.example",
		HospitalID:  uuid.New(),
		Role:        model.RoleDoctor,
		PasswordSet: true,
	}
	profiles := &fakeProfileRepo{profiles: map[uuid.UUID]*model.Profile{userID: profile}}

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})
	return NewService(profiles, provider, jwtSvc, time.Hour), provider, profiles, profile
}

func TestLogin(t *testing.T) {
	svc, _, _, profile := newFixture(t)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "doc@citycare.example",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)

	// The issued token resolves back to the same actor.
	actor, err := svc.Resolve(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.HospitalID, actor.HospitalID)
	assert.Equal(t, model.RoleDoctor, actor.Role)
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "doc@citycare.example",
		Password: "wrong",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}

func TestResolveWithoutProfile(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	_, err := svc.Resolve(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}

func TestRefresh(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "doc@citycare.example",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(context.Background(), "garbage")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}

func TestSetPasswordMarksProfile(t *testing.T) {
	svc, provider, profiles, profile := newFixture(t)
	profile.PasswordSet = false

	require.NoError(t, svc.SetPassword(context.Background(), profile.ID, "new-password"))
	assert.Equal(t, "new-password", provider.updated[profile.ID])
	assert.True(t, profiles.profiles[profile.ID].PasswordSet)
}

func TestResetPassword(t *testing.T) {
	svc, provider, profiles, profile := newFixture(t)
	profile.PasswordSet = false

	require.NoError(t, svc.ResetPassword(context.Background(), "valid-token", "new-password"))
	assert.Equal(t, "new-password", provider.updated[profile.ID])
	assert.True(t, profiles.profiles[profile.ID].PasswordSet)

	err := svc.ResetPassword(context.Background(), "bad-token", "new-password")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}
