// Package identity implements the identity-provider boundary: account
// creation, email invitations, credential checks and deletion. The rest of
// the system only sees the Provider interface, so swapping in a hosted
// provider means one new implementation.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/email"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/security"
)

const resetTokenExpiry = 1 * time.Hour

type Provider interface {
	// CreateAccount registers a credentialed account and returns its id.
	CreateAccount(ctx context.Context, email, password string) (uuid.UUID, error)
	// InviteByEmail creates a passwordless account and mails an activation
	// link. The account stays unusable until the password is set.
	InviteByEmail(ctx context.Context, emailAddr, fullName, hospitalName string) (uuid.UUID, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	VerifyPassword(ctx context.Context, emailAddr, password string) (uuid.UUID, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, password string) error
	SendPasswordReset(ctx context.Context, emailAddr string) error
	ResetPassword(ctx context.Context, token, password string) (uuid.UUID, error)
}

type provider struct {
	accounts repository.AccountRepository
	hasher   security.PasswordHasher
	mailer   email.Service
}

func NewProvider(accounts repository.AccountRepository, hasher security.PasswordHasher, mailer email.Service) Provider {
	return &provider{accounts: accounts, hasher: hasher, mailer: mailer}
}

func (p *provider) CreateAccount(ctx context.Context, emailAddr, password string) (uuid.UUID, error) {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return uuid.Nil, apperrors.Validation(err.Error())
	}

	account := &model.Account{
		ID:           uuid.New(),
		Email:        emailAddr,
		PasswordHash: hash,
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		if err == repository.ErrDuplicate {
			return uuid.Nil, apperrors.Validation("an account with this email already exists")
		}
		return uuid.Nil, apperrors.Upstream(err)
	}
	return account.ID, nil
}

func (p *provider) InviteByEmail(ctx context.Context, emailAddr, fullName, hospitalName string) (uuid.UUID, error) {
	account := &model.Account{
		ID:    uuid.New(),
		Email: emailAddr,
		// unmatchable hash: the account cannot log in until a password is set
		PasswordHash: "!invited",
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		if err == repository.ErrDuplicate {
			return uuid.Nil, apperrors.Validation("an account with this email already exists")
		}
		return uuid.Nil, apperrors.Upstream(err)
	}

	token, err := p.issueResetToken(ctx, account.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := p.mailer.SendInvite(ctx, emailAddr, fullName, hospitalName, token); err != nil {
		// The invite exists; mail delivery is retryable via password reset.
		return account.ID, apperrors.Upstream(err)
	}
	return account.ID, nil
}

func (p *provider) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := p.accounts.Delete(ctx, id); err != nil {
		return apperrors.Upstream(err)
	}
	return nil
}

func (p *provider) VerifyPassword(ctx context.Context, emailAddr, password string) (uuid.UUID, error) {
	account, err := p.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if err == repository.ErrNotFound {
			return uuid.Nil, apperrors.Unauthenticated("invalid credentials")
		}
		return uuid.Nil, apperrors.Upstream(err)
	}
	if err := p.hasher.Compare(account.PasswordHash, password); err != nil {
		return uuid.Nil, apperrors.Unauthenticated("invalid credentials")
	}
	return account.ID, nil
}

func (p *provider) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return apperrors.Validation(err.Error())
	}
	if err := p.accounts.UpdatePassword(ctx, id, hash); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("account")
		}
		return apperrors.Upstream(err)
	}
	return nil
}

func (p *provider) SendPasswordReset(ctx context.Context, emailAddr string) error {
	account, err := p.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		// Do not reveal whether the address exists.
		if err == repository.ErrNotFound {
			return nil
		}
		return apperrors.Upstream(err)
	}

	token, err := p.issueResetToken(ctx, account.ID)
	if err != nil {
		return err
	}
	if err := p.mailer.SendPasswordReset(ctx, emailAddr, token); err != nil {
		return apperrors.Upstream(err)
	}
	return nil
}

func (p *provider) ResetPassword(ctx context.Context, token, password string) (uuid.UUID, error) {
	account, err := p.accounts.GetByResetToken(ctx, token)
	if err != nil {
		if err == repository.ErrNotFound {
			return uuid.Nil, apperrors.Validation("invalid or expired reset token")
		}
		return uuid.Nil, apperrors.Upstream(err)
	}
	if err := p.UpdatePassword(ctx, account.ID, password); err != nil {
		return uuid.Nil, err
	}
	return account.ID, nil
}

func (p *provider) issueResetToken(ctx context.Context, id uuid.UUID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", apperrors.Internal(err)
	}
	token := hex.EncodeToString(buf)
	if err := p.accounts.SetResetToken(ctx, id, token, time.Now().Add(resetTokenExpiry)); err != nil {
		return "", apperrors.Upstream(err)
	}
	return token, nil
}
