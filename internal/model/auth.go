package model

import "github.com/google/uuid"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type SetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Actor is the resolved identity attached to every authenticated request:
// who is acting, for which hospital, in which role.
type Actor struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	HospitalID uuid.UUID `json:"hospital_id"`
	Role       Role      `json:"role"`
}
