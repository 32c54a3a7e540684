package model

type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionTrial   SubscriptionStatus = "trial"
	SubscriptionPastDue SubscriptionStatus = "past_due"
)

// Hospital is the tenant root. Every other row carries its id and is
// invisible outside it.
type Hospital struct {
	Base
	Name               string             `db:"name" json:"name"`
	SubscriptionStatus SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
}

// RegisterHospitalRequest creates a tenant together with its owner account.
// Website is a honeypot: real users never see the field, bots fill it.
type RegisterHospitalRequest struct {
	HospitalName string `json:"hospitalName" binding:"required,min=2"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	FullName     string `json:"fullName" binding:"required,min=2"`
	Website      string `json:"website"`
}

type UpdateHospitalRequest struct {
	Name               *string             `json:"name" binding:"omitempty,min=2"`
	SubscriptionStatus *SubscriptionStatus `json:"subscription_status" binding:"omitempty,oneof=active trial past_due"`
}
