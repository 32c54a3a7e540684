package model

import "github.com/google/uuid"

type InvoiceStatus string

const (
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceRefunded InvoiceStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentCash      PaymentMethod = "cash"
	PaymentCard      PaymentMethod = "card"
	PaymentUPI       PaymentMethod = "upi"
	PaymentInsurance PaymentMethod = "insurance"
)

// Invoice is the billed total for a completed visit, 1:1 with the visit.
type Invoice struct {
	Base
	HospitalID    uuid.UUID     `db:"hospital_id" json:"hospital_id"`
	VisitID       uuid.UUID     `db:"visit_id" json:"visit_id"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id"`
	TotalAmount   float64       `db:"total_amount" json:"total_amount"`
	Status        InvoiceStatus `db:"status" json:"status"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method"`

	Items []*InvoiceItem `db:"-" json:"items,omitempty"`
}

type InvoiceItem struct {
	Base
	InvoiceID   uuid.UUID `db:"invoice_id" json:"invoice_id"`
	Description string    `db:"description" json:"description"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitPrice   float64   `db:"unit_price" json:"unit_price"`
	Total       float64   `db:"total" json:"total"`
}

type InvoiceItemInput struct {
	Description string  `json:"description" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,min=1"`
	UnitPrice   float64 `json:"unit_price" binding:"min=0"`
}

// GenerateInvoiceRequest closes out a visit in waiting_billing. When Items
// is empty the line items are seeded from the prescription's medications
// plus the configured consultation fee.
type GenerateInvoiceRequest struct {
	Items         []InvoiceItemInput `json:"items" binding:"omitempty,dive"`
	PaymentMethod PaymentMethod      `json:"payment_method" binding:"required,oneof=cash card upi insurance"`
}

// InvoiceView is the read-only projection for display and printing.
type InvoiceView struct {
	Invoice      *Invoice      `json:"invoice"`
	Patient      *Patient      `json:"patient"`
	Visit        *Visit        `json:"visit"`
	Prescription *Prescription `json:"prescription,omitempty"`
	Hospital     *Hospital     `json:"hospital"`
}
