package models

import (
	"time"

	id "profast/pkg/domain"
)

// Payment records a confirmed charge against one parcel. It is written in the
// same transaction that marks the parcel paid and never changes afterwards.
type Payment struct {
	ID            id.PaymentID `json:"_id"`
	ParcelID      id.ParcelID  `json:"parcelId"`
	Email         string       `json:"email"`
	Amount        float64      `json:"amount"`
	PaymentMethod string       `json:"paymentMethod,omitempty"`
	TransactionID string       `json:"transactionId,omitempty"`
	PaidAtString  string       `json:"paid_at_string"`
	PaidAt        time.Time    `json:"paid_at"`
}

// RecordRequest is the body of POST /payments.
type RecordRequest struct {
	ParcelID      string     `json:"parcelId"`
	Email         string     `json:"email"`
	Amount        *id.Number `json:"amount"`
	PaymentMethod string     `json:"paymentMethod"`
	TransactionID string     `json:"transactionId"`
}

// IntentRequest is the body of POST /create-payment-intent.
type IntentRequest struct {
	AmountInCents *id.Number `json:"amountInCents"`
}

// Intent is what the client needs to confirm a charge.
type Intent struct {
	ClientSecret string `json:"clientSecret"`
}

type ListQuery struct {
	Email string
	Page  id.Page
}

// PaidAtLayout renders paid_at_string with millisecond precision in UTC.
const PaidAtLayout = "2006-01-02T15:04:05.000Z07:00"
