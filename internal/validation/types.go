package validation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// PaymentRequest is the payload for POST /payments.
type PaymentRequest struct {
	CorrelationID string          `json:"correlationId" validate:"required,uuid"` // caller-supplied payment identity
	Amount        decimal.Decimal `json:"amount"`                                 // must be strictly positive (struct-level check)
}

// Payment converts a validated request into the domain type.
func (r PaymentRequest) Payment() (payments.Payment, error) {
	id, err := uuid.Parse(r.CorrelationID)
	if err != nil {
		return payments.Payment{}, err
	}
	return payments.Payment{CorrelationID: id, Amount: r.Amount}, nil
}
