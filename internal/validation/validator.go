package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// decimal.Decimal is opaque to tag-based rules, so the positivity check
	// is struct-level.
	v.RegisterStructValidation(paymentStructValidation, PaymentRequest{})

	return v
}

func paymentStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(PaymentRequest)

	if !req.Amount.IsPositive() {
		sl.ReportError(req.Amount, "amount", "Amount", "amount_positive", "")
	}
}
