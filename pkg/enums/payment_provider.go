package enums

import "fmt"

// PaymentProvider identifies the channel an order was (or will be) paid through.
type PaymentProvider string

const (
	PaymentProviderPayPal       PaymentProvider = "PAYPAL"
	PaymentProviderStripe       PaymentProvider = "STRIPE"
	PaymentProviderCash         PaymentProvider = "CASH"
	PaymentProviderBankTransfer PaymentProvider = "BANK_TRANSFER"
)

var validPaymentProviders = []PaymentProvider{
	PaymentProviderPayPal,
	PaymentProviderStripe,
	PaymentProviderCash,
	PaymentProviderBankTransfer,
}

// String implements fmt.Stringer.
func (p PaymentProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentProvider.
func (p PaymentProvider) IsValid() bool {
	for _, candidate := range validPaymentProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentProvider converts raw input into a PaymentProvider.
func ParsePaymentProvider(value string) (PaymentProvider, error) {
	for _, candidate := range validPaymentProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment provider %q", value)
}
