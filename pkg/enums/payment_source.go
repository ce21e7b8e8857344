package enums

import "fmt"

// PaymentSource identifies which confirmation path produced a ledger entry.
type PaymentSource string

const (
	PaymentSourceProvider       PaymentSource = "provider"
	PaymentSourceClientFallback PaymentSource = "client_fallback"
)

var validPaymentSources = []PaymentSource{
	PaymentSourceProvider,
	PaymentSourceClientFallback,
}

// String implements fmt.Stringer.
func (s PaymentSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentSource.
func (s PaymentSource) IsValid() bool {
	for _, candidate := range validPaymentSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentSource converts raw input into a PaymentSource.
func ParsePaymentSource(value string) (PaymentSource, error) {
	for _, candidate := range validPaymentSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment source %q", value)
}
