package providerwebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
)

// Verifier authenticates that a webhook payload originated from the payment
// provider. It has no side effects and only guards the trusted path; the
// client-return path never carries a signature.
type Verifier struct {
	secret string
}

// NewVerifier builds a verifier over the shared webhook secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret required")
	}
	return &Verifier{secret: secret}, nil
}

// Verify checks the claimed signature against an HMAC-SHA256 digest of the
// raw body. The comparison is constant time.
func (v *Verifier) Verify(payload []byte, header string) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment signature missing")
	}
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(header)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment signature")
	}
	return nil
}

// Sign computes the hex signature for a payload. Used by tests and the
// provider simulator in dev tooling.
func (v *Verifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
