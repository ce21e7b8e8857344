package providerwebhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
)

func TestVerifierAcceptsValidSignature(t *testing.T) {
	verifier, err := NewVerifier("whsec_test")
	require.NoError(t, err)

	payload := []byte(`{"event_id":"evt_1"}`)
	require.NoError(t, verifier.Verify(payload, verifier.Sign(payload)))
}

func TestVerifierRejectsTamperedPayload(t *testing.T) {
	verifier, err := NewVerifier("whsec_test")
	require.NoError(t, err)

	payload := []byte(`{"event_id":"evt_1","amount_cents":100}`)
	header := verifier.Sign(payload)

	tampered := []byte(`{"event_id":"evt_1","amount_cents":999900}`)
	err = verifier.Verify(tampered, header)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestVerifierRejectsWrongSecret(t *testing.T) {
	signer, err := NewVerifier("whsec_a")
	require.NoError(t, err)
	verifier, err := NewVerifier("whsec_b")
	require.NoError(t, err)

	payload := []byte(`{"event_id":"evt_1"}`)
	require.Error(t, verifier.Verify(payload, signer.Sign(payload)))
}

func TestVerifierRejectsMissingHeader(t *testing.T) {
	verifier, err := NewVerifier("whsec_test")
	require.NoError(t, err)

	require.Error(t, verifier.Verify([]byte(`{}`), ""))
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("")
	require.Error(t, err)
}
