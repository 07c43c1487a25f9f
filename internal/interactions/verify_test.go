package interactions

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func TestVerifyAcceptsSignedPayload(t *testing.T) {
	pub, priv := testKeyPair(t)
	verifier, err := NewVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)

	body := []byte(`{"type":1}`)
	timestamp := "1700000000"

	err = verifier.Verify(timestamp, body, Sign(priv, timestamp, body))
	require.NoError(t, err, "valid signature should be accepted")
}

func TestVerifyRejectsBadSignatures(t *testing.T) {
	pub, priv := testKeyPair(t)
	verifier, err := NewVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)

	body := []byte(`{"type":1}`)
	timestamp := "1700000000"
	valid := Sign(priv, timestamp, body)

	tampered, err := hex.DecodeString(valid)
	require.NoError(t, err)
	tampered[0] ^= 0xff

	testCases := []struct {
		name      string
		timestamp string
		body      []byte
		signature string
		wantErr   error
	}{
		{
			name:      "missing signature",
			timestamp: timestamp,
			body:      body,
			signature: "",
			wantErr:   ErrMissingSignature,
		},
		{
			name:      "missing timestamp",
			timestamp: "",
			body:      body,
			signature: valid,
			wantErr:   ErrMissingTimestamp,
		},
		{
			name:      "invalid hex",
			timestamp: timestamp,
			body:      body,
			signature: "not-valid-hex!",
			wantErr:   ErrMalformedSignature,
		},
		{
			name:      "wrong length",
			timestamp: timestamp,
			body:      body,
			signature: "deadbeef",
			wantErr:   ErrMalformedSignature,
		},
		{
			name:      "tampered signature",
			timestamp: timestamp,
			body:      body,
			signature: hex.EncodeToString(tampered),
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "tampered body",
			timestamp: timestamp,
			body:      []byte(`{"type":2}`),
			signature: valid,
			wantErr:   ErrInvalidSignature,
		},
		{
			name:      "tampered timestamp",
			timestamp: "1700000001",
			body:      body,
			signature: valid,
			wantErr:   ErrInvalidSignature,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := verifier.Verify(tc.timestamp, tc.body, tc.signature)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNewVerifierRejectsBadKeys(t *testing.T) {
	_, err := NewVerifier("not hex")
	require.Error(t, err)

	_, err = NewVerifier(hex.EncodeToString([]byte("too short")))
	require.Error(t, err)
}

func TestVerifyRequestReplaysBody(t *testing.T) {
	pub, priv := testKeyPair(t)
	verifier, err := NewVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)

	body := []byte(`{"type":1}`)
	timestamp := "1700000000"

	req := httptest.NewRequest("POST", "/api/interactions", bytes.NewReader(body))
	req.Header.Set(TimestampHeader, timestamp)
	req.Header.Set(SignatureHeader, Sign(priv, timestamp, body))

	got, err := verifier.VerifyRequest(req)
	require.NoError(t, err)
	require.Equal(t, body, got)

	// The body must still be readable after verification.
	reread, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	require.Equal(t, body, reread)
}

func TestVerifyRequestRejectsUnsignedRequest(t *testing.T) {
	pub, _ := testKeyPair(t)
	verifier, err := NewVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/interactions", bytes.NewReader([]byte(`{"type":1}`)))

	_, err = verifier.VerifyRequest(req)
	require.ErrorIs(t, err, ErrMissingSignature)
}
