// Package interactions implements the signed interaction callback
// endpoint: request verification, typed payload extraction, and routing
// to the reporting-form handlers.
package interactions

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	// SignatureHeader is the HTTP header containing the ed25519 signature.
	SignatureHeader = "X-Signature-Ed25519"

	// TimestampHeader is the HTTP header containing the request timestamp.
	TimestampHeader = "X-Signature-Timestamp"
)

var (
	// ErrMissingSignature is returned when the signature header is missing.
	ErrMissingSignature = errors.New("missing signature header")

	// ErrMissingTimestamp is returned when the timestamp header is missing.
	ErrMissingTimestamp = errors.New("missing timestamp header")

	// ErrMalformedSignature is returned when the signature is not hex or
	// has the wrong length.
	ErrMalformedSignature = errors.New("malformed signature")

	// ErrInvalidSignature is returned when cryptographic verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Verifier checks ed25519 signatures on incoming interaction requests.
// The platform signs the concatenation of the timestamp header and the
// raw body bytes; verification happens before the body is ever parsed.
type Verifier struct {
	key ed25519.PublicKey
}

// NewVerifier creates a Verifier from the application's hex-encoded
// verify key, as returned by the current-application endpoint.
func NewVerifier(verifyKey string) (*Verifier, error) {
	raw, err := hex.DecodeString(verifyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode verify key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("verify key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return &Verifier{key: ed25519.PublicKey(raw)}, nil
}

// Verify checks a hex-encoded signature over timestamp||body.
func (v *Verifier) Verify(timestamp string, body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if timestamp == "" {
		return ErrMissingTimestamp
	}

	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return ErrMalformedSignature
	}

	signed := make([]byte, 0, len(timestamp)+len(body))
	signed = append(signed, timestamp...)
	signed = append(signed, body...)
	if !ed25519.Verify(v.key, signed, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifyRequest reads an HTTP request's body and verifies its signature
// headers, returning the raw body bytes on success. The body is replaced
// afterwards so downstream handlers can read it again.
func (v *Verifier) VerifyRequest(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	if err := v.Verify(r.Header.Get(TimestampHeader), body, r.Header.Get(SignatureHeader)); err != nil {
		return nil, err
	}
	return body, nil
}

// Sign creates a hex-encoded signature over timestamp||body.
// Useful for testing.
func Sign(key ed25519.PrivateKey, timestamp string, body []byte) string {
	signed := make([]byte, 0, len(timestamp)+len(body))
	signed = append(signed, timestamp...)
	signed = append(signed, body...)
	return hex.EncodeToString(ed25519.Sign(key, signed))
}
