package interactions

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomairborne/aghast/internal/discord"
)

func newTestHandler(t *testing.T) (*Handler, ed25519.PrivateKey) {
	t.Helper()
	pub, priv := testKeyPair(t)
	verifier, err := NewVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)

	return &Handler{
		Verifier:   verifier,
		Dispatcher: &Dispatcher{Log: zerolog.Nop()},
		Log:        zerolog.Nop(),
	}, priv
}

func signedRequest(priv ed25519.PrivateKey, body []byte) *http.Request {
	timestamp := "1700000000"
	req := httptest.NewRequest("POST", "/api/interactions", bytes.NewReader(body))
	req.Header.Set(TimestampHeader, timestamp)
	req.Header.Set(SignatureHeader, Sign(priv, timestamp, body))
	return req
}

func TestHandlerRejectsUnsignedRequests(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/interactions", bytes.NewReader([]byte(`{"type":1}`))))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Bad signature or headers"}`, rec.Body.String())
}

func TestHandlerRejectsTamperedBody(t *testing.T) {
	handler, priv := newTestHandler(t)

	req := signedRequest(priv, []byte(`{"type":1}`))
	req.Body = httptest.NewRequest("POST", "/", bytes.NewReader([]byte(`{"type":2}`))).Body

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerRejectsMalformedJSON(t *testing.T) {
	handler, priv := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(priv, []byte(`{not json`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Bad JSON body"}`, rec.Body.String())
}

func TestHandlerAnswersPingWithPong(t *testing.T) {
	handler, priv := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(priv, []byte(`{"type":1}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp discord.InteractionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, discord.ResponsePong, resp.Type)
}

func TestHandlerRunsBusinessFlowEndToEnd(t *testing.T) {
	handler, priv := newTestHandler(t)
	app, poster := newTestApp()
	handler.Dispatcher.OnComponent = app.HandleComponent

	payload := map[string]any{
		"type": discord.InteractionTypeMessageComponent,
		"data": map[string]any{"custom_id": "report:555", "component_type": discord.ComponentTypeButton},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(priv, body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ModMail Form")
	assert.Contains(t, rec.Body.String(), "open_resp:555")
	assert.Empty(t, poster.posted)
}
