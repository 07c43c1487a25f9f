package interactions

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/randomairborne/aghast/internal/discord"
	"github.com/randomairborne/aghast/internal/metrics"
)

// Handler is the HTTP endpoint for signed interaction callbacks.
// Signature verification runs against the raw body before any JSON is
// parsed; only authentication and body-shape failures produce non-2xx
// statuses, everything else is reported in-band.
type Handler struct {
	Verifier   *Verifier
	Dispatcher *Dispatcher
	Log        zerolog.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := h.Verifier.VerifyRequest(r)
	if err != nil {
		metrics.InteractionAuthFailures.Inc()
		h.Log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("rejected interaction request")
		writeError(w, http.StatusUnauthorized, "Bad signature or headers")
		return
	}

	var interaction discord.Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		h.Log.Warn().Err(err).Msg("unparseable interaction body")
		writeError(w, http.StatusBadRequest, "Bad JSON body")
		return
	}

	resp := h.Dispatcher.Dispatch(r.Context(), &interaction)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Error().Err(err).Msg("failed to write interaction response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}
