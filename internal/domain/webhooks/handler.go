package webhooks

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const maxPayloadBytes = 1 << 20 // GitHub corta los payloads en ~25MB; 1MB alcanza para lo que miramos

func RegisterRoutes(r chi.Router, svc *Service, secret string) {
	r.Post("/webhooks/github", receiveHandler(svc, secret))
}

type webhookResponse struct {
	Result string `json:"result"`
}

// receiveHandler godoc
// @Summary GitHub webhook receiver
// @Description Verifies X-Hub-Signature-256 (HMAC-SHA256) and dispatches by X-GitHub-Event.
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} webhookResponse
// @Failure 401 {object} apiError
// @Router /api/v1/webhooks/github [post]
func receiveHandler(svc *Service, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "cannot read body")
			return
		}

		// Sin secret configurado no se verifica (solo dev).
		if secret != "" {
			sig := r.Header.Get("X-Hub-Signature-256")
			if !VerifySignature(body, sig, secret) {
				writeError(w, http.StatusUnauthorized, "invalid signature")
				return
			}
		}

		eventType := r.Header.Get("X-GitHub-Event")
		result, err := svc.Dispatch(r.Context(), eventType, body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, webhookResponse{Result: result})
	}
}

type apiError struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Message: msg})
}
