package adoptions

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta las transiciones del workflow bajo /pets/{petID}.
// El módulo pets es dueño del CRUD; todas las mutaciones de estado
// pasan por acá.
func RegisterRoutes(r chi.Router, svc *Service, m *metrics.AdoptionMetrics, log logger.Logger) {
	h := &handlers{svc: svc, metrics: m, log: log}

	r.Post("/pets/{petID}/like", h.like)
	r.Delete("/pets/{petID}/unlike/{userID}", h.unlike)
	r.Put("/pets/{petID}/adopt", h.adopt)
	r.Put("/pets/{petID}/foster", h.foster)
	r.Put("/pets/{petID}/return", h.returnPet)
}

type handlers struct {
	svc     *Service
	metrics *metrics.AdoptionMetrics
	log     logger.Logger
}

type transitionRequest struct {
	UserID string `json:"userId"`
}

func (h *handlers) like(w http.ResponseWriter, r *http.Request) {
	petID := chi.URLParam(r, "petID")
	userID, ok := h.bodyUserID(w, r, "like")
	if !ok {
		return
	}

	res, err := h.svc.Like(r.Context(), petID, userID)
	if err != nil {
		h.fail(w, "like", petID, userID, "Error liking pet", err)
		return
	}

	// Like repetido devuelve el mismo ack (idempotente).
	h.ok(w, "like", res.Outcome, "Liked pet with ID "+petID)
}

func (h *handlers) unlike(w http.ResponseWriter, r *http.Request) {
	petID := chi.URLParam(r, "petID")
	userID := chi.URLParam(r, "userID")

	res, err := h.svc.Unlike(r.Context(), petID, userID)
	if err != nil {
		h.fail(w, "unlike", petID, userID, "Error unliking pet", err)
		return
	}

	if res.Outcome == OutcomeNotApplicable {
		h.ok(w, "unlike", res.Outcome, "Pet with ID "+petID+" is not liked by user "+userID)
		return
	}
	h.ok(w, "unlike", res.Outcome, "Unliked pet with ID "+petID)
}

func (h *handlers) adopt(w http.ResponseWriter, r *http.Request) {
	petID := chi.URLParam(r, "petID")
	userID, ok := h.bodyUserID(w, r, "adopt")
	if !ok {
		return
	}

	res, err := h.svc.Adopt(r.Context(), petID, userID)
	if err != nil {
		h.fail(w, "adopt", petID, userID, "Error adopting pet", err)
		return
	}

	if res.Outcome == OutcomeAlreadyApplied {
		h.ok(w, "adopt", res.Outcome, "Pet is already adopted")
		return
	}
	h.ok(w, "adopt", res.Outcome, "Pet adopted successfully")
}

func (h *handlers) foster(w http.ResponseWriter, r *http.Request) {
	petID := chi.URLParam(r, "petID")
	userID, ok := h.bodyUserID(w, r, "foster")
	if !ok {
		return
	}

	res, err := h.svc.Foster(r.Context(), petID, userID)
	if err != nil {
		h.fail(w, "foster", petID, userID, "Error fostering pet", err)
		return
	}

	if res.Outcome == OutcomeAlreadyApplied {
		h.ok(w, "foster", res.Outcome, "Pet is already fostered")
		return
	}
	h.ok(w, "foster", res.Outcome, "Pet fostered successfully")
}

func (h *handlers) returnPet(w http.ResponseWriter, r *http.Request) {
	petID := chi.URLParam(r, "petID")
	userID, ok := h.bodyUserID(w, r, "return")
	if !ok {
		return
	}

	res, err := h.svc.Return(r.Context(), petID, userID)
	if err != nil {
		h.fail(w, "return", petID, userID, "Error returning pet", err)
		return
	}

	if res.Outcome == OutcomeNotApplicable {
		h.ok(w, "return", res.Outcome, "User is not currently fostering or adopting this pet")
		return
	}
	h.ok(w, "return", res.Outcome, "Pet returned successfully")
}

func (h *handlers) bodyUserID(w http.ResponseWriter, r *http.Request, transition string) (string, bool) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.Observe(transition, "invalid")
		writeError(w, http.StatusBadRequest, "invalid json", err)
		return "", false
	}
	if strings.TrimSpace(req.UserID) == "" {
		h.metrics.Observe(transition, "invalid")
		writeError(w, http.StatusBadRequest, "userId is required", nil)
		return "", false
	}
	return req.UserID, true
}

func (h *handlers) ok(w http.ResponseWriter, transition string, outcome Outcome, msg string) {
	label := "applied"
	if outcome != OutcomeApplied {
		label = "noop"
	}
	h.metrics.Observe(transition, label)
	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

func (h *handlers) fail(w http.ResponseWriter, transition, petID, userID, msg string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		h.metrics.Observe(transition, "invalid")
		writeError(w, http.StatusBadRequest, msg, err)
	case errors.Is(err, ErrNotFound):
		h.metrics.Observe(transition, "not_found")
		writeError(w, http.StatusNotFound, msg, err)
	case errors.Is(err, ErrConflict):
		h.metrics.Observe(transition, "conflict")
		writeError(w, http.StatusConflict, "Pet is not available for "+transition, err)
	case errors.Is(err, ErrMirrorWrite):
		// Partial failure: el lado pet commiteó y el espejo falló.
		// Se loguea completo para que un operador pueda reconciliar.
		h.metrics.Observe(transition, "error")
		if h.log != nil {
			h.log.Error("mirror write failed", map[string]any{
				"transition": transition,
				"pet_id":     petID,
				"user_id":    userID,
				"err":        err.Error(),
			})
		}
		writeError(w, http.StatusInternalServerError, msg, err)
	default:
		h.metrics.Observe(transition, "error")
		if h.log != nil {
			h.log.Error("transition failed", map[string]any{
				"transition": transition,
				"pet_id":     petID,
				"user_id":    userID,
				"err":        err.Error(),
			})
		}
		writeError(w, http.StatusInternalServerError, msg, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]any{"message": msg}
	if err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, status, body)
}
