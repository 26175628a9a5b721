package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/port"
)

type LifecycleHandle struct {
	svc port.LifecycleService
}

func NewLifecycleHandle(svc port.LifecycleService) *LifecycleHandle {
	return &LifecycleHandle{
		svc: svc,
	}
}

// CreateOrder registers a new order in the initial status.
func (h *LifecycleHandle) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var newOrder models.CreateOrder
		if err := json.NewDecoder(r.Body).Decode(&newOrder); err != nil {
			http.Error(w, models.ErrorValidationFailed.Error(), http.StatusBadRequest)
			return
		}

		resp, err := h.svc.CreateOrder(r.Context(), newOrder)
		if err != nil {
			if errors.Is(err, models.ErrorValidationFailed) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

// Transition applies a named status transition to an order or a component.
func (h *LifecycleHandle) Transition() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, models.ErrorValidationFailed.Error(), http.StatusBadRequest)
			return
		}

		if err := h.svc.Transition(r.Context(), req); err != nil {
			writeTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"result": "applied"})
	}
}

// ResetComponent returns a sourcing component to pending_offer.
func (h *LifecycleHandle) ResetComponent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ComponentID int64  `json:"component_id"`
			Actor       string `json:"actor"`
			Reason      string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, models.ErrorValidationFailed.Error(), http.StatusBadRequest)
			return
		}

		if err := h.svc.ResetComponent(r.Context(), req.ComponentID, req.Actor, req.Reason); err != nil {
			writeTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"result": "reset"})
	}
}

// Dwell returns the live dwell evaluation for an order, for countdown and
// overdue badges.
func (h *LifecycleHandle) Dwell() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := r.PathValue("number")
		if number == "" {
			http.Error(w, models.ErrorValidationFailed.Error(), http.StatusBadRequest)
			return
		}

		res, err := h.svc.EvaluateOrderDwell(r.Context(), number)
		if err != nil {
			if errors.Is(err, models.ErrorOrderNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case models.IsTransitionRefused(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrorOrderNotFound), errors.Is(err, models.ErrorComponentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrorValidationFailed), errors.Is(err, models.ErrorUnknownStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
