package http

import (
	"errors"
	"net/http"

	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/port"
)

type AuditHandle struct {
	runner port.SweepRunner
}

func NewAuditHandle(runner port.SweepRunner) *AuditHandle {
	return &AuditHandle{
		runner: runner,
	}
}

// RunSweep triggers one audit sweep on demand and returns its summary. A
// sweep already in progress yields 409; the guard prevents double
// processing against the same store.
func (h *AuditHandle) RunSweep() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := h.runner.TriggerNow(r.Context(), nil)
		if err != nil {
			if errors.Is(err, models.ErrorSweepInProgress) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
