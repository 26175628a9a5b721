// Package dwell computes how long an entity has held its current status and
// whether that exceeds the configured threshold.
package dwell

import (
	"time"

	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/policy"
)

// Result is one dwell evaluation. LimitHours of 0 means the status is not
// monitored, in which case IsViolating is always false.
type Result struct {
	IsViolating  bool      `json:"is_violating"`
	ElapsedHours float64   `json:"elapsed_hours"`
	LimitHours   int       `json:"limit_hours"`
	EnteredAt    time.Time `json:"entered_at"`
}

// EvaluateOrder computes the dwell result for an order against its status
// policy. The entered-at instant is the newest history entry matching the
// current status, falling back to the order's creation time.
func EvaluateOrder(order *models.Order, sp policy.StatusPolicy, now time.Time) Result {
	return evaluate(order.EnteredCurrentStatusAt(), sp, now)
}

// EvaluateComponent computes the dwell result for a component. Components
// keep no history; the last transition time is the entered-at instant.
func EvaluateComponent(comp *models.Component, sp policy.StatusPolicy, now time.Time) Result {
	enteredAt := comp.StatusUpdatedAt
	if enteredAt.IsZero() {
		enteredAt = comp.CreatedAt
	}
	return evaluate(enteredAt, sp, now)
}

func evaluate(enteredAt time.Time, sp policy.StatusPolicy, now time.Time) Result {
	elapsed := now.Sub(enteredAt).Hours()

	// A zero limit is the "not monitored" sentinel, never "always
	// violating". The comparison is strictly greater-than: sitting exactly
	// at the limit is still compliant.
	violating := sp.MaxDwellHours > 0 && elapsed > float64(sp.MaxDwellHours)

	return Result{
		IsViolating:  violating,
		ElapsedHours: elapsed,
		LimitHours:   sp.MaxDwellHours,
		EnteredAt:    enteredAt,
	}
}
