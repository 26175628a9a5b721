package dwell

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/policy"
)

func TestEvaluateOrder(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	order := &models.Order{
		Number:    "O1",
		Status:    models.OrderTechnicalReview,
		CreatedAt: t0.Add(-100 * time.Hour),
		StatusHistory: []models.HistoryEntry{
			{Status: models.OrderLogged, Timestamp: t0.Add(-100 * time.Hour)},
			{Status: models.OrderTechnicalReview, Timestamp: t0},
		},
	}

	sp := policy.StatusPolicy{MaxDwellHours: 48}

	t.Run("below the limit is compliant", func(t *testing.T) {
		res := EvaluateOrder(order, sp, t0.Add(47*time.Hour))
		assert.False(t, res.IsViolating)
		assert.InDelta(t, 47.0, res.ElapsedHours, 0.001)
		assert.Equal(t, 48, res.LimitHours)
	})

	t.Run("exactly at the limit is compliant", func(t *testing.T) {
		res := EvaluateOrder(order, sp, t0.Add(48*time.Hour))
		assert.False(t, res.IsViolating)
	})

	t.Run("above the limit violates", func(t *testing.T) {
		res := EvaluateOrder(order, sp, t0.Add(49*time.Hour))
		assert.True(t, res.IsViolating)
		assert.InDelta(t, 49.0, res.ElapsedHours, 0.001)
	})

	t.Run("zero limit never violates", func(t *testing.T) {
		res := EvaluateOrder(order, policy.StatusPolicy{MaxDwellHours: 0}, t0.Add(10000*time.Hour))
		assert.False(t, res.IsViolating)
		assert.Equal(t, 0, res.LimitHours)
	})

	t.Run("entered-at comes from the newest matching history entry", func(t *testing.T) {
		// The order visited technical_review twice; the dwell clock starts
		// at the second visit.
		reentered := &models.Order{
			Number:    "O2",
			Status:    models.OrderTechnicalReview,
			CreatedAt: t0.Add(-100 * time.Hour),
			StatusHistory: []models.HistoryEntry{
				{Status: models.OrderTechnicalReview, Timestamp: t0.Add(-80 * time.Hour)},
				{Status: models.OrderInHold, Timestamp: t0.Add(-50 * time.Hour)},
				{Status: models.OrderTechnicalReview, Timestamp: t0},
			},
		}
		res := EvaluateOrder(reentered, sp, t0.Add(2*time.Hour))
		assert.False(t, res.IsViolating)
		assert.Equal(t, t0, res.EnteredAt)
	})

	t.Run("falls back to creation time without matching history", func(t *testing.T) {
		legacy := &models.Order{
			Number:    "O3",
			Status:    models.OrderTechnicalReview,
			CreatedAt: t0,
		}
		res := EvaluateOrder(legacy, sp, t0.Add(50*time.Hour))
		assert.True(t, res.IsViolating)
		assert.Equal(t, t0, res.EnteredAt)
	})
}

func TestEvaluateComponent(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	comp := &models.Component{
		ID:              7,
		Status:          models.ComponentRFPSent,
		Source:          models.SourceProcurement,
		StatusUpdatedAt: t0,
		CreatedAt:       t0.Add(-24 * time.Hour),
	}

	sp := policy.StatusPolicy{MaxDwellHours: 72}

	t.Run("uses the last transition time", func(t *testing.T) {
		res := EvaluateComponent(comp, sp, t0.Add(10*24*time.Hour))
		assert.True(t, res.IsViolating)
		assert.Equal(t, t0, res.EnteredAt)
		assert.InDelta(t, 240.0, res.ElapsedHours, 0.001)
	})

	t.Run("reset restarts the clock", func(t *testing.T) {
		resetAt := t0.Add(10 * 24 * time.Hour)
		after := &models.Component{
			ID:              7,
			Status:          models.ComponentPendingOffer,
			Source:          models.SourceProcurement,
			StatusUpdatedAt: resetAt,
			CreatedAt:       comp.CreatedAt,
		}
		res := EvaluateComponent(after, policy.StatusPolicy{MaxDwellHours: 24}, resetAt.Add(time.Hour))
		assert.False(t, res.IsViolating)
		assert.Equal(t, resetAt, res.EnteredAt)
	})

	t.Run("missing transition time falls back to creation", func(t *testing.T) {
		legacy := &models.Component{ID: 8, Status: models.ComponentRFPSent, CreatedAt: t0}
		res := EvaluateComponent(legacy, sp, t0.Add(80*time.Hour))
		assert.True(t, res.IsViolating)
		assert.Equal(t, t0, res.EnteredAt)
	})
}
