package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/policy"
	"orderflow/pkg/config"
)

type appliedOrderTransition struct {
	number   string
	from     models.OrderStatus
	to       models.OrderStatus
	previous *models.OrderStatus
	entry    models.HistoryEntry
}

type appliedComponentTransition struct {
	componentID   int64
	from          models.ComponentStatus
	to            models.ComponentStatus
	clearSupplier bool
	at            time.Time
}

// fakeStore keeps orders and components in memory and records every applied
// transition, so tests can assert that a refused guard wrote nothing.
type fakeStore struct {
	orders          map[string]models.Order
	components      map[int64]models.Component
	orderWrites     []appliedOrderTransition
	componentWrites []appliedComponentTransition
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:     make(map[string]models.Order),
		components: make(map[int64]models.Component),
	}
}

func (f *fakeStore) CreateOrder(_ context.Context, newOrder models.CreateOrder) (models.Order, error) {
	order := models.Order{
		Number:    "ORD_TEST",
		Status:    models.OrderLogged,
		CreatedAt: time.Now(),
	}
	for _, item := range newOrder.Items {
		order.Items = append(order.Items, models.OrderItem{
			Name:          item.Name,
			Quantity:      item.Quantity,
			Price:         item.Price,
			MarkupPercent: item.MarkupPercent,
		})
	}
	f.orders[order.Number] = order
	return order, nil
}

func (f *fakeStore) GetOrder(_ context.Context, number string) (models.Order, error) {
	order, ok := f.orders[number]
	if !ok {
		return models.Order{}, models.ErrorOrderNotFound
	}
	return order, nil
}

func (f *fakeStore) ListOpenOrders(_ context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if !order.Status.IsTerminal() {
			out = append(out, order)
		}
	}
	return out, nil
}

func (f *fakeStore) ApplyOrderTransition(_ context.Context, number string, from, to models.OrderStatus, previous *models.OrderStatus, entry models.HistoryEntry) error {
	order, ok := f.orders[number]
	if !ok || order.Status != from {
		return models.ErrorDbTransactionFailed
	}
	order.Status = to
	order.PreviousStatus = previous
	order.StatusHistory = append(order.StatusHistory, entry)
	f.orders[number] = order
	f.orderWrites = append(f.orderWrites, appliedOrderTransition{number, from, to, previous, entry})
	return nil
}

func (f *fakeStore) GetComponent(_ context.Context, componentID int64) (models.Component, error) {
	comp, ok := f.components[componentID]
	if !ok {
		return models.Component{}, models.ErrorComponentNotFound
	}
	return comp, nil
}

func (f *fakeStore) ApplyComponentTransition(_ context.Context, componentID int64, from, to models.ComponentStatus, clearSupplier bool, at time.Time) error {
	comp, ok := f.components[componentID]
	if !ok || comp.Status != from {
		return models.ErrorDbTransactionFailed
	}
	comp.Status = to
	comp.StatusUpdatedAt = at
	if clearSupplier {
		comp.SupplierID = nil
	}
	f.components[componentID] = comp
	f.componentWrites = append(f.componentWrites, appliedComponentTransition{componentID, from, to, clearSupplier, at})
	return nil
}

func testProvider() policy.Static {
	return policy.Static{Policy: policy.FromConfig(config.Thresholds{
		Orders: map[string]config.StatusThreshold{
			"technical_review": {MaxDwellHours: 48, NotifyGroups: []string{"sales_management"}},
		},
	})}
}

func newTestService(store *fakeStore) *Service {
	svc := NewService(store, testProvider(), 10.0)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func seedOrder(store *fakeStore, number string, status models.OrderStatus, items ...models.OrderItem) {
	store.orders[number] = models.Order{
		Number:    number,
		Status:    status,
		Items:     items,
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	valid := models.CreateOrder{
		CustomerName: "Acme Industries",
		Actor:        "sales.rep",
		Items: []models.CreateOrderItem{
			{Name: "Conveyor frame", Quantity: 2, Price: 1200, MarkupPercent: 15},
		},
	}

	t.Run("valid order is created in the initial status", func(t *testing.T) {
		resp, err := svc.CreateOrder(ctx, valid)
		require.NoError(t, err)
		assert.Equal(t, string(models.OrderLogged), resp.Status)
		assert.InDelta(t, 2400.0, resp.TotalAmount, 0.001)
	})

	tests := []struct {
		name   string
		mutate func(*models.CreateOrder)
	}{
		{"missing customer name", func(o *models.CreateOrder) { o.CustomerName = "" }},
		{"missing actor", func(o *models.CreateOrder) { o.Actor = "" }},
		{"no items", func(o *models.CreateOrder) { o.Items = nil }},
		{"zero quantity", func(o *models.CreateOrder) { o.Items[0].Quantity = 0 }},
		{"zero price", func(o *models.CreateOrder) { o.Items[0].Price = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := valid
			bad.Items = append([]models.CreateOrderItem(nil), valid.Items...)
			tt.mutate(&bad)
			_, err := svc.CreateOrder(ctx, bad)
			assert.ErrorIs(t, err, models.ErrorValidationFailed)
		})
	}
}

func TestIssuePurchaseOrderMarginGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("refused while any line margin is below the minimum", func(t *testing.T) {
		store := newFakeStore()
		seedOrder(store, "O1", models.OrderNegativeMargin,
			models.OrderItem{Name: "Frame", MarkupPercent: 15},
			models.OrderItem{Name: "Motor", MarkupPercent: 4},
		)
		svc := newTestService(store)

		err := svc.IssuePurchaseOrder(ctx, "O1", "sales.rep")
		assert.True(t, models.IsTransitionRefused(err))

		// A refused transition must leave the order untouched.
		assert.Empty(t, store.orderWrites)
		assert.Equal(t, models.OrderNegativeMargin, store.orders["O1"].Status)
	})

	t.Run("allowed once every margin is corrected", func(t *testing.T) {
		store := newFakeStore()
		seedOrder(store, "O1", models.OrderNegativeMargin,
			models.OrderItem{Name: "Frame", MarkupPercent: 15},
			models.OrderItem{Name: "Motor", MarkupPercent: 12},
		)
		svc := newTestService(store)

		require.NoError(t, svc.IssuePurchaseOrder(ctx, "O1", "sales.rep"))
		assert.Equal(t, models.OrderWaitingSuppliers, store.orders["O1"].Status)
	})
}

func TestFinalizeReviewGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("refused while a line item is unapproved", func(t *testing.T) {
		store := newFakeStore()
		seedOrder(store, "O1", models.OrderTechnicalReview,
			models.OrderItem{Name: "Frame", MarkupPercent: 15, Approved: true},
			models.OrderItem{Name: "Motor", MarkupPercent: 15, Approved: false},
		)
		svc := newTestService(store)

		err := svc.FinalizeReview(ctx, "O1", "engineer")
		assert.True(t, models.IsTransitionRefused(err))
		assert.Empty(t, store.orderWrites)
	})

	t.Run("completes when all items are approved and margined", func(t *testing.T) {
		store := newFakeStore()
		seedOrder(store, "O1", models.OrderTechnicalReview,
			models.OrderItem{Name: "Frame", MarkupPercent: 15, Approved: true},
		)
		svc := newTestService(store)

		require.NoError(t, svc.FinalizeReview(ctx, "O1", "engineer"))
		assert.Equal(t, models.OrderWaitingSuppliers, store.orders["O1"].Status)
	})
}

func TestHoldAndResume(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seedOrder(store, "O1", models.OrderManufacturing)
	svc := newTestService(store)

	require.NoError(t, svc.Hold(ctx, "O1", "manager", "customer requested pause"))

	held := store.orders["O1"]
	assert.Equal(t, models.OrderInHold, held.Status)
	require.NotNil(t, held.PreviousStatus)
	assert.Equal(t, models.OrderManufacturing, *held.PreviousStatus)

	t.Run("held order cannot move anywhere but back or to rejected", func(t *testing.T) {
		err := svc.TransitionOrder(ctx, "O1", models.OrderDelivery, "manager", "")
		assert.True(t, models.IsTransitionRefused(err))
	})

	t.Run("resume returns to the held-in status", func(t *testing.T) {
		require.NoError(t, svc.Resume(ctx, "O1", "manager"))
		resumed := store.orders["O1"]
		assert.Equal(t, models.OrderManufacturing, resumed.Status)
		assert.Nil(t, resumed.PreviousStatus)
	})

	t.Run("resume on an order not held is refused", func(t *testing.T) {
		err := svc.Resume(ctx, "O1", "manager")
		assert.True(t, models.IsTransitionRefused(err))
	})
}

func TestTerminalOrdersAreFrozen(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seedOrder(store, "O1", models.OrderFulfilled)
	svc := newTestService(store)

	err := svc.Reject(ctx, "O1", "manager", "too late")
	assert.True(t, models.IsTransitionRefused(err))
	assert.Empty(t, store.orderWrites)
}

func TestTransitionRouting(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	seedOrder(store, "O1", models.OrderLogged)
	svc := newTestService(store)

	t.Run("unknown status is rejected up front", func(t *testing.T) {
		err := svc.Transition(ctx, models.TransitionRequest{
			OrderNumber:  "O1",
			TargetStatus: "shipped",
			Actor:        "ops",
		})
		assert.ErrorIs(t, err, models.ErrorUnknownStatus)
	})

	t.Run("missing actor is rejected up front", func(t *testing.T) {
		err := svc.Transition(ctx, models.TransitionRequest{
			OrderNumber:  "O1",
			TargetStatus: string(models.OrderTechnicalReview),
		})
		assert.ErrorIs(t, err, models.ErrorValidationFailed)
	})

	t.Run("order path applies the transition", func(t *testing.T) {
		err := svc.Transition(ctx, models.TransitionRequest{
			OrderNumber:  "O1",
			TargetStatus: string(models.OrderTechnicalReview),
			Actor:        "ops",
		})
		require.NoError(t, err)
		assert.Equal(t, models.OrderTechnicalReview, store.orders["O1"].Status)
	})

	t.Run("unknown order surfaces not found", func(t *testing.T) {
		err := svc.TransitionOrder(ctx, "NOPE", models.OrderTechnicalReview, "ops", "")
		assert.ErrorIs(t, err, models.ErrorOrderNotFound)
	})
}

func TestAdvanceComponentSourceGuards(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.components[1] = models.Component{ID: 1, Status: models.ComponentPendingOffer, Source: models.SourceStock}
	store.components[2] = models.Component{ID: 2, Status: models.ComponentPendingOffer, Source: models.SourceProcurement}
	svc := newTestService(store)

	t.Run("stock component never enters the sourcing chain", func(t *testing.T) {
		err := svc.AdvanceComponent(ctx, 1, models.ComponentRFPSent, "buyer", "")
		assert.True(t, models.IsTransitionRefused(err))
	})

	t.Run("stock component goes straight to reserved", func(t *testing.T) {
		require.NoError(t, svc.AdvanceComponent(ctx, 1, models.ComponentReserved, "warehouse", ""))
		assert.Equal(t, models.ComponentReserved, store.components[1].Status)
	})

	t.Run("procurement component must go through the chain", func(t *testing.T) {
		err := svc.AdvanceComponent(ctx, 2, models.ComponentReserved, "buyer", "")
		assert.True(t, models.IsTransitionRefused(err))

		require.NoError(t, svc.AdvanceComponent(ctx, 2, models.ComponentRFPSent, "buyer", ""))
		require.NoError(t, svc.AdvanceComponent(ctx, 2, models.ComponentAwarded, "buyer", ""))
		assert.Equal(t, models.ComponentAwarded, store.components[2].Status)
	})

	t.Run("backward move is refused outside the reset operation", func(t *testing.T) {
		err := svc.AdvanceComponent(ctx, 2, models.ComponentPendingOffer, "buyer", "")
		assert.True(t, models.IsTransitionRefused(err))
	})
}

func TestResetComponent(t *testing.T) {
	ctx := context.Background()
	supplier := "SUP-9"

	t.Run("reset clears the supplier and restarts the clock", func(t *testing.T) {
		store := newFakeStore()
		store.components[5] = models.Component{
			ID:         5,
			Status:     models.ComponentAwarded,
			Source:     models.SourceProcurement,
			SupplierID: &supplier,
		}
		svc := newTestService(store)

		require.NoError(t, svc.ResetComponent(ctx, 5, "buyer", "supplier backed out"))

		comp := store.components[5]
		assert.Equal(t, models.ComponentPendingOffer, comp.Status)
		assert.Nil(t, comp.SupplierID)
		assert.Equal(t, svc.now(), comp.StatusUpdatedAt)

		require.Len(t, store.componentWrites, 1)
		assert.True(t, store.componentWrites[0].clearSupplier)
	})

	t.Run("reset requires a reason", func(t *testing.T) {
		store := newFakeStore()
		store.components[5] = models.Component{ID: 5, Status: models.ComponentRFPSent, Source: models.SourceProcurement}
		svc := newTestService(store)

		err := svc.ResetComponent(ctx, 5, "buyer", "")
		assert.ErrorIs(t, err, models.ErrorValidationFailed)
		assert.Empty(t, store.componentWrites)
	})

	t.Run("only rfp_sent and awarded components reset", func(t *testing.T) {
		store := newFakeStore()
		store.components[5] = models.Component{ID: 5, Status: models.ComponentOrdered, Source: models.SourceProcurement}
		svc := newTestService(store)

		err := svc.ResetComponent(ctx, 5, "buyer", "changed requirements")
		assert.True(t, models.IsTransitionRefused(err))
		assert.Equal(t, models.ComponentOrdered, store.components[5].Status)
	})
}

func TestEvaluateOrderDwell(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	entered := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC) // 72h before svc.now
	store.orders["O1"] = models.Order{
		Number:    "O1",
		Status:    models.OrderTechnicalReview,
		CreatedAt: entered,
		StatusHistory: []models.HistoryEntry{
			{Status: models.OrderTechnicalReview, Timestamp: entered},
		},
	}
	svc := newTestService(store)

	res, err := svc.EvaluateOrderDwell(ctx, "O1")
	require.NoError(t, err)
	assert.True(t, res.IsViolating)
	assert.InDelta(t, 72.0, res.ElapsedHours, 0.001)
	assert.Equal(t, 48, res.LimitHours)
}
