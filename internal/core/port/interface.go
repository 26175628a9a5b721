package port

import (
	"context"
	"time"

	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/policy"
	"orderflow/internal/core/service/dwell"
)

// OrderStore is the order/component persistence contract. Transitions are
// atomic: the status update and the history append commit together, and the
// update is conditional on the expected current status.
type OrderStore interface {
	CreateOrder(ctx context.Context, newOrder models.CreateOrder) (models.Order, error)
	GetOrder(ctx context.Context, number string) (models.Order, error)
	ListOpenOrders(ctx context.Context) ([]models.Order, error)
	ApplyOrderTransition(ctx context.Context, number string, from, to models.OrderStatus, previous *models.OrderStatus, entry models.HistoryEntry) error
	GetComponent(ctx context.Context, componentID int64) (models.Component, error)
	ApplyComponentTransition(ctx context.Context, componentID int64, from, to models.ComponentStatus, clearSupplier bool, at time.Time) error
}

// JournalStore is the durable idempotency ledger for sent notifications.
type JournalStore interface {
	Has(ctx context.Context, violationKey string) (bool, error)
	Record(ctx context.Context, entry models.JournalEntry) error
}

// Directory resolves recipient groups to deduplicated member emails.
type Directory interface {
	ResolveRecipients(ctx context.Context, groupIDs []string) ([]string, error)
}

// MailDispatcher hands a formatted message to the mail transport. It is
// fallible and slow; callers bound it with a context deadline.
type MailDispatcher interface {
	Send(ctx context.Context, recipients []string, subject, body string) error
}

// PolicyProvider supplies the threshold policy snapshot for a sweep.
type PolicyProvider interface {
	Snapshot() *policy.Policy
}

// SweepLock serializes sweeps across every process sharing one store.
// Acquire returns false, not an error, when another sweep holds the lock.
type SweepLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// ProgressFunc receives incremental sweep progress for live rendering.
type ProgressFunc func(current, total int, message string)

// SweepRunner triggers one audit sweep on demand.
type SweepRunner interface {
	TriggerNow(ctx context.Context, onProgress ProgressFunc) (models.SweepSummary, error)
}

// LifecycleService is the transition surface exposed to the HTTP layer.
type LifecycleService interface {
	CreateOrder(ctx context.Context, newOrder models.CreateOrder) (models.OrderResponse, error)
	Transition(ctx context.Context, req models.TransitionRequest) error
	ResetComponent(ctx context.Context, componentID int64, actor, reason string) error
	EvaluateOrderDwell(ctx context.Context, number string) (dwell.Result, error)
}
