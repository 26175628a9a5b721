// Package policy owns the threshold tables: a pure mapping from
// (entity kind, status) to the configured maximum dwell time and the
// recipient groups notified on violation.
package policy

import (
	"orderflow/internal/core/domain/models"
	"orderflow/pkg/config"
)

// StatusPolicy is the SLA configuration for one status. MaxDwellHours of 0
// means the status is not monitored.
type StatusPolicy struct {
	MaxDwellHours int
	NotifyGroups  []string
}

// Monitored reports whether the policy enforces a threshold.
func (p StatusPolicy) Monitored() bool {
	return p.MaxDwellHours > 0
}

// Policy is an immutable snapshot of both threshold tables. A snapshot is
// taken per sweep so a config reload never changes limits mid-sweep.
type Policy struct {
	orders     map[models.OrderStatus]StatusPolicy
	components map[models.ComponentStatus]StatusPolicy
}

// ForOrder returns the policy for an order status. The second return value
// is false for a status missing from the table entirely, so the caller can
// log the configuration gap; the status is then treated as not monitored.
func (p *Policy) ForOrder(status models.OrderStatus) (StatusPolicy, bool) {
	sp, ok := p.orders[status]
	return sp, ok
}

// ForComponent returns the policy for a component status.
func (p *Policy) ForComponent(status models.ComponentStatus) (StatusPolicy, bool) {
	sp, ok := p.components[status]
	return sp, ok
}

// allOrderStatuses must list every OrderStatus variant. It seeds the
// snapshot with an unmonitored entry per status, so a newly added status
// shows up in the table explicitly instead of silently no-opping. Terminal
// statuses and in_hold stay at zero: hold suspends the SLA clock through
// the zero sentinel.
var allOrderStatuses = []models.OrderStatus{
	models.OrderLogged,
	models.OrderTechnicalReview,
	models.OrderNegativeMargin,
	models.OrderWaitingSuppliers,
	models.OrderWaitingFactory,
	models.OrderManufacturing,
	models.OrderManufacturingCompleted,
	models.OrderTransitionToStock,
	models.OrderInProductHub,
	models.OrderIssueInvoice,
	models.OrderInvoiced,
	models.OrderHubReleased,
	models.OrderDelivery,
	models.OrderDelivered,
	models.OrderFulfilled,
	models.OrderInHold,
	models.OrderRejected,
}

var allComponentStatuses = []models.ComponentStatus{
	models.ComponentPendingOffer,
	models.ComponentRFPSent,
	models.ComponentAwarded,
	models.ComponentOrdered,
	models.ComponentReceived,
	models.ComponentReserved,
	models.ComponentAvailable,
}

// FromConfig builds a snapshot from the loaded threshold tables. Config
// entries overlay the seeded defaults; unknown statuses in the config are
// ignored.
func FromConfig(t config.Thresholds) *Policy {
	p := &Policy{
		orders:     make(map[models.OrderStatus]StatusPolicy, len(allOrderStatuses)),
		components: make(map[models.ComponentStatus]StatusPolicy, len(allComponentStatuses)),
	}

	for _, status := range allOrderStatuses {
		p.orders[status] = StatusPolicy{}
	}
	for _, status := range allComponentStatuses {
		p.components[status] = StatusPolicy{}
	}

	for raw, entry := range t.Orders {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			continue
		}
		if status == models.OrderInHold || status.IsTerminal() {
			continue // hold and terminal statuses are never monitored
		}
		p.orders[status] = StatusPolicy{
			MaxDwellHours: entry.MaxDwellHours,
			NotifyGroups:  entry.NotifyGroups,
		}
	}
	for raw, entry := range t.Components {
		status, err := models.ParseComponentStatus(raw)
		if err != nil {
			continue
		}
		p.components[status] = StatusPolicy{
			MaxDwellHours: entry.MaxDwellHours,
			NotifyGroups:  entry.NotifyGroups,
		}
	}

	return p
}
