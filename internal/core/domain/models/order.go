package models

import "time"

// EntityKind tags history entries and violation keys with the kind of
// record they belong to.
type EntityKind string

const (
	KindOrder     EntityKind = "order"
	KindComponent EntityKind = "component"
)

// HistoryEntry is one append-only record of a status change. History is
// never rewritten; the newest entry matching the current status marks when
// the entity entered it.
type HistoryEntry struct {
	EntityKind EntityKind  `json:"entity_kind"`
	Status     OrderStatus `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
	Actor      string      `json:"actor"`
	Note       string      `json:"note,omitempty"`
}

// Order is one customer purchase order moving through the pipeline. Status
// changes go through named transition operations only, so every change is
// logged.
type Order struct {
	ID             int64          `json:"-"`
	Number         string         `json:"order_number"`
	Status         OrderStatus    `json:"status"`
	PreviousStatus *OrderStatus   `json:"previous_status,omitempty"` // set while in_hold, cleared on resume
	StatusHistory  []HistoryEntry `json:"status_history"`
	Items          []OrderItem    `json:"items"`
	CreatedAt      time.Time      `json:"created_at"`
}

// OrderItem is one order line. MarkupPercent and Approved feed the
// technical-review guards.
type OrderItem struct {
	ID            int64       `json:"-"`
	Name          string      `json:"name"`
	Quantity      int         `json:"quantity"`
	Price         float64     `json:"price"`
	MarkupPercent float64     `json:"markup_percent"`
	Approved      bool        `json:"approved"`
	Components    []Component `json:"components,omitempty"`
}

// Component is one manufacturable or sourceable part of an order line. It
// keeps only the last transition time; dwell is computed from
// StatusUpdatedAt directly.
type Component struct {
	ID              int64           `json:"component_id"`
	Name            string          `json:"name"`
	Status          ComponentStatus `json:"status"`
	StatusUpdatedAt time.Time       `json:"status_updated_at"`
	Source          Source          `json:"source"`
	SupplierID      *string         `json:"supplier_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// EnteredCurrentStatusAt returns when the order entered its current status:
// the newest history entry recording that status, or CreatedAt when no such
// entry exists (legacy records).
func (o *Order) EnteredCurrentStatusAt() time.Time {
	for i := len(o.StatusHistory) - 1; i >= 0; i-- {
		if o.StatusHistory[i].Status == o.Status {
			return o.StatusHistory[i].Timestamp
		}
	}
	return o.CreatedAt
}

// CreateOrder is the inbound payload for registering a new order.
type CreateOrder struct {
	CustomerName string            `json:"customer_name"`
	Items        []CreateOrderItem `json:"items"`
	Actor        string            `json:"actor"`
}

type CreateOrderItem struct {
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	MarkupPercent float64 `json:"markup_percent"`
}

// OrderResponse is returned to the API caller after order creation.
type OrderResponse struct {
	OrderNumber string  `json:"order_number"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"total_amount"`
}

// TransitionRequest is the inbound payload for a status transition.
type TransitionRequest struct {
	OrderNumber  string `json:"order_number"`
	ComponentID  int64  `json:"component_id,omitempty"`
	TargetStatus string `json:"target_status"`
	Actor        string `json:"actor"`
	Reason       string `json:"reason,omitempty"`
}
