package models

// OrderStatus is one station of the order pipeline.
type OrderStatus string

const (
	OrderLogged                 OrderStatus = "logged"
	OrderTechnicalReview        OrderStatus = "technical_review"
	OrderNegativeMargin         OrderStatus = "negative_margin"
	OrderWaitingSuppliers       OrderStatus = "waiting_suppliers"
	OrderWaitingFactory         OrderStatus = "waiting_factory"
	OrderManufacturing          OrderStatus = "manufacturing"
	OrderManufacturingCompleted OrderStatus = "manufacturing_completed"
	OrderTransitionToStock      OrderStatus = "transition_to_stock"
	OrderInProductHub           OrderStatus = "in_product_hub"
	OrderIssueInvoice           OrderStatus = "issue_invoice"
	OrderInvoiced               OrderStatus = "invoiced"
	OrderHubReleased            OrderStatus = "hub_released"
	OrderDelivery               OrderStatus = "delivery"
	OrderDelivered              OrderStatus = "delivered"
	OrderFulfilled              OrderStatus = "fulfilled"
	OrderInHold                 OrderStatus = "in_hold"
	OrderRejected               OrderStatus = "rejected"
)

// ComponentStatus is one station of the component sourcing lifecycle.
type ComponentStatus string

const (
	ComponentPendingOffer ComponentStatus = "pending_offer"
	ComponentRFPSent      ComponentStatus = "rfp_sent"
	ComponentAwarded      ComponentStatus = "awarded"
	ComponentOrdered      ComponentStatus = "ordered"
	ComponentReceived     ComponentStatus = "received"
	ComponentReserved     ComponentStatus = "reserved"
	ComponentAvailable    ComponentStatus = "available"
)

// Source determines which threshold table and notification routing apply.
type Source string

const (
	SourceStock       Source = "stock"
	SourceProcurement Source = "procurement"
)

// orderTransitions lists the legal forward moves for each order status.
// in_hold is handled separately: it is reachable from any non-terminal
// status and resumes to the status stored on the order.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderLogged:                 {OrderTechnicalReview},
	OrderTechnicalReview:        {OrderNegativeMargin, OrderWaitingSuppliers},
	OrderNegativeMargin:         {OrderTechnicalReview, OrderWaitingSuppliers},
	OrderWaitingSuppliers:       {OrderWaitingFactory},
	OrderWaitingFactory:         {OrderManufacturing},
	OrderManufacturing:          {OrderManufacturingCompleted},
	OrderManufacturingCompleted: {OrderTransitionToStock},
	OrderTransitionToStock:      {OrderInProductHub},
	OrderInProductHub:           {OrderIssueInvoice},
	OrderIssueInvoice:           {OrderInvoiced},
	OrderInvoiced:               {OrderHubReleased},
	OrderHubReleased:            {OrderDelivery},
	OrderDelivery:               {OrderDelivered},
	OrderDelivered:              {OrderFulfilled},
	OrderFulfilled:              {},
	OrderInHold:                 {},
	OrderRejected:               {},
}

// componentTransitions lists the legal forward moves for each component
// status. The only backward move (reset to pending_offer) goes through the
// explicit reset operation, never through this table.
var componentTransitions = map[ComponentStatus][]ComponentStatus{
	ComponentPendingOffer: {ComponentRFPSent, ComponentReserved, ComponentAvailable},
	ComponentRFPSent:      {ComponentAwarded},
	ComponentAwarded:      {ComponentOrdered},
	ComponentOrdered:      {ComponentReceived},
	ComponentReceived:     {},
	ComponentReserved:     {ComponentAvailable},
	ComponentAvailable:    {},
}

// IsTerminal reports whether no further business transition can occur.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderFulfilled || s == OrderRejected
}

// CanTransition reports whether target is a legal move from s. Rejection is
// legal from any non-terminal status; hold is legal from any non-terminal
// status except hold itself.
func (s OrderStatus) CanTransition(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == OrderRejected {
		return true
	}
	if target == OrderInHold {
		return s != OrderInHold
	}
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// CanTransition reports whether target is a legal forward move from s.
func (s ComponentStatus) CanTransition(target ComponentStatus) bool {
	for _, t := range componentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Resettable reports whether the component status may be reset back to
// pending_offer.
func (s ComponentStatus) Resettable() bool {
	return s == ComponentRFPSent || s == ComponentAwarded
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(raw)
	if _, ok := orderTransitions[s]; !ok {
		return "", ErrorUnknownStatus
	}
	return s, nil
}

// ParseComponentStatus validates a raw status string.
func ParseComponentStatus(raw string) (ComponentStatus, error) {
	s := ComponentStatus(raw)
	if _, ok := componentTransitions[s]; !ok {
		return "", ErrorUnknownStatus
	}
	return s, nil
}
