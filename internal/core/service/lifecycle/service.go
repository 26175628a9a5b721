// Package lifecycle owns every status mutation for orders and components.
// All writes go through named transition operations so that each change is
// validated against the transition tables and logged exactly once.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/domain/types"
	"orderflow/internal/core/port"
	"orderflow/internal/core/service/dwell"
	"orderflow/pkg/logger"
)

type Service struct {
	log       logger.Logger
	store     port.OrderStore
	provider  port.PolicyProvider
	minMarkup float64
	now       func() time.Time
}

func NewService(store port.OrderStore, provider port.PolicyProvider, minMarkup float64) *Service {
	return &Service{
		log:       logger.InitLogger("lifecycle", logger.LevelDebug),
		store:     store,
		provider:  provider,
		minMarkup: minMarkup,
		now:       time.Now,
	}
}

// CreateOrder validates and registers a new order in the initial status.
func (svc *Service) CreateOrder(ctx context.Context, newOrder models.CreateOrder) (models.OrderResponse, error) {
	if err := validateOrder(newOrder); err != nil {
		svc.log.Error(ctx, types.ActionValidationFailed, "invalid order payload", err)
		return models.OrderResponse{}, fmt.Errorf("%w: %v", models.ErrorValidationFailed, err)
	}

	order, err := svc.store.CreateOrder(ctx, newOrder)
	if err != nil {
		svc.log.Error(ctx, types.ActionDBQueryFailed, "failed to create order", err)
		return models.OrderResponse{}, err
	}

	var total float64
	for _, item := range order.Items {
		total += item.Price * float64(item.Quantity)
	}

	svc.log.Info(ctx, types.ActionOrderCreated, "order created",
		"order_number", order.Number,
		"status", string(order.Status),
	)

	return models.OrderResponse{
		OrderNumber: order.Number,
		Status:      string(order.Status),
		TotalAmount: total,
	}, nil
}

func validateOrder(order models.CreateOrder) error {
	if len(order.CustomerName) < 1 || len(order.CustomerName) > 100 {
		return errors.New("customer_name must be 1-100 characters")
	}
	if order.Actor == "" {
		return errors.New("actor is required")
	}
	if len(order.Items) < 1 {
		return errors.New("items must contain at least 1 element")
	}
	for i, item := range order.Items {
		if len(item.Name) < 1 || len(item.Name) > 100 {
			return fmt.Errorf("items[%d].name must be 1-100 characters", i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("items[%d].quantity must be positive", i)
		}
		if item.Price <= 0 {
			return fmt.Errorf("items[%d].price must be positive", i)
		}
	}
	return nil
}

// Transition routes a transition request to the order or component path.
func (svc *Service) Transition(ctx context.Context, req models.TransitionRequest) error {
	if req.Actor == "" {
		return fmt.Errorf("%w: actor is required", models.ErrorValidationFailed)
	}
	if req.ComponentID != 0 {
		target, err := models.ParseComponentStatus(req.TargetStatus)
		if err != nil {
			return fmt.Errorf("%w: %q", models.ErrorUnknownStatus, req.TargetStatus)
		}
		return svc.AdvanceComponent(ctx, req.ComponentID, target, req.Actor, req.Reason)
	}

	target, err := models.ParseOrderStatus(req.TargetStatus)
	if err != nil {
		return fmt.Errorf("%w: %q", models.ErrorUnknownStatus, req.TargetStatus)
	}
	return svc.TransitionOrder(ctx, req.OrderNumber, target, req.Actor, req.Reason)
}

// TransitionOrder moves an order to the target status. Guards are checked
// before any write; a refused transition leaves the order untouched.
func (svc *Service) TransitionOrder(ctx context.Context, number string, target models.OrderStatus, actor, reason string) error {
	order, err := svc.store.GetOrder(ctx, number)
	if err != nil {
		return err
	}

	if err := svc.checkOrderGuards(&order, target); err != nil {
		svc.log.Info(ctx, types.ActionTransitionRefused, "order transition refused",
			"order_number", number,
			"from", string(order.Status),
			"to", string(target),
		)
		return err
	}

	// Entering hold remembers where to resume; any other move clears it.
	var previous *models.OrderStatus
	if target == models.OrderInHold {
		current := order.Status
		previous = &current
	}

	entry := models.HistoryEntry{
		EntityKind: models.KindOrder,
		Status:     target,
		Timestamp:  svc.now(),
		Actor:      actor,
		Note:       reason,
	}

	if err := svc.store.ApplyOrderTransition(ctx, number, order.Status, target, previous, entry); err != nil {
		svc.log.Error(ctx, types.ActionDBQueryFailed, "failed to apply order transition", err,
			"order_number", number,
		)
		return err
	}

	svc.log.Info(ctx, types.ActionTransitionApplied, "order transition applied",
		"order_number", number,
		"from", string(order.Status),
		"to", string(target),
		"actor", actor,
	)
	return nil
}

func (svc *Service) checkOrderGuards(order *models.Order, target models.OrderStatus) error {
	refused := func(reason string) error {
		return &models.TransitionRefusedError{
			Kind:   models.KindOrder,
			ID:     order.Number,
			From:   string(order.Status),
			To:     string(target),
			Reason: reason,
		}
	}

	if order.Status.IsTerminal() {
		return refused("order is in a terminal status")
	}

	// Resume from hold only to the status the order was held in.
	if order.Status == models.OrderInHold && target != models.OrderRejected {
		if order.PreviousStatus == nil {
			return refused("held order has no previous status to resume to")
		}
		if target != *order.PreviousStatus {
			return refused(fmt.Sprintf("held order may only resume to %s", *order.PreviousStatus))
		}
		return nil
	}

	if !order.Status.CanTransition(target) {
		return refused("no such transition")
	}

	// Issuing a purchase order is blocked while the margin is negative.
	if order.Status == models.OrderNegativeMargin && target == models.OrderWaitingSuppliers {
		if svc.anyItemBelowMinMarkup(order) {
			return refused(fmt.Sprintf("line margin below configured minimum of %.1f%%", svc.minMarkup))
		}
	}

	// Finalizing technical review requires every line approved and margined.
	if order.Status == models.OrderTechnicalReview && target == models.OrderWaitingSuppliers {
		for _, item := range order.Items {
			if !item.Approved {
				return refused(fmt.Sprintf("line item %q is not approved", item.Name))
			}
		}
		if svc.anyItemBelowMinMarkup(order) {
			return refused(fmt.Sprintf("line margin below configured minimum of %.1f%%", svc.minMarkup))
		}
	}

	return nil
}

func (svc *Service) anyItemBelowMinMarkup(order *models.Order) bool {
	for _, item := range order.Items {
		if item.MarkupPercent < svc.minMarkup {
			return true
		}
	}
	return false
}

// IssuePurchaseOrder finalizes sourcing for an order. Refused while the
// order sits in negative_margin with an uncorrected margin.
func (svc *Service) IssuePurchaseOrder(ctx context.Context, number, actor string) error {
	return svc.TransitionOrder(ctx, number, models.OrderWaitingSuppliers, actor, "purchase order issued")
}

// FinalizeReview completes technical review. Refused while any line item is
// unapproved.
func (svc *Service) FinalizeReview(ctx context.Context, number, actor string) error {
	return svc.TransitionOrder(ctx, number, models.OrderWaitingSuppliers, actor, "technical review finalized")
}

// Hold suspends an order. The SLA clock stops: the in_hold status is never
// monitored.
func (svc *Service) Hold(ctx context.Context, number, actor, reason string) error {
	return svc.TransitionOrder(ctx, number, models.OrderInHold, actor, reason)
}

// Resume returns a held order to the status it was held in. The resume
// writes a fresh history entry, so the dwell clock restarts.
func (svc *Service) Resume(ctx context.Context, number, actor string) error {
	order, err := svc.store.GetOrder(ctx, number)
	if err != nil {
		return err
	}
	if order.Status != models.OrderInHold || order.PreviousStatus == nil {
		return &models.TransitionRefusedError{
			Kind:   models.KindOrder,
			ID:     number,
			From:   string(order.Status),
			To:     "",
			Reason: "order is not held",
		}
	}
	return svc.TransitionOrder(ctx, number, *order.PreviousStatus, actor, "resumed from hold")
}

// Reject terminates an order.
func (svc *Service) Reject(ctx context.Context, number, actor, reason string) error {
	return svc.TransitionOrder(ctx, number, models.OrderRejected, actor, reason)
}

// AdvanceComponent moves a component forward along its sourcing lifecycle.
func (svc *Service) AdvanceComponent(ctx context.Context, componentID int64, target models.ComponentStatus, actor, reason string) error {
	comp, err := svc.store.GetComponent(ctx, componentID)
	if err != nil {
		return err
	}

	refused := func(reason string) error {
		return &models.TransitionRefusedError{
			Kind:   models.KindComponent,
			ID:     strconv.FormatInt(componentID, 10),
			From:   string(comp.Status),
			To:     string(target),
			Reason: reason,
		}
	}

	if !comp.Status.CanTransition(target) {
		return refused("no such transition")
	}

	// Stock components skip the sourcing sub-chain; procurement components
	// must go through it.
	switch target {
	case models.ComponentRFPSent, models.ComponentAwarded, models.ComponentOrdered, models.ComponentReceived:
		if comp.Source == models.SourceStock {
			return refused("stock-sourced component cannot enter the sourcing chain")
		}
	case models.ComponentReserved, models.ComponentAvailable:
		if comp.Source == models.SourceProcurement && comp.Status == models.ComponentPendingOffer {
			return refused("procurement-sourced component must go through the sourcing chain")
		}
	}

	if err := svc.store.ApplyComponentTransition(ctx, componentID, comp.Status, target, false, svc.now()); err != nil {
		svc.log.Error(ctx, types.ActionDBQueryFailed, "failed to apply component transition", err,
			"component_id", componentID,
		)
		return err
	}

	svc.log.Info(ctx, types.ActionTransitionApplied, "component transition applied",
		"component_id", componentID,
		"from", string(comp.Status),
		"to", string(target),
		"actor", actor,
		"reason", reason,
	)
	return nil
}

// ResetComponent is the only legal backward move: rfp_sent or awarded back
// to pending_offer, clearing the supplier assignment. It requires an
// explicit reason; the dwell clock restarts from the reset timestamp.
func (svc *Service) ResetComponent(ctx context.Context, componentID int64, actor, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: reset requires a reason", models.ErrorValidationFailed)
	}

	comp, err := svc.store.GetComponent(ctx, componentID)
	if err != nil {
		return err
	}

	if !comp.Status.Resettable() {
		return &models.TransitionRefusedError{
			Kind:   models.KindComponent,
			ID:     strconv.FormatInt(componentID, 10),
			From:   string(comp.Status),
			To:     string(models.ComponentPendingOffer),
			Reason: "only rfp_sent and awarded components may be reset",
		}
	}

	if err := svc.store.ApplyComponentTransition(ctx, componentID, comp.Status, models.ComponentPendingOffer, true, svc.now()); err != nil {
		svc.log.Error(ctx, types.ActionDBQueryFailed, "failed to reset component", err,
			"component_id", componentID,
		)
		return err
	}

	svc.log.Info(ctx, types.ActionComponentReset, "component reset to pending_offer",
		"component_id", componentID,
		"from", string(comp.Status),
		"actor", actor,
		"reason", reason,
	)
	return nil
}

// EvaluateOrderDwell exposes the dwell computation for live UI use.
func (svc *Service) EvaluateOrderDwell(ctx context.Context, number string) (dwell.Result, error) {
	order, err := svc.store.GetOrder(ctx, number)
	if err != nil {
		return dwell.Result{}, err
	}

	pol := svc.provider.Snapshot()
	sp, ok := pol.ForOrder(order.Status)
	if !ok {
		svc.log.Warn(ctx, types.ActionPolicyMissing, "no threshold policy for status",
			"status", string(order.Status),
		)
	}
	return dwell.EvaluateOrder(&order, sp, svc.now()), nil
}
