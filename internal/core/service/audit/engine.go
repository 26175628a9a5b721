// Package audit implements the SLA compliance sweep: one full pass over all
// open orders and their components, notifying the configured groups exactly
// once per violation through the idempotency journal.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/domain/types"
	"orderflow/internal/core/policy"
	"orderflow/internal/core/port"
	"orderflow/internal/core/service/dwell"
	"orderflow/pkg/logger"
)

type Engine struct {
	log             logger.Logger
	store           port.OrderStore
	journal         port.JournalStore
	directory       port.Directory
	dispatcher      port.MailDispatcher
	provider        port.PolicyProvider
	dispatchTimeout time.Duration
	now             func() time.Time
}

func NewEngine(
	store port.OrderStore,
	journal port.JournalStore,
	directory port.Directory,
	dispatcher port.MailDispatcher,
	provider port.PolicyProvider,
	dispatchTimeout time.Duration,
) *Engine {
	return &Engine{
		log:             logger.InitLogger("audit", logger.LevelDebug),
		store:           store,
		journal:         journal,
		directory:       directory,
		dispatcher:      dispatcher,
		provider:        provider,
		dispatchTimeout: dispatchTimeout,
		now:             time.Now,
	}
}

// RunSweep performs one full audit pass. A failure on a single order is
// isolated at the order boundary: counted, logged and skipped. Only an
// unreachable store aborts the sweep. The sweep never mutates order state;
// its only write is the journal append after a successful dispatch.
func (e *Engine) RunSweep(ctx context.Context, onProgress port.ProgressFunc) (models.SweepSummary, error) {
	var summary models.SweepSummary

	pol := e.provider.Snapshot()

	orders, err := e.store.ListOpenOrders(ctx)
	if err != nil {
		e.log.Error(ctx, types.ActionDBQueryFailed, "failed to list open orders, aborting sweep", err)
		return summary, err
	}

	total := len(orders)
	e.log.Info(ctx, types.ActionSweepStarted, "audit sweep started", "open_orders", total)

	for i := range orders {
		// Cancellation is checked between orders so an operator stop never
		// interrupts an in-flight journal write.
		if err := ctx.Err(); err != nil {
			e.log.Info(ctx, types.ActionSweepCancelled, "sweep cancelled",
				"processed", i,
				"total", total,
			)
			return summary, err
		}

		order := &orders[i]
		if onProgress != nil {
			onProgress(i+1, total, fmt.Sprintf("(%d/%d) auditing order %s", i+1, total, order.Number))
		}

		summary.OrdersScanned++
		if err := e.processOrder(ctx, order, pol, &summary); err != nil {
			summary.ErrorsHandled++
			e.log.Error(ctx, types.ActionRecordFault, "failed to audit order, continuing", err,
				"order_number", order.Number,
			)
		}
	}

	e.log.Info(ctx, types.ActionSweepCompleted, "audit sweep completed",
		"orders_scanned", summary.OrdersScanned,
		"notifications_sent", summary.NotificationsSent,
		"errors_handled", summary.ErrorsHandled,
	)
	return summary, nil
}

// processOrder audits one order and all of its components. A panic from a
// malformed record is converted to an error so one bad row cannot abort the
// sweep.
func (e *Engine) processOrder(ctx context.Context, order *models.Order, pol *policy.Policy, summary *models.SweepSummary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while auditing order %s: %v", order.Number, r)
		}
	}()

	// Terminal orders never reach the sweep. A hold suspends the order's
	// own clock only; its components keep theirs, since sourcing at a
	// supplier does not pause with the hold.
	if order.Status.IsTerminal() {
		return nil
	}

	now := e.now()

	if order.Status != models.OrderInHold {
		sp, known := pol.ForOrder(order.Status)
		if !known {
			e.log.Warn(ctx, types.ActionPolicyMissing, "no threshold policy for order status, treating as unmonitored",
				"order_number", order.Number,
				"status", string(order.Status),
			)
		}
		if sp.Monitored() {
			res := dwell.EvaluateOrder(order, sp, now)
			if res.IsViolating {
				key := models.OrderViolationKey(order.Number, order.Status, res.EnteredAt)
				subject := fmt.Sprintf("Order %s overdue in status %s", order.Number, order.Status)
				body := fmt.Sprintf(
					"Order %s has been in status %s for %.1f hours, exceeding the limit of %d hours.",
					order.Number, order.Status, res.ElapsedHours, res.LimitHours,
				)
				if err := e.notify(ctx, key, models.NotificationOrderOverdue, sp.NotifyGroups, subject, body, summary); err != nil {
					return err
				}
			}
		}
	}

	for _, item := range order.Items {
		for i := range item.Components {
			comp := &item.Components[i]
			csp, known := pol.ForComponent(comp.Status)
			if !known {
				e.log.Warn(ctx, types.ActionPolicyMissing, "no threshold policy for component status, treating as unmonitored",
					"component_id", comp.ID,
					"status", string(comp.Status),
				)
			}
			if !csp.Monitored() {
				continue
			}
			res := dwell.EvaluateComponent(comp, csp, now)
			if !res.IsViolating {
				continue
			}
			key := models.ComponentViolationKey(comp.ID, comp.Status, res.EnteredAt)
			subject := fmt.Sprintf("Component %s of order %s overdue in status %s", comp.Name, order.Number, comp.Status)
			body := fmt.Sprintf(
				"Component %s (id %d, %s-sourced) of order %s has been in status %s for %.1f hours, exceeding the limit of %d hours.",
				comp.Name, comp.ID, comp.Source, order.Number, comp.Status, res.ElapsedHours, res.LimitHours,
			)
			if err := e.notify(ctx, key, models.NotificationComponentOverdue, csp.NotifyGroups, subject, body, summary); err != nil {
				return err
			}
		}
	}

	return nil
}

// notify sends one violation notification unless the journal already holds
// its key. The journal is appended only after a successful dispatch, so a
// failed or timed-out dispatch is retried on the next tick. A dispatch
// failure is counted but does not abort the rest of the order.
func (e *Engine) notify(ctx context.Context, key, notifType string, groups []string, subject, body string, summary *models.SweepSummary) error {
	sent, err := e.journal.Has(ctx, key)
	if err != nil {
		return fmt.Errorf("journal lookup for %s: %w", key, err)
	}
	if sent {
		e.log.Debug(ctx, types.ActionNotificationSuppressed, "violation already notified",
			"violation_key", key,
		)
		return nil
	}

	e.log.Info(ctx, types.ActionViolationDetected, "SLA violation detected",
		"violation_key", key,
		"notify_groups", strings.Join(groups, ","),
	)

	recipients, err := e.directory.ResolveRecipients(ctx, groups)
	if err != nil {
		return fmt.Errorf("resolve recipients for %s: %w", key, err)
	}
	if len(recipients) == 0 {
		e.log.Warn(ctx, types.ActionPolicyMissing, "no recipients resolved for violation",
			"violation_key", key,
		)
		return nil
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, e.dispatchTimeout)
	err = e.dispatcher.Send(dispatchCtx, recipients, subject, body)
	cancel()
	if err != nil {
		summary.ErrorsHandled++
		e.log.Error(ctx, types.ActionDispatchFailed, "notification dispatch failed, will retry next sweep", err,
			"violation_key", key,
		)
		return nil
	}

	entry := models.JournalEntry{
		ID:           uuid.NewString(),
		ViolationKey: key,
		Type:         notifType,
		Recipients:   recipients,
		SentAt:       e.now(),
	}
	if err := e.journal.Record(ctx, entry); err != nil {
		// The mail is out but the journal write failed; the next sweep may
		// re-send. Surface it as a record fault rather than losing it.
		return fmt.Errorf("journal record for %s: %w", key, err)
	}

	summary.NotificationsSent++
	e.log.Info(ctx, types.ActionNotificationSent, "violation notification sent",
		"violation_key", key,
		"recipients", len(recipients),
	)
	return nil
}
