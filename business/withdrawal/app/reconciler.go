package app

import (
	"context"

	"github.com/skinflow/fulfillment-bot/business/withdrawal/domain"
	"github.com/skinflow/fulfillment-bot/internal/logger"
)

// Reconciler finalizes withdrawal outcomes. Terminal transitions and their
// inventory effects commit atomically in the store; the user notification
// fires only after the commit, and only when this call actually performed
// the transition, so replays and races never notify twice.
type Reconciler struct {
	store    Store
	notifier Notifier
	log      logger.LoggerInterface
}

func NewReconciler(store Store, notifier Notifier, log logger.LoggerInterface) *Reconciler {
	return &Reconciler{store: store, notifier: notifier, log: log}
}

// Complete marks the withdrawal fulfilled and notifies the user.
func (r *Reconciler) Complete(ctx context.Context, id int64, method domain.PurchaseMethod, tracking domain.Tracking) error {
	userID, applied, err := r.store.Complete(ctx, id, method, tracking)
	if err != nil {
		return err
	}
	if !applied {
		r.log.Debug(ctx, "complete skipped, request already terminal", "withdrawal_id", id)
		return nil
	}

	r.log.Info(ctx, "withdrawal completed", "withdrawal_id", id, "method", method)
	if err := r.notifier.WithdrawalCompleted(ctx, userID, id); err != nil {
		// The outcome is committed; a lost notification is an annoyance,
		// not a correctness problem.
		r.log.Warn(ctx, "completion notification failed",
			"withdrawal_id", id, "user_id", userID, "error", err)
	}
	return nil
}

// Fail marks the withdrawal failed, which also returns its reserved items
// to available inventory in the same transaction, then notifies the user.
func (r *Reconciler) Fail(ctx context.Context, id int64, reason string, tracking domain.Tracking) error {
	userID, applied, err := r.store.Fail(ctx, id, reason, tracking)
	if err != nil {
		return err
	}
	if !applied {
		r.log.Debug(ctx, "fail skipped, request already terminal", "withdrawal_id", id)
		return nil
	}

	r.log.Info(ctx, "withdrawal failed", "withdrawal_id", id, "reason", reason)
	if err := r.notifier.WithdrawalFailed(ctx, userID, id, reason); err != nil {
		r.log.Warn(ctx, "failure notification failed",
			"withdrawal_id", id, "user_id", userID, "error", err)
	}
	return nil
}
