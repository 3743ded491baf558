package app

import (
	"context"
	"testing"

	"github.com/skinflow/fulfillment-bot/business/withdrawal/domain"
)

func TestReconciler_CompleteNotifiesOnce(t *testing.T) {
	req := pendingRequest(1, "Item A")
	req.Status = domain.StatusTradeSent
	store := newFakeStore(req)
	notifier := &fakeNotifier{}
	rec := NewReconciler(store, notifier, &mockLogger{})

	ctx := context.Background()
	if err := rec.Complete(ctx, 1, domain.MethodBotInventory, domain.Tracking{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A replay hits the terminal-status guard and must not notify again
	if err := rec.Complete(ctx, 1, domain.MethodBotInventory, domain.Tracking{}); err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}

	if notifier.completed != 1 {
		t.Errorf("completion notifications = %d, want 1", notifier.completed)
	}
	if got := store.get(1); got.Items[0].Status != domain.ItemWithdrawn {
		t.Errorf("item status = %s, want %s", got.Items[0].Status, domain.ItemWithdrawn)
	}
}

func TestReconciler_FailRestoresItemsAndNotifiesOnce(t *testing.T) {
	req := pendingRequest(1, "Item A")
	req.Status = domain.StatusProcessing
	store := newFakeStore(req)
	notifier := &fakeNotifier{}
	rec := NewReconciler(store, notifier, &mockLogger{})

	ctx := context.Background()
	if err := rec.Fail(ctx, 1, "Trade offer declined by recipient", domain.Tracking{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rec.Fail(ctx, 1, "Trade offer declined by recipient", domain.Tracking{}); err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}

	if notifier.failed != 1 {
		t.Errorf("failure notifications = %d, want 1", notifier.failed)
	}
	got := store.get(1)
	if got.Items[0].Status != domain.ItemInInventory {
		t.Errorf("item status = %s, want %s", got.Items[0].Status, domain.ItemInInventory)
	}
	if got.FailedReason != "Trade offer declined by recipient" {
		t.Errorf("reason = %q", got.FailedReason)
	}
}

func TestReconciler_FailAfterCompleteIsNoop(t *testing.T) {
	req := pendingRequest(1, "Item A")
	req.Status = domain.StatusTradeSent
	store := newFakeStore(req)
	notifier := &fakeNotifier{}
	rec := NewReconciler(store, notifier, &mockLogger{})

	ctx := context.Background()
	if err := rec.Complete(ctx, 1, domain.MethodBotInventory, domain.Tracking{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rec.Fail(ctx, 1, "late failure", domain.Tracking{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := store.get(1)
	if got.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed to stick", got.Status)
	}
	if notifier.failed != 0 {
		t.Errorf("failure notifications = %d, want 0", notifier.failed)
	}
}
