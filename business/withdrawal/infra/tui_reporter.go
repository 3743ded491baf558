package infra

import (
	"context"

	"github.com/skinflow/fulfillment-bot/business/withdrawal/app"
	"github.com/skinflow/fulfillment-bot/pkg/ui"
)

// TUIReporter implements Reporter by forwarding engine activity to the
// Bubble Tea dashboard as messages.
type TUIReporter struct{}

// NewTUIReporter creates a new TUIReporter. The Bubble Tea program itself
// is started by the main entrypoint; this adapter only sends messages.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{}
}

// Start initializes the TUI reporter.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// ReportOutcome sends a finished dispatch attempt to the dashboard.
func (r *TUIReporter) ReportOutcome(outcome app.Outcome) {
	ui.Send(ui.OutcomeMsg{
		WithdrawalID: outcome.WithdrawalID,
		Status:       string(outcome.Status),
		Method:       string(outcome.Method),
		Reason:       outcome.Reason,
		Elapsed:      outcome.Elapsed,
		Timestamp:    outcome.Timestamp,
	})
}

// UpdateQueue sends the queue snapshot to the dashboard.
func (r *TUIReporter) UpdateQueue(stats app.QueueStats) {
	ui.Send(ui.QueueMsg{
		Pending:   stats.Pending,
		InFlight:  stats.InFlight,
		Completed: stats.Completed,
		Failed:    stats.Failed,
	})
}

// UpdateSourceStatus sends source health to the dashboard.
func (r *TUIReporter) UpdateSourceStatus(name string, healthy bool) {
	ui.Send(ui.SourceStatusMsg{Name: name, Healthy: healthy})
}

// Stop gracefully shuts down the TUI reporter.
func (r *TUIReporter) Stop() error {
	return nil
}
