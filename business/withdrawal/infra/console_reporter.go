// Package infra contains infrastructure adapters for the withdrawal
// context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/skinflow/fulfillment-bot/business/withdrawal/app"
	"github.com/skinflow/fulfillment-bot/business/withdrawal/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Withdrawal Fulfillment Bot Started")
	fmt.Fprintln(r.out, "==================================")
	return nil
}

// ReportOutcome outputs a finished dispatch attempt to the console.
func (r *ConsoleReporter) ReportOutcome(outcome app.Outcome) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintf(r.out, "Withdrawal:     #%d\n", outcome.WithdrawalID)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", outcome.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Status:         %s\n", outcome.Status)
	if outcome.Method != "" && outcome.Method != domain.MethodNone {
		fmt.Fprintf(r.out, "Method:         %s\n", outcome.Method)
	}
	if outcome.Reason != "" {
		fmt.Fprintf(r.out, "Reason:         %s\n", outcome.Reason)
	}
	if outcome.Elapsed > 0 {
		fmt.Fprintf(r.out, "Elapsed:        %s\n", outcome.Elapsed.Round(time.Millisecond))
	}
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
}

// UpdateQueue outputs the queue snapshot.
func (r *ConsoleReporter) UpdateQueue(stats app.QueueStats) {
	fmt.Fprintf(r.out, "[%s] queue: %d pending, %d in flight, %d completed, %d failed\n",
		time.Now().Format("15:04:05"), stats.Pending, stats.InFlight, stats.Completed, stats.Failed)
}

// UpdateSourceStatus outputs source health changes.
func (r *ConsoleReporter) UpdateSourceStatus(name string, healthy bool) {
	status := "down"
	if healthy {
		status = "up"
	}
	fmt.Fprintf(r.out, "[%s] source %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Withdrawal Fulfillment Bot Stopped")
	return nil
}
