// Package ui provides the Bubble Tea TUI for the fulfillment bot.
package ui

import (
	"time"
)

// Message types for TUI updates

// OutcomeMsg is sent when a dispatch or resolution attempt finishes.
type OutcomeMsg struct {
	WithdrawalID int64
	Status       string
	Method       string
	Reason       string
	Elapsed      time.Duration
	Timestamp    time.Time
}

// QueueMsg is sent with a fresh queue depth snapshot each tick.
type QueueMsg struct {
	Pending   int
	InFlight  int
	Completed int
	Failed    int
}

// SourceStatusMsg is sent when a fulfillment source changes health.
type SourceStatusMsg struct {
	Name    string
	Healthy bool
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}
