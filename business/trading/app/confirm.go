package app

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/skinflow/fulfillment-bot/internal/logger"
)

// Confirmer is one mobile confirmation strategy. Strategies are tried in
// the order they were registered; the first success wins.
type Confirmer interface {
	Name() string
	Confirm(ctx context.Context, offerID string) error
}

// ConfirmRunner walks an ordered list of confirmation strategies until one
// reports success. All failures are joined so the caller can log the whole
// trail.
type ConfirmRunner struct {
	strategies []Confirmer
	attempts   metric.Int64Counter
	log        logger.LoggerInterface
}

func NewConfirmRunner(log logger.LoggerInterface, strategies ...Confirmer) *ConfirmRunner {
	attempts, err := otel.Meter("trading").Int64Counter(
		"confirmation_attempts_total",
		metric.WithDescription("Mobile confirmation attempts by strategy and result"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		log.Warn(context.Background(), "confirmation metrics disabled", "error", err)
	}
	return &ConfirmRunner{strategies: strategies, attempts: attempts, log: log}
}

func (r *ConfirmRunner) recordAttempt(ctx context.Context, strategy string, ok bool) {
	if r.attempts == nil {
		return
	}
	r.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.Bool("confirmed", ok),
	))
}

// Run attempts each strategy in order and returns the name of the one that
// confirmed the offer. If every strategy fails the joined error is returned
// and the offer remains in an unknown confirmation state.
func (r *ConfirmRunner) Run(ctx context.Context, offerID string) (string, error) {
	var errs []error
	for _, strategy := range r.strategies {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		err := strategy.Confirm(ctx, offerID)
		r.recordAttempt(ctx, strategy.Name(), err == nil)
		if err == nil {
			return strategy.Name(), nil
		}
		r.log.Debug(ctx, "confirmation strategy failed",
			"strategy", strategy.Name(), "offer_id", offerID, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", errors.New("no confirmation strategies registered")
	}
	return "", errors.Join(errs...)
}
