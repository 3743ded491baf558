package app

import (
	"context"
	"strings"
	"time"

	marketDomain "github.com/skinflow/fulfillment-bot/business/market/domain"
	tradingDomain "github.com/skinflow/fulfillment-bot/business/trading/domain"
	"github.com/skinflow/fulfillment-bot/business/withdrawal/domain"
	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/logger"
	"github.com/skinflow/fulfillment-bot/internal/ratelimit"
)

// EngineConfig holds configuration for the fulfillment engine.
type EngineConfig struct {
	TickInterval    time.Duration
	BatchSize       int
	DispatchRate    float64 // dispatched requests per second within a tick
	TradeSentMaxAge time.Duration
}

// Engine is the fulfillment scheduler. Each tick runs two passes: a
// dispatch pass that pulls pending withdrawals by queue position and pushes
// them into a fulfillment source, and a resolution pass that settles
// withdrawals already handed to an external system.
type Engine struct {
	store      Store
	reconciler *Reconciler
	trade      TradeSource
	market     MarketSource
	pricing    PriceSource
	reporter   Reporter
	limiter    *ratelimit.Limiter
	metrics    *engineMetrics
	cfg        EngineConfig
	log        logger.LoggerInterface

	// session counters, touched only from the run goroutine
	completed int
	failed    int

	done chan struct{}
}

func NewEngine(
	store Store,
	reconciler *Reconciler,
	trade TradeSource,
	market MarketSource,
	pricing PriceSource,
	reporter Reporter,
	cfg EngineConfig,
	log logger.LoggerInterface,
) *Engine {
	if cfg.DispatchRate <= 0 {
		cfg.DispatchRate = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	m, err := newEngineMetrics()
	if err != nil {
		log.Warn(context.Background(), "engine metrics disabled", "error", err)
	}
	return &Engine{
		store:      store,
		reconciler: reconciler,
		trade:      trade,
		market:     market,
		pricing:    pricing,
		reporter:   reporter,
		limiter:    ratelimit.NewWithBurst(cfg.DispatchRate, 1),
		metrics:    m,
		cfg:        cfg,
		log:        log,
		done:       make(chan struct{}),
	}
}

// Start begins the fulfillment loop. It returns immediately; the loop runs
// until ctx is canceled. Cancellation stops between withdrawals, never in
// the middle of one: a half-dispatched request is worse than a slow
// shutdown.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.reporter.Start(ctx); err != nil {
		return err
	}
	e.log.Info(ctx, "fulfillment engine starting",
		"tick_interval", e.cfg.TickInterval, "batch_size", e.cfg.BatchSize)
	go e.run(ctx)
	return nil
}

// Stop blocks until the loop has drained, then shuts down the reporter.
func (e *Engine) Stop() error {
	<-e.done
	return e.reporter.Stop()
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	e.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			e.log.Info(ctx, "fulfillment engine stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	started := time.Now()
	e.reporter.UpdateSourceStatus("trading", e.trade.Enabled())
	e.metrics.recordSourceUp(ctx, "trading", e.trade.Enabled())
	pending := e.dispatchPass(ctx)
	inflight := e.resolutionPass(ctx)
	e.metrics.recordTick(ctx, time.Since(started), pending)
	e.reporter.UpdateQueue(QueueStats{
		Pending:   pending,
		InFlight:  inflight,
		Completed: e.completed,
		Failed:    e.failed,
	})
}

// dispatchPass pulls a batch of pending withdrawals and feeds them into a
// fulfillment source one at a time, pacing dispatches so bursts of queued
// withdrawals don't hammer the upstreams.
func (e *Engine) dispatchPass(ctx context.Context) int {
	batch, err := e.store.PendingBatch(ctx, e.cfg.BatchSize)
	if err != nil {
		e.log.Error(ctx, "loading pending batch failed", "error", err)
		return 0
	}
	if len(batch) == 0 {
		return 0
	}
	e.log.Info(ctx, "dispatch pass", "batch", len(batch))

	for _, req := range batch {
		if ctx.Err() != nil {
			break
		}
		if err := e.limiter.Wait(ctx); err != nil {
			break
		}
		// The request in hand runs to a stable state even during shutdown.
		e.dispatchOne(context.WithoutCancel(ctx), req)
	}
	return len(batch)
}

func (e *Engine) dispatchOne(ctx context.Context, req *domain.Request) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error(ctx, "dispatch panicked", "withdrawal_id", req.ID, "panic", rec)
			tr := domain.Tracking{}
			tr.Recordf("dispatch_panic", "%v", rec)
			if err := e.store.Requeue(ctx, req.ID, "dispatch panic", tr); err != nil {
				e.log.Error(ctx, "requeue after panic failed", "withdrawal_id", req.ID, "error", err)
			}
		}
	}()

	tr := domain.Tracking{}
	tr.Record("dispatch", "started")
	if err := e.store.MarkProcessing(ctx, req.ID, tr); err != nil {
		if apperror.GetCode(err) == apperror.CodeTerminalStatus {
			return
		}
		e.log.Error(ctx, "marking processing failed", "withdrawal_id", req.ID, "error", err)
		return
	}
	e.metrics.recordDispatched(ctx)

	status, method, reason := e.fulfill(ctx, req)
	switch status {
	case domain.StatusCompleted:
		e.completed++
	case domain.StatusFailed:
		e.failed++
	}
	e.metrics.recordOutcome(ctx, status)
	e.reporter.ReportOutcome(Outcome{
		WithdrawalID: req.ID,
		Status:       status,
		Method:       method,
		Reason:       reason,
		Elapsed:      time.Since(started),
		Timestamp:    time.Now(),
	})
}

// fulfill routes one withdrawal: inventory delivery when every item is on
// hand, otherwise an arbitrage purchase for all of them. The two paths are
// never mixed within a request so the purchase method stays honest.
func (e *Engine) fulfill(ctx context.Context, req *domain.Request) (domain.Status, domain.PurchaseMethod, string) {
	if e.trade.Enabled() {
		if err := e.trade.EnsureSession(ctx); err != nil {
			e.log.Warn(ctx, "trading session unavailable, trying marketplace",
				"withdrawal_id", req.ID, "error", err)
		} else {
			status, reason, handled := e.fulfillFromInventory(ctx, req)
			if handled {
				return status, domain.MethodBotInventory, reason
			}
		}
	}
	status, reason := e.fulfillFromMarket(ctx, req)
	return status, domain.MethodSecondaryMarket, reason
}

// fulfillFromInventory sends a single trade offer covering every item of
// the request. handled=false means the inventory path does not apply (some
// item missing) and the marketplace should take over; a hard inventory read
// failure is not treated as absence.
func (e *Engine) fulfillFromInventory(ctx context.Context, req *domain.Request) (status domain.Status, reason string, handled bool) {
	assetIDs := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		asset, err := e.trade.FindAsset(ctx, item.MarketHashName)
		if err != nil {
			return e.handleDispatchError(ctx, req, err), apperror.UserMessage(err), true
		}
		if asset == nil {
			return "", "", false
		}
		assetIDs = append(assetIDs, asset.AssetID)
	}

	offerID, confirmed, err := e.trade.Deliver(ctx, req.TradeURL, assetIDs)
	if err != nil {
		return e.handleDispatchError(ctx, req, err), apperror.UserMessage(err), true
	}

	confirmation := domain.ConfirmationUnconfirmed
	if confirmed {
		confirmation = domain.ConfirmationConfirmed
	}

	tr := domain.Tracking{}
	tr.Recordf("trade_offer", "sent %s, %d assets, confirmation %s", offerID, len(assetIDs), confirmation)
	if err := e.store.MarkTradeSent(ctx, req.ID, offerID, confirmation, tr); err != nil {
		e.log.Error(ctx, "marking trade_sent failed",
			"withdrawal_id", req.ID, "offer_id", offerID, "error", err)
		return domain.StatusProcessing, "", true
	}
	return domain.StatusTradeSent, "", true
}

// fulfillFromMarket quotes every item against both price ceilings and, when
// all of them clear, buys them with delivery straight to the user.
func (e *Engine) fulfillFromMarket(ctx context.Context, req *domain.Request) (domain.Status, string) {
	tr := domain.Tracking{}

	decisions := make([]marketDomain.Decision, 0, len(req.Items))
	for _, item := range req.Items {
		marketPrice := e.pricing.MarketPrice(ctx, item.MarketHashName, item.PlatformPrice)
		decision, err := e.market.Quote(ctx, item.MarketHashName, marketPrice, item.PlatformPrice)
		if err != nil {
			return e.handleDispatchError(ctx, req, err), apperror.UserMessage(err)
		}
		if !decision.Buy {
			tr.Recordf("arbitrage_rejected", "%s: %s", item.MarketHashName, decision.Reason)
			if !e.trade.Enabled() {
				// The inventory path is offline, so a listing over the
				// ceiling is still a lead worth an operator's look.
				reason := "primary source offline, " + decision.Reason
				if err := e.store.MarkWaitingConfirmation(ctx, req.ID, reason, tr); err != nil {
					e.log.Error(ctx, "marking waiting_confirmation failed",
						"withdrawal_id", req.ID, "error", err)
				}
				return domain.StatusWaitingConfirmation, reason
			}
			reason := apperror.MessageFor(apperror.CodeItemUnavailable)
			if err := e.reconciler.Fail(ctx, req.ID, reason, tr); err != nil {
				e.log.Error(ctx, "failing withdrawal failed", "withdrawal_id", req.ID, "error", err)
				return domain.StatusProcessing, reason
			}
			return domain.StatusFailed, reason
		}
		decisions = append(decisions, decision)
	}

	orderIDs := make([]string, 0, len(decisions))
	economics := &domain.SecondaryEconomics{}
	for i, decision := range decisions {
		order, err := e.market.Purchase(ctx, decision, req.TradeURL)
		if err != nil {
			if len(orderIDs) == 0 {
				return e.handleDispatchError(ctx, req, err), apperror.UserMessage(err)
			}
			// Money is already committed for earlier items; park the
			// request for an operator instead of guessing.
			tr.Recordf("partial_purchase", "placed %s, then: %v", strings.Join(orderIDs, ","), err)
			reason := "partial secondary purchase, operator review required"
			if markErr := e.store.MarkWaitingConfirmation(ctx, req.ID, reason, tr); markErr != nil {
				e.log.Error(ctx, "marking waiting_confirmation failed",
					"withdrawal_id", req.ID, "error", markErr)
			}
			return domain.StatusWaitingConfirmation, reason
		}
		orderIDs = append(orderIDs, order.ID)
		economics.Price = economics.Price.Add(order.Price)
		economics.Fee = economics.Fee.Add(order.Fee)
		economics.Total = economics.Total.Add(order.Total)
		economics.Margin = economics.Margin.Add(decision.Margin)
		tr.Recordf("arbitrage_purchase", "%s: order %s, total %s, margin %s",
			req.Items[i].MarketHashName, order.ID, order.Total, decision.Margin)
	}

	joined := strings.Join(orderIDs, ",")
	if err := e.store.MarkPurchased(ctx, req.ID, joined, economics, tr); err != nil {
		e.log.Error(ctx, "marking purchased failed",
			"withdrawal_id", req.ID, "orders", joined, "error", err)
		return domain.StatusProcessing, ""
	}
	return domain.StatusPurchasedSecondary, ""
}

// handleDispatchError settles a failed dispatch attempt: transient and
// source level failures requeue the request for a later tick, anything else
// fails it with a user presentable reason.
func (e *Engine) handleDispatchError(ctx context.Context, req *domain.Request, err error) domain.Status {
	tr := domain.Tracking{}
	tr.Recordf("dispatch_error", "%v", err)

	switch apperror.CategoryOf(err) {
	case apperror.CategoryRetryable, apperror.CategorySourceDisable:
		e.log.Warn(ctx, "dispatch hit transient failure, requeueing",
			"withdrawal_id", req.ID, "error", err)
		if reqErr := e.store.Requeue(ctx, req.ID, apperror.UserMessage(err), tr); reqErr != nil {
			e.log.Error(ctx, "requeue failed", "withdrawal_id", req.ID, "error", reqErr)
		}
		e.metrics.recordRequeue(ctx)
		return domain.StatusPending
	default:
		e.log.Warn(ctx, "dispatch failed permanently",
			"withdrawal_id", req.ID, "error", err)
		if failErr := e.reconciler.Fail(ctx, req.ID, apperror.UserMessage(err), tr); failErr != nil {
			e.log.Error(ctx, "failing withdrawal failed", "withdrawal_id", req.ID, "error", failErr)
			return domain.StatusProcessing
		}
		return domain.StatusFailed
	}
}

// resolutionPass settles withdrawals already handed to an external system:
// sent trade offers and placed marketplace orders.
func (e *Engine) resolutionPass(ctx context.Context) int {
	inflight, err := e.store.InFlight(ctx)
	if err != nil {
		e.log.Error(ctx, "loading in-flight withdrawals failed", "error", err)
		return 0
	}

	for _, req := range inflight {
		if ctx.Err() != nil {
			break
		}
		rctx := context.WithoutCancel(ctx)
		switch req.Status {
		case domain.StatusTradeSent:
			e.resolveTrade(rctx, req)
		case domain.StatusPurchasedSecondary:
			e.resolvePurchase(rctx, req)
		}
	}
	return len(inflight)
}

func (e *Engine) resolveTrade(ctx context.Context, req *domain.Request) {
	if !e.trade.Enabled() {
		// No session to consult the offer state with, but a stale offer
		// still gets settled: items must not stay reserved behind a dead
		// source.
		if age := req.SentAge(time.Now()); age > e.cfg.TradeSentMaxAge {
			e.failStaleOffer(ctx, req, age)
		}
		return
	}

	// An ambiguous confirmation gets another shot before the offer state
	// is consulted; an unconfirmed offer can never be accepted.
	if req.ConfirmationState == domain.ConfirmationPending || req.ConfirmationState == domain.ConfirmationUnconfirmed {
		if err := e.trade.Confirm(ctx, req.TradeOfferID); err == nil {
			tr := domain.Tracking{}
			tr.Record("confirmation", "resolved on poll pass")
			if err := e.store.SetConfirmationState(ctx, req.ID, domain.ConfirmationConfirmed, tr); err != nil {
				e.log.Error(ctx, "updating confirmation state failed",
					"withdrawal_id", req.ID, "error", err)
			}
		}
	}

	state, err := e.trade.ResolveOffer(ctx, req.TradeOfferID)
	if err != nil {
		e.log.Warn(ctx, "offer state lookup failed",
			"withdrawal_id", req.ID, "offer_id", req.TradeOfferID, "error", err)
		return
	}

	tr := domain.Tracking{}
	switch state {
	case tradingDomain.OfferAccepted:
		tr.Record("trade_offer", "accepted")
		if err := e.reconciler.Complete(ctx, req.ID, domain.MethodBotInventory, tr); err != nil {
			e.log.Error(ctx, "completing withdrawal failed", "withdrawal_id", req.ID, "error", err)
			return
		}
		e.completed++
		e.metrics.recordOutcome(ctx, domain.StatusCompleted)
		e.reporter.ReportOutcome(Outcome{
			WithdrawalID: req.ID,
			Status:       domain.StatusCompleted,
			Method:       domain.MethodBotInventory,
			Timestamp:    time.Now(),
		})
	case tradingDomain.OfferDeclined:
		tr.Record("trade_offer", "declined")
		e.failWithOutcome(ctx, req, "Trade offer declined by recipient", tr)
	case tradingDomain.OfferExpired:
		tr.Record("trade_offer", "expired or canceled")
		e.failWithOutcome(ctx, req, "Trade offer expired", tr)
	default:
		if age := req.SentAge(time.Now()); age > e.cfg.TradeSentMaxAge {
			e.failStaleOffer(ctx, req, age)
		}
	}
}

// failStaleOffer force-fails a trade_sent withdrawal that outlived the max
// dwell. The external cancel is best-effort; the local failure and item
// restore happen regardless.
func (e *Engine) failStaleOffer(ctx context.Context, req *domain.Request, age time.Duration) {
	e.log.Warn(ctx, "stale trade offer, forcing failure",
		"withdrawal_id", req.ID, "offer_id", req.TradeOfferID, "age", age)
	if err := e.trade.CancelOffer(ctx, req.TradeOfferID); err != nil {
		e.log.Warn(ctx, "canceling stale offer failed",
			"withdrawal_id", req.ID, "error", err)
	}
	tr := domain.Tracking{}
	tr.Recordf("trade_offer", "stale after %s, canceled", age)
	e.failWithOutcome(ctx, req, "Trade offer was not accepted in time", tr)
}

func (e *Engine) resolvePurchase(ctx context.Context, req *domain.Request) {
	orderIDs := strings.Split(req.TradeOfferID, ",")

	delivered := 0
	for _, orderID := range orderIDs {
		status, err := e.market.OrderStatus(ctx, orderID)
		if err != nil {
			e.log.Warn(ctx, "order status lookup failed",
				"withdrawal_id", req.ID, "order_id", orderID, "error", err)
			return
		}
		switch status {
		case marketDomain.OrderDelivered:
			delivered++
		case marketDomain.OrderRefunded, marketDomain.OrderCanceled:
			tr := domain.Tracking{}
			tr.Recordf("secondary_order", "%s %s", orderID, status)
			e.failWithOutcome(ctx, req, "Marketplace purchase was refunded", tr)
			return
		}
	}

	if delivered == len(orderIDs) {
		tr := domain.Tracking{}
		tr.Record("secondary_order", "all orders delivered")
		if err := e.reconciler.Complete(ctx, req.ID, domain.MethodSecondaryMarket, tr); err != nil {
			e.log.Error(ctx, "completing withdrawal failed", "withdrawal_id", req.ID, "error", err)
			return
		}
		e.completed++
		e.metrics.recordOutcome(ctx, domain.StatusCompleted)
		e.reporter.ReportOutcome(Outcome{
			WithdrawalID: req.ID,
			Status:       domain.StatusCompleted,
			Method:       domain.MethodSecondaryMarket,
			Timestamp:    time.Now(),
		})
	}
}

// failWithOutcome finalizes a failed in-flight withdrawal and reports it.
func (e *Engine) failWithOutcome(ctx context.Context, req *domain.Request, reason string, tr domain.Tracking) {
	if err := e.reconciler.Fail(ctx, req.ID, reason, tr); err != nil {
		e.log.Error(ctx, "failing withdrawal failed", "withdrawal_id", req.ID, "error", err)
		return
	}
	e.failed++
	e.metrics.recordOutcome(ctx, domain.StatusFailed)
	e.reporter.ReportOutcome(Outcome{
		WithdrawalID: req.ID,
		Status:       domain.StatusFailed,
		Method:       req.PurchaseMethod,
		Reason:       reason,
		Timestamp:    time.Now(),
	})
}
