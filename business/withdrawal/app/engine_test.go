package app

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/skinflow/fulfillment-bot/business/market/domain"
	tradingDomain "github.com/skinflow/fulfillment-bot/business/trading/domain"
	"github.com/skinflow/fulfillment-bot/business/withdrawal/domain"
	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

// fakeStore keeps withdrawal requests in memory and applies the same
// terminal-status rules as the real store.
type fakeStore struct {
	mu       sync.Mutex
	requests map[int64]*domain.Request
	requeues int
}

func newFakeStore(reqs ...*domain.Request) *fakeStore {
	s := &fakeStore{requests: make(map[int64]*domain.Request)}
	for _, r := range reqs {
		s.requests[r.ID] = r
	}
	return s
}

func (s *fakeStore) get(id int64) *domain.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

func (s *fakeStore) PendingBatch(ctx context.Context, limit int) ([]*domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var batch []*domain.Request
	for _, r := range s.requests {
		if r.Status == domain.StatusPending {
			batch = append(batch, r)
		}
	}
	sort.Slice(batch, func(i, j int) bool {
		return domain.CompareQueuePosition(batch[i], batch[j]) < 0
	})
	if len(batch) > limit {
		batch = batch[:limit]
	}
	return batch, nil
}

func (s *fakeStore) InFlight(ctx context.Context) ([]*domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Request
	for _, r := range s.requests {
		if r.Status.InFlight() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) transition(id int64, apply func(r *domain.Request)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return apperror.New(apperror.CodeWithdrawalNotFound)
	}
	if r.Status.IsTerminal() {
		return apperror.New(apperror.CodeTerminalStatus)
	}
	apply(r)
	return nil
}

func (s *fakeStore) MarkProcessing(ctx context.Context, id int64, tracking domain.Tracking) error {
	return s.transition(id, func(r *domain.Request) {
		now := time.Now()
		r.Status = domain.StatusProcessing
		r.ProcessingDate = &now
	})
}

func (s *fakeStore) MarkTradeSent(ctx context.Context, id int64, offerID string, confirmation domain.ConfirmationState, tracking domain.Tracking) error {
	return s.transition(id, func(r *domain.Request) {
		r.Status = domain.StatusTradeSent
		r.TradeOfferID = offerID
		r.PurchaseMethod = domain.MethodBotInventory
		r.ConfirmationState = confirmation
	})
}

func (s *fakeStore) MarkPurchased(ctx context.Context, id int64, orderID string, economics *domain.SecondaryEconomics, tracking domain.Tracking) error {
	return s.transition(id, func(r *domain.Request) {
		r.Status = domain.StatusPurchasedSecondary
		r.TradeOfferID = orderID
		r.PurchaseMethod = domain.MethodSecondaryMarket
		r.Economics = economics
	})
}

func (s *fakeStore) Requeue(ctx context.Context, id int64, reason string, tracking domain.Tracking) error {
	s.requeues++
	return s.transition(id, func(r *domain.Request) {
		r.Status = domain.StatusPending
	})
}

func (s *fakeStore) MarkWaitingConfirmation(ctx context.Context, id int64, reason string, tracking domain.Tracking) error {
	return s.transition(id, func(r *domain.Request) {
		r.Status = domain.StatusWaitingConfirmation
		r.FailedReason = reason
	})
}

func (s *fakeStore) SetConfirmationState(ctx context.Context, id int64, state domain.ConfirmationState, tracking domain.Tracking) error {
	return s.transition(id, func(r *domain.Request) {
		r.ConfirmationState = state
	})
}

func (s *fakeStore) Complete(ctx context.Context, id int64, method domain.PurchaseMethod, tracking domain.Tracking) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return 0, false, apperror.New(apperror.CodeWithdrawalNotFound)
	}
	if r.Status.IsTerminal() {
		return r.UserID, false, nil
	}
	now := time.Now()
	r.Status = domain.StatusCompleted
	r.PurchaseMethod = method
	r.CompletionDate = &now
	for i := range r.Items {
		r.Items[i].Status = domain.ItemWithdrawn
	}
	return r.UserID, true, nil
}

func (s *fakeStore) Fail(ctx context.Context, id int64, reason string, tracking domain.Tracking) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return 0, false, apperror.New(apperror.CodeWithdrawalNotFound)
	}
	if r.Status.IsTerminal() {
		return r.UserID, false, nil
	}
	r.Status = domain.StatusFailed
	r.FailedReason = reason
	for i := range r.Items {
		r.Items[i].Status = domain.ItemInInventory
	}
	return r.UserID, true, nil
}

var _ Store = (*fakeStore)(nil)

// fakeTrade is a scriptable TradeSource.
type fakeTrade struct {
	enabled    bool
	sessionErr error
	assets     map[string]string // market hash name -> asset id; absent means not in inventory
	findErr    error
	deliverErr error
	offerID    string
	confirmed  bool
	confirmErr error
	state      tradingDomain.OfferState
	resolveErr error
	canceled   []string
	findCalls  int
}

func (f *fakeTrade) Enabled() bool { return f.enabled }

func (f *fakeTrade) EnsureSession(ctx context.Context) error { return f.sessionErr }

func (f *fakeTrade) FindAsset(ctx context.Context, marketHashName string) (*tradingDomain.Asset, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	id, ok := f.assets[marketHashName]
	if !ok {
		return nil, nil
	}
	return &tradingDomain.Asset{AssetID: id, MarketHashName: marketHashName, Tradable: true}, nil
}

func (f *fakeTrade) Deliver(ctx context.Context, tradeURL string, assetIDs []string) (string, bool, error) {
	if f.deliverErr != nil {
		return "", false, f.deliverErr
	}
	return f.offerID, f.confirmed, nil
}

func (f *fakeTrade) Confirm(ctx context.Context, offerID string) error { return f.confirmErr }

func (f *fakeTrade) ResolveOffer(ctx context.Context, offerID string) (tradingDomain.OfferState, error) {
	return f.state, f.resolveErr
}

func (f *fakeTrade) CancelOffer(ctx context.Context, offerID string) error {
	f.canceled = append(f.canceled, offerID)
	return nil
}

var _ TradeSource = (*fakeTrade)(nil)

// fakeMarket is a scriptable MarketSource.
type fakeMarket struct {
	decisions     map[string]marketDomain.Decision
	quoteErr      error
	quoteCalls    int
	purchaseCalls int
	failPurchase  int // fail the Nth purchase (1-based), 0 disables
	purchaseErr   error
	statuses      map[string]marketDomain.OrderStatus
}

func (f *fakeMarket) Quote(ctx context.Context, marketHashName string, marketPrice, platformPrice decimal.Decimal) (marketDomain.Decision, error) {
	f.quoteCalls++
	if f.quoteErr != nil {
		return marketDomain.Decision{}, f.quoteErr
	}
	return f.decisions[marketHashName], nil
}

func (f *fakeMarket) Purchase(ctx context.Context, decision marketDomain.Decision, tradeURL string) (*marketDomain.Order, error) {
	f.purchaseCalls++
	if f.failPurchase != 0 && f.purchaseCalls == f.failPurchase {
		return nil, f.purchaseErr
	}
	return &marketDomain.Order{
		ID:             "order-" + decision.Listing.ID,
		ListingID:      decision.Listing.ID,
		MarketHashName: decision.Listing.MarketHashName,
		Price:          decision.Listing.Price,
		Fee:            decision.Total.Sub(decision.Listing.Price),
		Total:          decision.Total,
		Status:         marketDomain.OrderPending,
	}, nil
}

func (f *fakeMarket) OrderStatus(ctx context.Context, orderID string) (marketDomain.OrderStatus, error) {
	return f.statuses[orderID], nil
}

var _ MarketSource = (*fakeMarket)(nil)

// fakePricing always answers with the fallback, mirroring a dead feed.
type fakePricing struct{}

func (fakePricing) MarketPrice(ctx context.Context, marketHashName string, fallback decimal.Decimal) decimal.Decimal {
	return fallback
}

// fakeNotifier counts notifications.
type fakeNotifier struct {
	completed int
	failed    int
	reasons   []string
}

func (f *fakeNotifier) WithdrawalCompleted(ctx context.Context, userID, withdrawalID int64) error {
	f.completed++
	return nil
}

func (f *fakeNotifier) WithdrawalFailed(ctx context.Context, userID, withdrawalID int64, reason string) error {
	f.failed++
	f.reasons = append(f.reasons, reason)
	return nil
}

var _ Notifier = (*fakeNotifier)(nil)

// nopReporter records outcomes and ignores the rest.
type nopReporter struct {
	outcomes []Outcome
}

func (r *nopReporter) Start(ctx context.Context) error { return nil }

func (r *nopReporter) ReportOutcome(outcome Outcome) { r.outcomes = append(r.outcomes, outcome) }

func (r *nopReporter) UpdateQueue(stats QueueStats) {}

func (r *nopReporter) UpdateSourceStatus(name string, healthy bool) {}

func (r *nopReporter) Stop() error { return nil }

var _ Reporter = (*nopReporter)(nil)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pendingRequest(id int64, items ...string) *domain.Request {
	r := &domain.Request{
		ID:          id,
		UserID:      id * 100,
		TradeURL:    "https://steamcommunity.com/tradeoffer/new/?partner=123456&token=AbCd1234",
		Status:      domain.StatusPending,
		RequestDate: time.Date(2026, 3, 1, 12, 0, 0, int(id), time.UTC),
	}
	for i, name := range items {
		r.Items = append(r.Items, domain.ItemLink{
			ID:             id*10 + int64(i),
			WithdrawalID:   id,
			MarketHashName: name,
			PlatformPrice:  price("90"),
			Status:         domain.ItemReserved,
		})
	}
	return r
}

func newTestEngine(store *fakeStore, trade *fakeTrade, market *fakeMarket, notifier *fakeNotifier, reporter *nopReporter) *Engine {
	log := &mockLogger{}
	return NewEngine(
		store,
		NewReconciler(store, notifier, log),
		trade,
		market,
		fakePricing{},
		reporter,
		EngineConfig{
			TickInterval:    time.Second,
			BatchSize:       10,
			DispatchRate:    10000, // don't pace in tests
			TradeSentMaxAge: time.Hour,
		},
		log,
	)
}

func TestEngine_DispatchInventoryHit(t *testing.T) {
	req := pendingRequest(1, "AK-47 | Redline (Field-Tested)")
	store := newFakeStore(req)
	trade := &fakeTrade{
		enabled:   true,
		assets:    map[string]string{"AK-47 | Redline (Field-Tested)": "asset-1"},
		offerID:   "9001",
		confirmed: true,
	}
	market := &fakeMarket{}
	engine := newTestEngine(store, trade, market, &fakeNotifier{}, &nopReporter{})

	engine.dispatchPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusTradeSent {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusTradeSent)
	}
	if got.TradeOfferID != "9001" {
		t.Errorf("TradeOfferID = %q, want %q", got.TradeOfferID, "9001")
	}
	if got.ConfirmationState != domain.ConfirmationConfirmed {
		t.Errorf("ConfirmationState = %s, want confirmed", got.ConfirmationState)
	}
	if market.quoteCalls != 0 {
		t.Errorf("marketplace was quoted %d times, want 0", market.quoteCalls)
	}
}

func TestEngine_DispatchFallsBackToMarket(t *testing.T) {
	req := pendingRequest(1, "Item A", "Item B")
	store := newFakeStore(req)
	trade := &fakeTrade{
		enabled: true,
		// Item A is in inventory but Item B is not: no mixed fulfillment,
		// the whole request goes to the marketplace.
		assets: map[string]string{"Item A": "asset-a"},
	}
	market := &fakeMarket{
		decisions: map[string]marketDomain.Decision{
			"Item A": {Buy: true, Listing: marketDomain.Listing{ID: "la", MarketHashName: "Item A", Price: price("70")}, Total: price("73.5"), Margin: price("16.5")},
			"Item B": {Buy: true, Listing: marketDomain.Listing{ID: "lb", MarketHashName: "Item B", Price: price("60")}, Total: price("63"), Margin: price("27")},
		},
	}
	engine := newTestEngine(store, trade, market, &fakeNotifier{}, &nopReporter{})

	engine.dispatchPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusPurchasedSecondary {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusPurchasedSecondary)
	}
	if got.TradeOfferID != "order-la,order-lb" {
		t.Errorf("order ids = %q, want %q", got.TradeOfferID, "order-la,order-lb")
	}
	if got.Economics == nil {
		t.Fatal("economics not recorded")
	}
	if !got.Economics.Total.Equal(price("136.5")) {
		t.Errorf("economics total = %s, want 136.5", got.Economics.Total)
	}
	if !got.Economics.Margin.Equal(price("43.5")) {
		t.Errorf("economics margin = %s, want 43.5", got.Economics.Margin)
	}
}

func TestEngine_DispatchUnavailableEverywhere(t *testing.T) {
	req := pendingRequest(1, "Item A")
	store := newFakeStore(req)
	trade := &fakeTrade{enabled: true} // no assets
	market := &fakeMarket{
		decisions: map[string]marketDomain.Decision{
			"Item A": {Reason: marketDomain.ReasonOverPlatformPrice},
		},
	}
	notifier := &fakeNotifier{}
	engine := newTestEngine(store, trade, market, notifier, &nopReporter{})

	engine.dispatchPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusFailed)
	}
	if got.FailedReason != "Item unavailable in any source" {
		t.Errorf("reason = %q, want item unavailable message", got.FailedReason)
	}
	// Items returned to available inventory by the reconciler
	if got.Items[0].Status != domain.ItemInInventory {
		t.Errorf("item status = %s, want %s", got.Items[0].Status, domain.ItemInInventory)
	}
	if notifier.failed != 1 {
		t.Errorf("failure notifications = %d, want 1", notifier.failed)
	}
}

func TestEngine_DispatchParksWhenPrimaryOffline(t *testing.T) {
	req := pendingRequest(1, "Item A")
	store := newFakeStore(req)
	trade := &fakeTrade{enabled: false}
	market := &fakeMarket{
		decisions: map[string]marketDomain.Decision{
			"Item A": {Reason: marketDomain.ReasonOverPlatformPrice},
		},
	}
	engine := newTestEngine(store, trade, market, &fakeNotifier{}, &nopReporter{})

	engine.dispatchPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusWaitingConfirmation {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusWaitingConfirmation)
	}
}

func TestEngine_DispatchRequeuesOnRetryable(t *testing.T) {
	req := pendingRequest(1, "Item A")
	store := newFakeStore(req)
	trade := &fakeTrade{
		enabled:    true,
		assets:     map[string]string{"Item A": "asset-a"},
		deliverErr: apperror.New(apperror.CodeServiceTimeout),
	}
	notifier := &fakeNotifier{}
	engine := newTestEngine(store, trade, &fakeMarket{}, notifier, &nopReporter{})

	engine.dispatchPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusPending {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusPending)
	}
	if store.requeues != 1 {
		t.Errorf("requeues = %d, want 1", store.requeues)
	}
	if notifier.failed != 0 {
		t.Errorf("failure notifications = %d, want 0 for a retryable error", notifier.failed)
	}
}

func TestEngine_PartialPurchaseParksForOperator(t *testing.T) {
	req := pendingRequest(1, "Item A", "Item B")
	store := newFakeStore(req)
	trade := &fakeTrade{enabled: false}
	market := &fakeMarket{
		decisions: map[string]marketDomain.Decision{
			"Item A": {Buy: true, Listing: marketDomain.Listing{ID: "la", MarketHashName: "Item A", Price: price("70")}, Total: price("73.5")},
			"Item B": {Buy: true, Listing: marketDomain.Listing{ID: "lb", MarketHashName: "Item B", Price: price("60")}, Total: price("63")},
		},
		failPurchase: 2,
		purchaseErr:  apperror.New(apperror.CodeListingNotFound),
	}
	notifier := &fakeNotifier{}
	engine := newTestEngine(store, trade, market, notifier, &nopReporter{})

	engine.dispatchPass(context.Background())

	got := store.get(1)
	// Money is committed for the first order, so this is an operator
	// problem, never an automatic Fail.
	if got.Status != domain.StatusWaitingConfirmation {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusWaitingConfirmation)
	}
	if notifier.failed != 0 {
		t.Errorf("failure notifications = %d, want 0", notifier.failed)
	}
}

func TestEngine_DispatchOrdering(t *testing.T) {
	low := pendingRequest(1, "Item A")
	low.Priority = 0
	high := pendingRequest(2, "Item A")
	high.Priority = 5

	store := newFakeStore(low, high)
	trade := &fakeTrade{
		enabled: true,
		assets:  map[string]string{"Item A": "asset-a"},
		offerID: "1",
	}
	reporter := &nopReporter{}
	engine := newTestEngine(store, trade, &fakeMarket{}, &fakeNotifier{}, reporter)

	engine.dispatchPass(context.Background())

	if len(reporter.outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(reporter.outcomes))
	}
	if reporter.outcomes[0].WithdrawalID != 2 || reporter.outcomes[1].WithdrawalID != 1 {
		t.Errorf("dispatch order = %d,%d, want 2,1 (priority first)",
			reporter.outcomes[0].WithdrawalID, reporter.outcomes[1].WithdrawalID)
	}
}

func TestEngine_ResolveAcceptedOffer(t *testing.T) {
	sent := time.Now().Add(-5 * time.Minute)
	req := pendingRequest(1, "Item A")
	req.Status = domain.StatusTradeSent
	req.TradeOfferID = "9001"
	req.ConfirmationState = domain.ConfirmationConfirmed
	req.ProcessingDate = &sent

	store := newFakeStore(req)
	trade := &fakeTrade{enabled: true, state: tradingDomain.OfferAccepted}
	notifier := &fakeNotifier{}
	engine := newTestEngine(store, trade, &fakeMarket{}, notifier, &nopReporter{})

	engine.resolutionPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusCompleted)
	}
	if got.Items[0].Status != domain.ItemWithdrawn {
		t.Errorf("item status = %s, want %s", got.Items[0].Status, domain.ItemWithdrawn)
	}
	if notifier.completed != 1 {
		t.Errorf("completion notifications = %d, want 1", notifier.completed)
	}
}

func TestEngine_ResolveDeclinedOffer(t *testing.T) {
	sent := time.Now().Add(-5 * time.Minute)
	req := pendingRequest(1, "Item A")
	req.Status = domain.StatusTradeSent
	req.TradeOfferID = "9001"
	req.ConfirmationState = domain.ConfirmationConfirmed
	req.ProcessingDate = &sent

	store := newFakeStore(req)
	trade := &fakeTrade{enabled: true, state: tradingDomain.OfferDeclined}
	notifier := &fakeNotifier{}
	engine := newTestEngine(store, trade, &fakeMarket{}, notifier, &nopReporter{})

	engine.resolutionPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusFailed)
	}
	if got.Items[0].Status != domain.ItemInInventory {
		t.Errorf("item status = %s, want %s", got.Items[0].Status, domain.ItemInInventory)
	}
	if notifier.failed != 1 {
		t.Errorf("failure notifications = %d, want 1", notifier.failed)
	}
}

func TestEngine_ResolveStaleOffer(t *testing.T) {
	sent := time.Now().Add(-2 * time.Hour) // past TradeSentMaxAge
	req := pendingRequest(1, "Item A")
	req.Status = domain.StatusTradeSent
	req.TradeOfferID = "9001"
	req.ConfirmationState = domain.ConfirmationConfirmed
	req.ProcessingDate = &sent

	store := newFakeStore(req)
	trade := &fakeTrade{enabled: true, state: tradingDomain.OfferPending}
	engine := newTestEngine(store, trade, &fakeMarket{}, &fakeNotifier{}, &nopReporter{})

	engine.resolutionPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusFailed)
	}
	if len(trade.canceled) != 1 || trade.canceled[0] != "9001" {
		t.Errorf("canceled offers = %v, want [9001]", trade.canceled)
	}
}

func TestEngine_ResolveStaleOfferWhileSourceDisabled(t *testing.T) {
	sent := time.Now().Add(-3 * time.Hour) // past TradeSentMaxAge
	req := pendingRequest(1, "Item A")
	req.Status = domain.StatusTradeSent
	req.TradeOfferID = "9001"
	req.ConfirmationState = domain.ConfirmationConfirmed
	req.ProcessingDate = &sent

	store := newFakeStore(req)
	trade := &fakeTrade{enabled: false}
	notifier := &fakeNotifier{}
	engine := newTestEngine(store, trade, &fakeMarket{}, notifier, &nopReporter{})

	engine.resolutionPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusFailed)
	}
	if got.Items[0].Status != domain.ItemInInventory {
		t.Errorf("item status = %s, want %s", got.Items[0].Status, domain.ItemInInventory)
	}
	if notifier.failed != 1 {
		t.Errorf("failure notifications = %d, want 1", notifier.failed)
	}
}

func TestEngine_ResolveFreshOfferWhileSourceDisabledWaits(t *testing.T) {
	sent := time.Now().Add(-5 * time.Minute)
	req := pendingRequest(1, "Item A")
	req.Status = domain.StatusTradeSent
	req.TradeOfferID = "9001"
	req.ConfirmationState = domain.ConfirmationConfirmed
	req.ProcessingDate = &sent

	store := newFakeStore(req)
	trade := &fakeTrade{enabled: false}
	engine := newTestEngine(store, trade, &fakeMarket{}, &fakeNotifier{}, &nopReporter{})

	engine.resolutionPass(context.Background())

	if got := store.get(1); got.Status != domain.StatusTradeSent {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusTradeSent)
	}
}

func TestEngine_ResolveUnconfirmedOfferRetriesConfirmation(t *testing.T) {
	sent := time.Now().Add(-5 * time.Minute)
	req := pendingRequest(1, "Item A")
	req.Status = domain.StatusTradeSent
	req.TradeOfferID = "9001"
	req.ConfirmationState = domain.ConfirmationUnconfirmed
	req.ProcessingDate = &sent

	store := newFakeStore(req)
	trade := &fakeTrade{enabled: true, state: tradingDomain.OfferPending}
	engine := newTestEngine(store, trade, &fakeMarket{}, &fakeNotifier{}, &nopReporter{})

	engine.resolutionPass(context.Background())

	got := store.get(1)
	if got.ConfirmationState != domain.ConfirmationConfirmed {
		t.Errorf("ConfirmationState = %s, want confirmed after successful retry", got.ConfirmationState)
	}
	// Still pending on the network, so the request stays in flight
	if got.Status != domain.StatusTradeSent {
		t.Errorf("status = %s, want %s", got.Status, domain.StatusTradeSent)
	}
}

func TestEngine_ResolvePurchaseDelivered(t *testing.T) {
	req := pendingRequest(1, "Item A", "Item B")
	req.Status = domain.StatusPurchasedSecondary
	req.TradeOfferID = "order-la,order-lb"

	store := newFakeStore(req)
	market := &fakeMarket{
		statuses: map[string]marketDomain.OrderStatus{
			"order-la": marketDomain.OrderDelivered,
			"order-lb": marketDomain.OrderDelivered,
		},
	}
	notifier := &fakeNotifier{}
	engine := newTestEngine(store, &fakeTrade{}, market, notifier, &nopReporter{})

	engine.resolutionPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusCompleted)
	}
	if notifier.completed != 1 {
		t.Errorf("completion notifications = %d, want 1", notifier.completed)
	}
}

func TestEngine_ResolvePurchasePartiallyDeliveredWaits(t *testing.T) {
	req := pendingRequest(1, "Item A", "Item B")
	req.Status = domain.StatusPurchasedSecondary
	req.TradeOfferID = "order-la,order-lb"

	store := newFakeStore(req)
	market := &fakeMarket{
		statuses: map[string]marketDomain.OrderStatus{
			"order-la": marketDomain.OrderDelivered,
			"order-lb": marketDomain.OrderPending,
		},
	}
	engine := newTestEngine(store, &fakeTrade{}, market, &fakeNotifier{}, &nopReporter{})

	engine.resolutionPass(context.Background())

	if got := store.get(1); got.Status != domain.StatusPurchasedSecondary {
		t.Errorf("status = %s, want still %s", got.Status, domain.StatusPurchasedSecondary)
	}
}

func TestEngine_ResolvePurchaseRefunded(t *testing.T) {
	req := pendingRequest(1, "Item A")
	req.Status = domain.StatusPurchasedSecondary
	req.TradeOfferID = "order-la"

	store := newFakeStore(req)
	market := &fakeMarket{
		statuses: map[string]marketDomain.OrderStatus{
			"order-la": marketDomain.OrderRefunded,
		},
	}
	notifier := &fakeNotifier{}
	engine := newTestEngine(store, &fakeTrade{}, market, notifier, &nopReporter{})

	engine.resolutionPass(context.Background())

	got := store.get(1)
	if got.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want %s", got.Status, domain.StatusFailed)
	}
	if notifier.failed != 1 {
		t.Errorf("failure notifications = %d, want 1", notifier.failed)
	}
}
