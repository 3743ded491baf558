// Package app implements the trading use cases: session lifecycle,
// inventory lookups and trade offer delivery with confirmation.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/skinflow/fulfillment-bot/business/trading/domain"
	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/logger"
)

// NetworkClient is the low level trading network adapter.
type NetworkClient interface {
	Login(ctx context.Context) error
	LoggedIn() bool
	CanTrade(ctx context.Context) error
	Inventory(ctx context.Context) ([]domain.Asset, error)
	SendOffer(ctx context.Context, link domain.TradeLink, assetIDs []string, message string) (string, error)
	OfferState(ctx context.Context, offerID string) (domain.OfferState, error)
	CancelOffer(ctx context.Context, offerID string) error
}

// Config tunes retry behaviour for the trading service.
type Config struct {
	OfferMessage    string
	ThrottleBackoff time.Duration
	ThrottleTries   int
	SendTries       int
	SendBackoff     time.Duration
}

// Service exposes high level trading operations to the fulfillment engine.
type Service struct {
	client    NetworkClient
	confirmer *ConfirmRunner
	log       logger.LoggerInterface
	cfg       Config

	mu       sync.Mutex
	disabled bool
}

func NewService(client NetworkClient, confirmer *ConfirmRunner, cfg Config, log logger.LoggerInterface) *Service {
	if cfg.ThrottleTries <= 0 {
		cfg.ThrottleTries = 1
	}
	if cfg.SendTries <= 0 {
		cfg.SendTries = 1
	}
	return &Service{client: client, confirmer: confirmer, cfg: cfg, log: log}
}

// Enabled reports whether the source may still be offered work.
func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.disabled
}

func (s *Service) disable(ctx context.Context, reason error) {
	s.mu.Lock()
	s.disabled = true
	s.mu.Unlock()
	s.log.Warn(ctx, "trading source disabled", "reason", reason)
}

// EnsureSession makes sure the network session is alive and the account is
// allowed to trade. Login is idempotent: an existing session is reused.
// Throttled logins back off and retry; a rejected login, a trade ban or an
// exhausted throttle budget disables the source for the rest of the run.
func (s *Service) EnsureSession(ctx context.Context) error {
	if !s.Enabled() {
		return apperror.New(apperror.CodeSteamLoginFailed,
			apperror.WithMessage("Trading source is disabled"))
	}
	if !s.client.LoggedIn() {
		if err := s.login(ctx); err != nil {
			return err
		}
	}
	if err := s.client.CanTrade(ctx); err != nil {
		if apperror.CategoryOf(err) == apperror.CategorySourceDisable {
			s.disable(ctx, err)
		}
		return err
	}
	return nil
}

func (s *Service) login(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.ThrottleTries; attempt++ {
		err := s.client.Login(ctx)
		if err == nil {
			s.log.Info(ctx, "trading session established", "attempt", attempt)
			return nil
		}
		lastErr = err

		if apperror.GetCode(err) != apperror.CodeSteamLoginThrottled {
			break
		}
		s.log.Warn(ctx, "login throttled, backing off",
			"attempt", attempt, "backoff", s.cfg.ThrottleBackoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.ThrottleBackoff):
		}
	}
	// Exhausting the throttle retries disables the source like a rejected
	// login would: re-running the whole backoff cycle every tick is the
	// hammering the throttle asked us to stop.
	if apperror.CategoryOf(lastErr) == apperror.CategorySourceDisable ||
		apperror.GetCode(lastErr) == apperror.CodeSteamLoginThrottled {
		s.disable(ctx, lastErr)
	}
	return lastErr
}

// FindAsset looks up a tradable asset by market hash name in the bot's
// inventory. A missing item is (nil, nil); only transport or session
// failures surface as errors so callers never mistake an outage for
// a genuinely absent item.
func (s *Service) FindAsset(ctx context.Context, marketHashName string) (*domain.Asset, error) {
	assets, err := s.client.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	for i := range assets {
		if assets[i].MarketHashName == marketHashName && assets[i].Tradable {
			return &assets[i], nil
		}
	}
	return nil, nil
}

// Deliver parses the user's trade link, sends an offer for the given assets
// and attempts to confirm it. The send is retried for transient failures.
// A sent but unconfirmed offer is not an error: the caller records the
// ambiguity and resolves it on a later pass.
func (s *Service) Deliver(ctx context.Context, rawLink string, assetIDs []string) (offerID string, confirmed bool, err error) {
	link, err := domain.ParseTradeLink(rawLink)
	if err != nil {
		return "", false, err
	}

	offerID, err = s.sendOffer(ctx, link, assetIDs)
	if err != nil {
		return "", false, err
	}

	confirmedBy, err := s.confirmer.Run(ctx, offerID)
	if err != nil {
		s.log.Warn(ctx, "offer sent but confirmation unresolved",
			"offer_id", offerID, "error", err)
		return offerID, false, nil
	}
	s.log.Info(ctx, "offer confirmed", "offer_id", offerID, "strategy", confirmedBy)
	return offerID, true, nil
}

func (s *Service) sendOffer(ctx context.Context, link domain.TradeLink, assetIDs []string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.SendTries; attempt++ {
		offerID, err := s.client.SendOffer(ctx, link, assetIDs, s.cfg.OfferMessage)
		if err == nil {
			return offerID, nil
		}
		lastErr = err
		if !apperror.IsRetryable(err) {
			break
		}
		s.log.Warn(ctx, "offer send failed, retrying",
			"attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.cfg.SendBackoff):
		}
	}
	return "", lastErr
}

// Confirm retries the confirmation sub-protocol for an already sent offer.
func (s *Service) Confirm(ctx context.Context, offerID string) error {
	confirmedBy, err := s.confirmer.Run(ctx, offerID)
	if err != nil {
		return err
	}
	s.log.Info(ctx, "offer confirmed", "offer_id", offerID, "strategy", confirmedBy)
	return nil
}

// ResolveOffer returns the current network-side state for a sent offer.
func (s *Service) ResolveOffer(ctx context.Context, offerID string) (domain.OfferState, error) {
	return s.client.OfferState(ctx, offerID)
}

// CancelOffer withdraws a still pending offer.
func (s *Service) CancelOffer(ctx context.Context, offerID string) error {
	return s.client.CancelOffer(ctx, offerID)
}
