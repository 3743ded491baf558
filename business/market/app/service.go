package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/skinflow/fulfillment-bot/business/market/domain"
	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/logger"
)

// MarketplaceClient is the secondary marketplace API adapter.
type MarketplaceClient interface {
	Search(ctx context.Context, marketHashName string) ([]domain.Listing, error)
	Buy(ctx context.Context, listing domain.Listing, tradeURL string) (*domain.Order, error)
	OrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error)
}

// Service exposes the arbitrage purchase use case to the fulfillment engine.
type Service struct {
	client     MarketplaceClient
	calculator *ArbitrageCalculator
	log        logger.LoggerInterface
}

func NewService(client MarketplaceClient, calculator *ArbitrageCalculator, log logger.LoggerInterface) *Service {
	return &Service{client: client, calculator: calculator, log: log}
}

// Quote searches listings for the item and evaluates the cheapest one
// against both price ceilings. It never buys.
func (s *Service) Quote(ctx context.Context, marketHashName string, marketPrice, platformPrice decimal.Decimal) (domain.Decision, error) {
	listings, err := s.client.Search(ctx, marketHashName)
	if err != nil {
		return domain.Decision{}, err
	}
	decision := s.calculator.Evaluate(listings, marketPrice, platformPrice)
	if !decision.Buy {
		s.log.Debug(ctx, "arbitrage purchase rejected",
			"item", marketHashName, "reason", decision.Reason,
			"market_price", marketPrice, "platform_price", platformPrice)
	}
	return decision, nil
}

// Purchase executes an accepted decision: it buys the listing with delivery
// forwarded straight to the user's trade link, so the item never transits
// the bot inventory.
func (s *Service) Purchase(ctx context.Context, decision domain.Decision, tradeURL string) (*domain.Order, error) {
	if !decision.Buy {
		return nil, apperror.New(apperror.CodePurchaseFailed,
			apperror.WithMessage("Refusing to purchase a rejected decision"),
			apperror.WithContext(decision.Reason))
	}

	order, err := s.client.Buy(ctx, decision.Listing, tradeURL)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "arbitrage purchase placed",
		"order_id", order.ID, "item", order.MarketHashName,
		"total", order.Total, "margin", decision.Margin)
	return order, nil
}

// OrderStatus resolves the delivery state of a placed order.
func (s *Service) OrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	return s.client.OrderStatus(ctx, orderID)
}
