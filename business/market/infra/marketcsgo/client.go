// Package marketcsgo is the secondary marketplace adapter. It speaks the
// marketplace's v2 HTTP API: listing search, buy-with-delivery and order
// status polling.
package marketcsgo

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skinflow/fulfillment-bot/business/market/domain"
	tradingDomain "github.com/skinflow/fulfillment-bot/business/trading/domain"
	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/httpclient"
	"github.com/skinflow/fulfillment-bot/internal/logger"
	"github.com/skinflow/fulfillment-bot/internal/ratelimit"
)

// The marketplace caps API usage per key; staying under it beats getting
// banned and losing the whole secondary source.
const requestsPerMinute = 90

// Config holds the marketplace adapter settings.
type Config struct {
	BaseURL        string
	APIKey         string
	FeeRate        decimal.Decimal
	RequestTimeout time.Duration
}

// Client implements app.MarketplaceClient against the marketplace HTTP API.
type Client struct {
	http    httpclient.Client
	limiter *ratelimit.Limiter
	cfg     Config
	log     logger.LoggerInterface
}

func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	hc, err := httpclient.New(
		httpclient.WithProviderName("marketcsgo"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:    hc,
		limiter: ratelimit.New(requestsPerMinute),
		cfg:     cfg,
		log:     log,
	}, nil
}

// apiError maps marketplace HTTP failures to application error codes.
func apiError(statusCode int, body []byte) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return apperror.New(apperror.CodeMarketRateLimited)
	case statusCode >= 500:
		return apperror.New(apperror.CodeServiceUnavailable,
			apperror.WithStatusCode(statusCode))
	case statusCode >= 400:
		return apperror.New(apperror.CodeMarketAPIError,
			apperror.WithStatusCode(statusCode),
			apperror.WithContext(string(body)))
	}
	return nil
}

type searchResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	} `json:"data"`
	Error string `json:"error"`
}

// Search returns purchasable listings for an item, cheapest data first as
// the API serves them. An empty result is not an error.
func (c *Client) Search(ctx context.Context, marketHashName string) ([]domain.Listing, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var result searchResponse
	_, err := c.http.NewRequest().
		SetQueryParam("key", c.cfg.APIKey).
		SetQueryParam("hash_name", marketHashName).
		SetResult(&result).
		SetErrorHandler(apiError).
		Get(ctx, "/search-item-by-hash-name")
	if err != nil {
		return nil, wrapMarketErr(err, "listing search")
	}
	if !result.Success {
		return nil, apperror.New(apperror.CodeMarketAPIError,
			apperror.WithContext(result.Error))
	}

	listings := make([]domain.Listing, 0, len(result.Data))
	for _, d := range result.Data {
		price, err := decimal.NewFromString(d.Price)
		if err != nil {
			c.log.Warn(ctx, "skipping listing with malformed price",
				"listing_id", d.ID, "price", d.Price)
			continue
		}
		listings = append(listings, domain.Listing{
			ID:             d.ID,
			MarketHashName: marketHashName,
			Price:          price,
		})
	}
	return listings, nil
}

type buyResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"id"`
	Error    string `json:"error"`
	ErrorKey string `json:"error_key"`
}

// Buy purchases a listing with delivery forwarded directly to the user's
// trade link. The item never passes through the bot inventory.
func (c *Client) Buy(ctx context.Context, listing domain.Listing, tradeURL string) (*domain.Order, error) {
	link, err := tradingDomain.ParseTradeLink(tradeURL)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var result buyResponse
	_, err = c.http.NewRequest().
		SetQueryParam("key", c.cfg.APIKey).
		SetQueryParam("id", listing.ID).
		SetQueryParam("price", listing.Price.String()).
		SetQueryParam("partner", strconv.FormatUint(uint64(link.PartnerID), 10)).
		SetQueryParam("token", link.Token).
		SetResult(&result).
		SetErrorHandler(apiError).
		Get(ctx, "/buy-for")
	if err != nil {
		return nil, wrapMarketErr(err, "purchase")
	}
	if !result.Success || result.OrderID == "" {
		code := apperror.CodePurchaseFailed
		if result.ErrorKey == "item_not_available" {
			code = apperror.CodeListingNotFound
		}
		return nil, apperror.New(code, apperror.WithContext(result.Error))
	}

	fee := listing.Price.Mul(c.cfg.FeeRate)
	return &domain.Order{
		ID:             result.OrderID,
		ListingID:      listing.ID,
		MarketHashName: listing.MarketHashName,
		Price:          listing.Price,
		Fee:            fee,
		Total:          listing.Price.Add(fee),
		Status:         domain.OrderPending,
	}, nil
}

type orderStatusResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Status string `json:"status"`
	} `json:"data"`
	Error string `json:"error"`
}

// Marketplace order stages as the API reports them.
var orderStatuses = map[string]domain.OrderStatus{
	"creating":  domain.OrderPending,
	"waiting":   domain.OrderPending,
	"sending":   domain.OrderPending,
	"completed": domain.OrderDelivered,
	"refunded":  domain.OrderRefunded,
	"canceled":  domain.OrderCanceled,
}

// OrderStatus resolves the delivery state of a placed order.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var result orderStatusResponse
	_, err := c.http.NewRequest().
		SetQueryParam("key", c.cfg.APIKey).
		SetQueryParam("custom_id", orderID).
		SetResult(&result).
		SetErrorHandler(apiError).
		Get(ctx, "/get-buy-info-by-custom-id")
	if err != nil {
		return "", wrapMarketErr(err, "order status")
	}
	if !result.Success {
		return "", apperror.New(apperror.CodeMarketAPIError,
			apperror.WithContext(result.Error))
	}

	status, ok := orderStatuses[result.Data.Status]
	if !ok {
		status = domain.OrderPending
	}
	return status, nil
}

func wrapMarketErr(err error, op string) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.External(apperror.CodeMarketAPIError, op, err)
}
