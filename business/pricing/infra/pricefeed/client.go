// Package pricefeed is the HTTP adapter for the external item price feed.
package pricefeed

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/httpclient"
)

// Config holds the price feed settings.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// Client fetches spot prices from the feed.
type Client struct {
	http httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	hc, err := httpclient.New(
		httpclient.WithProviderName("pricefeed"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

type priceResponse struct {
	Success bool   `json:"success"`
	Price   string `json:"price"`
	Error   string `json:"error"`
}

// Price returns the current market price for the item.
func (c *Client) Price(ctx context.Context, marketHashName string) (decimal.Decimal, error) {
	var result priceResponse
	resp, err := c.http.NewRequest().
		SetQueryParam("market_hash_name", marketHashName).
		SetResult(&result).
		Get(ctx, "/v1/price")
	if err != nil {
		return decimal.Zero, apperror.External(apperror.CodePriceFeedError, "price request", err)
	}
	if resp.IsError() || !result.Success {
		return decimal.Zero, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithContext(result.Error),
			apperror.WithStatusCode(resp.StatusCode))
	}

	price, err := decimal.NewFromString(result.Price)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodePriceFeedError,
			apperror.WithMessage("Feed returned a malformed price"),
			apperror.WithCause(err))
	}
	return price, nil
}
