package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

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

type fakeProvider struct {
	price decimal.Decimal
	err   error
}

func (f *fakeProvider) Price(ctx context.Context, marketHashName string) (decimal.Decimal, error) {
	return f.price, f.err
}

func TestPricingService_MarketPrice(t *testing.T) {
	fallback := decimal.RequireFromString("42.50")

	tests := []struct {
		name     string
		provider *fakeProvider
		want     string
	}{
		{
			name:     "feed_price_used",
			provider: &fakeProvider{price: decimal.RequireFromString("55.10")},
			want:     "55.10",
		},
		{
			name:     "feed_error_falls_back",
			provider: &fakeProvider{err: errors.New("connection refused")},
			want:     "42.50",
		},
		{
			name:     "zero_price_falls_back",
			provider: &fakeProvider{price: decimal.Zero},
			want:     "42.50",
		},
		{
			name:     "negative_price_falls_back",
			provider: &fakeProvider{price: decimal.RequireFromString("-1")},
			want:     "42.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPricingService(tt.provider, &mockLogger{})

			got := svc.MarketPrice(context.Background(), "AK-47 | Redline (Field-Tested)", fallback)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("MarketPrice = %s, want %s", got, tt.want)
			}
		})
	}
}
