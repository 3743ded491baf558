package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeItemUnavailable)

	assert.Equal(t, CodeItemUnavailable, err.Code)
	assert.Equal(t, "Item unavailable in any source", err.Message)
	assert.NotZero(t, err.Timestamp)
}

func TestNew_WithOptions(t *testing.T) {
	cause := errors.New("connection reset")
	err := New(CodeSteamAPIError,
		WithMessage("custom message"),
		WithContext("offer 9001"),
		WithStatusCode(http.StatusBadGateway),
		WithCause(cause))

	assert.Equal(t, "custom message", err.Message)
	assert.Equal(t, "offer 9001", err.Context)
	assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	assert.ErrorIs(t, err, cause)
}

func TestNew_UnknownCodeUsesCodeAsMessage(t *testing.T) {
	err := New(Code("SOMETHING_NEW"))
	assert.Equal(t, "SOMETHING_NEW", err.Message)
}

func TestWrap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, CodeInternalError, "ctx"))
	})

	t.Run("plain_error", func(t *testing.T) {
		err := Wrap(errors.New("boom"), CodeInternalError, "loading batch")
		require.NotNil(t, err)
		assert.Equal(t, CodeInternalError, err.Code)
		assert.Equal(t, "loading batch", err.Context)
	})

	t.Run("app_error_passes_through", func(t *testing.T) {
		inner := New(CodeCircuitOpen)
		err := Wrap(inner, CodeOfferSendFailed, "offer submit")
		// The original code survives, the wrap only adds context
		assert.Equal(t, CodeCircuitOpen, err.Code)
		assert.Equal(t, "offer submit", err.Context)
	})
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeUnknownError, GetCode(errors.New("plain")))
	assert.Equal(t, CodeUnknownError, GetCode(nil))
	assert.Equal(t, CodeServiceTimeout, GetCode(New(CodeServiceTimeout)))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(CodeServiceTimeout, WithContext("a"))
	b := New(CodeServiceTimeout, WithContext("b"))
	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, New(CodeServiceUnavailable))
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryFatal},
		{"plain_error", errors.New("boom"), CategoryFatal},
		{"timeout", New(CodeServiceTimeout), CategoryRetryable},
		{"rate_limit", New(CodeRateLimitExceeded), CategoryRetryable},
		{"tx_conflict", New(CodeTransactionConflict), CategoryRetryable},
		{"circuit_open", New(CodeCircuitOpen), CategoryRetryable},
		{"inventory_read", New(CodeSteamInventoryError), CategoryRetryable},
		{"login_throttle", New(CodeSteamLoginThrottled), CategoryRetryable},
		{"login_failed", New(CodeSteamLoginFailed), CategorySourceDisable},
		{"trade_ban", New(CodeSteamTradeBanned), CategorySourceDisable},
		{"counterparty_blocked", New(CodeCounterpartyBlocked), CategoryFatal},
		{"invalid_trade_link", New(CodeInvalidTradeLink), CategoryFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	// Raw protocol details must never reach the user-facing reason
	err := New(CodeOfferSendFailed, WithContext("strError: eresult 26 blah"))
	msg := UserMessage(err)
	assert.Equal(t, messages[CodeOfferSendFailed], msg)
	assert.NotContains(t, msg, "eresult")

	assert.Equal(t, messages[CodeUnknownError], UserMessage(errors.New("boom")))
}

func TestMessageFor(t *testing.T) {
	assert.Equal(t, "Item unavailable in any source", MessageFor(CodeItemUnavailable))
}

func TestDefaultStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, New(CodeRateLimitExceeded).StatusCode)
	assert.Equal(t, http.StatusNotFound, New(CodeWithdrawalNotFound).StatusCode)
	assert.Equal(t, http.StatusBadRequest, New(CodeInvalidTradeLink).StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable, New(CodeServiceTimeout).StatusCode)
}
