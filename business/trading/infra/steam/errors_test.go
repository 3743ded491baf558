package steam

import (
	"testing"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
)

func TestEresultError_Mapping(t *testing.T) {
	tests := []struct {
		name         string
		eresult      int
		wantCode     apperror.Code
		wantCategory apperror.Category
	}{
		{"access_denied_is_fatal", eresultAccessDenied, apperror.CodeCounterpartyBlocked, apperror.CategoryFatal},
		{"timeout_is_retryable", eresultTimeout, apperror.CodeServiceTimeout, apperror.CategoryRetryable},
		{"service_unavailable_is_retryable", eresultServiceUnavailable, apperror.CodeServiceUnavailable, apperror.CategoryRetryable},
		{"limit_exceeded_is_retryable", eresultLimitExceeded, apperror.CodeRateLimitExceeded, apperror.CategoryRetryable},
		{"revoked_is_fatal", eresultRevoked, apperror.CodeCounterpartyRestricted, apperror.CategoryFatal},
		{"item_server_down_is_retryable", eresultItemServerDown, apperror.CodeServiceUnavailable, apperror.CategoryRetryable},
		{"unknown_eresult_defaults_to_send_failed", 999, apperror.CodeOfferSendFailed, apperror.CategoryFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eresultError(tt.eresult, "TradeOffer error", 200)
			if got := apperror.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
			if got := apperror.CategoryOf(err); got != tt.wantCategory {
				t.Errorf("category = %d, want %d", got, tt.wantCategory)
			}
		})
	}
}
