package steam

import (
	"strconv"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
)

// Protocol result codes returned by the offer endpoints.
const (
	eresultFail               = 2
	eresultInvalidState       = 11
	eresultAccessDenied       = 15
	eresultTimeout            = 16
	eresultServiceUnavailable = 20
	eresultLimitExceeded      = 25
	eresultRevoked            = 26
	eresultDuplicate          = 28
	eresultItemServerDown     = 84
)

// eresultCodes maps protocol result codes to application error codes. The
// application code carries the retry policy: limit and availability codes
// resolve to retryable categories, counterparty problems are fatal for the
// withdrawal but leave the source healthy.
var eresultCodes = map[int]apperror.Code{
	eresultFail:               apperror.CodeOfferSendFailed,
	eresultInvalidState:       apperror.CodeOfferSendFailed,
	eresultAccessDenied:       apperror.CodeCounterpartyBlocked,
	eresultTimeout:            apperror.CodeServiceTimeout,
	eresultServiceUnavailable: apperror.CodeServiceUnavailable,
	eresultLimitExceeded:      apperror.CodeRateLimitExceeded,
	eresultRevoked:            apperror.CodeCounterpartyRestricted,
	eresultDuplicate:          apperror.CodeOfferSendFailed,
	eresultItemServerDown:     apperror.CodeServiceUnavailable,
}

// wrapSteamErr wraps transport failures under code. Errors that already
// carry an application code (an open circuit breaker, a throttle) pass
// through so their retry policy survives.
func wrapSteamErr(err error, code apperror.Code, op string) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.External(code, op, err)
}

func eresultError(eresult int, message string, statusCode int) error {
	code, ok := eresultCodes[eresult]
	if !ok {
		code = apperror.CodeOfferSendFailed
	}
	opts := []apperror.Option{apperror.WithStatusCode(statusCode)}
	if message != "" {
		opts = append(opts, apperror.WithContext(message+" (eresult "+strconv.Itoa(eresult)+")"))
	} else {
		opts = append(opts, apperror.WithContext("eresult "+strconv.Itoa(eresult)))
	}
	return apperror.New(code, opts...)
}
