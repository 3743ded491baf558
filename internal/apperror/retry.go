package apperror

// Category classifies how a failure should be handled by callers.
type Category int

const (
	// CategoryFatal means the operation must not be retried.
	CategoryFatal Category = iota
	// CategoryRetryable means the operation may be retried with backoff.
	CategoryRetryable
	// CategorySourceDisable means the whole fulfillment source should be
	// taken out of rotation for the rest of the process lifetime.
	CategorySourceDisable
)

// categories maps error codes to their handling category. Codes not listed
// here are fatal: blind retries of unknown failures are worse than a clean
// failed withdrawal with items restored.
var categories = map[Code]Category{
	CodeServiceTimeout:           CategoryRetryable,
	CodeServiceUnavailable:       CategoryRetryable,
	CodeRateLimitExceeded:        CategoryRetryable,
	CodeTransactionConflict:      CategoryRetryable,
	CodeMarketRateLimited:        CategoryRetryable,
	CodeSteamAPIError:            CategoryRetryable,
	CodeSteamInventoryError:      CategoryRetryable,
	CodeCircuitOpen:              CategoryRetryable,
	CodeWebSocketConnectionError: CategoryRetryable,

	CodeSteamLoginThrottled: CategoryRetryable,
	CodeSteamLoginFailed:    CategorySourceDisable,
	CodeSteamTradeBanned:    CategorySourceDisable,
}

// CategoryOf returns the handling category for an error, unwrapping to the
// innermost AppError code.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryFatal
	}
	if cat, ok := categories[GetCode(err)]; ok {
		return cat
	}
	return CategoryFatal
}

// IsRetryable reports whether the error is safe to retry with backoff.
func IsRetryable(err error) bool {
	return CategoryOf(err) == CategoryRetryable
}

// UserMessage returns the human-readable message for an error's code,
// suitable for surfacing as a withdrawal failed_reason. Raw protocol
// details never leak through this path.
func UserMessage(err error) string {
	code := GetCode(err)
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[CodeUnknownError]
}
