package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Database errors
	CodeDatabaseError:       "Database operation failed",
	CodeTransactionConflict: "Transaction conflict, will retry",
	CodeWithdrawalNotFound:  "Withdrawal not found",
	CodeTerminalStatus:      "Withdrawal already in a terminal status",

	// Trade network (Steam) errors
	CodeSteamLoginFailed:       "Failed to sign in to the trade network",
	CodeSteamLoginThrottled:    "Too many recent sign-in attempts",
	CodeSteamTradeBanned:       "Account is restricted from trading",
	CodeSteamAPIError:          "Trade network API request failed",
	CodeSteamInventoryError:    "Failed to load bot inventory",
	CodeInvalidTradeLink:       "Trade link is invalid or expired",
	CodeOfferSendFailed:        "Failed to send trade offer",
	CodeOfferNotFound:          "Trade offer not found",
	CodeCounterpartyBlocked:    "Recipient profile is private or inaccessible",
	CodeCounterpartyRestricted: "Recipient cannot trade right now",
	CodeConfirmationFailed:     "Trade offer could not be confirmed",

	// Secondary marketplace errors
	CodeMarketAPIError:    "Marketplace API error",
	CodeMarketRateLimited: "Marketplace rate limit exceeded",
	CodeListingNotFound:   "No marketplace listing for this item",
	CodePurchaseFailed:    "Marketplace purchase failed",
	CodeOfferTooExpensive: "Marketplace offer exceeds the price ceiling",

	// Pricing errors
	CodePriceFeedError:   "Price feed error",
	CodePriceUnavailable: "Market price unavailable",

	// Resolution
	CodeItemUnavailable: "Item unavailable in any source",

	// Notification errors
	CodeNotificationError: "Failed to publish notification",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}

// MessageFor returns the human-readable message for a code.
func MessageFor(code Code) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[CodeUnknownError]
}
