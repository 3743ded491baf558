package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Fulfillment-specific error codes
const (
	// Database errors
	CodeDatabaseError       Code = "DATABASE_ERROR"
	CodeTransactionConflict Code = "TRANSACTION_CONFLICT"
	CodeWithdrawalNotFound  Code = "WITHDRAWAL_NOT_FOUND"
	CodeTerminalStatus      Code = "TERMINAL_STATUS"

	// Trade network (Steam) errors
	CodeSteamLoginFailed       Code = "STEAM_LOGIN_FAILED"
	CodeSteamLoginThrottled    Code = "STEAM_LOGIN_THROTTLED"
	CodeSteamTradeBanned       Code = "STEAM_TRADE_BANNED"
	CodeSteamAPIError          Code = "STEAM_API_ERROR"
	CodeSteamInventoryError    Code = "STEAM_INVENTORY_ERROR"
	CodeInvalidTradeLink       Code = "INVALID_TRADE_LINK"
	CodeOfferSendFailed        Code = "OFFER_SEND_FAILED"
	CodeOfferNotFound          Code = "OFFER_NOT_FOUND"
	CodeCounterpartyBlocked    Code = "COUNTERPARTY_BLOCKED"
	CodeCounterpartyRestricted Code = "COUNTERPARTY_RESTRICTED"
	CodeConfirmationFailed     Code = "CONFIRMATION_FAILED"

	// Secondary marketplace errors
	CodeMarketAPIError        Code = "MARKET_API_ERROR"
	CodeMarketRateLimited     Code = "MARKET_RATE_LIMITED"
	CodeListingNotFound       Code = "LISTING_NOT_FOUND"
	CodePurchaseFailed        Code = "PURCHASE_FAILED"
	CodeOfferTooExpensive     Code = "OFFER_TOO_EXPENSIVE"

	// Pricing errors
	CodePriceFeedError   Code = "PRICE_FEED_ERROR"
	CodePriceUnavailable Code = "PRICE_UNAVAILABLE"

	// Resolution
	CodeItemUnavailable Code = "ITEM_UNAVAILABLE"

	// Notification errors
	CodeNotificationError Code = "NOTIFICATION_ERROR"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
