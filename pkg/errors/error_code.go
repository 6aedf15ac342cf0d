package errors

// ErrorCode identifies the category and kind of an Error.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidWindow        ErrorCode = 102
	ErrCodeInvalidWeight        ErrorCode = 103
	ErrCodeWeightsExceedOne     ErrorCode = 104
	ErrCodeInvalidPrice         ErrorCode = 105
	ErrCodeInvalidInstrument    ErrorCode = 106
	ErrCodeInvalidOrder         ErrorCode = 107
	ErrCodeInvalidTimespan      ErrorCode = 108
	ErrCodeInsufficientData     ErrorCode = 109
	ErrCodeMissingParameter     ErrorCode = 110
	ErrCodeInvalidVersion       ErrorCode = 111

	// Data errors (200-299)
	ErrCodeNoDataFound           ErrorCode = 200
	ErrCodeSchemaMismatch        ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeDataSourceUnavailable ErrorCode = 203

	// Signal errors (400-499)
	ErrCodeUnsupportedSignal ErrorCode = 400

	// Order and position errors (500-599)
	ErrCodeOrderFailed      ErrorCode = 500
	ErrCodePositionNotFound ErrorCode = 501
	ErrCodeCloseFailed      ErrorCode = 502
	ErrCodeOrderRejected    ErrorCode = 503

	// Session errors (600-699)
	ErrCodeSessionNotStarted     ErrorCode = 600
	ErrCodeSessionAlreadyStarted ErrorCode = 601
	ErrCodeSessionStopped        ErrorCode = 602
	ErrCodeNoInstruments         ErrorCode = 603

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 703

	// Catalog errors (800-899)
	ErrCodeCatalogWriteFailed ErrorCode = 800
	ErrCodeCatalogReadFailed  ErrorCode = 801
)
