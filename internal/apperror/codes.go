package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Price-discovery error codes
const (
	// Path construction. Programmer error, never retried.
	CodeInvalidPath Code = "INVALID_PATH"

	// Quoter call transport. Transient; retry policy belongs to the caller.
	CodeConnectionFailed Code = "RPC_CONNECTION_FAILED"
	CodeQuoteTimeout     Code = "QUOTE_TIMEOUT"

	// The quoter reverted for this specific path/fee. A negative signal for
	// that route, not a transport failure.
	CodeQuoteReverted Code = "QUOTE_REVERTED"

	// The call succeeded but the result bytes did not match the expected shape.
	CodeDecodeFailed Code = "RESULT_DECODE_FAILED"

	// ERC20 metadata lookups
	CodeMetadataFetchFailed Code = "TOKEN_METADATA_FAILED"
)
