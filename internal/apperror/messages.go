package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Price discovery
	CodeInvalidPath:         "Invalid swap path",
	CodeConnectionFailed:    "RPC connection failed",
	CodeQuoteTimeout:        "Quote call timed out",
	CodeQuoteReverted:       "Quoter contract reverted",
	CodeDecodeFailed:        "Failed to decode contract result",
	CodeMetadataFetchFailed: "Failed to fetch token metadata",
}
