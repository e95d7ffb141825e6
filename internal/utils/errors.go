package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidQuery       = errors.New("INVALID_QUERY")
	ErrFetch              = errors.New("FETCH_ERROR")
	ErrInvalidSortKey     = errors.New("INVALID_SORT_KEY")
	ErrInvalidCursor      = errors.New("INVALID_CURSOR")
	ErrProductNotFound    = errors.New("PRODUCT_NOT_FOUND")
	ErrNotPending         = errors.New("PRODUCT_NOT_PENDING")
	ErrInvalidSubmission  = errors.New("INVALID_SUBMISSION")
	ErrUnknownMarketplace = errors.New("UNKNOWN_MARKETPLACE")
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
)
