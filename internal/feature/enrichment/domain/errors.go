// Package domain defines domain-level errors for the enrichment feature.
package domain

import "errors"

// Domain errors for enrichment provider calls.
// These errors represent classified fetch failures and drive the retry and
// quarantine policy in the upper layers.
var (
	// ErrSymbolNotFound indicates that the provider reports the symbol as
	// nonexistent or delisted. This is terminal: the symbol is permanently
	// quarantined and never retried.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrRateLimited indicates an HTTP 429-equivalent rate-limit signal.
	// Retryable with exponential backoff within a single fetch.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrEmptyPayload indicates the provider returned a payload with no
	// usable data at all.
	ErrEmptyPayload = errors.New("provider returned empty payload")
)
