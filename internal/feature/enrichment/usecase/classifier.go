package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"enrichment_backend/internal/feature/enrichment/domain"
	"enrichment_backend/internal/feature/enrichment/domain/entity"
)

const (
	// classifierMaxAttempts はレートリミット時の再試行回数の上限です。
	classifierMaxAttempts = 3
	// classifierBaseDelay is the first backoff delay; each further attempt
	// doubles it (10s, 20s, 40s).
	classifierBaseDelay = 10 * time.Second
)

// EnrichmentProvider is the external financial-data provider. The adapter is
// responsible for provider-symbol normalization (exchange suffixes) and for
// surfacing domain.ErrSymbolNotFound / domain.ErrRateLimited on classifiable
// failures.
// Following Go convention: interfaces are defined by the consumer (usecase).
type EnrichmentProvider interface {
	FetchProfile(ctx context.Context, symbol, exchange string) (*entity.EnrichmentFields, error)
}

// OutcomeKind classifies the result of a provider fetch.
type OutcomeKind int

const (
	// OutcomeSuccess means usable enrichment data was obtained.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeNotFound means the provider definitively reported the symbol
	// as nonexistent or delisted. Terminal: never retried.
	OutcomeNotFound
	// OutcomeError covers every other failure, including rate limiting that
	// exhausted its retry budget. Eligible for retry on a later cycle.
	OutcomeError
)

// Outcome is the classified result of one fetch, including the error tags to
// persist with the record.
type Outcome struct {
	Kind   OutcomeKind
	Fields *entity.EnrichmentFields
	Tags   entity.ErrorTags
}

// Classifier drives a provider call through the retry state machine
// {Attempting(n), Backoff(n), Terminal(kind)}. Rate-limit signals back off
// exponentially; a not-found signal short-circuits immediately with no
// backoff spent.
type Classifier struct {
	provider    EnrichmentProvider
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(time.Duration)
}

// NewClassifier creates a Classifier with the production retry budget.
func NewClassifier(provider EnrichmentProvider) *Classifier {
	return &Classifier{
		provider:    provider,
		maxAttempts: classifierMaxAttempts,
		baseDelay:   classifierBaseDelay,
		sleep:       time.Sleep,
	}
}

// Fetch calls the provider for one symbol and classifies the result.
//
// Terminal states:
//   - OutcomeSuccess with the fetched fields
//   - OutcomeNotFound tagged 404_NOT_FOUND (no retry)
//   - OutcomeError tagged RATE_LIMIT_EXCEEDED after the attempt budget,
//     or API_ERROR: <msg> for any other failure
func (c *Classifier) Fetch(ctx context.Context, symbol, exchange string) Outcome {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		fields, err := c.provider.FetchProfile(ctx, symbol, exchange)
		if err == nil {
			return Outcome{Kind: OutcomeSuccess, Fields: fields}
		}

		switch {
		case errors.Is(err, domain.ErrSymbolNotFound):
			// 恒久的な失敗。リトライせず即座に終了します。
			slog.Warn("symbol not found, quarantining", "symbol", symbol)
			return Outcome{Kind: OutcomeNotFound, Tags: entity.ErrorTags{entity.TagNotFound}}

		case errors.Is(err, domain.ErrRateLimited):
			delay := c.baseDelay << attempt
			slog.Warn("rate limit hit, backing off",
				"symbol", symbol, "delay", delay, "attempt", attempt+1, "max_attempts", c.maxAttempts)
			c.sleep(delay)

		case errors.Is(err, domain.ErrEmptyPayload):
			return Outcome{Kind: OutcomeError, Tags: entity.ErrorTags{entity.TagEmptyInfo}}

		default:
			return Outcome{Kind: OutcomeError, Tags: entity.ErrorTags{"API_ERROR: " + err.Error()}}
		}
	}

	// リトライ上限超過。恒久失敗ではないため次回サイクルで再選択されます。
	slog.Error("rate limit exceeded after retries", "symbol", symbol, "attempts", c.maxAttempts)
	return Outcome{Kind: OutcomeError, Tags: entity.ErrorTags{entity.TagRateLimitExceeded}}
}
