// Package policy adapts external single-step reaction predictors into the
// expansion interface the search runner consumes. It handles retry with
// backoff, result caching, and merging of multi-predictor ensembles while the
// predictors themselves remain external collaborators.
package policy

import (
	"context"
	"math"
	"time"

	"github.com/fiberleif/syntheseus/internal/chem"
)

// Prediction is one ranked candidate from a single-step predictor: a set of
// precursor molecules proposed to produce the queried product.
type Prediction struct {
	// Precursors are the proposed precursor molecules, already canonical.
	Precursors []chem.Molecule

	// Score is the predictor's confidence in this candidate.
	Score float64

	// TemplateID identifies the reaction template, if the predictor is
	// template-based.
	TemplateID string
}

// Predictor is the upstream single-step reaction prediction collaborator.
// Implementations may be neural models, template libraries, or remote
// services; the engine only requires ranked candidates and a stable name.
type Predictor interface {
	// Name identifies the predictor in reaction provenance metadata.
	Name() string

	// Predict proposes ranked precursor sets for the given product molecule.
	// An empty result means the predictor has no candidates for the molecule.
	Predict(ctx context.Context, product chem.Molecule) ([]Prediction, error)
}

// BackoffStrategy defines the strategy for calculating retry delays.
type BackoffStrategy string

const (
	// BackoffConstant returns a constant delay for all retry attempts
	BackoffConstant BackoffStrategy = "constant"
	// BackoffLinear increases the delay linearly with each retry attempt
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential increases the delay exponentially with each retry attempt
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy defines the retry behavior for failed predictor calls.
// The zero value disables retries.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int `json:"max_retries"`
	// BackoffStrategy determines how delays are calculated between retries
	BackoffStrategy BackoffStrategy `json:"backoff_strategy"`
	// InitialDelay is the delay before the first retry attempt
	InitialDelay time.Duration `json:"initial_delay"`
	// MaxDelay is the maximum delay between retry attempts (used for exponential backoff)
	MaxDelay time.Duration `json:"max_delay"`
	// Multiplier is the factor by which the delay increases (used for exponential backoff)
	Multiplier float64 `json:"multiplier"`
}

// CalculateDelay calculates the delay duration for a given retry attempt
// based on the configured backoff strategy.
func (rp *RetryPolicy) CalculateDelay(attempt int) time.Duration {
	switch rp.BackoffStrategy {
	case BackoffConstant:
		return rp.InitialDelay
	case BackoffLinear:
		return rp.InitialDelay + (rp.InitialDelay * time.Duration(attempt))
	case BackoffExponential:
		delay := time.Duration(float64(rp.InitialDelay) * math.Pow(rp.Multiplier, float64(attempt)))
		if delay > rp.MaxDelay {
			return rp.MaxDelay
		}
		return delay
	default:
		return rp.InitialDelay
	}
}
