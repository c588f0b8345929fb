package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fiberleif/syntheseus/internal/chem"
	"github.com/fiberleif/syntheseus/internal/graph"
	"github.com/fiberleif/syntheseus/internal/types"
)

// Candidate is one merged ensemble candidate: a prediction plus full
// provenance metadata, ready for graph insertion.
type Candidate struct {
	// Precursors are the proposed precursor molecules.
	Precursors []chem.Molecule

	// Score is the weighted confidence used for ranking and cost.
	Score float64

	// Metadata records which predictor and template produced the candidate.
	Metadata graph.ReactionMetadata
}

// ExpansionPolicy turns "expand this molecule" into a merged, ranked sequence
// of reaction candidates from one or more predictors. Expand is safe for
// concurrent use so the runner may batch independent expansions.
type ExpansionPolicy struct {
	predictors []Predictor
	weights    map[string]float64
	retry      RetryPolicy
	timeout    time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer

	mu    sync.Mutex
	cache map[chem.Molecule][]Candidate
}

// PolicyOption is a functional option for configuring an ExpansionPolicy.
type PolicyOption func(*ExpansionPolicy)

// WithRetryPolicy configures bounded retries for failed predictor calls.
func WithRetryPolicy(rp RetryPolicy) PolicyOption {
	return func(p *ExpansionPolicy) {
		p.retry = rp
	}
}

// WithPredictorWeight scales the scores of the named predictor when merging
// ensemble results. Default weight is 1.
func WithPredictorWeight(name string, weight float64) PolicyOption {
	return func(p *ExpansionPolicy) {
		p.weights[name] = weight
	}
}

// WithCallTimeout bounds each individual predictor call.
func WithCallTimeout(d time.Duration) PolicyOption {
	return func(p *ExpansionPolicy) {
		p.timeout = d
	}
}

// WithCache enables caching of merged expansion results keyed by canonical
// molecule. Useful when a strategy may reselect a molecule.
func WithCache() PolicyOption {
	return func(p *ExpansionPolicy) {
		p.cache = make(map[chem.Molecule][]Candidate)
	}
}

// WithLogger configures the policy to use the specified structured logger.
func WithLogger(logger *slog.Logger) PolicyOption {
	return func(p *ExpansionPolicy) {
		p.logger = logger
	}
}

// WithTracer configures the policy to emit a span per expansion call.
func WithTracer(tracer trace.Tracer) PolicyOption {
	return func(p *ExpansionPolicy) {
		p.tracer = tracer
	}
}

// NewExpansionPolicy creates an ExpansionPolicy over the given predictors.
// At least one predictor is required.
func NewExpansionPolicy(predictors []Predictor, opts ...PolicyOption) (*ExpansionPolicy, error) {
	if len(predictors) == 0 {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "expansion policy requires at least one predictor")
	}

	p := &ExpansionPolicy{
		predictors: predictors,
		weights:    make(map[string]float64),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Expand queries every configured predictor for the molecule and merges the
// results into one ranked candidate list, ordered by weighted score
// descending with predictor-then-rank order breaking ties deterministically.
//
// A predictor failure is retried per the retry policy. If some predictors
// fail and others succeed, the failures are logged and the successes are
// returned. If every predictor fails, Expand returns a
// PREDICTION_UNAVAILABLE error and the caller must treat the molecule as
// exhausted.
func (p *ExpansionPolicy) Expand(ctx context.Context, mol chem.Molecule) ([]Candidate, error) {
	if p.tracer != nil {
		var span trace.Span
		ctx, span = p.tracer.Start(ctx, "policy.expand",
			trace.WithAttributes(attribute.String("molecule", mol.String())),
		)
		defer span.End()
	}

	if p.cache != nil {
		p.mu.Lock()
		cached, ok := p.cache[mol]
		p.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	var merged []Candidate
	var failures int
	var lastErr error

	for _, predictor := range p.predictors {
		predictions, err := p.predictWithRetry(ctx, predictor, mol)
		if err != nil {
			failures++
			lastErr = err
			p.logger.WarnContext(ctx, "predictor failed",
				"predictor", predictor.Name(),
				"molecule", mol.String(),
				"error", err,
			)
			continue
		}

		weight := 1.0
		if w, ok := p.weights[predictor.Name()]; ok && w > 0 {
			weight = w
		}

		for rank, pred := range predictions {
			if len(pred.Precursors) == 0 {
				p.logger.WarnContext(ctx, "dropping malformed prediction with no precursors",
					"predictor", predictor.Name(),
					"molecule", mol.String(),
					"rank", rank,
				)
				continue
			}
			merged = append(merged, Candidate{
				Precursors: pred.Precursors,
				Score:      weight * pred.Score,
				Metadata: graph.ReactionMetadata{
					PredictorName: predictor.Name(),
					TemplateID:    pred.TemplateID,
					Rank:          rank,
				},
			})
		}
	}

	if failures == len(p.predictors) {
		return nil, types.WrapError(types.PREDICTION_UNAVAILABLE,
			fmt.Sprintf("all %d predictor(s) failed for molecule %q", failures, mol.String()), lastErr)
	}

	// Stable sort keeps predictor registration order, then predictor rank,
	// as the deterministic tie-break among equal scores.
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Score > merged[b].Score
	})

	if p.cache != nil {
		p.mu.Lock()
		p.cache[mol] = merged
		p.mu.Unlock()
	}
	return merged, nil
}

// predictWithRetry calls one predictor, retrying per the retry policy.
// Context cancellation aborts the retry loop immediately.
func (p *ExpansionPolicy) predictWithRetry(ctx context.Context, predictor Predictor, mol chem.Molecule) ([]Prediction, error) {
	var lastErr error

	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retry.CalculateDelay(attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			p.logger.DebugContext(ctx, "retrying predictor call",
				"predictor", predictor.Name(),
				"molecule", mol.String(),
				"attempt", attempt,
			)
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if p.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		}
		predictions, err := predictor.Predict(callCtx, mol)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return predictions, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
