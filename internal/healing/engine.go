// Package healing resolves locator chains against a live environment and
// heals failing primaries through fallbacks and heuristic re-matching.
package healing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mj1618/locator-cli/internal/classify"
	"github.com/mj1618/locator-cli/internal/env"
	"github.com/mj1618/locator-cli/internal/model"
)

// DefaultQueryTimeout bounds each environment query when Options leaves it unset.
const DefaultQueryTimeout = 2 * time.Second

// Recorder receives healing events. telemetry.Aggregator implements it.
type Recorder interface {
	Record(ctx context.Context, ev model.HealingEvent) error
}

// UsageRecorder receives per-object outcomes. repository.Repository implements it.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, id string, outcome model.Outcome) error
}

// Options configure an Engine.
type Options struct {
	QueryTimeout time.Duration
	Classifier   *classify.Classifier
	Recorder     Recorder
	Usage        UsageRecorder
	Now          func() time.Time
}

// Engine runs the resolution state machine. It holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine returns an Engine, filling zero options with defaults.
func NewEngine(opts Options) *Engine {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{opts: opts}
}

// Request is one resolution.
type Request struct {
	ObjectID       string
	Chain          model.Chain
	Hint           model.CapturedAttributes
	Env            env.Environment
	HealingEnabled bool
}

// Attempt records one query made during a resolution.
type Attempt struct {
	Strategy model.Strategy `yaml:"strategy"            json:"strategy"`
	Locator  model.Locator  `yaml:"locator"             json:"locator"`
	Count    int            `yaml:"count"               json:"count"`
	TimedOut bool           `yaml:"timed_out,omitempty" json:"timed_out,omitempty"`
}

// Result is the outcome of Resolve. A failed resolution is a Result with
// Success false, not an error.
type Result struct {
	Success               bool           `yaml:"success"                    json:"success"`
	Handle                env.Handle     `yaml:"-"                          json:"-"`
	UsedLocator           *model.Locator `yaml:"used_locator,omitempty"     json:"used_locator,omitempty"`
	Strategy              model.Strategy `yaml:"strategy,omitempty"         json:"strategy,omitempty"`
	HealingApplied        bool           `yaml:"healing_applied"            json:"healing_applied"`
	OriginalLocatorFailed bool           `yaml:"original_locator_failed"    json:"original_locator_failed"`
	SuggestedUpdate       *model.Locator `yaml:"suggested_update,omitempty" json:"suggested_update,omitempty"`
	Attempts              []Attempt      `yaml:"attempts"                   json:"attempts"`
}

// Resolve finds the element described by req.Chain.
//
// The primary and fallbacks accept any match and take the first element;
// heuristics derived from req.Hint accept only a unique match. Each query
// is bounded by the query timeout and a timed-out query counts as no match.
// Only accessor faults and cancellation of ctx are returned as errors; a
// cancelled resolution records no healing event.
func (e *Engine) Resolve(ctx context.Context, req Request) (*Result, error) {
	if req.Env == nil {
		return nil, errors.New("resolve: no environment")
	}
	if err := req.Chain.Validate(); err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	res := &Result{}
	r := &run{engine: e, env: req.Env, res: res}
	primary := req.Chain.Primary()

	ok, err := r.try(ctx, model.StrategyPrimary, primary, false)
	if err != nil {
		return nil, err
	}
	if ok {
		e.recordUsage(ctx, req, model.OutcomeResolved)
		return res, nil
	}
	res.OriginalLocatorFailed = true

	if !req.HealingEnabled {
		e.recordUsage(ctx, req, model.OutcomeFailed)
		return res, nil
	}
	res.HealingApplied = true

	for _, fb := range req.Chain.Fallbacks() {
		ok, err := r.try(ctx, model.StrategyFallback, fb, false)
		if err != nil {
			return nil, err
		}
		if ok {
			return e.healed(ctx, req, res)
		}
	}

	for _, h := range heuristics(req.Hint, e.opts.Classifier) {
		if r.tried(h.locator) {
			continue
		}
		ok, err := r.try(ctx, h.strategy, h.locator, true)
		if err != nil {
			return nil, err
		}
		if ok {
			return e.healed(ctx, req, res)
		}
	}

	log.Debug().Str("object", req.ObjectID).Str("primary", primary.String()).Int("attempts", len(res.Attempts)).Msg("resolution exhausted")
	e.recordUsage(ctx, req, model.OutcomeFailed)
	return res, nil
}

// healed finalizes a success at the fallback or heuristic stage.
func (e *Engine) healed(ctx context.Context, req Request, res *Result) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	used := *res.UsedLocator
	res.SuggestedUpdate = &used

	primary := req.Chain.Primary()
	descriptor := req.ObjectID
	if descriptor == "" {
		descriptor = primary.String()
	}
	ev := model.HealingEvent{
		ID:               uuid.NewString(),
		Timestamp:        e.opts.Now().UTC(),
		ObjectID:         req.ObjectID,
		Descriptor:       descriptor,
		OriginalLocator:  primary,
		Strategy:         res.Strategy,
		ResultingLocator: used,
	}
	log.Info().Str("descriptor", descriptor).Str("strategy", string(res.Strategy)).
		Str("from", primary.String()).Str("to", used.String()).Msg("locator healed")
	if e.opts.Recorder != nil {
		if err := e.opts.Recorder.Record(ctx, ev); err != nil {
			log.Error().Err(err).Str("descriptor", descriptor).Msg("record healing event")
		}
	}
	e.recordUsage(ctx, req, model.OutcomeHealed)
	return res, nil
}

func (e *Engine) recordUsage(ctx context.Context, req Request, outcome model.Outcome) {
	if req.ObjectID == "" || e.opts.Usage == nil {
		return
	}
	if err := e.opts.Usage.RecordUsage(ctx, req.ObjectID, outcome); err != nil {
		log.Warn().Err(err).Str("object", req.ObjectID).Str("outcome", string(outcome)).Msg("record usage")
	}
}

// run carries the state of one Resolve call.
type run struct {
	engine *Engine
	env    env.Environment
	res    *Result
}

func (r *run) tried(loc model.Locator) bool {
	for _, a := range r.res.Attempts {
		if a.Locator.Equal(loc) {
			return true
		}
	}
	return false
}

// try queries one locator and, if accepted, fills the result.
func (r *run) try(ctx context.Context, strategy model.Strategy, loc model.Locator, unique bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	att := Attempt{Strategy: strategy, Locator: loc}
	count, timedOut, err := r.count(ctx, loc)
	if err != nil {
		return false, err
	}
	att.Count, att.TimedOut = count, timedOut
	r.res.Attempts = append(r.res.Attempts, att)
	log.Debug().Str("strategy", string(strategy)).Str("locator", loc.String()).Int("count", count).Bool("timed_out", timedOut).Msg("locator query")

	if count < 1 || (unique && count != 1) {
		return false, nil
	}
	h, err := r.first(ctx, loc)
	if err != nil {
		return false, err
	}
	if h == nil {
		return false, nil
	}
	used := loc
	r.res.Success = true
	r.res.Handle = h
	r.res.UsedLocator = &used
	r.res.Strategy = strategy
	return true, nil
}

// count runs QueryCount under the per-query timeout.
func (r *run) count(ctx context.Context, loc model.Locator) (int, bool, error) {
	qctx, cancel := context.WithTimeout(ctx, r.engine.opts.QueryTimeout)
	defer cancel()
	n, err := r.env.QueryCount(qctx, loc)
	if err == nil {
		return n, false, nil
	}
	timedOut, err := r.queryError(ctx, loc, err)
	return 0, timedOut, err
}

// first runs QueryFirst under the per-query timeout.
func (r *run) first(ctx context.Context, loc model.Locator) (env.Handle, error) {
	qctx, cancel := context.WithTimeout(ctx, r.engine.opts.QueryTimeout)
	defer cancel()
	h, err := r.env.QueryFirst(qctx, loc)
	if err == nil {
		return h, nil
	}
	_, err = r.queryError(ctx, loc, err)
	return nil, err
}

// queryError sorts a query error into no-match (nil), cancellation or fault.
func (r *run) queryError(ctx context.Context, loc model.Locator, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return true, nil
	case errors.Is(err, env.ErrUnsupportedLocator):
		log.Debug().Err(err).Str("locator", loc.String()).Msg("locator not understood by accessor")
		return false, nil
	default:
		return false, fmt.Errorf("query %s: %w", loc, env.Fault("query", err))
	}
}
