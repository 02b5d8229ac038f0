// Package service wires extraction, storage, resolution and telemetry into
// the operations exposed by the CLI, the MCP server and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mj1618/locator-cli/internal/classify"
	"github.com/mj1618/locator-cli/internal/config"
	"github.com/mj1618/locator-cli/internal/env"
	"github.com/mj1618/locator-cli/internal/extract"
	"github.com/mj1618/locator-cli/internal/healing"
	"github.com/mj1618/locator-cli/internal/model"
	"github.com/mj1618/locator-cli/internal/repository"
	"github.com/mj1618/locator-cli/internal/telemetry"
)

// ErrElementNotFound is returned when a capture locator matches nothing.
var ErrElementNotFound = errors.New("element not found")

// ErrNoSuggestion is returned when an object has no pending suggestion.
var ErrNoSuggestion = errors.New("no update suggestion")

// Service holds the long-lived components. It is safe for concurrent use.
type Service struct {
	Config    *config.Config
	Extractor *extract.Extractor
	Repo      *repository.Repository
	Engine    *healing.Engine
	Telemetry *telemetry.Aggregator
}

// New opens storage and telemetry as configured.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	classifier := classify.New(cfg.Extract.DynamicPrefixes...)

	repo, err := repository.Open(ctx, cfg.Storage, repository.WithClassifier(classifier))
	if err != nil {
		return nil, err
	}
	events, err := telemetry.Open(ctx, cfg.Telemetry, repo.DB())
	if err != nil {
		repo.Close()
		return nil, err
	}
	s, err := Assemble(cfg, classifier, repo, events)
	if err != nil {
		telemetry.Close(events)
		repo.Close()
		return nil, err
	}
	return s, nil
}

// Assemble builds a Service from already opened stores.
func Assemble(cfg *config.Config, classifier *classify.Classifier, repo *repository.Repository, events telemetry.Log) (*Service, error) {
	extractor, err := NewExtractor(cfg.Extract, classifier)
	if err != nil {
		return nil, err
	}
	agg := telemetry.NewAggregator(events, cfg.Healing.MinFrequency)
	engine := healing.NewEngine(healing.Options{
		QueryTimeout: cfg.Healing.QueryTimeout,
		Classifier:   classifier,
		Recorder:     agg,
		Usage:        repo,
	})
	return &Service{
		Config:    cfg,
		Extractor: extractor,
		Repo:      repo,
		Engine:    engine,
		Telemetry: agg,
	}, nil
}

// NewExtractor builds an extractor from configuration. A nil classifier
// uses the configured dynamic prefixes.
func NewExtractor(cfg config.Extract, classifier *classify.Classifier) (*extract.Extractor, error) {
	table, err := ReliabilityTable(cfg.Reliability)
	if err != nil {
		return nil, err
	}
	if classifier == nil {
		classifier = classify.New(cfg.DynamicPrefixes...)
	}
	return extract.New(extract.Options{
		Table:         table,
		TextMaxLength: cfg.TextMaxLength,
		MaxClasses:    cfg.MaxClasses,
		MaxDepth:      cfg.MaxDepth,
		Classifier:    classifier,
	})
}

// ReliabilityTable converts configured rules into an extraction table. An
// empty list selects the default table.
func ReliabilityTable(rules []config.ReliabilityRule) (extract.Table, error) {
	if len(rules) == 0 {
		return extract.DefaultTable, nil
	}
	table := make(extract.Table, 0, len(rules))
	for _, r := range rules {
		kind, err := model.ParseKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("extract.reliability: %w", err)
		}
		table = append(table, extract.Rule{Kind: kind, Reliability: r.Reliability})
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("extract.reliability: %w", err)
	}
	return table, nil
}

// Close releases storage and telemetry.
func (s *Service) Close() error {
	terr := telemetry.Close(s.Telemetry.Log())
	if err := s.Repo.Close(); err != nil {
		return err
	}
	return terr
}

// CaptureResult describes a stored object.
type CaptureResult struct {
	ID          string      `yaml:"id"          json:"id"`
	Name        string      `yaml:"name"        json:"name"`
	Created     bool        `yaml:"created"     json:"created"`
	Fingerprint string      `yaml:"fingerprint" json:"fingerprint"`
	Chain       model.Chain `yaml:"chain"       json:"chain"`
}

// Extract returns the locator chain for attrs without storing anything.
func (s *Service) Extract(attrs model.CapturedAttributes) model.Chain {
	return s.Extractor.Extract(attrs)
}

// Capture extracts a chain for attrs and stores it. Capturing an element
// that is already stored returns the existing object and its stored chain.
func (s *Service) Capture(ctx context.Context, platform model.Platform, name string, attrs model.CapturedAttributes) (*CaptureResult, error) {
	chain := s.Extractor.Extract(attrs)
	id, created, err := s.Repo.Upsert(ctx, repository.Capture{
		Name:       name,
		Platform:   platform,
		Attributes: attrs,
		Chain:      chain,
	})
	if err != nil {
		return nil, err
	}
	obj, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info().Str("id", id).Str("name", obj.Name).Bool("created", created).
		Str("primary", obj.Chain.Primary().String()).Msg("captured")
	return &CaptureResult{
		ID:          id,
		Name:        obj.Name,
		Created:     created,
		Fingerprint: obj.Fingerprint,
		Chain:       obj.Chain,
	}, nil
}

// CaptureFrom reads the element behind h and captures it.
func (s *Service) CaptureFrom(ctx context.Context, platform model.Platform, name string, reader env.AttributeReader, h env.Handle) (*CaptureResult, error) {
	attrs, err := reader.ReadAttributes(ctx, h)
	if err != nil {
		return nil, err
	}
	return s.Capture(ctx, platform, name, attrs)
}

// CaptureLocator finds the first element matching loc and captures it.
func (s *Service) CaptureLocator(ctx context.Context, platform model.Platform, name string, acc env.Accessor, loc model.Locator) (*CaptureResult, error) {
	h, err := acc.QueryFirst(ctx, loc)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return s.CaptureFrom(ctx, platform, name, acc, h)
}

// Resolve resolves a stored object. heal is combined with the configured
// healing switch; both must allow healing.
func (s *Service) Resolve(ctx context.Context, objectID string, e env.Environment, heal bool) (*healing.Result, error) {
	req, err := s.request(ctx, objectID, e, heal)
	if err != nil {
		return nil, err
	}
	return s.Engine.Resolve(ctx, req)
}

// ResolveMany resolves several objects against one environment in parallel.
func (s *Service) ResolveMany(ctx context.Context, objectIDs []string, e env.Environment, heal bool) ([]*healing.Result, error) {
	reqs := make([]healing.Request, len(objectIDs))
	for i, id := range objectIDs {
		req, err := s.request(ctx, id, e, heal)
		if err != nil {
			return nil, err
		}
		reqs[i] = req
	}
	return s.Engine.ResolveAll(ctx, reqs, s.Config.Healing.Parallelism)
}

func (s *Service) request(ctx context.Context, objectID string, e env.Environment, heal bool) (healing.Request, error) {
	obj, err := s.Repo.Get(ctx, objectID)
	if err != nil {
		return healing.Request{}, err
	}
	return healing.Request{
		ObjectID:       obj.ID,
		Chain:          obj.Chain,
		Hint:           obj.Attributes,
		Env:            e,
		HealingEnabled: heal && s.Config.Healing.Enabled,
	}, nil
}

// Suggest lists pending locator updates. minFrequency <= 0 uses the
// configured threshold. Suggestions whose object already has the new
// locator as primary, or no longer exists, are dropped.
func (s *Service) Suggest(ctx context.Context, minFrequency int) ([]model.UpdateSuggestion, error) {
	all, err := s.Telemetry.SuggestUpdates(ctx, minFrequency)
	if err != nil {
		return nil, err
	}
	pending := make([]model.UpdateSuggestion, 0, len(all))
	for _, sug := range all {
		if sug.ObjectID != "" {
			obj, err := s.Repo.Get(ctx, sug.ObjectID)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if obj.Chain.Primary().Equal(sug.NewLocator) {
				continue
			}
		}
		pending = append(pending, sug)
	}
	return pending, nil
}

// ApplySuggestion promotes the suggested locator to the primary of its
// object and returns the new chain.
func (s *Service) ApplySuggestion(ctx context.Context, sug model.UpdateSuggestion) (model.Chain, error) {
	if sug.ObjectID == "" {
		return nil, fmt.Errorf("suggestion for %s is not bound to an object", sug.Descriptor)
	}
	obj, err := s.Repo.Get(ctx, sug.ObjectID)
	if err != nil {
		return nil, err
	}
	chain := obj.Chain.Promote(sug.NewLocator)
	if err := s.Repo.UpdateLocatorChain(ctx, obj.ID, chain); err != nil {
		return nil, err
	}
	log.Info().Str("id", obj.ID).Str("from", sug.OldLocator.String()).Str("to", sug.NewLocator.String()).
		Int("frequency", sug.Frequency).Msg("suggestion applied")
	return chain, nil
}

// ApplyForObject applies the most frequent pending suggestion of objectID.
func (s *Service) ApplyForObject(ctx context.Context, objectID string, minFrequency int) (*model.UpdateSuggestion, model.Chain, error) {
	suggestions, err := s.Suggest(ctx, minFrequency)
	if err != nil {
		return nil, nil, err
	}
	for i := range suggestions {
		if suggestions[i].ObjectID != objectID {
			continue
		}
		chain, err := s.ApplySuggestion(ctx, suggestions[i])
		if err != nil {
			return nil, nil, err
		}
		return &suggestions[i], chain, nil
	}
	return nil, nil, fmt.Errorf("%w for object %s", ErrNoSuggestion, objectID)
}

// Objects lists stored objects, optionally narrowed to one platform and
// one tag.
func (s *Service) Objects(ctx context.Context, platform model.Platform, tag string) ([]*model.UIObject, error) {
	switch {
	case platform != "" && tag != "":
		all, err := s.Repo.ListByPlatform(ctx, platform)
		if err != nil {
			return nil, err
		}
		tag = strings.ToLower(tag)
		out := all[:0]
		for _, o := range all {
			if o.Tag == tag {
				out = append(out, o)
			}
		}
		return out, nil
	case platform != "":
		return s.Repo.ListByPlatform(ctx, platform)
	case tag != "":
		return s.Repo.ListByTag(ctx, tag)
	default:
		return s.Repo.List(ctx)
	}
}
