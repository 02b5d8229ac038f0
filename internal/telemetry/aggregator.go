package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/locator-cli/internal/model"
)

// DefaultMinFrequency is the suggestion threshold used when none is given.
const DefaultMinFrequency = 2

// Export formats understood by ExportLog.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatYAML  = "yaml"
)

// Aggregator records healing events and summarizes them. It never writes to
// the object repository; applying a suggestion is the caller's decision.
type Aggregator struct {
	log          Log
	minFrequency int
	now          func() time.Time
}

// NewAggregator returns an Aggregator over l. minFrequency <= 0 selects
// DefaultMinFrequency.
func NewAggregator(l Log, minFrequency int) *Aggregator {
	if minFrequency <= 0 {
		minFrequency = DefaultMinFrequency
	}
	return &Aggregator{log: l, minFrequency: minFrequency, now: time.Now}
}

// Log returns the underlying event log.
func (a *Aggregator) Log() Log { return a.log }

// Record appends ev, assigning an id and timestamp when missing.
func (a *Aggregator) Record(ctx context.Context, ev model.HealingEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = a.now().UTC()
	}
	if ev.Descriptor == "" {
		ev.Descriptor = ev.ObjectID
		if ev.Descriptor == "" {
			ev.Descriptor = ev.OriginalLocator.String()
		}
	}
	return a.log.Append(ctx, ev)
}

// Statistics counts events in total and per strategy.
func (a *Aggregator) Statistics(ctx context.Context) (model.Statistics, error) {
	events, err := a.log.Events(ctx)
	if err != nil {
		return model.Statistics{}, err
	}
	stats := model.Statistics{Total: len(events), ByStrategy: map[model.Strategy]int{}}
	for _, ev := range events {
		stats.ByStrategy[ev.Strategy]++
	}
	return stats, nil
}

type suggestionKey struct {
	descriptor string
	old        string
}

type suggestionGroup struct {
	first     model.HealingEvent
	frequency int
	// keyed by resulting locator
	counts map[string]int
	latest map[string]int
	events map[string]model.HealingEvent
}

// SuggestUpdates groups events by descriptor and original locator and
// proposes the most frequent resulting locator of every group that healed at
// least minFrequency times. Ties between resulting locators go to the most
// recent one. minFrequency <= 0 uses the aggregator's default. Results are
// ordered by frequency descending, then descriptor, then old locator.
func (a *Aggregator) SuggestUpdates(ctx context.Context, minFrequency int) ([]model.UpdateSuggestion, error) {
	if minFrequency <= 0 {
		minFrequency = a.minFrequency
	}
	events, err := a.log.Events(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[suggestionKey]*suggestionGroup)
	var order []suggestionKey
	for i, ev := range events {
		key := suggestionKey{descriptor: ev.Descriptor, old: ev.OriginalLocator.String()}
		g, ok := groups[key]
		if !ok {
			g = &suggestionGroup{
				first:  ev,
				counts: map[string]int{},
				latest: map[string]int{},
				events: map[string]model.HealingEvent{},
			}
			groups[key] = g
			order = append(order, key)
		}
		g.frequency++
		res := ev.ResultingLocator.String()
		g.counts[res]++
		g.latest[res] = i
		g.events[res] = ev
	}

	var out []model.UpdateSuggestion
	for _, key := range order {
		g := groups[key]
		if g.frequency < minFrequency {
			continue
		}
		best := ""
		for res, n := range g.counts {
			if best == "" || n > g.counts[best] || (n == g.counts[best] && g.latest[res] > g.latest[best]) {
				best = res
			}
		}
		chosen := g.events[best]
		out = append(out, model.UpdateSuggestion{
			ObjectID:   g.first.ObjectID,
			Descriptor: key.descriptor,
			OldLocator: g.first.OriginalLocator,
			NewLocator: chosen.ResultingLocator,
			Strategy:   chosen.Strategy,
			Frequency:  g.frequency,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		if out[i].Descriptor != out[j].Descriptor {
			return out[i].Descriptor < out[j].Descriptor
		}
		return out[i].OldLocator.String() < out[j].OldLocator.String()
	})
	return out, nil
}

// ExportLog writes the full event log to w as json (one array), jsonl (one
// event per line) or yaml.
func (a *Aggregator) ExportLog(ctx context.Context, w io.Writer, format string) error {
	events, err := a.log.Events(ctx)
	if err != nil {
		return err
	}
	if events == nil {
		events = []model.HealingEvent{}
	}
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, ev := range events {
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(events); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported export format: %q (expected json, jsonl, or yaml)", format)
	}
}
