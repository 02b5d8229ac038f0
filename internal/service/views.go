package service

import (
	"github.com/mj1618/locator-cli/internal/healing"
	"github.com/mj1618/locator-cli/internal/model"
)

// ObjectSummary is the list view of a stored object.
type ObjectSummary struct {
	ID       string           `yaml:"id"       json:"id"`
	Name     string           `yaml:"name"     json:"name"`
	Platform model.Platform   `yaml:"platform" json:"platform"`
	Tag      string           `yaml:"tag"      json:"tag"`
	Primary  string           `yaml:"primary"  json:"primary"`
	Locators int              `yaml:"locators" json:"locators"`
	Usage    model.UsageStats `yaml:"usage"    json:"usage"`
}

// Summaries condenses a list of objects.
func Summaries(objects []*model.UIObject) []ObjectSummary {
	out := make([]ObjectSummary, 0, len(objects))
	for _, o := range objects {
		out = append(out, Summarize(o))
	}
	return out
}

// Summarize condenses an object for listing.
func Summarize(o *model.UIObject) ObjectSummary {
	s := ObjectSummary{
		ID:       o.ID,
		Name:     o.Name,
		Platform: o.Platform,
		Tag:      o.Tag,
		Locators: len(o.Chain),
		Usage:    o.Usage,
	}
	if len(o.Chain) > 0 {
		s.Primary = o.Chain.Primary().String()
	}
	return s
}

// ResolveResult is the resolution of one object, without the live handle.
type ResolveResult struct {
	ID                    string            `yaml:"id"                         json:"id"`
	Success               bool              `yaml:"success"                    json:"success"`
	UsedLocator           *model.Locator    `yaml:"used_locator,omitempty"     json:"used_locator,omitempty"`
	Strategy              model.Strategy    `yaml:"strategy,omitempty"         json:"strategy,omitempty"`
	HealingApplied        bool              `yaml:"healing_applied"            json:"healing_applied"`
	OriginalLocatorFailed bool              `yaml:"original_locator_failed"    json:"original_locator_failed"`
	SuggestedUpdate       *model.Locator    `yaml:"suggested_update,omitempty" json:"suggested_update,omitempty"`
	Attempts              []healing.Attempt `yaml:"attempts"                   json:"attempts"`
}

// NewResolveResult copies res for output.
func NewResolveResult(id string, res *healing.Result) ResolveResult {
	return ResolveResult{
		ID:                    id,
		Success:               res.Success,
		UsedLocator:           res.UsedLocator,
		Strategy:              res.Strategy,
		HealingApplied:        res.HealingApplied,
		OriginalLocatorFailed: res.OriginalLocatorFailed,
		SuggestedUpdate:       res.SuggestedUpdate,
		Attempts:              res.Attempts,
	}
}

// AppliedSuggestion reports an accepted suggestion and the new chain.
type AppliedSuggestion struct {
	ID      string                 `yaml:"id"      json:"id"`
	Applied model.UpdateSuggestion `yaml:"applied" json:"applied"`
	Chain   model.Chain            `yaml:"chain"   json:"chain"`
}
