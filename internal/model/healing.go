package model

import "time"

// Strategy names how a resolution found its element.
type Strategy string

const (
	StrategyPrimary         Strategy = "primary"
	StrategyFallback        Strategy = "fallback"
	StrategyTextContent     Strategy = "text-content"
	StrategyPlaceholder     Strategy = "placeholder"
	StrategyRole            Strategy = "role"
	StrategyPartialSelector Strategy = "partial-selector"
)

// HealingEvent records one occurrence of self-healing. Events are append-only.
type HealingEvent struct {
	ID               string    `yaml:"id"                  json:"id"`
	Timestamp        time.Time `yaml:"timestamp"           json:"timestamp"`
	ObjectID         string    `yaml:"object_id,omitempty" json:"object_id,omitempty"`
	Descriptor       string    `yaml:"descriptor"          json:"descriptor"` // object id, or the original locator when unbound
	OriginalLocator  Locator   `yaml:"original_locator"    json:"original_locator"`
	Strategy         Strategy  `yaml:"strategy"            json:"strategy"`
	ResultingLocator Locator   `yaml:"resulting_locator"   json:"resulting_locator"`
}

// UpdateSuggestion recommends replacing OldLocator with NewLocator. It is
// derived from the event log on demand and never stored.
type UpdateSuggestion struct {
	ObjectID   string   `yaml:"object_id,omitempty" json:"object_id,omitempty"`
	Descriptor string   `yaml:"descriptor"          json:"descriptor"`
	OldLocator Locator  `yaml:"old_locator"         json:"old_locator"`
	NewLocator Locator  `yaml:"new_locator"         json:"new_locator"`
	Strategy   Strategy `yaml:"strategy"            json:"strategy"`
	Frequency  int      `yaml:"frequency"           json:"frequency"`
}

// Statistics summarizes the healing log.
type Statistics struct {
	Total      int              `yaml:"total"       json:"total"`
	ByStrategy map[Strategy]int `yaml:"by_strategy" json:"by_strategy"`
}
