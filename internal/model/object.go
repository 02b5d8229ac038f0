package model

import (
	"fmt"
	"time"
)

// Platform is the kind of application an object was captured from.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformDesktop Platform = "desktop"
	PlatformMobile  Platform = "mobile"
)

// ParsePlatform converts a flag value to a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformWeb, PlatformDesktop, PlatformMobile:
		return Platform(s), nil
	default:
		return "", fmt.Errorf("unknown platform: %q (expected web, desktop, or mobile)", s)
	}
}

// Outcome is the result of one resolution, as counted in UsageStats.
type Outcome string

const (
	OutcomeResolved Outcome = "resolved"
	OutcomeHealed   Outcome = "healed"
	OutcomeFailed   Outcome = "failed"
)

// UsageStats counts how an object's resolutions turned out.
type UsageStats struct {
	Resolved       int        `yaml:"resolved"                   json:"resolved"`
	Healed         int        `yaml:"healed"                     json:"healed"`
	Failed         int        `yaml:"failed"                     json:"failed"`
	LastResolvedAt *time.Time `yaml:"last_resolved_at,omitempty" json:"last_resolved_at,omitempty"`
}

// UIObject is a persisted, named element reference.
type UIObject struct {
	ID          string             `yaml:"id"          json:"id"`
	Name        string             `yaml:"name"        json:"name"`
	Platform    Platform           `yaml:"platform"    json:"platform"`
	Tag         string             `yaml:"tag"         json:"tag"`
	Fingerprint string             `yaml:"fingerprint" json:"fingerprint"`
	Attributes  CapturedAttributes `yaml:"attributes"  json:"attributes"`
	Chain       Chain              `yaml:"chain"       json:"chain"`
	Usage       UsageStats         `yaml:"usage"       json:"usage"`
	CreatedAt   time.Time          `yaml:"created_at"  json:"created_at"`
	UpdatedAt   time.Time          `yaml:"updated_at"  json:"updated_at"`
}

// DefaultObjectName derives a readable name from tag and best label,
// e.g. "button-submit".
func DefaultObjectName(a CapturedAttributes) string {
	tag := a.NormalizedTag()
	if tag == "*" {
		tag = "element"
	}
	label := slugify(bestAttributeLabel(a))
	if label == "" {
		return tag
	}
	return tag + "-" + label
}
