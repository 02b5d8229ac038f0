package extract

import (
	"fmt"

	"github.com/mj1618/locator-cli/internal/model"
)

// Rule assigns a base reliability to one locator kind.
type Rule struct {
	Kind        model.LocatorKind `yaml:"kind"        json:"kind"        mapstructure:"kind"`
	Reliability int               `yaml:"reliability" json:"reliability" mapstructure:"reliability"`
}

// Table lists rules in extraction priority order. A kind missing from the
// table is never emitted, except the structural path.
type Table []Rule

// MaxStructuralReliability caps the structural path: it is a last resort.
const MaxStructuralReliability = 70

// DefaultTable is the built-in priority order.
var DefaultTable = Table{
	{Kind: model.KindID, Reliability: 100},
	{Kind: model.KindTestID, Reliability: 95},
	{Kind: model.KindAriaLabel, Reliability: 90},
	{Kind: model.KindName, Reliability: 85},
	{Kind: model.KindPlaceholder, Reliability: 85},
	{Kind: model.KindText, Reliability: 80},
	{Kind: model.KindClass, Reliability: 60},
	{Kind: model.KindXPath, Reliability: 50},
}

// Reliability returns the base reliability of kind and whether it is listed.
func (t Table) Reliability(kind model.LocatorKind) (int, bool) {
	for _, r := range t {
		if r.Kind == kind {
			return r.Reliability, true
		}
	}
	return 0, false
}

// Validate rejects unknown kinds, duplicates and out-of-range scores.
func (t Table) Validate() error {
	seen := make(map[model.LocatorKind]bool, len(t))
	for _, r := range t {
		if _, err := model.ParseKind(string(r.Kind)); err != nil {
			return fmt.Errorf("reliability table: %w", err)
		}
		if r.Kind == model.KindRole {
			return fmt.Errorf("reliability table: kind %q is produced by healing only", r.Kind)
		}
		if seen[r.Kind] {
			return fmt.Errorf("reliability table: duplicate kind %q", r.Kind)
		}
		seen[r.Kind] = true
		if r.Reliability < 0 || r.Reliability > 100 {
			return fmt.Errorf("reliability table: %s reliability %d out of range 0-100", r.Kind, r.Reliability)
		}
		if r.Kind == model.KindXPath && r.Reliability > MaxStructuralReliability {
			return fmt.Errorf("reliability table: structural path reliability %d exceeds %d", r.Reliability, MaxStructuralReliability)
		}
	}
	return nil
}
