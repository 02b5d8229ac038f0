package healing

import (
	"strings"

	"github.com/mj1618/locator-cli/internal/classify"
	"github.com/mj1618/locator-cli/internal/locator"
	"github.com/mj1618/locator-cli/internal/model"
)

// Reliabilities given to heuristically derived locators, so that a healed
// locator can slot into a chain when a suggestion is applied.
const (
	textContentReliability     = 80
	placeholderReliability     = 85
	roleReliability            = 75
	partialSelectorReliability = 65
)

type heuristic struct {
	strategy model.Strategy
	locator  model.Locator
}

// heuristics derives re-matching candidates from the capture-time hint, in
// fixed order: text-content, placeholder, role, partial-selector.
func heuristics(hint model.CapturedAttributes, c *classify.Classifier) []heuristic {
	var out []heuristic
	tag := hint.NormalizedTag()
	text := hint.NormalizedText()

	if text != "" {
		out = append(out, heuristic{model.StrategyTextContent, model.Locator{
			Kind: model.KindText, Value: text, Tag: tag, Reliability: textContentReliability,
		}})
	}
	if ph := model.NormalizeSpace(hint.Placeholder); ph != "" {
		out = append(out, heuristic{model.StrategyPlaceholder, model.Locator{
			Kind: model.KindPlaceholder, Value: ph, Tag: tag, Reliability: placeholderReliability,
		}})
	}
	if role := hint.EffectiveRole(); role != "" && text != "" {
		out = append(out, heuristic{model.StrategyRole, model.Locator{
			Kind: model.KindRole, Role: role, Value: text, Reliability: roleReliability,
		}})
	}
	for _, attr := range []struct{ name, value string }{{"id", hint.ID}, {"name", hint.Name}} {
		v := strings.TrimSpace(attr.value)
		if v == "" || !c.IsDynamic(v) {
			continue
		}
		prefix, ok := locator.StripDynamicSuffix(v, c.IsDynamic)
		if !ok {
			continue
		}
		out = append(out, heuristic{model.StrategyPartialSelector, model.Locator{
			Kind:        model.KindXPath,
			Value:       locator.PartialSelector(tag, attr.name, prefix),
			Tag:         tag,
			Reliability: partialSelectorReliability,
		}})
	}
	return out
}
