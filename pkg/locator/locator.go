// Package locator describes UI elements by a W3C find strategy and selector.
// Locators are plain values: the driver resolves them at query time.
package locator

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Strategy is a W3C/Appium "using" value.
type Strategy string

// Supported strategies.
const (
	StrategyUiAutomator     Strategy = "-android uiautomator"
	StrategyXPath           Strategy = "xpath"
	StrategyID              Strategy = "id"
	StrategyAccessibilityID Strategy = "accessibility id"
	StrategyPredicate       Strategy = "-ios predicate string"
)

// Pick selects which match is used when a selector matches several elements.
type Pick string

// Pick values
const (
	PickFirst Pick = ""     // first match (driver default)
	PickLast  Pick = "last" // last match among all elements the selector returns
)

// Locator identifies zero or more UI elements.
type Locator struct {
	Strategy Strategy
	Value    string
	Label    string // Used in log and error messages only
	Pick     Pick
}

// UiAutomator builds a locator from a raw UiSelector expression.
func UiAutomator(expr, label string) Locator {
	return Locator{Strategy: StrategyUiAutomator, Value: expr, Label: label}
}

// TextContains matches elements whose text contains text.
// The text doubles as the label.
func TextContains(text string) Locator {
	expr := fmt.Sprintf(`new UiSelector().textContains("%s")`, escapeUiAutomatorString(text))
	return UiAutomator(expr, text)
}

// XPath builds an xpath locator.
func XPath(expr, label string) Locator {
	return Locator{Strategy: StrategyXPath, Value: expr, Label: label}
}

// ID builds a resource-id locator.
func ID(id string) Locator {
	return Locator{Strategy: StrategyID, Value: id, Label: id}
}

// AccessibilityID builds an accessibility id (content-desc / iOS name) locator.
func AccessibilityID(id string) Locator {
	return Locator{Strategy: StrategyAccessibilityID, Value: id, Label: id}
}

// Last returns a copy that resolves to the last matching element.
func (l Locator) Last() Locator {
	l.Pick = PickLast
	return l
}

// IsZero reports whether the locator has no selector.
func (l Locator) IsZero() bool {
	return l.Strategy == "" || l.Value == ""
}

// Describe returns a human-readable description for messages.
func (l Locator) Describe() string {
	desc := fmt.Sprintf("%s=%s", l.Strategy, l.Value)
	if l.Pick == PickLast {
		desc += " [last]"
	}
	if l.Label == "" {
		return desc
	}
	return fmt.Sprintf("%s (%s)", l.Label, desc)
}

func escapeUiAutomatorString(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// locatorRaw is the mapping form accepted in YAML.
type locatorRaw struct {
	UiAutomator     string `yaml:"uiautomator"`
	XPath           string `yaml:"xpath"`
	ID              string `yaml:"id"`
	AccessibilityID string `yaml:"accessibilityId"`
	Predicate       string `yaml:"predicate"`
	TextContains    string `yaml:"textContains"`
	Label           string `yaml:"label"`
	Pick            string `yaml:"pick"`
}

// UnmarshalYAML accepts either a scalar UiSelector expression or a mapping
// with exactly one strategy key.
func (l *Locator) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Value == "" {
			return fmt.Errorf("line %d: empty locator", node.Line)
		}
		*l = UiAutomator(node.Value, "")
		return nil
	}

	var raw locatorRaw
	if err := node.Decode(&raw); err != nil {
		return err
	}

	var found []Locator
	if raw.UiAutomator != "" {
		found = append(found, UiAutomator(raw.UiAutomator, ""))
	}
	if raw.TextContains != "" {
		found = append(found, TextContains(raw.TextContains))
	}
	if raw.XPath != "" {
		found = append(found, XPath(raw.XPath, ""))
	}
	if raw.ID != "" {
		found = append(found, ID(raw.ID))
	}
	if raw.AccessibilityID != "" {
		found = append(found, AccessibilityID(raw.AccessibilityID))
	}
	if raw.Predicate != "" {
		found = append(found, Locator{Strategy: StrategyPredicate, Value: raw.Predicate})
	}

	switch len(found) {
	case 0:
		return fmt.Errorf("line %d: locator needs one of uiautomator, textContains, xpath, id, accessibilityId, predicate", node.Line)
	case 1:
	default:
		return fmt.Errorf("line %d: locator has %d strategies, want exactly one", node.Line, len(found))
	}

	loc := found[0]
	if raw.Label != "" {
		loc.Label = raw.Label
	}
	switch Pick(raw.Pick) {
	case PickFirst, "first":
		loc.Pick = PickFirst
	case PickLast:
		loc.Pick = PickLast
	default:
		return fmt.Errorf("line %d: unknown pick %q (want first or last)", node.Line, raw.Pick)
	}

	*l = loc
	return nil
}

// Set maps symbolic element names to locators.
type Set map[string]Locator

// Merge returns a new set with overrides applied by name.
// Neither s nor overrides is modified.
func (s Set) Merge(overrides Set) Set {
	merged := make(Set, len(s)+len(overrides))
	for name, loc := range s {
		merged[name] = loc
	}
	for name, loc := range overrides {
		if loc.Label == "" {
			loc.Label = merged[name].Label
		}
		merged[name] = loc
	}
	return merged
}

// Names returns the element names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
