// Package featureflags evaluates runtime toggles such as the contact form.
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Rule is the parsed value of one flag.
type Rule struct {
	// Percent is 0..100; plain on/off flags use 100 and 0.
	Percent int
	raw     string
}

func (r Rule) String() string { return r.raw }

// Manager holds flags parsed from "name=value" pairs, for example
// "contact_form=on,new_editor=25%".
type Manager struct {
	rules map[string]Rule
}

// NewManager parses raw. Malformed pairs and values are ignored.
func NewManager(raw string) *Manager {
	rules := make(map[string]Rule)
	for pair := range strings.SplitSeq(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" {
			continue
		}
		if rule, ok := parseRule(value); ok {
			rules[name] = rule
		}
	}
	return &Manager{rules: rules}
}

func parseRule(value string) (Rule, bool) {
	switch value {
	case "on", "true", "1", "yes":
		return Rule{Percent: 100, raw: value}, true
	case "off", "false", "0", "no":
		return Rule{Percent: 0, raw: value}, true
	}
	pct, ok := strings.CutSuffix(value, "%")
	if !ok {
		return Rule{}, false
	}
	n, err := strconv.Atoi(pct)
	if err != nil {
		return Rule{}, false
	}
	return Rule{Percent: min(max(n, 0), 100), raw: value}, true
}

// Enabled reports whether name is on for userID. Unknown flags are off.
// Partial rollouts bucket users deterministically and never include anonymous visitors.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	rule, ok := m.rules[normalize(name)]
	switch {
	case !ok || rule.Percent == 0:
		return false
	case rule.Percent == 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(normalize(name), userID) < rule.Percent
}

// Names lists configured flags in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.rules))
	for name := range m.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw returns the configured value of each flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for name, rule := range m.rules {
		out[name] = rule.String()
	}
	return out
}

// Snapshot evaluates every flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
