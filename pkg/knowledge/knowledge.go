// Package knowledge keeps the per-project knowledge document: longer-lived
// architectural notes (patterns, pitfalls, decisions) that are merged, never
// overwritten.
package knowledge

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry is a pitfall or a decision.
type Entry struct {
	ID          string `yaml:"id,omitempty" json:"id,omitempty"`
	Description string `yaml:"description" json:"description"`
	Detail      string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

func (e Entry) key() string {
	if e.ID != "" {
		return "id:" + e.ID
	}
	return "desc:" + strings.TrimSpace(e.Description)
}

// Patterns maps a concern to the convention the project follows for it.
type Patterns map[string]string

// UnmarshalYAML decodes each value on its own. Scalars are taken as written;
// a nested value is kept as its flow-style YAML text, so one hand-edited
// entry does not make the whole file unreadable.
func (p *Patterns) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*p = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: patterns must be a mapping", node.Line)
	}
	out := make(Patterns, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind == yaml.AliasNode && val.Alias != nil {
			val = val.Alias
		}
		switch {
		case val.Kind == yaml.ScalarNode && val.Tag == "!!null":
			out[key.Value] = ""
		case val.Kind == yaml.ScalarNode:
			out[key.Value] = val.Value
		default:
			out[key.Value] = flowText(val)
		}
	}
	*p = out
	return nil
}

func flowText(n *yaml.Node) string {
	flow := *n
	flow.Style = yaml.FlowStyle
	data, err := yaml.Marshal(&flow)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Document is the knowledge.yaml content.
type Document struct {
	Patterns  Patterns  `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Pitfalls  []Entry   `yaml:"pitfalls,omitempty" json:"pitfalls,omitempty"`
	Decisions []Entry   `yaml:"decisions,omitempty" json:"decisions,omitempty"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IsEmpty reports whether nothing is recorded.
func (d *Document) IsEmpty() bool {
	return len(d.Patterns) == 0 && len(d.Pitfalls) == 0 && len(d.Decisions) == 0
}

// Conflict is a pattern key whose incoming value differs from the recorded one.
type Conflict struct {
	Key      string
	Existing string
	Proposed string
}

// MergeResult reports what a merge did.
type MergeResult struct {
	// Added lists "key: value" for new patterns and descriptions of new entries.
	Added []string
	// NotMerged lists colliding pattern keys left untouched.
	NotMerged []Conflict
}

// Changed reports whether the merge added anything.
func (r MergeResult) Changed() bool {
	return len(r.Added) > 0
}

// Merge folds incoming into existing. New pattern keys are added; a colliding
// key with a different value keeps the existing value (first write wins) and
// is reported in NotMerged. Entries are appended unless one with the same id
// (or, without id, the same description) is already recorded.
func Merge(existing *Document, incoming Document) MergeResult {
	var res MergeResult
	if existing.Patterns == nil && len(incoming.Patterns) > 0 {
		existing.Patterns = make(Patterns)
	}

	keys := make([]string, 0, len(incoming.Patterns))
	for k := range incoming.Patterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := incoming.Patterns[k]
		cur, ok := existing.Patterns[k]
		switch {
		case !ok:
			existing.Patterns[k] = v
			res.Added = append(res.Added, fmt.Sprintf("%s: %s", k, v))
		case cur != v:
			res.NotMerged = append(res.NotMerged, Conflict{Key: k, Existing: cur, Proposed: v})
		}
	}

	existing.Pitfalls = mergeEntries(existing.Pitfalls, incoming.Pitfalls, "pitfall", &res)
	existing.Decisions = mergeEntries(existing.Decisions, incoming.Decisions, "decision", &res)
	return res
}

func mergeEntries(existing, incoming []Entry, kind string, res *MergeResult) []Entry {
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[e.key()] = struct{}{}
		// an entry with an id is also known by its description
		seen["desc:"+strings.TrimSpace(e.Description)] = struct{}{}
	}
	for _, e := range incoming {
		if strings.TrimSpace(e.Description) == "" && e.ID == "" {
			continue
		}
		if _, dup := seen[e.key()]; dup {
			continue
		}
		if _, dup := seen["desc:"+strings.TrimSpace(e.Description)]; dup && e.Description != "" {
			continue
		}
		seen[e.key()] = struct{}{}
		existing = append(existing, e)
		res.Added = append(res.Added, fmt.Sprintf("%s: %s", kind, e.Description))
	}
	return existing
}

// Summary renders a short text summary, at most maxItems pitfalls listed.
func Summary(d *Document, maxItems int) string {
	if d == nil || d.IsEmpty() {
		return "No knowledge recorded yet"
	}
	var lines []string
	keys := make([]string, 0, len(d.Patterns))
	for k := range d.Patterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("- %s: %s", k, d.Patterns[k]))
	}
	if len(d.Pitfalls) > 0 {
		lines = append(lines, fmt.Sprintf("- Pitfalls: %d items", len(d.Pitfalls)))
		for i, p := range d.Pitfalls {
			if i == maxItems {
				break
			}
			lines = append(lines, "  * "+truncate(p.Description, 50))
		}
	}
	if len(d.Decisions) > 0 {
		lines = append(lines, fmt.Sprintf("- Decisions: %d items", len(d.Decisions)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
