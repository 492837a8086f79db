// Package rules defines the relevance rules entries are scored against and
// the YAML rule-file loader.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is a named relevance filter. A rule is a value object: two rules with
// the same name and keyword/tag sets are interchangeable, which is what makes
// rule-set drift detection against previously stored rules possible.
type Rule struct {
	Name    string   `yaml:"name"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	Tags    []string `yaml:"tags"`
}

// Fingerprint returns a stable hash over the rule's name and its keyword and
// tag sets. Element order does not affect the result.
func (r Rule) Fingerprint() string {
	h := sha256.New()
	writeSet := func(label string, set []string) {
		sorted := slices.Clone(set)
		slices.Sort(sorted)
		fmt.Fprintf(h, "%s:%d\n", label, len(sorted))
		for _, s := range sorted {
			fmt.Fprintf(h, "%s\n", s)
		}
	}
	fmt.Fprintf(h, "name:%s\n", r.Name)
	writeSet("include", r.Include)
	writeSet("exclude", r.Exclude)
	writeSet("tags", r.Tags)
	return hex.EncodeToString(h.Sum(nil))
}

// Equal reports whether two rule sets carry the same rules, ignoring order.
func Equal(a, b []Rule) bool {
	if len(a) != len(b) {
		return false
	}
	fa := fingerprints(a)
	fb := fingerprints(b)
	return slices.Equal(fa, fb)
}

func fingerprints(rs []Rule) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Fingerprint()
	}
	slices.Sort(out)
	return out
}

// ruleFile is the on-disk shape of a rule file.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads a YAML rule file and validates it. Any malformed record is a
// hard error: rule problems must surface before the pipeline does any I/O.
func Load(path string) ([]Rule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rule file path is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	defer func() { _ = f.Close() }()

	rs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes and validates a rule file. Unknown fields are rejected so a
// typo in a rule record cannot silently disable it.
func Parse(r io.Reader) ([]Rule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var rf ruleFile
	if err := dec.Decode(&rf); err != nil {
		return nil, err
	}

	if len(rf.Rules) == 0 {
		return nil, errors.New("no rules defined")
	}

	seen := make(map[string]bool, len(rf.Rules))
	for i, rule := range rf.Rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return nil, fmt.Errorf("rule %d: name is required", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("rule %d: duplicate name %q", i+1, name)
		}
		seen[name] = true

		for _, kw := range rule.Include {
			if strings.TrimSpace(kw) == "" {
				return nil, fmt.Errorf("rule %q: empty include keyword", name)
			}
		}
		for _, kw := range rule.Exclude {
			if strings.TrimSpace(kw) == "" {
				return nil, fmt.Errorf("rule %q: empty exclude keyword", name)
			}
		}
		for _, tag := range rule.Tags {
			if strings.TrimSpace(tag) == "" {
				return nil, fmt.Errorf("rule %q: empty tag", name)
			}
		}
	}

	return rf.Rules, nil
}
