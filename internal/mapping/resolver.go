// Package mapping classifies expenses by substring rules.
//
// A rule matches when its substring occurs anywhere in a description,
// ignoring case. When several rules match, the substring with the most
// characters wins; equal lengths fall back to the lexicographically smallest
// lower-cased substring, then the smallest raw substring.
package mapping

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Rule maps a substring to a category
type Rule struct {
	Substring  string
	CategoryID uint
}

type compiledRule struct {
	Rule
	needle string // lower-cased substring
	length int    // characters in needle
}

// Resolver holds rules in priority order. The zero value matches nothing.
type Resolver struct {
	rules []compiledRule
}

// NewResolver compiles rules. Blank substrings are ignored.
func NewResolver(rules []Rule) *Resolver {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		needle := strings.ToLower(r.Substring)
		if strings.TrimSpace(needle) == "" {
			continue
		}
		compiled = append(compiled, compiledRule{Rule: r, needle: needle, length: utf8.RuneCountInString(needle)})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		a, b := compiled[i], compiled[j]
		if a.length != b.length {
			return a.length > b.length
		}
		if a.needle != b.needle {
			return a.needle < b.needle
		}
		return a.Substring < b.Substring
	})
	return &Resolver{rules: compiled}
}

// Resolve returns the category of the highest-priority rule contained in
// description.
func (r *Resolver) Resolve(description string) (uint, bool) {
	rule, ok := r.Match(description)
	if !ok {
		return 0, false
	}
	return rule.CategoryID, true
}

// Match is Resolve returning the winning rule
func (r *Resolver) Match(description string) (Rule, bool) {
	if r == nil || description == "" {
		return Rule{}, false
	}
	haystack := strings.ToLower(description)
	for _, rule := range r.rules {
		if strings.Contains(haystack, rule.needle) {
			return rule.Rule, true
		}
	}
	return Rule{}, false
}
