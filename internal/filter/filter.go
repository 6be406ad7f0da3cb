// Package filter narrows the list of selectable districts, both by configured
// include rules and by interactive search.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cpuguy83/ramadanbar/internal/config"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

// MatchType specifies how a filter rule matches.
type MatchType int

const (
	MatchContains MatchType = iota // Substring match (default)
	MatchExact                     // Exact string match
	MatchPrefix                    // Starts with
	MatchSuffix                    // Ends with
	MatchRegex                     // Regular expression
)

// Filter applies include rules to districts.
type Filter struct {
	mode  string // "or" or "and"
	rules []rule
}

type rule struct {
	field           string
	matchType       MatchType
	pattern         string         // For non-regex matches
	regex           *regexp.Regexp // For regex matches
	caseInsensitive bool
}

// New creates a new filter from configuration.
func New(cfg config.FilterConfig) (*Filter, error) {
	f := &Filter{
		mode: cfg.Mode,
	}

	if f.mode == "" {
		f.mode = "or"
	}

	for i, r := range cfg.Rules {
		compiled, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		f.rules = append(f.rules, compiled)
	}

	return f, nil
}

// compileRule converts a config FilterRule to an internal rule.
func compileRule(r config.FilterRule) (rule, error) {
	compiled := rule{
		field:           r.Field,
		caseInsensitive: r.CaseInsensitive,
	}

	switch r.Field {
	case "id", "name", "bn_name":
	default:
		return compiled, fmt.Errorf("unknown field %q (use id, name or bn_name)", r.Field)
	}

	switch {
	case r.Regex != "":
		compiled.matchType = MatchRegex
		pattern := r.Regex
		if r.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return compiled, fmt.Errorf("invalid regex %q: %w", r.Regex, err)
		}
		compiled.regex = re
		return compiled, nil

	case r.Exact != "":
		compiled.matchType = MatchExact
		compiled.pattern = r.Exact
	case r.Prefix != "":
		compiled.matchType = MatchPrefix
		compiled.pattern = r.Prefix
	case r.Suffix != "":
		compiled.matchType = MatchSuffix
		compiled.pattern = r.Suffix
	case r.Contains != "":
		compiled.matchType = MatchContains
		compiled.pattern = r.Contains
	default:
		return compiled, fmt.Errorf("no match pattern specified (use contains, exact, prefix, suffix, or regex)")
	}

	if r.CaseInsensitive {
		compiled.pattern = strings.ToLower(compiled.pattern)
	}
	return compiled, nil
}

// Apply returns the districts that match the include rules.
// If no rules are defined, all districts are returned.
func (f *Filter) Apply(districts []schedule.District) []schedule.District {
	if f == nil || len(f.rules) == 0 {
		return districts
	}

	var filtered []schedule.District
	for _, d := range districts {
		if f.matches(d) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// matches checks if a district matches the filter rules.
func (f *Filter) matches(d schedule.District) bool {
	if f.mode == "and" {
		for _, r := range f.rules {
			if !r.matches(d) {
				return false
			}
		}
		return true
	}

	for _, r := range f.rules {
		if r.matches(d) {
			return true
		}
	}
	return false
}

// matches checks if a district matches a single rule.
func (r *rule) matches(d schedule.District) bool {
	value := r.getFieldValue(d)

	if r.caseInsensitive && r.matchType != MatchRegex {
		value = strings.ToLower(value)
	}

	switch r.matchType {
	case MatchRegex:
		return r.regex.MatchString(value)
	case MatchExact:
		return value == r.pattern
	case MatchPrefix:
		return strings.HasPrefix(value, r.pattern)
	case MatchSuffix:
		return strings.HasSuffix(value, r.pattern)
	default:
		return strings.Contains(value, r.pattern)
	}
}

func (r *rule) getFieldValue(d schedule.District) string {
	switch r.field {
	case "id":
		return d.ID
	case "name":
		return d.Name
	case "bn_name":
		return d.BnName
	default:
		return ""
	}
}

// Search returns the districts whose Bengali name contains query, or whose
// English name contains it ignoring case. An empty query matches everything.
func Search(districts []schedule.District, query string) []schedule.District {
	query = strings.TrimSpace(query)
	if query == "" {
		return districts
	}

	lower := strings.ToLower(query)
	var found []schedule.District
	for _, d := range districts {
		if strings.Contains(d.BnName, query) || strings.Contains(strings.ToLower(d.Name), lower) {
			found = append(found, d)
		}
	}
	return found
}
