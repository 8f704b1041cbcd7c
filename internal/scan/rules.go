package scan

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule decides whether a subdirectory name is skipped.
type Rule interface {
	Match(name string) bool
	String() string
}

type exactRule string

func (r exactRule) Match(name string) bool { return string(r) == name }
func (r exactRule) String() string         { return string(r) }

type patternRule struct {
	re *regexp.Regexp
}

func (r patternRule) Match(name string) bool { return r.re.MatchString(name) }
func (r patternRule) String() string         { return PatternPrefix + r.re.String() }

// Exact skips directories named exactly name.
func Exact(name string) Rule {
	return exactRule(name)
}

// Pattern skips directories whose name matches re.
func Pattern(re *regexp.Regexp) Rule {
	return patternRule{re: re}
}

// PatternPrefix marks a textual rule as a regular expression.
const PatternPrefix = "re:"

// ParseRule reads "re:<expr>" as a Pattern and anything else as an Exact name.
func ParseRule(s string) (Rule, error) {
	if expr, ok := strings.CutPrefix(s, PatternPrefix); ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("skip rule %q: %w", s, err)
		}
		return Pattern(re), nil
	}
	if s == "" {
		return nil, fmt.Errorf("skip rule is empty")
	}
	return Exact(s), nil
}

func ParseRules(values []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(values))
	for _, v := range values {
		r, err := ParseRule(v)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func matchAny(rules []Rule, name string) bool {
	for _, r := range rules {
		if r.Match(name) {
			return true
		}
	}
	return false
}
