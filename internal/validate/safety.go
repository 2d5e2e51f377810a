package validate

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Severity distinguishes blocking rules from advisory ones.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// Rule is one deny-list entry. The pattern is matched against the full
// command line of command-kind steps (and command compensations).
type Rule struct {
	ID          string   `yaml:"id"`
	Pattern     string   `yaml:"pattern"`
	Description string   `yaml:"description"`
	Severity    Severity `yaml:"severity,omitempty"`

	re *regexp.Regexp
}

// RuleSet is a compiled safety deny-list. The list is data, not code: rules
// can be extended from a YAML file without touching the validator.
type RuleSet struct {
	rules []Rule
}

// ruleFile is the on-disk shape of a safety rule file.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// defaultRules covers the destructive patterns rejected out of the box:
// recursive deletes of root-level paths, privilege escalation, downloads
// piped straight into a shell, and credential exfiltration.
var defaultRules = []Rule{
	{
		ID:          "recursive-root-delete",
		Pattern:     `rm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+(/|/[a-z]+/?)(\s|$)`,
		Description: "recursive delete of a root-level path",
		Severity:    SeverityError,
	},
	{
		ID:          "filesystem-format",
		Pattern:     `\b(mkfs|dd\s+[^|]*of=/dev/)`,
		Description: "destructive filesystem operation",
		Severity:    SeverityError,
	},
	{
		ID:          "privilege-escalation",
		Pattern:     `\b(sudo|doas)\b|\bsu\s+(-|root)`,
		Description: "privilege-escalation invocation",
		Severity:    SeverityError,
	},
	{
		ID:          "pipe-download-to-shell",
		Pattern:     `\b(curl|wget)\b[^|]*\|\s*(ba|z|da|k)?sh\b`,
		Description: "unbounded network download piped into a shell",
		Severity:    SeverityError,
	},
	{
		ID:          "credential-read",
		Pattern:     `(/etc/shadow|/etc/sudoers|\.ssh/id_[a-z0-9]+|\.aws/credentials|\.netrc)\b`,
		Description: "credential file access",
		Severity:    SeverityError,
	},
	{
		ID:          "env-exfiltration",
		Pattern:     `\b(env|printenv)\b[^|]*\|\s*(curl|wget|nc)\b`,
		Description: "environment exfiltration over the network",
		Severity:    SeverityError,
	},
	{
		ID:          "history-tamper",
		Pattern:     `\bhistory\s+-c\b|unset\s+HISTFILE`,
		Description: "shell history tampering",
		Severity:    SeverityWarn,
	},
}

// DefaultRuleSet returns the built-in deny-list.
func DefaultRuleSet() *RuleSet {
	rs, err := compile(defaultRules)
	if err != nil {
		// Built-in patterns are covered by tests; a compile failure here is
		// a programming error.
		panic(err)
	}
	return rs
}

// LoadRuleSet reads rules from a YAML file and merges them after the built-in
// defaults.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read safety rules: %w", err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse safety rules: %w", err)
	}
	return compile(append(append([]Rule{}, defaultRules...), f.Rules...))
}

func compile(rules []Rule) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		if r.Severity == "" {
			r.Severity = SeverityError
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("safety rule %s: %w", r.ID, err)
		}
		r.re = re
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

// Check returns every rule the command line matches.
func (rs *RuleSet) Check(commandLine string) []Rule {
	var matched []Rule
	for _, r := range rs.rules {
		if r.re.MatchString(commandLine) {
			matched = append(matched, r)
		}
	}
	return matched
}

// Len returns the number of compiled rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}
