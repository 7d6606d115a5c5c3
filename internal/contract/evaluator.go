package contract

import (
	"regexp"
	"sort"
	"strings"
)

// Evaluate checks field values against a contract and reports every
// violation, ordered by key. Deny rules take precedence over allow rules,
// and keys the contract does not mention always pass.
func Evaluate(c Contract, values map[string]string) EvalResult {
	result := EvalResult{
		Contract:   c.Name,
		Passed:     true,
		Violations: []Violation{},
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := values[key]
		if rule, ok := c.Deny[key]; ok {
			if v := CheckDenyRule(key, value, rule); v != nil {
				result.Violations = append(result.Violations, *v)
				continue
			}
		}
		if rule, ok := c.Allow[key]; ok {
			if v := CheckAllowRule(key, value, rule); v != nil {
				result.Violations = append(result.Violations, *v)
			}
		}
	}

	result.Passed = len(result.Violations) == 0
	return result
}

// MatchGlob reports whether value matches pattern, where * matches any
// sequence of characters. Patterns without * require an exact match.
func MatchGlob(pattern, value string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == value
	}
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

// CheckAllowRule returns a violation unless value is one of the allowed values
func CheckAllowRule(key, value string, rule Rule) *Violation {
	for _, allowed := range rule.Values {
		if value == allowed {
			return nil
		}
	}
	return &Violation{
		Key:            key,
		ActualValue:    value,
		RuleType:       RuleAllow,
		ExpectedValues: rule.Values,
	}
}

// CheckDenyRule returns a violation for the first pattern value matches
func CheckDenyRule(key, value string, rule Rule) *Violation {
	for _, pattern := range rule.Values {
		if MatchGlob(pattern, value) {
			return &Violation{
				Key:            key,
				ActualValue:    value,
				RuleType:       RuleDeny,
				ExpectedValues: rule.Values,
				Pattern:        pattern,
			}
		}
	}
	return nil
}
