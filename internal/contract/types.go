// Package contract checks a configuration against named deployment
// contracts, such as "production must run mode=release".
package contract

// Contract defines allowed and denied field values for a named target.
// Keys are field paths of the form "section.key".
type Contract struct {
	Name  string          `json:"name"`
	Allow map[string]Rule `json:"allow,omitempty"`
	Deny  map[string]Rule `json:"deny,omitempty"`
}

// Rule lists exact values (allow) or patterns (deny) for one field.
// A deny pattern containing * matches any run of characters there.
type Rule struct {
	Values []string `json:"values"`
}

// RuleType distinguishes allow from deny violations
type RuleType string

const (
	RuleAllow RuleType = "allow"
	RuleDeny  RuleType = "deny"
)

// Violation represents a contract violation.
type Violation struct {
	Key            string   `json:"key"`            // Field path that violated
	ActualValue    string   `json:"actualValue"`    // Display form of the value
	RuleType       RuleType `json:"ruleType"`       // allow or deny
	ExpectedValues []string `json:"expectedValues"` // Expected (allow) or forbidden (deny)
	Pattern        string   `json:"pattern,omitempty"`
}

// EvalResult contains the full contract evaluation result.
type EvalResult struct {
	Contract   string      `json:"contract"`
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations"`
}

// Keys returns every field path the contract mentions
func (c Contract) Keys() []string {
	seen := make(map[string]bool, len(c.Allow)+len(c.Deny))
	var keys []string
	for _, rules := range []map[string]Rule{c.Allow, c.Deny} {
		for k := range rules {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
