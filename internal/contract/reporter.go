package contract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatCLI formats violations for terminal output.
func FormatCLI(result EvalResult) string {
	if result.Passed {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("❌ Contract '%s' violated:\n", result.Contract))
	for _, v := range result.Violations {
		sb.WriteString("  " + describe(v) + "\n")
	}
	sb.WriteString(fmt.Sprintf("%d violation(s)\n", len(result.Violations)))
	return sb.String()
}

// FormatCI formats violations as GitHub Actions error annotations against file.
func FormatCI(result EvalResult, file string) string {
	if result.Passed {
		return ""
	}

	var sb strings.Builder
	for _, v := range result.Violations {
		sb.WriteString(fmt.Sprintf("::error file=%s::Contract '%s': %s\n", file, result.Contract, describe(v)))
	}
	sb.WriteString(fmt.Sprintf("\n❌ Contract '%s' violated: %d violation(s)\n", result.Contract, len(result.Violations)))
	return sb.String()
}

// FormatJSON formats the evaluation result as JSON.
func FormatJSON(result EvalResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func describe(v Violation) string {
	if v.RuleType == RuleDeny {
		return fmt.Sprintf("%s has forbidden value '%s' (matched pattern: %s)", v.Key, v.ActualValue, v.Pattern)
	}
	return fmt.Sprintf("%s has value '%s', expected %s", v.Key, v.ActualValue, formatValues(v.ExpectedValues))
}

// formatValues formats a slice of values for display.
func formatValues(values []string) string {
	switch len(values) {
	case 0:
		return "(none)"
	case 1:
		return values[0]
	}
	return "one of: " + strings.Join(values, ", ")
}
