package drift

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatChanges renders changes one per line with +, - and ~ markers
func FormatChanges(changes []KeyDrift) string {
	var sb strings.Builder
	for _, change := range changes {
		switch change.Type {
		case DriftAdded:
			sb.WriteString(fmt.Sprintf("  + %s: (new) → %s\n", change.Path(), change.CurrentValue))
		case DriftRemoved:
			sb.WriteString(fmt.Sprintf("  - %s: %s → (removed)\n", change.Path(), change.BaselineValue))
		case DriftChanged:
			sb.WriteString(fmt.Sprintf("  ~ %s: %s → %s\n", change.Path(), change.BaselineValue, change.CurrentValue))
		}
	}
	return sb.String()
}

// FormatCLI formats drift report for terminal output.
func FormatCLI(report DriftReport) string {
	if !report.HasDrift {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚠️  Configuration drift detected since baseline '%s':\n", report.BaselineName))
	sb.WriteString(FormatChanges(report.Changes))
	return sb.String()
}

// FormatCI formats drift report as GitHub Actions warning annotations.
func FormatCI(report DriftReport, file string) string {
	if !report.HasDrift {
		return ""
	}

	var sb strings.Builder

	for _, change := range report.Changes {
		var msg string
		switch change.Type {
		case DriftAdded:
			msg = fmt.Sprintf("Config drift: %s added (value: %s)", change.Path(), change.CurrentValue)
		case DriftRemoved:
			msg = fmt.Sprintf("Config drift: %s removed (was: %s)", change.Path(), change.BaselineValue)
		case DriftChanged:
			msg = fmt.Sprintf("Config drift: %s changed from '%s' to '%s'", change.Path(), change.BaselineValue, change.CurrentValue)
		}
		sb.WriteString(fmt.Sprintf("::warning file=%s::%s\n", file, msg))
	}

	sb.WriteString(fmt.Sprintf("\n⚠️  Configuration drift detected: %d change(s) since baseline '%s'\n", len(report.Changes), report.BaselineName))
	return sb.String()
}

// FormatJSON formats drift report as JSON.
func FormatJSON(report DriftReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
