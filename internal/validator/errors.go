package validator

import (
	"fmt"
	"strings"

	"ovconfig/internal/cfgerr"
)

// FormatError formats a ValidationError into a human-readable message.
//
//	[server]::port: '99999' is not valid, reason: must be <= 65535
//	[server]::mode: 'fast' is not valid, must be one of: debug, release
func FormatError(err *cfgerr.ValidationError) string {
	head := fmt.Sprintf("[%s]::%s: '%s' is not valid", err.Section, err.Key, err.Value)

	if len(err.Suggest) > 0 {
		return head + ", must be one of: " + strings.Join(err.Suggest, ", ")
	}
	if err.Reason != "" {
		return head + ", reason: " + err.Reason
	}
	return head
}

// FormatErrors formats all validation errors into a slice of messages.
func FormatErrors(result Result) []string {
	messages := make([]string, len(result.Errors))
	for i, err := range result.Errors {
		messages[i] = FormatError(err)
	}
	return messages
}
