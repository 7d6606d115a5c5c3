package cfgerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names the error class of err, or "" if err is not one of this package's kinds.
func Kind(err error) string {
	var (
		verr *ValidationError
		cerr *CoercionError
		serr *SyntaxError
		ierr *IOError
		eerr *EncodeError
	)
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &cerr):
		return "coercion"
	case errors.As(err, &serr):
		return "syntax"
	case errors.As(err, &ierr):
		return "io"
	case errors.As(err, &eerr):
		return "encode"
	case errors.Is(err, ErrNoPath):
		return "path"
	}
	return ""
}

// FormatCI formats err as a GitHub Actions error annotation against file.
func FormatCI(err error, file string) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("::error file=%s::[%s]::%s %s", file, verr.Section, verr.Key, describe(verr))
	}
	return fmt.Sprintf("::error file=%s::%v", file, err)
}

func describe(e *ValidationError) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("has invalid value '%s'", e.Value))
	if len(e.Suggest) > 0 {
		sb.WriteString(", must be one of: " + strings.Join(e.Suggest, ", "))
	} else if e.Reason != "" {
		sb.WriteString(" (" + e.Reason + ")")
	}
	return sb.String()
}
