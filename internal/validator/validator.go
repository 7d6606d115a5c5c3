package validator

import (
	"errors"

	"ovconfig/internal/cfgerr"
	"ovconfig/internal/section"
)

// Result contains every validation outcome for a set of sections
type Result struct {
	Valid  bool
	Errors []*cfgerr.ValidationError
}

// Validate checks every field of every section against its predicate.
// Unlike section.Verify it collects all failures rather than stopping at the
// first one. Errors appear in section then field declaration order.
func Validate(sections ...*section.Section) Result {
	var errs []*cfgerr.ValidationError

	for _, sec := range sections {
		for _, f := range sec.Schema().Fields {
			err := sec.VerifyField(f.Name())
			if err == nil {
				continue
			}
			var ve *cfgerr.ValidationError
			if !errors.As(err, &ve) {
				ve = &cfgerr.ValidationError{Section: sec.Name(), Key: f.Name(), Reason: err.Error()}
			}
			errs = append(errs, ve)
		}
	}

	return Result{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// First returns the failure section.Verify would have reported, or nil
func (r Result) First() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}
