package config

import (
	"errors"
	"fmt"

	"ovconfig/internal/contract"
)

// ErrUnknownContract is returned when the schema declares no contract by the given name
var ErrUnknownContract = errors.New("unknown contract")

// Values returns the display form of every field keyed by "section.key"
func (c *Configuration) Values() map[string]string {
	values := make(map[string]string)
	for _, sec := range c.sections {
		for _, f := range sec.Schema().Fields {
			values[sec.Name()+"."+f.Name()] = sec.Display(f.Name())
		}
	}
	return values
}

// CheckContract evaluates the schema's named contract against the current values
func (c *Configuration) CheckContract(name string) (contract.EvalResult, error) {
	ct, ok := c.schema.Contract(name)
	if !ok {
		return contract.EvalResult{}, fmt.Errorf("%w: %s", ErrUnknownContract, name)
	}
	return contract.Evaluate(ct, c.Values()), nil
}
