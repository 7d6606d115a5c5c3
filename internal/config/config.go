// Package config binds a schema to a backing file: it loads, verifies,
// refreshes and flushes a whole configuration.
package config

import (
	"log/slog"

	"ovconfig/internal/artifact"
	"ovconfig/internal/cfgerr"
	"ovconfig/internal/schema"
	"ovconfig/internal/section"
	"ovconfig/internal/store"
)

// Option customizes a Configuration
type Option func(*Configuration)

// WithFormat forces the backing file format instead of picking it from the
// file extension.
func WithFormat(f store.Format) Option {
	return func(c *Configuration) { c.format = f }
}

// WithLogger sets the logger used for debug and warning messages
func WithLogger(l *slog.Logger) Option {
	return func(c *Configuration) {
		if l != nil {
			c.logger = l
		}
	}
}

// Configuration is one value per schema section plus the cached path of the
// file it was read from. It is not safe for concurrent mutation.
type Configuration struct {
	schema   *schema.Schema
	sections []*section.Section
	path     string
	format   store.Format
	logger   *slog.Logger
}

func newConfiguration(s *schema.Schema, opts []Option) *Configuration {
	c := &Configuration{schema: s, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default builds a configuration with every field at its schema default.
// It has no path until SetPath is called.
func Default(s *schema.Schema, opts ...Option) *Configuration {
	c := newConfiguration(s, opts)
	c.sections = make([]*section.Section, len(s.Sections))
	for i, desc := range s.Sections {
		c.sections[i] = section.Default(desc)
	}
	return c
}

// Get loads the configuration at path and verifies it
func Get(s *schema.Schema, path string, opts ...Option) (*Configuration, error) {
	return get(s, path, true, opts)
}

// GetNoVerify loads the configuration at path without verifying it
func GetNoVerify(s *schema.Schema, path string, opts ...Option) (*Configuration, error) {
	return get(s, path, false, opts)
}

func get(s *schema.Schema, path string, verify bool, opts []Option) (*Configuration, error) {
	c := newConfiguration(s, opts)
	sections, err := c.load(path, verify)
	if err != nil {
		return nil, err
	}
	c.sections = sections
	c.path = path
	return c, nil
}

// Refresh re-reads the cached path and verifies the result. The new values
// replace the current ones only if loading and verification both succeed.
func (c *Configuration) Refresh() error {
	return c.refresh(true)
}

// RefreshNoVerify re-reads the cached path without verifying. A load or
// coercion failure leaves the current values in place.
func (c *Configuration) RefreshNoVerify() error {
	return c.refresh(false)
}

func (c *Configuration) refresh(verify bool) error {
	if c.path == "" {
		return cfgerr.ErrNoPath
	}
	sections, err := c.load(c.path, verify)
	if err != nil {
		c.logger.Debug("refresh failed, keeping current values", "path", c.path, "error", err)
		return err
	}
	c.sections = sections
	return nil
}

// load reads path and builds every section into a new slice
func (c *Configuration) load(path string, verify bool) ([]*section.Section, error) {
	format := c.formatFor(path)
	raw, err := format.Load(path)
	if err != nil {
		return nil, err
	}

	for _, u := range UnknownKeys(c.schema, raw) {
		if u.Key == "" {
			c.logger.Warn("ignoring section not declared in schema", "path", path, "section", u.Section)
			continue
		}
		c.logger.Warn("ignoring key not declared in schema", "path", path, "section", u.Section, "key", u.Key)
	}

	sections := make([]*section.Section, len(c.schema.Sections))
	for i, desc := range c.schema.Sections {
		sec, err := section.Load(desc, raw[desc.Name])
		if err != nil {
			return nil, err
		}
		sections[i] = sec
	}

	if verify {
		for _, sec := range sections {
			if err := sec.Verify(); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Debug("configuration loaded", "path", path, "format", format.Name(), "verified", verify)
	return sections, nil
}

// Verify checks every section in declaration order and reports the first
// rejected field.
func (c *Configuration) Verify() error {
	for _, sec := range c.sections {
		if err := sec.Verify(); err != nil {
			return err
		}
	}
	return nil
}

// Flush verifies the configuration and writes it to the cached path.
// Nothing is written if verification fails.
func (c *Configuration) Flush() error {
	return c.flush(true)
}

// FlushNoVerify writes the configuration to the cached path without verifying
func (c *Configuration) FlushNoVerify() error {
	return c.flush(false)
}

func (c *Configuration) flush(verify bool) error {
	if c.path == "" {
		return cfgerr.ErrNoPath
	}
	if verify {
		if err := c.Verify(); err != nil {
			return err
		}
	}
	raw, err := c.Encode()
	if err != nil {
		return err
	}
	format := c.formatFor(c.path)
	if err := format.Write(c.path, raw); err != nil {
		return err
	}
	c.logger.Debug("configuration written", "path", c.path, "format", format.Name(), "verified", verify)
	return nil
}

// Encode renders every field of every section as literal text
func (c *Configuration) Encode() (store.RawMap, error) {
	raw := make(store.RawMap, len(c.sections))
	for _, sec := range c.sections {
		values, err := sec.Encode()
		if err != nil {
			return nil, err
		}
		raw[sec.Name()] = values
	}
	return raw, nil
}

// Path returns the cached source path
func (c *Configuration) Path() string { return c.path }

// SetPath points refresh and flush at a new file
func (c *Configuration) SetPath(path string) { c.path = path }

// Schema returns the schema the configuration was built from
func (c *Configuration) Schema() *schema.Schema { return c.schema }

// Section returns the named section
func (c *Configuration) Section(name string) (*section.Section, bool) {
	for _, sec := range c.sections {
		if sec.Name() == name {
			return sec, true
		}
	}
	return nil, false
}

// MustSection is like Section but panics if the schema has no such section
func (c *Configuration) MustSection(name string) *section.Section {
	sec, ok := c.Section(name)
	if !ok {
		panic("config: no section " + name)
	}
	return sec
}

// Sections returns the sections in declaration order
func (c *Configuration) Sections() []*section.Section {
	out := make([]*section.Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// Equal reports whether both configurations share a schema and hold the
// same values. Paths are not compared.
func (c *Configuration) Equal(o *Configuration) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.schema != o.schema || len(c.sections) != len(o.sections) {
		return false
	}
	for i := range c.sections {
		if !c.sections[i].Equal(o.sections[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy with the same path and options. Slice and map
// values are copied, so changing them in place does not affect c.
func (c *Configuration) Clone() *Configuration {
	out := *c
	out.sections = make([]*section.Section, len(c.sections))
	for i, sec := range c.sections {
		out.sections[i] = sec.Clone()
	}
	return &out
}

// Artifact returns the encoded configuration with its content version
func (c *Configuration) Artifact() (artifact.ConfigArtifact, error) {
	raw, err := c.Encode()
	if err != nil {
		return artifact.ConfigArtifact{}, err
	}
	return artifact.GenerateArtifact(c.schema.Name, raw), nil
}

// Fingerprint returns the content version of the encoded configuration
func (c *Configuration) Fingerprint() (string, error) {
	raw, err := c.Encode()
	if err != nil {
		return "", err
	}
	return artifact.ComputeConfigVersion(raw), nil
}

func (c *Configuration) formatFor(path string) store.Format {
	if c.format != nil {
		return c.format
	}
	return store.ForPath(path)
}
