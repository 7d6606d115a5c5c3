package store

import (
	"bytes"

	"ovconfig/internal/cfgerr"

	"gopkg.in/ini.v1"
)

// iniOptions keep values verbatim: quoted literals keep their quotes, and
// '#', ';' and trailing backslashes are part of the value.
var iniOptions = ini.LoadOptions{
	PreserveSurroundedQuote: true,
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
}

type iniFormat struct{}

func (iniFormat) Name() string { return "ini" }

func (iniFormat) Load(path string) (RawMap, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	f, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, &cfgerr.SyntaxError{Path: path, Err: err}
	}

	m := make(RawMap)
	for _, sec := range f.Sections() {
		keys := sec.Keys()
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		raw := make(RawSection, len(keys))
		for _, k := range keys {
			raw[k.Name()] = k.Value()
		}
		m[sec.Name()] = raw
	}
	return m, nil
}

func (iniFormat) Write(path string, m RawMap) error {
	f := ini.Empty(iniOptions)
	for _, name := range m.SectionNames() {
		var sec *ini.Section
		if name == DefaultSection {
			sec = f.Section("")
		} else {
			var err error
			if sec, err = f.NewSection(name); err != nil {
				return &cfgerr.EncodeError{Section: name, Err: err}
			}
		}
		raw := m[name]
		for _, key := range raw.Keys() {
			if _, err := sec.NewKey(key, raw[key]); err != nil {
				return &cfgerr.EncodeError{Section: name, Key: key, Err: err}
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return &cfgerr.EncodeError{Section: DefaultSection, Err: err}
	}
	return writeFile(path, buf.Bytes())
}
