// Package codec converts between typed field values and their literal text form.
//
// Non-string values use JSON literals (`12`, `true`, `[1, 2, 3]`). Decoding is
// lenient about comments and trailing commas. String values are read as plain
// text unless the text is a complete quoted literal, and are always written as
// quoted literals, so a written string reads back unchanged.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/jsonc"
)

var (
	// ErrEmpty is returned when a non-string literal is blank.
	ErrEmpty = errors.New("empty literal")
	// ErrNull is returned for a null literal; fields always hold a value.
	ErrNull = errors.New("null is not a valid value")
	// ErrTrailingData is returned when text continues after a complete literal.
	ErrTrailingData = errors.New("unexpected data after literal")
	// ErrInvalidUTF8 is returned when encoding a string that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("string is not valid UTF-8")
)

// IsString reports whether values of type T are coerced as plain strings.
func IsString[T any]() bool {
	return reflect.TypeOf((*T)(nil)).Elem().Kind() == reflect.String
}

// Decode parses text into a value of type T.
func Decode[T any](text string) (T, error) {
	var out T
	if IsString[T]() {
		s := text
		if u, ok := Unquote(text); ok {
			s = u
		}
		reflect.ValueOf(&out).Elem().SetString(s)
		return out, nil
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return out, ErrEmpty
	}
	std := bytes.TrimSpace(jsonc.ToJSON([]byte(trimmed)))
	if bytes.Equal(std, []byte("null")) {
		return out, ErrNull
	}

	dec := json.NewDecoder(bytes.NewReader(std))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("invalid literal: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return out, ErrTrailingData
	}
	return out, nil
}

// Encode renders v as a literal. Strings are quoted; nil slices and maps
// render as empty collections. Strings must be valid UTF-8.
func Encode[T any](v T) (string, error) {
	rv := reflect.ValueOf(v)
	if !validUTF8(rv) {
		return "", ErrInvalidUTF8
	}
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return "[]", nil
		}
	case reflect.Map:
		if rv.IsNil() {
			return "{}", nil
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	// Backquotes only occur inside JSON strings; escaping them keeps the
	// literal clear of the INI writer's quoting characters.
	return strings.ReplaceAll(out, "`", "\\u0060"), nil
}

// validUTF8 reports whether every string reachable from v is valid UTF-8.
// encoding/json would otherwise replace bad bytes with U+FFFD.
func validUTF8(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return utf8.ValidString(v.String())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return true
		}
		for i := 0; i < v.Len(); i++ {
			if !validUTF8(v.Index(i)) {
				return false
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if !validUTF8(iter.Key()) || !validUTF8(iter.Value()) {
				return false
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() && !validUTF8(v.Field(i)) {
				return false
			}
		}
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			return validUTF8(v.Elem())
		}
	}
	return true
}

// Unquote decodes text if it is exactly one quoted string literal.
func Unquote(text string) (string, bool) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return "", false
	}
	return s, true
}

// Display renders v for messages: strings as they are, everything else as a literal.
func Display[T any](v T) string {
	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Kind() == reflect.String {
		return rv.String()
	}
	s, err := Encode(v)
	if err != nil {
		return "UNKNOWN"
	}
	return s
}
