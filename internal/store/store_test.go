package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"ovconfig/internal/cfgerr"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const indentedINI = `
        [SECTION1]
        a_string: i_am_a_string
        a_vector: [1, 2, 3]
        [SECTION2]
        a_i32=12
        a_bool = true
        `

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestINI_Load(t *testing.T) {
	path := writeFixture(t, "test.ini", indentedINI)

	got, err := INI.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := RawMap{
		"SECTION1": {"a_string": "i_am_a_string", "a_vector": "[1, 2, 3]"},
		"SECTION2": {"a_i32": "12", "a_bool": "true"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %v, want %v", got, want)
	}
}

func TestINI_Load_KeepsLiterals(t *testing.T) {
	content := "top = 1\n[S]\nquoted = \"a \\\"b\\\" c\"\nhash = [\"#x\", \";y\"]\npath = C:\\dir\\\n"
	path := writeFixture(t, "test.ini", content)

	got, err := INI.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := RawMap{
		DefaultSection: {"top": "1"},
		"S": {
			"quoted": `"a \"b\" c"`,
			"hash":   `["#x", ";y"]`,
			"path":   `C:\dir\`,
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %#v, want %#v", got, want)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"ini unclosed section", "bad.ini", "[SECTION1\na = 1\n"},
		{"ini missing delimiter", "bad.ini", "[S]\njust words\n"},
		{"toml bad table", "bad.toml", "[S\na = 1\n"},
		{"yaml bad indent", "bad.yaml", "S:\n  a: 1\n b: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFixture(t, tt.file, tt.content)
			_, err := ForPath(path).Load(path)
			var se *cfgerr.SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want SyntaxError", err)
			}
			if se.Path != path {
				t.Errorf("Path = %s, want %s", se.Path, path)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	for _, f := range []Format{INI, TOML, YAML} {
		t.Run(f.Name(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing")
			_, err := f.Load(path)
			var ioErr *cfgerr.IOError
			if !errors.As(err, &ioErr) || ioErr.Op != "read" {
				t.Fatalf("error = %v, want read IOError", err)
			}
			if !errors.Is(err, os.ErrNotExist) {
				t.Error("IOError does not wrap os.ErrNotExist")
			}
		})
	}
}

func TestWrite_UnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "c.ini")
	err := INI.Write(path, RawMap{"S": {"a": "1"}})
	var ioErr *cfgerr.IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "write" {
		t.Errorf("error = %v, want write IOError", err)
	}
}

func TestRoundTrip(t *testing.T) {
	m := RawMap{
		DefaultSection: {"top": `"t"`},
		"SECTION1": {
			"a_string": `"hello world"`,
			"a_vector": "[1,2,3]",
			"labels":   `{"team":"core"}`,
		},
		"SECTION2": {
			"a_i32":  "12",
			"ratio":  "0.5",
			"a_bool": "true",
			"empty":  "[]",
			"quote":  `"say \"hi\" # not a comment"`,
		},
	}

	for _, tt := range []struct {
		format Format
		file   string
	}{
		{INI, "c.ini"},
		{TOML, "c.toml"},
		{YAML, "c.yaml"},
	} {
		t.Run(tt.format.Name(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := tt.format.Write(path, m); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := tt.format.Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(got, m) {
				t.Errorf("round trip = %#v, want %#v", got, m)
			}
		})
	}
}

func TestStructured_NativeValues(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    RawMap
	}{
		{
			name:    "toml",
			file:    "c.toml",
			content: "top = \"t\"\n\n[SECTION1]\na_string = \"i_am_a_string\"\na_vector = [1, 2, 3]\n\n[SECTION2]\na_i32 = 12\na_bool = true\n",
			want: RawMap{
				DefaultSection: {"top": `"t"`},
				"SECTION1":     {"a_string": `"i_am_a_string"`, "a_vector": "[1,2,3]"},
				"SECTION2":     {"a_i32": "12", "a_bool": "true"},
			},
		},
		{
			name:    "yaml",
			file:    "c.yaml",
			content: "SECTION1:\n  a_string: i_am_a_string\n  a_vector: [1, 2, 3]\n  unset: ~\nSECTION2:\n  a_i32: 12\n  a_bool: true\n  labels: {team: core}\n",
			want: RawMap{
				"SECTION1": {"a_string": `"i_am_a_string"`, "a_vector": "[1,2,3]"},
				"SECTION2": {"a_i32": "12", "a_bool": "true", "labels": `{"team":"core"}`},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFixture(t, tt.file, tt.content)
			got, err := ForPath(path).Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Load() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestStructured_WritesPlainTextAsString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	if err := TOML.Write(path, RawMap{"S": {"a": "not a literal"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := TOML.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got["S"]["a"] != `"not a literal"` {
		t.Errorf("a = %s", got["S"]["a"])
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"app.ini", INI},
		{"app.conf", INI},
		{"app", INI},
		{"app.toml", TOML},
		{"app.YAML", YAML},
		{"dir/app.yml", YAML},
	}
	for _, tt := range tests {
		if got := ForPath(tt.path); got.Name() != tt.want.Name() {
			t.Errorf("ForPath(%s) = %s, want %s", tt.path, got.Name(), tt.want.Name())
		}
	}

	if _, err := ByName("json"); err == nil {
		t.Error("ByName(json) should fail")
	}
	if f, err := ByName("YML"); err != nil || f.Name() != "yaml" {
		t.Errorf("ByName(YML) = %v, %v", f, err)
	}
}

func TestRawMap_Clone(t *testing.T) {
	m := RawMap{"S": {"a": "1"}}
	c := m.Clone()
	c["S"]["a"] = "2"
	if m["S"]["a"] != "1" {
		t.Error("Clone shares sections with the original")
	}
}

// Property: any map of integer literals survives every format.
func TestRoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	genKey := gen.RegexMatch(`[a-z][a-z0-9_]{0,8}`)

	properties.Property("write then load is identity", prop.ForAll(
		func(keys []string, n int) bool {
			sec := RawSection{}
			for i, k := range keys {
				sec[k] = strconv.Itoa(n + i)
			}
			m := RawMap{"S": sec}
			dir, err := os.MkdirTemp("", "store-prop")
			if err != nil {
				return false
			}
			defer os.RemoveAll(dir)

			for _, f := range []Format{INI, TOML, YAML} {
				path := filepath.Join(dir, "c."+f.Name())
				if err := f.Write(path, m); err != nil {
					return false
				}
				got, err := f.Load(path)
				if err != nil || !reflect.DeepEqual(got, m) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(5, genKey),
		gen.IntRange(-1000000, 1000000),
	))

	properties.TestingRun(t)
}

func TestRoundTrip_MaxUint64(t *testing.T) {
	m := RawMap{"S": {"u": "18446744073709551615", "list": "[1,18446744073709551615]"}}

	for _, tt := range []struct {
		format Format
		file   string
	}{
		{INI, "c.ini"},
		{YAML, "c.yaml"},
	} {
		t.Run(tt.format.Name(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := tt.format.Write(path, m); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			got, err := tt.format.Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(got, m) {
				t.Errorf("round trip = %#v, want %#v", got, m)
			}
		})
	}

	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c.toml")
		err := TOML.Write(path, m)
		var encErr *cfgerr.EncodeError
		if !errors.As(err, &encErr) || !errors.Is(err, ErrIntRange) {
			t.Fatalf("Write() error = %v, want EncodeError wrapping ErrIntRange", err)
		}
		if encErr.Section != "S" {
			t.Errorf("EncodeError.Section = %s, want S", encErr.Section)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("failed write left a file behind")
		}
	})
}

func TestStructured_DefaultSectionMustReloadAsWritten(t *testing.T) {
	tests := []struct {
		name string
		m    RawMap
		want error
	}{
		{
			name: "map value",
			m:    RawMap{DefaultSection: {"m": `{"k":"v"}`}},
			want: ErrTableInDefault,
		},
		{
			name: "key named like a section",
			m:    RawMap{DefaultSection: {"S": "1"}, "S": {"a": "2"}},
			want: ErrShadowsSection,
		},
	}

	for _, tt := range tests {
		for _, f := range []Format{TOML, YAML} {
			t.Run(tt.name+"/"+f.Name(), func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "c."+f.Name())
				err := f.Write(path, tt.m)
				var encErr *cfgerr.EncodeError
				if !errors.As(err, &encErr) || !errors.Is(err, tt.want) {
					t.Fatalf("Write() error = %v, want EncodeError wrapping %v", err, tt.want)
				}
				if encErr.Section != DefaultSection {
					t.Errorf("EncodeError.Section = %s, want %s", encErr.Section, DefaultSection)
				}
			})
		}
	}

	// INI keeps map values in DEFAULT as literal text
	path := filepath.Join(t.TempDir(), "c.ini")
	m := RawMap{DefaultSection: {"m": `{"k":"v"}`}}
	if err := INI.Write(path, m); err != nil {
		t.Fatalf("INI.Write() error = %v", err)
	}
	got, err := INI.Load(path)
	if err != nil {
		t.Fatalf("INI.Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("INI round trip = %#v, want %#v", got, m)
	}
}
