package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ovconfig/internal/baseline"
	"ovconfig/internal/cfgerr"
	"ovconfig/internal/cli"
	"ovconfig/internal/config"
	"ovconfig/internal/contract"
	"ovconfig/internal/drift"
	"ovconfig/internal/schema"
	"ovconfig/internal/section"
	"ovconfig/internal/store"
	"ovconfig/internal/validator"
)

// Exit codes
const (
	exitOK      = 0
	exitUsage   = 1 // bad arguments or anything unclassified
	exitInvalid = 2 // a field failed its predicate
	exitSchema  = 3 // schema file missing or malformed
	exitLoad    = 4 // backing file unreadable, unparsable or not coercible
	exitWrite   = 5 // backing file or artifact could not be written
)

// SchemaEnvVar names the schema file when --schema is not given
const SchemaEnvVar = "OVCONFIG_SCHEMA"

func main() {
	exitCode := run(os.Args[1:], os.Environ(), ".", os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// app carries what every subcommand needs once arguments are parsed
type app struct {
	cmd     cli.Command
	environ []string
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
	ci      bool
}

// run orchestrates the full execution flow and returns the exit code.
// It is separated from main() to enable testing.
func run(args []string, environ []string, defaultSchemaDir string, stdout, stderr io.Writer) int {
	cmd, err := cli.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitUsage
	}
	if cmd.Help {
		printHelp(stdout)
		return exitOK
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.LogLevel)); err != nil {
		fmt.Fprintf(stderr, "Error: invalid --log-level %q\n", cmd.LogLevel)
		return exitUsage
	}

	a := &app{
		cmd:     cmd,
		environ: environ,
		stdout:  stdout,
		stderr:  stderr,
		logger:  slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		ci:      cmd.CIMode || getEnvBool(environ, "CI"),
	}

	// Baseline housekeeping needs no schema
	if cmd.Subcommand == cli.SubcommandBaseline && cmd.BaselineAction != "save" {
		return a.runBaseline(nil)
	}

	schemaPath := resolveSchemaPath(cmd.SchemaPath, environ, defaultSchemaDir)
	s, err := schema.LoadSchemaFromPath(schemaPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(stderr, "schema file not found: %s\n", schemaPath)
			return exitSchema
		}
		fmt.Fprintf(stderr, "failed to parse schema: %v\n", err)
		return exitSchema
	}
	a.logger.Debug("schema loaded", "path", schemaPath, "name", s.Name, "sections", len(s.Sections))

	switch cmd.Subcommand {
	case cli.SubcommandCheck:
		return a.runCheck(s)
	case cli.SubcommandInit:
		return a.runInit(s)
	case cli.SubcommandGet:
		return a.runGet(s)
	case cli.SubcommandSet:
		return a.runSet(s)
	case cli.SubcommandDiff:
		return a.runDiff(s)
	case cli.SubcommandDump:
		return a.runDump(s)
	case cli.SubcommandBaseline:
		return a.runBaseline(s)
	}
	return exitUsage
}

// options builds the configuration options shared by every subcommand
func (a *app) options() ([]config.Option, error) {
	opts := []config.Option{config.WithLogger(a.logger)}
	if a.cmd.Format != "" {
		f, err := store.ByName(a.cmd.Format)
		if err != nil {
			return nil, err
		}
		opts = append(opts, config.WithFormat(f))
	}
	return opts, nil
}

// load reads path, verifying unless verify is false
func (a *app) load(s *schema.Schema, path string, verify bool) (*config.Configuration, error) {
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	if verify {
		return config.Get(s, path, opts...)
	}
	return config.GetNoVerify(s, path, opts...)
}

// fail reports err against file and maps it to an exit code
func (a *app) fail(err error, file string) int {
	if a.ci {
		fmt.Fprintln(a.stderr, cfgerr.FormatCI(err, file))
	} else {
		fmt.Fprintln(a.stderr, "Error:", err)
	}
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch cfgerr.Kind(err) {
	case "validation":
		return exitInvalid
	case "coercion", "syntax":
		return exitLoad
	case "io":
		var ioErr *cfgerr.IOError
		if errors.As(err, &ioErr) && ioErr.Op == "write" {
			return exitWrite
		}
		return exitLoad
	case "encode":
		return exitWrite
	}
	if errors.Is(err, baseline.ErrBaselineNotFound) {
		return exitLoad
	}
	return exitUsage
}

func (a *app) runCheck(s *schema.Schema) int {
	path := a.cmd.ConfigPath
	c, err := a.load(s, path, false)
	if err != nil {
		return a.fail(err, path)
	}

	result := validator.Validate(c.Sections()...)
	if !a.cmd.All && len(result.Errors) > 1 {
		result.Errors = result.Errors[:1]
	}

	var verdict *contract.EvalResult
	if result.Valid && a.cmd.Contract != "" {
		r, err := c.CheckContract(a.cmd.Contract)
		if err != nil {
			return a.fail(err, path)
		}
		verdict = &r
	}

	var report *drift.DriftReport
	if result.Valid && a.cmd.BaselineName != "" {
		b, err := baseline.NewStore(baseline.ResolveDir(a.environ)).Load(a.cmd.BaselineName)
		if err != nil {
			return a.fail(fmt.Errorf("cannot load baseline '%s': %w", a.cmd.BaselineName, err), path)
		}
		r, err := c.DriftFrom(b)
		if err != nil {
			return a.fail(err, path)
		}
		report = &r
	}

	if a.cmd.JSONOutput {
		out, err := formatCheckJSON(path, c, result, verdict, report)
		if err != nil {
			fmt.Fprintf(a.stderr, "Error: cannot format check result: %v\n", err)
			return exitUsage
		}
		fmt.Fprintln(a.stdout, out)
	} else if !result.Valid {
		for _, verr := range result.Errors {
			if a.ci {
				fmt.Fprintln(a.stderr, cfgerr.FormatCI(verr, path))
			} else {
				fmt.Fprintln(a.stderr, validator.FormatError(verr))
			}
		}
		if a.ci {
			fmt.Fprintf(a.stderr, "\n❌ Validation failed: %d error(s)\n", len(result.Errors))
		}
	} else if verdict != nil && !verdict.Passed {
		if a.ci {
			fmt.Fprint(a.stderr, contract.FormatCI(*verdict, path))
		} else {
			fmt.Fprint(a.stderr, contract.FormatCLI(*verdict))
		}
	} else {
		// Drift is a warning, the check itself still passes
		if report != nil {
			if a.ci {
				fmt.Fprint(a.stderr, drift.FormatCI(*report, path))
			} else {
				fmt.Fprint(a.stderr, drift.FormatCLI(*report))
			}
		}
		fmt.Fprintf(a.stdout, "✓ %s is valid\n", path)
	}

	if !result.Valid || (verdict != nil && !verdict.Passed) {
		return exitInvalid
	}
	return exitOK
}

type checkError struct {
	Section string   `json:"section"`
	Key     string   `json:"key"`
	Value   string   `json:"value"`
	Reason  string   `json:"reason,omitempty"`
	Suggest []string `json:"suggest,omitempty"`
	Message string   `json:"message"`
}

type checkOutput struct {
	Valid         bool                 `json:"valid"`
	Config        string               `json:"config"`
	ConfigVersion string               `json:"configVersion,omitempty"`
	Errors        []checkError         `json:"errors"`
	Contract      *contract.EvalResult `json:"contract,omitempty"`
	Drift         *drift.DriftReport   `json:"drift,omitempty"`
}

func formatCheckJSON(path string, c *config.Configuration, result validator.Result, verdict *contract.EvalResult, report *drift.DriftReport) (string, error) {
	out := checkOutput{
		Valid:    result.Valid && (verdict == nil || verdict.Passed),
		Config:   path,
		Errors:   make([]checkError, 0, len(result.Errors)),
		Contract: verdict,
		Drift:    report,
	}
	if out.Valid {
		version, err := c.Fingerprint()
		if err != nil {
			return "", err
		}
		out.ConfigVersion = version
	}
	for _, e := range result.Errors {
		out.Errors = append(out.Errors, checkError{
			Section: e.Section,
			Key:     e.Key,
			Value:   e.Value,
			Reason:  e.Reason,
			Suggest: e.Suggest,
			Message: validator.FormatError(e),
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (a *app) runInit(s *schema.Schema) int {
	path := a.cmd.ConfigPath
	if _, err := os.Stat(path); err == nil && !a.cmd.Force {
		fmt.Fprintf(a.stderr, "Error: %s already exists (use --force to overwrite)\n", path)
		return exitWrite
	}

	opts, err := a.options()
	if err != nil {
		return a.fail(err, path)
	}
	c := config.Default(s, opts...)
	c.SetPath(path)

	if a.cmd.NoVerify {
		err = c.FlushNoVerify()
	} else {
		err = c.Flush()
	}
	if err != nil {
		return a.fail(err, path)
	}
	fmt.Fprintf(a.stdout, "Wrote defaults for %s to %s\n", s.Name, path)
	return exitOK
}

// field resolves the section named on the command line
func (a *app) field(c *config.Configuration) (*section.Section, error) {
	sec, ok := c.Section(a.cmd.Section)
	if !ok {
		return nil, fmt.Errorf("unknown section [%s]", a.cmd.Section)
	}
	if _, ok := sec.Value(a.cmd.Key); !ok {
		return nil, fmt.Errorf("[%s]::%s: %w", a.cmd.Section, a.cmd.Key, section.ErrUnknownField)
	}
	return sec, nil
}

func (a *app) runGet(s *schema.Schema) int {
	path := a.cmd.ConfigPath
	c, err := a.load(s, path, !a.cmd.NoVerify)
	if err != nil {
		return a.fail(err, path)
	}
	sec, err := a.field(c)
	if err != nil {
		return a.fail(err, path)
	}

	if a.cmd.JSONOutput {
		text, err := sec.Text(a.cmd.Key)
		if err != nil {
			return a.fail(err, path)
		}
		fmt.Fprintln(a.stdout, text)
		return exitOK
	}
	fmt.Fprintln(a.stdout, sec.Display(a.cmd.Key))
	return exitOK
}

func (a *app) runSet(s *schema.Schema) int {
	path := a.cmd.ConfigPath
	// The file may hold invalid values the user is about to fix
	c, err := a.load(s, path, false)
	if err != nil {
		return a.fail(err, path)
	}
	sec, err := a.field(c)
	if err != nil {
		return a.fail(err, path)
	}
	if err := sec.SetText(a.cmd.Key, a.cmd.Value); err != nil {
		return a.fail(err, path)
	}

	if a.cmd.NoVerify {
		err = c.FlushNoVerify()
	} else {
		err = c.Flush()
	}
	if err != nil {
		return a.fail(err, path)
	}
	a.logger.Info("field updated", "path", path, "section", a.cmd.Section, "key", a.cmd.Key)
	return exitOK
}

func (a *app) runDiff(s *schema.Schema) int {
	path := a.cmd.ConfigPath
	c, err := a.load(s, path, false)
	if err != nil {
		return a.fail(err, path)
	}

	if a.cmd.BaselineName != "" {
		b, err := baseline.NewStore(baseline.ResolveDir(a.environ)).Load(a.cmd.BaselineName)
		if err != nil {
			return a.fail(fmt.Errorf("cannot load baseline '%s': %w", a.cmd.BaselineName, err), path)
		}
		report, err := c.DriftFrom(b)
		if err != nil {
			return a.fail(err, path)
		}
		switch {
		case a.cmd.JSONOutput:
			out, err := drift.FormatJSON(report)
			if err != nil {
				return a.fail(err, path)
			}
			fmt.Fprintln(a.stdout, out)
		case a.ci:
			fmt.Fprint(a.stdout, drift.FormatCI(report, path))
		case !report.HasDrift:
			fmt.Fprintf(a.stdout, "No drift since baseline '%s'\n", b.Name)
		default:
			fmt.Fprint(a.stdout, drift.FormatCLI(report))
		}
		return exitOK
	}

	other, err := a.load(s, a.cmd.OtherPath, false)
	if err != nil {
		return a.fail(err, a.cmd.OtherPath)
	}
	changes, err := config.Diff(c, other)
	if err != nil {
		return a.fail(err, path)
	}

	if a.cmd.JSONOutput {
		if changes == nil {
			changes = []drift.KeyDrift{}
		}
		data, err := json.MarshalIndent(changes, "", "  ")
		if err != nil {
			return a.fail(err, path)
		}
		fmt.Fprintln(a.stdout, string(data))
		return exitOK
	}
	if len(changes) == 0 {
		fmt.Fprintln(a.stdout, "No differences")
		return exitOK
	}
	fmt.Fprintf(a.stdout, "%s → %s:\n", path, a.cmd.OtherPath)
	fmt.Fprint(a.stdout, drift.FormatChanges(changes))
	return exitOK
}

func (a *app) runDump(s *schema.Schema) int {
	path := a.cmd.ConfigPath
	c, err := a.load(s, path, !a.cmd.NoVerify)
	if err != nil {
		return a.fail(err, path)
	}
	art, err := c.Artifact()
	if err != nil {
		return a.fail(err, path)
	}

	if a.cmd.ArtifactFile != "" {
		if err := art.WriteToFile(a.cmd.ArtifactFile); err != nil {
			fmt.Fprintf(a.stderr, "Error: cannot write artifact: %v\n", err)
			return exitWrite
		}
		a.logger.Info("artifact written", "path", a.cmd.ArtifactFile, "version", art.ConfigVersion)
	}

	if a.cmd.JSONOutput {
		data, err := art.ToJSON()
		if err != nil {
			return a.fail(err, path)
		}
		fmt.Fprintln(a.stdout, string(data))
		return exitOK
	}
	if a.cmd.ArtifactFile == "" {
		fmt.Fprint(a.stdout, formatDump(c))
	}
	return exitOK
}

// formatDump renders every field as a literal in declaration order
func formatDump(c *config.Configuration) string {
	var sb strings.Builder
	for i, sec := range c.Sections() {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("[%s]\n", sec.Name()))
		for _, f := range sec.Schema().Fields {
			text, err := sec.Text(f.Name())
			if err != nil {
				text = sec.Display(f.Name())
			}
			sb.WriteString(fmt.Sprintf("%s = %s\n", f.Name(), text))
		}
	}
	return sb.String()
}

func (a *app) runBaseline(s *schema.Schema) int {
	bs := baseline.NewStore(baseline.ResolveDir(a.environ))

	switch a.cmd.BaselineAction {
	case "save":
		path := a.cmd.ConfigPath
		c, err := a.load(s, path, !a.cmd.NoVerify)
		if err != nil {
			return a.fail(err, path)
		}
		if abs, err := filepath.Abs(path); err == nil {
			c.SetPath(abs)
		}
		b, err := c.Baseline(a.cmd.BaselineName)
		if err != nil {
			return a.fail(err, path)
		}
		if err := bs.Save(b); err != nil {
			fmt.Fprintf(a.stderr, "Error: cannot save baseline: %v\n", err)
			return exitWrite
		}
		fmt.Fprintf(a.stdout, "Saved baseline '%s' (%s)\n", b.Name, b.ConfigHash)
		return exitOK

	case "list":
		summaries, err := bs.List()
		if err != nil {
			fmt.Fprintf(a.stderr, "Error: cannot list baselines: %v\n", err)
			return exitLoad
		}

		if a.cmd.JSONOutput {
			if summaries == nil {
				summaries = []baseline.BaselineSummary{}
			}
			data, err := json.MarshalIndent(summaries, "", "  ")
			if err != nil {
				fmt.Fprintf(a.stderr, "Error: cannot serialize baselines: %v\n", err)
				return exitUsage
			}
			fmt.Fprintln(a.stdout, string(data))
			return exitOK
		}
		if len(summaries) == 0 {
			fmt.Fprintln(a.stdout, "No baselines found")
			return exitOK
		}
		for _, b := range summaries {
			fmt.Fprintf(a.stdout, "%s  %s  %s  %s\n", b.Name, shortHash(b.ConfigHash), b.ConfigPath, b.Timestamp.Format(time.RFC3339))
		}
		return exitOK

	case "show":
		b, err := bs.Load(a.cmd.BaselineName)
		if err != nil {
			if errors.Is(err, baseline.ErrBaselineNotFound) {
				fmt.Fprintf(a.stderr, "Error: baseline not found: %s\n", a.cmd.BaselineName)
				return exitLoad
			}
			fmt.Fprintf(a.stderr, "Error: cannot load baseline: %v\n", err)
			return exitLoad
		}

		if a.cmd.JSONOutput {
			data, err := json.MarshalIndent(b, "", "  ")
			if err != nil {
				fmt.Fprintf(a.stderr, "Error: cannot serialize baseline: %v\n", err)
				return exitUsage
			}
			fmt.Fprintln(a.stdout, string(data))
			return exitOK
		}
		fmt.Fprintf(a.stdout, "Name:        %s\n", b.Name)
		fmt.Fprintf(a.stdout, "Schema:      %s\n", b.Schema)
		fmt.Fprintf(a.stdout, "Config:      %s\n", b.ConfigPath)
		fmt.Fprintf(a.stdout, "ConfigHash:  %s\n", b.ConfigHash)
		fmt.Fprintf(a.stdout, "Timestamp:   %s\n", b.Timestamp.Format(time.RFC3339))
		fmt.Fprintln(a.stdout, "Values:")
		for _, name := range b.Values.SectionNames() {
			for _, key := range b.Values[name].Keys() {
				fmt.Fprintf(a.stdout, "  %s.%s: %s\n", name, key, b.Values[name][key])
			}
		}
		return exitOK

	case "delete":
		if err := bs.Delete(a.cmd.BaselineName); err != nil {
			if errors.Is(err, baseline.ErrBaselineNotFound) {
				fmt.Fprintf(a.stderr, "Error: baseline not found: %s\n", a.cmd.BaselineName)
				return exitLoad
			}
			fmt.Fprintf(a.stderr, "Error: cannot delete baseline: %v\n", err)
			return exitWrite
		}
		fmt.Fprintf(a.stdout, "Deleted baseline: %s\n", a.cmd.BaselineName)
		return exitOK
	}

	return exitUsage
}

func shortHash(h string) string {
	if len(h) > 20 {
		return h[:20] + "..."
	}
	return h
}

// resolveSchemaPath determines the schema file path.
// Priority: --schema flag > OVCONFIG_SCHEMA env var > ovconfig.yaml in defaultDir
func resolveSchemaPath(flagValue string, environ []string, defaultDir string) string {
	path := flagValue
	if path == "" {
		for _, env := range environ {
			if strings.HasPrefix(env, SchemaEnvVar+"=") {
				path = strings.TrimPrefix(env, SchemaEnvVar+"=")
				break
			}
		}
	}
	if path == "" {
		path = schema.DefaultFileName
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(defaultDir, path)
}

// getEnvBool returns true if the named environment variable is set to a truthy value
func getEnvBool(environ []string, name string) bool {
	prefix := name + "="
	for _, env := range environ {
		if strings.HasPrefix(env, prefix) {
			val := strings.ToLower(strings.TrimPrefix(env, prefix))
			return val == "true" || val == "1" || val == "yes"
		}
	}
	return false
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, `ovconfig: schema-driven configuration files.

Usage:
  ovconfig check    CONFIG [--all] [--contract NAME] [--baseline NAME]
  ovconfig init     CONFIG [--force]
  ovconfig get      CONFIG SECTION KEY
  ovconfig set      CONFIG SECTION KEY VALUE
  ovconfig diff     CONFIG OTHER | CONFIG --baseline NAME
  ovconfig dump     CONFIG [--json] [--artifact FILE]
  ovconfig baseline save NAME CONFIG | list | show NAME | delete NAME

Flags:
%s
Values beginning with '-' must follow a '--' terminator.
The schema is read from --schema, $%s or ./%s.
Baselines are stored in $%s (default: ~/.ovconfig/baselines).
`, cli.NewFlagSet(&cli.Command{}).FlagUsages(), SchemaEnvVar, schema.DefaultFileName, baseline.DirEnvVar)
}
