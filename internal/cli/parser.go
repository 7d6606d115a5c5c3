package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"ovconfig/internal/schema"
)

// ErrNoSubcommand is returned when no subcommand is provided
var ErrNoSubcommand = errors.New("missing subcommand: usage: ovconfig <check|init|get|set|diff|dump|baseline> [flags] [args...]")

// ErrUnknownSubcommand is returned for a subcommand ovconfig does not know
var ErrUnknownSubcommand = errors.New("unknown subcommand")

// ErrMissingArgument is returned when a subcommand lacks a positional argument
var ErrMissingArgument = errors.New("missing argument")

// ErrTooManyArguments is returned when a subcommand is given extra positional arguments
var ErrTooManyArguments = errors.New("too many arguments")

// Subcommand represents the CLI subcommand
type Subcommand string

const (
	SubcommandCheck    Subcommand = "check"
	SubcommandInit     Subcommand = "init"
	SubcommandGet      Subcommand = "get"
	SubcommandSet      Subcommand = "set"
	SubcommandDiff     Subcommand = "diff"
	SubcommandDump     Subcommand = "dump"
	SubcommandBaseline Subcommand = "baseline"
)

// Command represents the parsed CLI input
type Command struct {
	Subcommand Subcommand

	ConfigPath string // Backing file for every subcommand but baseline list/delete
	OtherPath  string // diff: second file
	Section    string // get/set
	Key        string // get/set
	Value      string // set

	// baseline subcommand
	BaselineAction string // save, list, show or delete
	BaselineName   string // also --baseline for check and diff

	SchemaPath   string // --schema <path>
	Format       string // --format ini|toml|yaml
	NoVerify     bool   // --no-verify
	All          bool   // --all (check)
	Force        bool   // --force (init)
	JSONOutput   bool   // --json
	CIMode       bool   // --ci
	ArtifactFile string // --artifact <path> (dump)
	Contract     string // --contract <name> (check)
	LogLevel     string // --log-level debug|info|warn|error
	Help         bool   // --help
}

// arity is the number of positional arguments each subcommand takes
var arity = map[Subcommand][]string{
	SubcommandCheck: {"CONFIG"},
	SubcommandInit:  {"CONFIG"},
	SubcommandGet:   {"CONFIG", "SECTION", "KEY"},
	SubcommandSet:   {"CONFIG", "SECTION", "KEY", "VALUE"},
	SubcommandDump:  {"CONFIG"},
}

var baselineArity = map[string][]string{
	"save":   {"NAME", "CONFIG"},
	"list":   {},
	"show":   {"NAME"},
	"delete": {"NAME"},
}

// ParseArgs parses CLI arguments into a Command.
// It expects args to be os.Args[1:] (excluding the program name).
func ParseArgs(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, ErrNoSubcommand
	}

	cmd := Command{Subcommand: Subcommand(args[0])}
	switch cmd.Subcommand {
	case SubcommandCheck, SubcommandInit, SubcommandGet, SubcommandSet,
		SubcommandDiff, SubcommandDump, SubcommandBaseline:
	default:
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownSubcommand, args[0])
	}

	flagSet := NewFlagSet(&cmd)
	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			cmd.Help = true
			return cmd, nil
		}
		return Command{}, err
	}
	if cmd.Help {
		return cmd, nil
	}

	if err := cmd.bind(flagSet.Args()); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// NewFlagSet declares the flags shared by every subcommand, bound to cmd
func NewFlagSet(cmd *Command) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("ovconfig "+string(cmd.Subcommand), pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SetInterspersed(true)

	flagSet.StringVar(&cmd.SchemaPath, "schema", "", "path to the schema file (default: "+schema.DefaultFileName+")")
	flagSet.StringVar(&cmd.Format, "format", "", "backing file format: ini, toml or yaml (default: by extension)")
	flagSet.BoolVar(&cmd.NoVerify, "no-verify", false, "skip predicate checks when loading and writing")
	flagSet.BoolVar(&cmd.All, "all", false, "report every invalid field instead of the first")
	flagSet.BoolVar(&cmd.Force, "force", false, "overwrite an existing file")
	flagSet.BoolVar(&cmd.JSONOutput, "json", false, "print machine-readable JSON")
	flagSet.BoolVar(&cmd.CIMode, "ci", false, "print GitHub Actions annotations")
	flagSet.StringVar(&cmd.ArtifactFile, "artifact", "", "write the configuration artifact to this file")
	flagSet.StringVar(&cmd.BaselineName, "baseline", "", "compare against the named baseline")
	flagSet.StringVar(&cmd.Contract, "contract", "", "also enforce the named schema contract")
	flagSet.StringVar(&cmd.LogLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flagSet.BoolVarP(&cmd.Help, "help", "h", false, "show help")
	return flagSet
}

// bind assigns positional arguments according to the subcommand
func (c *Command) bind(args []string) error {
	switch c.Subcommand {
	case SubcommandBaseline:
		if len(args) == 0 {
			return fmt.Errorf("%w: baseline requires an action (save, list, show, delete)", ErrMissingArgument)
		}
		c.BaselineAction = args[0]
		names, ok := baselineArity[c.BaselineAction]
		if !ok {
			return fmt.Errorf("%w: baseline %s", ErrUnknownSubcommand, c.BaselineAction)
		}
		rest, err := take(names, args[1:], "baseline "+c.BaselineAction)
		if err != nil {
			return err
		}
		if len(rest) > 0 {
			c.BaselineName = rest[0]
		}
		if len(rest) > 1 {
			c.ConfigPath = rest[1]
		}
		return nil

	case SubcommandDiff:
		// diff CONFIG OTHER, or diff CONFIG --baseline NAME
		names := []string{"CONFIG", "OTHER"}
		if c.BaselineName != "" {
			names = names[:1]
		}
		rest, err := take(names, args, "diff")
		if err != nil {
			return err
		}
		c.ConfigPath = rest[0]
		if len(rest) > 1 {
			c.OtherPath = rest[1]
		}
		return nil
	}

	rest, err := take(arity[c.Subcommand], args, string(c.Subcommand))
	if err != nil {
		return err
	}
	c.ConfigPath = rest[0]
	if len(rest) > 2 {
		c.Section, c.Key = rest[1], rest[2]
	}
	if len(rest) > 3 {
		c.Value = rest[3]
	}
	return nil
}

func take(names, args []string, usage string) ([]string, error) {
	if len(args) < len(names) {
		return nil, fmt.Errorf("%w: %s requires %s", ErrMissingArgument, usage, names[len(args)])
	}
	if len(args) > len(names) {
		return nil, fmt.Errorf("%w: %s takes %d argument(s), got %d", ErrTooManyArguments, usage, len(names), len(args))
	}
	return args, nil
}
