package main

import (
	gojson "encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/evansp01/giant-brick-wedge/entrygen"
	"github.com/hashicorp/go-hclog"
	"github.com/janpfeifer/must"
	"github.com/spf13/pflag"
)

var (
	artifacts []string
	logLevel  string
	format    string
	exact     bool
	list      bool
)

func init() {
	pflag.StringSliceVarP(&artifacts, "artifact", "a", nil, "Artifact to generate, may be repeated (Default: all core artifacts)")
	pflag.StringVarP(&logLevel, "log-level", "l", "warn", "Log level for diagnostics on stderr")
	pflag.StringVarP(&format, "format", "f", table, "Format of the --list output (Values: 'table', 'json')")
	pflag.BoolVarP(&exact, "exact", "e", false, "Narrow the syscalls to only those that match the queries exactly")
	pflag.BoolVar(&list, "list", false, "List the entry table and the available artifacts instead of generating them")

	pflag.Usage = func() {
		helpText := `Usage: entrygen [options...] [<query>...]

Generate kernel entry-point scaffolding from the built in entry table and write it to stdout.
With no arguments every core artifact is written, in order, separated by blank lines. Queries
narrow the set of syscalls the syscall artifacts are generated for.

 -a, --artifact <name>		Artifact to generate, may be repeated (See --list).
 -f, --format			Format of the --list output (Values: 'table', 'json'. Default: 'table').
 -e, --exact			Narrow the syscalls to only those that match the queries exactly.
 -l, --log-level <level>	Log level for diagnostics on stderr (Default: 'warn').
     --list			List the entry table and the available artifacts instead of generating them.
`
		if _, err := os.Stdout.Write([]byte(helpText)); err != nil {
			panic(err)
		}
	}
}

const (
	json  = "json"
	table = "table"
)

// Written when no --artifact is given. The install artifacts duplicate what
// the dispatch switch does, so they are opt in.
var defaultArtifacts = []string{
	entrygen.SyscallWrappersArtifact,
	entrygen.SyscallStubsArtifact,
	entrygen.InterruptWrappersArtifact,
	entrygen.InterruptDeclarationsArtifact,
	entrygen.InterruptDispatchArtifact,
}

func newLogger(level string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "entrygen",
		Level:  hclog.LevelFromString(level),
		Output: os.Stderr,
	})
}

func validateArgs(level, format string, find []string, exact bool) error {
	if exact && len(find) == 0 {
		return errors.New("--exact provided but no search query was supplied")
	}
	if hclog.LevelFromString(level) == hclog.NoLevel {
		return fmt.Errorf("unknown log level specified: %q", level)
	}

	switch format {
	case table, json:
	default:
		return fmt.Errorf("unknown format specified: %q", format)
	}
	return nil
}

// generateAll runs both generators over tbl and indexes the result by name.
func generateAll(tbl *entrygen.Table, logger hclog.Logger) ([]entrygen.Artifact, map[string]entrygen.Artifact) {
	syscalls := entrygen.NewSyscallStubGenerator(entrygen.WithLogger(logger))
	interrupts := entrygen.NewInterruptTableGenerator(entrygen.WithLogger(logger))

	all := append(syscalls.Artifacts(tbl.Syscalls), interrupts.Artifacts(tbl.Vectors.Vectors())...)
	byName := make(map[string]entrygen.Artifact, len(all))
	for _, a := range all {
		byName[a.Name] = a
	}
	return all, byName
}

func selectArtifacts(byName map[string]entrygen.Artifact, names []string) ([]entrygen.Artifact, error) {
	if len(names) == 0 {
		names = defaultArtifacts
	}

	selected := make([]entrygen.Artifact, 0, len(names))
	for _, name := range names {
		a, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown artifact specified: %q", name)
		}
		selected = append(selected, a)
	}
	return selected, nil
}

type artifactSummary struct {
	Name   string   `json:"name"`
	Kinds  []string `json:"kinds"`
	Blocks int      `json:"blocks"`
}

type listing struct {
	Table     *entrygen.Table   `json:"table"`
	Artifacts []artifactSummary `json:"artifacts"`
}

func summarize(all []entrygen.Artifact) []artifactSummary {
	summaries := make([]artifactSummary, 0, len(all))
	for _, a := range all {
		kinds := []string{}
		seen := make(map[entrygen.Kind]bool)
		for _, b := range a.Blocks {
			if seen[b.Kind] {
				continue
			}
			seen[b.Kind] = true
			kinds = append(kinds, b.Kind.String())
		}
		summaries = append(summaries, artifactSummary{Name: a.Name, Kinds: kinds, Blocks: len(a.Blocks)})
	}
	return summaries
}

func displayTable(out io.Writer, tbl *entrygen.Table, all []entrygen.Artifact) error {
	w := tabwriter.NewWriter(out, 4, 8, 3, ' ', 0)
	fmt.Fprintln(w, "Num\tName\tSymbol\tInstall\t")
	for _, s := range tbl.Syscalls {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n", s.Number, s.Name, s.Symbol(), s.InstallConstant()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nVectors %s\n\n", tbl.Vectors); err != nil {
		return err
	}

	fmt.Fprintln(w, "Artifact\tKinds\tBlocks\t")
	for _, a := range summarize(all) {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t\n", a.Name, strings.Join(a.Kinds, ","), a.Blocks); err != nil {
			return err
		}
	}
	return w.Flush()
}

func display(out io.Writer, format string, tbl *entrygen.Table, all []entrygen.Artifact) error {
	switch format {
	case json:
		return gojson.NewEncoder(out).Encode(listing{Table: tbl, Artifacts: summarize(all)})
	case table:
		return displayTable(out, tbl, all)
	}
	return fmt.Errorf("unknown format specified: %q", format)
}

func run() error {
	pflag.Parse()

	args := pflag.Args()
	if err := validateArgs(logLevel, format, args, exact); err != nil {
		return err
	}
	logger := newLogger(logLevel)

	var opts []entrygen.TableParseOpts
	if exact {
		opts = append(opts, entrygen.WithExactMatch(args))
	} else if len(args) > 0 {
		opts = append(opts, entrygen.WithFindSubstrings(args))
	}

	tbl, err := entrygen.DefaultTable(opts...)
	if errors.Is(err, entrygen.ErrNoMatches) {
		return fmt.Errorf("no syscalls match %q: %w", args, err)
	}
	// Any other failure means the compiled in table is broken.
	must.M(err)
	logger.Debug("loaded entry table", "syscalls", len(tbl.Syscalls), "vectors", tbl.Vectors.String())

	all, byName := generateAll(tbl, logger)
	if list {
		return display(os.Stdout, format, tbl, all)
	}

	selected, err := selectArtifacts(byName, artifacts)
	if err != nil {
		return err
	}
	return entrygen.Write(os.Stdout, selected...)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
