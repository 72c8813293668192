package entrygen

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrNoMatches = errors.New("no syscalls found")

//go:embed entry.tbl
var defaultTable string

// Enough for the current lot of em.
const bufSize = 32

// Table is everything the generators are run over.
type Table struct {
	Syscalls []Syscall   `json:"syscalls"`
	Vectors  VectorRange `json:"vectors"`
}

// Names returns the syscall names in table order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Syscalls))
	for _, s := range t.Syscalls {
		names = append(names, s.Name)
	}
	return names
}

type TableParser struct {
	tblData string
}

type parseOpts struct {
	exactMatch bool
	find       []string
}

type TableParseOpts func(*parseOpts)

func WithExactMatch(find []string) TableParseOpts {
	return func(parser *parseOpts) {
		parser.exactMatch = true
		parser.find = find
	}
}

func WithFindSubstrings(find []string) TableParseOpts {
	return func(parser *parseOpts) {
		parser.find = find
	}
}

func NewTableParser(tblData string) *TableParser {
	return &TableParser{tblData: tblData}
}

// DefaultTable parses the table compiled into the binary.
func DefaultTable(opts ...TableParseOpts) (*Table, error) {
	tbl, err := NewTableParser(defaultTable).Parse(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded entry table: %w", err)
	}
	return tbl, nil
}

func (tp *TableParser) Parse(opts ...TableParseOpts) (*Table, error) {
	var parseOpts parseOpts
	for _, opt := range opts {
		opt(&parseOpts)
	}

	search := len(parseOpts.find) > 0

	syscalls := make([]Syscall, 0, bufSize)
	seen := make(map[string]int)

	var (
		vectors     VectorRange
		haveVectors bool
	)

	lines := strings.Split(tp.tblData, "\n")
	for i, line := range lines {
		lineNo := i + 1
		line = strings.TrimSpace(line)
		// Skip comments and empty lines.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// fields[0] == directive, the rest are its arguments.
		fields := strings.Fields(line)
		switch fields[0] {
		case "syscall":
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: syscall takes exactly one name, got %d fields", lineNo, len(fields)-1)
			}
			name := fields[1]
			if prev, ok := seen[name]; ok {
				return nil, fmt.Errorf("line %d: duplicate syscall %q, first declared on line %d", lineNo, name, prev)
			}
			// Numbered by table position so filtering never renumbers.
			number := len(seen)
			seen[name] = lineNo

			if search && !matches(name, &parseOpts) {
				continue
			}
			syscalls = append(syscalls, Syscall{Number: uint16(number), Name: name})
		case "vectors":
			if haveVectors {
				return nil, fmt.Errorf("line %d: vectors declared more than once", lineNo)
			}
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: vectors takes a low and a high bound", lineNo)
			}
			low, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid low vector: %w", lineNo, err)
			}
			high, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid high vector: %w", lineNo, err)
			}
			if low < 0 || high > VectorLimit || low > high {
				return nil, fmt.Errorf("line %d: vector range [%d, %d) is not within [0, %d]", lineNo, low, high, VectorLimit)
			}
			vectors = VectorRange{Low: low, High: high}
			haveVectors = true
		default:
			return nil, fmt.Errorf("line %d: unknown directive %q", lineNo, fields[0])
		}
	}

	if !haveVectors {
		return nil, errors.New("no vectors line in table")
	}

	if search && len(syscalls) == 0 {
		return nil, ErrNoMatches
	}

	return &Table{
		Syscalls: syscalls,
		Vectors:  vectors,
	}, nil
}

func matches(name string, opts *parseOpts) bool {
	for _, str := range opts.find {
		if opts.exactMatch {
			if name == str {
				return true
			}
		} else if strings.Contains(name, str) {
			return true
		}
	}
	return false
}
