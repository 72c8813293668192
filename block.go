package entrygen

import (
	"fmt"
	"io"
	"strings"
)

// Kind tags a Block with the artifact it belongs to.
type Kind int

const (
	WrapperDecl Kind = iota
	Prototype
	StubBody
	InstallWrapper
	InstallArm
	InstallCall
	DispatchOpen
	DispatchClose
)

func (k Kind) String() string {
	switch k {
	case WrapperDecl:
		return "wrapper-declaration"
	case Prototype:
		return "prototype"
	case StubBody:
		return "stub-body"
	case InstallWrapper:
		return "installation-wrapper"
	case InstallArm:
		return "installation-arm"
	case InstallCall:
		return "installation-call"
	case DispatchOpen:
		return "dispatch-open"
	case DispatchClose:
		return "dispatch-close"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Block is a single unit of generated text. Key is the syscall name or vector
// number the block was produced for.
type Block struct {
	Kind Kind
	Key  string
	Text string
}

// Artifact is the output of one generator pass, meant to be redirected into
// its own header or source file.
type Artifact struct {
	Name   string
	Header string
	Footer string
	// Separator goes between entries. An entry is a run of consecutive
	// blocks sharing the same Key.
	Separator string
	Blocks    []Block
}

func (a Artifact) String() string {
	if len(a.Blocks) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(a.Header)
	for i, b := range a.Blocks {
		if i > 0 && b.Key != a.Blocks[i-1].Key {
			sb.WriteString(a.Separator)
		}
		sb.WriteString(b.Text)
	}
	sb.WriteString(a.Footer)
	return sb.String()
}

// Blank lines between artifacts written back to back.
const artifactGap = "\n\n\n"

// Write renders artifacts to w in order. Empty artifacts are skipped entirely.
func Write(w io.Writer, artifacts ...Artifact) error {
	wrote := false
	for _, a := range artifacts {
		text := a.String()
		if text == "" {
			continue
		}
		if wrote {
			if _, err := io.WriteString(w, artifactGap); err != nil {
				return fmt.Errorf("failed to write separator before %q: %w", a.Name, err)
			}
		}
		if _, err := io.WriteString(w, text); err != nil {
			return fmt.Errorf("failed to write artifact %q: %w", a.Name, err)
		}
		wrote = true
	}
	return nil
}
