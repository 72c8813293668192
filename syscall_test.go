package entrygen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func TestSyscallGenerateOrder(t *testing.T) {
	g := NewSyscallStubGenerator()
	blocks := g.Generate([]string{"fork", "yield"})

	want := []struct {
		kind Kind
		key  string
	}{
		{WrapperDecl, "fork"},
		{Prototype, "fork"},
		{StubBody, "fork"},
		{WrapperDecl, "yield"},
		{Prototype, "yield"},
		{StubBody, "yield"},
	}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, w := range want {
		if blocks[i].Kind != w.kind || blocks[i].Key != w.key {
			t.Fatalf("block %d: got (%s, %s), want (%s, %s)", i, blocks[i].Kind, blocks[i].Key, w.kind, w.key)
		}
	}

	if !strings.Contains(blocks[0].Text, "NAME_ASM_H(fork_syscall);") {
		t.Fatalf("wrapper declaration missing macro: %q", blocks[0].Text)
	}
	if !strings.Contains(blocks[1].Text, "void fork_syscall(ureg_t state)") {
		t.Fatalf("prototype missing signature: %q", blocks[1].Text)
	}
	if !strings.Contains(blocks[2].Text, `lprintf("Thread %d called fork. Not yet implemented", tcb->id);`) {
		t.Fatalf("stub body missing diagnostic: %q", blocks[2].Text)
	}
	if !strings.Contains(blocks[5].Text, "called yield.") {
		t.Fatalf("stub body names the wrong syscall: %q", blocks[5].Text)
	}
}

func TestSyscallStubsArtifact(t *testing.T) {
	g := NewSyscallStubGenerator()
	artifacts := g.Artifacts(Syscalls([]string{"gettid"}))

	want := `/** @brief The gettid syscall
 *  @param state The current state in user mode
 *  @return void
 */
void gettid_syscall(ureg_t state)
{
    tcb_t* tcb = get_tcb();
    lprintf("Thread %d called gettid. Not yet implemented", tcb->id);
    while(1) {
        continue;
    }
}
`
	if got := artifacts[1].String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSyscallWrappersArtifact(t *testing.T) {
	g := NewSyscallStubGenerator()
	artifacts := g.Artifacts(Syscalls([]string{"fork", "yield"}))

	want := `/** @brief Wrapper for fork syscall handler
 *  @return void
 */
NAME_ASM_H(fork_syscall);

/** @brief Wrapper for yield syscall handler
 *  @return void
 */
NAME_ASM_H(yield_syscall);
`
	if artifacts[0].Name != SyscallWrappersArtifact {
		t.Fatalf("unexpected artifact %q", artifacts[0].Name)
	}
	if got := artifacts[0].String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSyscallInstallArtifact(t *testing.T) {
	g := NewSyscallStubGenerator()
	artifacts := g.Artifacts(Syscalls([]string{"new_pages", "swexn"}))

	want := "set_idt_syscall(NAME_ASM(new_pages_syscall), NEW_PAGES_INT);\n" +
		"set_idt_syscall(NAME_ASM(swexn_syscall), SWEXN_INT);\n"
	if got := artifacts[2].String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSyscallCompleteness(t *testing.T) {
	tbl, err := DefaultTable()
	if err != nil {
		t.Fatal(err)
	}

	g := NewSyscallStubGenerator()
	var wrappers, prototypes []string
	for _, b := range g.Generate(tbl.Names()) {
		switch b.Kind {
		case WrapperDecl:
			wrappers = append(wrappers, b.Key)
		case Prototype:
			prototypes = append(prototypes, b.Key)
		}
	}

	if len(wrappers) != len(tbl.Syscalls) {
		t.Fatalf("expected %d wrappers, got %d", len(tbl.Syscalls), len(wrappers))
	}
	seen := make(map[string]bool)
	for i := range wrappers {
		if wrappers[i] != prototypes[i] {
			t.Fatalf("order mismatch at %d: wrapper %q, prototype %q", i, wrappers[i], prototypes[i])
		}
		if seen[wrappers[i]] {
			t.Fatalf("%q emitted twice", wrappers[i])
		}
		seen[wrappers[i]] = true
	}
}

func TestSyscallIdempotent(t *testing.T) {
	tbl, err := DefaultTable()
	if err != nil {
		t.Fatal(err)
	}

	render := func() string {
		var buf bytes.Buffer
		if err := Write(&buf, NewSyscallStubGenerator().Artifacts(tbl.Syscalls)...); err != nil {
			t.Fatal(err)
		}
		return buf.String()
	}
	if render() != render() {
		t.Fatal("two runs produced different output")
	}
}

func TestSyscallEmpty(t *testing.T) {
	g := NewSyscallStubGenerator()
	if blocks := g.Generate(nil); len(blocks) != 0 {
		t.Fatalf("expected no blocks, got %d", len(blocks))
	}

	var buf bytes.Buffer
	if err := Write(&buf, g.Artifacts(nil)...); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty output, got %q", buf.String())
	}
}

func TestSyscallLogsArtifacts(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Debug})

	NewSyscallStubGenerator(WithLogger(logger)).Artifacts(Syscalls([]string{"fork"}))
	if !strings.Contains(buf.String(), SyscallStubsArtifact) {
		t.Fatalf("expected a debug line for %q, got %q", SyscallStubsArtifact, buf.String())
	}
}
