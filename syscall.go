package entrygen

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
)

const (
	SyscallWrappersArtifact = "syscall-wrappers"
	SyscallStubsArtifact    = "syscall-stubs"
	SyscallInstallArtifact  = "syscall-install"
)

type Syscall struct {
	Number uint16 `json:"number"`
	Name   string `json:"name"`
}

// Symbol is the C-level name of the handler, shared by the wrapper
// declaration, the prototype and the installation call.
func (s Syscall) Symbol() string {
	return s.Name + "_syscall"
}

// InstallConstant names the vector the syscall is installed at.
func (s Syscall) InstallConstant() string {
	return strings.ToUpper(s.Name) + "_INT"
}

// Syscalls numbers names by their position in the list.
func Syscalls(names []string) []Syscall {
	syscalls := make([]Syscall, 0, len(names))
	for i, name := range names {
		syscalls = append(syscalls, Syscall{Number: uint16(i), Name: name})
	}
	return syscalls
}

func wrapperDecl(s Syscall) string {
	return fmt.Sprintf(`/** @brief Wrapper for %s syscall handler
 *  @return void
 */
NAME_ASM_H(%s);
`, s.Name, s.Symbol())
}

func prototype(s Syscall) string {
	return fmt.Sprintf(`/** @brief The %s syscall
 *  @param state The current state in user mode
 *  @return void
 */
void %s(ureg_t state)
`, s.Name, s.Symbol())
}

// The body never returns: it leaves one diagnostic and parks the thread.
func stubBody(s Syscall) string {
	return fmt.Sprintf(`{
    tcb_t* tcb = get_tcb();
    lprintf("Thread %%d called %s. Not yet implemented", tcb->id);
    while(1) {
        continue;
    }
}
`, s.Name)
}

func installSyscall(s Syscall) string {
	return fmt.Sprintf("set_idt_syscall(NAME_ASM(%s), %s);\n", s.Symbol(), s.InstallConstant())
}

// SyscallStubGenerator emits the declarations and placeholder bodies for a
// list of syscalls.
type SyscallStubGenerator struct {
	logger hclog.Logger
}

func NewSyscallStubGenerator(opts ...GeneratorOpt) *SyscallStubGenerator {
	o := newGenOpts(opts)
	return &SyscallStubGenerator{logger: o.logger.Named("syscall")}
}

// Generate returns, per name and in input order, the wrapper declaration,
// the prototype and the stub body.
func (g *SyscallStubGenerator) Generate(names []string) []Block {
	blocks := make([]Block, 0, 3*len(names))
	for _, s := range Syscalls(names) {
		blocks = append(blocks,
			Block{Kind: WrapperDecl, Key: s.Name, Text: wrapperDecl(s)},
			Block{Kind: Prototype, Key: s.Name, Text: prototype(s)},
			Block{Kind: StubBody, Key: s.Name, Text: stubBody(s)},
		)
	}
	return blocks
}

// Artifacts splits the output into the header of wrapper declarations, the
// source file of stubs and the installation calls.
func (g *SyscallStubGenerator) Artifacts(syscalls []Syscall) []Artifact {
	wrappers := Artifact{Name: SyscallWrappersArtifact, Separator: "\n"}
	stubs := Artifact{Name: SyscallStubsArtifact, Separator: "\n"}
	install := Artifact{Name: SyscallInstallArtifact}

	for _, s := range syscalls {
		wrappers.Blocks = append(wrappers.Blocks, Block{Kind: WrapperDecl, Key: s.Name, Text: wrapperDecl(s)})
		stubs.Blocks = append(stubs.Blocks,
			Block{Kind: Prototype, Key: s.Name, Text: prototype(s)},
			Block{Kind: StubBody, Key: s.Name, Text: stubBody(s)},
		)
		install.Blocks = append(install.Blocks, Block{Kind: InstallCall, Key: s.Name, Text: installSyscall(s)})
	}

	artifacts := []Artifact{wrappers, stubs, install}
	for _, a := range artifacts {
		g.logger.Debug("generated artifact", "name", a.Name, "blocks", len(a.Blocks))
	}
	return artifacts
}
