package entrygen

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-hclog"
)

const (
	// FirstUserVector is the first vector not reserved for processor exceptions.
	FirstUserVector = 32
	// VectorLimit is one past the last vector of an 8-bit table.
	VectorLimit = 256
)

const (
	InterruptWrappersArtifact     = "interrupt-wrappers"
	InterruptDeclarationsArtifact = "interrupt-declarations"
	InterruptDispatchArtifact     = "interrupt-dispatch"
	InterruptInstallArtifact      = "interrupt-install"
)

// VectorRange is the half-open range [Low, High).
type VectorRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// UserVectors covers every user-definable vector.
var UserVectors = VectorRange{Low: FirstUserVector, High: VectorLimit}

// Vectors lists the range in ascending order. An empty or inverted range
// gives an empty list.
func (r VectorRange) Vectors() []int {
	if r.High <= r.Low {
		return []int{}
	}
	vectors := make([]int, 0, r.High-r.Low)
	for i := r.Low; i < r.High; i++ {
		vectors = append(vectors, i)
	}
	return vectors
}

func (r VectorRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Low, r.High)
}

// InterruptTableGenerator emits the wrapper, declaration and dispatch
// artifacts for a list of interrupt vectors.
type InterruptTableGenerator struct {
	logger hclog.Logger
}

func NewInterruptTableGenerator(opts ...GeneratorOpt) *InterruptTableGenerator {
	o := newGenOpts(opts)
	return &InterruptTableGenerator{logger: o.logger.Named("interrupt")}
}

// GenerateRange is Generate over [low, high).
func (g *InterruptTableGenerator) GenerateRange(low, high int) []Block {
	return g.Generate(VectorRange{Low: low, High: high}.Vectors())
}

// Generate returns the blocks of the wrapper, declaration and dispatch
// passes, one pass after the other. The dispatch pass is bracketed by the
// opening and closing of its switch unless it is empty.
func (g *InterruptTableGenerator) Generate(vectors []int) []Block {
	passes := g.corePasses(vectors)
	g.logPasses(passes)

	wrappers, decls, dispatch := passes[0], passes[1], passes[2]
	blocks := make([]Block, 0, 3*len(vectors)+2)
	blocks = append(blocks, wrappers.Blocks...)
	blocks = append(blocks, decls.Blocks...)
	if len(dispatch.Blocks) > 0 {
		blocks = append(blocks, Block{Kind: DispatchOpen, Key: dispatch.Name, Text: dispatch.Header})
		blocks = append(blocks, dispatch.Blocks...)
		blocks = append(blocks, Block{Kind: DispatchClose, Key: dispatch.Name, Text: dispatch.Footer})
	}
	return blocks
}

// Artifacts runs every pass over the same vector list so that the wrapper,
// declaration and case arm for a vector always line up.
func (g *InterruptTableGenerator) Artifacts(vectors []int) []Artifact {
	artifacts := append(g.corePasses(vectors), installPass(vectors))
	g.logPasses(artifacts)
	return artifacts
}

func (g *InterruptTableGenerator) logPasses(artifacts []Artifact) {
	for _, a := range artifacts {
		g.logger.Debug("generated artifact", "name", a.Name, "blocks", len(a.Blocks))
	}
}

// corePasses builds the wrapper, declaration and dispatch passes in one loop.
func (g *InterruptTableGenerator) corePasses(vectors []int) []Artifact {
	wrappers := Artifact{Name: InterruptWrappersArtifact}
	decls := Artifact{Name: InterruptDeclarationsArtifact, Separator: "\n"}
	dispatch := Artifact{
		Name:   InterruptDispatchArtifact,
		Header: "switch (INTERRUPT_TO_INSTALL) {\n",
		Footer: "}\n",
	}

	for _, i := range vectors {
		key := strconv.Itoa(i)
		wrappers.Blocks = append(wrappers.Blocks, Block{
			Kind: InstallWrapper,
			Key:  key,
			Text: fmt.Sprintf("EXCEPTION_ASM_WRAPPER_DEVICE %d\n", i),
		})
		decls.Blocks = append(decls.Blocks, Block{
			Kind: WrapperDecl,
			Key:  key,
			Text: fmt.Sprintf(`/** @brief Wrapper for user interrupt %d
 *  @return void
 **/
INT_ASM_H(%d);
`, i, i),
		})
		dispatch.Blocks = append(dispatch.Blocks, Block{
			Kind: InstallArm,
			Key:  key,
			Text: fmt.Sprintf("case %d:\n    set_idt_device(INT_ASM(%d), %d);\n    break;\n", i, i, i),
		})
	}
	return []Artifact{wrappers, decls, dispatch}
}

func installPass(vectors []int) Artifact {
	install := Artifact{Name: InterruptInstallArtifact}
	for _, i := range vectors {
		install.Blocks = append(install.Blocks, Block{
			Kind: InstallCall,
			Key:  strconv.Itoa(i),
			Text: fmt.Sprintf("set_idt_device(INT_ASM(%d), %d);\n", i, i),
		})
	}
	return install
}
