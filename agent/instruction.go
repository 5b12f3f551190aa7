package agent

import "github.com/veracity-ai/veracity/core"

// Provider supplies instruction text at runtime. Stages that need to
// inspect session state before prompting (the researcher building its
// question-specific brief, for example) implement this instead of
// passing a fixed string.
type Provider interface {
	Instruction(*core.RunContext) (string, error)
}

// Func adapts an ordinary function to the Provider interface.
type Func func(*core.RunContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(rc *core.RunContext) (string, error) { return f(rc) }

// Instruction holds either a static prompt string or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.RunContext) (string, error)) Instruction {
	return NewInstructionFromProvider(Func(f))
}

// IsStatic reports whether the instruction is a fixed string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if set.
func (i Instruction) Resolve(ctx *core.RunContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx)
	}
	return i.text, nil
}
