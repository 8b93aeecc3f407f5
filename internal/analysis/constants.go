// Package analysis annotates x86 disassembly with symbol names, local
// branch labels and the string literals that RIP-relative operands point
// at.
package analysis

const (
	// MaxStringLength is the maximum length for string extraction
	MaxStringLength = 256

	// MaxTraceInstructions is the default number of instructions to trace
	MaxTraceInstructions = 1000

	// minStringLength keeps short byte runs from being shown as strings.
	minStringLength = 2
)
