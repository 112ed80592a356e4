package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/interpreter.txt
	interpreterRaw string

	//go:embed template/renderer.txt
	rendererRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Interpreter string
	Renderer    string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Interpreter: strings.TrimSpace(interpreterRaw),
		Renderer:    strings.TrimSpace(rendererRaw),
	}
}
