package identify_toc

import (
	_ "embed"

	"github.com/jackzampolin/txtshelf/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

// Prompt keys
const (
	SystemPromptKey = "assistant.identify_toc.system"
	UserPromptKey   = "assistant.identify_toc.user"
)

// Data fills the user prompt.
type Data struct {
	Language string
	Sample   string
}

// SystemPrompt returns the embedded system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// RegisterPrompts registers the TOC identification prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "TOC identification system prompt - decides whether a document opens with a table of contents",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "TOC identification user prompt template",
	})
}
