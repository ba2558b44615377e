package analyze_candidates

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
	SystemPromptKey = "assistant.analyze_candidates.system"
	UserPromptKey   = "assistant.analyze_candidates.user"
)

// MaxExamples is how many confirmed chapter titles are shown to the model.
const MaxExamples = 5

// Candidate is one numbered candidate in the prompt.
type Candidate struct {
	Number        int
	Text          string
	Line          int
	Confidence    float64
	PatternKind   string
	Issues        string
	ContextBefore string
	ContextAfter  string
}

// Data fills the user prompt.
type Data struct {
	DocType        string
	Language       string
	ConfirmedCount int
	AverageLength  int
	Examples       []string
	Candidates     []Candidate
}

// SystemPrompt returns the embedded system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// RegisterPrompts registers the candidate analysis prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Chapter candidate analysis system prompt - accepts or rejects uncertain chapter headings",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Chapter candidate analysis user prompt template",
	})
}
