package chapter_title

import (
	_ "embed"

	"github.com/jackzampolin/txtshelf/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

//go:embed user_batch.tmpl
var batchPromptTmpl string

// Prompt keys
const (
	SystemPromptKey = "assistant.chapter_title.system"
	UserPromptKey   = "assistant.chapter_title.user"
	BatchPromptKey  = "assistant.chapter_title.batch"
)

// Sample sizes, in runes, of chapter content shown to the model.
const (
	SingleSampleRunes = 1000
	BatchSampleRunes  = 200
)

// Data fills the single-chapter prompt.
type Data struct {
	Language string
	Number   string
	Content  string
}

// BatchChapter is one numbered chapter of a batch prompt.
type BatchChapter struct {
	Number  int
	Marker  string
	Content string
}

// BatchData fills the batch prompt.
type BatchData struct {
	Language string
	Chapters []BatchChapter
}

// SystemPrompt returns the embedded system prompt.
func SystemPrompt() string {
	return systemPrompt
}

// RegisterPrompts registers the title generation prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Chapter title system prompt - writes titles for chapters that only carry a number",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Single chapter title user prompt template",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         BatchPromptKey,
		Text:        batchPromptTmpl,
		Description: "Batched chapter title user prompt template",
	})
}
