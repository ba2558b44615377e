// Package prompts provides prompt management with embedded defaults and
// file overrides.
//
// Resolution order for a key:
//  1. Override file <dir>/<key>.tmpl (when an override directory is configured)
//  2. Embedded default (from .tmpl files in code)
//
// Every resolved prompt carries a content hash that is recorded with each
// LLM call, linking the call to the exact prompt text.
package prompts

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"`
	CID        string   `json:"cid"` // content hash of Text
}

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: assistant.toc.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}
