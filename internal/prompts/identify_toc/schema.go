package identify_toc

// Schema is the JSON schema for TOC identification output.
var Schema = map[string]any{
	"name":   "toc_identification",
	"strict": true,
	"schema": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"has_toc": map[string]any{
				"type":        "boolean",
				"description": "True if the sample contains a table of contents",
			},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "Patterns observed",
			},
		},
		"required":             []string{"has_toc", "confidence"},
		"additionalProperties": true,
	},
}

// Result represents the parsed identification result.
type Result struct {
	HasTOC     bool    `json:"has_toc"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}
