package analyze_candidates

// Schema is the JSON schema for candidate analysis output.
var Schema = map[string]any{
	"name":   "chapter_candidate_decisions",
	"strict": true,
	"schema": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"decisions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"index": map[string]any{
							"type":        "integer",
							"description": "1-based candidate number",
						},
						"is_chapter": map[string]any{"type": "boolean"},
						"confidence": map[string]any{
							"type":    "number",
							"minimum": 0,
							"maximum": 1,
						},
						"reason": map[string]any{"type": "string"},
						"suggested_title": map[string]any{
							"type": []string{"string", "null"},
						},
					},
					"required": []string{"is_chapter"},
				},
			},
		},
		"required": []string{"decisions"},
	},
}

// Decision is one entry of the parsed result.
type Decision struct {
	Index          int     `json:"index"`
	IsChapter      bool    `json:"is_chapter"`
	Confidence     float64 `json:"confidence"`
	Reason         string  `json:"reason"`
	SuggestedTitle *string `json:"suggested_title"`
}

// Result represents the parsed analysis result.
type Result struct {
	Decisions []Decision `json:"decisions"`
}
