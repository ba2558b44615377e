package chapter_title

var titleProperties = map[string]any{
	"title": map[string]any{"type": "string"},
	"confidence": map[string]any{
		"type":    "number",
		"minimum": 0,
		"maximum": 1,
	},
}

// Schema is the JSON schema for a single generated title.
var Schema = map[string]any{
	"name":   "chapter_title",
	"strict": true,
	"schema": map[string]any{
		"type":       "object",
		"properties": titleProperties,
		"required":   []string{"title"},
	},
}

// BatchSchema is the JSON schema for batched titles.
var BatchSchema = map[string]any{
	"name":   "chapter_titles",
	"strict": true,
	"schema": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"titles": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"index":      map[string]any{"type": "integer"},
						"title":      titleProperties["title"],
						"confidence": titleProperties["confidence"],
					},
					"required": []string{"index", "title"},
				},
			},
		},
		"required": []string{"titles"},
	},
}

// Title is a single parsed title.
type Title struct {
	Index      int      `json:"index"`
	Title      string   `json:"title"`
	Confidence *float64 `json:"confidence"`
}

// BatchResult represents the parsed batch result.
type BatchResult struct {
	Titles []Title `json:"titles"`
}
