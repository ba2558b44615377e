package types

// BoundaryKind is the structural level a heading belongs to.
type BoundaryKind string

const (
	KindVolume  BoundaryKind = "volume"
	KindChapter BoundaryKind = "chapter"
	KindSection BoundaryKind = "section"
)

// Kinds lists the levels from outermost to innermost.
var Kinds = []BoundaryKind{KindVolume, KindChapter, KindSection}

// BoundaryMatch is a candidate heading found by the matcher.
// Start and End are byte offsets into the scanned text covering the
// heading without its indentation or line break.
type BoundaryMatch struct {
	Kind  BoundaryKind `json:"kind"`
	Title string       `json:"title"`
	Start int          `json:"start"`
	End   int          `json:"end"`
	Line  int          `json:"line"` // 1-based
	Rule  string       `json:"rule,omitempty"`
}
