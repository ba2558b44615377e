package pipeline

import (
	"context"

	"github.com/jackzampolin/txtshelf/internal/arbitrate"
	"github.com/jackzampolin/txtshelf/internal/boundary"
	"github.com/jackzampolin/txtshelf/internal/confidence"
	"github.com/jackzampolin/txtshelf/internal/enhance"
	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/toc"
	"github.com/jackzampolin/txtshelf/internal/types"
)

// Stage is one step of a run. Stages read and extend the shared State.
type Stage interface {
	Name() string           // e.g., "toc", "segment"
	Dependencies() []string // Stages that must complete first
	Description() string

	// Run executes the stage. Only context cancellation is returned as an
	// error; content problems degrade inside the stage.
	Run(ctx context.Context, st *State) error
}

// State carries the data of one run between stages.
type State struct {
	Raw      string
	Language types.Language
	Set      *patterns.Set
	Scanner  *boundary.Scanner

	TOC         toc.Result
	Document    types.Document
	Volumes     []types.Volume
	Confidence  confidence.Report
	Arbitration arbitrate.Outcome
	Enhancement *enhance.Stats

	Checkpoint enhance.Checkpoint
	Progress   ProgressReporter
}

func (st *State) report(percent int) {
	if st.Progress != nil {
		st.Progress.ReportProgress(percent)
	}
}

// stageFunc adapts a function to Stage.
type stageFunc struct {
	name        string
	deps        []string
	description string
	run         func(ctx context.Context, st *State) error
}

func (s stageFunc) Name() string           { return s.name }
func (s stageFunc) Dependencies() []string { return s.deps }
func (s stageFunc) Description() string    { return s.description }

func (s stageFunc) Run(ctx context.Context, st *State) error {
	return s.run(ctx, st)
}
