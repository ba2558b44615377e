// Package checkpoint persists per-chapter progress so an interrupted run
// can resume. State is keyed by a fingerprint of the source bytes.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

// Version is written into every state file.
const Version = "1.0"

// DefaultBatchSize is how many marks accumulate before a write.
const DefaultBatchSize = 10

var (
	// ErrFingerprintMismatch means the state file belongs to different source bytes.
	ErrFingerprintMismatch = errors.New("checkpoint fingerprint mismatch")
	// ErrCorrupt means the state file could not be decoded.
	ErrCorrupt = errors.New("corrupt checkpoint")
)

// State is the persisted form.
type State struct {
	Version                 string         `json:"version"`
	SourceFingerprint       string         `json:"source_fingerprint"`
	ProcessedChapterIndices []int          `json:"processed_chapter_indices"`
	EnhancedTitles          map[int]string `json:"enhanced_titles,omitempty"`
	TotalChapters           int            `json:"total_chapters"`
	Completed               bool           `json:"completed"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

// Path returns the state file for a source inside the output directory.
func Path(sourcePath, outputDir string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, "."+stem+"_resume.json")
}

// Fingerprint returns the hex SHA-256 of the source bytes.
func Fingerprint(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Read loads a state file without validating its fingerprint.
func Read(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if st.SourceFingerprint == "" {
		return nil, fmt.Errorf("%w: missing fingerprint", ErrCorrupt)
	}
	return &st, nil
}

// Options configures a Manager.
type Options struct {
	BatchSize int
	Logger    *slog.Logger
}

// Manager owns one state file for the duration of a run. Concurrent runs
// against the same file are not supported.
type Manager struct {
	mu        sync.Mutex
	path      string
	state     State
	processed map[int]bool
	pending   int
	batchSize int
	resumed   bool
	logger    *slog.Logger
}

// Open loads the state at path when it exists and matches fingerprint.
// Any other file is ignored and fresh state is started; the file is
// replaced on the first write.
func Open(path, fingerprint string, opts Options) *Manager {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		path:      path,
		processed: make(map[int]bool),
		batchSize: opts.BatchSize,
		logger:    logger,
	}

	st, err := Read(path)
	if err == nil && st.SourceFingerprint != fingerprint {
		err = ErrFingerprintMismatch
	}
	switch {
	case err == nil && !st.Completed:
		m.state = *st
		m.resumed = true
		for _, i := range st.ProcessedChapterIndices {
			m.processed[i] = true
		}
		logger.Info("resuming from checkpoint", "path", path, "processed", len(m.processed), "total", st.TotalChapters)
		return m
	case err != nil && !errors.Is(err, os.ErrNotExist):
		logger.Warn("ignoring checkpoint", "path", path, "error", err)
	}

	now := time.Now().UTC()
	m.state = State{
		Version:           Version,
		SourceFingerprint: fingerprint,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return m
}

// Path returns the state file path.
func (m *Manager) Path() string {
	return m.path
}

// Resumed reports whether prior progress was loaded.
func (m *Manager) Resumed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resumed
}

// SetTotal records the number of chapters in the run.
func (m *Manager) SetTotal(n int) {
	m.mu.Lock()
	m.state.TotalChapters = n
	m.mu.Unlock()
}

// IsProcessed reports whether chapter index i has completed.
func (m *Manager) IsProcessed(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[i]
}

// Title returns the stored title for a processed chapter.
func (m *Manager) Title(i int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.EnhancedTitles[i]
	return t, ok
}

// Mark records chapter i as processed with its final title. The state is
// written once every batch size marks.
func (m *Manager) Mark(i int, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.processed[i] {
		m.processed[i] = true
		m.state.ProcessedChapterIndices = append(m.state.ProcessedChapterIndices, i)
	}
	if title != "" {
		if m.state.EnhancedTitles == nil {
			m.state.EnhancedTitles = make(map[int]string)
		}
		m.state.EnhancedTitles[i] = title
	}
	m.pending++
	if m.pending < m.batchSize {
		return nil
	}
	return m.writeLocked()
}

// Flush writes pending marks.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == 0 {
		return nil
	}
	return m.writeLocked()
}

// Complete marks the run finished, flushes, and removes the state file.
func (m *Manager) Complete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Completed = true
	if err := m.writeLocked(); err != nil {
		return err
	}
	return m.removeLocked()
}

// Clear discards all progress and removes the state file.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = make(map[int]bool)
	m.state.ProcessedChapterIndices = nil
	m.state.EnhancedTitles = nil
	m.state.Completed = false
	m.pending = 0
	m.resumed = false
	return m.removeLocked()
}

// State returns a copy of the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	st.ProcessedChapterIndices = slices.Clone(st.ProcessedChapterIndices)
	if st.EnhancedTitles != nil {
		titles := make(map[int]string, len(st.EnhancedTitles))
		for k, v := range st.EnhancedTitles {
			titles[k] = v
		}
		st.EnhancedTitles = titles
	}
	return st
}

func (m *Manager) writeLocked() error {
	m.state.UpdatedAt = time.Now().UTC()
	slices.Sort(m.state.ProcessedChapterIndices)
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing checkpoint temp file: %w", err)
	}

	// rename can fail transiently while another process holds the target open
	err = retry.Do(
		func() error { return os.Rename(tmpName, m.path) },
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing checkpoint: %w", err)
	}

	m.pending = 0
	m.logger.Debug("checkpoint saved", "path", m.path, "processed", len(m.state.ProcessedChapterIndices))
	return nil
}

func (m *Manager) removeLocked() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}
