package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", ".book_resume.json"), Path("/data/book.txt", "out"))
	assert.Equal(t, filepath.Join("out", ".my.novel_resume.json"), Path("my.novel.txt", "out"))
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("abc"))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", a)
	assert.NotEqual(t, a, Fingerprint([]byte("abd")))
}

func TestBatchedWritesAndResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".book_resume.json")
	fp := Fingerprint([]byte("source"))

	m := Open(path, fp, Options{BatchSize: 3})
	assert.False(t, m.Resumed())
	m.SetTotal(5)

	require.NoError(t, m.Mark(0, "第一章 晨"))
	require.NoError(t, m.Mark(1, ""))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no write before the batch fills")

	require.NoError(t, m.Mark(2, "第三章 暮"))
	st, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, st.ProcessedChapterIndices)
	assert.Equal(t, 5, st.TotalChapters)

	require.NoError(t, m.Mark(3, ""))
	require.NoError(t, m.Flush())
	st, err = Read(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, st.ProcessedChapterIndices)

	resumed := Open(path, fp, Options{BatchSize: 3})
	assert.True(t, resumed.Resumed())
	assert.True(t, resumed.IsProcessed(3))
	assert.False(t, resumed.IsProcessed(4))
	title, ok := resumed.Title(2)
	assert.True(t, ok)
	assert.Equal(t, "第三章 暮", title)
	assert.Equal(t, 5, resumed.State().TotalChapters)
}

func TestMarkTwiceCountsOnce(t *testing.T) {
	m := Open(filepath.Join(t.TempDir(), "s.json"), "fp", Options{BatchSize: 100})
	require.NoError(t, m.Mark(1, "a"))
	require.NoError(t, m.Mark(1, "b"))
	st := m.State()
	assert.Equal(t, []int{1}, st.ProcessedChapterIndices)
	assert.Equal(t, "b", st.EnhancedTitles[1])
}

func TestFingerprintMismatchStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	m := Open(path, "old", Options{BatchSize: 1})
	require.NoError(t, m.Mark(0, ""))

	fresh := Open(path, "new", Options{})
	assert.False(t, fresh.Resumed())
	assert.False(t, fresh.IsProcessed(0))
	assert.Equal(t, "new", fresh.State().SourceFingerprint)
}

func TestCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Read(path)
	assert.ErrorIs(t, err, ErrCorrupt)

	m := Open(path, "fp", Options{})
	assert.False(t, m.Resumed())
	require.NoError(t, m.Mark(0, ""))
	require.NoError(t, m.Flush())

	st, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "fp", st.SourceFingerprint)
	assert.Equal(t, Version, st.Version)
}

func TestCompleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.json")
	m := Open(path, "fp", Options{BatchSize: 1})
	require.NoError(t, m.Mark(0, ""))
	require.FileExists(t, path)

	require.NoError(t, m.Complete())
	assert.NoFileExists(t, path)
	assert.True(t, m.State().Completed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files left behind")
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	m := Open(path, "fp", Options{BatchSize: 1})
	require.NoError(t, m.Mark(4, "x"))

	require.NoError(t, m.Clear())
	assert.NoFileExists(t, path)
	assert.False(t, m.IsProcessed(4))
	_, ok := m.Title(4)
	assert.False(t, ok)
	require.NoError(t, m.Clear())
}
