package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/txtshelf/internal/api"
	"github.com/jackzampolin/txtshelf/internal/checkpoint"
	"github.com/jackzampolin/txtshelf/internal/config"
)

const novel = "第一章 晨\n天亮了，他推开窗。\n第二章 昏\n天黑了，她关上门。\n第三章 夜\n夜深了，大家都睡了。\n"

// execute runs the root command with a private home directory and returns
// what was printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// flag variables outlive a single Execute
	cfgFile, outputFormat, verbose = "", "yaml", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--home", filepath.Join(t.TempDir(), "home")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeNovel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "novel.txt")
	if err := os.WriteFile(path, []byte(novel), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvert(t *testing.T) {
	src := writeNovel(t)

	out, err := execute(t, "-o", "json", "convert", src, "--no-progress", "--author", "佚名")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	var conv api.Conversion
	if err := json.Unmarshal([]byte(out), &conv); err != nil {
		t.Fatalf("bad output %q: %v", out, err)
	}
	if conv.Output != filepath.Join(filepath.Dir(src), "novel.epub") {
		t.Errorf("output = %s", conv.Output)
	}
	if _, err := os.Stat(conv.Output); err != nil {
		t.Errorf("epub not written: %v", err)
	}
	if conv.Structure.Chapters != 3 {
		t.Errorf("chapters = %d, want 3", conv.Structure.Chapters)
	}
	if conv.Structure.Integrity == nil || !conv.Structure.Integrity.Passed {
		t.Errorf("integrity = %+v", conv.Structure.Integrity)
	}
	if conv.Encoding != "utf-8" {
		t.Errorf("encoding = %s", conv.Encoding)
	}

	// a completed run leaves no checkpoint behind
	if _, err := os.Stat(checkpoint.Path(src, filepath.Dir(src))); !os.IsNotExist(err) {
		t.Errorf("checkpoint left behind: %v", err)
	}
}

func TestSegment(t *testing.T) {
	out, err := execute(t, "-o", "json", "segment", writeNovel(t))
	if err != nil {
		t.Fatalf("segment failed: %v", err)
	}
	var s api.Structure
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("bad output %q: %v", out, err)
	}
	if s.Language != "chinese" || len(s.Volumes) != 1 || len(s.Volumes[0].Chapters) != 3 {
		t.Errorf("structure = %+v", s)
	}
	if s.Volumes[0].Chapters[2].Title != "第三章 夜" {
		t.Errorf("title = %q", s.Volumes[0].Chapters[2].Title)
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	if _, err := execute(t, "-o", "xml", "version"); err == nil {
		t.Fatal("expected an error for -o xml")
	}
}

func TestConfigInitAndSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := execute(t, "--config", path, "config", "set", "parser.min_chapter_length", "321"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}

	mgr, err := config.NewManager(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := mgr.Get().Parser.MinChapterLength; got != 321 {
		t.Errorf("min_chapter_length = %d, want 321", got)
	}
}

func TestCheckpointShowMissing(t *testing.T) {
	if _, err := execute(t, "checkpoint", "show", writeNovel(t)); err == nil {
		t.Error("expected an error when no checkpoint exists")
	}
}
