package prompts_test

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jackzampolin/txtshelf/internal/prompts"
	"github.com/jackzampolin/txtshelf/internal/prompts/analyze_candidates"
	"github.com/jackzampolin/txtshelf/internal/prompts/chapter_title"
	"github.com/jackzampolin/txtshelf/internal/prompts/identify_toc"
)

func newResolver(store *prompts.Store) *prompts.Resolver {
	r := prompts.NewResolver(store, nil)
	identify_toc.RegisterPrompts(r)
	analyze_candidates.RegisterPrompts(r)
	chapter_title.RegisterPrompts(r)
	return r
}

func TestExtractVariables(t *testing.T) {
	got := prompts.ExtractVariables("{{.Sample}} and {{ .Language }} and {{.Sample}} {{.Doc.Type}}")
	want := []string{"Doc.Type", "Language", "Sample"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractVariables() = %v, want %v", got, want)
	}
}

func TestRegisterAndResolveEmbedded(t *testing.T) {
	r := newResolver(nil)

	all := r.AllEmbedded()
	if len(all) != 7 {
		t.Fatalf("AllEmbedded() = %d prompts, want 7", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Errorf("AllEmbedded() not sorted at %d", i)
		}
	}

	p, err := r.Resolve(identify_toc.UserPromptKey)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.IsOverride {
		t.Error("expected embedded prompt")
	}
	if p.CID != prompts.HashText(p.Text) {
		t.Error("CID should be the text hash")
	}
	if !reflect.DeepEqual(p.Variables, []string{"Language", "Sample"}) {
		t.Errorf("Variables = %v", p.Variables)
	}

	if _, err := r.Resolve("missing.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestOverrideStore(t *testing.T) {
	store := prompts.NewStore(filepath.Join(t.TempDir(), "prompts"))
	r := newResolver(store)

	if keys, err := store.List(); err != nil || len(keys) != 0 {
		t.Fatalf("List() on missing dir = %v, %v", keys, err)
	}

	override := "Custom sample: {{.Sample}}"
	if err := store.Put(identify_toc.UserPromptKey, override); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	p, err := r.Resolve(identify_toc.UserPromptKey)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !p.IsOverride || p.Text != override {
		t.Errorf("Resolve() = %+v, want override", p)
	}

	keys, _ := store.List()
	if !reflect.DeepEqual(keys, []string{identify_toc.UserPromptKey}) {
		t.Errorf("List() = %v", keys)
	}

	if err := store.Delete(identify_toc.UserPromptKey); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(identify_toc.UserPromptKey); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	p, _ = r.Resolve(identify_toc.UserPromptKey)
	if p.IsOverride {
		t.Error("override should be gone")
	}

	if err := store.Put("../escape", "x"); err == nil {
		t.Error("expected invalid key error")
	}
}

func TestRenderEmbeddedTemplates(t *testing.T) {
	r := newResolver(nil)

	render := func(key string, data any) string {
		t.Helper()
		p, err := r.Resolve(key)
		if err != nil {
			t.Fatalf("Resolve(%s) error = %v", key, err)
		}
		out, err := prompts.Render(key, p.Text, data)
		if err != nil {
			t.Fatalf("Render(%s) error = %v", key, err)
		}
		return out
	}

	out := render(identify_toc.UserPromptKey, identify_toc.Data{Language: "chinese", Sample: "目录\n第一章"})
	if !strings.Contains(out, "目录\n第一章") {
		t.Errorf("identify prompt missing sample: %s", out)
	}

	out = render(analyze_candidates.UserPromptKey, analyze_candidates.Data{
		DocType:  "Novel",
		Language: "chinese",
		Candidates: []analyze_candidates.Candidate{
			{Number: 1, Text: "第二章", Line: 3, Confidence: 0.456, PatternKind: "standard", Issues: "low confidence"},
		},
	})
	for _, want := range []string{`1. "第二章" (line 3, confidence 0.46, type standard) [issues: low confidence]`, "None yet", ">>> 第二章 <<<"} {
		if !strings.Contains(out, want) {
			t.Errorf("analyze prompt missing %q:\n%s", want, out)
		}
	}

	out = render(chapter_title.BatchPromptKey, chapter_title.BatchData{
		Language: "english",
		Chapters: []chapter_title.BatchChapter{{Number: 1, Marker: "Chapter 1", Content: "Rain."}},
	})
	if !strings.Contains(out, "1. Chapter 1\nContent: Rain....") {
		t.Errorf("batch prompt:\n%s", out)
	}
}

func TestRenderMissingField(t *testing.T) {
	if _, err := prompts.Render("k", "{{.Nope}}", map[string]string{}); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := prompts.Render("k", "{{.Broken", nil); err == nil {
		t.Error("expected parse error")
	}
}
