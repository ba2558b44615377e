package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

func TestSortByNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "already sorted",
			input:    []string{"book-1.txt", "book-2.txt", "book-3.txt"},
			expected: []string{"book-1.txt", "book-2.txt", "book-3.txt"},
		},
		{
			name:     "reverse order",
			input:    []string{"book-3.txt", "book-2.txt", "book-1.txt"},
			expected: []string{"book-1.txt", "book-2.txt", "book-3.txt"},
		},
		{
			name:     "mixed with double digits",
			input:    []string{"book-10.txt", "book-2.txt", "book-1.txt"},
			expected: []string{"book-1.txt", "book-2.txt", "book-10.txt"},
		},
		{
			name:     "single file without number",
			input:    []string{"book.txt"},
			expected: []string{"book.txt"},
		},
		{
			name:     "numbered and unnumbered",
			input:    []string{"book-2.txt", "book.txt", "book-1.txt"},
			expected: []string{"book.txt", "book-1.txt", "book-2.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sortByNumber(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("length mismatch: got %d, want %d", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("index %d: got %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/path/to/three-kingdoms.txt", "three-kingdoms"},
		{"/path/to/my-book-1.txt", "my-book"},
		{"/path/to/my-book-10.txt", "my-book"},
		{"simple.txt", "simple"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := deriveTitle(tt.input)
			if result != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func mustEncode(t *testing.T, enc encoding.Encoding, s string) []byte {
	t.Helper()
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func TestDecode(t *testing.T) {
	const text = "第一章 晨\n内容。\n"
	utf16le := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	utf16be := unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

	tests := []struct {
		name     string
		raw      []byte
		want     string
		encoding string
	}{
		{"utf-8", []byte(text), text, EncodingUTF8},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, text...), text, EncodingUTF8},
		{"utf-16le bom", mustEncode(t, utf16le, text), text, EncodingUTF16LE},
		{"utf-16be bom", mustEncode(t, utf16be, text), text, EncodingUTF16BE},
		{"gb18030", mustEncode(t, simplifiedchinese.GB18030, text), text, EncodingGB18030},
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, "caf\u00e9", EncodingLatin1},
		{"crlf", []byte("a\r\nb\rc"), "a\nb\nc", EncodingUTF8},
		{"empty", nil, "", EncodingUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc := Decode(tt.raw)
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if enc != tt.encoding {
				t.Errorf("encoding = %q, want %q", enc, tt.encoding)
			}
		})
	}
}

func TestNormalizeNFC(t *testing.T) {
	// e followed by a combining acute accent
	if got := Normalize("cafe\u0301"); got != "caf\u00e9" {
		t.Errorf("got %q, want composed form", got)
	}
}

func TestIngestMultiPart(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	p2 := write("novel-2.txt", "第二章 昏\n内容B。\n")
	p1 := write("novel-1.txt", "第一章 晨\r\n内容A。\r\n")

	res, err := Ingest(Request{Paths: []string{p2, p1}})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Title != "novel" {
		t.Errorf("title = %q, want novel", res.Title)
	}
	if res.Parts != 2 {
		t.Errorf("parts = %d, want 2", res.Parts)
	}
	want := "第一章 晨\n内容A。\n\n第二章 昏\n内容B。\n"
	if res.Text != want {
		t.Errorf("text = %q, want %q", res.Text, want)
	}
	if len(res.Fingerprint) != 64 {
		t.Errorf("fingerprint = %q", res.Fingerprint)
	}
}

func TestReadEmptyFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := Read(p)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Text != "" {
		t.Errorf("text = %q, want empty", res.Text)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if _, err := Ingest(Request{}); err == nil {
		t.Fatal("expected an error without paths")
	}
}
