package wizard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMarkdownPath(t *testing.T) {
	cases := map[string]string{
		"out":              "out.md",
		"out.md":           "out.md",
		"dir/out.MD":       "dir/out.MD",
		"dir/out.txt":      "dir/out.md",
		"dir.v2/notes":     "dir.v2/notes.md",
		"dir/report.final": "dir/report.md",
	}
	for in, want := range cases {
		if got := MarkdownPath(in); got != want {
			t.Fatalf("MarkdownPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExportWritesVerbatim(t *testing.T) {
	dir := t.TempDir()
	text := "# 제목\n\n본문  \n"

	path, err := Export(filepath.Join(dir, "nested", "post.txt"), text)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Ext(path) != ".md" {
		t.Fatalf("path = %q, want .md", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != text {
		t.Fatalf("content = %q, want %q", data, text)
	}
}

func TestExportRejectsEmpty(t *testing.T) {
	if _, err := Export(filepath.Join(t.TempDir(), "x"), " \n "); !errors.Is(err, ErrNothingToSave) {
		t.Fatalf("expected ErrNothingToSave, got %v", err)
	}
}

func TestReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.md")
	if err := os.WriteFile(path, []byte("# 페르소나\n따뜻한 말투"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if got != "# 페르소나\n따뜻한 말투" {
		t.Fatalf("ReadDocument = %q", got)
	}
	if _, err := ReadDocument(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseDocumentKind(t *testing.T) {
	if k, err := ParseDocumentKind("rules"); err != nil || k != DocumentWritingRules {
		t.Fatalf("ParseDocumentKind(rules) = %v, %v", k, err)
	}
	if _, err := ParseDocumentKind("memo"); !errors.Is(err, ErrUnknownDocument) {
		t.Fatalf("expected ErrUnknownDocument, got %v", err)
	}
}

func TestChunks(t *testing.T) {
	got := Chunks("가나다라마바사아", 3)
	want := []string{"가나다", "라마바", "사아"}
	if len(got) != len(want) {
		t.Fatalf("Chunks = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Chunks = %q, want %q", got, want)
		}
	}
	if len(Chunks("", 5)) != 0 {
		t.Fatalf("empty text should have no chunks")
	}
}

func TestPacingDefaults(t *testing.T) {
	var p Pacing
	if p.chunkSize() != 5 {
		t.Fatalf("chunk = %d", p.chunkSize())
	}
	if p.delayFor(499) != 10*time.Millisecond || p.delayFor(500) != 2*time.Millisecond {
		t.Fatalf("unexpected adaptive delay")
	}
	p = Pacing{Chunk: 40, Delay: time.Second}
	if p.chunkSize() != 40 || p.delayFor(10) != time.Second {
		t.Fatalf("overrides ignored")
	}
}
