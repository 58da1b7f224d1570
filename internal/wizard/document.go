package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type DocumentKind string

const (
	DocumentPersona      DocumentKind = "persona"
	DocumentWritingRules DocumentKind = "writing_rules"
)

func ParseDocumentKind(raw string) (DocumentKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "persona":
		return DocumentPersona, nil
	case "writing_rules", "rules", "writing-rules":
		return DocumentWritingRules, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDocument, raw)
	}
}

// ReadDocument reads a whole text file. There is no schema.
func ReadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

func (d *Documents) set(kind DocumentKind, text string) error {
	switch kind {
	case DocumentPersona:
		d.Persona = text
	case DocumentWritingRules:
		d.WritingRules = text
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDocument, kind)
	}
	return nil
}

// Export writes text verbatim. The file always gets a .md extension: a
// missing one is added and any other is replaced. It returns the final path.
func Export(path, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrNothingToSave
	}
	path = MarkdownPath(path)
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func MarkdownPath(path string) string {
	ext := filepath.Ext(path)
	switch {
	case ext == "":
		return path + ".md"
	case strings.ToLower(ext) != ".md":
		return strings.TrimSuffix(path, ext) + ".md"
	default:
		return path
	}
}
