package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrUnsupportedLanguage is returned for languages and file types no
// extractor handles.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Extractor orchestrates the extraction process using language-specific extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	query         *sitter.Query
}

// Languages lists the names accepted by NewExtractor.
func Languages() []string {
	return []string{"go", "python"}
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch strings.ToLower(lang) {
	case "go", "golang":
		langExt = &GoExtractor{}
	case "python", "py":
		langExt = &PythonExtractor{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	query, err := sitter.NewQuery([]byte(langExt.GetQuery()), langExt.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s query: %w", langExt.Name(), err)
	}
	return &Extractor{langExtractor: langExt, query: query}, nil
}

// ForFile picks the extractor matching the file extension of path.
func ForFile(path string) (*Extractor, error) {
	ext := filepath.Ext(path)
	for _, lang := range Languages() {
		e, err := NewExtractor(lang)
		if err != nil {
			return nil, err
		}
		if e.Handles(path) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: no extractor for %q files", ErrUnsupportedLanguage, ext)
}

// Language returns the extractor's language name.
func (e *Extractor) Language() string {
	return e.langExtractor.Name()
}

// Handles reports whether path has one of the language's file extensions.
func (e *Extractor) Handles(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range e.langExtractor.Extensions() {
		if ext == want {
			return true
		}
	}
	return false
}

// ExtractFromFile parses a single source file and extracts its symbols and call sites.
func (e *Extractor) ExtractFromFile(path string) (*FileResult, error) {
	sourceCode, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.ExtractSource(context.Background(), path, sourceCode)
}

// ExtractSource extracts symbols and call sites from in-memory source.
// path is only used for symbol IDs and evidence.
func (e *Extractor) ExtractSource(ctx context.Context, path string, sourceCode []byte) (*FileResult, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.langExtractor.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	defer tree.Close()

	out := newFileResult(path, e.langExtractor.Name())

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(e.query, tree.RootNode())

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := e.query.CaptureNameForId(c.Index)
			e.langExtractor.ExtractCapture(captureName, c.Node, sourceCode, out)
		}
	}

	return out, nil
}

// NewExtractors builds one extractor per language. No languages means all
// supported languages.
func NewExtractors(langs ...string) ([]*Extractor, error) {
	if len(langs) == 0 {
		langs = Languages()
	}
	out := make([]*Extractor, 0, len(langs))
	for _, lang := range langs {
		e, err := NewExtractor(lang)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
