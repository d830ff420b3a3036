package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"callproof/internal/graph"
)

// FileResult holds the symbols and raw call sites found in one source file.
// Call sites are bound to symbols later, by graph.Link.
type FileResult struct {
	Filepath string           `json:"filepath"`
	Language string           `json:"language"`
	Symbols  []*graph.Symbol  `json:"symbols"`
	Calls    []graph.CallSite `json:"calls"`

	seen map[string]struct{}
}

func newFileResult(filepath, lang string) *FileResult {
	return &FileResult{
		Filepath: filepath,
		Language: lang,
		seen:     make(map[string]struct{}),
	}
}

// addSymbol records s once per ID.
func (r *FileResult) addSymbol(s *graph.Symbol) {
	if _, ok := r.seen[s.ID]; ok {
		return
	}
	r.seen[s.ID] = struct{}{}
	s.Language = r.Language
	s.Filepath = r.Filepath
	r.Symbols = append(r.Symbols, s)
}

func (r *FileResult) addCall(cs graph.CallSite) {
	if cs.From == "" || cs.Target == "" {
		return
	}
	r.Calls = append(r.Calls, cs)
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	Name() string
	Extensions() []string
	GetLanguage() *sitter.Language
	GetQuery() string
	// ExtractCapture handles one query capture. Definitions add symbols and
	// calls add call sites attributed to their enclosing definition.
	ExtractCapture(captureName string, node *sitter.Node, sourceCode []byte, out *FileResult)
}

func nodeEvidence(filepath string, node *sitter.Node) graph.Evidence {
	return graph.Evidence{
		Filepath:  filepath,
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
	}
}
