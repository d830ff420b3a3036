package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"callproof/internal/graph"
)

// PythonExtractor implements LanguageExtractor for Python. Functions nested
// in classes become methods named "Class.method"; calls made outside any
// function are attributed to the file's "<module>" symbol.
type PythonExtractor struct{}

func (p *PythonExtractor) Name() string { return "python" }

func (p *PythonExtractor) Extensions() []string { return []string{".py"} }

func (p *PythonExtractor) GetLanguage() *sitter.Language {
	return python.GetLanguage()
}

func (p *PythonExtractor) GetQuery() string {
	return `
		(function_definition) @func
		(call) @call
	`
}

func (p *PythonExtractor) ExtractCapture(captureName string, node *sitter.Node, sourceCode []byte, out *FileResult) {
	switch captureName {
	case "func":
		name, kind := p.qualifiedName(node, sourceCode)
		if name == "" {
			return
		}
		line := int(node.StartPoint().Row + 1)
		s := graph.NewSymbol(graph.SymbolID(out.Filepath, name, line), name, kind)
		s.StartLine = line
		s.EndLine = int(node.EndPoint().Row + 1)
		out.addSymbol(s)
	case "call":
		p.extractCall(node, sourceCode, out)
	}
}

// qualifiedName joins the names of all enclosing classes and functions.
func (p *PythonExtractor) qualifiedName(node *sitter.Node, sourceCode []byte) (string, graph.SymbolKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return "", ""
	}
	parts := []string{nameNode.Content(sourceCode)}
	kind := graph.KindFunction
	first := true
	for a := node.Parent(); a != nil; a = a.Parent() {
		if a.Type() != "class_definition" && a.Type() != "function_definition" {
			continue
		}
		if first && a.Type() == "class_definition" {
			kind = graph.KindMethod
		}
		first = false
		if n := a.ChildByFieldName("name"); n != nil {
			parts = append([]string{n.Content(sourceCode)}, parts...)
		}
	}
	return strings.Join(parts, "."), kind
}

func (p *PythonExtractor) extractCall(node *sitter.Node, sourceCode []byte, out *FileResult) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	cs := graph.CallSite{Evidence: nodeEvidence(out.Filepath, node)}
	switch fn.Type() {
	case "identifier":
		cs.Target = fn.Content(sourceCode)
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		obj := fn.ChildByFieldName("object")
		if attr == nil || obj == nil {
			return
		}
		cs.Target = attr.Content(sourceCode)
		cs.Receiver = obj.Content(sourceCode)
		switch {
		case cs.Receiver == "self" || cs.Receiver == "cls":
			cs.Receiver = "self"
		case obj.Type() == "call":
			// super().x(), factory().x(): the receiver type is unknown.
			return
		}
	default:
		return
	}

	if encl := enclosing(node, "function_definition"); encl != nil {
		name, _ := p.qualifiedName(encl, sourceCode)
		cs.From = graph.SymbolID(out.Filepath, name, int(encl.StartPoint().Row+1))
	} else {
		cs.From = p.moduleSymbol(node, out).ID
	}
	out.addCall(cs)
}

func (p *PythonExtractor) moduleSymbol(node *sitter.Node, out *FileResult) *graph.Symbol {
	root := node
	for root.Parent() != nil {
		root = root.Parent()
	}
	s := graph.NewSymbol(graph.SymbolID(out.Filepath, graph.ModuleSymbolName, 1), graph.ModuleSymbolName, graph.KindModule)
	s.StartLine = 1
	s.EndLine = int(root.EndPoint().Row + 1)
	out.addSymbol(s)
	return s
}
