package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"callproof/internal/graph"
)

// GoExtractor implements LanguageExtractor for Go.
type GoExtractor struct{}

func (g *GoExtractor) Name() string { return "go" }

func (g *GoExtractor) Extensions() []string { return []string{".go"} }

func (g *GoExtractor) GetLanguage() *sitter.Language {
	return golang.GetLanguage()
}

func (g *GoExtractor) GetQuery() string {
	return `
		(function_declaration) @func
		(method_declaration) @func
		(call_expression) @call
	`
}

func (g *GoExtractor) ExtractCapture(captureName string, node *sitter.Node, sourceCode []byte, out *FileResult) {
	switch captureName {
	case "func":
		if s := g.extractFunction(node, sourceCode, out.Filepath); s != nil {
			out.addSymbol(s)
		}
	case "call":
		g.extractCall(node, sourceCode, out)
	}
}

// qualifiedName returns "Type.Method" for methods and the bare name for functions.
func (g *GoExtractor) qualifiedName(node *sitter.Node, sourceCode []byte) (string, graph.SymbolKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return "", ""
	}
	name := nameNode.Content(sourceCode)
	if node.Type() != "method_declaration" {
		return name, graph.KindFunction
	}
	if recv := g.receiverType(node, sourceCode); recv != "" {
		return recv + "." + name, graph.KindMethod
	}
	return name, graph.KindMethod
}

func (g *GoExtractor) extractFunction(node *sitter.Node, sourceCode []byte, filepath string) *graph.Symbol {
	name, kind := g.qualifiedName(node, sourceCode)
	if name == "" {
		return nil
	}
	line := int(node.StartPoint().Row + 1)
	s := graph.NewSymbol(graph.SymbolID(filepath, name, line), name, kind)
	s.StartLine = line
	s.EndLine = int(node.EndPoint().Row + 1)
	return s
}

func (g *GoExtractor) extractCall(node *sitter.Node, sourceCode []byte, out *FileResult) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}
	encl := enclosing(node, "function_declaration", "method_declaration")
	if encl == nil {
		// Package-level initializers have no symbol to attribute the call to.
		return
	}
	from, _ := g.qualifiedName(encl, sourceCode)
	if from == "" {
		return
	}

	cs := graph.CallSite{
		From:     graph.SymbolID(out.Filepath, from, int(encl.StartPoint().Row+1)),
		Evidence: nodeEvidence(out.Filepath, node),
	}
	switch fn.Type() {
	case "identifier":
		cs.Target = fn.Content(sourceCode)
	case "selector_expression":
		field := fn.ChildByFieldName("field")
		operand := fn.ChildByFieldName("operand")
		if field == nil || operand == nil {
			return
		}
		cs.Target = field.Content(sourceCode)
		cs.Receiver = operand.Content(sourceCode)
		if encl.Type() == "method_declaration" && cs.Receiver == g.receiverName(encl, sourceCode) {
			cs.Receiver = "self"
		}
	default:
		// Calls through func literals, index expressions and the like.
		return
	}
	out.addCall(cs)
}

func (g *GoExtractor) receiverParam(method *sitter.Node) *sitter.Node {
	recv := method.ChildByFieldName("receiver")
	if recv == nil {
		return nil
	}
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		if p := recv.NamedChild(i); p.Type() == "parameter_declaration" {
			return p
		}
	}
	return nil
}

// receiverType strips pointers and type arguments: "*Stack[T]" -> "Stack".
func (g *GoExtractor) receiverType(method *sitter.Node, sourceCode []byte) string {
	p := g.receiverParam(method)
	if p == nil {
		return ""
	}
	typeNode := p.ChildByFieldName("type")
	if typeNode == nil {
		return ""
	}
	t := strings.TrimLeft(typeNode.Content(sourceCode), "*")
	if i := strings.Index(t, "["); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

func (g *GoExtractor) receiverName(method *sitter.Node, sourceCode []byte) string {
	p := g.receiverParam(method)
	if p == nil {
		return ""
	}
	if n := p.ChildByFieldName("name"); n != nil {
		return n.Content(sourceCode)
	}
	return ""
}

// enclosing returns the nearest ancestor of node with one of the given types.
func enclosing(node *sitter.Node, types ...string) *sitter.Node {
	for p := node.Parent(); p != nil; p = p.Parent() {
		for _, t := range types {
			if p.Type() == t {
				return p
			}
		}
	}
	return nil
}
