package csharp

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"mapcheck/internal/analyze"
	"mapcheck/internal/mapping"
	"mapcheck/internal/source"
)

// scopeOwners are the declarations whose type parameters are in scope for
// the code they contain.
var scopeOwners = map[string]bool{
	"class_declaration":         true,
	"record_declaration":        true,
	"record_struct_declaration": true,
	"struct_declaration":        true,
	"interface_declaration":     true,
	"method_declaration":        true,
	"local_function_statement":  true,
}

// chainsOf returns every maximal call chain of a document in source order.
func chainsOf(f parsed, decls *declarations) []*analyze.Chain {
	var out []*analyze.Chain

	var visit func(node *sitter.Node)

	visit = func(node *sitter.Node) {
		if node.Type() == "invocation_expression" && isChainRoot(node) {
			if chain := buildChain(f, node, decls); chain != nil {
				out = append(out, chain)
			}
		}

		for i := 0; i < int(node.NamedChildCount()); i++ {
			visit(node.NamedChild(i))
		}
	}

	visit(f.tree.RootNode())

	return out
}

// isChainRoot reports whether an invocation is the outermost call of its
// chain, that is, no further call is made on its result.
func isChainRoot(inv *sitter.Node) bool {
	access := inv.Parent()
	if access == nil || access.Type() != "member_access_expression" {
		return true
	}

	if !sameNode(access.ChildByFieldName("expression"), inv) {
		return true
	}

	outer := access.Parent()
	if outer == nil || outer.Type() != "invocation_expression" {
		return true
	}

	return !sameNode(outer.ChildByFieldName("function"), access)
}

// buildChain unwinds the chain ending at root, innermost call first.
func buildChain(f parsed, root *sitter.Node, decls *declarations) *analyze.Chain {
	var calls []*analyze.Call

	receiverEnd := -1
	node := root

	for node != nil && node.Type() == "invocation_expression" {
		fn := node.ChildByFieldName("function")
		args := node.ChildByFieldName("arguments")

		if fn == nil || args == nil {
			return nil
		}

		var (
			nameNode *sitter.Node
			next     *sitter.Node
		)

		switch fn.Type() {
		case "member_access_expression":
			nameNode = fn.ChildByFieldName("name")
			next = fn.ChildByFieldName("expression")
		case "identifier", "generic_name":
			nameNode = fn
		default:
			return nil
		}

		if nameNode == nil {
			return nil
		}

		calls = append(calls, buildCall(f, nameNode, args, next != nil))

		if next != nil && next.Type() != "invocation_expression" {
			receiverEnd = int(nameNode.StartByte())
		}

		node = next
	}

	slices.Reverse(calls)

	chain := &analyze.Chain{
		Document:        f.path,
		Calls:           calls,
		ScopeTypeParams: scopeTypeParams(root, f.src),
		Span:            spanOf(root),
	}

	if receiverEnd >= 0 {
		chain.Receiver = strings.TrimSpace(string(f.src[chain.Span.Start:receiverEnd]))
	}

	resolveCalls(chain, decls)
	splitAtRegistration(chain, f.src)

	return chain
}

// buildCall reads one call segment. The span runs from the method name to
// the closing parenthesis.
func buildCall(f parsed, nameNode, args *sitter.Node, hasReceiver bool) *analyze.Call {
	call := &analyze.Call{
		Dot:  -1,
		Span: source.Span{Start: int(nameNode.StartByte()), End: int(args.EndByte())},
	}

	ident := nameNode
	if nameNode.Type() == "generic_name" {
		ident = childOfType(nameNode, "identifier")

		if list := childOfType(nameNode, "type_argument_list"); list != nil {
			call.TypeArgs = typeArgs(list, f.src)
		}
	}

	if ident != nil {
		call.Name = nodeText(ident, f.src)
	}

	if hasReceiver {
		call.Dot = dotBefore(f.src, call.Span.Start)
	}

	for _, a := range namedChildren(args) {
		if a.Type() != "argument" {
			continue
		}

		expr := a
		if named := namedChildren(a); len(named) > 0 {
			expr = named[len(named)-1]
		}

		text := nodeText(expr, f.src)
		call.Args = append(call.Args, analyze.Argument{
			Text:   text,
			Span:   spanOf(expr),
			Lambda: analyze.ParseLambda(text),
		})
	}

	return call
}

// typeArgs parses explicit generic arguments. Open generic placeholders
// (Map<,>) become empty references.
func typeArgs(list *sitter.Node, src []byte) []analyze.TypeRef {
	named := namedChildren(list)
	if len(named) == 0 {
		inner := strings.TrimSuffix(strings.TrimPrefix(nodeText(list, src), "<"), ">")
		return make([]analyze.TypeRef, strings.Count(inner, ",")+1)
	}

	out := make([]analyze.TypeRef, 0, len(named))

	for _, n := range named {
		ref, err := analyze.ParseTypeRef(nodeText(n, src))
		if err != nil {
			ref = analyze.TypeRef{}
		}

		out = append(out, ref)
	}

	return out
}

// dotBefore returns the offset of the '.' preceding offset across
// whitespace, or -1 when there is none.
func dotBefore(src []byte, offset int) int {
	for i := offset - 1; i >= 0; i-- {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case '.':
			return i
		default:
			return -1
		}
	}

	return -1
}

// resolveCalls binds every call to a method symbol. Library calls with an
// accepted arity win over same-named extension methods, as instance methods
// do. Other calls bind to a method declared in the compilation, or stay
// unresolved.
func resolveCalls(chain *analyze.Chain, decls *declarations) {
	for _, call := range chain.Calls {
		argc := len(call.Args)
		library := mapping.IsLibraryName(call.Name)

		if library && slices.Contains(mapping.LibraryArity(call.Name), argc) {
			call.Method = libraryMethod(call.Name, argc)
			continue
		}

		if m, ok := decls.resolve(call.Name, argc, call.Dot >= 0); ok {
			call.Method = &analyze.MethodSymbol{Name: call.Name, Container: m.container, Arity: argc}
			continue
		}

		if library {
			call.Method = libraryMethod(call.Name, argc)
		}
	}
}

func libraryMethod(name string, argc int) *analyze.MethodSymbol {
	return &analyze.MethodSymbol{
		Name:      name,
		Container: mapping.LibraryContainer,
		Library:   true,
		Arity:     argc,
	}
}

// splitAtRegistration moves calls preceding the last registration call into
// the receiver, so that cfg.GetProfile().CreateMap<A, B>() starts at
// CreateMap.
func splitAtRegistration(chain *analyze.Chain, src []byte) {
	k := -1

	for i, call := range chain.Calls {
		if mapping.Classify(call) == mapping.ShapeCreateMap {
			k = i
		}
	}

	if k <= 0 {
		return
	}

	start := chain.Calls[k].Span.Start
	chain.Receiver = strings.TrimSpace(string(src[chain.Span.Start:start]))
	chain.Calls = chain.Calls[k:]
}

// scopeTypeParams collects the generic parameters of every enclosing type
// and method, outermost first.
func scopeTypeParams(node *sitter.Node, src []byte) []string {
	var groups [][]string

	for p := node.Parent(); p != nil; p = p.Parent() {
		if !scopeOwners[p.Type()] {
			continue
		}

		if list := childOfType(p, "type_parameter_list"); list != nil {
			groups = append(groups, typeParams(list, src))
		}
	}

	var out []string

	for i := len(groups) - 1; i >= 0; i-- {
		out = append(out, groups[i]...)
	}

	return out
}
