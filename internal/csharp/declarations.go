package csharp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"mapcheck/internal/analyze"
	"mapcheck/internal/source"
)

// typeKinds maps declaration node types onto type kinds.
var typeKinds = map[string]analyze.TypeKind{
	"class_declaration":         analyze.TypeKindClass,
	"record_declaration":        analyze.TypeKindRecord,
	"record_struct_declaration": analyze.TypeKindStruct,
	"struct_declaration":        analyze.TypeKindStruct,
	"interface_declaration":     analyze.TypeKindInterface,
	"enum_declaration":          analyze.TypeKindEnum,
}

// methodDecl is a method declared in the compilation.
type methodDecl struct {
	container string
	arity     int // Parameters at the call site; the receiver of an extension is not counted
	extension bool
}

// declared is a type symbol with its unresolved base list.
type declared struct {
	sym   *analyze.TypeSymbol
	bases []analyze.TypeRef
}

// declarations accumulates the declared types and methods of a compilation.
type declarations struct {
	types   []*declared
	methods map[string][]methodDecl
}

func newDeclarations() *declarations {
	return &declarations{methods: make(map[string][]methodDecl)}
}

// collect records the declarations of one document.
func (d *declarations) collect(f parsed) {
	d.walk(f, f.tree.RootNode(), "", "")
}

// walk visits node with the namespace and enclosing type in effect.
func (d *declarations) walk(f parsed, node *sitter.Node, ns, outer string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		switch t := child.Type(); t {
		case "namespace_declaration":
			name := ""
			if n := child.ChildByFieldName("name"); n != nil {
				name = nodeText(n, f.src)
			}

			d.walk(f, child, joinName(ns, name), outer)
		case "file_scoped_namespace_declaration":
			if n := child.ChildByFieldName("name"); n != nil {
				ns = joinName(ns, nodeText(n, f.src))
			}

			d.walk(f, child, ns, outer)
		case "method_declaration":
			d.method(f, child, joinName(ns, outer))
		default:
			if kind, ok := typeKinds[t]; ok {
				name := d.typeDecl(f, child, kind, ns, outer)
				d.walk(f, child, ns, joinName(outer, name))

				continue
			}

			d.walk(f, child, ns, outer)
		}
	}
}

// typeDecl records one type declaration and returns its name.
func (d *declarations) typeDecl(f parsed, node *sitter.Node, kind analyze.TypeKind, ns, outer string) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = childOfType(node, "identifier")
	}

	if nameNode == nil {
		return ""
	}

	name := nodeText(nameNode, f.src)

	if kind == analyze.TypeKindRecord && childOfType(node, "struct") != nil {
		kind = analyze.TypeKindStruct
	}

	sym := &analyze.TypeSymbol{
		ID:         analyze.TypeID{Namespace: joinName(ns, outer), Name: name},
		Kind:       kind,
		Document:   f.path,
		Span:       spanOf(node),
		BodySpan:   source.NoSpan,
		ParamsSpan: source.NoSpan,
	}

	if tp := childOfType(node, "type_parameter_list"); tp != nil {
		sym.TypeParams = typeParams(tp, f.src)
	}

	if params := childOfType(node, "parameter_list"); params != nil && strings.HasPrefix(node.Type(), "record") {
		sym.ParamsSpan = spanOf(params)

		for _, p := range namedChildren(params) {
			if p.Type() != "parameter" {
				continue
			}

			typ, pname := parameterParts(p, f.src)

			if typ == "" || pname == "" {
				continue
			}

			sym.Parameters = append(sym.Parameters, analyze.Parameter{Name: pname, Type: analyze.TypeRefOf(typ)})
		}
	}

	if body := childOfType(node, "declaration_list", "enum_member_declaration_list"); body != nil {
		sym.BodySpan = spanOf(body)

		if kind != analyze.TypeKindEnum {
			for _, member := range namedChildren(body) {
				if member.Type() != "property_declaration" {
					continue
				}

				if prop, ok := property(member, f.src, kind == analyze.TypeKindInterface); ok {
					sym.Properties = append(sym.Properties, prop)
				}
			}
		}
	}

	decl := &declared{sym: sym}

	if bases := childOfType(node, "base_list"); bases != nil {
		for _, b := range namedChildren(bases) {
			text := nodeText(b, f.src)
			if i := strings.IndexByte(text, '('); i >= 0 {
				text = text[:i]
			}

			if ref, err := analyze.ParseTypeRef(text); err == nil {
				decl.bases = append(decl.bases, ref)
			}
		}
	}

	d.types = append(d.types, decl)

	return name
}

// property reads a property declaration. Indexers are separate node types
// and never reach here.
func property(node *sitter.Node, src []byte, inInterface bool) (analyze.PropertySymbol, bool) {
	typeNode := node.ChildByFieldName("type")
	nameNode := node.ChildByFieldName("name")

	if typeNode == nil || nameNode == nil {
		return analyze.PropertySymbol{}, false
	}

	prop := analyze.PropertySymbol{
		Name:   nodeText(nameNode, src),
		Type:   analyze.TypeRefOf(nodeText(typeNode, src)),
		Public: inInterface,
		Span:   spanOf(node),
	}

	for _, m := range modifiers(node, src) {
		switch m {
		case "public":
			prop.Public = true
		case "private", "protected", "internal":
			prop.Public = false
		case "static":
			prop.Static = true
		case "required":
			prop.Required = true
		}
	}

	accessors := childOfType(node, "accessor_list")
	if accessors == nil {
		// Expression-bodied: Name => value;
		prop.Getter = true
		return prop, true
	}

	for _, acc := range namedChildren(accessors) {
		if acc.Type() != "accessor_declaration" {
			continue
		}

		switch accessorKeyword(acc, src) {
		case "get":
			prop.Getter = true
		case "set":
			prop.Setter = analyze.SetterSet
		case "init":
			prop.Setter = analyze.SetterInit
		}
	}

	return prop, true
}

// accessorKeyword returns get, set or init for an accessor declaration.
func accessorKeyword(node *sitter.Node, src []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return nodeText(n, src)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		switch t := node.Child(i).Type(); t {
		case "get", "set", "init":
			return t
		}
	}

	return ""
}

func modifiers(node *sitter.Node, src []byte) []string {
	var out []string

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "modifier" {
			out = append(out, strings.TrimSpace(nodeText(child, src)))
		}
	}

	return out
}

// method records a method declaration.
func (d *declarations) method(f parsed, node *sitter.Node, container string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	decl := methodDecl{container: container}

	if params := node.ChildByFieldName("parameters"); params != nil {
		for _, p := range namedChildren(params) {
			if p.Type() != "parameter" {
				continue
			}

			if decl.arity == 0 && !decl.extension && strings.HasPrefix(strings.TrimSpace(nodeText(p, f.src)), "this ") {
				decl.extension = true
				continue
			}

			decl.arity++
		}
	}

	name := nodeText(nameNode, f.src)
	d.methods[name] = append(d.methods[name], decl)
}

// graph resolves base lists and returns the type graph. Bases declared in
// the compilation are classified by their kind; external bases follow the
// interface naming convention.
func (d *declarations) graph() *analyze.TypeGraph {
	g := analyze.NewTypeGraph()
	for _, t := range d.types {
		g.Add(t.sym)
	}

	for _, t := range d.types {
		for i, b := range t.bases {
			if isInterfaceBase(g, t.sym, b, i) {
				t.sym.Interfaces = append(t.sym.Interfaces, b)
				continue
			}

			if t.sym.Base == nil {
				base := b
				t.sym.Base = &base
			}
		}
	}

	return g
}

func isInterfaceBase(g *analyze.TypeGraph, owner *analyze.TypeSymbol, base analyze.TypeRef, index int) bool {
	switch owner.Kind {
	case analyze.TypeKindInterface, analyze.TypeKindStruct:
		return true
	}

	if sym := g.Lookup(base); sym != nil {
		return sym.Kind == analyze.TypeKindInterface
	}

	if index > 0 {
		return true
	}

	short := base.Name[strings.LastIndexByte(base.Name, '.')+1:]

	return len(short) > 1 && short[0] == 'I' && short[1] >= 'A' && short[1] <= 'Z'
}

// resolve returns the method a call binds to among the compilation's own
// declarations.
func (d *declarations) resolve(name string, argc int, hasReceiver bool) (methodDecl, bool) {
	var fallback *methodDecl

	for _, m := range d.methods[name] {
		if m.extension && !hasReceiver {
			continue
		}

		if m.arity == argc {
			return m, true
		}

		if fallback == nil {
			fallback = &m
		}
	}

	if fallback != nil {
		return *fallback, true
	}

	return methodDecl{}, false
}

func typeParams(list *sitter.Node, src []byte) []string {
	var out []string

	for _, p := range namedChildren(list) {
		if p.Type() != "type_parameter" {
			continue
		}

		if n := p.ChildByFieldName("name"); n != nil {
			out = append(out, nodeText(n, src))
			continue
		}

		fields := strings.Fields(nodeText(p, src))
		if len(fields) > 0 {
			out = append(out, fields[len(fields)-1])
		}
	}

	return out
}

// parameterParts returns the type and name text of a parameter.
func parameterParts(p *sitter.Node, src []byte) (string, string) {
	typeNode := p.ChildByFieldName("type")
	nameNode := p.ChildByFieldName("name")

	if typeNode != nil && nameNode != nil {
		return nodeText(typeNode, src), nodeText(nameNode, src)
	}

	text := nodeText(p, src)
	if i := strings.IndexByte(text, '='); i >= 0 {
		text = text[:i]
	}

	text = strings.TrimSpace(text)

	i := strings.LastIndexAny(text, " \t\n")
	if i < 0 {
		return "", ""
	}

	return strings.TrimSpace(text[:i]), text[i+1:]
}

func spanOf(node *sitter.Node) source.Span {
	return source.Span{Start: int(node.StartByte()), End: int(node.EndByte())}
}

func joinName(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + "." + name
	}
}
