package fix

import (
	"fmt"
	"strings"

	"mapcheck/internal/analyze"
	"mapcheck/internal/source"
)

// declaration is a member added to a type declaration.
type declaration struct {
	Name string
	Type analyze.TypeRef
}

// declareEdit adds members to the declaration of sym. Positional types get
// new trailing parameters; types with a body get properties whose accessors
// follow the existing members.
func declareEdit(comp *analyze.Compilation, sym *analyze.TypeSymbol, members []declaration) (Edit, error) {
	if sym == nil {
		return Edit{}, fmt.Errorf("%w: type is not declared in the compilation", ErrNoInsertionPoint)
	}

	if len(members) == 0 {
		return Edit{}, fmt.Errorf("%w: nothing to declare on %s", ErrNoInsertionPoint, sym.ID)
	}

	doc := comp.Document(sym.Document)
	if doc == nil {
		return Edit{}, fmt.Errorf("%w: document %s of %s not loaded", ErrNoInsertionPoint, sym.Document, sym.ID)
	}

	switch {
	case sym.IsPositional():
		return parameterEdit(doc, sym, members)
	case sym.HasBody() && sym.Kind.IsComplex():
		return propertyEdit(doc, sym, members)
	default:
		return Edit{}, fmt.Errorf("%w: %s has no member list", ErrNoInsertionPoint, sym.ID)
	}
}

func parameterEdit(doc *analyze.Document, sym *analyze.TypeSymbol, members []declaration) (Edit, error) {
	text := doc.Text
	open, closing := sym.ParamsSpan.Start, sym.ParamsSpan.End-1

	if closing >= len(text) || open >= closing || text[open] != '(' || text[closing] != ')' {
		return Edit{}, fmt.Errorf("%w: parameter list of %s is malformed", ErrNoInsertionPoint, sym.ID)
	}

	inner := text[open+1 : closing]
	at := open + 1 + len(strings.TrimRight(inner, " \t\r\n"))

	params := make([]string, 0, len(members))

	for _, m := range members {
		p, err := render("parameter", parameterData{Type: m.Type.String(), Name: m.Name})
		if err != nil {
			return Edit{}, err
		}

		params = append(params, p)
	}

	sep := ", "
	if strings.Contains(inner, "\n") {
		sep = ",\n" + source.Indentation(text, at-1)
	}

	fragment := strings.Join(params, sep)
	if strings.TrimSpace(inner) != "" {
		fragment = sep + fragment
	}

	return newEdit(doc.Path, text, at, fragment), nil
}

func propertyEdit(doc *analyze.Document, sym *analyze.TypeSymbol, members []declaration) (Edit, error) {
	text := doc.Text
	open, closing := sym.BodySpan.Start, sym.BodySpan.End-1

	if closing >= len(text) || open >= closing || text[open] != '{' || text[closing] != '}' {
		return Edit{}, fmt.Errorf("%w: body of %s is malformed", ErrNoInsertionPoint, sym.ID)
	}

	setter := "set"
	if sym.UsesInitAccessors() {
		setter = "init"
	}

	props := make([]string, 0, len(members))

	for _, m := range members {
		p, err := render("property", propertyData{
			Public: sym.Kind != analyze.TypeKindInterface,
			Type:   m.Type.String(),
			Name:   m.Name,
			Setter: setter,
		})
		if err != nil {
			return Edit{}, err
		}

		props = append(props, p)
	}

	if source.StartsLine(text, closing) && strings.Contains(text[open:closing], "\n") {
		indent := memberIndent(text, sym, closing)

		var sb strings.Builder
		for _, p := range props {
			sb.WriteString(indent + p + "\n")
		}

		return newEdit(doc.Path, text, source.LineStart(text, closing), sb.String()), nil
	}

	fragment := strings.Join(props, " ") + " "
	if !isSpace(text[closing-1]) {
		fragment = " " + fragment
	}

	return newEdit(doc.Path, text, closing, fragment), nil
}

// memberIndent returns the indentation of the last declared property, or
// one level below the closing brace.
func memberIndent(text string, sym *analyze.TypeSymbol, closing int) string {
	for i := len(sym.Properties) - 1; i >= 0; i-- {
		span := sym.Properties[i].Span
		if span.IsValid() && span.Start < len(text) && source.StartsLine(text, span.Start) {
			return source.Indentation(text, span.Start)
		}
	}

	return source.Indentation(text, closing) + indentUnit
}
