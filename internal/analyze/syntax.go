package analyze

import (
	"strings"

	"mapcheck/internal/common"
	"mapcheck/internal/source"
)

// Compilation is the immutable snapshot handed over by the host for one
// analysis pass: every declared type plus the fluent call chains found in
// each document.
type Compilation struct {
	Graph     *TypeGraph
	Documents []*Document
}

// Document returns the document with the given path, or nil.
func (c *Compilation) Document(path string) *Document {
	for _, d := range c.Documents {
		if d.Path == path {
			return d
		}
	}

	return nil
}

// Document is one source file of the compilation.
type Document struct {
	Path   string
	Text   string
	Chains []*Chain
}

// Chain is a maximal fluent call chain, innermost call first:
// for a.CreateMap<A, B>().ForMember(...).ReverseMap() the calls are
// CreateMap, ForMember, ReverseMap.
type Chain struct {
	Document        string   // Path of the containing document
	Receiver        string   // Text preceding the first call, e.g. "cfg." (may be empty)
	Calls           []*Call  // Chained calls in source order
	ScopeTypeParams []string // Generic parameters of the enclosing type and method
	Span            source.Span
}

// First returns the innermost call, or nil for an empty chain.
func (c *Chain) First() *Call {
	if len(c.Calls) == 0 {
		return nil
	}

	return c.Calls[0]
}

// End returns the offset just past the last call of the chain.
func (c *Chain) End() int {
	if len(c.Calls) == 0 {
		return c.Span.End
	}

	return c.Calls[len(c.Calls)-1].Span.End
}

// Call is one invocation in a chain.
type Call struct {
	Name     string        // Method name without type arguments
	TypeArgs []TypeRef     // Explicit generic arguments
	Args     []Argument    // Call arguments in order
	Method   *MethodSymbol // Resolved target; nil when the host could not resolve it
	Dot      int           // Offset of the '.' introducing the call, -1 for the first call
	Span     source.Span   // From the method name to the closing parenthesis
}

// IsResolved returns true if the host resolved the call to a method symbol.
func (c *Call) IsResolved() bool {
	return c.Method != nil
}

// Start returns the offset where the call segment begins (its dot if any).
func (c *Call) Start() int {
	if c.Dot >= 0 {
		return c.Dot
	}

	return c.Span.Start
}

// Argument is one argument expression.
type Argument struct {
	Text   string
	Span   source.Span
	Lambda *Lambda // Set when the argument is a lambda expression
}

// Lambda is a parsed lambda expression.
type Lambda struct {
	Params []string
	Body   string
}

// ParseLambda splits "x => body" or "(x, y) => body" into parameters and body.
// Returns nil when text is not a lambda expression.
func ParseLambda(text string) *Lambda {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "static ")
	text = strings.TrimPrefix(text, "async ")

	arrow := common.IndexTopLevel(text, "=>")
	if arrow < 0 {
		return nil
	}

	head := strings.TrimSpace(text[:arrow])
	body := strings.TrimSpace(text[arrow+2:])

	head = strings.TrimPrefix(head, "(")
	head = strings.TrimSuffix(head, ")")

	var params []string

	for _, p := range common.SplitTopLevel(head, ',') {
		fields := strings.Fields(p)
		if len(fields) == 0 {
			continue
		}

		params = append(params, fields[len(fields)-1])
	}

	for _, p := range params {
		if !isIdent(p) && p != "_" {
			return nil
		}
	}

	return &Lambda{Params: params, Body: body}
}

// Param returns the i-th lambda parameter name, or "".
func (l *Lambda) Param(i int) string {
	if l == nil || i >= len(l.Params) {
		return ""
	}

	return l.Params[i]
}

// MethodSymbol is the resolved target of a call.
type MethodSymbol struct {
	Name      string
	Container string // Declaring type, e.g. "AutoMapper.IMappingExpression"
	Library   bool   // Declared by the mapping library itself
	Arity     int    // Number of parameters at the call site
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_' || r == '@' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}
