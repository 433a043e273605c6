package fix

import (
	"fmt"
	"strings"

	"mapcheck/internal/analyze"
	"mapcheck/internal/mapping"
	"mapcheck/internal/source"
)

const indentUnit = "    "

// chainPoint is where calls configuring one direction are appended: after
// the last call of the direction, so forward calls stay before ReverseMap.
type chainPoint struct {
	offset int
	// prefix starts every appended call: a newline and the chain's indentation.
	prefix string
}

func chainInsertion(doc *analyze.Document, reg *mapping.Registration, d mapping.Direction) (chainPoint, error) {
	if doc == nil {
		return chainPoint{}, fmt.Errorf("%w: document %s not loaded", ErrNoInsertionPoint, reg.Document)
	}

	if reg.Partial {
		return chainPoint{}, fmt.Errorf("%w: chain stops at unresolved call %d", ErrNoInsertionPoint, reg.StopIndex)
	}

	set := reg.Bindings(d)
	if set == nil || set.End <= set.Start || set.End > len(reg.Chain.Calls) {
		return chainPoint{}, fmt.Errorf("%w: no calls for the %s direction", ErrNoInsertionPoint, d)
	}

	end := reg.Chain.Calls[set.End-1].Span.End
	if end <= 0 || end > len(doc.Text) || doc.Text[end-1] != ')' {
		return chainPoint{}, fmt.Errorf("%w: call does not end with ')' at %d", ErrNoInsertionPoint, end)
	}

	return chainPoint{offset: end, prefix: "\n" + chainIndent(doc.Text, reg.Chain)}, nil
}

// chainIndent returns the indentation of chained calls that start their own
// line, or one level below the statement for single-line chains.
func chainIndent(text string, chain *analyze.Chain) string {
	for i, c := range chain.Calls {
		if i > 0 && c.Dot >= 0 && c.Dot < len(text) && source.StartsLine(text, c.Dot) {
			return source.Indentation(text, c.Dot)
		}
	}

	return source.Indentation(text, chain.Span.Start) + indentUnit
}

// chainEdit appends calls to one direction of a registration.
func chainEdit(doc *analyze.Document, reg *mapping.Registration, d mapping.Direction, calls ...string) (Edit, error) {
	pt, err := chainInsertion(doc, reg, d)
	if err != nil {
		return Edit{}, err
	}

	var sb strings.Builder
	for _, c := range calls {
		sb.WriteString(pt.prefix)
		sb.WriteString(c)
	}

	return newEdit(doc.Path, doc.Text, pt.offset, sb.String()), nil
}

// statementEdit adds a statement after the one holding the chain.
func statementEdit(doc *analyze.Document, chain *analyze.Chain, statement string) (Edit, error) {
	if doc == nil {
		return Edit{}, fmt.Errorf("%w: document %s not loaded", ErrNoInsertionPoint, chain.Document)
	}

	at := chain.End()
	for at >= 0 && at < len(doc.Text) && isSpace(doc.Text[at]) {
		at++
	}

	if at < 0 || at >= len(doc.Text) || doc.Text[at] != ';' {
		return Edit{}, fmt.Errorf("%w: chain is not a statement", ErrNoInsertionPoint)
	}

	fragment := "\n" + source.Indentation(doc.Text, chain.Span.Start) + statement

	return newEdit(doc.Path, doc.Text, at+1, fragment), nil
}

// receiverOf returns the expression CreateMap is called on, with its dot.
func receiverOf(chain *analyze.Chain) string {
	lines := strings.Split(strings.TrimSpace(chain.Receiver), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}

	return strings.Join(lines, "")
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
