package fix

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"

	"mapcheck/internal/common"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/mapping"
	"mapcheck/internal/source"
)

var (
	// ErrNoInsertionPoint is returned when a fix has nowhere safe to go.
	ErrNoInsertionPoint = errors.New("no insertion point")
	// ErrStaleDocument is returned when an edit's anchor is gone from the text.
	ErrStaleDocument = errors.New("document changed under the edit")
)

// anchorLen is the number of bytes before an insertion point used to find
// it again in edited text.
const anchorLen = 48

// Kind classifies a proposal.
type Kind int

const (
	KindIgnore Kind = iota
	KindCreate
	KindBind
	KindConvert
	KindNestedMap
	KindIgnoreAll
	KindCreateAll
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindIgnore:
		return "ignore"
	case KindCreate:
		return "create"
	case KindBind:
		return "bind"
	case KindConvert:
		return "convert"
	case KindNestedMap:
		return "nested-map"
	case KindIgnoreAll:
		return "ignore-all"
	case KindCreateAll:
		return "create-all"
	default:
		return common.UnknownStr
	}
}

// IsBulk reports whether the kind covers several members.
func (k Kind) IsBulk() bool {
	return k == KindIgnoreAll || k == KindCreateAll
}

// Proposal is one candidate remediation.
type Proposal struct {
	Title     string
	Kind      Kind
	Direction mapping.Direction
	// Members are the member names the proposal resolves.
	Members []string
	// Findings are the findings the proposal resolves.
	Findings []diagnostic.Finding
	// Edits are applied together; bulk proposals hold a single edit.
	Edits []Edit
	// Children are the per-member proposals of a bulk proposal.
	Children []*Proposal
}

// Documents returns the paths the proposal edits.
func (p *Proposal) Documents() []string {
	seen := map[string]bool{}

	var out []string

	for _, e := range p.Edits {
		if !seen[e.Document] {
			seen[e.Document] = true
			out = append(out, e.Document)
		}
	}

	sort.Strings(out)

	return out
}

// Apply returns a copy of docs with every edit of the proposal applied.
// Edits of one document are applied from the end of the text backwards.
func (p *Proposal) Apply(docs map[string]string) (map[string]string, error) {
	out := maps.Clone(docs)
	if out == nil {
		out = map[string]string{}
	}

	edits := append([]Edit(nil), p.Edits...)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Document != edits[j].Document {
			return edits[i].Document < edits[j].Document
		}

		return edits[i].Offset > edits[j].Offset
	})

	for _, e := range edits {
		text, ok := out[e.Document]
		if !ok {
			return nil, fmt.Errorf("apply %q: document %s not loaded", p.Title, e.Document)
		}

		next, err := e.Apply(text)
		if err != nil {
			return nil, fmt.Errorf("apply %q: %w", p.Title, err)
		}

		out[e.Document] = next
	}

	return out, nil
}

// Walk calls fn for the proposal and all nested proposals, depth first.
func (p *Proposal) Walk(fn func(*Proposal)) {
	fn(p)

	for _, c := range p.Children {
		c.Walk(fn)
	}
}

// Edit inserts Fragment at Offset of Document.
type Edit struct {
	Document string
	Offset   int
	// Anchor is the text immediately before Offset when the edit was made.
	Anchor   string
	Fragment string
}

// newEdit anchors an insertion into text.
func newEdit(path, text string, offset int, fragment string) Edit {
	return Edit{
		Document: path,
		Offset:   offset,
		Anchor:   text[max(0, offset-anchorLen):offset],
		Fragment: fragment,
	}
}

// Apply returns text with the fragment inserted after the anchor. When the
// anchor moved, the occurrence nearest to the original offset is used. Text
// that already holds the fragment at that point is returned unchanged.
func (e Edit) Apply(text string) (string, error) {
	at, err := e.locate(text)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(text[at:], e.Fragment) {
		return text, nil
	}

	return source.Insert(text, at, e.Fragment)
}

func (e Edit) locate(text string) (int, error) {
	if e.Offset >= len(e.Anchor) && e.Offset <= len(text) && text[e.Offset-len(e.Anchor):e.Offset] == e.Anchor {
		return e.Offset, nil
	}

	if e.Anchor == "" {
		return 0, fmt.Errorf("%w: %s: offset %d outside text", ErrStaleDocument, e.Document, e.Offset)
	}

	best := -1

	for i := 0; i < len(text); {
		j := strings.Index(text[i:], e.Anchor)
		if j < 0 {
			break
		}

		at := i + j + len(e.Anchor)
		if best < 0 || distance(at, e.Offset) < distance(best, e.Offset) {
			best = at
		}

		i += j + 1
	}

	if best < 0 {
		return 0, fmt.Errorf("%w: %s: anchor %q not found", ErrStaleDocument, e.Document, e.Anchor)
	}

	return best, nil
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}

	return b - a
}
