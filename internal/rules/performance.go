package rules

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"mapcheck/internal/analyze"
	"mapcheck/internal/diagnostic"
	"mapcheck/internal/mapping"
)

// projection is one value-supplying lambda of a chain: the body of a MapFrom
// (or ConstructUsing/ConvertUsing) lambda and the name of its source
// parameter.
type projection struct {
	direction mapping.Direction
	entry     mapping.BindingEntry
	target    string // Destination member, or the destination type for whole-object lambdas
	param     string // Source lambda parameter
	body      string // Lambda body with string literal contents blanked out
}

var (
	lambdaHead = regexp.MustCompile(`(?:\(\s*([A-Za-z_]\w*)[^()]*\)|\b([A-Za-z_]\w*))\s*=>`)

	queryOperators = []string{
		"Aggregate", "All", "Any", "Average", "Concat", "Contains", "Count", "Distinct",
		"ElementAt", "Except", "First", "FirstOrDefault", "GroupBy", "GroupJoin",
		"Intersect", "Join", "Last", "LastOrDefault", "LongCount", "Max", "Min",
		"OrderBy", "OrderByDescending", "Reverse", "Select", "SelectMany", "Single",
		"SingleOrDefault", "Skip", "SkipWhile", "Sum", "Take", "TakeWhile", "ThenBy",
		"ThenByDescending", "ToArray", "ToDictionary", "ToHashSet", "ToList", "Union",
		"Where", "Zip",
	}
	queryOperatorAlt = strings.Join(queryOperators, "|")
	queryCall        = regexp.MustCompile(`\.\s*(?:` + queryOperatorAlt + `)\s*(?:<[^<>()]*>)?\s*\(`)

	// receiver.Member.Operator(
	memberQuery = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\.\s*([A-Za-z_]\w*)\s*\.\s*(?:` + queryOperatorAlt + `)\s*(?:<[^<>()]*>)?\s*\(`)
)

// expensivePattern labels one kind of expensive call.
type expensivePattern struct {
	label string
	re    *regexp.Regexp
}

var expensivePatterns = []expensivePattern{
	{"blocking wait on a task", regexp.MustCompile(`\.\s*Result\b|\.\s*Wait\s*\(\s*\)|\.\s*GetAwaiter\s*\(\s*\)\s*\.\s*GetResult\s*\(`)},
	{"file system access", regexp.MustCompile(`\b(?:File|Directory)\s*\.\s*\w+\s*\(`)},
	{"HTTP request", regexp.MustCompile(`\b\w*[Hh]ttp\w*\s*\.\s*(?:Get|Post|Put|Patch|Delete|Send)\w*\s*\(`)},
	{"database access", regexp.MustCompile(`\b(?:\w*Repository|\w*DbContext|dbContext|_context|_db)\s*\.\s*\w+`)},
	{"reflection", regexp.MustCompile(`\.\s*(?:GetProperty|GetProperties|GetMethod|GetMethods|GetField|InvokeMember)\s*\(|\bActivator\s*\.\s*CreateInstance\b`)},
	{"thread sleep", regexp.MustCompile(`\bThread\s*\.\s*Sleep\s*\(`)},
}

var memberDot = regexp.MustCompile(`\s*\.\s*`)

var nonDeterministic = regexp.MustCompile(
	`\bDateTime(?:Offset)?\s*\.\s*(?:Now|UtcNow|Today)\b` +
		`|\bGuid\s*\.\s*NewGuid\s*\(\s*\)` +
		`|\bnew\s+Random\s*\(` +
		`|\bRandom\s*\.\s*Shared\b` +
		`|\bEnvironment\s*\.\s*TickCount(?:64)?\b` +
		`|\bStopwatch\s*\.\s*GetTimestamp\s*\(\s*\)`)

// projections collects the value lambdas of every direction of a
// registration, in chain order.
func projections(reg *mapping.Registration) []projection {
	var out []projection

	for _, d := range reg.Directions() {
		set := reg.Bindings(d)
		_, dst := reg.Pair(d)

		for _, e := range set.Entries {
			if e.Call == nil || len(e.Call.Args) == 0 {
				continue
			}

			var (
				p  projection
				ok bool
			)

			switch e.Kind {
			case mapping.KindExplicitMap, mapping.KindCtorParam:
				p, ok = optionsProjection(e.Call.Args[len(e.Call.Args)-1])
				p.target = e.Member
			case mapping.KindCustomConstruct, mapping.KindCustomConvert:
				p, ok = lambdaProjection(e.Call.Args[0])
				p.target = dst.String()
			}

			if !ok {
				continue
			}

			p.direction = d
			p.entry = e
			out = append(out, p)
		}
	}

	return out
}

// projected returns the projections of the site, lexed once and shared by
// every performance rule.
func (s *Site) projected() []projection {
	if !s.lexed {
		s.projections = projections(s.Registration)
		s.lexed = true
	}

	return s.projections
}

// optionsProjection finds the source lambda nested in an options lambda:
// o => o.MapFrom(s => ...).
func optionsProjection(arg analyze.Argument) (projection, bool) {
	outer := lambdaOf(arg)
	if outer == nil {
		return projection{}, false
	}

	body := maskLiterals(outer.Body)
	opt := outer.Param(0)

	for _, m := range lambdaHead.FindAllStringSubmatchIndex(body, -1) {
		name := submatch(body, m, 1)
		if name == "" {
			name = submatch(body, m, 2)
		}

		if name == "" || name == opt {
			continue
		}

		return projection{param: name, body: body[m[1]:]}, true
	}

	return projection{}, false
}

// lambdaProjection treats a whole-object lambda (s => new Dto(...)) as the
// projection itself.
func lambdaProjection(arg analyze.Argument) (projection, bool) {
	l := lambdaOf(arg)
	if l == nil || l.Param(0) == "" {
		return projection{}, false
	}

	return projection{param: l.Param(0), body: maskLiterals(l.Body)}, true
}

func lambdaOf(arg analyze.Argument) *analyze.Lambda {
	if arg.Lambda != nil {
		return arg.Lambda
	}

	return analyze.ParseLambda(arg.Text)
}

func submatch(s string, idx []int, group int) string {
	if idx[2*group] < 0 {
		return ""
	}

	return s[idx[2*group]:idx[2*group+1]]
}

// maskLiterals blanks the contents of string and character literals so that
// patterns never match inside them. Quotes are kept.
func maskLiterals(s string) string {
	b := []byte(s)

	for i := 0; i < len(b); i++ {
		if b[i] != '"' && b[i] != '\'' {
			continue
		}

		quote := b[i]
		verbatim := quote == '"' && i > 0 && (b[i-1] == '@' || (b[i-1] == '$' && i > 1 && b[i-2] == '@'))

		for i++; i < len(b) && b[i] != quote; i++ {
			switch {
			case b[i] == '\\' && !verbatim && i+1 < len(b):
				b[i], b[i+1] = ' ', ' '
				i++
			default:
				b[i] = ' '
			}
		}
	}

	return string(b)
}

// detectExpensive reports each kind of expensive operation once per
// projection.
func detectExpensive(site *Site, rule *Rule) []diagnostic.Finding {
	var out []diagnostic.Finding

	for _, p := range site.projected() {
		for _, pat := range expensivePatterns {
			if pat.re.MatchString(p.body) {
				out = append(out, site.newFinding(rule, p.direction, p.entry.Span(), []string{p.target}, p.target, pat.label))
			}
		}
	}

	return out
}

// detectMultipleEnumeration reports source collections that more than one
// query operator enumerates inside a single projection.
func detectMultipleEnumeration(site *Site, rule *Rule) []diagnostic.Finding {
	var out []diagnostic.Finding

	for _, p := range site.projected() {
		counts := map[string]int{}
		for _, m := range memberQuery.FindAllStringSubmatch(p.body, -1) {
			if m[1] == p.param {
				counts[m[2]]++
			}
		}

		src, _ := site.Registration.Pair(p.direction)

		for _, member := range sortedKeys(counts) {
			if counts[member] < 2 || !isCollectionMember(site, src, member) {
				continue
			}

			out = append(out, site.newFinding(rule, p.direction, p.entry.Span(),
				[]string{member}, p.target, member, strconv.Itoa(counts[member])))
		}
	}

	return out
}

// isCollectionMember reports whether member of t is a collection. Members
// that cannot be resolved are not reported.
func isCollectionMember(site *Site, t analyze.TypeRef, member string) bool {
	ref, ok := analyze.ResolvePath(site.Graph(), t, analyze.NewMemberPath(member), site.Registration.Chain.ScopeTypeParams)
	if !ok {
		return false
	}

	_, coll := ref.NonNullable().Element()

	return coll
}

// detectNonDeterministic reports each distinct non-deterministic value a
// projection reads.
func detectNonDeterministic(site *Site, rule *Rule) []diagnostic.Finding {
	var out []diagnostic.Finding

	for _, p := range site.projected() {
		seen := map[string]bool{}

		for _, m := range nonDeterministic.FindAllString(p.body, -1) {
			value := memberDot.ReplaceAllString(strings.Join(strings.Fields(m), " "), ".")
			value = strings.TrimSpace(strings.TrimSuffix(value, "("))

			if seen[value] {
				continue
			}

			seen[value] = true
			out = append(out, site.newFinding(rule, p.direction, p.entry.Span(), []string{p.target}, p.target, value))
		}
	}

	return out
}

// detectComplexQuery reports projections chaining more query operators than
// the configured limit.
func detectComplexQuery(site *Site, rule *Rule) []diagnostic.Finding {
	limit := site.Config.Performance.MaxQueryOperators

	var out []diagnostic.Finding

	for _, p := range site.projected() {
		n := len(queryCall.FindAllStringIndex(p.body, -1))
		if n <= limit {
			continue
		}

		out = append(out, site.newFinding(rule, p.direction, p.entry.Span(),
			[]string{p.target}, p.target, strconv.Itoa(n), strconv.Itoa(limit)))
	}

	return out
}

// detectDuplicates reports every declaration of the site that repeats an
// earlier declaration of the same pair.
func detectDuplicates(site *Site, rule *Rule) []diagnostic.Finding {
	out := make([]diagnostic.Finding, 0, len(site.Duplicates))

	for _, dup := range site.Duplicates {
		first := site.Location(dup.First.Registration.Document, dup.First.Span())
		out = append(out, site.newFinding(rule, dup.Repeat.Direction, dup.Repeat.Span(), nil, dup.Key, first))
	}

	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
