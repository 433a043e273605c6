package mapping

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"mapcheck/internal/analyze"
)

// ErrNotRegistration is returned for chains that do not start with the
// library's CreateMap.
var ErrNotRegistration = errors.New("chain is not a mapping registration")

var typeofArg = regexp.MustCompile(`^typeof\s*\((.*)\)$`)

// Walk follows a registration chain in source order and builds its binding
// sets. Calls after ReverseMap configure the reverse direction. An unresolved
// call ends the walk and marks the registration partial: bindings it or later
// calls would have made are left out.
func Walk(doc string, chain *analyze.Chain) (*Registration, error) {
	site := chain.First()
	if site == nil || Classify(site) != ShapeCreateMap {
		return nil, ErrNotRegistration
	}

	src, dst, err := registrationTypes(site)
	if err != nil {
		return nil, err
	}

	reg := &Registration{
		Document:  doc,
		Chain:     chain,
		Site:      site,
		Source:    src,
		Dest:      dst,
		Forward:   &BindingSet{Direction: DirectionForward, Start: 0},
		StopIndex: -1,
	}

	cur := reg.Forward

	for i := 1; i < len(chain.Calls); i++ {
		call := chain.Calls[i]

		shape := Classify(call)
		if shape == ShapeUnknown {
			reg.Partial = true
			reg.StopIndex = i

			break
		}

		if shape == ShapeReverseMap && reg.Reverse == nil {
			cur.End = i
			reg.Reverse = &BindingSet{Direction: DirectionReverse, Start: i}
			reg.ReverseCall = call
			cur = reg.Reverse

			continue
		}

		cur.Add(bindingFor(shape, call, i))
	}

	if reg.Partial {
		cur.End = reg.StopIndex
	} else {
		cur.End = len(chain.Calls)
	}

	return reg, nil
}

// registrationTypes reads the pair from CreateMap<S, D>() or
// CreateMap(typeof(S), typeof(D)).
func registrationTypes(site *analyze.Call) (analyze.TypeRef, analyze.TypeRef, error) {
	if len(site.TypeArgs) == 2 {
		return site.TypeArgs[0], site.TypeArgs[1], nil
	}

	if len(site.TypeArgs) == 0 && len(site.Args) >= 2 {
		var refs [2]analyze.TypeRef

		for i := range refs {
			m := typeofArg.FindStringSubmatch(strings.TrimSpace(site.Args[i].Text))
			if m == nil {
				return analyze.TypeRef{}, analyze.TypeRef{}, fmt.Errorf("%w: argument %d is not typeof(...)", analyze.ErrUnresolvable, i)
			}

			ref, err := analyze.ParseTypeRef(m[1])
			if err != nil {
				return analyze.TypeRef{}, analyze.TypeRef{}, fmt.Errorf("%w: %w", analyze.ErrUnresolvable, err)
			}

			refs[i] = ref
		}

		return refs[0], refs[1], nil
	}

	return analyze.TypeRef{}, analyze.TypeRef{}, fmt.Errorf("%w: CreateMap without a type pair", analyze.ErrUnresolvable)
}

var minArgs = map[CallShape]int{
	ShapeForMember:          2,
	ShapeForPath:            2,
	ShapeForSourceMember:    1,
	ShapeForCtorParam:       2,
	ShapeForAllOtherMembers: 1,
}

func bindingFor(shape CallShape, call *analyze.Call, index int) BindingEntry {
	entry := BindingEntry{Kind: KindPassthrough, Index: index, Call: call}

	if len(call.Args) < minArgs[shape] {
		return entry
	}

	switch shape {
	case ShapeForMember, ShapeForPath:
		path, err := MemberSelector(call.Args[0])
		if err != nil {
			return entry
		}

		opts := parseOptions(call.Args[1])

		entry.Member = path.Root()
		if shape == ShapeForPath {
			entry.Path = path
		}

		switch {
		case opts.ignore:
			entry.Kind = KindIgnore
		case opts.valued:
			entry.Kind = KindExplicitMap
			entry.SourceRefs = opts.sourceRefs
		default:
			entry.Kind = KindMemberOption
		}
	case ShapeForSourceMember:
		path, err := MemberSelector(call.Args[0])
		if err != nil {
			return entry
		}

		entry.Member = path.Root()
		entry.Kind = KindIgnoreSource
	case ShapeForCtorParam:
		path, err := MemberSelector(call.Args[0])
		if err != nil {
			return entry
		}

		opts := parseOptions(call.Args[1])
		if !opts.valued {
			return entry
		}

		entry.Member = path.Root()
		entry.Kind = KindCtorParam
		entry.SourceRefs = opts.sourceRefs
	case ShapeForAllOtherMembers:
		if parseOptions(call.Args[0]).ignore {
			entry.Kind = KindIgnoreRemaining
		}
	case ShapeConstructUsing:
		entry.Kind = KindCustomConstruct
	case ShapeConvertUsing:
		entry.Kind = KindCustomConvert
	}

	return entry
}
