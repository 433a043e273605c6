package mapping

import (
	"regexp"
	"strings"

	"mapcheck/internal/analyze"
)

// memberOptions is what a ForMember/ForPath options lambda does.
type memberOptions struct {
	ignore     bool
	valued     bool // MapFrom, ConvertUsing and friends supply the value
	doNotValid bool
	sourceRefs []string
}

var (
	lambdaParams = regexp.MustCompile(`(?:\(([^()]*)\)|\b([A-Za-z_]\w*))\s*=>`)
	valueCalls   = []string{"MapFrom", "ConvertUsing", "UseValue", "ResolveUsing", "MapAtRuntime"}
)

// parseOptions inspects the options argument of a member configuration call.
// Anything but a lambda yields zero options, which leaves the member unbound.
func parseOptions(arg analyze.Argument) memberOptions {
	var opts memberOptions

	lambda := arg.Lambda
	if lambda == nil {
		lambda = analyze.ParseLambda(arg.Text)
	}

	if lambda == nil || lambda.Param(0) == "" {
		return opts
	}

	opt := lambda.Param(0)
	body := lambda.Body

	opts.ignore = callsOn(body, opt, "Ignore")
	opts.doNotValid = callsOn(body, opt, "DoNotValidate")

	for _, name := range valueCalls {
		if callsOn(body, opt, name) {
			opts.valued = true
		}
	}

	if opts.valued {
		opts.sourceRefs = sourceRefs(body, opt)
	}

	return opts
}

func callsOn(body, receiver, method string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(receiver) + `\s*\.\s*` + method + `\b\s*(<[^>]*>)?\s*\(`)
	return re.MatchString(body)
}

// sourceRefs collects the root source members read inside nested lambdas of
// an options body: opt.MapFrom(s => s.Customer.Name) reads Customer.
// String forms such as opt.MapFrom("Customer.Name") are recognised too.
func sourceRefs(body, opt string) []string {
	var refs []string

	seen := map[string]bool{}
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			refs = append(refs, name)
		}
	}

	for _, m := range lambdaParams.FindAllStringSubmatch(body, -1) {
		params := m[2]
		if m[1] != "" {
			// (src, dest) or (src, dest, member, ctx): only the first one is the source
			params = strings.TrimSpace(strings.Split(m[1], ",")[0])
			if fields := strings.Fields(params); len(fields) > 0 {
				params = fields[len(fields)-1]
			}
		}

		if params == "" || params == opt {
			continue
		}

		access := regexp.MustCompile(`\b` + regexp.QuoteMeta(params) + `\s*\.\s*([A-Za-z_]\w*)`)
		for _, a := range access.FindAllStringSubmatch(body, -1) {
			add(a[1])
		}
	}

	literal := regexp.MustCompile(`\b` + regexp.QuoteMeta(opt) + `\s*\.\s*MapFrom\s*\(\s*"([^"]+)"`)
	for _, m := range literal.FindAllStringSubmatch(body, -1) {
		add(strings.Split(m[1], ".")[0])
	}

	return refs
}
