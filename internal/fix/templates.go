package fix

import (
	"fmt"
	"strings"
	"text/template"
)

// fragmentTemplates renders the code inserted by fixes.
var fragmentTemplates = template.Must(template.New("fragments").Parse(`
{{- define "ignore"}}.ForMember(d => d.{{.Member}}, o => o.Ignore()){{end}}
{{- define "ignoreSource"}}.ForSourceMember(s => s.{{.Member}}, o => o.DoNotValidate()){{end}}
{{- define "mapFrom"}}.ForMember(d => d.{{.Member}}, o => o.MapFrom(s => {{.Expr}})){{end}}
{{- define "createMap"}}{{.Receiver}}CreateMap<{{.Source}}, {{.Dest}}>();{{end}}
{{- define "property"}}{{if .Public}}public {{end}}{{.Type}} {{.Name}} { get; {{.Setter}}; }{{end}}
{{- define "parameter"}}{{.Type}} {{.Name}}{{end}}
`))

type memberData struct {
	Member string
	Expr   string
}

type createMapData struct {
	Receiver string
	Source   string
	Dest     string
}

type propertyData struct {
	Public bool
	Type   string
	Name   string
	Setter string
}

type parameterData struct {
	Type string
	Name string
}

func render(name string, data any) (string, error) {
	var sb strings.Builder

	if err := fragmentTemplates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return sb.String(), nil
}

// sourceExpr is the expression reading a source member in a MapFrom lambda.
func sourceExpr(member string) string {
	return "s." + member
}
