package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapcheck/internal/analyze"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"Name", "Name", false},
		{"Customer.Address.City", "Customer.Address.City", false},
		{"@class", "@class", false},
		{"", "", true},
		{"Customer..City", "", true},
		{"1Name", "", true},
		{"Items[]", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := ParsePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestMemberSelector(t *testing.T) {
	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{"d => d.Name", "Name", false},
		{"(dest) => dest.Customer.Name", "Customer.Name", false},
		{`"Name"`, "Name", false},
		{"nameof(OrderDto.Total)", "Total", false},
		{"nameof(Total)", "Total", false},
		{"d => other.Name", "", true},
		{"d => d.Items.First().Name", "", true},
		{"SelectName", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			p, err := MemberSelector(analyze.Argument{Text: tt.arg})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		opts   string
		ignore bool
		valued bool
		refs   []string
	}{
		{"o => o.Ignore()", true, false, nil},
		{"opt => { opt.Ignore(); }", true, false, nil},
		{"o => o.MapFrom(s => s.Customer.Name)", false, true, []string{"Customer"}},
		{"o => o.MapFrom((src, dst) => src.A + src.B)", false, true, []string{"A", "B"}},
		{`o => o.MapFrom("Customer.Name")`, false, true, []string{"Customer"}},
		{"o => o.ConvertUsing(new MoneyConverter(), s => s.Price)", false, true, []string{"Price"}},
		{"o => o.MapFrom<NameResolver>()", false, true, nil},
		{"o => o.Condition(s => s.Active)", false, false, nil},
		{"ConfigureName", false, false, nil},
		{"o => other.Ignore()", false, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.opts, func(t *testing.T) {
			got := parseOptions(analyze.Argument{Text: tt.opts})
			assert.Equal(t, tt.ignore, got.ignore)
			assert.Equal(t, tt.valued, got.valued)
			assert.Equal(t, tt.refs, got.sourceRefs)
		})
	}
}
