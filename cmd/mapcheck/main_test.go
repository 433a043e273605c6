package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureModels = `namespace Shop;

public class Source
{
    public int Id { get; set; }
    public string Adress { get; set; }
}

public class Destination
{
    public int Id { get; set; }
    public string Address { get; set; }
}
`

const fixtureProfile = `using AutoMapper;

namespace Shop;

public class ShopProfile : Profile
{
    public ShopProfile()
    {
        CreateMap<Source, Destination>();
    }
}
`

func writeFixture(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Models", "Models.cs"), []byte(fixtureModels), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Profile.cs"), []byte(fixtureProfile), 0o644))

	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append([]string{"--no-color"}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestAnalyze_Text(t *testing.T) {
	dir := writeFixture(t)

	out, err := execute(t, "analyze", dir)
	require.NoError(t, err, "warnings do not fail the default run")

	assert.Contains(t, out, "Profile.cs:")
	assert.Contains(t, out, "warning AM006")
	assert.Contains(t, out, "warning AM004")
	assert.Contains(t, out, "1 registrations, 0 errors, 2 warnings, 0 info")
}

func TestAnalyze_JSON(t *testing.T) {
	dir := writeFixture(t)

	out, err := execute(t, "analyze", "--format", "json", "--fixes", dir)
	require.NoError(t, err)

	var report jsonReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), "output should be valid JSON")

	require.Len(t, report.Findings, 2)
	assert.Equal(t, 1, report.Sites)

	rules := map[string]jsonFinding{}
	for _, f := range report.Findings {
		rules[f.Rule] = f
	}

	require.Contains(t, rules, "AM006")
	assert.Equal(t, "Profile.cs", rules["AM006"].Document)
	assert.Equal(t, []string{"Address"}, rules["AM006"].Members)
	assert.Equal(t, "Adress", rules["AM006"].Suggestion)
	assert.Positive(t, rules["AM006"].Line)

	var titles []string
	for _, p := range report.Fixes {
		titles = append(titles, p.Title)
	}

	assert.Contains(t, titles, "Map 'Address' from 'Adress'")
}

func TestAnalyze_FailOn(t *testing.T) {
	dir := writeFixture(t)

	tests := []struct {
		failOn  string
		wantErr bool
	}{
		{"error", false},
		{"warning", true},
		{"info", true},
		{"none", false},
	}

	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			_, err := execute(t, "analyze", "--fail-on", tt.failOn, dir)
			if tt.wantErr {
				assert.ErrorIs(t, err, errFindings)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAnalyze_Errors(t *testing.T) {
	dir := writeFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"analyze", "--format", "xml", dir}},
		{"bad fail-on", []string{"analyze", "--fail-on", "fatal", dir}},
		{"missing dir", []string{"analyze", filepath.Join(dir, "nope")}},
		{"not a C# file", []string{"analyze", filepath.Join(dir, "Profile.txt"), filepath.Join(dir, "Profile.cs")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.NotErrorIs(t, err, errFindings)
		})
	}
}

func TestAnalyze_Files(t *testing.T) {
	dir := writeFixture(t)

	out, err := execute(t, "analyze", "--format", "json",
		filepath.Join(dir, "Profile.cs"), filepath.Join(dir, "Models", "Models.cs"))
	require.NoError(t, err)

	var report jsonReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Findings, 2)
}

func TestAnalyze_Config(t *testing.T) {
	dir := writeFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mapcheck.yaml"), []byte(`
rules:
  AM006:
    severity: error
  AM004:
    disabled: true
`), 0o644))

	out, err := execute(t, "analyze", dir)
	require.ErrorIs(t, err, errFindings)

	assert.Contains(t, out, "error AM006")
	assert.NotContains(t, out, "AM004")
}

func TestAnalyze_Metrics(t *testing.T) {
	dir := writeFixture(t)
	path := filepath.Join(t.TempDir(), "mapcheck.prom")

	_, err := execute(t, "analyze", "--metrics", path, dir)
	require.NoError(t, err)

	text := readFile(t, path)
	assert.Contains(t, text, "mapcheck_sites_analyzed_total")
	assert.Contains(t, text, "mapcheck_findings_total")
}

func TestFix_Bind(t *testing.T) {
	dir := writeFixture(t)

	out, err := execute(t, "fix", "--strategy", "bind", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "fixed Map 'Address' from 'Adress' (Profile.cs)")
	assert.Contains(t, out, "1 fixes applied, 1 files changed, 0 findings remaining")

	assert.Contains(t, readFile(t, filepath.Join(dir, "Profile.cs")),
		".ForMember(d => d.Address, o => o.MapFrom(s => s.Adress));")
	assert.Equal(t, fixtureModels, readFile(t, filepath.Join(dir, "Models", "Models.cs")))

	_, err = execute(t, "analyze", "--fail-on", "info", dir)
	assert.NoError(t, err, "the fixed sources are clean")
}

func TestFix_Strategies(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		remaining string
		profile   string
		models    string
	}{
		{
			name:      "first",
			args:      nil,
			remaining: "0 findings remaining",
			profile:   "o => o.Ignore()",
		},
		{
			name:      "create",
			args:      []string{"--strategy", "create"},
			remaining: "0 findings remaining",
			models:    "public string Address { get; set; }\n    public string Adress { get; set; }",
		},
		{
			name:      "rule filter",
			args:      []string{"--strategy", "ignore", "--rule", "AM004"},
			remaining: "1 findings remaining",
			profile:   ".ForSourceMember(s => s.Adress, o => o.DoNotValidate())",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFixture(t)

			args := append([]string{"fix"}, tt.args...)
			out, err := execute(t, append(args, dir)...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.remaining)

			if tt.profile != "" {
				assert.Contains(t, readFile(t, filepath.Join(dir, "Profile.cs")), tt.profile)
			}

			if tt.models != "" {
				assert.Contains(t, readFile(t, filepath.Join(dir, "Models", "Models.cs")), tt.models)
			}
		})
	}
}

func TestFix_DryRun(t *testing.T) {
	dir := writeFixture(t)

	out, err := execute(t, "fix", "--dry-run", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "would change")
	assert.Equal(t, fixtureProfile, readFile(t, filepath.Join(dir, "Profile.cs")))
}

func TestFix_Errors(t *testing.T) {
	dir := writeFixture(t)

	_, err := execute(t, "fix", "--strategy", "guess", dir)
	assert.Error(t, err)

	_, err = execute(t, "fix", "--rule", "AM999", dir)
	assert.Error(t, err)
}

func TestRules(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mapcheck.toml"), []byte(`
[rules.AM034]
disabled = true

[rules.AM001]
severity = "warning"
`), 0o644))

	out, err := execute(t, "rules", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Regexp(t, `AM001\s+warning\s+member\s+yes`, out)
	assert.Regexp(t, `AM034\s+off\s+chain`, out)

	out, err = execute(t, "rules", "--format", "json", dir)
	require.NoError(t, err)

	var listed []jsonRule
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 14)

	byID := map[string]jsonRule{}
	for _, r := range listed {
		byID[r.ID] = r
	}

	assert.False(t, byID["AM034"].Enabled)
	assert.Equal(t, "warning", byID["AM001"].Severity)
	assert.True(t, byID["AM041"].Enabled)
}
