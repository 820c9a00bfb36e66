// Render HTML for viewing a comparison of two proteins

package render

import (
	"html/template"
	"io"

	"github.com/yumyai/unirefcmp/logger"
	"github.com/yumyai/unirefcmp/pkg/model"
	"go.uber.org/zap"
)

var compare_page_template *template.Template

// init initializes the templates used for rendering the comparison page.
func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Comparison: {{ .A.ID }} vs {{ .B.ID }}</title>
	</head>
	<body>
		<h1>Comparison: {{ .A.ID }} vs {{ .B.ID }}</h1>
		{{template "compare_summary" . }}
		{{ if .WithMembers }}
			<h2>{{ .A.ClusterID }}</h2>
			{{template "member_table" .A }}
			<h2>{{ .B.ClusterID }}</h2>
			{{template "member_table" .B }}
		{{ end }}
		<h2>Resources</h2>
		    <ul>
				<li>[<a href="/sequence/by-cluster?cluster_id={{ .A.ClusterID }}" target="_blank">FASTA</a>] Members of {{ .A.ClusterID }}</li>
				{{ if not .SharedCluster }}
				<li>[<a href="/sequence/by-cluster?cluster_id={{ .B.ClusterID }}" target="_blank">FASTA</a>] Members of {{ .B.ClusterID }}</li>
				{{ end }}
			</ul>
	</body>
	</html>`

	compareSummaryTmpl := `
	  {{define "compare_summary"}}
		<table border="1">
		<tr>
			<th></th>
			<th>Input</th>
			<th>Accession</th>
			<th>UniRef50 cluster</th>
			{{ if .WithMembers }}<th>Members</th>{{ end }}
		</tr>
		{{ range $label, $side := sides . }}
			<tr>
				<td>{{ $label }}</td>
				<td>{{ $side.InputID }}</td>
				<td>{{ $side.ID }}</td>
				<td>{{ $side.ClusterID }}</td>
				{{ if $.WithMembers }}<td>{{ $side.MemberCount }}</td>{{ end }}
			</tr>
		{{ end }}
		</table>
		{{ if .SharedCluster }}
			<p>Both proteins belong to the same UniRef50 cluster.</p>
		{{ else }}
			<p>The proteins belong to different UniRef50 clusters.</p>
		{{ end }}
		{{ if .WithMembers }}
			<p>{{ len .SharedMembers }} accession(s) appear in both member sets.</p>
		{{ end }}
	  {{end}}
	`

	memberTableTmpl := `
	{{define "member_table"}}
		<table border="1">
		<tr>
			<th>Accession</th>
			<th>Length (aa)</th>
		</tr>
		{{ range .Members }}
			<tr>
				<td>{{ .ID }}</td>
				<td>{{ .Length }}</td>
			</tr>
		{{ end }}
		</table>
	{{end}}
	`

	compare_page_template = template.New("compare_page").Funcs(template.FuncMap{
		"sides": func(s *model.ComparisonSummary) map[string]model.ProteinSide {
			return map[string]model.ProteinSide{"A": s.A, "B": s.B}
		},
	})
	compare_page_template = template.Must(compare_page_template.Parse(mainTmpl))
	compare_page_template = template.Must(compare_page_template.Parse(compareSummaryTmpl))
	compare_page_template = template.Must(compare_page_template.Parse(memberTableTmpl))
}

// RenderComparePage writes the comparison page for s.
func RenderComparePage(w io.Writer, s *model.ComparisonSummary) error {
	logger.Info("Rendering compare page", zap.String("a", s.A.ID), zap.String("b", s.B.ID))
	return compare_page_template.Execute(w, s)
}
