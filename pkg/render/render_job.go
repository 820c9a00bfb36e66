package render

import (
	"html/template"
	"io"

	"github.com/yumyai/unirefcmp/logger"
	"go.uber.org/zap"
)

var job_page_template *template.Template

// JobPageData describes the state of a bulk query download for rendering.
type JobPageData struct {
	JobID                  string
	URL                    string
	Destination            string
	Status                 string
	Bytes                  int64
	ErrorMessage           string
	ShouldRefresh          bool
	RefreshIntervalSeconds int
}

// init initializes the templates used for rendering the HTML page.
func init() {
	mainTmpl := `
	<!DOCTYPE html>
	<html>
	<head>
	    <title>UniRef query job</title>
	    <style>
        pre {
            white-space: pre-wrap;
            word-wrap: break-word;
        }
   		</style>
		{{ if .ShouldRefresh }}
        <script>
	        setTimeout(function () { window.location.reload(); }, {{ mul .RefreshIntervalSeconds 1000 }});
        </script>
		{{ end }}
	</head>
	<body>
		<h1>UniRef query</h1>
		<p><strong>Job ID:</strong> {{ .JobID }}</p>
		<p><strong>Query URL:</strong> <code>{{ .URL }}</code></p>
		<p><strong>Status:</strong> {{ .Status }}</p>
		{{ if .ErrorMessage }}
			<p style="color: red;">{{ .ErrorMessage }}</p>
		{{ else if eq .Status "completed" }}
			<p>Downloaded {{ .Bytes }} bytes to <code>{{ .Destination }}</code>.</p>
		{{ else }}
			<p>Your download is still running. This page refreshes every {{ .RefreshIntervalSeconds }} seconds.</p>
		{{ end }}
	</body>
	</html>`

	job_page_template = template.New("job_page").Funcs(template.FuncMap{
		"mul": func(a, b int) int { return a * b },
	})
	job_page_template = template.Must(job_page_template.Parse(mainTmpl))
}

func RenderJobPage(w io.Writer, data JobPageData) error {
	logger.Info("Rendering job page", zap.String("job_id", data.JobID), zap.String("status", data.Status))
	return job_page_template.Execute(w, data)
}
