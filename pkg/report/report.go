// Package report renders stored summary records into shareable markdown and
// HTML documents.
package report

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"regexp"
	"strings"

	"github.com/jonmatthis/og-classbot/pkg/fusion"
)

// Markdown writes one section per record: the entity heading, the current
// summary, and the generation metadata.
func Markdown(w io.Writer, title string, records []fusion.SummaryRecord) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n", title); err != nil {
		return err
	}
	for _, rec := range records {
		if rec.IsSentinel() {
			continue
		}
		fmt.Fprintf(w, "## %s\n\n", rec.EntityID)
		fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(rec.SummaryText))
		if _, err := fmt.Fprintf(w, "*model: %s, updated: %s*\n\n", rec.ModelID, rec.CreatedAt.Format("2006-01-02 15:04")); err != nil {
			return err
		}
	}
	return nil
}

var sectionHeading = regexp.MustCompile(`(?m)^#+ (.*?):`)

// formatSummary turns the models' markdown-ish output into display HTML. The
// summaries use "# Heading:" lines as section markers.
func formatSummary(summary string) template.HTML {
	out := html.EscapeString(strings.ReplaceAll(summary, "```", ""))
	out = sectionHeading.ReplaceAllString(out, "<h3>$1</h3>")
	out = strings.ReplaceAll(out, "\n", "<br>\n")
	return template.HTML(out)
}

var anchorUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// anchorID makes an entity id safe for use as an HTML fragment anchor.
// Discord usernames carry '#' which would collide with the fragment syntax.
func anchorID(entityID string) string {
	return anchorUnsafe.ReplaceAllString(entityID, "-")
}

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatSummary": formatSummary,
	"anchor":        anchorID,
}).Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link href="https://stackpath.bootstrapcdn.com/bootstrap/4.3.1/css/bootstrap.min.css" rel="stylesheet">
    <title>{{.Title}}</title>
  </head>
  <body>
    <div class="container mt-4">
      <h1>{{.Title}}</h1>
      <div class="toc">
        <h2>Table of Contents</h2>
        <ul>
{{- range .Records}}
          <li><a href="#{{anchor .EntityID}}">{{.EntityID}}</a></li>
{{- end}}
        </ul>
      </div>
      <div class="content">
{{- range .Records}}
        <h1 id="{{anchor .EntityID}}">{{.EntityID}}</h1>
        <p>{{formatSummary .SummaryText}}</p>
        <p><small>model: {{.ModelID}}, updated: {{.CreatedAt.Format "2006-01-02 15:04"}}</small></p>
{{- end}}
      </div>
    </div>
    <script src="https://code.jquery.com/jquery-3.3.1.slim.min.js"></script>
    <script src="https://stackpath.bootstrapcdn.com/bootstrap/4.3.1/js/bootstrap.min.js"></script>
  </body>
</html>
`))

// HTML writes a bootstrap-styled report page with a table of contents linking
// to one section per record.
func HTML(w io.Writer, title string, records []fusion.SummaryRecord) error {
	kept := make([]fusion.SummaryRecord, 0, len(records))
	for _, rec := range records {
		if !rec.IsSentinel() {
			kept = append(kept, rec)
		}
	}
	return htmlReport.Execute(w, struct {
		Title   string
		Records []fusion.SummaryRecord
	}{Title: title, Records: kept})
}
