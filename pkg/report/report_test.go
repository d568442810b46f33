package report

import (
	"strings"
	"testing"
	"time"

	"github.com/jonmatthis/og-classbot/pkg/fusion"
)

func testRecords() []fusion.SummaryRecord {
	at := time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)
	return []fusion.SummaryRecord{
		{
			EntityID:    "janes#1234",
			SummaryText: "# Research Interests:\nEye-tracking & locomotion\n# Current skillset:\nSome Python",
			ModelID:     "gpt-4",
			CreatedAt:   at,
		},
		fusion.NewRecord("never-summarized"),
		{
			EntityID:    "bochen#4321",
			SummaryText: "# Research Interests:\nDance biomechanics",
			ModelID:     "gpt-4",
			CreatedAt:   at,
		},
	}
}

func TestMarkdownSkipsSentinels(t *testing.T) {
	var b strings.Builder
	if err := Markdown(&b, "Student Summaries", testRecords()); err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	out := b.String()

	if !strings.HasPrefix(out, "# Student Summaries") {
		t.Fatalf("missing title: %q", out[:40])
	}
	for _, want := range []string{"## janes#1234", "## bochen#4321", "Eye-tracking & locomotion", "model: gpt-4"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(out, "never-summarized") {
		t.Error("sentinel record must not appear in the report")
	}
}

func TestHTMLReport(t *testing.T) {
	var b strings.Builder
	if err := HTML(&b, "Student Summaries", testRecords()); err != nil {
		t.Fatalf("HTML: %v", err)
	}
	out := b.String()

	if !strings.Contains(out, `<a href="#janes-1234">janes#1234</a>`) {
		t.Error("table of contents missing entity link")
	}
	if !strings.Contains(out, `<h1 id="janes-1234">`) {
		t.Error("section anchor missing")
	}
	if !strings.Contains(out, "<h3>Research Interests</h3>") {
		t.Error("summary headings not converted to h3")
	}
	if !strings.Contains(out, "Eye-tracking &amp; locomotion") {
		t.Error("summary text must be escaped")
	}
	if strings.Contains(out, "never-summarized") {
		t.Error("sentinel record must not appear in the report")
	}
	if !strings.Contains(out, "bootstrap.min.css") {
		t.Error("report page must carry its stylesheet")
	}
}
