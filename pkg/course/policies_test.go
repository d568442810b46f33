package course

import (
	"strings"
	"testing"
	"time"

	"github.com/jonmatthis/og-classbot/pkg/fusion"
)

func TestPoliciesRenderBothPlaceholders(t *testing.T) {
	for name, build := range Policies {
		policy := build()
		vars := map[string]string{
			fusion.VarCurrentSummary: "CURRENT-MARKER",
			fusion.VarNewFragment:    "FRAGMENT-MARKER",
		}
		for k, v := range policy.ExtraVars {
			vars[k] = v
		}

		create := policy.CreateTemplate.Render(vars)
		if !strings.Contains(create, "FRAGMENT-MARKER") {
			t.Errorf("%s: create template never uses the new fragment", name)
		}
		if strings.Contains(create, "{course_description}") {
			t.Errorf("%s: course description placeholder left unrendered", name)
		}

		update := policy.UpdateTemplate.Render(vars)
		if !strings.Contains(update, "CURRENT-MARKER") {
			t.Errorf("%s: update template never uses the current summary", name)
		}
		if !strings.Contains(update, "FRAGMENT-MARKER") {
			t.Errorf("%s: update template never uses the new fragment", name)
		}
	}
}

func TestPoliciesBoundChunkSize(t *testing.T) {
	for name, build := range Policies {
		if got := build().MaxTokensPerChunk; got != MaxTokensPerChunk {
			t.Errorf("%s: MaxTokensPerChunk = %d", name, got)
		}
	}
}

func TestGreenCheckPolicyHasSchema(t *testing.T) {
	p := GreenCheckPolicy()
	if p.Schema == nil {
		t.Fatal("green check policy must validate against the paper schema")
	}
	rendered := p.CreateTemplate.Render(map[string]string{
		"format_instructions": p.ExtraVars["format_instructions"],
		fusion.VarNewFragment: "the paper text",
	})
	if !strings.Contains(rendered, `"short_title"`) {
		t.Fatal("create template must carry the format instructions")
	}
}

func TestPersonaPoliciesCarryCourseDescription(t *testing.T) {
	for _, name := range []string{"student", "class", "video"} {
		p := Policies[name]()
		rendered := p.UpdateTemplate.Render(p.ExtraVars)
		if !strings.Contains(rendered, "Neural Control of Real-World Human Movement") {
			t.Errorf("%s: persona preamble missing", name)
		}
		if !strings.Contains(rendered, "Course Objectives") {
			t.Errorf("%s: course description not injected", name)
		}
	}
}

func TestParseThreadTime(t *testing.T) {
	cases := []string{
		"2023-06-01T12:30:45.123456",
		"2023-06-01T12:30:45",
		"2023-06-01T12:30:45Z",
		"2023-06-01T12:30:45.123456789Z",
	}
	for _, input := range cases {
		parsed, err := parseThreadTime(input)
		if err != nil {
			t.Errorf("parseThreadTime(%q): %v", input, err)
			continue
		}
		if parsed.Year() != 2023 || parsed.Month() != time.June {
			t.Errorf("parseThreadTime(%q) = %v", input, parsed)
		}
	}
	if _, err := parseThreadTime("last tuesday"); err == nil {
		t.Error("nonsense timestamp must not parse")
	}
}
