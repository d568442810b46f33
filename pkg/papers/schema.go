// Package papers defines the structured output contract for research paper
// summaries parsed out of green-check messages.
package papers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PaperSummary is the structured record built from a student's paper
// discussion messages. Every field is filled from the input text only; the
// parsing prompt instructs the model to write "COULD NOT FIND IN INPUT TEXT"
// rather than invent a value.
type PaperSummary struct {
	Title      string `json:"title"`
	ShortTitle string `json:"short_title"`
	AuthorYear string `json:"author_year"`
	Citation   string `json:"citation"`
	Abstract   string `json:"abstract"`
	Summary    string `json:"summary"`
	Tags       string `json:"tags"`
}

// SummaryTitle is the file-name form, e.g. "Smith et al. 2020_gaze control in tasks".
func (p PaperSummary) SummaryTitle() string {
	return p.AuthorYear + "_" + p.ShortTitle
}

// Markdown renders the summary as a standalone document.
func (p PaperSummary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - %s\n\n", p.AuthorYear, p.ShortTitle)
	fmt.Fprintf(&b, "## Title\n\n%s\n\n", p.Title)
	fmt.Fprintf(&b, "## Citation\n\n%s\n\n", p.Citation)
	fmt.Fprintf(&b, "## Abstract\n\n%s\n\n", p.Abstract)
	fmt.Fprintf(&b, "## Summary/overview\n\n%s\n\n", p.Summary)
	fmt.Fprintf(&b, "## Tags\n\n%s\n", p.Tags)
	return b.String()
}

// Parse strictly decodes a generation into a PaperSummary. Unknown fields and
// trailing content fail the parse; a markdown code fence around the JSON is
// tolerated because models add one routinely.
func Parse(text string) (PaperSummary, error) {
	cleaned := stripCodeFence(strings.TrimSpace(text))
	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()
	var p PaperSummary
	if err := dec.Decode(&p); err != nil {
		return PaperSummary{}, fmt.Errorf("not a paper summary object: %w", err)
	}
	if dec.More() {
		return PaperSummary{}, fmt.Errorf("trailing content after paper summary object")
	}
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Citation) == "" {
		return PaperSummary{}, fmt.Errorf("paper summary has neither title nor citation")
	}
	return p, nil
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// FieldInstructions is embedded in parsing prompts so the model knows the
// exact object shape.
const FieldInstructions = `Respond with a single JSON object with exactly these string fields:
  "title":       the title of the research article
  "short_title": a 6-8 word summary of the research article (lower case)
  "author_year": the author and year of the research article (e.g. 'Smith et al. 2020')
  "citation":    the citation to the research article
  "abstract":    a copy-paste of the abstract of the research article
  "summary":     a summary/overview of the major points of the paper in bullet-point markdown
  "tags":        a list of tags formatted using #kebab-case-lowercase`

// Schema adapts the strict parse into the engine's validate/repair contract.
type Schema struct{}

func (Schema) Validate(text string) error {
	_, err := Parse(text)
	return err
}

func (Schema) RepairPrompt(text string) string {
	var b strings.Builder
	b.WriteString("The following text was supposed to be a paper summary but does not parse.\n\n")
	b.WriteString(FieldInstructions)
	b.WriteString("\n\nRewrite this text into that JSON object. Use only information present in the text. ")
	b.WriteString("If a field cannot be filled from the text, set it to 'COULD NOT FIND IN INPUT TEXT'.\n\n")
	b.WriteString(text)
	return b.String()
}
