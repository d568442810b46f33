package fusion

import "strings"

// PromptTemplate is a prompt body with {variable} placeholders. Rendering is
// plain string substitution; variation between summary types lives in the
// template text, never in engine code.
type PromptTemplate string

// Render substitutes each {key} placeholder with its value.
func (t PromptTemplate) Render(vars map[string]string) string {
	out := string(t)
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// Variable names the fold templates receive.
const (
	VarCurrentSummary = "current_summary"
	VarNewFragment    = "new_fragment"
)

// Schema constrains structured summary types (the green-check paper
// summaries). Validate strictly parses a generation; RepairPrompt builds the
// fixer prompt used when the first response fails that parse.
type Schema interface {
	Validate(text string) error
	RepairPrompt(text string) string
}

// FusionPolicy describes one summary type as data: how to create the first
// summary, how to fold new material into an existing one, and what shape the
// output must take. One engine serves every summary type.
type FusionPolicy struct {
	// Name labels the policy in logs and statuses, e.g. "student" or "class".
	Name string

	// CreateTemplate renders the first-ever fold for an entity. Receives
	// {new_fragment}.
	CreateTemplate PromptTemplate

	// UpdateTemplate renders every later fold. Receives {current_summary} and
	// {new_fragment}. Update prompts must forbid fabricating information not
	// present in the fragment and instruct the model to mark unknown fields.
	UpdateTemplate PromptTemplate

	// Schema, when set, validates each generation (with one repair pass).
	Schema Schema

	// Overwrite disables the staleness check so already-incorporated sources
	// are re-applied.
	Overwrite bool

	// MaxTokensPerChunk bounds how much raw fragment text one generation call
	// receives. Sources over the bound are split.
	MaxTokensPerChunk int

	// ExtraVars are policy-specific template variables (course description,
	// student initials, response schema text).
	ExtraVars map[string]string
}

func (p FusionPolicy) renderVars(currentSummary, newFragment string) map[string]string {
	vars := make(map[string]string, len(p.ExtraVars)+2)
	for k, v := range p.ExtraVars {
		vars[k] = v
	}
	vars[VarCurrentSummary] = currentSummary
	vars[VarNewFragment] = newFragment
	return vars
}
