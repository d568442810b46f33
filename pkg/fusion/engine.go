package fusion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jonmatthis/og-classbot/pkg/models"
)

// Outcome classifies one fusion attempt.
type Outcome int

const (
	OutcomeFused Outcome = iota
	OutcomeNoOp
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFused:
		return "fused"
	case OutcomeNoOp:
		return "no-op"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ErrNoGenerator is returned when an engine is used before a generator is set.
var ErrNoGenerator = errors.New("fusion: no generator configured")

// DefaultCallTimeout bounds a single generation call.
const DefaultCallTimeout = 90 * time.Second

// Engine folds new fragment sources into existing summary records via
// repeated generator calls. It owns the staleness check, the chunked fold
// loop, schema validation, and the retry/fallback contract. The engine never
// mutates its inputs; a successful fusion produces a fresh record.
type Engine struct {
	// Generator produces every summary. Required.
	Generator models.Agent

	// Fallback, when set, takes the retry after a failed Generator call.
	Fallback models.Agent

	// Tokens sizes fragments against the chunk budget. Defaults to the
	// four-chars-per-token heuristic.
	Tokens models.TokenCounter

	// CallTimeout bounds each generation call. A call completes, fails, or
	// times out atomically; there is no mid-chunk cancellation.
	CallTimeout time.Duration
}

// NewEngine returns an Engine with default token counting and call timeout.
func NewEngine(generator, fallback models.Agent) *Engine {
	return &Engine{
		Generator:   generator,
		Fallback:    fallback,
		Tokens:      models.HeuristicCounter{},
		CallTimeout: DefaultCallTimeout,
	}
}

// Fuse folds one fragment source into an existing record.
//
// Under a non-overwrite policy a source whose timestamp is not strictly later
// than the record's is already incorporated and yields OutcomeNoOp, so
// re-running a pass over the same data is safe. A first-ever fusion accepts
// any source. On any generation failure the existing record comes back
// unchanged with OutcomeFailed; no partial record is ever produced.
func (e *Engine) Fuse(ctx context.Context, existing SummaryRecord, source FragmentSource, policy FusionPolicy) (SummaryRecord, Outcome, error) {
	if e.Generator == nil {
		return existing, OutcomeFailed, ErrNoGenerator
	}

	if !policy.Overwrite && !existing.IsSentinel() && !source.CreatedAt.After(existing.CreatedAt) {
		return existing, OutcomeNoOp, nil
	}

	chunks := e.chunk(source, policy)
	if len(chunks) == 0 {
		return existing, OutcomeNoOp, nil
	}

	running := existing.SummaryText
	creating := existing.IsSentinel()
	degraded := false
	modelUsed := e.Generator.ModelID()

	for i, chunk := range chunks {
		template := policy.UpdateTemplate
		if creating && i == 0 {
			template = policy.CreateTemplate
		}
		prompt := template.Render(policy.renderVars(running, chunk.Text))

		text, modelID, err := e.generate(ctx, prompt)
		if err != nil {
			return existing, OutcomeFailed, fmt.Errorf("fuse %s (%s) chunk %d/%d: %w",
				source.EntityID, policy.Name, i+1, len(chunks), err)
		}

		if policy.Schema != nil {
			conformed, ok, err := e.conformToSchema(ctx, policy.Schema, text)
			if err != nil {
				return existing, OutcomeFailed, fmt.Errorf("fuse %s (%s) chunk %d/%d: %w",
					source.EntityID, policy.Name, i+1, len(chunks), err)
			}
			if !ok {
				// Keep the raw generation rather than lose the content; the
				// record carries a degraded flag for operators to find.
				log.Printf("[Fusion] %s (%s): schema repair did not converge, storing raw text",
					source.EntityID, policy.Name)
				degraded = true
			}
			text = conformed
		}

		running = text
		modelUsed = modelID
	}

	updated := SummaryRecord{
		EntityID:       existing.EntityID,
		SummaryText:    running,
		ModelID:        modelUsed,
		CreatedAt:      source.CreatedAt,
		SchemaDegraded: degraded,
		History:        append([]Snapshot(nil), existing.History...),
	}
	if !existing.IsSentinel() {
		updated.History = append(updated.History, existing.Snapshot())
	}
	return updated, OutcomeFused, nil
}

func (e *Engine) chunk(source FragmentSource, policy FusionPolicy) []Chunk {
	counter := e.Tokens
	if counter == nil {
		counter = models.HeuristicCounter{}
	}

	whole := source.Text()
	if whole == "" {
		return nil
	}
	if policy.MaxTokensPerChunk <= 0 || counter.CountTokens(whole) <= policy.MaxTokensPerChunk {
		return []Chunk{{Text: whole, TokenCount: counter.CountTokens(whole)}}
	}
	return SplitFragments(source.Fragments, policy.MaxTokensPerChunk, counter)
}

// generate issues one bounded generation call, retrying once against the
// fallback generator when one is configured, otherwise against the primary.
func (e *Engine) generate(ctx context.Context, prompt string) (string, string, error) {
	text, err := e.call(ctx, e.Generator, prompt)
	if err == nil {
		return text, e.Generator.ModelID(), nil
	}

	retry := e.Fallback
	if retry == nil {
		retry = e.Generator
	}
	log.Printf("[Fusion] generation failed, retrying with %s: %v", retry.ModelID(), err)

	text, retryErr := e.call(ctx, retry, prompt)
	if retryErr == nil {
		return text, retry.ModelID(), nil
	}
	return "", "", fmt.Errorf("generation failed after retry: %w (first attempt: %v)", retryErr, err)
}

func (e *Engine) call(ctx context.Context, agent models.Agent, prompt string) (string, error) {
	timeout := e.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return agent.Generate(callCtx, prompt)
}

// conformToSchema strictly validates a generation, running one repair pass
// through the generator when the first parse fails. A generator failure
// during repair fails the fusion; a repair that still does not parse keeps
// the raw text and reports ok=false so the record can be flagged.
func (e *Engine) conformToSchema(ctx context.Context, schema Schema, text string) (conformed string, ok bool, err error) {
	if schema.Validate(text) == nil {
		return text, true, nil
	}

	repaired, _, err := e.generate(ctx, schema.RepairPrompt(text))
	if err != nil {
		return "", false, fmt.Errorf("repair generation: %w", err)
	}
	if schema.Validate(repaired) != nil {
		return text, false, nil
	}
	return repaired, true, nil
}
