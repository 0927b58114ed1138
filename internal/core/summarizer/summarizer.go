package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/logger"
	"github.com/markdave123-py/Synopsis/internal/models"
	"github.com/markdave123-py/Synopsis/internal/observability"
)

const (
	singlePrompt = "Summarize the following document:\n\n"
	mapPrompt    = "This is part %d of %d of a document. Summarize this section concisely:\n\n"
	reducePrompt = "Create a coherent, comprehensive summary of this document based on these section summaries:\n\n"

	PhaseSingle = "single"
	PhaseMap    = "map"
	PhaseReduce = "reduce"
)

// Config caps the output of each phase and bounds map-phase fan-out.
//
// SingleMaxTokens: cap for a document that fits in one chunk.
// MapMaxTokens:    cap for each per-chunk summary.
// ReduceMaxTokens: cap for the combined summary.
// MapConcurrency:  in-flight map calls; 1 runs the map phase sequentially.
type Config struct {
	SingleMaxTokens int
	MapMaxTokens    int
	ReduceMaxTokens int
	MapConcurrency  int
}

func DefaultConfig() Config {
	return Config{
		SingleMaxTokens: 300,
		MapMaxTokens:    250,
		ReduceMaxTokens: 350,
		MapConcurrency:  4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SingleMaxTokens <= 0 {
		c.SingleMaxTokens = d.SingleMaxTokens
	}
	if c.MapMaxTokens <= 0 {
		c.MapMaxTokens = d.MapMaxTokens
	}
	if c.ReduceMaxTokens <= 0 {
		c.ReduceMaxTokens = d.ReduceMaxTokens
	}
	if c.MapConcurrency <= 0 {
		c.MapConcurrency = d.MapConcurrency
	}
	return c
}

var _ core.Summarizer = (*Orchestrator)(nil)

// Orchestrator runs the hierarchical map-reduce summarization over a chunk
// sequence. It holds no per-document state and is safe for concurrent use.
type Orchestrator struct {
	gen     core.TextGenerator
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
}

func New(gen core.TextGenerator, cfg Config, log *logger.Logger, metrics *observability.Metrics) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		gen:     gen,
		cfg:     cfg.withDefaults(),
		log:     log.With("component", "summarizer"),
		metrics: metrics,
	}
}

// Summarize returns one summary for the chunks. One chunk costs one call;
// N > 1 chunks cost N map calls plus one reduce call. Zero chunks is an
// EmptyContentError and costs nothing.
func (o *Orchestrator) Summarize(ctx context.Context, chunks []models.Chunk) (string, error) {
	switch len(chunks) {
	case 0:
		return "", &core.EmptyContentError{}
	case 1:
		return o.call(ctx, PhaseSingle, singlePrompt+chunks[0].Text, o.cfg.SingleMaxTokens)
	}

	partials, err := o.mapChunks(ctx, chunks)
	if err != nil {
		return "", err
	}
	return o.call(ctx, PhaseReduce, buildReducePrompt(partials), o.cfg.ReduceMaxTokens)
}

// mapChunks summarizes every chunk with bounded parallelism. Each result is
// written to its own slot, so the order matches the chunk order whatever the
// completion order. The first failure cancels the outstanding calls.
func (o *Orchestrator) mapChunks(ctx context.Context, chunks []models.Chunk) ([]models.ChunkSummary, error) {
	n := len(chunks)
	out := make([]models.ChunkSummary, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MapConcurrency)

	for i := range chunks {
		g.Go(func() error {
			prompt := fmt.Sprintf(mapPrompt, i+1, n) + chunks[i].Text
			s, err := o.call(gctx, PhaseMap, prompt, o.cfg.MapMaxTokens)
			if err != nil {
				return err
			}
			out[i] = models.ChunkSummary{Index: i, Summary: s}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func buildReducePrompt(partials []models.ChunkSummary) string {
	sections := make([]string, len(partials))
	for i, p := range partials {
		sections[i] = fmt.Sprintf("Section %d: %s", p.Index+1, p.Summary)
	}
	return reducePrompt + strings.Join(sections, "\n\n")
}

func (o *Orchestrator) call(ctx context.Context, phase, prompt string, maxTokens int) (string, error) {
	ctx, span := observability.StartSpan(ctx, "summarizer."+phase,
		attribute.Int("prompt.runes", len([]rune(prompt))),
		attribute.Int("max_output_tokens", maxTokens),
	)
	start := time.Now()

	text, err := o.gen.Generate(ctx, prompt, maxTokens)
	o.metrics.ObserveGeneration(phase, time.Since(start), err)
	if err != nil {
		err = wrapGeneration(phase, err)
		o.log.Warn("generation call failed", "phase", phase, "error", err)
		observability.EndSpan(span, err)
		return "", err
	}
	observability.EndSpan(span, nil)
	return strings.TrimSpace(text), nil
}

func wrapGeneration(phase string, err error) error {
	var gerr *core.GenerationServiceError
	if errors.As(err, &gerr) {
		return &core.GenerationServiceError{Op: phase, Transient: gerr.Transient, Err: gerr.Err}
	}
	transient := core.IsTransient(err) || errors.Is(err, context.DeadlineExceeded)
	return &core.GenerationServiceError{Op: phase, Transient: transient, Err: err}
}
