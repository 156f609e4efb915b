// Package judge scores retrieval-augmented answers with an LLM acting as
// the judge and an embedding model for answer relevancy.
package judge

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure Harness implements the interface.
var _ driven.EvaluationHarness = (*Harness)(nil)

// DefaultQuestionCount is how many questions are regenerated from an answer.
const DefaultQuestionCount = 3

var (
	verdictLine   = regexp.MustCompile(`(?i)^\s*(\d+)\s*[:.)\-]\s*(yes|no)\b`)
	sentenceBreak = regexp.MustCompile(`([.!?])\s+`)
	listMarker    = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)
)

// Harness computes faithfulness, answer relevancy, context precision and
// context recall for one record.
type Harness struct {
	llm       driven.LLMService
	embedder  driven.EmbeddingService
	prompts   driven.PromptStore
	questions int
}

// Option configures a Harness.
type Option func(*Harness)

// WithQuestionCount sets how many questions answer relevancy regenerates.
func WithQuestionCount(n int) Option {
	return func(h *Harness) {
		if n > 0 {
			h.questions = n
		}
	}
}

// NewHarness creates a harness. All dependencies are required.
func NewHarness(
	llm driven.LLMService,
	embedder driven.EmbeddingService,
	prompts driven.PromptStore,
	opts ...Option,
) (*Harness, error) {
	if llm == nil {
		return nil, fmt.Errorf("evaluation judge: %w", domain.ErrLLMUnavailable)
	}
	if embedder == nil {
		return nil, fmt.Errorf("evaluation judge: %w", domain.ErrEmbeddingUnavailable)
	}
	if prompts == nil {
		return nil, errors.New("evaluation judge: no prompt store")
	}
	h := &Harness{llm: llm, embedder: embedder, prompts: prompts, questions: DefaultQuestionCount}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Score returns all four metrics, or an error if any of them fails.
func (h *Harness) Score(ctx context.Context, record domain.EvaluationRecord) (*domain.EvaluationScores, error) {
	if strings.TrimSpace(record.Question) == "" || strings.TrimSpace(record.Answer) == "" {
		return nil, fmt.Errorf("%w: question and answer are required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(record.Reference) == "" {
		return nil, fmt.Errorf("%w: reference answer is required", domain.ErrInvalidInput)
	}

	var scores domain.EvaluationScores
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		scores.Faithfulness, err = h.faithfulness(gctx, record)
		return wrap("faithfulness", err)
	})
	g.Go(func() (err error) {
		scores.AnswerRelevancy, err = h.answerRelevancy(gctx, record)
		return wrap("answer relevancy", err)
	})
	g.Go(func() (err error) {
		scores.ContextPrecision, err = h.contextPrecision(gctx, record)
		return wrap("context precision", err)
	})
	g.Go(func() (err error) {
		scores.ContextRecall, err = h.contextRecall(gctx, record)
		return wrap("context recall", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Evaluation: faithfulness=%.3f relevancy=%.3f precision=%.3f recall=%.3f",
		scores.Faithfulness, scores.AnswerRelevancy, scores.ContextPrecision, scores.ContextRecall)
	return &scores, nil
}

// faithfulness is the share of answer statements the contexts support.
func (h *Harness) faithfulness(ctx context.Context, r domain.EvaluationRecord) (float64, error) {
	out, err := h.ask(ctx, driven.PromptEvalStatements, map[string]string{
		"question": r.Question,
		"answer":   r.Answer,
	})
	if err != nil {
		return 0, err
	}
	statements := lines(out)
	if len(statements) == 0 {
		return 0, errors.New("no statements extracted from answer")
	}
	if len(r.Contexts) == 0 {
		return 0, nil
	}

	out, err = h.ask(ctx, driven.PromptEvalFaithfulness, map[string]string{
		"context":    strings.Join(r.Contexts, "\n\n"),
		"statements": numbered(statements),
	})
	if err != nil {
		return 0, err
	}
	return fraction(parseVerdicts(out), len(statements)), nil
}

// answerRelevancy is the mean cosine between the question and questions
// regenerated from the answer.
func (h *Harness) answerRelevancy(ctx context.Context, r domain.EvaluationRecord) (float64, error) {
	out, err := h.ask(ctx, driven.PromptEvalQuestions, map[string]string{
		"answer": r.Answer,
		"count":  strconv.Itoa(h.questions),
	})
	if err != nil {
		return 0, err
	}
	generated := lines(out)
	if len(generated) == 0 {
		return 0, errors.New("no questions generated from answer")
	}

	vectors, err := h.embedder.EmbedBatch(ctx, append([]string{r.Question}, generated...))
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(generated)+1 {
		return 0, fmt.Errorf("expected %d embeddings, got %d", len(generated)+1, len(vectors))
	}
	var sum float64
	for _, v := range vectors[1:] {
		sum += domain.CosineSimilarity(vectors[0], v)
	}
	return clamp(sum / float64(len(generated))), nil
}

// contextPrecision is the average precision of per-context usefulness
// verdicts taken in rank order.
func (h *Harness) contextPrecision(ctx context.Context, r domain.EvaluationRecord) (float64, error) {
	useful := make([]bool, len(r.Contexts))
	for i, c := range r.Contexts {
		out, err := h.ask(ctx, driven.PromptEvalContextVerdict, map[string]string{
			"question":  r.Question,
			"reference": r.Reference,
			"context":   c,
		})
		if err != nil {
			return 0, err
		}
		useful[i] = isYes(out)
	}
	return averagePrecision(useful), nil
}

// contextRecall is the share of reference sentences attributable to the contexts.
func (h *Harness) contextRecall(ctx context.Context, r domain.EvaluationRecord) (float64, error) {
	sentences := splitSentences(r.Reference)
	if len(r.Contexts) == 0 {
		return 0, nil
	}
	out, err := h.ask(ctx, driven.PromptEvalRecall, map[string]string{
		"context":   strings.Join(r.Contexts, "\n\n"),
		"reference": numbered(sentences),
	})
	if err != nil {
		return 0, err
	}
	return fraction(parseVerdicts(out), len(sentences)), nil
}

func (h *Harness) ask(ctx context.Context, prompt string, vars map[string]string) (string, error) {
	tmpl, err := h.prompts.Load(prompt)
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", prompt, err)
	}
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	text := strings.NewReplacer(pairs...).Replace(tmpl)
	return h.llm.Generate(ctx, text, driven.GenerateOptions{}.WithTemperature(0))
}

func wrap(metric string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", metric, err)
}

// lines splits a reply into non-empty items, dropping list markers.
func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimSpace(listMarker.ReplaceAllString(l, ""))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func numbered(items []string) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it)
	}
	return b.String()
}

// parseVerdicts reads "N: yes|no" lines into a set of supported item numbers.
func parseVerdicts(s string) map[int]bool {
	out := make(map[int]bool)
	for _, l := range strings.Split(s, "\n") {
		m := verdictLine.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out[n] = strings.EqualFold(m[2], "yes")
	}
	return out
}

// fraction counts yes verdicts for items 1..total. Missing verdicts count as no.
func fraction(verdicts map[int]bool, total int) float64 {
	if total == 0 {
		return 0
	}
	yes := 0
	for i := 1; i <= total; i++ {
		if verdicts[i] {
			yes++
		}
	}
	return float64(yes) / float64(total)
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "yes")
}

func averagePrecision(useful []bool) float64 {
	var hits, sum float64
	for i, u := range useful {
		if !u {
			continue
		}
		hits++
		sum += hits / float64(i+1)
	}
	if hits == 0 {
		return 0
	}
	return sum / hits
}

func splitSentences(text string) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		marked := sentenceBreak.ReplaceAllString(para, "$1\n")
		for _, s := range strings.Split(marked, "\n") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
