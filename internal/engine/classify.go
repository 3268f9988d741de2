package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Classification is the pipeline's output for one transcript.
type Classification struct {
	Verdict    Verdict     `json:"verdict"`
	Narratives []Narrative `json:"narratives,omitempty"`
}

// Classifier runs the three-stage classification pipeline:
//
//  1. open-ended reasoning call over the transcript
//  2. regex conclusion matching — a negative conclusion short-circuits
//     to clean with no further calls
//  3. schema-constrained extraction call, shape depending on whether the
//     positive matcher already settled the verdict
//
// The short-circuit is a cost control: most transcripts are clearly
// clean, and stage 2 spares them the structured call.
type Classifier struct {
	llm      Completer
	detector ConclusionDetector
	catalog  []NarrativeEntry
	// rendered once at construction; the catalog is immutable after that
	catalogText string
	cache       *Cache
}

// ClassifierOption customizes a Classifier.
type ClassifierOption func(*Classifier)

// WithDetector replaces the default regex conclusion detector.
func WithDetector(d ConclusionDetector) ClassifierOption {
	return func(c *Classifier) { c.detector = d }
}

// WithCache attaches a classification cache keyed by transcript hash.
func WithCache(cache *Cache) ClassifierOption {
	return func(c *Classifier) { c.cache = cache }
}

// NewClassifier builds a pipeline over the given completion client and
// narrative catalog.
func NewClassifier(llm Completer, catalog []NarrativeEntry, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		llm:         llm,
		detector:    NewRegexDetector(),
		catalog:     catalog,
		catalogText: renderCatalog(catalog),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// complete wraps the LLM call with metrics.
func (c *Classifier) complete(ctx context.Context, system, prompt string) (string, error) {
	metrics.LLMCalls.Add(1)
	resp, err := c.llm.Complete(ctx, system, prompt)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return resp, nil
}

// Structured response shapes for stage 3. Pointer fields distinguish
// "absent" from zero when validating.
type narrativesResp struct {
	Narratives *[]Narrative `json:"narratives"`
}

type decideResp struct {
	Result     *int         `json:"result"`
	Narratives *[]Narrative `json:"narratives"`
}

// Classify evaluates one transcript. A malformed structured response
// returns *ParseError untouched — no retry, no repair; the caller owns
// recovery.
func (c *Classifier) Classify(ctx context.Context, transcript string) (Classification, error) {
	key := CacheKey("classify", transcript)
	if out, ok := c.cache.Get(ctx, key); ok {
		return out, nil
	}

	reasoning, err := c.complete(ctx, reasoningSystem, fmt.Sprintf(reasoningPrompt, transcript))
	if err != nil {
		return Classification{}, fmt.Errorf("reasoning stage: %w", err)
	}

	var out Classification
	switch c.detector.Detect(reasoning) {
	case ConclusionNegative:
		// Clearly clean: stop here, the structured call never happens.
		metrics.ShortCircuits.Add(1)
		out = Classification{Verdict: VerdictClean}

	case ConclusionPositive:
		narratives, err := c.extractForced(ctx, transcript)
		if err != nil {
			return Classification{}, err
		}
		out = Classification{Verdict: VerdictBad, Narratives: narratives}

	default:
		out, err = c.extractDecide(ctx, transcript)
		if err != nil {
			return Classification{}, err
		}
	}

	metrics.VideosClassified.Add(1)
	c.cache.Set(ctx, key, out)
	return out, nil
}

// extractForced runs stage 3 when the positive matcher already fired:
// verdict is settled bad, the model only names the narratives.
func (c *Classifier) extractForced(ctx context.Context, transcript string) ([]Narrative, error) {
	raw, err := c.complete(ctx, "", fmt.Sprintf(extractForcedPrompt, c.catalogText, transcript))
	if err != nil {
		return nil, fmt.Errorf("extraction stage: %w", err)
	}
	raw = stripFences(raw)

	var resp narrativesResp
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		metrics.ParseErrors.Add(1)
		return nil, &ParseError{Stage: "narratives", Raw: raw, Err: err}
	}
	if resp.Narratives == nil {
		metrics.ParseErrors.Add(1)
		return nil, &ParseError{Stage: "narratives", Raw: raw, Err: fmt.Errorf("missing narratives field")}
	}
	return *resp.Narratives, nil
}

// extractDecide runs stage 3 when neither matcher fired: the model both
// decides and lists. result=0, or an ambiguous answer with no narratives,
// collapses to clean — same heuristic as the source behavior.
func (c *Classifier) extractDecide(ctx context.Context, transcript string) (Classification, error) {
	raw, err := c.complete(ctx, "", fmt.Sprintf(extractDecidePrompt, c.catalogText, transcript))
	if err != nil {
		return Classification{}, fmt.Errorf("extraction stage: %w", err)
	}
	raw = stripFences(raw)

	var resp decideResp
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		metrics.ParseErrors.Add(1)
		return Classification{}, &ParseError{Stage: "decide", Raw: raw, Err: err}
	}
	if resp.Result == nil {
		metrics.ParseErrors.Add(1)
		return Classification{}, &ParseError{Stage: "decide", Raw: raw, Err: fmt.Errorf("missing result field")}
	}
	if *resp.Result != 0 && *resp.Result != 1 {
		metrics.ParseErrors.Add(1)
		return Classification{}, &ParseError{Stage: "decide", Raw: raw, Err: fmt.Errorf("result must be 0 or 1, got %d", *resp.Result)}
	}

	if *resp.Result == 1 && resp.Narratives != nil && len(*resp.Narratives) > 0 {
		return Classification{Verdict: VerdictBad, Narratives: *resp.Narratives}, nil
	}
	return Classification{Verdict: VerdictClean}, nil
}
