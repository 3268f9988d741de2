package engine

import "regexp"

// Conclusion is the outcome of pattern-matching the reasoning stage's
// free text.
type Conclusion int

const (
	ConclusionNone     Conclusion = iota // neither matcher fired
	ConclusionNegative                   // explicit "no propaganda" conclusion
	ConclusionPositive                   // explicit "yes, contains" conclusion
)

// ConclusionDetector decides whether a reasoning text reached an explicit
// yes/no conclusion, so the pipeline can skip the paid structured call
// for the common clearly-clean case.
type ConclusionDetector interface {
	Detect(reasoning string) Conclusion
}

// Pattern lists live here, apart from the call orchestration, so they can
// be tuned and tested on their own. Matching is heuristic on purpose: a
// hedged "no" that slips past the negative list just falls through to the
// structured stage. That trade (small false-negative risk for fewer paid
// calls) is the point of the stage, not a defect.
var (
	negativePatterns = []string{
		`\bno\b[^.!?\n]{0,80}\b(?:propaganda|disinformation|narratives?)\b`,
		`\b(?:does not|doesn't|do not|don't)\s+(?:contain|push|promote|advance|spread)\b`,
		`\bis(?:n't| not)\s+(?:propaganda|disinformation)\b`,
		`\bnot\s+(?:a\s+)?(?:propaganda|disinformation)\b`,
		`\b(?:propaganda|disinformation|narratives?)[^.!?\n]{0,40}\b(?:absent|not (?:found|present|detected))\b`,
		`\bconclusion\b[^a-z]{0,5}no\b`,
	}
	positivePatterns = []string{
		`\byes\b[^.!?\n]{0,80}\b(?:propaganda|disinformation|narratives?)\b`,
		`\b(?:does\s+)?contains?\s+(?:a\s+|known\s+)*(?:propaganda|disinformation|narratives?)\b`,
		`\bis\s+(?:clearly\s+|likely\s+)?(?:propaganda|disinformation)\b`,
		`\b(?:pushes|promotes|advances|spreads)\s+(?:a\s+|the\s+|known\s+)*(?:propaganda|disinformation|narratives?)\b`,
		`\bconclusion\b[^a-z]{0,5}yes\b`,
	}
)

// RegexDetector is the default ConclusionDetector: two mutually exclusive
// regex sets applied to the lowercased reasoning text, negative first.
type RegexDetector struct {
	negative []*regexp.Regexp
	positive []*regexp.Regexp
}

// NewRegexDetector compiles the default pattern lists.
func NewRegexDetector() *RegexDetector {
	return &RegexDetector{
		negative: compilePatterns(negativePatterns),
		positive: compilePatterns(positivePatterns),
	}
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Detect applies the negative matchers, then the positive ones. Negative
// wins: if both sides would match, the text is treated as a negative
// conclusion and the pipeline short-circuits to clean.
func (d *RegexDetector) Detect(reasoning string) Conclusion {
	for _, re := range d.negative {
		if re.MatchString(reasoning) {
			return ConclusionNegative
		}
	}
	for _, re := range d.positive {
		if re.MatchString(reasoning) {
			return ConclusionPositive
		}
	}
	return ConclusionNone
}
