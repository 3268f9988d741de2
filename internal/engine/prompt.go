package engine

// LLM prompt templates — data only, no logic.

// reasoningSystem frames the open-ended first stage. The explicit
// "Conclusion: yes/no" last line is what the ConclusionDetector anchors on.
const reasoningSystem = `You are an analyst screening short-video transcripts for coordinated disinformation narratives (state propaganda, influence-operation talking points).

Reason step by step, concisely:
1. What is the transcript about?
2. Does it push a recognizable propaganda or disinformation narrative, or is it ordinary content?

Finish with exactly one line: "Conclusion: yes" or "Conclusion: no".`

// reasoningPrompt wraps the transcript for the first stage.
// Args: transcript.
const reasoningPrompt = `Transcript:
%s`

// extractForcedPrompt is used when the reasoning stage already concluded
// "yes": the verdict is settled, the model only lists narratives.
// Args: catalog, transcript.
const extractForcedPrompt = `The following transcript was found to push propaganda or disinformation. Identify which narratives it advances.

Reference catalog of known narratives (use the id or label when one fits; you may also name a narrative not in the catalog):
%s

Respond with valid JSON only (no markdown, no ` + "```" + ` block):
{"narratives": ["label-or-id", ...]}

Transcript:
%s`

// extractDecidePrompt is used when the reasoning stage was inconclusive:
// the model must both decide and list narratives.
// Args: catalog, transcript.
const extractDecidePrompt = `Decide whether the following transcript pushes propaganda or disinformation narratives.

Reference catalog of known narratives (use the id or label when one fits; you may also name a narrative not in the catalog):
%s

Respond with valid JSON only (no markdown, no ` + "```" + ` block):
{"result": 1, "narratives": ["label-or-id", ...]}

Rules:
- result: 1 if the transcript pushes at least one such narrative, 0 otherwise
- narratives: the narratives found; empty list when result is 0

Transcript:
%s`
