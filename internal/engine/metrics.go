package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across one crawl run.
var metrics struct {
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	ParseErrors        atomic.Int64
	ShortCircuits      atomic.Int64
	ScrapeRequests     atomic.Int64
	ScrapeErrors       atomic.Int64
	TranscribeRequests atomic.Int64
	TranscribeErrors   atomic.Int64
	VideosClassified   atomic.Int64
	CandidatesChecked  atomic.Int64
	CandidatesSkipped  atomic.Int64
}

// GetMetrics returns a snapshot of all counters including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"parse_errors":        metrics.ParseErrors.Load(),
		"short_circuits":      metrics.ShortCircuits.Load(),
		"scrape_requests":     metrics.ScrapeRequests.Load(),
		"scrape_errors":       metrics.ScrapeErrors.Load(),
		"transcribe_requests": metrics.TranscribeRequests.Load(),
		"transcribe_errors":   metrics.TranscribeErrors.Load(),
		"videos_classified":   metrics.VideosClassified.Load(),
		"candidates_checked":  metrics.CandidatesChecked.Load(),
		"candidates_skipped":  metrics.CandidatesSkipped.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns counters as simple "name value" lines.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"llm_calls", "llm_errors", "parse_errors", "short_circuits",
		"scrape_requests", "scrape_errors",
		"transcribe_requests", "transcribe_errors",
		"videos_classified", "candidates_checked", "candidates_skipped",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the sources/ sub-package.
func IncrScrapeRequests()     { metrics.ScrapeRequests.Add(1) }
func IncrScrapeErrors()       { metrics.ScrapeErrors.Add(1) }
func IncrTranscribeRequests() { metrics.TranscribeRequests.Add(1) }
func IncrTranscribeErrors()   { metrics.TranscribeErrors.Add(1) }
