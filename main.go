// disinfocrawl — seed-expanding disinformation crawl.
//
// Starts from one operator-supplied video URL, classifies its transcript
// for known propaganda narratives, then iteratively scores the commenters
// on confirmed-bad videos and investigates the most suspicious accounts.
//
// No flags: behavior is driven entirely by environment variables.
// Exits 0 on completion, 1 if the seed could not be classified.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"

	"disinfocrawl/internal/engine"
	"disinfocrawl/internal/engine/sources"
)

func main() {
	if err := run(); err != nil {
		slog.Error("crawl failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	seedURL := env.Str("SEED_URL", "")
	if seedURL == "" {
		return errors.New("SEED_URL is required")
	}

	catalog, err := engine.LoadCatalog(env.Str("NARRATIVES_PATH", "narratives.json"))
	if err != nil {
		return err
	}

	llmClient := llm.NewClient(
		env.Str("LLM_API_BASE", "https://api.openai.com/v1"),
		env.Str("LLM_API_KEY", ""),
		env.Str("LLM_MODEL", "gpt-4o-mini"),
		llm.WithMaxTokens(env.Int("LLM_MAX_TOKENS", 2048)),
		llm.WithTemperature(env.Float("LLM_TEMPERATURE", 0.1)),
		llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)
	completer := engine.CompleteFunc(func(ctx context.Context, system, prompt string) (string, error) {
		return llmClient.Complete(ctx, system, prompt)
	})

	cache := engine.NewCache(
		env.Str("REDIS_URL", ""),
		env.Duration("CACHE_TTL", 24*time.Hour),
		env.Int("CACHE_MAX_ENTRIES", 1000),
		env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	)
	classifier := engine.NewClassifier(completer, catalog, engine.WithCache(cache))

	scraper, err := sources.NewTikTokClient(env.Str("DATA_DIR", "tiktok_data"))
	if err != nil {
		return err
	}
	transcriber := sources.NewWhisperTranscriber(env.Str("OPENAI_API_KEY", ""))

	crawler := engine.NewCrawler(engine.CrawlerConfig{
		Store:               engine.NewStore(env.Str("METADATA_PATH", "metadata.json")),
		BadStore:            engine.NewStore(env.Str("BAD_METADATA_PATH", "bad_videos_metadata.json")),
		Scraper:             scraper,
		Transcriber:         transcriber,
		Classifier:          classifier,
		Rounds:              env.Int("CRAWL_ROUNDS", 1),
		CandidatesPerRound:  env.Int("CANDIDATES_PER_ROUND", 10),
		CommentsPerVideo:    env.Int("COMMENTS_PER_VIDEO", 20),
		CommentFetchLimit:   env.Int("COMMENT_FETCH_LIMIT", 50),
		RecentVideosPerUser: env.Int("RECENT_VIDEOS_PER_USER", 1),
	})

	slog.Info("starting crawl", slog.String("seed", seedURL))
	err = crawler.Run(context.Background(), seedURL)

	slog.Info("run metrics\n" + engine.FormatMetrics())
	return err
}
