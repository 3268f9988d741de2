package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// CrawlerConfig wires the crawler's collaborators and knobs. Zero knobs
// get the defaults below.
type CrawlerConfig struct {
	Store       *Store // working metadata store
	BadStore    *Store // confirmed-bad view, input corpus for scoring
	Scraper     Scraper
	Transcriber Transcriber
	Classifier  *Classifier

	Rounds              int // crawl rounds after the seed (default 1)
	CandidatesPerRound  int // top-K suspects checked per round (default 10)
	CommentsPerVideo    int // scoring cap per video (default 20)
	CommentFetchLimit   int // comments requested from the scraper (default 50)
	RecentVideosPerUser int // videos checked per candidate (default 1)
}

// Crawler runs one seed-expanding crawl: classify the seed, then rounds
// of score → fetch → classify → update over suspected commenters.
//
// Strictly sequential: every external call is a blocking round trip and
// nothing overlaps, so a run's trace is reproducible given identical
// external responses.
type Crawler struct {
	cfg CrawlerConfig
	// usernames checked and found clean; never rechecked within a run
	clean map[string]bool
}

// NewCrawler applies defaults and returns a crawler ready for one run.
func NewCrawler(cfg CrawlerConfig) *Crawler {
	if cfg.Rounds <= 0 {
		cfg.Rounds = 1
	}
	if cfg.CandidatesPerRound <= 0 {
		cfg.CandidatesPerRound = 10
	}
	if cfg.CommentsPerVideo <= 0 {
		cfg.CommentsPerVideo = 20
	}
	if cfg.CommentFetchLimit <= 0 {
		cfg.CommentFetchLimit = 50
	}
	if cfg.RecentVideosPerUser <= 0 {
		cfg.RecentVideosPerUser = 1
	}
	return &Crawler{cfg: cfg, clean: make(map[string]bool)}
}

// CleanUsers returns the usernames confirmed clean so far.
func (c *Crawler) CleanUsers() []string {
	out := make([]string, 0, len(c.clean))
	for u := range c.clean {
		out = append(out, u)
	}
	return out
}

// Run executes the whole crawl. Only the seed step is fatal: without a
// confirmed-bad seed there is no corpus to score, so any failure there
// aborts. Everything after is isolated per candidate.
func (c *Crawler) Run(ctx context.Context, seedURL string) error {
	seedURL = NormalizeURL(seedURL)
	slog.Info("seeding crawl", slog.String("url", seedURL))

	narratives, err := c.processVideo(ctx, seedURL)
	if err != nil {
		return fmt.Errorf("seed classification: %w", err)
	}
	if err := c.cfg.Store.Persist(); err != nil {
		return err
	}
	if len(narratives) == 0 {
		slog.Info("seed video classified clean, nothing to expand from")
		return nil
	}

	if err := c.cfg.Store.Transfer(seedURL, c.cfg.BadStore); err != nil {
		return fmt.Errorf("seed transfer: %w", err)
	}
	if err := c.cfg.BadStore.Persist(); err != nil {
		return err
	}
	slog.Info("seed confirmed bad", slog.Int("narratives", len(narratives)))

	for round := 1; round <= c.cfg.Rounds; round++ {
		c.runRound(ctx, round)
	}

	slog.Info("crawl finished",
		slog.Int("bad_videos", c.cfg.BadStore.Len()),
		slog.Int("clean_users", len(c.clean)),
	)
	return nil
}

// runRound scores commenters over the current bad corpus and checks the
// top-K candidates. Candidate failures are logged and skipped; they never
// abort the round and never move the user out of unchecked.
func (c *Crawler) runRound(ctx context.Context, round int) {
	bad := c.cfg.BadStore.Records()
	suspects := ScoreSuspects(bad, c.excluded(bad), c.cfg.CommentsPerVideo)
	if len(suspects) > c.cfg.CandidatesPerRound {
		suspects = suspects[:c.cfg.CandidatesPerRound]
	}
	slog.Info("round start",
		slog.Int("round", round),
		slog.Int("bad_videos", len(bad)),
		slog.Int("candidates", len(suspects)),
	)

	for _, s := range suspects {
		slog.Info("checking candidate",
			slog.String("user", s.Username),
			slog.Float64("score", s.Score),
		)
		if err := c.checkUser(ctx, s.Username); err != nil {
			metrics.CandidatesSkipped.Add(1)
			slog.Warn("candidate skipped",
				slog.String("user", s.Username),
				slog.Any("error", err),
			)
		}
	}
}

// excluded builds the scorer's exclusion predicate: authors of bad videos
// plus the clean set. Together with the unchecked remainder this is the
// three-way partition that keeps the crawl from revisiting anyone.
func (c *Crawler) excluded(bad []*VideoRecord) func(string) bool {
	authors := make(map[string]bool, len(bad))
	for _, rec := range bad {
		if rec.Username != "" {
			authors[rec.Username] = true
		}
	}
	return func(username string) bool {
		return authors[username] || c.clean[username]
	}
}

// checkUser fetches a candidate's recent videos and classifies them.
// Narratives found → records move to the bad store. None found across
// all processed videos → the user joins the clean set. If nothing could
// be processed at all, the user stays unchecked and an error comes back.
func (c *Crawler) checkUser(ctx context.Context, username string) error {
	metrics.CandidatesChecked.Add(1)

	urls, err := c.cfg.Scraper.RecentVideoURLs(ctx, username, c.cfg.RecentVideosPerUser)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		// Private or restricted account: no evidence either way.
		return fmt.Errorf("no recent videos for %s", username)
	}

	processed := 0
	found := 0
	for _, url := range urls {
		url = NormalizeURL(url)
		narratives, err := c.processVideo(ctx, url)
		if err != nil {
			slog.Warn("video skipped",
				slog.String("user", username),
				slog.String("url", url),
				slog.Any("error", err),
			)
			continue
		}
		processed++
		if len(narratives) > 0 {
			if err := c.cfg.Store.Transfer(url, c.cfg.BadStore); err != nil {
				slog.Warn("bad-store transfer failed", slog.String("url", url), slog.Any("error", err))
				continue
			}
			found++
		}
	}

	if err := c.cfg.Store.Persist(); err != nil {
		slog.Warn("store persist failed", slog.Any("error", err))
	}

	if processed == 0 {
		return fmt.Errorf("no video of %s could be processed", username)
	}
	if found > 0 {
		if err := c.cfg.BadStore.Persist(); err != nil {
			slog.Warn("bad store persist failed", slog.Any("error", err))
		}
		slog.Info("candidate confirmed bad", slog.String("user", username), slog.Int("videos", found))
		return nil
	}
	c.clean[username] = true
	slog.Info("candidate clean", slog.String("user", username))
	return nil
}

// processVideo runs one video through download → comments → transcription
// → classification, merging each stage's fields into the store. Returns
// the narratives found (empty for clean).
func (c *Crawler) processVideo(ctx context.Context, url string) ([]Narrative, error) {
	meta, err := c.cfg.Scraper.DownloadVideo(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := c.cfg.Store.Update(url, func(r *VideoRecord) {
		r.AuthorID = meta.AuthorID
		r.Username = meta.Username
		r.Timestamp = meta.Timestamp
		r.Stats = meta.Stats
		r.Description = meta.Description
		r.Location = meta.Location
		r.LocalVideoPath = meta.LocalPath
	}); err != nil {
		return nil, err
	}

	comments, err := c.cfg.Scraper.FetchComments(ctx, url, c.cfg.CommentFetchLimit)
	if err != nil {
		return nil, err
	}
	if err := c.cfg.Store.Update(url, func(r *VideoRecord) {
		r.Comments = comments
	}); err != nil {
		return nil, err
	}

	transcript, err := c.cfg.Transcriber.Transcribe(ctx, meta.LocalPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(transcript) == "" {
		// No speech, nothing to classify; the record stays unclassified.
		return nil, fmt.Errorf("empty transcript for %s", url)
	}
	if err := c.cfg.Store.Update(url, func(r *VideoRecord) {
		r.Transcript = transcript
		r.LocalVideoPath = "" // media is gone after transcription
	}); err != nil {
		return nil, err
	}

	cls, err := c.cfg.Classifier.Classify(ctx, transcript)
	if err != nil {
		return nil, err
	}
	if err := c.cfg.Store.Update(url, func(r *VideoRecord) {
		r.SetVerdict(cls.Verdict, cls.Narratives)
	}); err != nil {
		return nil, err
	}
	return cls.Narratives, nil
}
