package engine

import "context"

// --- Verdicts ---

// Verdict is the classification outcome for one video transcript.
type Verdict string

const (
	VerdictUnclassified Verdict = ""
	VerdictClean        Verdict = "clean"
	VerdictBad          Verdict = "bad"
)

// --- Records ---

// Stats holds engagement counters for a video.
type Stats struct {
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
	Plays    int `json:"plays"`
}

// Comment is one comment on a video. Comments are embedded in their
// VideoRecord, never persisted on their own.
type Comment struct {
	AuthorID      string `json:"author_id,omitempty"`
	Username      string `json:"username"`
	Text          string `json:"text"`
	Likes         int    `json:"likes"`
	Timestamp     int64  `json:"timestamp,omitempty"`
	LikedByAuthor bool   `json:"is_liked_by_author"`
	TopListMarked bool   `json:"is_top_list_marked"`
}

// VideoRecord is the unit of the metadata store. Identity is the
// normalized URL; fields fill in stage by stage as a video moves through
// download → comments → transcription → classification.
type VideoRecord struct {
	URL            string    `json:"url"`
	AuthorID       string    `json:"author_id,omitempty"`
	Username       string    `json:"username,omitempty"`
	Timestamp      int64     `json:"timestamp,omitempty"`
	Stats          Stats     `json:"stats"`
	Description    string    `json:"description,omitempty"`
	Location       string    `json:"location,omitempty"`
	LocalVideoPath string    `json:"local_video_path,omitempty"`
	Transcript     string    `json:"transcript,omitempty"`
	Comments       []Comment `json:"comments,omitempty"`
	// nil until classified; then true = bad, false = clean.
	DisinformationFound *bool       `json:"disinformation_found,omitempty"`
	Narratives          []Narrative `json:"narratives,omitempty"`
}

// Verdict derives the tri-state verdict from the persisted flag.
func (r *VideoRecord) Verdict() Verdict {
	switch {
	case r.DisinformationFound == nil:
		return VerdictUnclassified
	case *r.DisinformationFound:
		return VerdictBad
	default:
		return VerdictClean
	}
}

// SetVerdict records a classification outcome on the record.
func (r *VideoRecord) SetVerdict(v Verdict, narratives []Narrative) {
	bad := v == VerdictBad
	r.DisinformationFound = &bad
	r.Narratives = narratives
}

// --- External collaborators ---

// VideoMeta is what the scraper learns about a video at download time.
type VideoMeta struct {
	LocalPath   string
	AuthorID    string
	Username    string
	Timestamp   int64
	Stats       Stats
	Description string
	Location    string
}

// Scraper fetches videos, comments and per-user video listings.
// Implementations live in sources/; failures must come back as errors,
// never panics — the crawler decides what to do with them.
type Scraper interface {
	DownloadVideo(ctx context.Context, url string) (VideoMeta, error)
	FetchComments(ctx context.Context, url string, limit int) ([]Comment, error)
	RecentVideoURLs(ctx context.Context, username string, n int) ([]string, error)
}

// Transcriber turns downloaded media into plain transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, localPath string) (string, error)
}

// Completer is the LLM completion surface the classifier needs.
// system may be empty.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// CompleteFunc adapts a plain function to Completer.
type CompleteFunc func(ctx context.Context, system, prompt string) (string, error)

func (f CompleteFunc) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}
