package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"disinfocrawl/internal/engine"
)

// TikTok scraping over the web surface: video pages carry a hydration
// JSON blob with the full item struct, comments come from the same
// internal API the web player calls. Everything goes through the
// Chrome-fingerprint BrowserClient — the plain API is fingerprinted.

const (
	hydrationScriptID = "#__UNIVERSAL_DATA_FOR_REHYDRATION__"
	commentListURL    = "https://www.tiktok.com/api/comment/list/"
)

// videoIDRE pulls the numeric video id out of a canonical video URL.
var videoIDRE = regexp.MustCompile(`/video/(\d+)`)

// TikTokClient implements engine.Scraper against tiktok.com.
type TikTokClient struct {
	bc      *engine.BrowserClient
	limiter *rate.Limiter
	dataDir string
	retry   engine.RetryConfig
}

// NewTikTokClient builds a scraper that stores downloaded media under
// dataDir. Requests are paced to stay under the platform's radar.
func NewTikTokClient(dataDir string) (*TikTokClient, error) {
	bc, err := engine.NewBrowserClient()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	return &TikTokClient{
		bc:      bc,
		limiter: rate.NewLimiter(rate.Limit(0.5), 1), // one request per 2s
		dataDir: dataDir,
		retry:   engine.DefaultRetryConfig,
	}, nil
}

// get fetches a URL with pacing, retry and status checking.
func (c *TikTokClient) get(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	engine.IncrScrapeRequests()
	body, err := engine.RetryDo(ctx, c.retry, func() ([]byte, error) {
		data, status, err := c.bc.Do("GET", u, headers, nil)
		if err != nil {
			return nil, err
		}
		if engine.IsRetryableStatus(status) {
			return nil, engine.RetryableStatusError(status)
		}
		if status != 200 {
			return nil, fmt.Errorf("status %d", status)
		}
		return data, nil
	})
	if err != nil {
		engine.IncrScrapeErrors()
	}
	return body, err
}

// --- hydration JSON wire types (only the fields we read) ---

type hydrationData struct {
	DefaultScope struct {
		VideoDetail struct {
			ItemInfo struct {
				ItemStruct tiktokItem `json:"itemStruct"`
			} `json:"itemInfo"`
		} `json:"webapp.video-detail"`
	} `json:"__DEFAULT_SCOPE__"`
}

type tiktokItem struct {
	ID         string      `json:"id"`
	Desc       string      `json:"desc"`
	CreateTime json.Number `json:"createTime"`
	Author     struct {
		ID       string `json:"id"`
		UniqueID string `json:"uniqueId"`
	} `json:"author"`
	Stats struct {
		DiggCount    int `json:"diggCount"`
		ShareCount   int `json:"shareCount"`
		CommentCount int `json:"commentCount"`
		PlayCount    int `json:"playCount"`
	} `json:"stats"`
	Video struct {
		PlayAddr string `json:"playAddr"`
	} `json:"video"`
	LocationCreated string `json:"locationCreated"`
}

// fetchItem loads a video page and decodes the embedded hydration JSON.
func (c *TikTokClient) fetchItem(ctx context.Context, videoURL string) (tiktokItem, error) {
	var zero tiktokItem
	page, err := c.get(ctx, videoURL, engine.ChromeHeaders())
	if err != nil {
		return zero, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return zero, fmt.Errorf("parse page: %w", err)
	}
	raw := doc.Find(hydrationScriptID).Text()
	if raw == "" {
		return zero, fmt.Errorf("hydration data not found (captcha or layout change)")
	}

	var data hydrationData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return zero, fmt.Errorf("decode hydration data: %w", err)
	}
	item := data.DefaultScope.VideoDetail.ItemInfo.ItemStruct
	if item.ID == "" {
		return zero, fmt.Errorf("no item struct in hydration data")
	}
	return item, nil
}

// DownloadVideo fetches the video page, extracts metadata and saves the
// media file under the data dir.
func (c *TikTokClient) DownloadVideo(ctx context.Context, videoURL string) (engine.VideoMeta, error) {
	var zero engine.VideoMeta
	item, err := c.fetchItem(ctx, videoURL)
	if err != nil {
		return zero, &engine.FetchError{Op: "download", URL: videoURL, Err: err}
	}
	if item.Video.PlayAddr == "" {
		return zero, &engine.FetchError{Op: "download", URL: videoURL, Err: fmt.Errorf("no play address")}
	}

	headers := engine.ChromeHeaders()
	headers["referer"] = videoURL
	media, err := c.get(ctx, item.Video.PlayAddr, headers)
	if err != nil {
		return zero, &engine.FetchError{Op: "download", URL: videoURL, Err: err}
	}

	localPath := filepath.Join(c.dataDir, item.ID+".mp4")
	if err := os.WriteFile(localPath, media, 0o644); err != nil {
		return zero, &engine.FetchError{Op: "download", URL: videoURL, Err: err}
	}

	ts, _ := item.CreateTime.Int64()
	return engine.VideoMeta{
		LocalPath: localPath,
		AuthorID:  item.Author.ID,
		Username:  item.Author.UniqueID,
		Timestamp: ts,
		Stats: engine.Stats{
			Likes:    item.Stats.DiggCount,
			Shares:   item.Stats.ShareCount,
			Comments: item.Stats.CommentCount,
			Plays:    item.Stats.PlayCount,
		},
		Description: item.Desc,
		Location:    item.LocationCreated,
	}, nil
}

// --- comment API wire types ---

type commentListResp struct {
	Comments []struct {
		CID        string `json:"cid"`
		Text       string `json:"text"`
		DiggCount  int    `json:"digg_count"`
		CreateTime int64  `json:"create_time"`
		User       struct {
			UID      string `json:"uid"`
			UniqueID string `json:"unique_id"`
		} `json:"user"`
		AuthorDigged bool `json:"is_author_digged"`
		// ranking metadata, e.g. {"is_top_in_ranklist":true}
		SortTags string `json:"sort_tags"`
	} `json:"comments"`
	StatusCode int `json:"status_code"`
}

// FetchComments returns up to limit earliest comments for a video, in
// API order.
func (c *TikTokClient) FetchComments(ctx context.Context, videoURL string, limit int) ([]engine.Comment, error) {
	m := videoIDRE.FindStringSubmatch(videoURL)
	if m == nil {
		return nil, &engine.FetchError{Op: "comments", URL: videoURL, Err: fmt.Errorf("no video id in URL")}
	}

	q := url.Values{}
	q.Set("aweme_id", m[1])
	q.Set("count", fmt.Sprint(limit))
	q.Set("cursor", "0")

	headers := engine.ChromeHeaders()
	headers["referer"] = videoURL
	body, err := c.get(ctx, commentListURL+"?"+q.Encode(), headers)
	if err != nil {
		return nil, &engine.FetchError{Op: "comments", URL: videoURL, Err: err}
	}

	var resp commentListResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &engine.FetchError{Op: "comments", URL: videoURL, Err: fmt.Errorf("decode comments: %w", err)}
	}
	if resp.StatusCode != 0 {
		return nil, &engine.FetchError{Op: "comments", URL: videoURL, Err: fmt.Errorf("api status %d", resp.StatusCode)}
	}

	out := make([]engine.Comment, 0, len(resp.Comments))
	for _, cm := range resp.Comments {
		out = append(out, engine.Comment{
			AuthorID:      cm.User.UID,
			Username:      cm.User.UniqueID,
			Text:          cm.Text,
			Likes:         cm.DiggCount,
			Timestamp:     cm.CreateTime,
			LikedByAuthor: cm.AuthorDigged,
			TopListMarked: strings.Contains(cm.SortTags, "top"),
		})
	}
	return out, nil
}

// RecentVideoURLs scrapes a user's profile page for their latest video
// links. Returns an empty slice for private or empty profiles.
func (c *TikTokClient) RecentVideoURLs(ctx context.Context, username string, n int) ([]string, error) {
	profileURL := "https://www.tiktok.com/@" + username
	page, err := c.get(ctx, profileURL, engine.ChromeHeaders())
	if err != nil {
		return nil, &engine.FetchError{Op: "user-videos", URL: profileURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, &engine.FetchError{Op: "user-videos", URL: profileURL, Err: err}
	}

	seen := make(map[string]bool)
	var urls []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, "/@"+username+"/video/") {
			return true
		}
		href = engine.NormalizeURL(href)
		if strings.HasPrefix(href, "/") {
			href = "https://www.tiktok.com" + href
		}
		if !seen[href] {
			seen[href] = true
			urls = append(urls, href)
		}
		return len(urls) < n
	})
	return urls, nil
}
