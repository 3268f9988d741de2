package engine

import "strings"

// NormalizeURL strips the query string and fragment from a video URL.
// The result is the sole identity key for the metadata store: two share
// links pointing at the same video (differing only in tracking params)
// normalize to the same record. Idempotent.
func NormalizeURL(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return url
}
