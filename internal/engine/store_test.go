package engine

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "metadata.json")
}

func TestStoreGetNotFound(t *testing.T) {
	s := NewStore(tempStorePath(t))
	_, err := s.Get("https://www.tiktok.com/@x/video/1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreUpdateCreatesAndMerges(t *testing.T) {
	s := NewStore(tempStorePath(t))
	url := "https://www.tiktok.com/@x/video/1?share=copy"

	require.NoError(t, s.Update(url, func(r *VideoRecord) { r.Username = "x" }))
	require.NoError(t, s.Update(url, func(r *VideoRecord) { r.Transcript = "hello" }))

	// query-stripped lookup hits the same record
	rec, err := s.Get("https://www.tiktok.com/@x/video/1")
	require.NoError(t, err)
	assert.Equal(t, "x", rec.Username)
	assert.Equal(t, "hello", rec.Transcript)
	assert.Equal(t, "https://www.tiktok.com/@x/video/1", rec.URL)
	assert.Equal(t, 1, s.Len())
}

func TestStorePersistRoundTrip(t *testing.T) {
	path := tempStorePath(t)

	s := NewStore(path)
	url := "https://www.tiktok.com/@x/video/1"
	require.NoError(t, s.Update(url, func(r *VideoRecord) {
		r.Username = "x"
		r.AuthorID = "42"
		r.Timestamp = 1731700011
		r.Stats = Stats{Likes: 5, Shares: 1, Comments: 2, Plays: 100}
		r.Description = "desc"
		r.Location = "US"
		r.Transcript = "some words"
		r.Comments = []Comment{{Username: "y", Text: "hi", Likes: 3, LikedByAuthor: true, TopListMarked: true}}
		r.SetVerdict(VerdictBad, []Narrative{"west-weakening-russia", "4"})
	}))
	require.NoError(t, s.Persist())

	// fresh store on the same file, as a fresh process would see it
	s2 := NewStore(path)
	rec, err := s2.Get(url)
	require.NoError(t, err)

	orig, err := s.Get(url)
	require.NoError(t, err)
	assert.Equal(t, orig, rec)
	assert.Equal(t, VerdictBad, rec.Verdict())
}

func TestStoreVerdictTriState(t *testing.T) {
	rec := &VideoRecord{URL: "u"}
	assert.Equal(t, VerdictUnclassified, rec.Verdict())

	rec.SetVerdict(VerdictClean, nil)
	assert.Equal(t, VerdictClean, rec.Verdict())

	rec.SetVerdict(VerdictBad, []Narrative{"x"})
	assert.Equal(t, VerdictBad, rec.Verdict())
}

func TestStoreTransfer(t *testing.T) {
	src := NewStore(tempStorePath(t))
	dst := NewStore(tempStorePath(t))
	url := "https://www.tiktok.com/@x/video/1"

	require.NoError(t, src.Update(url, func(r *VideoRecord) {
		r.Username = "x"
		r.SetVerdict(VerdictBad, []Narrative{"nazi-ukraine"})
	}))
	require.NoError(t, src.Transfer(url, dst))

	got, err := dst.Get(url)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Username)
	assert.Equal(t, VerdictBad, got.Verdict())

	// copies are independent
	require.NoError(t, src.Update(url, func(r *VideoRecord) { r.Username = "changed" }))
	got, err = dst.Get(url)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Username)
}

func TestStoreRecordsInsertionOrder(t *testing.T) {
	s := NewStore(tempStorePath(t))
	urls := []string{"https://t/v/3", "https://t/v/1", "https://t/v/2"}
	for _, u := range urls {
		require.NoError(t, s.Update(u, func(r *VideoRecord) {}))
	}
	recs := s.Records()
	require.Len(t, recs, 3)
	for i, u := range urls {
		assert.Equal(t, u, recs[i].URL)
	}
}
