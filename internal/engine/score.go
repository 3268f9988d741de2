package engine

import (
	"math"
	"sort"
)

// Suspect pairs a commenter username with its accumulated suspicion score.
type Suspect struct {
	Username string
	Score    float64
}

// ScoreSuspects ranks commenters on the confirmed-bad videos by how
// suspicious their commenting behavior looks. Per qualifying comment,
// additive across all of a user's comments:
//
//	+10                 for appearing at all on a bad video
//	 +5                 if the comment was algorithmically surfaced
//	+10                 if the video's author liked it
//	+log2(likes) + 1    if likes > 0 (diminishing returns, so a viral
//	                    top comment doesn't dominate linearly)
//
// Only the first commentsPerVideo comments of each video are considered
// (cost bound, not a correctness rule; 0 means no cap). Usernames for
// which excluded returns true — confirmed-bad authors and the clean set —
// never qualify, and a user with zero qualifying comments never appears
// in the output.
//
// The result is sorted descending by score; ties keep first-seen order.
func ScoreSuspects(bad []*VideoRecord, excluded func(username string) bool, commentsPerVideo int) []Suspect {
	scores := make(map[string]float64)
	var firstSeen []string

	for _, rec := range bad {
		comments := rec.Comments
		if commentsPerVideo > 0 && len(comments) > commentsPerVideo {
			comments = comments[:commentsPerVideo]
		}
		for _, cm := range comments {
			username := cm.Username
			if username == "" || (excluded != nil && excluded(username)) {
				continue
			}
			if _, ok := scores[username]; !ok {
				firstSeen = append(firstSeen, username)
			}

			s := 10.0 // seen commenting on a bad video
			if cm.TopListMarked {
				s += 5
			}
			if cm.LikedByAuthor {
				s += 10
			}
			if cm.Likes > 0 {
				s += math.Log2(float64(cm.Likes)) + 1
			}
			scores[username] += s
		}
	}

	out := make([]Suspect, 0, len(firstSeen))
	for _, username := range firstSeen {
		out = append(out, Suspect{Username: username, Score: scores[username]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
