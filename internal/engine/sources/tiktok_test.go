package sources

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVideoIDPattern(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.tiktok.com/@user/video/7301234567890123456", "7301234567890123456"},
		{"https://www.tiktok.com/@user.name/video/123", "123"},
		{"https://www.tiktok.com/@user", ""},
	}
	for _, tt := range tests {
		m := videoIDRE.FindStringSubmatch(tt.url)
		got := ""
		if m != nil {
			got = m[1]
		}
		if got != tt.want {
			t.Errorf("videoIDRE(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestHydrationDecode(t *testing.T) {
	raw := `{
		"__DEFAULT_SCOPE__": {
			"webapp.video-detail": {
				"itemInfo": {
					"itemStruct": {
						"id": "7301234567890123456",
						"desc": "some caption #fyp",
						"createTime": "1731700011",
						"author": {"id": "42", "uniqueId": "someuser"},
						"stats": {"diggCount": 5, "shareCount": 1, "commentCount": 2, "playCount": 100},
						"video": {"playAddr": "https://v16.tiktokcdn.com/abc"},
						"locationCreated": "US"
					}
				}
			}
		}
	}`

	var data hydrationData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	item := data.DefaultScope.VideoDetail.ItemInfo.ItemStruct
	if item.ID != "7301234567890123456" {
		t.Errorf("id = %q", item.ID)
	}
	if item.Author.UniqueID != "someuser" || item.Author.ID != "42" {
		t.Errorf("author = %+v", item.Author)
	}
	ts, err := item.CreateTime.Int64()
	if err != nil || ts != 1731700011 {
		t.Errorf("createTime = %v (%v)", ts, err)
	}
	if item.Stats.PlayCount != 100 || item.Video.PlayAddr == "" {
		t.Errorf("stats/video = %+v / %+v", item.Stats, item.Video)
	}
}

func TestHydrationDecodeNumericCreateTime(t *testing.T) {
	// the field arrives as a bare number on some page variants
	raw := `{"__DEFAULT_SCOPE__": {"webapp.video-detail": {"itemInfo": {"itemStruct": {"id": "1", "createTime": 1731700011}}}}}`

	var data hydrationData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	ts, err := data.DefaultScope.VideoDetail.ItemInfo.ItemStruct.CreateTime.Int64()
	if err != nil || ts != 1731700011 {
		t.Errorf("createTime = %v (%v)", ts, err)
	}
}

func TestCommentListDecode(t *testing.T) {
	raw := `{
		"status_code": 0,
		"comments": [
			{
				"cid": "c1",
				"text": "so true",
				"digg_count": 12,
				"create_time": 1731700100,
				"user": {"uid": "u1", "unique_id": "commenter"},
				"is_author_digged": true,
				"sort_tags": "{\"is_top_in_ranklist\":true}"
			},
			{
				"cid": "c2",
				"text": "meh",
				"user": {"uid": "u2", "unique_id": "other"}
			}
		]
	}`

	var resp commentListResp
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != 0 || len(resp.Comments) != 2 {
		t.Fatalf("status=%d comments=%d", resp.StatusCode, len(resp.Comments))
	}

	first := resp.Comments[0]
	if first.User.UniqueID != "commenter" || !first.AuthorDigged || first.DiggCount != 12 {
		t.Errorf("first comment = %+v", first)
	}
	if !strings.Contains(first.SortTags, "top") {
		t.Error("sort tags should mark the comment as top-listed")
	}
	if strings.Contains(resp.Comments[1].SortTags, "top") {
		t.Error("plain comment must not read as top-listed")
	}
}
