package engine

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips query string",
			in:   "https://www.tiktok.com/@user/video/123?q=ukraine%20war&t=1731700011325",
			want: "https://www.tiktok.com/@user/video/123",
		},
		{
			name: "strips fragment",
			in:   "https://www.tiktok.com/@user/video/123#comments",
			want: "https://www.tiktok.com/@user/video/123",
		},
		{
			name: "no query untouched",
			in:   "https://www.tiktok.com/@user/video/123",
			want: "https://www.tiktok.com/@user/video/123",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	urls := []string{
		"https://www.tiktok.com/@user/video/123?is_from_webapp=1&sender_device=pc",
		"https://www.tiktok.com/@user/video/123",
	}
	for _, u := range urls {
		once := NormalizeURL(u)
		twice := NormalizeURL(once)
		if once != twice {
			t.Errorf("not idempotent: %q → %q → %q", u, once, twice)
		}
	}
}

func TestNormalizeURLSameIdentity(t *testing.T) {
	a := NormalizeURL("https://www.tiktok.com/@user/video/123?q=a")
	b := NormalizeURL("https://www.tiktok.com/@user/video/123?t=99&src=share")
	if a != b {
		t.Errorf("URLs differing only by query must normalize identically: %q vs %q", a, b)
	}
}
