package engine

import (
	"context"
	"testing"
	"time"
)

func TestCacheKeyDeterministic(t *testing.T) {
	k1 := CacheKey("classify", "some transcript")
	k2 := CacheKey("classify", "some transcript")
	if k1 != k2 {
		t.Errorf("same input produced different keys: %q vs %q", k1, k2)
	}
	if k1[:3] != "dc:" {
		t.Errorf("key missing dc: prefix: %q", k1)
	}

	k3 := CacheKey("classify", "other transcript")
	if k1 == k3 {
		t.Error("different inputs produced the same key")
	}
}

func TestCacheNilIsNoOp(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	c.Set(ctx, "key", Classification{Verdict: VerdictBad})
	if _, ok := c.Get(ctx, "key"); ok {
		t.Error("nil cache must never hit")
	}
}

func TestCacheSetGet(t *testing.T) {
	c := NewCache("", time.Minute, 100, time.Minute)
	ctx := context.Background()

	want := Classification{Verdict: VerdictBad, Narratives: []Narrative{"nazi-ukraine"}}
	c.Set(ctx, "k1", want)

	got, ok := c.Get(ctx, "k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Verdict != want.Verdict || len(got.Narratives) != 1 || got.Narratives[0] != "nazi-ukraine" {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if _, ok := c.Get(ctx, "k2"); ok {
		t.Error("unexpected hit for unknown key")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := NewCache("", 10*time.Millisecond, 100, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "k1", Classification{Verdict: VerdictClean})
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "k1"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestCacheEviction(t *testing.T) {
	c := NewCache("", time.Minute, 2, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "a", Classification{Verdict: VerdictClean})
	time.Sleep(2 * time.Millisecond) // distinct expiry = distinct age
	c.Set(ctx, "b", Classification{Verdict: VerdictClean})
	time.Sleep(2 * time.Millisecond)
	c.Set(ctx, "c", Classification{Verdict: VerdictClean})

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 2 {
		t.Errorf("L1 holds %d entries, want at most 2", count)
	}

	// oldest entry was evicted, newest survives
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Error("newest entry should survive eviction")
	}
}

func TestClassifierCacheSkipsLLM(t *testing.T) {
	llm := &fakeCompleter{
		reasoning: "Ordinary cooking content. It does not contain any propaganda narratives. Conclusion: no",
	}
	c := NewClassifier(llm, testCatalog(), WithCache(NewCache("", time.Minute, 100, time.Minute)))
	ctx := context.Background()

	first, err := c.Classify(ctx, "whisk the eggs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Classify(ctx, "whisk the eggs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Verdict != second.Verdict {
		t.Errorf("cached verdict %q differs from original %q", second.Verdict, first.Verdict)
	}
	// second call is served from cache, no new LLM traffic
	if llm.calls != 1 {
		t.Errorf("expected 1 LLM call total, got %d", llm.calls)
	}
}
