package models

import (
	"testing"
)

func TestTTSText(t *testing.T) {
	script := &Script{
		Segments: []Segment{
			{Type: SegmentIntro, Content: "Welcome to the briefing"},
			{Type: SegmentNews, Content: "First story."},
			{Type: SegmentNews, Content: ""},
			{Type: SegmentConclusion, Content: "That's all for today!"},
		},
	}

	got := script.TTSText()
	want := "Welcome to the briefing. First story. That's all for today!"
	if got != want {
		t.Errorf("TTSText() = %q, want %q", got, want)
	}
}

func TestTimestamps(t *testing.T) {
	article := &Article{Title: "Parliament passes bill"}
	script := &Script{
		Segments: []Segment{
			{Type: SegmentIntro, Content: "intro", Duration: 65},
			{Type: SegmentNews, Content: "story one", Duration: 120, Article: article},
			{Type: SegmentNews, Content: "story two", Duration: 90},
		},
	}

	stamps := script.Timestamps()
	if len(stamps) != 2 {
		t.Fatalf("expected 2 timestamps, got %d", len(stamps))
	}
	if stamps[0].Time != "01:05" {
		t.Errorf("first timestamp = %s, want 01:05", stamps[0].Time)
	}
	if stamps[0].Title != "Parliament passes bill" {
		t.Errorf("first title = %s", stamps[0].Title)
	}
	if stamps[1].Time != "03:05" {
		t.Errorf("second timestamp = %s, want 03:05", stamps[1].Time)
	}
	if stamps[1].Title != "Topic" {
		t.Errorf("segment without article should fall back to Topic, got %s", stamps[1].Title)
	}
}

func TestHashURLStable(t *testing.T) {
	a := HashURL("https://example.com/story")
	b := HashURL("https://example.com/story")
	c := HashURL("https://example.com/other")

	if a != b {
		t.Error("same URL must hash identically")
	}
	if a == c {
		t.Error("different URLs must not collide")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}
