package media

import "testing"

func TestBestThumbnailPicksLargestArea(t *testing.T) {
	desc := Descriptor{Thumbnails: []ThumbnailCandidate{
		{URL: "https://img/small.jpg", Width: 120, Height: 90},
		{URL: "https://img/nosize.jpg"},
		{URL: "https://img/large.jpg", Width: 1280, Height: 720},
		{URL: "", Width: 4000, Height: 4000},
	}}
	best, ok := desc.BestThumbnail()
	if !ok {
		t.Fatal("expected a thumbnail")
	}
	if best.URL != "https://img/large.jpg" {
		t.Fatalf("unexpected thumbnail %q", best.URL)
	}
}

func TestBestThumbnailEmpty(t *testing.T) {
	if _, ok := (Descriptor{}).BestThumbnail(); ok {
		t.Fatal("expected no thumbnail")
	}
}

func TestNewAcquiredExtension(t *testing.T) {
	got := NewAcquired("/tmp/job/Song.MP3")
	if got.Ext != "mp3" {
		t.Fatalf("unexpected ext %q", got.Ext)
	}
}

func TestSegmentDuration(t *testing.T) {
	if d := (Segment{Start: 125, End: 200}).Duration(); d != 75 {
		t.Fatalf("unexpected duration %d", d)
	}
	if d := (Segment{Start: 10, End: 5}).Duration(); d != 0 {
		t.Fatalf("expected zero duration, got %d", d)
	}
}
