package media

import (
	"path/filepath"
	"strings"
)

// Kind selects whether a job delivers video or audio.
type Kind int

const (
	KindAudio Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "audio"
}

// Mode selects whole-file delivery or segmentation by timestamps.
type Mode int

const (
	ModeByTimestamps Mode = iota
	ModeWhole
)

func (m Mode) String() string {
	if m == ModeWhole {
		return "whole"
	}
	return "by_timestamps"
}

// TimestampEntry marks the start of one segment. Offset is in whole seconds.
type TimestampEntry struct {
	Offset int
	Label  string
}

// ThumbnailCandidate is one cover art rendition offered by the source.
type ThumbnailCandidate struct {
	URL    string
	Width  int
	Height int
}

// Area is the pixel count used to rank candidates.
func (t ThumbnailCandidate) Area() int {
	if t.Width <= 0 || t.Height <= 0 {
		return 0
	}
	return t.Width * t.Height
}

// Descriptor is the resolved metadata of a source. Duration 0 means unknown.
type Descriptor struct {
	ID          string
	Title       string
	Uploader    string
	Duration    int
	Description string
	Chapters    []TimestampEntry
	Thumbnails  []ThumbnailCandidate
}

// BestThumbnail returns the candidate with the largest area. Candidates
// without dimensions rank last but are still eligible.
func (d Descriptor) BestThumbnail() (ThumbnailCandidate, bool) {
	var (
		best  ThumbnailCandidate
		found bool
	)
	for _, candidate := range d.Thumbnails {
		if strings.TrimSpace(candidate.URL) == "" {
			continue
		}
		if !found || candidate.Area() > best.Area() {
			best = candidate
			found = true
		}
	}
	return best, found
}

// Acquired is a downloaded media file.
type Acquired struct {
	Path string
	Ext  string
}

// NewAcquired builds an Acquired from a path, deriving the extension.
func NewAcquired(path string) Acquired {
	return Acquired{
		Path: path,
		Ext:  strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}
}

// Segment is one produced slice of an acquired file. Index is 1-based.
type Segment struct {
	Path  string
	Index int
	Label string
	Start int
	End   int
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() int {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}
