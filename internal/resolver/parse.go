package resolver

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"clipper/internal/media"
	"clipper/internal/services"
)

// ParseDump decodes a yt-dlp single JSON dump.
func ParseDump(data []byte) (media.Descriptor, error) {
	if !gjson.ValidBytes(data) {
		return media.Descriptor{}, services.Wrap(services.ErrResolution, "resolving", "parse metadata", "output is not JSON", nil)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return media.Descriptor{}, services.Wrap(services.ErrResolution, "resolving", "parse metadata", "output is not an object", nil)
	}
	if root.Get("_type").String() == "playlist" {
		return media.Descriptor{}, services.Wrap(services.ErrResolution, "resolving", "parse metadata", "playlists are not supported", nil)
	}

	desc := media.Descriptor{
		ID:          root.Get("id").String(),
		Title:       strings.TrimSpace(root.Get("title").String()),
		Uploader:    firstString(root, "uploader", "channel", "artist", "creator"),
		Duration:    int(math.Round(root.Get("duration").Float())),
		Description: root.Get("description").String(),
	}
	if desc.Duration < 0 {
		desc.Duration = 0
	}

	playable := root.Get("formats.#").Int() > 0 ||
		root.Get("requested_formats.#").Int() > 0 ||
		root.Get("url").String() != ""
	if !playable {
		return media.Descriptor{}, services.Wrap(services.ErrResolution, "resolving", "parse metadata", "no playable media", nil)
	}
	if desc.Title == "" {
		desc.Title = desc.ID
	}

	root.Get("chapters").ForEach(func(_, chapter gjson.Result) bool {
		start := chapter.Get("start_time")
		if !start.Exists() {
			return true
		}
		desc.Chapters = append(desc.Chapters, media.TimestampEntry{
			Offset: int(math.Floor(start.Float())),
			Label:  chapter.Get("title").String(),
		})
		return true
	})

	root.Get("thumbnails").ForEach(func(_, thumb gjson.Result) bool {
		link := thumb.Get("url").String()
		if link == "" {
			return true
		}
		desc.Thumbnails = append(desc.Thumbnails, media.ThumbnailCandidate{
			URL:    link,
			Width:  int(thumb.Get("width").Int()),
			Height: int(thumb.Get("height").Int()),
		})
		return true
	})
	if len(desc.Thumbnails) == 0 {
		if link := root.Get("thumbnail").String(); link != "" {
			desc.Thumbnails = append(desc.Thumbnails, media.ThumbnailCandidate{URL: link})
		}
	}

	return desc, nil
}

func firstString(root gjson.Result, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(root.Get(key).String()); value != "" {
			return value
		}
	}
	return ""
}
