// Package tags writes ID3v2 metadata and cover art into delivered audio files.
package tags

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"clipper/internal/logging"
	"clipper/internal/services"
)

// Fields holds the metadata written to one file. Empty values are skipped.
type Fields struct {
	Title      string
	Artist     string
	Album      string
	Track      int
	TrackTotal int
	CoverPath  string
}

// Tagger writes ID3v2.4 frames.
type Tagger struct {
	logger *slog.Logger
}

// NewTagger constructs a Tagger.
func NewTagger(logger *slog.Logger) *Tagger {
	return &Tagger{logger: logging.NewComponentLogger(logger, "tags")}
}

// Supports reports whether files with the given extension can be tagged.
func Supports(ext string) bool {
	return strings.EqualFold(strings.TrimPrefix(ext, "."), "mp3")
}

// Tag writes fields into the file at path, replacing existing frames of the
// same kind. Failures are wrapped with services.ErrTagging.
func (t *Tagger) Tag(path string, fields Fields) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return services.Wrap(services.ErrTagging, "segmenting", "open tag", path, err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if fields.Title != "" {
		tag.SetTitle(fields.Title)
	}
	if fields.Artist != "" {
		tag.SetArtist(fields.Artist)
	}
	if fields.Album != "" {
		tag.SetAlbum(fields.Album)
	}
	if fields.Track > 0 {
		value := strconv.Itoa(fields.Track)
		if fields.TrackTotal > 0 {
			value = fmt.Sprintf("%d/%d", fields.Track, fields.TrackTotal)
		}
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, value)
	}
	if fields.CoverPath != "" {
		picture, err := os.ReadFile(fields.CoverPath)
		if err != nil {
			t.logger.Warn("cover art unreadable; tagging without it",
				logging.String("cover_path", fields.CoverPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "cover_art_unreadable"),
			)
		} else {
			tag.DeleteFrames(tag.CommonID("Attached picture"))
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Description: "Front cover",
				Picture:     picture,
			})
		}
	}

	if err := tag.Save(); err != nil {
		return services.Wrap(services.ErrTagging, "segmenting", "save tag", path, err)
	}
	return nil
}
