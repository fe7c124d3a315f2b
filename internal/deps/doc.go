// Package deps checks that the external binaries clipper shells out to
// (yt-dlp, ffmpeg, ffprobe) can be found before the daemon starts.
package deps
