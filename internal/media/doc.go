// Package media defines the value types that flow through the acquisition and
// delivery pipeline: source descriptors, timestamp entries, thumbnails,
// acquired files, and produced segments.
//
// Subpackages wrap the external tools that act on media files (ffmpeg,
// ffprobe), tag writing, and cover art normalization.
package media
