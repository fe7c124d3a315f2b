// Package resolver turns a source reference into a media.Descriptor by asking
// yt-dlp for a single JSON metadata dump and decoding it with gjson.
//
// Resolution is bounded by the configured metadata timeout. Unreachable
// sources, non-JSON output, playlists, and items without playable media all
// fail with services.ErrResolution.
package resolver
