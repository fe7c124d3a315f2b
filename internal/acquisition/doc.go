// Package acquisition downloads a resolved source into a job directory with
// yt-dlp, extracting audio when requested, and reports download progress on a
// bounded channel.
//
// Progress sends never block: when the consumer falls behind, intermediate
// updates are dropped. The channel is owned by the caller and is never closed
// here.
package acquisition
