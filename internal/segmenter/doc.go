// Package segmenter cuts an acquired audio file into one file per timestamp
// entry by stream copy, then tags each produced file.
//
// Segment i spans [offset_i, offset_{i+1}); the last segment ends at the
// source duration. A failed cut drops only that segment. Tagging is best
// effort: a tagging failure is logged and the untagged segment is still
// returned. Video segmentation is not supported.
package segmenter
