// Package ffprobe runs ffprobe against acquired files and decodes the JSON
// report. The segmenter uses it to learn the duration of a file when the
// source metadata did not carry one.
package ffprobe
