package logging

// ProgressSampler thins download progress logs to one line per bucket.
// A drop below the last logged bucket starts a new pass, which happens when
// yt-dlp fetches the audio stream after the video stream.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
	passes     int
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent (default 5).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether percent deserves a log line. Negative values mean
// unknown progress and are never logged.
func (s *ProgressSampler) ShouldLog(percent float64) bool {
	if s == nil {
		return true
	}
	if percent < 0 {
		return false
	}
	if percent > 100 {
		percent = 100
	}
	bucket := int(percent / s.bucketSize)
	switch {
	case s.lastBucket < 0:
		s.passes = 1
	case bucket < s.lastBucket:
		s.passes++
	case bucket == s.lastBucket:
		return false
	}
	s.lastBucket = bucket
	return true
}

// Passes is the number of download passes seen so far.
func (s *ProgressSampler) Passes() int {
	if s == nil {
		return 0
	}
	return s.passes
}
