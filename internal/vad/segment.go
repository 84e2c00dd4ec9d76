// Package vad implements the streaming voice-activity detector: a
// Silero-style ONNX model driving a hysteresis segmentation automaton
// that turns a raw PCM buffer into a list of speech intervals.
package vad

import "math"

// SegmentRecord is a single detected speech region, expressed both as
// sample offsets into the buffer it was detected in and as seconds.
type SegmentRecord struct {
	StartOffset int64
	EndOffset   int64
	StartSecond float64
	EndSecond   float64
}

// newSegmentRecord derives the second fields from the offsets per
// spec §3: seconds = floor(offset / SR * 1000) / 1000.
func newSegmentRecord(start, end int64, sampleRate int) SegmentRecord {
	return SegmentRecord{
		StartOffset: start,
		EndOffset:   end,
		StartSecond: offsetToSecond(start, sampleRate),
		EndSecond:   offsetToSecond(end, sampleRate),
	}
}

func offsetToSecond(offset int64, sampleRate int) float64 {
	return math.Floor(float64(offset)/float64(sampleRate)*1000) / 1000
}
