package vad

import "sort"

// derivedParams holds the per-buffer constants derived from the VAD
// configuration, computed once by NewDetector and reused for every
// call to Segment (§4.1).
type derivedParams struct {
	sampleRate                   int
	windowSizeSample             int64
	threshold                    float32
	negThreshold                 float32
	minSpeechSamples             float64
	speechPadSamples             float64
	maxSpeechSamples             float64
	minSilenceSamples            float64
	minSilenceSamplesAtMaxSpeech float64
}

type rawSegment struct {
	start int64
	end   int64
}

// hysteresisSegments runs the dual-threshold automaton of §4.1.2 over
// one probability per analysis window and returns the raw (unpadded)
// speech spans it opens and closes.
func hysteresisSegments(probs []float32, audioLen int64, p derivedParams) []rawSegment {
	var result []rawSegment

	triggered := false
	isDetecting := false
	var segmentStart, tempEnd, prevEnd, nextStart int64

	for i, prob := range probs {
		t := int64(i) * p.windowSizeSample

		// 1. Re-trigger clearing.
		if prob >= p.threshold && tempEnd != 0 {
			tempEnd = 0
			if nextStart < prevEnd {
				nextStart = t
			}
		}

		// 2. Open segment.
		if prob >= p.threshold && !triggered {
			triggered = true
			isDetecting = true
			segmentStart = t
			continue
		}

		// 3. Forced cut on max duration.
		if triggered && float64(t-segmentStart) > p.maxSpeechSamples {
			if prevEnd != 0 {
				result = append(result, rawSegment{segmentStart, prevEnd})
				if nextStart < prevEnd {
					triggered = false
					isDetecting = false
				} else {
					segmentStart = nextStart
					isDetecting = true
				}
				prevEnd, nextStart, tempEnd = 0, 0, 0
			} else {
				result = append(result, rawSegment{segmentStart, t})
				prevEnd, nextStart, tempEnd = 0, 0, 0
				triggered = false
				isDetecting = false
				continue
			}
		}

		// 4. Silence processing.
		if prob < p.negThreshold && triggered {
			if tempEnd == 0 {
				tempEnd = t
			}
			if float64(t-tempEnd) > p.minSilenceSamplesAtMaxSpeech {
				prevEnd = tempEnd
			}
			if float64(t-tempEnd) < p.minSilenceSamples {
				continue
			}
			segmentEnd := tempEnd
			if float64(segmentEnd-segmentStart) > p.minSpeechSamples {
				result = append(result, rawSegment{segmentStart, segmentEnd})
			}
			prevEnd, nextStart, tempEnd = 0, 0, 0
			triggered = false
			isDetecting = false
			continue
		}
	}

	// 5. Final tail.
	if isDetecting && float64(audioLen-segmentStart) > p.minSpeechSamples {
		result = append(result, rawSegment{segmentStart, audioLen})
	}

	return result
}

// padSegments applies the §4.1.3 padding pass in place and returns the
// result converted to SegmentRecords with recomputed second fields.
func padSegments(segments []rawSegment, audioLen int64, p derivedParams) []SegmentRecord {
	pad := int64(p.speechPadSamples)

	for i := range segments {
		if i == 0 {
			segments[i].start = saturatingSub(segments[i].start, pad)
		}
		if i != len(segments)-1 {
			gap := segments[i+1].start - segments[i].end
			if float64(gap) < 2*p.speechPadSamples {
				half := gap / 2
				segments[i].end += half
				segments[i+1].start = saturatingSub(segments[i+1].start, half)
			} else {
				segments[i].end = minInt64(segments[i].end+pad, audioLen)
				segments[i+1].start = saturatingSub(segments[i+1].start, pad)
			}
		} else {
			segments[i].end = minInt64(segments[i].end+pad, audioLen)
		}
	}

	records := make([]SegmentRecord, len(segments))
	for i, s := range segments {
		records[i] = newSegmentRecord(s.start, s.end, p.sampleRate)
	}
	return records
}

// mergeSegments sorts by start offset and sweeps to merge overlapping
// or touching spans into disjoint segments (§4.1.4). Idempotent: its
// own output fed back in is unchanged.
func mergeSegments(records []SegmentRecord, sampleRate int) []SegmentRecord {
	if len(records) <= 1 {
		return records
	}

	sorted := make([]SegmentRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartOffset < sorted[j].StartOffset
	})

	var result []SegmentRecord
	left, right := sorted[0].StartOffset, sorted[0].EndOffset
	for _, s := range sorted[1:] {
		if s.StartOffset > right {
			result = append(result, newSegmentRecord(left, right, sampleRate))
			left, right = s.StartOffset, s.EndOffset
		} else if s.EndOffset > right {
			right = s.EndOffset
		}
	}
	result = append(result, newSegmentRecord(left, right, sampleRate))
	return result
}

func saturatingSub(a, b int64) int64 {
	if b >= a {
		return 0
	}
	return a - b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
