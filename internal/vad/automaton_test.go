package vad

import "testing"

func testParams(sr int) derivedParams {
	windowSize := int64(512)
	if sr == 8000 {
		windowSize = 256
	}
	s := float64(sr)
	return derivedParams{
		sampleRate:                   sr,
		windowSizeSample:             windowSize,
		threshold:                    0.5,
		negThreshold:                 0.35,
		minSpeechSamples:             s * 250 / 1000,
		speechPadSamples:             s * 30 / 1000,
		maxSpeechSamples:             s*100000 - float64(windowSize) - 2*s*30/1000,
		minSilenceSamples:            s * 100 / 1000,
		minSilenceSamplesAtMaxSpeech: s * 0.098,
	}
}

func runFull(t *testing.T, probs []float32, audioLen int64, p derivedParams) []SegmentRecord {
	t.Helper()
	raw := hysteresisSegments(probs, audioLen, p)
	padded := padSegments(raw, audioLen, p)
	return mergeSegments(padded, p.sampleRate)
}

func TestZeroAndShortInputYieldsNoSegments(t *testing.T) {
	p := testParams(16000)
	if got := runFull(t, nil, 0, p); len(got) != 0 {
		t.Errorf("empty input: got %d segments, want 0", len(got))
	}
	if got := runFull(t, []float32{0.1}, p.windowSizeSample, p); len(got) != 0 {
		t.Errorf("single silent window: got %d segments, want 0", len(got))
	}
}

func TestAllSilenceYieldsNoSegments(t *testing.T) {
	p := testParams(16000)
	probs := make([]float32, 50)
	for i := range probs {
		probs[i] = 0.1
	}
	got := runFull(t, probs, int64(len(probs))*p.windowSizeSample, p)
	if len(got) != 0 {
		t.Errorf("all-silence: got %d segments, want 0", len(got))
	}
}

func TestAllSpeechYieldsOneFullSegment(t *testing.T) {
	p := testParams(16000)
	n := 50
	probs := make([]float32, n)
	for i := range probs {
		probs[i] = 0.9
	}
	audioLen := int64(n) * p.windowSizeSample
	got := runFull(t, probs, audioLen, p)
	if len(got) != 1 {
		t.Fatalf("all-speech: got %d segments, want 1", len(got))
	}
	if got[0].StartOffset != 0 || got[0].EndOffset != audioLen {
		t.Errorf("all-speech: got [%d,%d], want [0,%d]", got[0].StartOffset, got[0].EndOffset, audioLen)
	}
}

func TestSegmentsNonOverlappingAndSorted(t *testing.T) {
	p := testParams(16000)
	probs := []float32{0.1, 0.9, 0.9, 0.9, 0.1, 0.1, 0.1, 0.1, 0.9, 0.9, 0.9, 0.1}
	audioLen := int64(len(probs)) * p.windowSizeSample
	got := runFull(t, probs, audioLen, p)
	for i, s := range got {
		if s.StartOffset > s.EndOffset || s.EndOffset > audioLen {
			t.Errorf("segment[%d] invalid bounds: %+v", i, s)
		}
		if i > 0 && got[i-1].EndOffset > s.StartOffset {
			t.Errorf("segment[%d] overlaps segment[%d]", i, i-1)
		}
	}
}

func TestSegmentDeterministic(t *testing.T) {
	p := testParams(16000)
	probs := []float32{0.1, 0.9, 0.9, 0.9, 0.1, 0.1, 0.1, 0.1, 0.9, 0.9, 0.9, 0.1}
	audioLen := int64(len(probs)) * p.windowSizeSample

	first := runFull(t, probs, audioLen, p)
	second := runFull(t, probs, audioLen, p)
	if len(first) != len(second) {
		t.Fatalf("non-deterministic segment count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("segment[%d] differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	sr := 16000
	segs := []SegmentRecord{
		newSegmentRecord(0, 1000, sr),
		newSegmentRecord(900, 2000, sr),
		newSegmentRecord(5000, 6000, sr),
	}
	once := mergeSegments(segs, sr)
	twice := mergeSegments(once, sr)
	if len(once) != len(twice) {
		t.Fatalf("merge not idempotent: %d vs %d segments", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("merge not idempotent at %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestSecondFieldsFloorToMillisecond(t *testing.T) {
	sr := 16000
	rec := newSegmentRecord(12345, 54321, sr)
	if rec.StartSecond != 0.771 {
		t.Errorf("StartSecond = %v, want 0.771", rec.StartSecond)
	}
	if rec.EndSecond != 3.395 {
		t.Errorf("EndSecond = %v, want 3.395", rec.EndSecond)
	}
}

func TestForcedCutOnMaxSpeechDuration(t *testing.T) {
	p := testParams(16000)
	p.maxSpeechSamples = float64(5 * p.windowSizeSample)

	n := 40
	probs := make([]float32, n)
	for i := range probs {
		probs[i] = 0.9
	}
	audioLen := int64(n) * p.windowSizeSample
	got := runFull(t, probs, audioLen, p)
	if len(got) < 2 {
		t.Fatalf("expected forced cuts to produce multiple segments, got %d", len(got))
	}
	if got[len(got)-1].EndOffset != audioLen {
		t.Errorf("last segment should reach end of audio: got %d want %d", got[len(got)-1].EndOffset, audioLen)
	}
}
