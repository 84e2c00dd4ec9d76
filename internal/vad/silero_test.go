package vad

import (
	"os"
	"testing"
)

func TestDetectorSegmentOnRealModel(t *testing.T) {
	modelPath := os.Getenv("VAD_MODEL_PATH")
	if modelPath == "" {
		modelPath = "./models/silero_vad.onnx"
	}
	if _, err := os.Stat(modelPath); err != nil {
		t.Skipf("VAD model not available at %s, skipping: %v", modelPath, err)
	}

	d, err := NewDetector(Config{
		ModelPath:                modelPath,
		SampleRate:               16000,
		Threshold:                0.5,
		MinSpeechDurationMs:      250,
		MaxSpeechDurationSeconds: 100000,
		MinSilenceDurationMs:     100,
		SpeechPadMs:              30,
	})
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	defer d.Close()

	silence := make([]float32, 16000/2)
	segs, err := d.Segment(silence)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("expected no segments for pure silence, got %d", len(segs))
	}
}
