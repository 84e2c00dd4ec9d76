package asr

import (
	"os"
	"strings"
	"testing"
)

func TestTranscribeOnRealModel(t *testing.T) {
	modelPath := os.Getenv("WHISPER_MODEL_PATH")
	if modelPath == "" {
		modelPath = "./models/ggml-base.bin"
	}
	if _, err := os.Stat(modelPath); err != nil {
		t.Skipf("whisper model not available at %s, skipping: %v", modelPath, err)
	}

	tr, err := New(modelPath, "ja", 1, 16000, []string{"あ", "ん"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer tr.Close()

	silence := make([]float32, 16000)
	text, segs, duration, err := tr.Transcribe(silence)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if duration != 1.0 {
		t.Errorf("duration = %v, want 1.0", duration)
	}
	t.Logf("text=%q segments=%d", text, len(segs))
}

func TestNGWordFiltering(t *testing.T) {
	tr := &Transcriber{
		ngWords:    map[string]struct{}{"あ": {}, "ん": {}},
		sampleRate: 16000,
	}
	cases := []struct {
		text   string
		wantNG bool
	}{
		{"あ", true},
		{"ん", true},
		{"こんにちは", false},
		{" あ ", true}, // trimmed before comparison
	}
	for _, c := range cases {
		trimmed := strings.TrimSpace(c.text)
		_, isNG := tr.ngWords[trimmed]
		if isNG != c.wantNG {
			t.Errorf("text %q: isNG=%v, want %v", c.text, isNG, c.wantNG)
		}
	}
}
