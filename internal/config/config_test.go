package config

import (
	"math"
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"HOST", "PORT", "WHISPER_MODEL_PATH", "WHISPER_LANGUAGE", "WHISPER_THREADS",
		"WHISPER_BLOCK_SECONDS", "VAD_MODEL_PATH", "VAD_THRESHOLD",
		"VAD_MIN_SPEECH_DURATION_MS", "VAD_MAX_SPEECH_DURATION_SECONDS",
		"VAD_MIN_SILENCE_DURATION_MS", "VAD_SPEECH_PAD_MS", "SAMPLE_RATE",
		"MIN_SPEECH_SAMPLES", "MAX_SILENCE_SAMPLES", "MAX_SPEECH_SAMPLES", "NG_WORDS",
	} {
		os.Unsetenv(k)
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Host != "127.0.0.1" || c.Port != 9000 {
		t.Errorf("unexpected host/port: %s:%d", c.Host, c.Port)
	}
	if c.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", c.SampleRate)
	}
	if !math.IsInf(float64(c.VADMaxSpeechDurationSecs), 1) {
		t.Errorf("VADMaxSpeechDurationSecs = %v, want +Inf", c.VADMaxSpeechDurationSecs)
	}
	if len(c.NGWords) == 0 {
		t.Error("expected default NG words to be non-empty")
	}
}

func TestLoadOverridesAndInf(t *testing.T) {
	os.Setenv("PORT", "9100")
	os.Setenv("VAD_MAX_SPEECH_DURATION_SECONDS", "inf")
	os.Setenv("NG_WORDS", "um, uh ,")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("VAD_MAX_SPEECH_DURATION_SECONDS")
		os.Unsetenv("NG_WORDS")
	}()

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Port != 9100 {
		t.Errorf("Port = %d, want 9100", c.Port)
	}
	if !math.IsInf(float64(c.VADMaxSpeechDurationSecs), 1) {
		t.Errorf("VADMaxSpeechDurationSecs = %v, want +Inf", c.VADMaxSpeechDurationSecs)
	}
	if len(c.NGWords) != 2 || c.NGWords[0] != "um" || c.NGWords[1] != "uh" {
		t.Errorf("NGWords = %v, want [um uh]", c.NGWords)
	}
}

func TestLoadInvalidInt(t *testing.T) {
	os.Setenv("PORT", "not-a-number")
	defer os.Unsetenv("PORT")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}
