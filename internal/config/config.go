// Package config loads server configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned when a recognised environment variable
// holds a value that cannot be parsed into its expected type.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every recognised environment-variable setting (§6.5).
type Config struct {
	Host string
	Port int

	WhisperModelPath   string
	WhisperLanguage    string
	WhisperThreads     int
	WhisperBlockSecond int

	VADModelPath             string
	VADThreshold             float32
	VADMinSpeechDurationMs   int
	VADMaxSpeechDurationSecs float32
	VADMinSilenceDurationMs  int
	VADSpeechPadMs           int

	SampleRate        int
	MinSpeechSamples  int
	MaxSilenceSamples int
	MaxSpeechSamples  int

	NGWords []string
}

// Load reads the environment (loading a .env file first, if present)
// and returns a fully populated Config, or a wrapped ErrInvalidConfig
// if a recognised variable fails to parse.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		Host:             getString("HOST", "127.0.0.1"),
		WhisperModelPath: getString("WHISPER_MODEL_PATH", "./models/ggml-base.bin"),
		WhisperLanguage:  getString("WHISPER_LANGUAGE", "ja"),
		VADModelPath:     getString("VAD_MODEL_PATH", "./models/silero_vad.onnx"),
	}

	var err error
	if c.Port, err = getInt("PORT", 9000); err != nil {
		return nil, err
	}
	if c.WhisperThreads, err = getInt("WHISPER_THREADS", runtime.NumCPU()); err != nil {
		return nil, err
	}
	if c.WhisperBlockSecond, err = getInt("WHISPER_BLOCK_SECONDS", 30); err != nil {
		return nil, err
	}
	if c.VADThreshold, err = getFloat32("VAD_THRESHOLD", 0.5); err != nil {
		return nil, err
	}
	if c.VADMinSpeechDurationMs, err = getInt("VAD_MIN_SPEECH_DURATION_MS", 250); err != nil {
		return nil, err
	}
	if c.VADMaxSpeechDurationSecs, err = getInfFloat32("VAD_MAX_SPEECH_DURATION_SECONDS", float32(math.Inf(1))); err != nil {
		return nil, err
	}
	if c.VADMinSilenceDurationMs, err = getInt("VAD_MIN_SILENCE_DURATION_MS", 100); err != nil {
		return nil, err
	}
	if c.VADSpeechPadMs, err = getInt("VAD_SPEECH_PAD_MS", 30); err != nil {
		return nil, err
	}
	if c.SampleRate, err = getInt("SAMPLE_RATE", 16000); err != nil {
		return nil, err
	}
	if c.MinSpeechSamples, err = getInt("MIN_SPEECH_SAMPLES", 8000); err != nil {
		return nil, err
	}
	if c.MaxSilenceSamples, err = getInt("MAX_SILENCE_SAMPLES", 16000); err != nil {
		return nil, err
	}
	if c.MaxSpeechSamples, err = getInt("MAX_SPEECH_SAMPLES", 48000); err != nil {
		return nil, err
	}

	c.NGWords = parseNGWords(getString("NG_WORDS", "あ,ん,ご視聴ありがとうございました"))

	return c, nil
}

func parseNGWords(raw string) []string {
	parts := strings.Split(raw, ",")
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w: %v", key, v, ErrInvalidConfig, err)
	}
	return n, nil
}

func getFloat32(key string, def float32) (float32, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w: %v", key, v, ErrInvalidConfig, err)
	}
	return float32(f), nil
}

// getInfFloat32 additionally accepts the literal "inf" (case-insensitive).
func getInfFloat32(key string, def float32) (float32, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "inf") || strings.EqualFold(v, "infinity") {
		return float32(math.Inf(1)), nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w: %v", key, v, ErrInvalidConfig, err)
	}
	return float32(f), nil
}
