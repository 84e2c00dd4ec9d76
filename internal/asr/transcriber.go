// Package asr wraps the whisper.cpp cgo binding behind the narrow
// transcribe contract required by the streaming pipeline (C3, §4.2).
package asr

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"speechserver/internal/whisper"
)

// Errors surfaced by Transcriber, per spec §4.2.
var (
	ErrStateCreationFailed = errors.New("failed to create inference state")
	ErrInferenceFailed     = errors.New("inference failed")
)

// Segment is one transcribed span of text with its timing in seconds,
// derived from the engine's centisecond timestamps.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Transcriber wraps a loaded ASR model. The underlying engine is
// assumed not safe for concurrent invocation: callers must serialise
// access (the JobQueue's single worker does this for the whole
// pipeline, so Transcriber itself carries no locking beyond guarding
// its own model handle against concurrent Close).
type Transcriber struct {
	model      whisper.Model
	language   string
	threads    uint
	ngWords    map[string]struct{}
	sampleRate int

	mu sync.RWMutex
}

// New loads a ggml whisper model from modelPath and configures the
// NG-word filter and default language/thread count.
func New(modelPath, language string, threads uint, sampleRate int, ngWords []string) (*Transcriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load ASR model: %w", err)
	}

	ng := make(map[string]struct{}, len(ngWords))
	for _, w := range ngWords {
		ng[w] = struct{}{}
	}

	return &Transcriber{
		model:      model,
		language:   language,
		threads:    threads,
		ngWords:    ng,
		sampleRate: sampleRate,
	}, nil
}

// Close releases the underlying model.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.model.Close()
}

// Transcribe runs one full-buffer inference and returns the
// concatenated, NG-word-filtered text, its per-segment timing, and
// the audio's duration in seconds (§4.2).
func (t *Transcriber) Transcribe(audio []float32) (text string, segments []Segment, duration float64, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	duration = float64(len(audio)) / float64(t.sampleRate)

	ctx, err := t.model.NewContext()
	if err != nil {
		return "", nil, duration, fmt.Errorf("%w: %v", ErrStateCreationFailed, err)
	}

	if err := ctx.SetLanguage(t.language); err != nil {
		_ = ctx.SetLanguage("auto")
	}
	ctx.SetTranslate(false)
	ctx.SetThreads(t.threads)
	ctx.SetBeamSize(1) // greedy decoding, best_of=1

	if err := ctx.Process(audio); err != nil {
		return "", nil, duration, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	var b strings.Builder
	for {
		seg, err := ctx.NextSegment()
		if err != nil {
			break
		}
		trimmed := strings.TrimSpace(seg.Text)
		if trimmed == "" {
			continue
		}
		if _, ng := t.ngWords[trimmed]; ng {
			continue
		}
		b.WriteString(trimmed)
		b.WriteByte(' ')
		segments = append(segments, Segment{
			Start: seg.Start.Seconds(),
			End:   seg.End.Seconds(),
			Text:  trimmed,
		})
	}

	return strings.TrimSpace(b.String()), segments, duration, nil
}
