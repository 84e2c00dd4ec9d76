package whisper

import (
	"time"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Model wraps a loaded whisper.cpp model and creates processing contexts from it.
type Model interface {
	Close() error
	NewContext() (Context, error)
	IsMultilingual() bool
}

// Context drives a single transcription run against a loaded Model.
// Narrowed to the surface Transcriber actually drives: greedy,
// single-language, single-pass inference with segment timing.
type Context interface {
	SetLanguage(lang string) error
	SetThreads(threads uint)
	SetTranslate(translate bool)
	SetBeamSize(n int)

	Process(samples []float32) error
	NextSegment() (Segment, error)
}

// Segment is a single transcribed span of text with its timing.
type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

type model struct {
	ctx *WhisperContext
}

var _ Model = (*model)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New loads a ggml whisper model from path.
func New(path string) (Model, error) {
	ctx := Whisper_init(path)
	if ctx == nil {
		return nil, ErrUnableToLoadModel
	}
	return &model{ctx: ctx}, nil
}

func (m *model) Close() error {
	if m.ctx != nil {
		m.ctx.Whisper_free()
		m.ctx = nil
	}
	return nil
}

func (m *model) NewContext() (Context, error) {
	if m.ctx == nil {
		return nil, ErrInternalAppError
	}
	params := m.ctx.Whisper_full_default_params(SAMPLING_GREEDY)
	params.SetThreads(1)
	params.SetTranslate(false)
	params.SetPrintSpecial(false)
	params.SetPrintProgress(false)
	params.SetPrintRealtime(false)
	params.SetTokenTimestamps(true)
	return newContext(m, params)
}

func (m *model) IsMultilingual() bool {
	return m.ctx.Whisper_is_multilingual() != 0
}
