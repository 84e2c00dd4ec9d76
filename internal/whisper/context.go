package whisper

import (
	"io"
	"time"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type context struct {
	n      int
	model  *model
	params WhisperParams
}

// Make sure context adheres to the interface
var _ Context = (*context)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newContext(model *model, params WhisperParams) (Context, error) {
	context := new(context)
	context.model = model
	context.params = params

	// Return success
	return context, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Set the language to use for speech recognition.
func (context *context) SetLanguage(lang string) error {
	if context.model.ctx == nil {
		return ErrInternalAppError
	}
	if !context.model.IsMultilingual() {
		return ErrModelNotMultilingual
	}
	if lang == "auto" {
		context.params.SetLanguage(-1)
	} else if id := context.model.ctx.Whisper_lang_id(lang); id == -1 {
		return ErrInvalidLanguage
	} else {
		context.params.SetLanguage(id)
	}
	return nil
}

// Set the number of threads to use for processing.
func (context *context) SetThreads(threads uint) {
	context.params.SetThreads(int(threads))
}

// Set translate to true to translate the audio to English.
func (context *context) SetTranslate(translate bool) {
	context.params.SetTranslate(translate)
}

// Set Beam Size (1 selects greedy decoding)
func (context *context) SetBeamSize(n int) {
	context.params.SetBeamSize(n)
}

// Process runs inference over the audio; read the resulting text with
// NextSegment.
func (context *context) Process(samples []float32) error {
	if context.model.ctx == nil {
		return ErrInternalAppError
	}

	// Reset segment cursor for each new processing run so NextSegment starts from the first result.
	context.n = 0

	if err := context.model.ctx.Whisper_full(context.params, samples); err != nil {
		return err
	}

	// Return success
	return nil
}

// Return the next segment of tokens
func (context *context) NextSegment() (Segment, error) {
	if context.model.ctx == nil {
		return Segment{}, ErrInternalAppError
	}
	if context.n >= context.model.ctx.Whisper_full_n_segments() {
		return Segment{}, io.EOF
	}

	// Populate result
	result := toSegment(context.model.ctx, context.n)

	// Increment the cursor
	context.n++

	// Return success
	return result, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func toSegment(ctx *WhisperContext, n int) Segment {
	return Segment{
		Text:  ctx.Whisper_full_get_segment_text(n),
		Start: time.Duration(ctx.Whisper_full_get_segment_t0(n)) * time.Millisecond * 10,
		End:   time.Duration(ctx.Whisper_full_get_segment_t1(n)) * time.Millisecond * 10,
	}
}
