package whisper

import (
	"errors"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// CGO

/*
#cgo LDFLAGS: -lm -lstdc++
#cgo linux LDFLAGS: -fopenmp
#cgo linux LDFLAGS: ${SRCDIR}/../../whisper.cpp/build/src/libwhisper.a
#cgo linux LDFLAGS: ${SRCDIR}/../../whisper.cpp/build/ggml/src/libggml.a
#cgo linux LDFLAGS: ${SRCDIR}/../../whisper.cpp/build/ggml/src/libggml-cpu.a
#cgo linux LDFLAGS: ${SRCDIR}/../../whisper.cpp/build/ggml/src/libggml-base.a
#cgo CFLAGS: -I${SRCDIR}/../../whisper.cpp/include -I${SRCDIR}/../../whisper.cpp/ggml/include -O3
#cgo CXXFLAGS: -I${SRCDIR}/../../whisper.cpp/include -I${SRCDIR}/../../whisper.cpp/ggml/include -O3 -std=c++17
#include <stdlib.h>
#include "whisper.h"
*/
import "C"

///////////////////////////////////////////////////////////////////////////////
// TYPES

type (
	WhisperContext   C.struct_whisper_context
	SamplingStrategy C.enum_whisper_sampling_strategy
	WhisperParams    C.struct_whisper_full_params
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	SAMPLING_GREEDY SamplingStrategy = C.WHISPER_SAMPLING_GREEDY
)

var (
	ErrConversionFailed = errors.New("whisper_convert failed")
	ErrInvalidLanguage  = errors.New("invalid language")
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Allocates all memory needed for the model and loads the model from the given file.
// Returns NULL on failure.
func Whisper_init(path string) *WhisperContext {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	params := C.whisper_context_default_params()

	C.ggml_backend_load_all()
	params.use_gpu = C.bool(false)
	params.flash_attn = C.bool(false)

	ctx := C.whisper_init_from_file_with_params(cPath, params)
	if ctx == nil {
		return nil
	}
	return (*WhisperContext)(ctx)
}

// Frees all memory allocated by the model.
func (ctx *WhisperContext) Whisper_free() {
	C.whisper_free((*C.struct_whisper_context)(ctx))
}

// Return the id of the specified language, returns -1 if not found
// Examples:
//
//	"de" -> 2
//	"german" -> 2
func (ctx *WhisperContext) Whisper_lang_id(lang string) int {
	cLang := C.CString(lang)
	defer C.free(unsafe.Pointer(cLang))
	return int(C.whisper_lang_id(cLang))
}

func (ctx *WhisperContext) Whisper_is_multilingual() int {
	return int(C.whisper_is_multilingual((*C.struct_whisper_context)(ctx)))
}

// Return default parameters for a strategy
func (ctx *WhisperContext) Whisper_full_default_params(strategy SamplingStrategy) WhisperParams {
	return WhisperParams(C.whisper_full_default_params((*C.struct_whisper_context)(ctx), C.enum_whisper_sampling_strategy(strategy)))
}

// Run the entire model: PCM -> log mel spectrogram -> encoder -> decoder -> text
// Uses the specified decoding strategy to obtain the text.
func (ctx *WhisperContext) Whisper_full(params WhisperParams, samples []float32) error {
	if C.whisper_full((*C.struct_whisper_context)(ctx), (C.struct_whisper_full_params)(params), (*C.float)(&samples[0]), C.int(len(samples))) == 0 {
		return nil
	} else {
		return ErrConversionFailed
	}
}

// Number of generated text segments.
// A segment can be a few words, a sentence, or even a paragraph.
func (ctx *WhisperContext) Whisper_full_n_segments() int {
	return int(C.whisper_full_n_segments((*C.struct_whisper_context)(ctx)))
}

// Get the start and end time of the specified segment.
func (ctx *WhisperContext) Whisper_full_get_segment_t0(segment int) int64 {
	return int64(C.whisper_full_get_segment_t0((*C.struct_whisper_context)(ctx), C.int(segment)))
}

// Get the start and end time of the specified segment.
func (ctx *WhisperContext) Whisper_full_get_segment_t1(segment int) int64 {
	return int64(C.whisper_full_get_segment_t1((*C.struct_whisper_context)(ctx), C.int(segment)))
}

// Get the text of the specified segment.
func (ctx *WhisperContext) Whisper_full_get_segment_text(segment int) string {
	return C.GoString(C.whisper_full_get_segment_text((*C.struct_whisper_context)(ctx), C.int(segment)))
}

///////////////////////////////////////////////////////////////////////////////
// PARAMS METHODS

func (p *WhisperParams) SetTranslate(v bool) {
	p.translate = toBool(v)
}

func (p *WhisperParams) SetPrintSpecial(v bool) {
	p.print_special = toBool(v)
}

func (p *WhisperParams) SetPrintProgress(v bool) {
	p.print_progress = toBool(v)
}

func (p *WhisperParams) SetPrintRealtime(v bool) {
	p.print_realtime = toBool(v)
}

// Set language id
func (p *WhisperParams) SetLanguage(lang int) error {
	if lang == -1 {
		p.language = nil
		return nil
	}
	str := C.whisper_lang_str(C.int(lang))
	if str == nil {
		return ErrInvalidLanguage
	} else {
		p.language = str
	}
	return nil
}

// Set number of threads to use
func (p *WhisperParams) SetThreads(threads int) {
	p.n_threads = C.int(threads)
}

func (p *WhisperParams) SetTokenTimestamps(b bool) {
	p.token_timestamps = toBool(b)
}

func (p *WhisperParams) SetBeamSize(n int) {
	p.beam_search.beam_size = C.int(n)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func toBool(v bool) C.bool {
	if v {
		return C.bool(true)
	}
	return C.bool(false)
}
