package vad

import (
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Errors surfaced by VadDetector, per spec §4.1.
var (
	ErrUnsupportedSampleRate = errors.New("unsupported sample rate")
	ErrInputTooShort         = errors.New("input audio is too short")
	ErrModelInvocationFailed = errors.New("vad model invocation failed")
	ErrTensorShapeMismatch   = errors.New("vad tensor shape mismatch")
)

const thresholdGap = 0.15

// Config configures a VadDetector (§4.1).
type Config struct {
	ModelPath                string
	SampleRate               int
	Threshold                float32
	MinSpeechDurationMs      int
	MaxSpeechDurationSeconds float32 // may be +Inf
	MinSilenceDurationMs     int
	SpeechPadMs              int
}

// VadDetector is a stateful streaming voice-activity detector backed
// by a Silero-style ONNX model (C2). One instance belongs to exactly
// one connection; it is never shared.
type VadDetector struct {
	session *ort.DynamicAdvancedSession
	params  derivedParams

	// Recurrent state, shape (2, 1, 128); reset at the start of Segment.
	state []float32
	// Trailing-samples context carried between neural calls within a
	// single Segment invocation; shape (1, contextSize).
	context       []float32
	contextSize   int
	lastSR        int
	lastBatchSize int

	mu sync.Mutex
}

var (
	onnxInitialized bool
	onnxInitMu      sync.Mutex
)

// initRuntime lazily points onnxruntime_go at the shared library and
// brings up its environment, once per process.
func initRuntime() error {
	onnxInitMu.Lock()
	defer onnxInitMu.Unlock()

	if onnxInitialized {
		return nil
	}

	if libPath := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("vad: initialize onnxruntime: %w", err)
	}

	onnxInitialized = true
	return nil
}

// NewDetector loads the ONNX model at ModelPath and derives the
// window/sample-count constants used by the hysteresis automaton.
func NewDetector(cfg Config) (*VadDetector, error) {
	if cfg.SampleRate != 8000 && cfg.SampleRate != 16000 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSampleRate, cfg.SampleRate)
	}

	if err := initRuntime(); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("vad session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input", "state", "sr"},
		[]string{"output", "stateN"},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("vad session: %w", err)
	}

	windowSize := int64(512)
	if cfg.SampleRate == 8000 {
		windowSize = 256
	}
	contextSize := 64
	if cfg.SampleRate == 8000 {
		contextSize = 32
	}

	sr := float64(cfg.SampleRate)
	maxSpeechSamples := sr*float64(cfg.MaxSpeechDurationSeconds) - float64(windowSize) - 2*sr*float64(cfg.SpeechPadMs)/1000

	d := &VadDetector{
		session:     session,
		contextSize: contextSize,
		state:       make([]float32, 2*1*128),
		context:     make([]float32, contextSize),
		params: derivedParams{
			sampleRate:                   cfg.SampleRate,
			windowSizeSample:             windowSize,
			threshold:                    cfg.Threshold,
			negThreshold:                 cfg.Threshold - thresholdGap,
			minSpeechSamples:             sr * float64(cfg.MinSpeechDurationMs) / 1000,
			speechPadSamples:             sr * float64(cfg.SpeechPadMs) / 1000,
			maxSpeechSamples:             maxSpeechSamples,
			minSilenceSamples:            sr * float64(cfg.MinSilenceDurationMs) / 1000,
			minSilenceSamplesAtMaxSpeech: sr * 0.098,
		},
	}
	return d, nil
}

// Close releases the underlying ONNX session.
func (d *VadDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
}

// Segment resets all recurrent state, runs the neural model window by
// window over input, then applies the hysteresis automaton, padding,
// and merge passes (§4.1) to produce disjoint SegmentRecords.
func (d *VadDetector) Segment(input []float32) ([]SegmentRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.resetState()
	audioLen := int64(len(input))

	windowSize := int(d.params.windowSizeSample)
	numWindows := (len(input) + windowSize - 1) / windowSize
	probs := make([]float32, 0, numWindows)

	for i := 0; i < len(input); i += windowSize {
		end := i + windowSize
		window := make([]float32, windowSize)
		if end > len(input) {
			copy(window, input[i:])
		} else {
			copy(window, input[i:end])
		}
		p, err := d.call(window, d.params.sampleRate)
		if err != nil {
			return nil, err
		}
		probs = append(probs, p)
	}

	raw := hysteresisSegments(probs, audioLen, d.params)
	padded := padSegments(raw, audioLen, d.params)
	return mergeSegments(padded, d.params.sampleRate), nil
}

func (d *VadDetector) resetState() {
	for i := range d.state {
		d.state[i] = 0
	}
	d.context = make([]float32, d.contextSize)
	d.lastSR = 0
	d.lastBatchSize = 0
}

// call runs one neural inference over a single window, implementing
// the input-validation, state-reset, and context bookkeeping of
// §4.1.1.
func (d *VadDetector) call(window []float32, sr int) (float32, error) {
	window, sr, err := validateInput(window, sr)
	if err != nil {
		return 0, err
	}

	batchSize := 1
	if d.lastBatchSize == 0 {
		d.resetState()
	}
	if d.lastSR != 0 && d.lastSR != sr {
		d.resetState()
	}

	contextSize := d.contextSize
	input := make([]float32, contextSize+len(window))
	copy(input[:contextSize], d.context)
	copy(input[contextSize:], window)

	inputTensor, err := ort.NewTensor(ort.NewShape(int64(batchSize), int64(len(input))), input)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTensorShapeMismatch, err)
	}
	defer inputTensor.Destroy()

	stateTensor, err := ort.NewTensor(ort.NewShape(2, int64(batchSize), 128), d.state)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTensorShapeMismatch, err)
	}
	defer stateTensor.Destroy()

	srTensor, err := ort.NewTensor(ort.NewShape(1), []int64{int64(sr)})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTensorShapeMismatch, err)
	}
	defer srTensor.Destroy()

	outputs := []ort.Value{nil, nil}
	if err := d.session.Run([]ort.Value{inputTensor, stateTensor, srTensor}, outputs); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrModelInvocationFailed, err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return 0, ErrTensorShapeMismatch
	}
	stateNTensor, ok := outputs[1].(*ort.Tensor[float32])
	if !ok {
		return 0, ErrTensorShapeMismatch
	}

	// context <- last contextSize columns of the concatenated input.
	if contextSize <= len(input) {
		copy(d.context, input[len(input)-contextSize:])
	}
	copy(d.state, stateNTensor.GetData())
	d.lastSR = sr
	d.lastBatchSize = batchSize

	data := outputTensor.GetData()
	if len(data) == 0 {
		return 0, nil
	}
	return data[0], nil
}

// validateInput implements the downsampling/rejection rules of
// §4.1.1: integer-stride decimation for SR that is a non-16000
// multiple of 16000, rejection of unsupported sample rates, and
// rejection of windows too short relative to sr.
func validateInput(x []float32, sr int) ([]float32, int, error) {
	if sr != 16000 && sr%16000 == 0 {
		step := sr / 16000
		reduced := make([]float32, 0, (len(x)+step-1)/step)
		for i := 0; i < len(x); i += step {
			reduced = append(reduced, x[i])
		}
		x = reduced
		sr = 16000
	}

	if sr != 8000 && sr != 16000 {
		return nil, 0, fmt.Errorf("%w: %d", ErrUnsupportedSampleRate, sr)
	}

	if len(x) > 0 && float64(sr)/float64(len(x)) > 31.25 {
		return nil, 0, ErrInputTooShort
	}

	return x, sr, nil
}
