package pipeline

import (
	"encoding/json"
	"math"

	"speechserver/internal/queue"
)

// SubSegment is one piece of transcribed text with its timing, in
// seconds (§6.4).
type SubSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

const noSpeechMessage = "No speech detected"
const protocolErrorMessage = "Send binary audio data (f32 PCM) or 'flush' command"

// encodeResult serialises a worker Result into the wire reply record
// of §6.4. This is the ResponseSerialiser (C6).
func encodeResult(res queue.Result) []byte {
	if res.Err != nil {
		return encodeError(res.Err.Error())
	}
	if res.Text == "" {
		return encodeNoSpeech(res.Duration)
	}

	subs := make([]SubSegment, len(res.Segments))
	for i, s := range res.Segments {
		subs[i] = SubSegment{Start: round2(s.Start), End: round2(s.End), Text: s.Text}
	}

	b, err := json.Marshal(struct {
		Transcription string       `json:"transcription"`
		Segments      []SubSegment `json:"segments"`
		Duration      float64      `json:"duration"`
	}{res.Text, subs, round2(res.Duration)})
	if err != nil {
		return encodeError(err.Error())
	}
	return b
}

func encodeNoSpeech(duration float64) []byte {
	b, _ := json.Marshal(struct {
		Transcription string  `json:"transcription"`
		Message       string  `json:"message"`
		Duration      float64 `json:"duration"`
	}{"", noSpeechMessage, round2(duration)})
	return b
}

func encodeError(msg string) []byte {
	b, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{msg})
	return b
}

func encodeProtocolError() []byte {
	return encodeError(protocolErrorMessage)
}

// round2 fixes a real to two decimal places, per §6.4.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
