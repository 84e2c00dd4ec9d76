// Package pipeline implements the per-connection streaming
// segmentation-and-transcription state machine (C5): accumulate ->
// block -> VAD -> enqueue -> ordered reply.
package pipeline

import (
	"encoding/binary"
	"log"
	"math"

	"speechserver/internal/queue"
	"speechserver/internal/vad"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// responseQueueDepth bounds the per-connection reply channel (§4.4).
const responseQueueDepth = 10

// Conn is the minimal framed-message transport a ConnectionPipeline
// needs. *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// ConnectionPipeline drives one accepted connection: it owns a fresh
// VadDetector and Accumulator, shares the Server's JobQueue, and
// guarantees replies are written back in segment-completion order.
type ConnectionPipeline struct {
	id    uuid.UUID
	conn  Conn
	vad   *vad.VadDetector
	queue *queue.JobQueue
	acc   Accumulator
	resp  chan []byte

	blockSamples     int
	minSpeechSamples int
}

// New constructs a ConnectionPipeline. blockSamples is SR *
// block_seconds; minSpeechSamples gates which VAD segments are worth
// dispatching as a job.
func New(conn Conn, detector *vad.VadDetector, q *queue.JobQueue, blockSamples, minSpeechSamples int) *ConnectionPipeline {
	return &ConnectionPipeline{
		id:               uuid.New(),
		conn:             conn,
		vad:              detector,
		queue:            q,
		resp:             make(chan []byte, responseQueueDepth),
		blockSamples:     blockSamples,
		minSpeechSamples: minSpeechSamples,
	}
}

// Run drives the reader and writer until the connection ends. It
// blocks until both finish; call it from its own goroutine per
// connection.
func (p *ConnectionPipeline) Run() {
	writerDone := make(chan struct{})
	go func() {
		p.writeLoop()
		close(writerDone)
	}()

	p.readLoop()
	close(p.resp)
	<-writerDone
}

func (p *ConnectionPipeline) readLoop() {
readLoop:
	for {
		messageType, data, err := p.conn.ReadMessage()
		if err != nil {
			break readLoop
		}

		switch messageType {
		case websocket.BinaryMessage:
			p.handleBinary(data)
		case websocket.TextMessage:
			p.handleText(string(data))
		case websocket.CloseMessage:
			break readLoop
		}
	}

	if p.acc.Len() >= p.minSpeechSamples {
		p.flush()
	}
}

func (p *ConnectionPipeline) handleBinary(data []byte) {
	p.acc.Append(decodeF32LE(data))

	for p.acc.Len() >= p.blockSamples {
		block := p.acc.DrainBlock(p.blockSamples)
		p.processBlock(block)
	}
}

func (p *ConnectionPipeline) handleText(text string) {
	if text == "flush" {
		p.flush()
		return
	}
	p.resp <- encodeProtocolError()
}

// flush runs VAD over whatever remains in the Accumulator if it meets
// the minimum-speech gate, dispatches qualifying segments, then
// clears the buffer regardless (§4.4).
func (p *ConnectionPipeline) flush() {
	block := p.acc.TakeAll()
	if len(block) < p.minSpeechSamples {
		return
	}
	p.processBlock(block)
}

// processBlock runs VAD on one block of audio and, for every segment
// long enough to be worth transcribing, submits it as a job and waits
// for the reply before moving to the next segment, preserving
// per-connection reply order (§4.4, §5).
func (p *ConnectionPipeline) processBlock(block []float32) {
	segments, err := p.vad.Segment(block)
	if err != nil {
		log.Printf("pipeline %s: vad error, skipping block: %v", p.id, err)
		return
	}

	for _, seg := range segments {
		length := seg.EndOffset - seg.StartOffset
		if length < int64(p.minSpeechSamples) {
			continue
		}

		sub := make([]float32, length)
		copy(sub, block[seg.StartOffset:seg.EndOffset])

		job := queue.NewJob(sub)
		p.queue.Submit(job)
		result := <-job.Reply

		p.resp <- encodeResult(result)
	}
}

func (p *ConnectionPipeline) writeLoop() {
	for reply := range p.resp {
		if err := p.conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			return
		}
	}
}

// decodeF32LE decodes data as little-endian 32-bit floats, truncating
// any trailing bytes that don't form a complete sample (§4.4, S3).
func decodeF32LE(data []byte) []float32 {
	n := len(data) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
