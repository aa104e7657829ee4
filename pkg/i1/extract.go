package i1

import "encoding/binary"

type extractorState int

const (
	stateSeekSync extractorState = iota
	stateNeedHeader
	stateNeedBody
)

// Extractor pulls complete frames out of a TCP byte stream. It is purely
// syntactic: a returned frame has a plausible sync, length and size, but
// CRC and payload validation belong to DecodeUplink.
//
// The extractor owns its buffer and keeps its position between calls, so
// a frame split across many reads costs no repeated scanning. It is not
// safe for concurrent use; each connection owns one.
type Extractor struct {
	buf      []byte
	state    extractorState
	frameLen int
	maxFrame int
}

// NewExtractor returns an extractor that rejects frames whose declared
// size exceeds maxFrame. maxFrame <= 0 selects DefaultMaxFrameSize.
func NewExtractor(maxFrame int) *Extractor {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &Extractor{maxFrame: maxFrame}
}

// Append adds freshly received bytes to the buffer.
func (e *Extractor) Append(p []byte) {
	e.buf = append(e.buf, p...)
}

// Buffered reports how many bytes are waiting in the buffer.
func (e *Extractor) Buffered() int { return len(e.buf) }

// Next returns the next complete frame, or (nil, false) when more input
// is needed. Garbage between frames is skipped; a spurious sync whose
// declared length is zero or oversized is stepped past so a real frame
// behind it is still found.
func (e *Extractor) Next() ([]byte, bool) {
	for {
		switch e.state {
		case stateSeekSync:
			if len(e.buf) == 0 {
				return nil, false
			}
			idx := e.findSync()
			if idx < 0 {
				// Keep the final byte: it may be the first half of a
				// sync split across reads.
				e.buf = e.buf[len(e.buf)-1:]
				return nil, false
			}
			e.buf = e.buf[idx:]
			e.state = stateNeedHeader

		case stateNeedHeader:
			if len(e.buf) < 4 {
				return nil, false
			}
			packetLength := int(binary.LittleEndian.Uint16(e.buf[2:4]))
			expected := Overhead + packetLength
			if packetLength == 0 || expected > e.maxFrame {
				// Spurious sync. Step past it and rescan.
				e.buf = e.buf[2:]
				e.state = stateSeekSync
				continue
			}
			e.frameLen = expected
			e.state = stateNeedBody

		case stateNeedBody:
			if len(e.buf) < e.frameLen {
				return nil, false
			}
			frame := make([]byte, e.frameLen)
			copy(frame, e.buf[:e.frameLen])
			e.buf = e.buf[e.frameLen:]
			e.state = stateSeekSync
			return frame, true
		}
	}
}

func (e *Extractor) findSync() int {
	for i := 0; i+1 < len(e.buf); i++ {
		if e.buf[i] == SyncByte0 && e.buf[i+1] == SyncByte1 {
			return i
		}
	}
	return -1
}
