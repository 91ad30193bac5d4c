package frame

import (
	"encoding/json"
	"fmt"

	"github.com/jsonmux/jsonmux/internal/protocol"
)

// Result is one decode outcome in stream order. Err is non-nil when a
// complete frame's payload failed JSON parsing; the frame's bytes are
// already consumed and decoding continues past it.
type Result struct {
	Msg protocol.Message
	Err error
}

// Decoder turns an unbounded byte stream into discrete messages. It
// accumulates transport chunks and splits complete frames; partial
// frames stay buffered until more input arrives. One Decoder serves
// exactly one connection.
type Decoder struct {
	width PrefixWidth
	buf   []byte
}

func NewDecoder(w PrefixWidth) (*Decoder, error) {
	if _, err := ParsePrefixWidth(int(w)); err != nil {
		return nil, err
	}
	return &Decoder{width: w}, nil
}

// Feed appends chunk to the accumulation buffer and returns every frame
// that is now complete. A single chunk may complete zero, one or many
// frames; the completeness check re-reads the declared length from the
// current buffer front on every iteration.
func (d *Decoder) Feed(chunk []byte) []Result {
	d.buf = append(d.buf, chunk...)
	var out []Result
	for {
		payload, rest, ok := splitFrame(d.buf, d.width)
		if !ok {
			break
		}
		d.buf = rest
		var msg protocol.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			out = append(out, Result{Err: fmt.Errorf("%w: %v", ErrMalformedFrame, err)})
			continue
		}
		out = append(out, Result{Msg: msg})
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return out
}

// Buffered reports how many bytes are held back waiting for a complete
// frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// splitFrame extracts one complete frame from the front of buf. ok is
// false while buf is shorter than the prefix or the declared payload.
func splitFrame(buf []byte, w PrefixWidth) (payload, rest []byte, ok bool) {
	if len(buf) < int(w) {
		return nil, buf, false
	}
	n := w.readLen(buf[:int(w)])
	total := int(w) + n
	if len(buf) < total {
		return nil, buf, false
	}
	return buf[int(w):total], buf[total:], true
}
