package frame

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jsonmux/jsonmux/internal/protocol"
)

// PrefixWidth is the byte width of the big-endian length prefix on
// every frame. Both peers must be configured identically; there is no
// in-band negotiation.
type PrefixWidth uint8

const (
	Width1 PrefixWidth = 1
	Width2 PrefixWidth = 2
	Width4 PrefixWidth = 4

	DefaultWidth = Width1
)

var (
	ErrInvalidPrefixWidth = errors.New("frame: prefix width must be 1, 2 or 4")
	ErrFrameTooLarge      = errors.New("frame: encoded payload exceeds prefix capacity")
	ErrMalformedFrame     = errors.New("frame: payload is not valid JSON")
)

// ParsePrefixWidth validates a configured width value.
func ParsePrefixWidth(n int) (PrefixWidth, error) {
	switch n {
	case 1:
		return Width1, nil
	case 2:
		return Width2, nil
	case 4:
		return Width4, nil
	default:
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPrefixWidth, n)
	}
}

// MaxPayload is the largest payload length the prefix can declare.
func (w PrefixWidth) MaxPayload() int {
	return int(uint64(1)<<(8*uint(w)) - 1)
}

func (w PrefixWidth) putLen(dst []byte, n int) {
	switch w {
	case Width1:
		dst[0] = byte(n)
	case Width2:
		binary.BigEndian.PutUint16(dst, uint16(n))
	default:
		binary.BigEndian.PutUint32(dst, uint32(n))
	}
}

func (w PrefixWidth) readLen(src []byte) int {
	switch w {
	case Width1:
		return int(src[0])
	case Width2:
		return int(binary.BigEndian.Uint16(src))
	default:
		return int(binary.BigEndian.Uint32(src))
	}
}

// Encode serializes msg to UTF-8 JSON and prepends the length prefix.
// ErrFrameTooLarge is returned before anything is written when the
// JSON text does not fit the prefix; the frame must not be sent.
func Encode(msg protocol.Message, w PrefixWidth) ([]byte, error) {
	if _, err := ParsePrefixWidth(int(w)); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("frame: marshal: %w", err)
	}
	if len(payload) > w.MaxPayload() {
		return nil, fmt.Errorf("%w: %d bytes, max %d at width %d",
			ErrFrameTooLarge, len(payload), w.MaxPayload(), w)
	}
	out := make([]byte, int(w)+len(payload))
	w.putLen(out[:int(w)], len(payload))
	copy(out[int(w):], payload)
	return out, nil
}
