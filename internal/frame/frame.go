package frame

import (
	"encoding/binary"
	"errors"
	"io"
	"time"
)

// HeaderLen is the fixed wire header size: port id (1) + timestamp (8) +
// payload length (4).
const HeaderLen = 13

var (
	ErrShortBuffer     = errors.New("frame: destination buffer too small")
	ErrShortHeader     = errors.New("frame: short header")
	ErrPayloadBounds   = errors.New("frame: declared payload exceeds buffer")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Header is the decoded fixed wire header.
type Header struct {
	PortID     uint8
	Timestamp  uint64
	PayloadLen uint32
}

// Frame is one complete port record: origin port, capture time in
// microseconds since epoch, and the raw device payload.
type Frame struct {
	PortID    uint8
	Timestamp uint64
	Payload   []byte
}

// Limits constrains stream decode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 16 * 1024 * 1024,
	}
}

// EncodedLen returns the wire size of f.
func EncodedLen(f Frame) int {
	return HeaderLen + len(f.Payload)
}

// NowTimestamp returns the current frame timestamp in microseconds since
// epoch.
func NowTimestamp() uint64 {
	return uint64(time.Now().UnixMicro())
}

// EncodeFrame writes f into dst and returns the encoded size. dst is left
// untouched when it cannot hold the whole frame.
func EncodeFrame(dst []byte, f Frame) (int, error) {
	if uint64(len(f.Payload)) > uint64(^uint32(0)) {
		return 0, ErrPayloadTooLarge
	}
	total := HeaderLen + len(f.Payload)
	if len(dst) < total {
		return 0, ErrShortBuffer
	}
	dst[0] = f.PortID
	binary.LittleEndian.PutUint64(dst[1:9], f.Timestamp)
	binary.LittleEndian.PutUint32(dst[9:13], uint32(len(f.Payload)))
	copy(dst[HeaderLen:], f.Payload)
	return total, nil
}

// AppendFrame appends the encoded form of f to dst and returns the extended
// slice.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	if uint64(len(f.Payload)) > uint64(^uint32(0)) {
		return dst, ErrPayloadTooLarge
	}
	buf := make([]byte, HeaderLen)
	buf[0] = f.PortID
	binary.LittleEndian.PutUint64(buf[1:9], f.Timestamp)
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(f.Payload)))
	dst = append(dst, buf...)
	return append(dst, f.Payload...), nil
}

// DecodeHeader parses the fixed header at the start of buf and validates
// that the declared payload fits in the remainder. The payload itself is
// not touched; callers slice it from buf via PayloadView.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, ErrShortHeader
	}
	h := parseHeader(buf)
	if uint64(h.PayloadLen) > uint64(len(buf)-HeaderLen) {
		return Header{}, ErrPayloadBounds
	}
	return h, nil
}

// PayloadView returns the payload bytes of the frame encoded at the start
// of buf. The returned slice aliases buf; it is a view, never a copy.
func PayloadView(buf []byte) ([]byte, error) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	return buf[HeaderLen : HeaderLen+int(h.PayloadLen)], nil
}

func parseHeader(b []byte) Header {
	return Header{
		PortID:     b[0],
		Timestamp:  binary.LittleEndian.Uint64(b[1:9]),
		PayloadLen: binary.LittleEndian.Uint32(b[9:13]),
	}
}

// WriteFrame writes one frame to w.
func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	if uint64(len(f.Payload)) > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	var hdr [HeaderLen]byte
	hdr[0] = f.PortID
	binary.LittleEndian.PutUint64(hdr[1:9], f.Timestamp)
	binary.LittleEndian.PutUint32(hdr[9:13], uint32(len(f.Payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(f.Payload) == 0 {
		return nil
	}
	_, err := w.Write(f.Payload)
	return err
}

// ReadFrame reads one complete frame from r.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h := parseHeader(hdr[:])
	if uint64(h.PayloadLen) > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Frame{}, ErrPayloadBounds
			}
			return Frame{}, err
		}
	}

	return Frame{PortID: h.PortID, Timestamp: h.Timestamp, Payload: payload}, nil
}
