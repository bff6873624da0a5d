// Package stream turns a raw byte stream into a sequence of frames,
// reading and writing the wire format defined by package frame.
package stream

import (
	"bufio"
	"flagrelay/frame"
	uio "flagrelay/util/io"
	"io"
	"strconv"
	"strings"
	"sync"
)

const (
	defaultBufferSize = 65535
	tlengthPrefix     = "tlength:"

	// maxFrameBodySize bounds the tlength a peer may declare, so a
	// malicious or buggy client cannot force an arbitrarily large
	// allocation before any payload bytes have even arrived.
	maxFrameBodySize = 1 << 20
)

// FrameStream reads and writes frames over an underlying
// io.ReadWriter, serializing concurrent writers.
type FrameStream struct {
	r   *bufio.Reader
	w   io.Writer
	wmu sync.Mutex
}

// New wraps rw for frame-oriented reads and writes. Each FrameStream
// owns its own bufio.Reader, so rw must not be read from elsewhere.
func New(rw io.ReadWriter) *FrameStream {
	return &FrameStream{
		r: bufio.NewReaderSize(rw, defaultBufferSize),
		w: rw,
	}
}

// ReadFrame blocks until one complete frame has been read off the
// wire, returning both the raw bytes (for verbatim forwarding) and
// the parsed segments. A malformed frame is reported via
// frame.ErrMalformedFrame without closing the stream; any other
// error is a transport failure and the stream should not be reused.
func (fs *FrameStream) ReadFrame() (raw []byte, segs []frame.Segment, err error) {
	header, err := fs.r.ReadString(';')
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasPrefix(header, tlengthPrefix) {
		return nil, nil, frame.ErrMalformedFrame
	}
	nStr := strings.TrimSuffix(strings.TrimPrefix(header, tlengthPrefix), ";")
	n, convErr := strconv.Atoi(nStr)
	if convErr != nil || n < 0 || n > maxFrameBodySize {
		return nil, nil, frame.ErrMalformedFrame
	}

	body, err := uio.ReadBytes(fs.r, n)
	if err != nil {
		return nil, nil, err
	}

	raw = make([]byte, 0, len(header)+len(body))
	raw = append(raw, header...)
	raw = append(raw, body...)

	segs, decErr := frame.DecodeBody(body)
	if decErr != nil {
		return raw, nil, decErr
	}
	return raw, segs, nil
}

// WriteFrame encodes the given segments and writes the resulting
// frame in a single call, so concurrent writers never interleave.
func (fs *FrameStream) WriteFrame(segs ...frame.Segment) error {
	raw := frame.Encode(segs...)
	return fs.WriteRaw(raw)
}

// WriteRaw writes already-encoded frame bytes verbatim, used by the
// session relay to forward a frame to the opposite seat without
// re-encoding it.
func (fs *FrameStream) WriteRaw(raw []byte) error {
	fs.wmu.Lock()
	defer fs.wmu.Unlock()
	return uio.WriteFull(fs.w, raw)
}
