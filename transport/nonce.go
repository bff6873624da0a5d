package transport

import (
	"encoding/binary"
	uio "flagrelay/util/io"
	"io"
	"sync/atomic"
)

// NonceReadWriter produces and parses the nonces framing each
// encrypted message.
type NonceReadWriter interface {
	WriteNonce(w io.Writer) error
	ReadNonce(r io.Reader) ([]byte, error)
}

// sequentialNonceReadWriter hands out monotonically increasing nonces,
// safe as long as a given AEAD key is never reused across connections.
type sequentialNonceReadWriter struct {
	size int
	seq  uint64
}

func (snrw *sequentialNonceReadWriter) ReadNonce(r io.Reader) ([]byte, error) {
	nonce := make([]byte, snrw.size)
	_, err := io.ReadFull(r, nonce)
	return nonce, err
}

func (snrw *sequentialNonceReadWriter) WriteNonce(w io.Writer) error {
	nonce := make([]byte, snrw.size)
	seq := atomic.AddUint64(&snrw.seq, 1)
	switch {
	case snrw.size < 2:
		nonce[0] = byte(seq)
	case snrw.size < 4:
		binary.LittleEndian.PutUint16(nonce, uint16(seq))
	case snrw.size < 8:
		binary.LittleEndian.PutUint32(nonce, uint32(seq))
	default:
		binary.LittleEndian.PutUint64(nonce, seq)
	}
	return uio.WriteFull(w, nonce)
}
