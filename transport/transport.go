// Package transport wraps a net.Conn with an optional AEAD
// confidentiality layer. Key agreement is out of scope here: Wrap
// takes a ready cipher.AEAD and defaults to a transparent pass-through
// when none is given, keeping the wire protocol opaque to whatever
// encryption the deployment chooses.
package transport

import (
	"bufio"
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"io"
	"net"
	"sync"
)

const (
	defaultBufferSize = 65535
	minBufferSize     = 512
)

// Config configures an AEAD-wrapped Conn. A nil AEAD tells Wrap to
// return the underlying net.Conn unchanged.
type Config struct {
	AEAD       cipher.AEAD
	BufferSize int
}

// DefaultConfig builds a Config around aead with a sequential nonce
// writer/reader and a sensible buffer size.
func DefaultConfig(aead cipher.AEAD) Config {
	return Config{
		AEAD:       aead,
		BufferSize: defaultBufferSize,
	}
}

// Conn decorates a net.Conn, encrypting every Write and decrypting
// every Read with the configured AEAD. All other net.Conn methods are
// promoted from the embedded connection unchanged.
type Conn struct {
	net.Conn
	aead cipher.AEAD
	nrw  NonceReadWriter

	reader *bufio.Reader
	writer *bufio.Writer
	buffer *bytes.Buffer
	mu     sync.Mutex
}

// Wrap returns conn decorated with cfg's AEAD, or conn itself if cfg
// is nil or carries no AEAD.
func Wrap(conn net.Conn, cfg *Config) net.Conn {
	if cfg == nil || cfg.AEAD == nil {
		return conn
	}
	bufSize := cfg.BufferSize
	if bufSize < minBufferSize {
		bufSize = minBufferSize
	}
	return &Conn{
		Conn:   conn,
		aead:   cfg.AEAD,
		nrw:    &sequentialNonceReadWriter{size: cfg.AEAD.NonceSize()},
		reader: bufio.NewReaderSize(conn, bufSize),
		writer: bufio.NewWriterSize(conn, bufSize),
		buffer: bytes.NewBuffer(make([]byte, 0, bufSize)),
	}
}

func (c *Conn) Read(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buffer.Len() > 0 {
		return c.buffer.Read(b)
	}
	nonce, err := c.nrw.ReadNonce(c.reader)
	if err != nil {
		return 0, err
	}
	ciphertext, err := readLenPrefixed(c.reader)
	if err != nil {
		return 0, err
	}
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return 0, err
	}
	c.buffer.Write(plaintext)
	return c.buffer.Read(b)
}

func (c *Conn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(b)
	var buf bytes.Buffer
	if err := c.nrw.WriteNonce(&buf); err != nil {
		return 0, err
	}
	nonce := buf.Bytes()
	ciphertext := c.aead.Seal(nil, nonce, b, nil)
	if err := writeLenPrefixed(&buf, ciphertext); err != nil {
		return 0, err
	}
	if _, err := buf.WriteTo(c.writer); err != nil {
		return 0, err
	}
	return n, c.writer.Flush()
}

func writeLenPrefixed(w io.Writer, b []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
