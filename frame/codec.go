package frame

import (
	"bytes"
	"strconv"
)

const tlengthPrefix = "tlength:"

// Encode builds the full wire bytes for one or more segments,
// including the outer tlength header.
func Encode(segs ...Segment) []byte {
	body := encodeBody(segs)
	var buf bytes.Buffer
	buf.WriteString(tlengthPrefix)
	buf.WriteString(strconv.Itoa(len(body)))
	buf.WriteByte(';')
	buf.Write(body)
	return buf.Bytes()
}

// EncodeOne is a convenience wrapper for the common single-segment case.
func EncodeOne(tag Tag, payload []byte) []byte {
	return Encode(Segment{Tag: tag, Payload: payload})
}

func encodeBody(segs []Segment) []byte {
	var buf bytes.Buffer
	for _, seg := range segs {
		buf.WriteString("type:")
		buf.WriteString(string(seg.Tag))
		buf.WriteByte(';')
		buf.WriteString("length:")
		buf.WriteString(strconv.Itoa(len(seg.Payload)))
		buf.WriteByte(';')
		buf.WriteString("data:")
		buf.Write(seg.Payload)
	}
	return buf.Bytes()
}

// Decode parses a complete frame, including its tlength header, held
// entirely in memory. It is the pure counterpart to the streaming
// reader in package stream, used directly by round-trip tests.
func Decode(buf []byte) ([]Segment, error) {
	if !bytes.HasPrefix(buf, []byte(tlengthPrefix)) {
		return nil, ErrMalformedFrame
	}
	rest := buf[len(tlengthPrefix):]
	idx := bytes.IndexByte(rest, ';')
	if idx < 0 {
		return nil, ErrMalformedFrame
	}
	n, err := strconv.Atoi(string(rest[:idx]))
	if err != nil || n < 0 {
		return nil, ErrMalformedFrame
	}
	body := rest[idx+1:]
	if len(body) < n {
		return nil, ErrMalformedFrame
	}
	return DecodeBody(body[:n])
}

// DecodeBody parses the segments packed into a frame's body, once the
// outer tlength has already been stripped and verified by the caller
// (either Decode above or the streaming reader in package stream).
func DecodeBody(body []byte) ([]Segment, error) {
	var segs []Segment
	pos := 0
	for pos < len(body) {
		rest := body[pos:]
		if !bytes.HasPrefix(rest, []byte("type:")) {
			return nil, ErrMalformedFrame
		}
		rest = rest[len("type:"):]
		idx := bytes.IndexByte(rest, ';')
		if idx < 0 {
			return nil, ErrMalformedFrame
		}
		tag := string(rest[:idx])
		if len(tag) < 3 {
			return nil, ErrMalformedFrame
		}
		rest = rest[idx+1:]

		if !bytes.HasPrefix(rest, []byte("length:")) {
			return nil, ErrMalformedFrame
		}
		rest = rest[len("length:"):]
		idx2 := bytes.IndexByte(rest, ';')
		if idx2 < 0 {
			return nil, ErrMalformedFrame
		}
		length, err := strconv.Atoi(string(rest[:idx2]))
		if err != nil || length < 0 {
			return nil, ErrMalformedFrame
		}
		rest = rest[idx2+1:]

		if !bytes.HasPrefix(rest, []byte("data:")) {
			return nil, ErrMalformedFrame
		}
		rest = rest[len("data:"):]
		if length > len(rest) {
			return nil, ErrMalformedFrame
		}
		payload := make([]byte, length)
		copy(payload, rest[:length])
		segs = append(segs, Segment{Tag: Tag(tag), Payload: payload})

		consumed := len(body) - len(rest) + length
		pos = consumed
	}
	return segs, nil
}
