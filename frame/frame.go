// Package frame implements the wire codec shared by every session
// handler: a length-prefixed frame carrying one or more tagged
// segments, each itself length-prefixed.
//
//	tlength:<N>;type:<TAG>;length:<L>;data:<L bytes>...
package frame

import "errors"

// Tag identifies the purpose of a segment's payload.
type Tag string

const (
	TagCMD Tag = "CMD"
	TagOUT Tag = "OUT"
	TagERR Tag = "ERR"
	TagCWD Tag = "CWD"
	TagFLG Tag = "FLG"
	TagKEY Tag = "KEY"
)

// ErrMalformedFrame is returned when a frame's structure cannot be
// parsed: a missing "type:"/"data:" literal, a tag shorter than three
// characters, or a declared length that exceeds what remains.
var ErrMalformedFrame = errors.New("frame: malformed")

// Segment is one tagged unit of a frame's body.
type Segment struct {
	Tag     Tag
	Payload []byte
}

// NewSegment builds a Segment, copying payload so the caller's slice
// can be reused or mutated afterward.
func NewSegment(tag Tag, payload []byte) Segment {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return Segment{Tag: tag, Payload: cp}
}
