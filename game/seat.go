package game

import (
	"flagrelay/stream"
)

// Seat is one of a session's two connected players. Its mutable
// fields are owned exclusively by the handler goroutine reading that
// seat's connection; only Depart and the disconnect-notice flag are
// touched from outside, and always under the session's lock.
type Seat struct {
	fs *stream.FrameStream

	state   flagState
	dir     string
	token   []byte
	retries int

	departed            bool
	oweDisconnectNotice bool
}

func newSeat(fs *stream.FrameStream) *Seat {
	return &Seat{fs: fs, state: stateAwaitDir}
}
