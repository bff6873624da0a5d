package game

import (
	"flagrelay/frame"
	"flagrelay/util"
)

// Depart marks seatIdx as gone, unconditionally flips the session to
// stopped, and wakes any blocked peer handler. If the opposite seat
// is still connected, it is marked as owing a one-time disconnect
// notice, fetched by ConsumeDisconnectNotice once it wakes.
func (s *Session) Depart(seatIdx int) {
	s.mu.Lock()
	seat := s.seats[seatIdx]
	if seat == nil || seat.departed {
		s.mu.Unlock()
		return
	}
	seat.departed = true
	s.seatCount--
	s.stop.Set(true)

	peerIdx := 1 - seatIdx
	if peer := s.seats[peerIdx]; peer != nil && !peer.departed {
		peer.oweDisconnectNotice = true
	}
	s.mu.Unlock()

	util.AsyncNotify(s.wake)
}

// ConsumeDisconnectNotice reports, at most once per departure, whether
// seatIdx's handler should emit the other-client-disconnected frame:
// true exactly once if that seat is still connected and a notice is
// owed, false on every other call.
func (s *Session) ConsumeDisconnectNotice(seatIdx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat := s.seats[seatIdx]
	if seat == nil || seat.departed || !seat.oweDisconnectNotice {
		return false
	}
	seat.oweDisconnectNotice = false
	return true
}

// WriteDisconnectNotice writes the standard other-client-disconnected
// ERR frame to seatIdx's connection.
func (s *Session) WriteDisconnectNotice(seatIdx int) error {
	s.mu.Lock()
	seat := s.seats[seatIdx]
	s.mu.Unlock()
	if seat == nil {
		return nil
	}
	return seat.fs.WriteFrame(frame.Segment{Tag: frame.TagERR, Payload: []byte(msgOtherDisconnected)})
}
