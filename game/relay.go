package game

import (
	"bytes"
	"flagrelay/frame"
	"flagrelay/util"
	"flagrelay/validator"
)

// handleGameplay processes one frame from a READY seat: win
// detection, command policy, and verbatim forwarding to the opposite
// seat. Must be called with s.mu held.
func (s *Session) handleGameplay(seatIdx int, seat *Seat, raw []byte, segs []frame.Segment) error {
	peerIdx := 1 - seatIdx
	peer := s.seats[peerIdx]

	if peer == nil || peer.departed || peer.state != stateReady {
		return seat.fs.WriteFrame(frame.Segment{Tag: frame.TagERR, Payload: []byte(msgWaitSecond)})
	}

	cmd, isCMD := leadingSegmentOfTag(segs, frame.TagCMD)
	if !isCMD {
		return peer.fs.WriteRaw(raw)
	}

	if bytes.Equal(cmd.Payload, peer.token) {
		return s.declareWin(seat, peer)
	}

	if err := validator.ValidateCommand(string(cmd.Payload), s.cfg); err != nil {
		return seat.fs.WriteFrame(frame.Segment{Tag: frame.TagERR, Payload: []byte(msgInvalidData)})
	}

	return peer.fs.WriteRaw(raw)
}

func (s *Session) declareWin(winner, loser *Seat) error {
	s.stop.Set(true)
	// Both handlers are still alive and each block on their own receive
	// from wake, so both need a slot filled; the buffer is sized for
	// exactly the two seats.
	util.AsyncNotify(s.wake)
	util.AsyncNotify(s.wake)

	if err := winner.fs.WriteFrame(frame.Segment{Tag: frame.TagOUT, Payload: []byte(msgYouWon)}); err != nil {
		return err
	}
	return loser.fs.WriteFrame(frame.Segment{Tag: frame.TagOUT, Payload: []byte(msgYouLost)})
}
