package game

import (
	"bytes"
	"flagrelay/frame"
	"flagrelay/validator"
)

// handleProvisioning drives the AWAIT_DIR -> AWAIT_CREATE_ACK -> READY
// handshake for a seat that is not yet ready to play. Must be called
// with s.mu held.
func (s *Session) handleProvisioning(seatIdx int, seat *Seat, segs []frame.Segment) error {
	flg, ok := leadingSegmentOfTag(segs, frame.TagFLG)
	if !ok {
		// Non-FLG frames are silently discarded while a seat is still
		// being provisioned.
		return nil
	}

	switch seat.state {
	case stateAwaitDir:
		return s.handleDirProposal(seat, flg.Payload)
	case stateAwaitCreateAck:
		return s.handleCreateAck(seat, flg.Payload)
	default:
		return nil
	}
}

func (s *Session) handleDirProposal(seat *Seat, payload []byte) error {
	dir := string(payload)
	if err := validator.ValidatePath(dir, s.cfg); err != nil {
		return s.retryOrFail(seat, stateAwaitDir)
	}

	token, err := s.generateToken()
	if err != nil {
		return err
	}
	seat.dir = dir
	seat.token = token
	seat.state = stateAwaitCreateAck

	cmd := "echo '" + string(token) + "' > " + dir + "/flag.txt"
	return seat.fs.WriteFrame(frame.Segment{Tag: frame.TagFLG, Payload: []byte(cmd)})
}

func (s *Session) handleCreateAck(seat *Seat, payload []byte) error {
	if bytes.Equal(payload, []byte(msgOkay)) {
		seat.state = stateReady
		seat.retries = 0
		return nil
	}
	return s.retryOrFail(seat, stateAwaitDir)
}

// retryOrFail counts a failed provisioning attempt against the
// configured limit, either asking for a new directory at nextState or
// signalling the caller to drop the connection once exhausted.
func (s *Session) retryOrFail(seat *Seat, nextState flagState) error {
	seat.retries++
	if seat.retries >= s.cfg.MaxFlagRetries {
		return ErrFlagRetriesExhausted
	}
	seat.state = nextState
	return seat.fs.WriteFrame(frame.Segment{Tag: frame.TagFLG, Payload: []byte(msgError)})
}
