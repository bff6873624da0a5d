// Package game implements the two-seat session: the flag-provisioning
// handshake each seat completes on connect, and the command relay and
// win detection that follow once both seats are ready.
package game

import (
	"errors"
	"flagrelay/config"
	"flagrelay/frame"
	"flagrelay/secret"
	"flagrelay/stream"
	uatomic "flagrelay/util/atomic"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrSessionFull is returned by Seat when both slots are already
// occupied. The scheduler only calls Seat on a session it has already
// confirmed has room, so this indicates a scheduling race.
var ErrSessionFull = errors.New("game: session has no free seat")

// Session pairs up to two seats and relays gameplay between them once
// both have completed flag provisioning.
type Session struct {
	id  uint32
	cfg config.Config
	log *logrus.Entry

	mu        sync.Mutex
	seats     [2]*Seat
	seatCount int
	stop      uatomic.Bool

	wake chan struct{}
}

// NewSession allocates an empty, unpaired session.
func NewSession(id uint32, cfg config.Config, log *logrus.Logger) *Session {
	return &Session{
		id:   id,
		cfg:  cfg,
		log:  log.WithField("session", id),
		wake: make(chan struct{}, 2),
	}
}

// ID reports the session's slot identifier, for logging.
func (s *Session) ID() uint32 {
	return s.id
}

// WakeCh is signaled whenever a seat departs or the session ends in a
// win, so the peer handler's select loop can notice without polling.
func (s *Session) WakeCh() <-chan struct{} {
	return s.wake
}

// Stopped reports whether the session has ended, by win or by either
// seat departing.
func (s *Session) Stopped() bool {
	return s.stop.Get()
}

// IsFull reports whether both seats are occupied.
func (s *Session) IsFull() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seatCount == 2
}

// IsJoinable reports whether the session has exactly one seat filled,
// the only state in which the scheduler may attach a second connection
// to it rather than allocating a fresh session.
func (s *Session) IsJoinable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seatCount == 1
}

// IsEmpty reports whether the session has no seats left, the
// condition the reaper watches for alongside Stopped.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seatCount == 0
}

// Seat attaches conn as a new seat, immediately kicking off flag
// provisioning by requesting a directory. It returns the seat index
// (0 or 1) the caller's handler should use for subsequent calls.
func (s *Session) Seat(conn net.Conn) (int, error) {
	fs := stream.New(conn)
	seat := newSeat(fs)

	s.mu.Lock()
	idx := -1
	for i, existing := range s.seats {
		if existing == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return -1, ErrSessionFull
	}
	s.seats[idx] = seat
	s.seatCount++
	s.mu.Unlock()

	if err := fs.WriteFrame(frame.Segment{Tag: frame.TagFLG, Payload: []byte(msgFlagDir)}); err != nil {
		return idx, err
	}
	return idx, nil
}

// HandleFrame dispatches one received frame from seatIdx, relaying,
// replying, or consuming it according to that seat's provisioning
// state.
func (s *Session) HandleFrame(seatIdx int, raw []byte, segs []frame.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat := s.seats[seatIdx]
	if seat == nil || seat.departed {
		return nil
	}

	if seat.state != stateReady {
		return s.handleProvisioning(seatIdx, seat, segs)
	}
	return s.handleGameplay(seatIdx, seat, raw, segs)
}

func (s *Session) generateToken() ([]byte, error) {
	return secret.GenerateToken(s.cfg.FlagTokenLen)
}

// leadingSegmentOfTag reports segs[0] and true only when the frame's
// leading segment carries tag, matching the wire contract that only
// the first segment of a frame is ever dispatched on its tag.
func leadingSegmentOfTag(segs []frame.Segment, tag frame.Tag) (frame.Segment, bool) {
	if len(segs) == 0 || segs[0].Tag != tag {
		return frame.Segment{}, false
	}
	return segs[0], true
}
