package server

import (
	"errors"
	"flagrelay/config"
	"flagrelay/frame"
	"flagrelay/game"
	"flagrelay/stream"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// ClientHandler owns one seated connection: it reads frames, dispatches
// them to the session, and exits on transport error, peer departure,
// or shutdown.
type ClientHandler struct {
	sess     *game.Session
	seatIdx  int
	conn     net.Conn
	cfg      config.Config
	log      *logrus.Entry
	shutdown <-chan struct{}
}

func newClientHandler(sess *game.Session, seatIdx int, conn net.Conn, cfg config.Config, log *logrus.Logger, shutdown <-chan struct{}) *ClientHandler {
	return &ClientHandler{
		sess:     sess,
		seatIdx:  seatIdx,
		conn:     conn,
		cfg:      cfg,
		log:      log.WithField("seat", seatIdx).WithField("session", sess.ID()),
		shutdown: shutdown,
	}
}

type readOutcome struct {
	raw  []byte
	segs []frame.Segment
	err  error
}

// Run reads and dispatches frames until the connection, the session,
// or the process tells it to stop.
func (h *ClientHandler) Run() {
	defer h.conn.Close()

	fs := stream.New(h.conn)
	readCh := make(chan readOutcome, 1)
	done := make(chan struct{})
	defer close(done)
	go h.readRoutine(fs, readCh, done)

	ticker := time.NewTicker(h.cfg.HandlerTick())
	defer ticker.Stop()

	for {
		select {
		case res := <-readCh:
			if errors.Is(res.err, frame.ErrMalformedFrame) {
				h.log.Warn("discarding malformed frame")
				continue
			}
			if res.err != nil {
				h.departSelf()
				return
			}
			if err := h.sess.HandleFrame(h.seatIdx, res.raw, res.segs); err != nil {
				if errors.Is(err, game.ErrFlagRetriesExhausted) {
					h.log.Info("flag provisioning retries exhausted, dropping connection")
				} else {
					h.log.WithError(err).Warn("failed to handle frame")
				}
				h.departSelf()
				return
			}
		case <-h.sess.WakeCh():
			if h.sess.Stopped() {
				if h.sess.ConsumeDisconnectNotice(h.seatIdx) {
					_ = h.sess.WriteDisconnectNotice(h.seatIdx)
				}
				return
			}
		case <-ticker.C:
			// periodic wakeup only; nothing to do unless stopped or
			// shutting down, both covered by the other select arms.
		case <-h.shutdown:
			h.departSelf()
			return
		}
	}
}

func (h *ClientHandler) departSelf() {
	h.sess.Depart(h.seatIdx)
}

// readRoutine feeds readCh with every frame off the wire, continuing
// past malformed frames but stopping on the first transport error.
func (h *ClientHandler) readRoutine(fs *stream.FrameStream, readCh chan<- readOutcome, done <-chan struct{}) {
	for {
		raw, segs, err := fs.ReadFrame()
		select {
		case readCh <- readOutcome{raw: raw, segs: segs, err: err}:
		case <-done:
			return
		}
		if err != nil && !errors.Is(err, frame.ErrMalformedFrame) {
			return
		}
	}
}
