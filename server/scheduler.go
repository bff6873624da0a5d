// Package server implements the scheduler that accepts connections,
// seats them into game sessions, reaps finished sessions, and drains
// live handlers on shutdown.
package server

import (
	"flagrelay/config"
	"flagrelay/frame"
	"flagrelay/game"
	"flagrelay/transport"
	"flagrelay/util"
	uio "flagrelay/util/io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler owns the listener and the fixed table of game slots, and
// hands each accepted connection to a ClientHandler goroutine.
type Scheduler struct {
	ln        net.Listener
	cfg       config.Config
	log       *logrus.Logger
	transport *transport.Config

	idg util.IDGenerator

	mu    sync.Mutex
	slots []*game.Session

	liveHandlers int32
	wg           sync.WaitGroup
}

// NewScheduler builds a Scheduler bound to ln, sized by cfg.MaxGames.
// A nil transportCfg means accepted connections are served in the
// clear.
func NewScheduler(ln net.Listener, cfg config.Config, log *logrus.Logger, transportCfg *transport.Config) *Scheduler {
	return &Scheduler{
		ln:        ln,
		cfg:       cfg,
		log:       log,
		transport: transportCfg,
		slots:     make([]*game.Session, cfg.MaxGames),
	}
}

// Run accepts connections and seats them until shutdown is closed,
// then drains every live handler before returning.
func (sch *Scheduler) Run(shutdown <-chan struct{}) error {
	connCh := make(chan net.Conn)
	errCh := make(chan error, 1)
	go sch.acceptRoutine(connCh, errCh)

	ticker := time.NewTicker(sch.cfg.AcceptIdleSleep())
	defer ticker.Stop()

	for {
		select {
		case conn := <-connCh:
			sch.seat(conn, shutdown)
		case err := <-errCh:
			return err
		case <-ticker.C:
			sch.reap()
		case <-shutdown:
			sch.drain()
			return nil
		}
	}
}

func (sch *Scheduler) acceptRoutine(connCh chan<- net.Conn, errCh chan<- error) {
	for {
		conn, err := sch.ln.Accept()
		if err != nil {
			errCh <- err
			return
		}
		connCh <- conn
	}
}

// seat finds room for conn in an existing half-filled session or a
// fresh slot, rejecting it with a capacity error if none exists.
func (sch *Scheduler) seat(conn net.Conn, shutdown <-chan struct{}) {
	if atomic.LoadInt32(&sch.liveHandlers) >= int32(sch.cfg.MaxLiveHandlers()) {
		sch.reject(conn, msgCapacityReached)
		return
	}

	conn = transport.Wrap(conn, sch.transport)

	sch.mu.Lock()
	sess := sch.findJoinableSlot()
	if sess == nil {
		sess = sch.allocateSlot()
	}
	sch.mu.Unlock()

	if sess == nil {
		sch.reject(conn, msgCapacityReached)
		return
	}

	seatIdx, err := sess.Seat(conn)
	if err != nil {
		sch.log.WithError(err).Warn("failed to seat connection")
		conn.Close()
		return
	}

	atomic.AddInt32(&sch.liveHandlers, 1)
	sch.wg.Add(1)
	handler := newClientHandler(sess, seatIdx, conn, sch.cfg, sch.log, shutdown)
	go func() {
		defer sch.wg.Done()
		defer atomic.AddInt32(&sch.liveHandlers, -1)
		handler.Run()
	}()
}

func (sch *Scheduler) findJoinableSlot() *game.Session {
	for _, sess := range sch.slots {
		if sess != nil && !sess.Stopped() && sess.IsJoinable() {
			return sess
		}
	}
	return nil
}

func (sch *Scheduler) allocateSlot() *game.Session {
	for i, sess := range sch.slots {
		if sess == nil {
			id := sch.idg.Next()
			created := game.NewSession(id, sch.cfg, sch.log)
			sch.slots[i] = created
			return created
		}
	}
	return nil
}

func (sch *Scheduler) reject(conn net.Conn, msg string) {
	defer conn.Close()
	raw := frame.EncodeOne(frame.TagERR, []byte(msg))
	_ = uio.WriteFull(conn, raw)
}

// reap clears any slot whose session has ended and has no seats left,
// making room for a new game.
func (sch *Scheduler) reap() {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	for i, sess := range sch.slots {
		if sess != nil && sess.Stopped() && sess.IsEmpty() {
			sch.slots[i] = nil
		}
	}
}

// drain waits for every live handler to exit, then closes the
// listener. Handlers exit on their own once shutdown is closed, since
// every ClientHandler also selects on it.
func (sch *Scheduler) drain() {
	deadline := time.NewTimer(sch.cfg.ShutdownDrain())
	defer deadline.Stop()

	done := make(chan struct{})
	go func() {
		sch.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-deadline.C:
		sch.log.Warn("shutdown drain deadline exceeded, closing listener anyway")
	}
	sch.ln.Close()
}

const msgCapacityReached = "game limit reached"
