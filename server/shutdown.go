package server

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// ShutdownCoordinator waits for a terminating signal and closes done
// once, waking every goroutine selecting on it.
type ShutdownCoordinator struct {
	log *logrus.Logger
}

// NewShutdownCoordinator builds a coordinator that logs via log.
func NewShutdownCoordinator(log *logrus.Logger) *ShutdownCoordinator {
	return &ShutdownCoordinator{log: log}
}

// Wait blocks until SIGINT, SIGTERM, SIGQUIT, or SIGHUP arrives, then
// closes done.
func (c *ShutdownCoordinator) Wait(done chan<- struct{}) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	sig := <-ch
	c.log.Infof("received signal %s, shutting down", sig)
	close(done)
}
