package server

import (
	"flagrelay/config"
	"flagrelay/frame"
	"flagrelay/stream"
	"net"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	return &logrus.Logger{
		Out:       os.Stderr,
		Level:     logrus.FatalLevel,
		Formatter: &logrus.TextFormatter{},
	}
}

func startScheduler(t *testing.T, cfg config.Config) (net.Addr, chan struct{}, chan error) {
	t.Helper()
	require := require.New(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(err)

	sch := NewScheduler(ln, cfg, testLogger(), nil)
	shutdown := make(chan struct{})
	runErr := make(chan error, 1)
	go func() {
		runErr <- sch.Run(shutdown)
	}()
	return ln.Addr(), shutdown, runErr
}

func dialAndProvision(t *testing.T, addr net.Addr, dir string) (*stream.FrameStream, net.Conn) {
	t.Helper()
	require := require.New(t)

	conn, err := net.Dial("tcp", addr.String())
	require.Nil(err)
	fs := stream.New(conn)

	_, segs, err := fs.ReadFrame()
	require.Nil(err)
	require.Equal(frame.TagFLG, segs[0].Tag)

	require.Nil(fs.WriteFrame(frame.Segment{Tag: frame.TagFLG, Payload: []byte(dir)}))

	_, segs, err = fs.ReadFrame()
	require.Nil(err)
	require.Equal(frame.TagFLG, segs[0].Tag)

	require.Nil(fs.WriteFrame(frame.Segment{Tag: frame.TagFLG, Payload: []byte("okay")}))

	return fs, conn
}

func TestSchedulerSeatsTwoPlayersAndRelays(t *testing.T) {
	require := require.New(t)
	cfg := config.DefaultConfig()
	cfg.MaxGames = 2

	addr, shutdown, _ := startScheduler(t, cfg)
	defer close(shutdown)

	fsA, connA := dialAndProvision(t, addr, "dir_a")
	defer connA.Close()
	fsB, connB := dialAndProvision(t, addr, "dir_b")
	defer connB.Close()

	require.Nil(fsA.WriteFrame(frame.Segment{Tag: frame.TagCMD, Payload: []byte("ls -la")}))

	_, segs, err := fsB.ReadFrame()
	require.Nil(err)
	require.Equal(frame.TagCMD, segs[0].Tag)
	require.Equal("ls -la", string(segs[0].Payload))
}

func TestSchedulerRejectsOverCapacity(t *testing.T) {
	require := require.New(t)
	cfg := config.DefaultConfig()
	cfg.MaxGames = 1

	addr, shutdown, _ := startScheduler(t, cfg)
	defer close(shutdown)

	_, connA := dialAndProvision(t, addr, "dir_a")
	defer connA.Close()
	_, connB := dialAndProvision(t, addr, "dir_b")
	defer connB.Close()

	connC, err := net.Dial("tcp", addr.String())
	require.Nil(err)
	defer connC.Close()
	fsC := stream.New(connC)

	_, segs, err := fsC.ReadFrame()
	require.Nil(err)
	require.Equal(frame.TagERR, segs[0].Tag)
	require.Equal(msgCapacityReached, string(segs[0].Payload))
}

func TestSchedulerShutdownDrains(t *testing.T) {
	require := require.New(t)
	cfg := config.DefaultConfig()

	addr, shutdown, runErr := startScheduler(t, cfg)
	_, conn := dialAndProvision(t, addr, "dir_a")
	defer conn.Close()

	close(shutdown)

	select {
	case err := <-runErr:
		require.Nil(err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not shut down in time")
	}
}
