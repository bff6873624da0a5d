package stream

import (
	"flagrelay/frame"
	"flagrelay/netem"
	"flagrelay/util/mocks"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFrameStreamSurvivesFragmentation proves FrameStream reassembles a
// frame correctly even when the underlying transport splits every
// write into small fragments, as a lossy link would.
func TestFrameStreamSurvivesFragmentation(t *testing.T) {
	require := require.New(t)

	c1, c2 := mocks.Conn()
	defer c1.Close()
	defer c2.Close()

	cfg := netem.DefaultConfig()
	cfg.WriteFragmentSize = 3
	cfg.ReadFragmentSize = 5
	emulated := netem.New(c1, cfg)
	defer emulated.Close()

	writer := New(emulated)
	reader := New(c2)

	payload := []byte("cd /home/ctf/chal && ls -la")
	err := writer.WriteFrame(frame.Segment{Tag: frame.TagCMD, Payload: payload})
	require.Nil(err)

	_, segs, err := reader.ReadFrame()
	require.Nil(err)
	require.Len(segs, 1)
	require.Equal(frame.TagCMD, segs[0].Tag)
	require.Equal(payload, segs[0].Payload)
}
