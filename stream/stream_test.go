package stream

import (
	"flagrelay/frame"
	"flagrelay/util/mocks"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameStreamRoundTrip(t *testing.T) {
	require := require.New(t)

	c1, c2 := mocks.Conn()
	defer c1.Close()
	defer c2.Close()

	writer := New(c1)
	reader := New(c2)

	err := writer.WriteFrame(frame.Segment{Tag: frame.TagCMD, Payload: []byte("whoami")})
	require.Nil(err)

	_, segs, err := reader.ReadFrame()
	require.Nil(err)
	require.Len(segs, 1)
	require.Equal(frame.TagCMD, segs[0].Tag)
	require.Equal([]byte("whoami"), segs[0].Payload)
}

func TestFrameStreamMalformedDoesNotClose(t *testing.T) {
	require := require.New(t)

	c1, c2 := mocks.Conn()
	defer c1.Close()
	defer c2.Close()

	writer := New(c1)
	reader := New(c2)

	require.Nil(writer.WriteRaw([]byte("tlength:9;foo:CMD")))
	_, _, err := reader.ReadFrame()
	require.ErrorIs(err, frame.ErrMalformedFrame)

	require.Nil(writer.WriteFrame(frame.Segment{Tag: frame.TagOUT, Payload: []byte("still alive")}))
	_, segs, err := reader.ReadFrame()
	require.Nil(err)
	require.Equal([]byte("still alive"), segs[0].Payload)
}

func TestFrameStreamForwardVerbatim(t *testing.T) {
	require := require.New(t)

	c1, c2 := mocks.Conn()
	defer c1.Close()
	defer c2.Close()
	c3, c4 := mocks.Conn()
	defer c3.Close()
	defer c4.Close()

	sender := New(c1)
	middle := New(c2)
	forwarded := New(c4)

	require.Nil(sender.WriteFrame(frame.Segment{Tag: frame.TagKEY, Payload: []byte("session-key")}))
	raw, _, err := middle.ReadFrame()
	require.Nil(err)

	require.Nil(New(c3).WriteRaw(raw))
	_, segs, err := forwarded.ReadFrame()
	require.Nil(err)
	require.Equal(frame.TagKEY, segs[0].Tag)
	require.Equal([]byte("session-key"), segs[0].Payload)
}
