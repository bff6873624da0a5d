package frame

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	require := require.New(t)

	t.Run("single segment", func(t *testing.T) {
		raw := EncodeOne(TagFLG, []byte("FLG_DIR"))
		segs, err := Decode(raw)
		require.Nil(err)
		require.Len(segs, 1)
		require.Equal(TagFLG, segs[0].Tag)
		require.Equal([]byte("FLG_DIR"), segs[0].Payload)
	})

	t.Run("multiple segments", func(t *testing.T) {
		raw := Encode(
			Segment{Tag: TagCMD, Payload: []byte("ls -la")},
			Segment{Tag: TagCWD, Payload: []byte("/home/player")},
		)
		segs, err := Decode(raw)
		require.Nil(err)
		require.Len(segs, 2)
		require.Equal(TagCMD, segs[0].Tag)
		require.Equal([]byte("ls -la"), segs[0].Payload)
		require.Equal(TagCWD, segs[1].Tag)
		require.Equal([]byte("/home/player"), segs[1].Payload)
	})

	t.Run("empty payload", func(t *testing.T) {
		raw := EncodeOne(TagERR, nil)
		segs, err := Decode(raw)
		require.Nil(err)
		require.Len(segs, 1)
		require.Empty(segs[0].Payload)
	})

	t.Run("payload containing delimiter bytes", func(t *testing.T) {
		raw := EncodeOne(TagCMD, []byte("a;b:c;data:not-a-header"))
		segs, err := Decode(raw)
		require.Nil(err)
		require.Equal([]byte("a;b:c;data:not-a-header"), segs[0].Payload)
	})
}

func TestDecodeMalformed(t *testing.T) {
	require := require.New(t)

	cases := map[string][]byte{
		"missing tlength prefix":  []byte("type:CMD;length:2;data:ls"),
		"missing type literal":    []byte("tlength:20;foo:CMD;length:2;data:ls"),
		"tag shorter than three":  []byte("tlength:17;type:CM;length:2;data:ls"),
		"missing data literal":    []byte("tlength:17;type:CMD;length:2;dxxx:ls"),
		"declared length too big": bumpDeclaredLength(t, Encode(Segment{Tag: TagCMD, Payload: []byte("ls")})),
	}

	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(buf)
			require.ErrorIs(err, ErrMalformedFrame)
		})
	}
}

// bumpDeclaredLength rewrites a valid single-segment frame's declared
// length to be one byte larger than the payload actually present.
func bumpDeclaredLength(t *testing.T, raw []byte) []byte {
	t.Helper()
	parsed, err := Decode(raw)
	require.New(t).NoErrorf(err, "fixture must decode cleanly before tampering")
	seg := parsed[0]
	body := "type:" + string(seg.Tag) + ";length:" + strconv.Itoa(len(seg.Payload)+1) + ";data:" + string(seg.Payload)
	return []byte(tlengthPrefix + strconv.Itoa(len(body)) + ";" + body)
}
