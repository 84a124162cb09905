package hls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMasterPlaylist(t *testing.T) {
	text := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=500000,RESOLUTION=426x240
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1500000,RESOLUTION=1280x720,CODECS="avc1.4d401f"
mid/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1920x1080
high/index.m3u8
`
	result, err := Parse(text, "https://cdn.example.com/video/master.m3u8")
	require.NoError(t, err)
	require.NotNil(t, result.Master)
	require.Nil(t, result.Media)

	m := result.Master
	require.Len(t, m.Variants, 3)
	assert.Equal(t, "https://cdn.example.com/video/mid/index.m3u8", m.Variants[1].URI)
	assert.Equal(t, int64(1500000), m.Variants[1].Bandwidth)
	assert.Equal(t, 1280, m.Variants[1].Width)
	assert.Equal(t, 720, m.Variants[1].Height)
	assert.Equal(t, "avc1.4d401f", m.Variants[1].Codecs)
}

func TestParseMediaPlaylistWithKeyCarryOver(t *testing.T) {
	text := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-MEDIA-SEQUENCE:5
#EXT-X-TARGETDURATION:10
#EXT-X-KEY:METHOD=AES-128,URI="https://cdn.example.com/k.key"
#EXTINF:9.009,
seg0.ts
#EXTINF:9.009,
seg1.ts
#EXT-X-KEY:METHOD=NONE
#EXTINF:9.009,
seg2.ts
#EXT-X-ENDLIST
`
	result, err := Parse(text, "https://cdn.example.com/video/media.m3u8")
	require.NoError(t, err)
	require.NotNil(t, result.Media)

	media := result.Media
	assert.True(t, media.EndList)
	assert.Equal(t, 5, media.MediaSequence)
	require.Len(t, media.Segments, 3)

	assert.Equal(t, 0, media.Segments[0].Index)
	assert.Equal(t, 5, media.Segments[0].AbsoluteIndex)
	assert.Equal(t, EncryptionAES128, media.Segments[0].Encryption.Method)
	assert.Equal(t, "https://cdn.example.com/k.key", media.Segments[0].Encryption.KeyURI)
	assert.Equal(t, EncryptionAES128, media.Segments[1].Encryption.Method)
	assert.Equal(t, EncryptionNone, media.Segments[2].Encryption.Method)
	assert.Equal(t, "https://cdn.example.com/video/seg1.ts", media.Segments[1].URI)
}

func TestParseByteRangeContinuation(t *testing.T) {
	text := `#EXTM3U
#EXT-X-TARGETDURATION:10
#EXT-X-BYTERANGE:1000@0
#EXTINF:1.0,
chunk.ts
#EXT-X-BYTERANGE:2000
#EXTINF:1.0,
chunk.ts
`
	result, err := Parse(text, "https://cdn.example.com/media.m3u8")
	require.NoError(t, err)
	require.Len(t, result.Media.Segments, 2)
	require.NotNil(t, result.Media.Segments[0].ByteRange)
	require.NotNil(t, result.Media.Segments[1].ByteRange)
	assert.Equal(t, int64(0), result.Media.Segments[0].ByteRange.Offset)
	assert.Equal(t, int64(1000), result.Media.Segments[0].ByteRange.Length)
	assert.Equal(t, int64(1000), result.Media.Segments[1].ByteRange.Offset)
	assert.Equal(t, int64(2000), result.Media.Segments[1].ByteRange.Length)
}

func TestParseMissingHeaderIsParseError(t *testing.T) {
	_, err := Parse("#EXT-X-VERSION:3\n", "https://cdn.example.com/media.m3u8")
	assert.Error(t, err)
}

func TestURIResolutionFourCases(t *testing.T) {
	text := `#EXTM3U
#EXTINF:1.0,
/site-relative.ts
#EXTINF:1.0,
//other.example.com/scheme-relative.ts
#EXTINF:1.0,
https://absolute.example.com/a.ts
#EXTINF:1.0,
relative.ts
`
	result, err := Parse(text, "https://cdn.example.com/video/media.m3u8")
	require.NoError(t, err)
	require.Len(t, result.Media.Segments, 4)
	assert.Equal(t, "https://cdn.example.com/site-relative.ts", result.Media.Segments[0].URI)
	assert.Equal(t, "https://other.example.com/scheme-relative.ts", result.Media.Segments[1].URI)
	assert.Equal(t, "https://absolute.example.com/a.ts", result.Media.Segments[2].URI)
	assert.Equal(t, "https://cdn.example.com/video/relative.ts", result.Media.Segments[3].URI)
}

func TestNonMediaExtensionFilterSkipsPoster(t *testing.T) {
	text := `#EXTM3U
#EXTINF:1.0,
poster.jpg
#EXTINF:1.0,
seg0.ts
`
	result, err := Parse(text, "https://cdn.example.com/media.m3u8")
	require.NoError(t, err)
	require.Len(t, result.Media.Segments, 1)
	assert.Equal(t, "https://cdn.example.com/seg0.ts", result.Media.Segments[0].URI)
}
