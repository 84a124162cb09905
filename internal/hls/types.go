// Package hls implements the playlist parser (C2) and variant selector (C3):
// master/media playlist data types, M3U8 tag parsing, URI resolution, and
// deterministic variant selection.
//
// Grounded on the teacher's internal/downloaders/m3u8/downloader.go
// (processM3U8Content/resolveURL) for the overall master/media recursion
// shape, and on original_source/videodownloader/hls.py for tag-level
// semantics the distilled spec left implicit (URI normalization cases,
// the non-media-extension filter, and the exact-resolution short-circuit).
package hls

// EncryptionMethod identifies the encryption scheme declared by an
// #EXT-X-KEY tag.
type EncryptionMethod int

const (
	EncryptionNone EncryptionMethod = iota
	EncryptionAES128
)

// KeyInfo is the encryption context carried by a segment, derived from the
// most recent preceding #EXT-X-KEY tag.
type KeyInfo struct {
	Method EncryptionMethod
	KeyURI string
	IV     []byte // explicit IV bytes from the tag; nil if not present
}

// ByteRange is the parsed form of an #EXT-X-BYTERANGE tag.
type ByteRange struct {
	Length int64
	Offset int64
}

// Segment is one entry of a media playlist.
type Segment struct {
	Index         int // 0-based position within the playlist
	AbsoluteIndex int // MediaSequence + Index
	URI           string
	Duration      float64
	ByteRange     *ByteRange
	Encryption    KeyInfo
}

// MediaPlaylist is a parsed variant-level playlist: the actual segment list.
type MediaPlaylist struct {
	TargetDuration int
	MediaSequence  int
	Segments       []Segment
	EndList        bool
	Version        int
}

// Variant is one rendition declared by a master playlist's #EXT-X-STREAM-INF.
type Variant struct {
	URI        string
	Bandwidth  int64
	Width      int
	Height     int
	HasRes     bool
	Codecs     string
}

// MasterPlaylist is a parsed top-level playlist enumerating variants.
type MasterPlaylist struct {
	Version  int
	Variants []Variant
}
