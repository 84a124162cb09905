package hls

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tanq16/danzo-hls/internal/danzoerr"
)

var nonMediaExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".css", ".js", ".svg", ".ico", ".webp",
}

var mediaHints = []string{".ts", ".m4s", ".mp4"}

// looksLikeNonMedia applies original_source's parse_media_playlist filter:
// an entry ending in a non-media extension is skipped unless a media
// extension also appears somewhere in the URI before its query or fragment
// (disambiguating it).
func looksLikeNonMedia(uri string) bool {
	path := uri
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	lower := strings.ToLower(path)
	hasNonMedia := false
	for _, ext := range nonMediaExtensions {
		if strings.HasSuffix(lower, ext) {
			hasNonMedia = true
			break
		}
	}
	if !hasNonMedia {
		return false
	}
	for _, hint := range mediaHints {
		if strings.Contains(lower, hint) {
			return false
		}
	}
	return true
}

// resolveURI implements the four-way resolution original_source's
// normalize_uri performs (absolute / scheme-relative / site-relative /
// ordinary relative), via net/url's RFC 3986 reference resolution.
func resolveURI(base *url.URL, ref string) (string, error) {
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(refURL).String(), nil
}

type attrSet map[string]string

// parseAttributes splits a comma-separated ATTR=VALUE list, honoring quoted
// string values that may themselves contain commas.
func parseAttributes(s string) attrSet {
	out := attrSet{}
	var key strings.Builder
	var val strings.Builder
	inQuotes := false
	readingKey := true
	flush := func() {
		k := strings.TrimSpace(key.String())
		if k != "" {
			out[strings.ToUpper(k)] = strings.Trim(strings.TrimSpace(val.String()), `"`)
		}
		key.Reset()
		val.Reset()
		readingKey = true
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			val.WriteRune(r)
		case r == '=' && readingKey && !inQuotes:
			readingKey = false
		case r == ',' && !inQuotes:
			flush()
		default:
			if readingKey {
				key.WriteRune(r)
			} else {
				val.WriteRune(r)
			}
		}
	}
	flush()
	for k, v := range out {
		out[k] = strings.Trim(v, `"`)
	}
	return out
}

func parseResolution(s string) (w, h int, ok bool) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	wi, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return wi, hi, true
}

func parseIV(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length IV hex string")
	}
	b := make([]byte, len(s)/2)
	for i := 0; i < len(b); i++ {
		var v int64
		_, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &v)
		if err != nil {
			return nil, err
		}
		b[i] = byte(v)
	}
	return b, nil
}

// ParseResult holds the outcome of Parse: exactly one of Master/Media is set.
type ParseResult struct {
	Master *MasterPlaylist
	Media  *MediaPlaylist
}

// Parse parses raw M3U8 text fetched from baseURLStr, producing a master
// playlist if any #EXT-X-STREAM-INF tag is present (stream-inf wins per
// spec.md §4.2), otherwise a media playlist.
func Parse(text string, baseURLStr string) (*ParseResult, error) {
	base, err := url.Parse(baseURLStr)
	if err != nil {
		return nil, danzoerr.New(danzoerr.Parse, "invalid base URL "+baseURLStr, err)
	}

	lines := strings.Split(text, "\n")
	sawHeader := false

	var version int
	var variants []Variant
	var pendingVariant *Variant

	var segments []Segment
	var mediaSequence int
	var mediaSequenceSet bool
	var targetDuration int
	var endList bool

	var activeKey KeyInfo
	var pendingDuration float64
	var havePendingSegment bool
	var pendingByteRange *ByteRange
	var lastRangeEnd int64

	for _, raw := range lines {
		line := strings.TrimRight(strings.TrimSpace(raw), "\r")
		if line == "" {
			continue
		}
		if !sawHeader {
			if line != "#EXTM3U" {
				return nil, danzoerr.New(danzoerr.Parse, "playlist missing #EXTM3U header", nil)
			}
			sawHeader = true
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXT-X-VERSION:"):
			if v, err := strconv.Atoi(strings.TrimPrefix(line, "#EXT-X-VERSION:")); err == nil {
				version = v
			}

		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			attrs := parseAttributes(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))
			v := Variant{Codecs: attrs["CODECS"]}
			if bw, err := strconv.ParseInt(attrs["BANDWIDTH"], 10, 64); err == nil {
				v.Bandwidth = bw
			}
			if res, ok := attrs["RESOLUTION"]; ok {
				if w, h, ok := parseResolution(res); ok {
					v.Width, v.Height, v.HasRes = w, h, true
				}
			}
			pendingVariant = &v

		case strings.HasPrefix(line, "#EXT-X-MEDIA-SEQUENCE:"):
			if n, err := strconv.Atoi(strings.TrimPrefix(line, "#EXT-X-MEDIA-SEQUENCE:")); err == nil && !mediaSequenceSet {
				mediaSequence = n
				mediaSequenceSet = true
			}

		case strings.HasPrefix(line, "#EXT-X-TARGETDURATION:"):
			if n, err := strconv.Atoi(strings.TrimPrefix(line, "#EXT-X-TARGETDURATION:")); err == nil {
				targetDuration = n
			}

		case strings.HasPrefix(line, "#EXT-X-KEY:"):
			attrs := parseAttributes(strings.TrimPrefix(line, "#EXT-X-KEY:"))
			method := strings.ToUpper(attrs["METHOD"])
			switch method {
			case "", "NONE":
				activeKey = KeyInfo{Method: EncryptionNone}
			case "AES-128":
				keyURI := attrs["URI"]
				resolved, err := resolveURI(base, keyURI)
				if err != nil {
					return nil, danzoerr.New(danzoerr.Parse, "resolving key URI "+keyURI, err)
				}
				ki := KeyInfo{Method: EncryptionAES128, KeyURI: resolved}
				if ivStr, ok := attrs["IV"]; ok {
					iv, err := parseIV(ivStr)
					if err != nil {
						return nil, danzoerr.New(danzoerr.Parse, "invalid IV in EXT-X-KEY", err)
					}
					ki.IV = iv
				}
				activeKey = ki
			default:
				// Only fatal if a following segment is actually fetched under
				// this method; record it and let the segment fetcher raise
				// UnsupportedEncryption when it tries to use it.
				activeKey = KeyInfo{Method: EncryptionMethod(-1), KeyURI: method}
			}

		case strings.HasPrefix(line, "#EXT-X-BYTERANGE:"):
			spec := strings.TrimPrefix(line, "#EXT-X-BYTERANGE:")
			parts := strings.SplitN(spec, "@", 2)
			length, err := strconv.ParseInt(parts[0], 10, 64)
			if err != nil {
				return nil, danzoerr.New(danzoerr.Parse, "invalid EXT-X-BYTERANGE", err)
			}
			br := &ByteRange{Length: length}
			if len(parts) == 2 {
				offset, err := strconv.ParseInt(parts[1], 10, 64)
				if err != nil {
					return nil, danzoerr.New(danzoerr.Parse, "invalid EXT-X-BYTERANGE offset", err)
				}
				br.Offset = offset
			} else {
				br.Offset = lastRangeEnd
			}
			lastRangeEnd = br.Offset + br.Length
			pendingByteRange = br

		case strings.HasPrefix(line, "#EXTINF:"):
			spec := strings.TrimPrefix(line, "#EXTINF:")
			durStr := spec
			if idx := strings.Index(spec, ","); idx >= 0 {
				durStr = spec[:idx]
			}
			d, _ := strconv.ParseFloat(strings.TrimSpace(durStr), 64)
			pendingDuration = d
			havePendingSegment = true

		case strings.HasPrefix(line, "#EXT-X-ENDLIST"):
			endList = true

		case strings.HasPrefix(line, "#"):
			// unrecognized tag or comment: ignore

		default:
			// URI line: completes whichever tag is pending.
			resolved, err := resolveURI(base, line)
			if err != nil {
				return nil, danzoerr.New(danzoerr.Parse, "resolving URI "+line, err)
			}
			if pendingVariant != nil {
				pendingVariant.URI = resolved
				variants = append(variants, *pendingVariant)
				pendingVariant = nil
				continue
			}
			if havePendingSegment {
				havePendingSegment = false
				if looksLikeNonMedia(resolved) {
					pendingByteRange = nil
					continue
				}
				seg := Segment{
					Index:         len(segments),
					URI:           resolved,
					Duration:      pendingDuration,
					ByteRange:     pendingByteRange,
					Encryption:    activeKey,
				}
				pendingByteRange = nil
				segments = append(segments, seg)
			}
		}
	}

	if !sawHeader {
		return nil, danzoerr.New(danzoerr.Parse, "empty playlist", nil)
	}

	if len(variants) > 0 {
		return &ParseResult{Master: &MasterPlaylist{Version: version, Variants: variants}}, nil
	}

	for i := range segments {
		segments[i].AbsoluteIndex = mediaSequence + segments[i].Index
	}
	return &ParseResult{Media: &MediaPlaylist{
		TargetDuration: targetDuration,
		MediaSequence:  mediaSequence,
		Segments:       segments,
		EndList:        endList,
		Version:        version,
	}}, nil
}
