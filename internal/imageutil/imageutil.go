// Package imageutil classifies image strings stored on catalogue rows and
// normalizes them into something a browser can render.
//
// An image field may hold a storage URL, a data URI, or raw base64 text left
// over from uploads made before bucket storage existed.
package imageutil

import (
	"encoding/base64"
	"errors"
	"strings"
)

// DefaultPlaceholder is served when a record has no usable image.
const DefaultPlaceholder = "/placeholder.svg"

// Kind describes what an image string contains.
type Kind int

const (
	KindEmpty Kind = iota
	KindURL
	KindDataURI
	KindBase64
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindURL:
		return "url"
	case KindDataURI:
		return "data_uri"
	case KindBase64:
		return "base64"
	default:
		return "unknown"
	}
}

var (
	// ErrNotImageData is returned when decoding a string that holds no inline image.
	ErrNotImageData = errors.New("image string is not inline data")
	// ErrMalformedDataURI is returned for data URIs without a base64 payload.
	ErrMalformedDataURI = errors.New("malformed data uri")
)

// base64 prefixes of common image file signatures.
var signatures = []struct {
	prefix string
	mime   string
}{
	{"/9j/", "image/jpeg"},
	{"iVBORw0KGgo", "image/png"},
	{"R0lGOD", "image/gif"},
	{"UklGR", "image/webp"},
	{"PHN2Zy", "image/svg+xml"},
	{"PD94bWw", "image/svg+xml"},
}

const minBase64Len = 16

// Detect classifies s.
func Detect(s string) Kind {
	s = strings.TrimSpace(s)
	if s == "" {
		return KindEmpty
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return KindDataURI
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "//"), strings.HasPrefix(lower, "blob:"):
		return KindURL
	case looksLikeBase64(s):
		return KindBase64
	case strings.HasPrefix(s, "/"), strings.HasPrefix(s, "./"):
		return KindURL
	default:
		return KindUnknown
	}
}

// SniffMime guesses the content type of raw base64 image text. JPEG is assumed
// when no signature matches.
func SniffMime(b64 string) string {
	b64 = strings.TrimSpace(b64)
	for _, sig := range signatures {
		if strings.HasPrefix(b64, sig.prefix) {
			return sig.mime
		}
	}
	return "image/jpeg"
}

// FormatSrc picks the displayable source for a record: a URL in imageURL wins,
// then inline data from either field, then placeholder. An empty placeholder
// means DefaultPlaceholder.
func FormatSrc(imageURL, imageData, placeholder string) string {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	for _, candidate := range []string{imageURL, imageData} {
		if src, ok := displayable(candidate); ok {
			return src
		}
	}
	return placeholder
}

// Fallback returns src unless it is empty, in which case the placeholder is used.
func Fallback(src, placeholder string) string {
	if strings.TrimSpace(src) != "" {
		return src
	}
	if placeholder == "" {
		return DefaultPlaceholder
	}
	return placeholder
}

// ToDataURI wraps raw base64 in a data URI. Values that already are data URIs
// are returned unchanged.
func ToDataURI(s string) string {
	s = strings.TrimSpace(s)
	if Detect(s) == KindDataURI {
		return s
	}
	cleaned := stripWhitespace(s)
	return "data:" + SniffMime(cleaned) + ";base64," + cleaned
}

// Decode returns the bytes and content type of an inline image (data URI or raw base64).
func Decode(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	switch Detect(s) {
	case KindDataURI:
		return decodeDataURI(s)
	case KindBase64:
		cleaned := stripWhitespace(s)
		data, err := decodeBase64(cleaned)
		if err != nil {
			return nil, "", err
		}
		return data, SniffMime(cleaned), nil
	default:
		return nil, "", ErrNotImageData
	}
}

// Extension maps an image content type to a file extension.
func Extension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/svg+xml":
		return "svg"
	default:
		return "jpg"
	}
}

func displayable(s string) (string, bool) {
	s = strings.TrimSpace(s)
	switch Detect(s) {
	case KindURL, KindDataURI:
		return s, true
	case KindBase64:
		return ToDataURI(s), true
	default:
		return "", false
	}
}

func decodeDataURI(s string) ([]byte, string, error) {
	header, payload, found := strings.Cut(s, ",")
	if !found {
		return nil, "", ErrMalformedDataURI
	}
	meta := strings.TrimPrefix(strings.ToLower(header), "data:")
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", ErrMalformedDataURI
	}
	contentType := strings.TrimSuffix(meta, ";base64")
	if contentType == "" {
		contentType = SniffMime(payload)
	}
	data, err := decodeBase64(stripWhitespace(payload))
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

func decodeBase64(s string) ([]byte, error) {
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func looksLikeBase64(s string) bool {
	cleaned := stripWhitespace(s)
	for _, sig := range signatures {
		if strings.HasPrefix(cleaned, sig.prefix) && isBase64Alphabet(cleaned) {
			return true
		}
	}
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	return len(cleaned) >= minBase64Len && isBase64Alphabet(cleaned)
}

func isBase64Alphabet(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '+', c == '/', c == '=':
		default:
			return false
		}
	}
	return true
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
}
