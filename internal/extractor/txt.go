package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textSample is how many leading bytes are inspected to tell text from
// binary.
const textSample = 512

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) || bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE)
}

// DecodeTXT returns the text of a plain-text upload. Files with a byte
// order mark are decoded accordingly; files that are not valid UTF-8 are
// read as Windows-1252, which covers Latin-1.
func DecodeTXT(data []byte) (string, error) {
	if !looksLikeText(data) {
		return "", fmt.Errorf("file does not appear to be valid text")
	}

	var text string
	switch {
	case hasBOM(data):
		decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", fmt.Errorf("failed to decode text file: %w", err)
		}
		text = string(decoded)
	case utf8.Valid(data):
		text = string(data)
	default:
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return "", fmt.Errorf("failed to decode text file: %w", err)
		}
		text = string(decoded)
	}

	text = strings.TrimSpace(strings.ReplaceAll(text, "\x00", ""))
	if text == "" {
		return "", fmt.Errorf("no text could be extracted from file")
	}
	return text, nil
}

// looksLikeText reports whether at least 80% of the sampled bytes are
// printable, whitespace or non-ASCII.
func looksLikeText(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		return true
	}

	sample := data
	if len(sample) > textSample {
		sample = sample[:textSample]
	}

	printable := 0
	for _, b := range sample {
		if (b >= 32 && b <= 126) || b == '\t' || b == '\n' || b == '\r' || b >= 0x80 {
			printable++
		}
	}
	return printable*5 >= len(sample)*4
}
