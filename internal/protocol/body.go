package protocol

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// scanJSONCode walks a flat JSON object as a sequence of quoted strings and
// returns the string value of the first "code" key. Non-string values are
// skipped. A payload without '{' or with an unterminated quote yields false.
func scanJSONCode(payload string) (string, bool) {
	open := strings.IndexByte(payload, '{')
	if open < 0 {
		log.Debug().Msg("protocol.scanJSONCode malformed json: missing '{'")
		return "", false
	}
	s := payload[open+1:]
	for {
		q := strings.IndexByte(s, '"')
		if q < 0 {
			return "", false
		}
		s = s[q+1:]

		end := strings.IndexByte(s, '"')
		if end < 0 {
			return "", false
		}
		key := s[:end]
		s = s[end+1:]

		sepEnd := strings.IndexByte(s, '"')
		if sepEnd < 0 {
			return "", false
		}
		if !isValueSeparator(s[:sepEnd]) {
			// The quote after a non-string value opens the next key.
			log.Debug().Str("key", key).Msg("protocol.scanJSONCode skipping non-string value")
			s = s[sepEnd:]
			continue
		}
		s = s[sepEnd+1:]

		valEnd := strings.IndexByte(s, '"')
		if valEnd < 0 {
			return "", false
		}
		value := s[:valEnd]
		s = s[valEnd+1:]

		if key == queryCodeKey {
			return value, true
		}
	}
}

// isValueSeparator reports whether sep is exactly one ':' padded by spaces.
func isValueSeparator(sep string) bool {
	colons := 0
	for i := 0; i < len(sep); i++ {
		switch sep[i] {
		case ' ':
		case ':':
			colons++
		default:
			return false
		}
	}
	return colons == 1
}
