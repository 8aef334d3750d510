package protocol

import (
	"strings"

	"github.com/danmuck/snowdon/internal/commands"
	"github.com/rs/zerolog/log"
)

const (
	queryCodeKey    = "code"
	jsonContentType = "Content-Type: application/json"
)

// ParseRequest extracts method, path, version and command from buf. It
// always returns a usable Request.
func ParseRequest(buf []byte, resolver Resolver) Request {
	raw := cString(buf)
	req := defaultRequest()

	tokens, rest := tokenizeRequestLine(raw)
	interpretRequestLine(&req, tokens, resolver)

	if req.Code != commands.CodeNone {
		return req
	}
	body := raw[rest:]
	if !strings.Contains(body, jsonContentType) {
		return req
	}
	if name, ok := scanJSONCode(lastLine(body)); ok {
		req.setCommand(name, resolver)
	}
	return req
}

func interpretRequestLine(req *Request, tokens []token, resolver Resolver) {
	var key string
	var haveKey, found bool
	for _, tok := range tokens {
		switch tok.prev {
		case delimStart:
			req.Method = parseMethod(tok.text)
		case delimSpace:
			if tok.next != delimCR {
				req.Path = truncate(tok.text, MaxPathLen)
				continue
			}
			if v, ok := parseVersion(tok.text); ok {
				req.Version = v
			}
		case delimQuery, delimParam:
			key = tok.text
			haveKey = true
		case delimValue:
			if found || !haveKey || key != queryCodeKey {
				continue
			}
			req.setCommand(tok.text, resolver)
			found = true
			log.Debug().
				Str("command", tok.text).
				Stringer("code", req.Code).
				Msg("protocol.ParseRequest query code")
		}
	}
}

func parseMethod(s string) Method {
	switch s {
	case "GET":
		return MethodGet
	case "PUT":
		return MethodPut
	case "POST":
		return MethodPost
	default:
		return MethodPost
	}
}

func parseVersion(s string) (Version, bool) {
	switch s {
	case "HTTP/1":
		return Version1, true
	case "HTTP/1.1":
		return Version11, true
	case "HTTP/2":
		return Version2, true
	case "HTTP/3":
		return Version3, true
	default:
		return Version1, false
	}
}

func cString(buf []byte) string {
	for i, c := range buf {
		if c == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
