package protocol

import (
	"bytes"
	"strconv"
)

var (
	headerSeparator  = []byte("\r\n\r\n")
	contentLengthKey = []byte("content-length:")
)

// RequestComplete reports whether buf holds a whole request: the header
// block is terminated and any Content-Length body has arrived.
func RequestComplete(buf []byte) bool {
	pos := bytes.Index(buf, headerSeparator)
	if pos < 0 {
		return false
	}
	headerSize := pos + len(headerSeparator)
	n := contentLength(buf[:pos])
	if n <= 0 {
		return true
	}
	return len(buf) >= headerSize+n
}

func contentLength(headers []byte) int {
	lines := bytes.Split(headers, []byte("\n"))
	for _, line := range lines[1:] {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) < len(contentLengthKey) {
			continue
		}
		if !bytes.EqualFold(line[:len(contentLengthKey)], contentLengthKey) {
			continue
		}
		v := bytes.TrimSpace(line[len(contentLengthKey):])
		n, err := strconv.Atoi(string(v))
		if err != nil || n < 0 {
			return -1
		}
		return n
	}
	return -1
}
