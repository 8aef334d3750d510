package protocol

// Request line delimiters. The delimiter before a token decides its role.
const (
	delimStart = 0
	delimSpace = ' '
	delimQuery = '?'
	delimValue = '='
	delimParam = '&'
	delimCR    = '\r'
)

type token struct {
	text string
	prev byte
	next byte
}

func isDelim(c byte) bool {
	switch c {
	case delimSpace, delimQuery, delimValue, delimParam, delimCR:
		return true
	}
	return false
}

// tokenizeRequestLine splits the request line into delimited tokens. It
// stops after the token terminated by the first CR and returns the offset
// just past that CR. Text with no terminating delimiter is not a token.
func tokenizeRequestLine(line string) ([]token, int) {
	tokens := make([]token, 0, 8)
	prev := byte(delimStart)
	start := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		if !isDelim(c) {
			continue
		}
		tokens = append(tokens, token{text: line[start:i], prev: prev, next: c})
		prev = c
		start = i + 1
		if c == delimCR {
			return tokens, start
		}
	}
	return tokens, start
}
