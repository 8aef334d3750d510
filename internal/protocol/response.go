package protocol

import (
	"fmt"
	"strconv"
)

// Status is a response status code with its fixed reason phrase.
type Status int

const (
	StatusOK                  Status = 200
	StatusBadRequest          Status = 400
	StatusInternalServerError Status = 500
)

// Line returns the status line text after the protocol version.
func (s Status) Line() string {
	switch s {
	case StatusOK:
		return "200 OK"
	case StatusBadRequest:
		return "400 Bad Request"
	case StatusInternalServerError:
		return "500 Internal Server Error"
	default:
		return strconv.Itoa(int(s))
	}
}

// Response is a status plus a JSON body. Bodies end with a newline.
type Response struct {
	Status Status
	Body   string
}

// Message builds a {"message": ...} response.
func Message(status Status, msg string) Response {
	return Response{Status: status, Body: fmt.Sprintf("{\"message\": %q}\n", msg)}
}

// AppendResponse appends the wire form of r to dst.
func AppendResponse(dst []byte, r Response) []byte {
	dst = append(dst, "HTTP/1.1 "...)
	dst = append(dst, r.Status.Line()...)
	dst = append(dst, "\r\nContent-Length: "...)
	dst = strconv.AppendInt(dst, int64(len(r.Body)), 10)
	dst = append(dst, "\r\n\r\n"...)
	dst = append(dst, r.Body...)
	return dst
}

// EncodeResponse writes r into buf and returns the payload length.
func EncodeResponse(buf []byte, r Response) (int, error) {
	out := AppendResponse(buf[:0], r)
	if len(out) > len(buf) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrResponseTooLarge, len(out), len(buf))
	}
	return len(out), nil
}
