package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendResponseFormat(t *testing.T) {
	out := AppendResponse(nil, Response{Status: StatusOK, Body: "{\"status\": \"ok\"}\n"})
	require.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 17\r\n\r\n{\"status\": \"ok\"}\n", string(out))
}

func TestMessageBody(t *testing.T) {
	r := Message(StatusBadRequest, "Endpoint not found")
	require.Equal(t, "{\"message\": \"Endpoint not found\"}\n", r.Body)
	out := AppendResponse(nil, r)
	require.Contains(t, string(out), "HTTP/1.1 400 Bad Request\r\n")
}

func TestEncodeResponseBounded(t *testing.T) {
	buf := make([]byte, 16)
	_, err := EncodeResponse(buf, Response{Status: StatusInternalServerError, Body: "{\"status\": \"ng\"}\n"})
	require.True(t, errors.Is(err, ErrResponseTooLarge))

	buf = make([]byte, 256)
	n, err := EncodeResponse(buf, Response{Status: StatusInternalServerError, Body: "{\"status\": \"ng\"}\n"})
	require.NoError(t, err)
	require.Equal(t, "HTTP/1.1 500 Internal Server Error\r\nContent-Length: 17\r\n\r\n{\"status\": \"ng\"}\n", string(buf[:n]))
}

func TestRequestComplete(t *testing.T) {
	require.False(t, RequestComplete([]byte("GET / HTTP/1.1\r\nHost: x\r\n")))
	require.True(t, RequestComplete([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")))

	partial := "PUT / HTTP/1.1\r\ncontent-length: 16\r\n\r\n{\"code\": "
	require.False(t, RequestComplete([]byte(partial)))
	require.True(t, RequestComplete([]byte(partial+"\"mute\"}")))

	bad := "PUT / HTTP/1.1\r\nContent-Length: nope\r\n\r\n"
	require.True(t, RequestComplete([]byte(bad)))
}
