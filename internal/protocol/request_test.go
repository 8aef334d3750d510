package protocol

import (
	"testing"

	"github.com/danmuck/snowdon/internal/commands"
	"github.com/danmuck/snowdon/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(raw string) Request {
	return ParseRequest([]byte(raw), commands.Default())
}

func TestParseRequestGetRoot(t *testing.T) {
	testlog.Start(t)

	req := parse("GET / HTTP/1.1\r\nHost: bridge\r\n\r\n")
	assert.Equal(t, MethodGet, req.Method)
	assert.Equal(t, "/", req.Path)
	assert.Equal(t, Version11, req.Version)
	assert.Equal(t, commands.CodeNone, req.Code)
	assert.False(t, req.ChangesState)
}

func TestParseRequestQueryCode(t *testing.T) {
	testlog.Start(t)

	req := parse("PUT /?code=power HTTP/1.1\r\nHost: bridge\r\n\r\n")
	require.Equal(t, MethodPut, req.Method)
	require.Equal(t, "/", req.Path)
	require.Equal(t, Version11, req.Version)
	require.Equal(t, commands.Code(0x807F807F), req.Code)
	require.True(t, req.ChangesState)
	require.Equal(t, "power", req.Command)
}

func TestParseRequestFirstQueryCodeWins(t *testing.T) {
	testlog.Start(t)

	req := parse("PUT /?x=1&code=mute&code=power HTTP/1.1\r\n\r\n")
	require.Equal(t, commands.Code(0x807FCC33), req.Code)
	require.False(t, req.ChangesState)
	require.Equal(t, Version11, req.Version)
}

func TestParseRequestOtherParamsIgnored(t *testing.T) {
	req := parse("PUT /?foo=bar&baz=qux HTTP/1.1\r\n\r\n")
	require.Equal(t, commands.CodeNone, req.Code)
	require.Equal(t, "/", req.Path)
}

func TestParseRequestUnknownCommand(t *testing.T) {
	req := parse("PUT /?code=POWER HTTP/1.1\r\n\r\n")
	require.Equal(t, commands.CodeUnknown, req.Code)
	require.Equal(t, "POWER", req.Command)
}

func TestParseRequestStatusCommand(t *testing.T) {
	req := parse("PUT /?code=status HTTP/1.1\r\n\r\n")
	require.Equal(t, commands.CodeStatus, req.Code)
}

func TestParseRequestMethodDefaults(t *testing.T) {
	cases := map[string]Method{
		"GET / HTTP/1.1\r\n":    MethodGet,
		"PUT / HTTP/1.1\r\n":    MethodPut,
		"POST / HTTP/1.1\r\n":   MethodPost,
		"DELETE / HTTP/1.1\r\n": MethodPost,
		"get / HTTP/1.1\r\n":    MethodPost,
		"":                      MethodPost,
	}
	for raw, want := range cases {
		assert.Equal(t, want, parse(raw).Method, "raw=%q", raw)
	}
}

func TestParseRequestVersions(t *testing.T) {
	cases := map[string]Version{
		"GET / HTTP/1\r\n":     Version1,
		"GET / HTTP/1.1\r\n":   Version11,
		"GET / HTTP/2\r\n":     Version2,
		"GET / HTTP/3\r\n":     Version3,
		"GET / HTTP/1.0\r\n":   Version1,
		"GET / http/1.1\r\n":   Version1,
		"GET / HTTP/1.1":       Version1,
		"GET / HTTP/1.1 \r\n":  Version1,
	}
	for raw, want := range cases {
		assert.Equal(t, want, parse(raw).Version, "raw=%q", raw)
	}
}

func TestParseRequestPathTruncated(t *testing.T) {
	req := parse("GET /a/very/long/path/that/keeps/going HTTP/1.1\r\n\r\n")
	require.Len(t, req.Path, MaxPathLen)
	require.Equal(t, "/a/very/long/path/t", req.Path)
}

func TestParseRequestOtherPath(t *testing.T) {
	req := parse("PUT /remote?code=power HTTP/1.1\r\n\r\n")
	require.Equal(t, "/remote", req.Path)
	require.Equal(t, commands.Code(0x807F807F), req.Code)
}

func TestParseRequestStopsAtNUL(t *testing.T) {
	raw := []byte("PUT /?code=mute HTTP/1.1\r\n\r\n")
	raw[11] = 0
	req := ParseRequest(raw, commands.Default())
	require.Equal(t, commands.CodeNone, req.Code)
	require.Equal(t, Version1, req.Version)
}

func TestParseRequestJSONBody(t *testing.T) {
	testlog.Start(t)

	raw := "PUT / HTTP/1.1\r\nHost: bridge\r\nContent-Type: application/json\r\nContent-Length: 16\r\n\r\n{\"code\": \"mute\"}"
	req := parse(raw)
	require.Equal(t, MethodPut, req.Method)
	require.Equal(t, Version11, req.Version)
	require.Equal(t, commands.Code(0x807FCC33), req.Code)
	require.Equal(t, "mute", req.Command)
}

func TestParseRequestJSONBodyRequiresContentType(t *testing.T) {
	raw := "PUT / HTTP/1.1\r\nContent-Type: text/plain\r\n\r\n{\"code\": \"mute\"}"
	require.Equal(t, commands.CodeNone, parse(raw).Code)
}

func TestParseRequestQueryBeatsBody(t *testing.T) {
	raw := "PUT /?code=input HTTP/1.1\r\nContent-Type: application/json\r\n\r\n{\"code\": \"mute\"}"
	req := parse(raw)
	require.Equal(t, commands.Code(0x807F40BF), req.Code)
	require.True(t, req.ChangesState)
}

func TestParseRequestJSONNonStringValueSkipped(t *testing.T) {
	raw := "PUT / HTTP/1.1\r\nContent-Type: application/json\r\n\r\n{\"code\": 5}"
	require.Equal(t, commands.CodeNone, parse(raw).Code)
}
