package protocol

import "github.com/danmuck/snowdon/internal/commands"

// MaxPathLen bounds the stored request path. Longer paths are truncated.
const MaxPathLen = 19

// Method is the request method. Unrecognized methods parse as MethodPost.
type Method int

const (
	MethodGet Method = iota
	MethodPost
	MethodPut
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPut:
		return "PUT"
	default:
		return "POST"
	}
}

// Version is the protocol version from the request line.
type Version int

const (
	Version1 Version = iota
	Version11
	Version2
	Version3
)

func (v Version) String() string {
	switch v {
	case Version11:
		return "HTTP/1.1"
	case Version2:
		return "HTTP/2"
	case Version3:
		return "HTTP/3"
	default:
		return "HTTP/1"
	}
}

// Resolver maps a command name to its table entry.
type Resolver interface {
	Resolve(name string) commands.Entry
}

// Request is the parsed view of one received buffer. It is rebuilt for every
// request and never carried across connections.
type Request struct {
	Method       Method
	Path         string
	Version      Version
	Command      string
	Code         commands.Code
	ChangesState bool
}

func defaultRequest() Request {
	return Request{
		Method:  MethodPost,
		Version: Version1,
		Code:    commands.CodeNone,
	}
}

func (r *Request) setCommand(name string, resolver Resolver) {
	entry := resolver.Resolve(name)
	r.Command = name
	r.Code = entry.Code
	r.ChangesState = entry.ChangesState
}
