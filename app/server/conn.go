package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/go-pkgz/lgr"
)

const (
	maxHeaderBytes = 8 * 1024
	maxBodyBytes   = 64 * 1024
)

// connState is a step of the connection cycle
type connState int

const (
	stateAwaitingRequestLine connState = iota
	stateReadingHeaders
	stateReadingBody
	stateDispatching
	stateWritingResponse
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateAwaitingRequestLine:
		return "awaiting-request-line"
	case stateReadingHeaders:
		return "reading-headers"
	case stateReadingBody:
		return "reading-body"
	case stateDispatching:
		return "dispatching"
	case stateWritingResponse:
		return "writing-response"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// request is a parsed http request
type request struct {
	method  string
	target  string
	proto   string
	headers map[string]string // keys are lower-cased
	body    []byte
}

// path returns request target without query
func (r request) path() string {
	p, _, _ := strings.Cut(r.target, "?")
	return p
}

// protocolError is a malformed request, answered with status
type protocolError struct {
	status int
	msg    string
}

func (e *protocolError) Error() string {
	return fmt.Sprintf("%d %s", e.status, e.msg)
}

func badRequest(format string, args ...any) *protocolError {
	return &protocolError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// connection runs a single request/response cycle, no keep-alive
type connection struct {
	conn        net.Conn
	rd          *bufio.Reader
	state       connState
	headerBytes int
}

func newConnection(conn net.Conn) *connection {
	return &connection{conn: conn, rd: bufio.NewReaderSize(conn, 4096)}
}

func (c *connection) setState(st connState) {
	log.Printf("[DEBUG] connection %s: %s -> %s", c.remote(), c.state, st)
	c.state = st
}

func (c *connection) remote() string {
	if c.conn == nil {
		return "-"
	}
	return c.conn.RemoteAddr().String()
}

// readRequest reads the request line, headers and the optional body.
// Errors of type *protocolError deserve a response, other errors mean the peer is gone.
func (c *connection) readRequest() (request, error) {
	c.setState(stateAwaitingRequestLine)
	line, err := c.readLine()
	for err == nil && line == "" { // leading empty lines are ignored
		line, err = c.readLine()
	}
	if err != nil {
		return request{}, err
	}

	req, err := parseRequestLine(line)
	if err != nil {
		return request{}, err
	}

	c.setState(stateReadingHeaders)
	for {
		line, err := c.readLine()
		if err != nil {
			return request{}, err
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			log.Printf("[WARN] malformed header line from %s skipped: %q", c.remote(), line)
			continue
		}
		req.headers[strings.ToLower(name)] = strings.TrimSpace(value)
	}

	if _, ok := req.headers["transfer-encoding"]; ok {
		return request{}, &protocolError{status: http.StatusNotImplemented, msg: "transfer encoding not supported"}
	}

	cl, ok := req.headers["content-length"]
	if !ok {
		return req, nil
	}
	size, err := strconv.Atoi(cl)
	if err != nil || size < 0 {
		return request{}, badRequest("invalid Content-Length %q", cl)
	}
	if size > maxBodyBytes {
		return request{}, &protocolError{status: http.StatusRequestEntityTooLarge, msg: "request body too large"}
	}
	if size == 0 {
		return req, nil
	}

	c.setState(stateReadingBody)
	body := make([]byte, size)
	if _, err := io.ReadFull(c.rd, body); err != nil {
		return request{}, badRequest("incomplete body, %v", err)
	}
	if !utf8.Valid(body) {
		return request{}, badRequest("request body is not valid utf-8")
	}
	req.body = body
	return req, nil
}

// readLine returns the next line without CRLF, limiting the size of the whole header block
func (c *connection) readLine() (string, error) {
	line, err := c.rd.ReadSlice('\n')
	c.headerBytes += len(line)
	if errors.Is(err, bufio.ErrBufferFull) || c.headerBytes > maxHeaderBytes {
		return "", &protocolError{status: http.StatusRequestHeaderFieldsTooLarge, msg: "request header too large"}
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

func parseRequestLine(line string) (request, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return request{}, badRequest("malformed request line %q", line)
	}
	method, target, proto := parts[0], parts[1], parts[2]
	if method == "" || strings.ToUpper(method) != method {
		return request{}, badRequest("malformed method %q", method)
	}
	if !strings.HasPrefix(target, "/") {
		return request{}, badRequest("malformed request target %q", target)
	}
	if !strings.HasPrefix(proto, "HTTP/1.") {
		return request{}, &protocolError{status: http.StatusHTTPVersionNotSupported, msg: "unsupported protocol " + proto}
	}
	return request{method: method, target: target, proto: proto, headers: map[string]string{}}, nil
}

// writeResponse sends the response with optional write deadline
func (c *connection) writeResponse(resp response, timeout time.Duration) error {
	c.setState(stateWritingResponse)
	if timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}
	if _, err := resp.WriteTo(c.conn); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

func (c *connection) close() {
	c.setState(stateClosed)
	if err := c.conn.Close(); err != nil {
		log.Printf("[DEBUG] failed to close connection %s: %v", c.remote(), err)
	}
}
