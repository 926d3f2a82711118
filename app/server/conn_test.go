package server

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTestRequest(raw string) (request, error) {
	c := &connection{rd: bufio.NewReader(strings.NewReader(raw))}
	return c.readRequest()
}

func TestConnection_readRequest(t *testing.T) {
	t.Run("get without body", func(t *testing.T) {
		req, err := readTestRequest("GET /styles.css?v=1 HTTP/1.1\r\nHost: localhost\r\nAccept: */*\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, "GET", req.method)
		assert.Equal(t, "/styles.css?v=1", req.target)
		assert.Equal(t, "/styles.css", req.path())
		assert.Equal(t, "HTTP/1.1", req.proto)
		assert.Equal(t, map[string]string{"host": "localhost", "accept": "*/*"}, req.headers)
		assert.Empty(t, req.body)
	})

	t.Run("post with body", func(t *testing.T) {
		body := `{"title":"Développeur","description":"Zürich"}`
		raw := "POST /create_job HTTP/1.1\r\ncontent-length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body + "trailing junk"
		req, err := readTestRequest(raw)
		require.NoError(t, err)
		assert.Equal(t, body, string(req.body), "exactly content-length bytes")
	})

	t.Run("bare LF line endings", func(t *testing.T) {
		req, err := readTestRequest("GET / HTTP/1.0\nHost: x\n\n")
		require.NoError(t, err)
		assert.Equal(t, "/", req.path())
		assert.Equal(t, "x", req.headers["host"])
	})

	t.Run("leading empty lines ignored", func(t *testing.T) {
		req, err := readTestRequest("\r\n\r\nGET / HTTP/1.1\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, "GET", req.method)
	})

	t.Run("malformed header skipped", func(t *testing.T) {
		req, err := readTestRequest("GET / HTTP/1.1\r\nno colon here\r\nBad Name: v\r\n: empty\r\nX-Ok: yes\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"x-ok": "yes"}, req.headers)
	})

	t.Run("zero content-length", func(t *testing.T) {
		req, err := readTestRequest("POST /export HTTP/1.1\r\nContent-Length: 0\r\n\r\n")
		require.NoError(t, err)
		assert.Empty(t, req.body)
	})
}

func TestConnection_readRequestErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		status int
	}{
		{"two part request line", "GET /\r\n\r\n", http.StatusBadRequest},
		{"lowercase method", "get / HTTP/1.1\r\n\r\n", http.StatusBadRequest},
		{"absolute target", "GET http://example.com/ HTTP/1.1\r\n\r\n", http.StatusBadRequest},
		{"bad protocol", "GET / SPDY/3\r\n\r\n", http.StatusHTTPVersionNotSupported},
		{"invalid content-length", "POST /x HTTP/1.1\r\nContent-Length: abc\r\n\r\n", http.StatusBadRequest},
		{"negative content-length", "POST /x HTTP/1.1\r\nContent-Length: -1\r\n\r\n", http.StatusBadRequest},
		{"short body", "POST /x HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc", http.StatusBadRequest},
		{"invalid utf8 body", "POST /x HTTP/1.1\r\nContent-Length: 2\r\n\r\n\xff\xfe", http.StatusBadRequest},
		{"body too large", "POST /x HTTP/1.1\r\nContent-Length: 70000\r\n\r\n", http.StatusRequestEntityTooLarge},
		{"chunked", "POST /x HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n", http.StatusNotImplemented},
		{"huge header", "GET / HTTP/1.1\r\nX-Big: " + strings.Repeat("a", 5000) + "\r\n\r\n", http.StatusRequestHeaderFieldsTooLarge},
		{"too many headers", "GET / HTTP/1.1\r\n" + strings.Repeat("X-H: "+strings.Repeat("b", 100)+"\r\n", 100) + "\r\n",
			http.StatusRequestHeaderFieldsTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readTestRequest(tt.raw)
			require.Error(t, err)
			var perr *protocolError
			require.True(t, errors.As(err, &perr), "protocol error expected, got %v", err)
			assert.Equal(t, tt.status, perr.status)
		})
	}

	t.Run("peer gone is not a protocol error", func(t *testing.T) {
		for _, raw := range []string{"", "GET / HTTP/1.1\r\nHost: x\r\n", "GET / HT"} {
			_, err := readTestRequest(raw)
			require.Error(t, err)
			var perr *protocolError
			assert.False(t, errors.As(err, &perr))
			assert.ErrorIs(t, err, io.EOF)
		}
	})
}

func TestResponse_WriteTo(t *testing.T) {
	t.Run("byte accurate length", func(t *testing.T) {
		var buf bytes.Buffer
		resp := textResponse(http.StatusOK, "héllo ✓")
		n, err := resp.WriteTo(&buf)
		require.NoError(t, err)
		assert.Equal(t, int64(buf.Len()), n)
		exp := "HTTP/1.1 200 OK\r\nContent-Type: text/plain; charset=utf-8\r\nContent-Length: 10\r\n" +
			"Connection: close\r\n\r\nhéllo ✓"
		assert.Equal(t, exp, buf.String())

		parsed, err := http.ReadResponse(bufio.NewReader(&buf), nil)
		require.NoError(t, err)
		body, err := io.ReadAll(parsed.Body)
		require.NoError(t, err)
		assert.Equal(t, "héllo ✓", string(body))
	})

	t.Run("redirect", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := redirectResponse("/").WriteTo(&buf)
		require.NoError(t, err)
		assert.Equal(t, "HTTP/1.1 303 See Other\r\nContent-Type: text/plain; charset=utf-8\r\nContent-Length: 0\r\n"+
			"Location: /\r\nConnection: close\r\n\r\n", buf.String())
	})
}

func TestConnState_String(t *testing.T) {
	assert.Equal(t, "awaiting-request-line", stateAwaitingRequestLine.String())
	assert.Equal(t, "reading-headers", stateReadingHeaders.String())
	assert.Equal(t, "reading-body", stateReadingBody.String())
	assert.Equal(t, "dispatching", stateDispatching.String())
	assert.Equal(t, "writing-response", stateWritingResponse.String())
	assert.Equal(t, "closed", stateClosed.String())
	assert.Equal(t, "unknown", connState(42).String())
}
