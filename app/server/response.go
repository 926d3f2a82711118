package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeCSS  = "text/css; charset=utf-8"
)

// response is a complete http/1.1 response, written once per connection
type response struct {
	status      int
	contentType string
	headers     [][2]string // extra headers, written in order
	body        []byte
}

func textResponse(status int, msg string) response {
	return response{status: status, contentType: contentTypeText, body: []byte(msg)}
}

func redirectResponse(location string) response {
	return response{status: http.StatusSeeOther, contentType: contentTypeText, headers: [][2]string{{"Location", location}}}
}

// WriteTo writes status line, headers and body. Content-Length is the body size in bytes.
func (r response) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\n", r.status, http.StatusText(r.status))
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", r.contentType)
	fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(r.body))
	for _, h := range r.headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h[0], h[1])
	}
	buf.WriteString("Connection: close\r\n\r\n")
	buf.Write(r.body)
	return buf.WriteTo(w)
}
