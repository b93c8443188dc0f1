// Package upload parses multipart/form-data bodies with a deliberate,
// bounded state scan and persists the extracted file parts.
//
// The scan walks delimiter, header block, blank line, payload, next
// delimiter. A malformed part is dropped without failing the request;
// a missing boundary parameter fails the whole request.
package upload

import (
	"bytes"
	"errors"
	"strings"
)

// ErrNoBoundary reports a multipart Content-Type without a usable
// boundary parameter.
var ErrNoBoundary = errors.New("missing multipart boundary")

var (
	crlf       = []byte("\r\n")
	headerSep  = []byte("\r\n\r\n")
	closeDelim = []byte("--")
)

// Part is one boundary-delimited segment of a multipart body.
type Part struct {
	Filename string // empty for plain form fields
	Data     []byte
}

// IsFile reports whether the part carried a filename attribute.
func (p Part) IsFile() bool { return p.Filename != "" }

// Boundary extracts the boundary token from a multipart Content-Type
// value such as "multipart/form-data; boundary=----WebKitFormBoundaryX".
func Boundary(contentType string) (string, error) {
	const prefix = "boundary="
	for _, param := range strings.Split(contentType, ";") {
		param = strings.TrimSpace(param)
		if len(param) <= len(prefix) || !strings.EqualFold(param[:len(prefix)], prefix) {
			continue
		}
		token := strings.Trim(param[len(prefix):], `"`)
		if token != "" {
			return token, nil
		}
	}
	return "", ErrNoBoundary
}

// ScanParts walks the body through the delimiter, header, and payload
// states and returns every well-formed part in order. The second
// return value counts dropped segments: parts with no header/payload
// separator and a trailing part cut off before its closing delimiter.
func ScanParts(body []byte, boundary string) ([]Part, int) {
	delim := []byte("--" + boundary)

	var parts []Part
	dropped := 0

	// Preamble: everything before the first delimiter is ignored.
	first := bytes.Index(body, delim)
	if first < 0 {
		return nil, 0
	}
	body = body[first+len(delim):]

	for {
		// Delimiter state: "--" closes the stream, anything else
		// opens the header block of a new part.
		if bytes.HasPrefix(body, closeDelim) {
			return parts, dropped
		}
		body = bytes.TrimPrefix(body, crlf)

		sep := bytes.Index(body, headerSep)
		next := bytes.Index(body, delim)

		if next < 0 {
			// The closing delimiter never arrives: the trailing part
			// is truncated and cannot be trusted.
			if len(bytes.TrimSpace(body)) > 0 {
				dropped++
			}
			return parts, dropped
		}

		if sep < 0 || sep > next {
			// No blank line inside this part; drop it and move on.
			dropped++
			body = body[next+len(delim):]
			continue
		}

		payload := body[sep+len(headerSep) : next]
		// The line terminator before the delimiter belongs to the
		// framing, not the payload. A part missing it is tolerated.
		payload = bytes.TrimSuffix(payload, crlf)

		parts = append(parts, Part{
			Filename: filenameFrom(body[:sep]),
			Data:     payload,
		})

		body = body[next+len(delim):]
	}
}

// filenameFrom pulls the quoted filename attribute out of a part's
// Content-Disposition header. Plain form fields have none.
func filenameFrom(headers []byte) string {
	const marker = `filename="`
	for _, line := range strings.Split(string(headers), "\r\n") {
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "content-disposition:") {
			continue
		}
		start := strings.Index(lower, marker)
		if start < 0 {
			return ""
		}
		rest := line[start+len(marker):]
		end := strings.IndexByte(rest, '"')
		if end < 0 {
			return ""
		}
		return rest[:end]
	}
	return ""
}
