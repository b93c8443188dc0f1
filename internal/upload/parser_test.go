package upload

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const testBoundary = "----WebKitFormBoundaryTEST"

func filePart(field, filename, data string) string {
	return "--" + testBoundary + "\r\n" +
		`Content-Disposition: form-data; name="` + field + `"; filename="` + filename + `"` + "\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"\r\n" +
		data + "\r\n"
}

func fieldPart(field, value string) string {
	return "--" + testBoundary + "\r\n" +
		`Content-Disposition: form-data; name="` + field + `"` + "\r\n" +
		"\r\n" +
		value + "\r\n"
}

func multipartBody(parts ...string) []byte {
	return []byte(strings.Join(parts, "") + "--" + testBoundary + "--\r\n")
}

func TestBoundary(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        string
		wantErr     bool
	}{
		{
			name:        "plain token",
			contentType: "multipart/form-data; boundary=xyz",
			want:        "xyz",
		},
		{
			name:        "browser-style token",
			contentType: "multipart/form-data; boundary=----WebKitFormBoundary7MA4YWxk",
			want:        "----WebKitFormBoundary7MA4YWxk",
		},
		{
			name:        "quoted token",
			contentType: `multipart/form-data; boundary="quoted-token"`,
			want:        "quoted-token",
		},
		{
			name:        "boundary after other params",
			contentType: "multipart/form-data; charset=utf-8; boundary=abc",
			want:        "abc",
		},
		{
			name:        "uppercase attribute",
			contentType: "multipart/form-data; BOUNDARY=abc",
			want:        "abc",
		},
		{
			name:        "no boundary param",
			contentType: "multipart/form-data",
			wantErr:     true,
		},
		{
			name:        "empty boundary value",
			contentType: "multipart/form-data; boundary=",
			wantErr:     true,
		},
		{
			name:        "not multipart at all",
			contentType: "text/plain",
			wantErr:     true,
		},
		{
			name:        "empty header",
			contentType: "",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Boundary(tt.contentType)

			if tt.wantErr {
				if !errors.Is(err, ErrNoBoundary) {
					t.Fatalf("Boundary() error = %v, want ErrNoBoundary", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Boundary() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Boundary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScanParts_SingleFile(t *testing.T) {
	body := multipartBody(filePart("file", "report.pdf", "pdf bytes here"))

	parts, dropped := ScanParts(body, testBoundary)

	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if parts[0].Filename != "report.pdf" {
		t.Errorf("Filename = %q, want %q", parts[0].Filename, "report.pdf")
	}
	if !parts[0].IsFile() {
		t.Error("IsFile() = false, want true")
	}
	if !bytes.Equal(parts[0].Data, []byte("pdf bytes here")) {
		t.Errorf("Data = %q, want %q", parts[0].Data, "pdf bytes here")
	}
}

func TestScanParts_TwoFiles(t *testing.T) {
	body := multipartBody(
		filePart("file", "a.txt", "alpha"),
		filePart("file", "b.txt", "bravo"),
	)

	parts, dropped := ScanParts(body, testBoundary)

	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if parts[0].Filename != "a.txt" || string(parts[0].Data) != "alpha" {
		t.Errorf("parts[0] = {%q %q}, want {a.txt alpha}", parts[0].Filename, parts[0].Data)
	}
	if parts[1].Filename != "b.txt" || string(parts[1].Data) != "bravo" {
		t.Errorf("parts[1] = {%q %q}, want {b.txt bravo}", parts[1].Filename, parts[1].Data)
	}
}

func TestScanParts_FormFieldHasNoFilename(t *testing.T) {
	body := multipartBody(
		fieldPart("note", "hello"),
		filePart("file", "a.txt", "alpha"),
	)

	parts, dropped := ScanParts(body, testBoundary)

	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if parts[0].IsFile() {
		t.Errorf("form field part reported IsFile() = true")
	}
	if string(parts[0].Data) != "hello" {
		t.Errorf("field data = %q, want %q", parts[0].Data, "hello")
	}
	if !parts[1].IsFile() {
		t.Errorf("file part reported IsFile() = false")
	}
}

func TestScanParts_BinaryPayloadPreserved(t *testing.T) {
	// CRLF pairs inside the payload must survive; only the final
	// terminator before the delimiter is framing.
	payload := "line one\r\nline two\r\n\r\nline four"
	body := multipartBody(filePart("file", "multi.txt", payload))

	parts, dropped := ScanParts(body, testBoundary)

	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if string(parts[0].Data) != payload {
		t.Errorf("Data = %q, want %q", parts[0].Data, payload)
	}
}

func TestScanParts_MissingTrailingTerminator(t *testing.T) {
	// The payload runs straight into the closing delimiter with no
	// CRLF. The part is still recovered intact.
	body := []byte("--" + testBoundary + "\r\n" +
		`Content-Disposition: form-data; name="file"; filename="raw.bin"` + "\r\n" +
		"\r\n" +
		"raw-data" +
		"--" + testBoundary + "--\r\n")

	parts, dropped := ScanParts(body, testBoundary)

	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if string(parts[0].Data) != "raw-data" {
		t.Errorf("Data = %q, want %q", parts[0].Data, "raw-data")
	}
}

func TestScanParts_EmptyPayload(t *testing.T) {
	body := multipartBody(filePart("file", "empty.txt", ""))

	parts, dropped := ScanParts(body, testBoundary)

	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if parts[0].Filename != "empty.txt" {
		t.Errorf("Filename = %q, want empty.txt", parts[0].Filename)
	}
	if len(parts[0].Data) != 0 {
		t.Errorf("Data = %q, want empty", parts[0].Data)
	}
}

func TestScanParts_MalformedPartDropped(t *testing.T) {
	// The middle part has no blank line separating headers from
	// payload; its neighbors must survive.
	malformed := "--" + testBoundary + "\r\n" +
		`Content-Disposition: form-data; name="file"; filename="broken.txt"` + "\r\n" +
		"no blank line before payload\r\n"
	body := multipartBody(
		filePart("file", "a.txt", "alpha"),
		malformed,
		filePart("file", "b.txt", "bravo"),
	)

	parts, dropped := ScanParts(body, testBoundary)

	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if parts[0].Filename != "a.txt" || parts[1].Filename != "b.txt" {
		t.Errorf("surviving parts = %q, %q; want a.txt, b.txt", parts[0].Filename, parts[1].Filename)
	}
}

func TestScanParts_TruncatedTailDropped(t *testing.T) {
	// The body ends mid-part with no closing delimiter.
	body := []byte(filePart("file", "a.txt", "alpha") +
		"--" + testBoundary + "\r\n" +
		`Content-Disposition: form-data; name="file"; filename="cut.txt"` + "\r\n" +
		"\r\n" +
		"partial data with no end")

	parts, dropped := ScanParts(body, testBoundary)

	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if parts[0].Filename != "a.txt" {
		t.Errorf("surviving part = %q, want a.txt", parts[0].Filename)
	}
}

func TestScanParts_BoundaryNeverAppears(t *testing.T) {
	parts, dropped := ScanParts([]byte("just some bytes"), testBoundary)

	if parts != nil {
		t.Errorf("parts = %v, want nil", parts)
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
}

func TestScanParts_PreambleIgnored(t *testing.T) {
	body := append([]byte("This is the preamble.\r\n"), multipartBody(filePart("file", "a.txt", "alpha"))...)

	parts, dropped := ScanParts(body, testBoundary)

	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if parts[0].Filename != "a.txt" {
		t.Errorf("Filename = %q, want a.txt", parts[0].Filename)
	}
}

func TestScanParts_SameFieldNameTwice(t *testing.T) {
	// Browsers reuse the field name for every file in a multi-select
	// upload; each part stands alone.
	body := multipartBody(
		filePart("files", "one.jpg", "111"),
		filePart("files", "two.jpg", "222"),
	)

	parts, dropped := ScanParts(body, testBoundary)

	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if parts[0].Filename != "one.jpg" || parts[1].Filename != "two.jpg" {
		t.Errorf("filenames = %q, %q; want one.jpg, two.jpg", parts[0].Filename, parts[1].Filename)
	}
}

func TestScanParts_PathKeptRawInFilename(t *testing.T) {
	// Sanitization is the saver's job; the scanner reports the
	// attribute as sent.
	body := multipartBody(filePart("file", `C:\fakepath\cat.jpg`, "meow"))

	parts, _ := ScanParts(body, testBoundary)

	if len(parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(parts))
	}
	if parts[0].Filename != `C:\fakepath\cat.jpg` {
		t.Errorf("Filename = %q, want raw path", parts[0].Filename)
	}
}

func TestFilenameFrom(t *testing.T) {
	tests := []struct {
		name    string
		headers string
		want    string
	}{
		{
			name:    "standard disposition",
			headers: `Content-Disposition: form-data; name="file"; filename="a.txt"`,
			want:    "a.txt",
		},
		{
			name:    "lowercase header name",
			headers: `content-disposition: form-data; name="file"; filename="b.txt"`,
			want:    "b.txt",
		},
		{
			name:    "no filename attribute",
			headers: `Content-Disposition: form-data; name="note"`,
			want:    "",
		},
		{
			name:    "empty filename attribute",
			headers: `Content-Disposition: form-data; name="file"; filename=""`,
			want:    "",
		},
		{
			name:    "unterminated quote",
			headers: `Content-Disposition: form-data; name="file"; filename="broken`,
			want:    "",
		},
		{
			name:    "disposition on second line",
			headers: "Content-Type: text/plain\r\nContent-Disposition: form-data; name=\"file\"; filename=\"c.txt\"",
			want:    "c.txt",
		},
		{
			name:    "no disposition at all",
			headers: "Content-Type: text/plain",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filenameFrom([]byte(tt.headers)); got != tt.want {
				t.Errorf("filenameFrom() = %q, want %q", got, tt.want)
			}
		})
	}
}
