package fsutil

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestCleanRelPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty means root",
			input: "",
			want:  "",
		},
		{
			name:  "dot means root",
			input: ".",
			want:  "",
		},
		{
			name:  "single slash means root",
			input: "/",
			want:  "",
		},
		{
			name:  "leading slash stripped",
			input: "/docs/report.pdf",
			want:  "docs/report.pdf",
		},
		{
			name:  "repeated separators collapsed",
			input: "a//b///c",
			want:  "a/b/c",
		},
		{
			name:  "backslashes converted",
			input: "docs\\sub\\x.txt",
			want:  "docs/sub/x.txt",
		},
		{
			name:  "dot segments removed",
			input: "a/./b/../c",
			want:  "a/c",
		},
		{
			name:  "traversal clamped for display",
			input: "../../etc/passwd",
			want:  "etc/passwd",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  photos  ",
			want:  "photos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanRelPath(tt.input)
			if got != tt.want {
				t.Errorf("CleanRelPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveWithin(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		rel     string
		want    string // relative to root; "" means root itself
		wantErr bool
	}{
		{
			name: "empty resolves to root",
			rel:  "",
			want: "",
		},
		{
			name: "dot resolves to root",
			rel:  ".",
			want: "",
		},
		{
			name: "plain file",
			rel:  "a.txt",
			want: "a.txt",
		},
		{
			name: "nested path",
			rel:  "docs/sub/b.txt",
			want: filepath.Join("docs", "sub", "b.txt"),
		},
		{
			name: "leading slash accepted",
			rel:  "/docs/b.txt",
			want: filepath.Join("docs", "b.txt"),
		},
		{
			name: "inner dotdot resolved",
			rel:  "docs/../a.txt",
			want: "a.txt",
		},
		{
			name:    "plain traversal rejected",
			rel:     "../../etc/passwd",
			wantErr: true,
		},
		{
			name:    "bare dotdot rejected",
			rel:     "..",
			wantErr: true,
		},
		{
			name:    "escape through inner segment rejected",
			rel:     "a/../../b",
			wantErr: true,
		},
		{
			name:    "nul byte rejected",
			rel:     "a\x00b",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWithin(root, tt.rel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveWithin(%q) error = %v, wantErr %v", tt.rel, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			want := filepath.Clean(root)
			if tt.want != "" {
				want = filepath.Join(want, tt.want)
			}
			if got != want {
				t.Errorf("ResolveWithin(%q) = %q, want %q", tt.rel, got, want)
			}
		})
	}
}

func TestResolveWithin_Containment(t *testing.T) {
	root := t.TempDir()

	// Every accepted result must be the root or a descendant of it.
	inputs := []string{
		"", ".", "/", "a", "a/b/c", "../x", "..", "a/../../b",
		"./.././..", "deep/../../../../../../tmp/evil", "a\\..\\..\\b",
	}

	rootClean := filepath.Clean(root)
	for _, in := range inputs {
		got, err := ResolveWithin(root, in)
		if err != nil {
			continue
		}
		if got != rootClean && !strings.HasPrefix(got, rootClean+string(filepath.Separator)) {
			t.Errorf("ResolveWithin(%q) escaped root: %q", in, got)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name unchanged",
			input: "report.pdf",
			want:  "report.pdf",
		},
		{
			name:  "unix path stripped",
			input: "/home/user/report.pdf",
			want:  "report.pdf",
		},
		{
			name:  "windows path stripped",
			input: `C:\Users\me\photo.jpg`,
			want:  "photo.jpg",
		},
		{
			name:  "relative traversal stripped",
			input: "../../evil.sh",
			want:  "evil.sh",
		},
		{
			name:  "empty falls back",
			input: "",
			want:  "file",
		},
		{
			name:  "bare separator falls back",
			input: "/",
			want:  "file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BaseName(tt.input)
			if got != tt.want {
				t.Errorf("BaseName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "root has no parent",
			input:  "",
			wantOK: false,
		},
		{
			name:   "top-level child parents to root",
			input:  "docs",
			want:   "",
			wantOK: true,
		},
		{
			name:   "nested path",
			input:  "docs/sub/deep",
			want:   "docs/sub",
			wantOK: true,
		},
		{
			name:   "uncleaned input",
			input:  "/docs//sub/",
			want:   "docs",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParentPath(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParentPath(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParentPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
