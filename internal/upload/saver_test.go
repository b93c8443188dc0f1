package upload

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStoredName(t *testing.T) {
	at := time.Date(2025, 8, 25, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		original string
		want     string
	}{
		{
			name:     "plain name",
			original: "report.pdf",
			want:     "20250825_143000_report.pdf",
		},
		{
			name:     "unix path stripped",
			original: "dir/sub/x.txt",
			want:     "20250825_143000_x.txt",
		},
		{
			name:     "windows path stripped",
			original: `C:\fakepath\img.jpg`,
			want:     "20250825_143000_img.jpg",
		},
		{
			name:     "traversal stripped",
			original: "../../etc/passwd",
			want:     "20250825_143000_passwd",
		},
		{
			name:     "empty name falls back",
			original: "",
			want:     "20250825_143000_file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StoredName(tt.original, at); got != tt.want {
				t.Errorf("StoredName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSaver_Save(t *testing.T) {
	tmpDir := t.TempDir()
	at := time.Date(2025, 8, 25, 10, 15, 30, 0, time.UTC)

	saver := NewSaver(tmpDir)
	saver.now = fixedClock(at)

	saved, err := saver.Save(Part{Filename: "report.pdf", Data: []byte("pdf bytes")})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if saved.StoredName != "20250825_101530_report.pdf" {
		t.Errorf("StoredName = %q, want 20250825_101530_report.pdf", saved.StoredName)
	}
	if saved.OriginalName != "report.pdf" {
		t.Errorf("OriginalName = %q, want report.pdf", saved.OriginalName)
	}
	if saved.Size != int64(len("pdf bytes")) {
		t.Errorf("Size = %d, want %d", saved.Size, len("pdf bytes"))
	}

	got, err := os.ReadFile(filepath.Join(tmpDir, saved.StoredName))
	if err != nil {
		t.Fatalf("stored file not readable: %v", err)
	}
	if string(got) != "pdf bytes" {
		t.Errorf("stored content = %q, want %q", got, "pdf bytes")
	}
}

func TestSaver_Save_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	saver := NewSaver(tmpDir)
	saver.now = fixedClock(time.Date(2025, 8, 25, 10, 15, 30, 0, time.UTC))

	saved, err := saver.Save(Part{Filename: "empty.txt", Data: nil})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(saved.Path)
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("stored size = %d, want 0", info.Size())
	}
}

func TestSaver_Save_PathInjection(t *testing.T) {
	tmpDir := t.TempDir()
	saver := NewSaver(tmpDir)
	saver.now = fixedClock(time.Date(2025, 8, 25, 10, 15, 30, 0, time.UTC))

	saved, err := saver.Save(Part{Filename: "../../escape.txt", Data: []byte("x")})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// The file must land inside the upload root under its base name.
	if filepath.Dir(saved.Path) != tmpDir {
		t.Errorf("stored path %q escapes upload root %q", saved.Path, tmpDir)
	}
	if saved.StoredName != "20250825_101530_escape.txt" {
		t.Errorf("StoredName = %q, want 20250825_101530_escape.txt", saved.StoredName)
	}
}

func TestSaver_Save_IndependentParts(t *testing.T) {
	tmpDir := t.TempDir()
	saver := NewSaver(tmpDir)
	saver.now = fixedClock(time.Date(2025, 8, 25, 10, 15, 30, 0, time.UTC))

	// First part lands fine.
	if _, err := saver.Save(Part{Filename: "a.txt", Data: []byte("alpha")}); err != nil {
		t.Fatalf("Save(a.txt) error = %v", err)
	}

	// Second part fails (saver pointed at a dead root), first must
	// stay on disk untouched.
	broken := NewSaver(filepath.Join(tmpDir, "no-such-dir"))
	broken.now = fixedClock(time.Date(2025, 8, 25, 10, 15, 30, 0, time.UTC))
	if _, err := broken.Save(Part{Filename: "b.txt", Data: []byte("bravo")}); err == nil {
		t.Fatal("Save into missing root succeeded, want error")
	}

	got, err := os.ReadFile(filepath.Join(tmpDir, "20250825_101530_a.txt"))
	if err != nil {
		t.Fatalf("first file gone after second failed: %v", err)
	}
	if string(got) != "alpha" {
		t.Errorf("first file content = %q, want alpha", got)
	}
}
