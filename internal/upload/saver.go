package upload

import (
	"os"
	"path/filepath"
	"time"

	"pocketdrop/internal/fsutil"
)

// SavedFile records one file part persisted to the upload root.
type SavedFile struct {
	OriginalName string
	StoredName   string
	Path         string
	Size         int64
}

// Saver writes file parts into the upload root. Each part is written
// immediately and independently; one failed part never rolls back the
// parts already on disk.
type Saver struct {
	root string
	now  func() time.Time
}

// NewSaver creates a saver rooted at the upload directory.
func NewSaver(root string) *Saver {
	return &Saver{root: root, now: time.Now}
}

// StoredName prefixes the uploaded base name with a second-resolution
// timestamp. Two uploads sharing a name within the same second
// collide; the later write wins.
func StoredName(originalName string, at time.Time) string {
	return at.Format("20060102_150405") + "_" + fsutil.BaseName(originalName)
}

// Save persists one file part and returns the on-disk record.
func (s *Saver) Save(part Part) (SavedFile, error) {
	name := StoredName(part.Filename, s.now())
	dest := filepath.Join(s.root, name)

	if err := os.WriteFile(dest, part.Data, 0o644); err != nil {
		return SavedFile{}, err
	}

	return SavedFile{
		OriginalName: part.Filename,
		StoredName:   name,
		Path:         dest,
		Size:         int64(len(part.Data)),
	}, nil
}
