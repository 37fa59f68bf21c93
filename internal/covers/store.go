// Package covers stores uploaded book cover images on local disk.
//
// An upload is staged to a temporary file first and only becomes a stored
// cover when Commit is called, which callers do once the book row that
// references it has been written:
//
//	upload, err := store.Stage(fileHeader)
//	defer upload.Discard() // no-op after Commit
//	book.CoverURL = upload.Path()
//	... insert book ...
//	err = upload.Commit()
package covers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/mrlokans/bookshelf/internal/utils"
)

const stagingPrefix = ".staging-"

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrOutsideStore    = errors.New("path is outside the uploads directory")
)

// Declared content types accepted from clients. "image/jpg" is not a
// registered type but browsers and tools still send it.
var allowedDeclaredTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
}

// Types the file content must actually have.
var allowedSniffedTypes = []string{"image/png", "image/jpeg"}

// Store manages the uploads directory.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// StoredFile is a file present in the uploads directory. Staged files are
// uploads that were never committed or discarded.
type StoredFile struct {
	Path    string
	ModTime time.Time
	Staged  bool
}

// NewStore creates the uploads directory if needed.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir returns the uploads directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Stage validates an uploaded image and copies it to a temporary file in the
// uploads directory.
func (s *Store) Stage(fh *multipart.FileHeader) (*Upload, error) {
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	if !declaredTypeAllowed(fh.Header.Get("Content-Type")) {
		return nil, ErrInvalidFileType
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmpFile, err := os.CreateTemp(s.dir, stagingPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	tmpPath := tmpFile.Name()
	keep := false
	defer func() {
		tmpFile.Close()
		if !keep {
			os.Remove(tmpPath)
		}
	}()

	var reader io.Reader = src
	if s.maxBytes > 0 {
		reader = io.LimitReader(src, s.maxBytes+1)
	}
	written, err := io.Copy(tmpFile, reader)
	if err != nil {
		return nil, fmt.Errorf("write staging file: %w", err)
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("write staging file: %w", err)
	}

	detected, err := mimetype.DetectFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("detect file type: %w", err)
	}
	if !mimetype.EqualsAny(detected.String(), allowedSniffedTypes...) {
		return nil, ErrInvalidFileType
	}

	name := fmt.Sprintf("image-%d-%s-%s",
		s.now().UnixMilli(), uuid.NewString(), utils.SanitizeFilename(fh.Filename))

	keep = true
	return &Upload{
		tmpPath:   tmpPath,
		finalPath: filepath.Join(s.dir, name),
	}, nil
}

// Remove deletes a stored cover. Missing files are not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if !s.contains(path) {
		return fmt.Errorf("%w: %s", ErrOutsideStore, path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns the files in the uploads directory, staging leftovers
// included.
func (s *Store) List() ([]StoredFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	files := make([]StoredFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, StoredFile{
			Path:    filepath.Join(s.dir, entry.Name()),
			ModTime: info.ModTime(),
			Staged:  strings.HasPrefix(entry.Name(), stagingPrefix),
		})
	}
	return files, nil
}

// Sweep removes covers that no book references and staging files left
// behind by interrupted uploads. Files younger than grace are kept so that
// uploads in flight are not raced. Returns the number of files removed.
//
// Covers always live directly in the uploads directory, so references are
// matched by file name. The directory may be spelled differently (relative,
// absolute, through a symlink) than when the covers were stored.
func (s *Store) Sweep(referenced map[string]struct{}, grace time.Duration) (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}

	names := make(map[string]struct{}, len(referenced))
	for p := range referenced {
		names[filepath.Base(p)] = struct{}{}
	}

	cutoff := s.now().Add(-grace)
	removed := 0
	for _, f := range files {
		if f.ModTime.After(cutoff) {
			continue
		}
		if _, ok := names[filepath.Base(f.Path)]; ok && !f.Staged {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// contains reports whether path lies directly inside the uploads directory.
func (s *Store) contains(path string) bool {
	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return filepath.Dir(absPath) == absDir
}

func declaredTypeAllowed(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return allowedDeclaredTypes[strings.ToLower(mediaType)]
}

// Upload is a validated image waiting to be committed.
type Upload struct {
	tmpPath   string
	finalPath string
	committed bool
	discarded bool
}

// Path is where the cover will live once committed. It is the value stored
// on the book.
func (u *Upload) Path() string {
	return u.finalPath
}

// Commit moves the staged file to its final path.
func (u *Upload) Commit() error {
	if u.committed {
		return nil
	}
	if u.discarded {
		return errors.New("upload already discarded")
	}
	if err := os.Rename(u.tmpPath, u.finalPath); err != nil {
		return fmt.Errorf("commit upload: %w", err)
	}
	u.committed = true
	return nil
}

// Discard removes the staged file. It does nothing after Commit, so it can
// be deferred unconditionally.
func (u *Upload) Discard() error {
	if u == nil || u.committed || u.discarded {
		return nil
	}
	u.discarded = true
	if err := os.Remove(u.tmpPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
