package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "grievancedesk/internal/errors"
)

const (
	// FieldName is the multipart field carrying the photo.
	FieldName = "photos"
	// MaxFiles is the number of photos a grievance may carry.
	MaxFiles = 1
	// MaxFileSize is the per-file limit in bytes.
	MaxFileSize = 5_000_000
	// PublicPrefix is both the stored path prefix and the URL mount point.
	PublicPrefix = "uploads"
)

var (
	allowedExt  = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true}
	allowedMIME = []string{"image/jpeg", "image/png", "image/gif"}
)

var (
	errTooMany  = apperrors.Validation("Too many files: only one photo is allowed")
	errTooLarge = apperrors.Validation("File too large")
	errNotImage = apperrors.Validation("Error: Images Only!")
)

// PickPhoto validates the file parts of a form and returns the single photo,
// or nil when none was sent. Any extra file part is rejected, whatever its field.
func PickPhoto(form *multipart.Form) (*multipart.FileHeader, error) {
	if form == nil {
		return nil, nil
	}
	total := 0
	for _, files := range form.File {
		total += len(files)
	}
	if total == 0 {
		return nil, nil
	}
	if total > MaxFiles {
		return nil, errTooMany
	}
	files := form.File[FieldName]
	if len(files) == 0 {
		return nil, apperrors.Validation("Unexpected file field: use " + FieldName)
	}
	fh := files[0]
	if fh.Size > MaxFileSize {
		return nil, errTooLarge
	}
	if !allowedExt[strings.ToLower(filepath.Ext(fh.Filename))] {
		return nil, errNotImage
	}
	return fh, nil
}

// DiskStore writes accepted photos under a local directory.
type DiskStore struct {
	dir   string
	stamp *Stamper
}

// NewDiskStore ensures dir exists.
func NewDiskStore(dir string, stamp *Stamper) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir, stamp: stamp}, nil
}

// Dir is the directory served at /uploads.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save sniffs and stores the photo and returns its stored relative path,
// e.g. "uploads/photos-1712345678901.png".
func (s *DiskStore) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("sniff upload: %w", err)
	}
	if !mimetype.EqualsAny(mtype.String(), allowedMIME...) {
		return "", errNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("%s-%d%s", FieldName, s.stamp.Next(), ext)
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create photo: %w", err)
	}

	n, err := io.Copy(dst, io.LimitReader(src, MaxFileSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > MaxFileSize {
		err = errTooLarge
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		return "", err
	}
	return path.Join(PublicPrefix, name), nil
}

// Remove deletes a stored photo by its relative path. Missing files are ignored.
func (s *DiskStore) Remove(stored string) error {
	name := path.Base(strings.ReplaceAll(stored, `\`, "/"))
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
