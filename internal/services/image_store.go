package services

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var allowedImageExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

var allowedImageMIME = []string{"image/png", "image/jpeg", "image/gif"}

// UploadURLPrefix is where the router serves the upload dir.
const UploadURLPrefix = "/uploads/"

// ImageStore keeps idea images on local disk under Dir.
type ImageStore struct {
	Dir      string
	MaxBytes int64

	now func() time.Time
}

func NewImageStore(dir string, maxBytes int64) *ImageStore {
	return &ImageStore{
		Dir:      dir,
		MaxBytes: maxBytes,
		now:      time.Now,
	}
}

// Allowed checks the extension of the original file name.
func (s *ImageStore) Allowed(filename string) bool {
	return allowedImageExt[strings.ToLower(filepath.Ext(filename))]
}

// Save writes r to a new uniquely named file and returns that name. The data
// lands in a temp file first and is renamed into place once complete.
func (s *ImageStore) Save(filename string, r io.Reader) (string, error) {
	if !s.Allowed(filename) {
		return "", &ValidationError{Problems: []string{"Недопустимый формат изображения (разрешены png, jpg, jpeg, gif)"}}
	}

	head := make([]byte, 3072)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", storeErr("read upload", err)
	}
	head = head[:n]
	if n == 0 || !isAllowedImage(head) {
		return "", &ValidationError{Problems: []string{"Файл не является изображением"}}
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", storeErr("create upload dir", err)
	}
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", storeErr("create temp file", err)
	}
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmp.Name())
	}()

	src := io.MultiReader(bytes.NewReader(head), r)
	if s.MaxBytes > 0 {
		src = io.LimitReader(src, s.MaxBytes+1)
	}
	written, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", storeErr("write upload", err)
	}
	if s.MaxBytes > 0 && written > s.MaxBytes {
		return "", &ValidationError{Problems: []string{
			fmt.Sprintf("Файл слишком большой (максимум %d МБ)", s.MaxBytes>>20),
		}}
	}

	name := s.uniqueName(filename)
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return "", storeErr("store upload", err)
	}
	log.Debug().Str("image", name).Int64("bytes", written).Msg("image stored")
	return name, nil
}

func isAllowedImage(head []byte) bool {
	mt := mimetype.Detect(head)
	for _, m := range allowedImageMIME {
		if mt.Is(m) {
			return true
		}
	}
	return false
}

// uniqueName builds <YYYYMMDD_HHMMSS_micro>_<uuid8>_<sanitized original>.
func (s *ImageStore) uniqueName(original string) string {
	now := s.now()
	stamp := fmt.Sprintf("%s_%06d", now.Format("20060102_150405"), now.Nanosecond()/1000)
	return stamp + "_" + uuid.NewString()[:8] + "_" + SanitizeFilename(original)
}

// Remove deletes a stored image. A missing file is not an error.
func (s *ImageStore) Remove(name string) error {
	if name == "" || filepath.Base(name) != name {
		return errors.Errorf("invalid image name %q", name)
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "remove image")
	}
	return nil
}

// ImageURL is the public path of a stored image.
func ImageURL(name string) string {
	if name == "" {
		return ""
	}
	return UploadURLPrefix + name
}

// SanitizeFilename keeps ASCII letters, digits, dots, dashes and underscores.
// Names that end up without a base fall back to "image".
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, filepath.Ext(name))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('_')
		}
	}
	clean := strings.Trim(b.String(), "_")
	if clean == "" {
		clean = "image"
	}
	return clean + ext
}
