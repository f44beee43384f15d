package artifacts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadStore persists incoming images under collision-free unique names.
type UploadStore struct {
	dir      string
	maxBytes int64
}

// NewUploadStore constructs an upload store rooted at dir. maxBytes caps the
// accepted upload size; zero disables the cap.
func NewUploadStore(dir string, maxBytes int64) *UploadStore {
	return &UploadStore{dir: dir, maxBytes: maxBytes}
}

// Dir returns the upload root.
func (u *UploadStore) Dir() string {
	return u.dir
}

// Save streams an upload to disk under a fresh unique name, preserving the
// original file extension. Returns the absolute stored path.
func (u *UploadStore) Save(r io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.NewString() + ext
	path := filepath.Join(u.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload %s: %w", name, err)
	}
	defer file.Close()

	reader := r
	if u.maxBytes > 0 {
		reader = io.LimitReader(r, u.maxBytes+1)
	}
	written, err := io.Copy(file, reader)
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload %s: %w", name, err)
	}
	if u.maxBytes > 0 && written > u.maxBytes {
		_ = os.Remove(path)
		return "", fmt.Errorf("upload exceeds maximum size of %d bytes", u.maxBytes)
	}
	return path, nil
}
