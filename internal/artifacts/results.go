package artifacts

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vizart/internal/jobs"
	"vizart/internal/media"
)

// URLPrefix is the public prefix under which result artifacts are served.
const URLPrefix = "/static/results/"

// ResultStore writes result artifacts under the results root and maps them to
// their public URLs. Artifact names follow fixed conventions so results stay
// addressable from the job id alone.
type ResultStore struct {
	dir     string
	quality int
}

// NewResultStore constructs a result store rooted at dir. quality applies to
// every JPEG artifact.
func NewResultStore(dir string, quality int) *ResultStore {
	if quality <= 0 || quality > 100 {
		quality = 95
	}
	return &ResultStore{dir: dir, quality: quality}
}

// Dir returns the results root.
func (r *ResultStore) Dir() string {
	return r.dir
}

// URLFor maps an artifact name to its public URL.
func (r *ResultStore) URLFor(name string) string {
	return URLPrefix + name
}

// PathForURL resolves a public artifact URL back to its on-disk path. URLs
// outside the results prefix or containing path separators are rejected.
func (r *ResultStore) PathForURL(url string) (string, bool) {
	if !strings.HasPrefix(url, URLPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(url, URLPrefix)
	if name == "" || name != filepath.Base(name) {
		return "", false
	}
	return filepath.Join(r.dir, name), true
}

// SaveResult writes the try-on composite as {jobID}_result.jpg and returns
// the artifact name.
func (r *ResultStore) SaveResult(img image.Image, jobID string) (string, error) {
	name := fmt.Sprintf("%s_result.jpg", jobID)
	if err := media.SaveJPEG(img, filepath.Join(r.dir, name), r.quality); err != nil {
		return "", err
	}
	return name, nil
}

// SaveGarment writes an extracted garment crop as
// {jobID}_{garmentType}_garment.jpg and returns the artifact name.
func (r *ResultStore) SaveGarment(img image.Image, jobID string, garmentType jobs.GarmentType) (string, error) {
	name := fmt.Sprintf("%s_%s_garment.jpg", jobID, garmentType)
	if err := media.SaveJPEG(img, filepath.Join(r.dir, name), r.quality); err != nil {
		return "", err
	}
	return name, nil
}

// SaveGarmentMask writes the mask sibling of a garment artifact and returns
// its name.
func (r *ResultStore) SaveGarmentMask(mask image.Image, jobID string, garmentType jobs.GarmentType) (string, error) {
	name := fmt.Sprintf("%s_%s_garment_mask.jpg", jobID, garmentType)
	if err := media.SaveJPEG(mask, filepath.Join(r.dir, name), r.quality); err != nil {
		return "", err
	}
	return name, nil
}

// MaskNameFor returns the mask sibling name for a garment artifact name.
func MaskNameFor(garmentName string) string {
	return strings.TrimSuffix(garmentName, ".jpg") + "_mask.jpg"
}

// SavePreview writes a preview composite under a random name and returns it.
func (r *ResultStore) SavePreview(img image.Image) (string, error) {
	name := fmt.Sprintf("preview_%s.jpg", strings.ReplaceAll(uuid.NewString(), "-", ""))
	if err := media.SaveJPEG(img, filepath.Join(r.dir, name), r.quality); err != nil {
		return "", err
	}
	return name, nil
}
