package artifact

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FormatVersion is the bundle layout written by this package.
const FormatVersion = 1

// Blob names inside a bundle. Data blobs are stored under their
// checksummed form, see BlobName.
const (
	ManifestName = "manifest.json"
	FeaturesName = "features.f32"
	TracksName   = "tracks.json"
	ModelName    = "model.json"
)

var (
	// ErrCorrupt is returned when a bundle's blobs disagree with its manifest.
	ErrCorrupt = errors.New("artifact: corrupt bundle")
	// ErrUnsupportedVersion is returned for manifests newer than FormatVersion.
	ErrUnsupportedVersion = errors.New("artifact: unsupported format version")
)

// Kind tells whether a bundle carries cluster assignments.
type Kind string

const (
	// KindRaw is unscaled extractor output without assignments.
	KindRaw Kind = "raw"
	// KindFitted is scaled features with assignments and model params.
	KindFitted Kind = "fitted"
)

// BlobRef describes one blob of a bundle.
type BlobRef struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	CRC32C uint32 `json:"crc32c"`
}

// Manifest is the root document of a bundle.
type Manifest struct {
	FormatVersion int         `json:"format_version"`
	Kind          Kind        `json:"kind"`
	Tracks        int         `json:"tracks"`
	Dim           int         `json:"dim"`
	Clusters      int         `json:"clusters,omitempty"`
	Compression   Compression `json:"compression"`
	Codec         string      `json:"codec"`
	Features      BlobRef     `json:"features"`
	Index         BlobRef     `json:"index"`
	Model         *BlobRef    `json:"model,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// BlobName inserts the CRC32C sum of a blob's content into base, so
// "features.f32.zst" is stored as "features-1a2b3c4d.f32.zst".
func BlobName(base string, sum uint32) string {
	stem, ext, _ := strings.Cut(base, ".")
	return fmt.Sprintf("%s-%08x.%s", stem, sum, ext)
}

// isDataBlob reports whether name is a data blob of the bundle at the
// store root, in checksummed or legacy fixed form.
func isDataBlob(name string) bool {
	if strings.Contains(name, "/") {
		return false
	}
	for _, base := range []string{FeaturesName, TracksName, ModelName} {
		stem, _, _ := strings.Cut(base, ".")
		if strings.HasPrefix(name, stem+"-") || strings.HasPrefix(name, base) {
			return true
		}
	}
	return false
}

func (m *Manifest) refs() []BlobRef {
	refs := []BlobRef{m.Features, m.Index}
	if m.Model != nil {
		refs = append(refs, *m.Model)
	}
	return refs
}

// RawSize is the byte length of the decoded feature matrix.
func (m *Manifest) RawSize() int {
	return m.Tracks * m.Dim * 4
}

func (m *Manifest) validate() error {
	if m.FormatVersion < 1 || m.FormatVersion > FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.FormatVersion)
	}
	switch m.Kind {
	case KindRaw, KindFitted:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrCorrupt, m.Kind)
	}
	if m.Tracks < 0 || m.Dim < 0 {
		return fmt.Errorf("%w: negative shape %dx%d", ErrCorrupt, m.Tracks, m.Dim)
	}
	if m.Features.Name == "" || m.Index.Name == "" {
		return fmt.Errorf("%w: missing blob reference", ErrCorrupt)
	}
	if _, err := ParseCompression(string(m.Compression)); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return nil
}
