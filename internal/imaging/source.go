package imaging

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"time"
)

// MaxImageBytes caps the encoded size read from an archive entry or URL.
var MaxImageBytes int64 = 64 << 20

// ErrTooLarge is returned when encoded image data exceeds MaxImageBytes.
var ErrTooLarge = errors.New("image data exceeds size limit")

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxImageBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Source supplies the encoded bytes of one image.
type Source interface {
	// Key identifies the image in an ImageCache.
	Key() string
	// Fetch returns the encoded image bytes.
	Fetch(ctx context.Context) ([]byte, error)
}

// FileSource reads an image from disk.
type FileSource struct {
	Path string
}

// Key returns the file path.
func (s FileSource) Key() string { return "file:" + s.Path }

// Fetch reads the whole file.
func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return data, nil
}

// ArchiveSource reads one entry of a zip archive.
type ArchiveSource struct {
	Archive string
	Entry   string
}

// Key returns archive and entry names.
func (s ArchiveSource) Key() string { return "zip:" + s.Archive + "!" + s.Entry }

// Fetch extracts the entry.
func (s ArchiveSource) Fetch(ctx context.Context) ([]byte, error) {
	zr, err := zip.OpenReader(s.Archive)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != s.Entry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", s.Entry, err)
		}
		defer rc.Close()
		data, err := readLimited(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", s.Entry, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("archive entry not found: %s", s.Entry)
}

// ArchiveEntry describes one image inside a zip archive.
type ArchiveEntry struct {
	Name string `json:"name"`
	Size uint64 `json:"size_bytes"`
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".tif": true, ".tiff": true, ".bmp": true,
}

// IsImageName reports whether name has a supported image extension.
func IsImageName(name string) bool {
	return imageExts[strings.ToLower(path.Ext(name))]
}

// ListArchive returns the image entries of a zip archive sorted by name.
// Directories and macOS resource forks are skipped.
func ListArchive(archive string) ([]ArchiveEntry, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	var out []ArchiveEntry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") || strings.HasPrefix(path.Base(f.Name), "._") {
			continue
		}
		if !IsImageName(f.Name) {
			continue
		}
		out = append(out, ArchiveEntry{Name: f.Name, Size: f.UncompressedSize64})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// URLSource downloads an image over HTTP(S).
type URLSource struct {
	URL string
	// Client defaults to a client with a 30 second timeout.
	Client *http.Client
}

// Key returns the URL.
func (s URLSource) Key() string { return "url:" + s.URL }

const userAgent = "plantroi/1.0"

// Fetch downloads the image, rejecting non-image content types.
func (s URLSource) Fetch(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", u.Scheme)
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", ct)
	}

	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}
