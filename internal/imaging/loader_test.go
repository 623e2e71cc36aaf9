package imaging

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createInMemoryImage creates an in-memory test image filled with c.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// createTestImage writes a PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tray.png")
	if err := os.WriteFile(path, encodePNG(t, createInMemoryImage(width, height, c)), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

// createTestArchive writes a zip with the given entries.
func createTestArchive(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trays.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return path
}

func TestImageCache_LoadFile(t *testing.T) {
	path := createTestImage(t, 40, 30, color.RGBA{50, 200, 50, 255})
	cache := NewImageCache()

	r, err := cache.Load(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if r.Info.Width != 40 || r.Info.Height != 30 || r.Info.Format != "png" {
		t.Errorf("Info: %+v", r.Info)
	}
	if got := r.Image.RGBAAt(5, 5); got != (color.RGBA{50, 200, 50, 255}) {
		t.Errorf("pixel: got %v", got)
	}

	again, err := cache.Load(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if again != r {
		t.Error("second Load should return the cached raster")
	}

	cache.Evict(FileSource{Path: path})
	if cache.Len() != 0 {
		t.Errorf("Len after Evict: %d", cache.Len())
	}
}

func TestImageCache_Errors(t *testing.T) {
	cache := NewImageCache()

	if _, err := cache.Load(context.Background(), FileSource{Path: "/nonexistent/tray.png"}); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(context.Background(), FileSource{Path: bad}); err == nil {
		t.Error("expected decode error")
	}
	if cache.Len() != 0 {
		t.Error("failed loads must not be cached")
	}
}

func TestImageCache_Concurrent(t *testing.T) {
	path := createTestImage(t, 10, 10, color.White)
	cache := NewImageCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(context.Background(), FileSource{Path: path}); err != nil {
				t.Errorf("Load failed: %v", err)
			}
		}()
	}
	wg.Wait()

	cache.Clear()
	if cache.Len() != 0 {
		t.Error("Clear should empty the cache")
	}
}

func TestArchive(t *testing.T) {
	img := encodePNG(t, createInMemoryImage(8, 6, color.RGBA{10, 20, 30, 255}))
	archive := createTestArchive(t, map[string][]byte{
		"b/tray2.png":        img,
		"a/tray1.PNG":        img,
		"notes.txt":          []byte("hello"),
		"__MACOSX/a/._tray1": []byte("fork"),
	})

	entries, err := ListArchive(archive)
	if err != nil {
		t.Fatalf("ListArchive failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "a/tray1.PNG" || entries[1].Name != "b/tray2.png" {
		t.Errorf("entries: %+v", entries)
	}

	r, err := NewImageCache().Load(context.Background(), ArchiveSource{Archive: archive, Entry: "b/tray2.png"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if r.Info.Width != 8 || r.Info.Height != 6 {
		t.Errorf("Info: %+v", r.Info)
	}

	if _, err := (ArchiveSource{Archive: archive, Entry: "missing.png"}).Fetch(context.Background()); err == nil {
		t.Error("expected error for missing entry")
	}
}

func TestURLSource(t *testing.T) {
	img := encodePNG(t, createInMemoryImage(4, 4, color.Black))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tray.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(img)
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"image", srv.URL + "/tray.png", false},
		{"html", srv.URL + "/page", true},
		{"not found", srv.URL + "/missing", true},
		{"bad scheme", "ftp://example.com/x.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewImageCache().Load(context.Background(), URLSource{URL: tt.url, Client: srv.Client()})
			if (err != nil) != tt.wantErr {
				t.Errorf("Load: err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestToRGBA_ShiftsOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 14, 24))
	src.SetRGBA(10, 20, color.RGBA{1, 2, 3, 255})

	got := ToRGBA(src)
	if got.Bounds().Min != (image.Point{}) || got.Bounds().Dx() != 4 {
		t.Fatalf("bounds: %v", got.Bounds())
	}
	if got.RGBAAt(0, 0) != (color.RGBA{1, 2, 3, 255}) {
		t.Errorf("pixel at origin: %v", got.RGBAAt(0, 0))
	}
}

func TestSource_SizeLimit(t *testing.T) {
	old := MaxImageBytes
	MaxImageBytes = 16
	t.Cleanup(func() { MaxImageBytes = old })

	img := encodePNG(t, createInMemoryImage(4, 4, color.Black))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	dir := t.TempDir()
	archive := filepath.Join(dir, "trays.zip")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("tray.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(img); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tests := []struct {
		name string
		src  Source
	}{
		{"url", URLSource{URL: srv.URL + "/tray.png", Client: srv.Client()}},
		{"archive", ArchiveSource{Archive: archive, Entry: "tray.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewImageCache().Load(context.Background(), tt.src)
			if !errors.Is(err, ErrTooLarge) {
				t.Errorf("Load: err=%v, want ErrTooLarge", err)
			}
		})
	}
}

func TestImageCache_EvictKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tray.png")
	if err := os.WriteFile(path, encodePNG(t, createInMemoryImage(4, 4, color.White)), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewImageCache()
	r, err := c.Load(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	c.EvictKey("file:missing")
	if c.Len() != 1 {
		t.Fatalf("Len = %d after evicting an unknown key", c.Len())
	}
	c.EvictKey(r.Info.Source)
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}
