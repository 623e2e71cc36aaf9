package imaging

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Format is an export encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
)

// ParseFormat accepts png, jpg, jpeg and webp.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

// MimeType returns the media type of f.
func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	}
	return "image/png"
}

// Ext returns the file extension of f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatWebP:
		return ".webp"
	}
	return ".png"
}

// Encode writes img in format f. quality applies to JPEG and lossy WebP; a
// WebP quality of 100 or more selects lossless encoding.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	var err error
	switch f {
	case FormatWebP:
		err = webp.Encode(w, img, &webp.Options{Lossless: quality >= 100, Quality: float32(quality)})
	case FormatJPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		err = imaging.Encode(w, img, imaging.PNG)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", f, err)
	}
	return nil
}

// EncodeBytes encodes img into a byte slice.
func EncodeBytes(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
