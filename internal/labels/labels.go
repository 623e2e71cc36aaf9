package labels

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"unicode"

	"github.com/otiai10/gosseract/v2"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/imaging"
)

// MaxLabelLen bounds the group name derived from a label.
const MaxLabelLen = 64

// ErrEmptyRegion is returned when a shape's bounding box does not overlap
// the image.
var ErrEmptyRegion = errors.New("label region is empty")

// Word is a recognised word with its location.
type Word struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Bounds     image.Rectangle `json:"bounds"`
}

// Result is the text read from one region.
type Result struct {
	Text   string          `json:"text"`
	Label  string          `json:"label"`
	Words  []Word          `json:"words"`
	Region image.Rectangle `json:"region"`
}

// Reader performs OCR on an image. Word bounds are relative to img.
type Reader interface {
	Read(ctx context.Context, img image.Image) (*Result, error)
}

// Tesseract is a Reader backed by gosseract.
type Tesseract struct {
	Language       string
	TessdataPrefix string
}

// NewTesseract returns an English reader.
func NewTesseract() *Tesseract {
	return &Tesseract{Language: "eng"}
}

// Read implements Reader.
func (t *Tesseract) Read(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := imaging.EncodeBytes(img, imaging.FormatPNG, 0)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	// Tray labels are short blocks of text.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	res := &Result{Text: text, Label: CleanLabel(text), Words: []Word{}}

	// Word boxes are best effort; the text alone is still useful.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return res, nil
	}
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		res.Words = append(res.Words, Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds:     box.Box,
		})
	}
	return res, nil
}

// Region returns the pixel rectangle covering shape's bounding box, grown by
// pad on every side and clipped to bounds.
func Region(bounds image.Rectangle, shape geometry.Shape, pad int) image.Rectangle {
	box := geometry.BoundingBox(shape)
	r := image.Rect(
		int(math.Floor(box.MinX))-pad,
		int(math.Floor(box.MinY))-pad,
		int(math.Ceil(box.MaxX))+pad,
		int(math.Ceil(box.MaxY))+pad,
	)
	return r.Intersect(bounds)
}

// ReadShape runs r over the part of img covered by shape and shifts the word
// bounds back into img coordinates.
func ReadShape(ctx context.Context, r Reader, img image.Image, shape geometry.Shape, pad int) (*Result, error) {
	region := Region(img.Bounds(), shape, pad)
	if region.Empty() {
		return nil, ErrEmptyRegion
	}

	res, err := r.Read(ctx, imaging.Crop(img, region))
	if err != nil {
		return nil, err
	}
	for i := range res.Words {
		res.Words[i].Bounds = res.Words[i].Bounds.Add(region.Min)
	}
	res.Region = region
	if res.Label == "" {
		res.Label = CleanLabel(res.Text)
	}
	return res, nil
}

// CleanLabel turns raw OCR output into a single-line name: control characters
// and runs of whitespace collapse to one space, and the result is trimmed to
// MaxLabelLen runes.
func CleanLabel(text string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	label := strings.Join(fields, " ")
	if runes := []rune(label); len(runes) > MaxLabelLen {
		label = strings.TrimSpace(string(runes[:MaxLabelLen]))
	}
	return label
}
