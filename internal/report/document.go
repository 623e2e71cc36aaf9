package report

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/analysis"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/calibration"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/imaging"
)

// GroupEntry is one row of the report.
type GroupEntry struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Color string              `json:"color"`
	Stats analysis.GroupStats `json:"stats"`
}

// Document is the archival report.
type Document struct {
	ID            string                 `json:"id"`
	CreatedAt     time.Time              `json:"created_at"`
	Image         imaging.ImageInfo      `json:"image"`
	Threshold     float64                `json:"threshold"`
	Calibration   calibration.Correction `json:"calibration"`
	Regression    analysis.Regression    `json:"regression"`
	PixelsPerUnit float64                `json:"pixels_per_unit,omitempty"`
	Totals        analysis.Totals        `json:"totals"`
	Groups        []GroupEntry           `json:"groups"`
	Narrative     string                 `json:"narrative,omitempty"`
}

// NewDocument returns an empty document with a fresh id.
func NewDocument(now time.Time) *Document {
	return &Document{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		Groups:    []GroupEntry{},
	}
}

// NarrativeRequest returns the narrator input for d.
func (d *Document) NarrativeRequest() Request {
	req := Request{Regression: d.Regression}
	for _, g := range d.Groups {
		req.Groups = append(req.Groups, GroupSummary{Name: g.Name, Stats: g.Stats})
	}
	return req
}

// SnapshotOptions controls snapshot encoding.
type SnapshotOptions struct {
	Format  imaging.Format
	Quality int
	// MaxSide downsizes the snapshot when positive.
	MaxSide int
}

// Artifacts are the two outputs handed to the archival collaborator.
type Artifacts struct {
	ID       string         `json:"id"`
	Document []byte         `json:"-"`
	Snapshot []byte         `json:"-"`
	Format   imaging.Format `json:"format"`
}

// BuildArtifacts encodes doc as JSON and snapshot in the requested format.
func BuildArtifacts(doc *Document, snapshot image.Image, opts SnapshotOptions) (*Artifacts, error) {
	if doc == nil {
		return nil, fmt.Errorf("report document is nil")
	}
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	format := opts.Format
	if format == "" {
		format = imaging.FormatPNG
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = 90
	}
	snap, err := imaging.EncodeBytes(imaging.Fit(snapshot, opts.MaxSide), format, quality)
	if err != nil {
		return nil, err
	}

	return &Artifacts{
		ID:       doc.ID,
		Document: data,
		Snapshot: snap,
		Format:   format,
	}, nil
}

// Exporter hands artifacts to the archival collaborator.
type Exporter interface {
	Export(ctx context.Context, a *Artifacts) ([]string, error)
}

// DirExporter writes artifacts into a local directory as
// report-<id>.json and snapshot-<id>.<ext>.
type DirExporter struct {
	Dir string
}

// Export implements Exporter and returns the written paths.
func (e DirExporter) Export(ctx context.Context, a *Artifacts) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	docPath := filepath.Join(e.Dir, "report-"+a.ID+".json")
	if err := os.WriteFile(docPath, a.Document, 0644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	snapPath := filepath.Join(e.Dir, "snapshot-"+a.ID+a.Format.Ext())
	if err := os.WriteFile(snapPath, a.Snapshot, 0644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}
	return []string{docPath, snapPath}, nil
}
