package roi

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/analysis"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/calibration"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
)

func newTestCollections() *Collections {
	c := New()
	n := 0
	c.NewID = func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
	return c
}

func square(id string) geometry.Shape {
	return geometry.NewRect(geometry.ShapeID(id), geometry.Pt(0, 0), geometry.Pt(10, 10))
}

func TestAddToActiveGroup(t *testing.T) {
	c := newTestCollections()

	gid, err := c.AddToActiveGroup(square("s1"))
	if err != nil {
		t.Fatalf("AddToActiveGroup failed: %v", err)
	}
	if c.ActiveGroup() != gid {
		t.Errorf("new group should become active")
	}
	gid2, _ := c.AddToActiveGroup(square("s2"))
	if gid2 != gid {
		t.Errorf("second shape should join the active group")
	}

	g, _ := c.Group(gid)
	if g.Color != Palette[0] || g.Name != "Group 1" {
		t.Errorf("group: %+v", g)
	}
	if ids := g.ShapeIDs(); len(ids) != 2 || ids[0] != "s1" || ids[1] != "s2" {
		t.Errorf("ShapeIDs: %v", ids)
	}
}

func TestPaletteCycles(t *testing.T) {
	c := newTestCollections()
	var colors []string
	for i := 0; i < len(Palette)+1; i++ {
		colors = append(colors, c.NewGroup("").Color)
	}
	if colors[len(Palette)] != colors[0] {
		t.Errorf("palette should wrap: %v", colors)
	}
	if PaletteColor(-1) != Palette[len(Palette)-1] {
		t.Error("negative index should wrap")
	}
}

func TestHexRGBA(t *testing.T) {
	if got := HexRGBA("#ef4444"); got.R != 0xef || got.G != 0x44 || got.B != 0x44 || got.A != 255 {
		t.Errorf("HexRGBA: got %v", got)
	}
	if got := HexRGBA("nope"); got.R != 255 || got.G != 255 {
		t.Errorf("invalid hex should give white, got %v", got)
	}
}

func TestSetReference_ReplacesPrevious(t *testing.T) {
	c := newTestCollections()
	if err := c.SetReference(SlotWhite, square("w1")); err != nil {
		t.Fatal(err)
	}
	if err := c.SetReferenceColor(SlotWhite, &calibration.Color{R: 250, G: 250, B: 250}); err != nil {
		t.Fatal(err)
	}
	if err := c.SetReference(SlotWhite, square("w2")); err != nil {
		t.Fatal(err)
	}

	if _, _, ok := c.Lookup("w1"); ok {
		t.Error("previous reference shape should be discarded")
	}
	shape, col, ok := c.Reference(SlotWhite)
	if !ok || shape.ID() != "w2" {
		t.Errorf("Reference: got %v %v", shape.ID(), ok)
	}
	if col != nil {
		t.Error("replacing the shape must clear the sampled color")
	}
}

func TestDelete(t *testing.T) {
	c := newTestCollections()
	_ = c.AddExclusion(square("x"))
	_ = c.SetReference(SlotBlack, square("b"))
	_ = c.SetReferenceColor(SlotBlack, &calibration.Color{})
	gid, _ := c.AddToActiveGroup(square("g"))

	tests := []struct {
		id   geometry.ShapeID
		kind OwnerKind
	}{
		{"x", OwnerExclusion},
		{"b", OwnerCalibration},
		{"g", OwnerGroup},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			owner, err := c.Delete(tt.id)
			if err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if owner.Kind != tt.kind {
				t.Errorf("owner: got %v, want %v", owner.Kind, tt.kind)
			}
			if _, _, ok := c.Lookup(tt.id); ok {
				t.Error("shape still present")
			}
		})
	}

	if len(c.Exclusions()) != 0 {
		t.Error("exclusion not removed")
	}
	if _, col, ok := c.Reference(SlotBlack); ok || col != nil {
		t.Error("calibration slot and color should be cleared")
	}
	if refs := c.References(); refs.Black != nil {
		t.Error("References must not reference a deleted shape")
	}
	if len(c.GroupShapes(gid)) != 0 {
		t.Error("group shape not removed")
	}
	if _, err := c.Delete("missing"); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("got %v, want ErrUnknownShape", err)
	}
}

func TestReplace(t *testing.T) {
	c := newTestCollections()
	_ = c.AddExclusion(square("x"))

	moved := square("x").Translate(geometry.Pt(5, 5))
	if err := c.Replace(moved); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	got, owner, _ := c.Lookup("x")
	if got.Point(0) != geometry.Pt(5, 5) || owner.Kind != OwnerExclusion {
		t.Errorf("Replace: got %v owner %v", got.Points(), owner)
	}
	if err := c.Replace(square("nope")); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("got %v, want ErrUnknownShape", err)
	}
}

func TestHitOrder(t *testing.T) {
	c := newTestCollections()
	_, _ = c.AddToActiveGroup(square("g1"))
	_ = c.SetReference(SlotGray, square("gray"))
	_ = c.SetReference(SlotWhite, square("white"))
	_ = c.SetReference(SlotBlack, square("black"))
	_ = c.AddExclusion(square("x1"))

	var got []geometry.ShapeID
	for _, cand := range c.HitOrder() {
		got = append(got, cand.Shape.ID())
	}
	want := []geometry.ShapeID{"x1", "black", "white", "gray", "g1"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("HitOrder: got %v, want %v", got, want)
	}
}

func TestOwnerEditable(t *testing.T) {
	g := Owner{Kind: OwnerGroup, Group: "g"}
	if !g.Editable(TabAnalysis) || !g.Editable(TabReport) || g.Editable(TabCalibration) {
		t.Error("group shapes are edited on analysis and report tabs")
	}
	if !(Owner{Kind: OwnerExclusion}).Editable(TabSegmentation) {
		t.Error("exclusions are edited on the segmentation tab")
	}

	data, _ := json.Marshal(Owner{Kind: OwnerCalibration, Slot: SlotGray})
	if string(data) != `{"kind":"calibration","slot":"gray"}` {
		t.Errorf("Owner JSON: %s", data)
	}
}

func TestCommitStats(t *testing.T) {
	c := newTestCollections()
	g := c.NewGroup("tray A")
	stats := analysis.GroupStats{Count: 3, MeanMACI: 0.5}

	if !c.CommitStats(g.ID, stats, 4) {
		t.Fatal("first commit should write")
	}
	if c.CommitStats(g.ID, stats, 5) {
		t.Error("equal stats should short-circuit")
	}
	if g.StatsVersion != 4 {
		t.Errorf("StatsVersion: got %d, want 4", g.StatsVersion)
	}
	if c.CommitStats("missing", stats, 6) {
		t.Error("unknown group should not commit")
	}
}

func TestDeleteGroupAndClear(t *testing.T) {
	c := newTestCollections()
	gid, _ := c.AddToActiveGroup(square("g1"))
	if err := c.DeleteGroup(gid); err != nil {
		t.Fatal(err)
	}
	if c.ActiveGroup() != "" || c.Len() != 0 {
		t.Error("DeleteGroup should remove shapes and clear the active group")
	}

	_ = c.AddExclusion(square("x"))
	_ = c.SetReference(SlotGray, square("r"))
	c.Clear()
	if c.Len() != 0 || len(c.Groups()) != 0 || len(c.HitOrder()) != 0 {
		t.Error("Clear should empty every collection")
	}
}

func TestParse(t *testing.T) {
	if s, err := ParseSlot("black"); err != nil || s != SlotBlack {
		t.Errorf("ParseSlot: %v %v", s, err)
	}
	if _, err := ParseSlot("red"); err == nil {
		t.Error("expected error")
	}
	if tab, err := ParseTab("report"); err != nil || tab != TabReport {
		t.Errorf("ParseTab: %v %v", tab, err)
	}
}
