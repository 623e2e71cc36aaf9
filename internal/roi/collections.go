package roi

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/analysis"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/calibration"
	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/geometry"
)

var (
	// ErrUnknownShape is returned when a shape id is not in any collection.
	ErrUnknownShape = errors.New("unknown shape")
	// ErrUnknownGroup is returned when a group id does not exist.
	ErrUnknownGroup = errors.New("unknown group")
)

// Group is a named set of shapes aggregated together.
type Group struct {
	ID     GroupID
	Name   string
	Color  string
	shapes []geometry.ShapeID

	// Stats is the last committed aggregate and StatsVersion the input
	// version it was computed from.
	Stats        analysis.GroupStats
	StatsVersion uint64
}

// ShapeIDs returns the group's shape ids in insertion order.
func (g *Group) ShapeIDs() []geometry.ShapeID {
	return slices.Clone(g.shapes)
}

type reference struct {
	shape geometry.ShapeID
	color *calibration.Color
}

type entry struct {
	shape geometry.Shape
	owner Owner
}

// Collections is the arena of all editable shapes of a session.
type Collections struct {
	arena      map[geometry.ShapeID]*entry
	exclusions []geometry.ShapeID
	slots      [3]reference
	groups     []*Group
	active     GroupID
	nextColor  int

	// NewID generates shape and group ids.
	NewID func() string
}

// New returns empty collections using random UUIDs as ids.
func New() *Collections {
	return &Collections{
		arena: make(map[geometry.ShapeID]*entry),
		NewID: uuid.NewString,
	}
}

// NewShapeID returns a fresh shape id.
func (c *Collections) NewShapeID() geometry.ShapeID {
	return geometry.ShapeID(c.NewID())
}

// Clear removes every shape, reference and group.
func (c *Collections) Clear() {
	c.arena = make(map[geometry.ShapeID]*entry)
	c.exclusions = nil
	c.slots = [3]reference{}
	c.groups = nil
	c.active = ""
	c.nextColor = 0
}

// Len returns the number of shapes in all collections.
func (c *Collections) Len() int {
	return len(c.arena)
}

// Lookup returns the shape with the given id and its owner.
func (c *Collections) Lookup(id geometry.ShapeID) (geometry.Shape, Owner, bool) {
	e, ok := c.arena[id]
	if !ok {
		return geometry.Shape{}, Owner{}, false
	}
	return e.shape, e.owner, true
}

func (c *Collections) insert(s geometry.Shape, o Owner) error {
	if s.ID() == "" {
		return errors.New("shape has no id")
	}
	if _, dup := c.arena[s.ID()]; dup {
		return fmt.Errorf("duplicate shape id %q", s.ID())
	}
	c.arena[s.ID()] = &entry{shape: s, owner: o}
	return nil
}

// AddExclusion appends an exclusion zone.
func (c *Collections) AddExclusion(s geometry.Shape) error {
	if err := c.insert(s, Owner{Kind: OwnerExclusion}); err != nil {
		return err
	}
	c.exclusions = append(c.exclusions, s.ID())
	return nil
}

// SetReference installs s as the shape of slot, discarding the previous shape
// and its sampled color.
func (c *Collections) SetReference(slot Slot, s geometry.Shape) error {
	if old := c.slots[slot].shape; old != "" {
		delete(c.arena, old)
	}
	c.slots[slot] = reference{}
	if err := c.insert(s, Owner{Kind: OwnerCalibration, Slot: slot}); err != nil {
		return err
	}
	c.slots[slot].shape = s.ID()
	return nil
}

// Reference returns the shape and sampled color of slot. color is nil until
// the shape has been sampled.
func (c *Collections) Reference(slot Slot) (geometry.Shape, *calibration.Color, bool) {
	ref := c.slots[slot]
	if ref.shape == "" {
		return geometry.Shape{}, nil, false
	}
	return c.arena[ref.shape].shape, ref.color, true
}

// SetReferenceColor records the sampled color of slot. A nil color clears it.
func (c *Collections) SetReferenceColor(slot Slot, col *calibration.Color) error {
	if c.slots[slot].shape == "" {
		return fmt.Errorf("slot %s has no shape", slot)
	}
	c.slots[slot].color = col
	return nil
}

// References returns the sampled colors for calibration.Derive.
func (c *Collections) References() calibration.References {
	return calibration.References{
		Gray:  c.slots[SlotGray].color,
		White: c.slots[SlotWhite].color,
		Black: c.slots[SlotBlack].color,
	}
}

// NewGroup appends a group with the next palette color.
func (c *Collections) NewGroup(name string) *Group {
	g := &Group{
		ID:    GroupID(c.NewID()),
		Color: PaletteColor(c.nextColor),
	}
	c.nextColor++
	if name == "" {
		name = fmt.Sprintf("Group %d", len(c.groups)+1)
	}
	g.Name = name
	c.groups = append(c.groups, g)
	return g
}

// Group returns the group with the given id.
func (c *Collections) Group(id GroupID) (*Group, bool) {
	for _, g := range c.groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// Groups returns the groups in creation order.
func (c *Collections) Groups() []*Group {
	return slices.Clone(c.groups)
}

// ActiveGroup returns the active group id, empty when none.
func (c *Collections) ActiveGroup() GroupID {
	return c.active
}

// SetActiveGroup makes id the target of new group shapes. An empty id clears
// the active group.
func (c *Collections) SetActiveGroup(id GroupID) error {
	if id != "" {
		if _, ok := c.Group(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownGroup, id)
		}
	}
	c.active = id
	return nil
}

// RenameGroup sets the display name of a group.
func (c *Collections) RenameGroup(id GroupID, name string) error {
	g, ok := c.Group(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}
	g.Name = name
	return nil
}

// DeleteGroup removes a group and all of its shapes.
func (c *Collections) DeleteGroup(id GroupID) error {
	i := slices.IndexFunc(c.groups, func(g *Group) bool { return g.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}
	for _, sid := range c.groups[i].shapes {
		delete(c.arena, sid)
	}
	c.groups = slices.Delete(c.groups, i, i+1)
	if c.active == id {
		c.active = ""
	}
	return nil
}

// AddGroupShape appends s to group id.
func (c *Collections) AddGroupShape(id GroupID, s geometry.Shape) error {
	g, ok := c.Group(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}
	if err := c.insert(s, Owner{Kind: OwnerGroup, Group: id}); err != nil {
		return err
	}
	g.shapes = append(g.shapes, s.ID())
	return nil
}

// AddToActiveGroup appends s to the active group, creating and activating a
// new group first when none is active.
func (c *Collections) AddToActiveGroup(s geometry.Shape) (GroupID, error) {
	if _, ok := c.Group(c.active); !ok {
		c.active = c.NewGroup("").ID
	}
	return c.active, c.AddGroupShape(c.active, s)
}

// Replace swaps in a new version of an existing shape, keeping its owner and
// position in the collection.
func (c *Collections) Replace(s geometry.Shape) error {
	e, ok := c.arena[s.ID()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownShape, s.ID())
	}
	e.shape = s
	return nil
}

// Delete removes a shape from whichever collection holds it. Deleting a
// calibration shape also clears the slot's sampled color.
func (c *Collections) Delete(id geometry.ShapeID) (Owner, error) {
	e, ok := c.arena[id]
	if !ok {
		return Owner{}, fmt.Errorf("%w: %s", ErrUnknownShape, id)
	}
	delete(c.arena, id)
	switch e.owner.Kind {
	case OwnerExclusion:
		c.exclusions = slices.DeleteFunc(c.exclusions, func(x geometry.ShapeID) bool { return x == id })
	case OwnerCalibration:
		c.slots[e.owner.Slot] = reference{}
	case OwnerGroup:
		if g, ok := c.Group(e.owner.Group); ok {
			g.shapes = slices.DeleteFunc(g.shapes, func(x geometry.ShapeID) bool { return x == id })
		}
	}
	return e.owner, nil
}

func (c *Collections) resolve(ids []geometry.ShapeID) []geometry.Shape {
	out := make([]geometry.Shape, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.arena[id].shape)
	}
	return out
}

// Exclusions returns the exclusion zones in insertion order.
func (c *Collections) Exclusions() []geometry.Shape {
	return c.resolve(c.exclusions)
}

// GroupShapes returns the shapes of group id in insertion order.
func (c *Collections) GroupShapes(id GroupID) []geometry.Shape {
	g, ok := c.Group(id)
	if !ok {
		return nil
	}
	return c.resolve(g.shapes)
}

// Candidate is a shape eligible for hit-testing.
type Candidate struct {
	Shape geometry.Shape
	Owner Owner
}

// HitOrder returns every shape in hit-test priority order: exclusion zones,
// then the black, white and gray references, then group shapes in group
// order.
func (c *Collections) HitOrder() []Candidate {
	out := make([]Candidate, 0, len(c.arena))
	for _, id := range c.exclusions {
		e := c.arena[id]
		out = append(out, Candidate{Shape: e.shape, Owner: e.owner})
	}
	for _, slot := range slotHitOrder {
		if id := c.slots[slot].shape; id != "" {
			e := c.arena[id]
			out = append(out, Candidate{Shape: e.shape, Owner: e.owner})
		}
	}
	for _, g := range c.groups {
		for _, id := range g.shapes {
			e := c.arena[id]
			out = append(out, Candidate{Shape: e.shape, Owner: e.owner})
		}
	}
	return out
}

// GroupInputs returns the group geometry for an analysis pass.
func (c *Collections) GroupInputs() []analysis.GroupInput {
	out := make([]analysis.GroupInput, 0, len(c.groups))
	for _, g := range c.groups {
		out = append(out, analysis.GroupInput{ID: string(g.ID), Shapes: c.resolve(g.shapes)})
	}
	return out
}

// CommitStats stores stats computed at version for group id. It reports false
// without writing when the group is gone or the stats are unchanged.
func (c *Collections) CommitStats(id GroupID, stats analysis.GroupStats, version uint64) bool {
	g, ok := c.Group(id)
	if !ok || g.Stats == stats {
		return false
	}
	g.Stats = stats
	g.StatsVersion = version
	return true
}
