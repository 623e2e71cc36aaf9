package roi

import (
	"encoding/json"
	"fmt"
)

// Slot names a calibration reference.
type Slot int

const (
	SlotGray Slot = iota
	SlotWhite
	SlotBlack
)

// slotHitOrder is the order in which reference slots are hit-tested.
var slotHitOrder = [...]Slot{SlotBlack, SlotWhite, SlotGray}

func (s Slot) String() string {
	switch s {
	case SlotGray:
		return "gray"
	case SlotWhite:
		return "white"
	case SlotBlack:
		return "black"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// MarshalText encodes the slot name.
func (s Slot) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseSlot converts "gray", "white" or "black" into a Slot.
func ParseSlot(s string) (Slot, error) {
	switch s {
	case "gray", "grey":
		return SlotGray, nil
	case "white":
		return SlotWhite, nil
	case "black":
		return SlotBlack, nil
	}
	return 0, fmt.Errorf("unknown calibration slot: %q", s)
}

// Tab is the active workflow stage. It decides which collection new shapes
// go to and which shapes are hit-tested.
type Tab int

const (
	TabSegmentation Tab = iota
	TabCalibration
	TabAnalysis
	TabReport
)

func (t Tab) String() string {
	switch t {
	case TabSegmentation:
		return "segmentation"
	case TabCalibration:
		return "calibration"
	case TabAnalysis:
		return "analysis"
	case TabReport:
		return "report"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

// MarshalText encodes the tab name.
func (t Tab) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ParseTab converts a tab name into a Tab.
func ParseTab(s string) (Tab, error) {
	switch s {
	case "segmentation":
		return TabSegmentation, nil
	case "calibration":
		return TabCalibration, nil
	case "analysis":
		return TabAnalysis, nil
	case "report":
		return TabReport, nil
	}
	return 0, fmt.Errorf("unknown tab: %q", s)
}

// OwnerKind identifies the collection holding a shape.
type OwnerKind int

const (
	OwnerExclusion OwnerKind = iota
	OwnerCalibration
	OwnerGroup
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerExclusion:
		return "exclusion"
	case OwnerCalibration:
		return "calibration"
	case OwnerGroup:
		return "group"
	default:
		return fmt.Sprintf("owner(%d)", int(k))
	}
}

// MarshalText encodes the owner kind.
func (k OwnerKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// GroupID identifies an ROI group.
type GroupID string

// Owner locates a shape inside the collections.
type Owner struct {
	Kind  OwnerKind
	Slot  Slot
	Group GroupID
}

// MarshalJSON includes the slot only for calibration owners.
func (o Owner) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind  OwnerKind `json:"kind"`
		Slot  string    `json:"slot,omitempty"`
		Group GroupID   `json:"group,omitempty"`
	}{Kind: o.Kind, Group: o.Group}
	if o.Kind == OwnerCalibration {
		out.Slot = o.Slot.String()
	}
	return json.Marshal(out)
}

// Tab returns the tab on which shapes of this owner are edited.
func (o Owner) Tab() Tab {
	switch o.Kind {
	case OwnerExclusion:
		return TabSegmentation
	case OwnerCalibration:
		return TabCalibration
	}
	return TabAnalysis
}

// Editable reports whether shapes owned by o are hit-tested on tab t. The
// report tab shows the same groups as the analysis tab.
func (o Owner) Editable(t Tab) bool {
	if t == TabReport {
		t = TabAnalysis
	}
	return o.Tab() == t
}
