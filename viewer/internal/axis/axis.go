package axis

import (
	"errors"
	"fmt"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
)

var ErrUnknownAxis = errors.New("unknown axis")

// ID identifies a plotted axis by the logical source it shows.
type ID int

const (
	HeadCoronal ID = iota
	HeadSagittal
	HeadAxial
	HeadResultant
	MachinePrimary
	HeadTranslations
	HeadCoronalResultant
	MachineHeadResultant
)

// All lists every axis in layout order: the head rotations down the first
// column, then machine primary, the head translations and the two overlays.
var All = []ID{
	HeadCoronal, HeadSagittal, HeadAxial, HeadResultant,
	MachinePrimary, HeadTranslations, HeadCoronalResultant, MachineHeadResultant,
}

// Line is one series drawn on an axis.
type Line struct {
	Label   string       `json:"label"`
	Channel channel.Name `json:"channel"`
}

var names = map[ID]string{
	HeadCoronal:    "head_coronal",
	HeadSagittal:   "head_sagittal",
	HeadAxial:      "head_axial",
	HeadResultant:  "head_resultant",
	MachinePrimary: "machine_primary",

	HeadTranslations:     "head_translations",
	HeadCoronalResultant: "head_coronal_resultant",
	MachineHeadResultant: "machine_head_resultant",
}

var titles = map[ID]string{
	HeadCoronal:    "Head - Coronal",
	HeadSagittal:   "Head - Sagittal",
	HeadAxial:      "Head - Axial",
	HeadResultant:  "Head - Rotation Resultant",
	MachinePrimary: "Machine - Primary",

	HeadTranslations:     "Head - Translations",
	HeadCoronalResultant: "Head - Coronal and Rotation Resultant",
	MachineHeadResultant: "Machine Primary and Head Rotation Resultant",
}

var lines = map[ID][]Line{
	HeadCoronal:    {{"Coronal", channel.HeadRotCor}},
	HeadSagittal:   {{"Sagittal", channel.HeadRotSag}},
	HeadAxial:      {{"Axial", channel.HeadRotAxl}},
	HeadResultant:  {{"Rotation Resultant", channel.HeadRotRes}},
	MachinePrimary: {{"Machine Primary", channel.MachRotPri}},
	HeadTranslations: {
		{"Coronal", channel.HeadAccCor},
		{"Sagittal", channel.HeadAccSag},
		{"Axial", channel.HeadAccAxl},
	},
	HeadCoronalResultant: {
		{"Coronal", channel.HeadRotCor},
		{"Rotation Resultant", channel.HeadRotRes},
	},
	MachineHeadResultant: {
		{"Machine Primary", channel.MachRotPri},
		{"Head Rotation Resultant", channel.HeadRotRes},
	},
}

func (a ID) String() string {
	if n, ok := names[a]; ok {
		return n
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// Title is the display caption. It is never parsed back into an ID.
func (a ID) Title() string {
	return titles[a]
}

func (a ID) Valid() bool {
	_, ok := names[a]
	return ok
}

// Parse resolves a transport identifier such as "machine_primary".
func Parse(s string) (ID, error) {
	for id, n := range names {
		if n == s {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}

// Lines lists the series drawn on the axis. The first one carries the cursor.
func (a ID) Lines() []Line {
	return lines[a]
}

// Channel returns the series the cursor follows.
func (a ID) Channel() channel.Name {
	if l := lines[a]; len(l) > 0 {
		return l[0].Channel
	}
	return ""
}

// Overlay reports whether the axis draws more than one series. The cursor of
// an overlay axis never tracks data.
func (a ID) Overlay() bool {
	return len(lines[a]) > 1
}

// FallbackUnit is the axis unit when the channel carries none.
func (a ID) FallbackUnit() string {
	if a == HeadTranslations {
		return channel.UnitAcceleration
	}
	return channel.UnitVelocity
}

// Slot returns the summary slot backing the axis. Only peak-bearing axes
// have one.
func (a ID) Slot() (experiment.Slot, bool) {
	switch a {
	case HeadCoronal:
		return experiment.SlotHeadPrimary, true
	case HeadResultant:
		return experiment.SlotHeadResultant, true
	case MachinePrimary:
		return experiment.SlotMachinePrimary, true
	}
	return 0, false
}

func (a ID) PeakBearing() bool {
	_, ok := a.Slot()
	return ok
}
