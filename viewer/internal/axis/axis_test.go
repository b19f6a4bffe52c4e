package axis

import (
	"errors"
	"testing"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/experiment"
)

func TestID_SlotMapping(t *testing.T) {
	cases := []struct {
		id   ID
		slot experiment.Slot
		peak bool
		ch   channel.Name
	}{
		{HeadCoronal, experiment.SlotHeadPrimary, true, channel.HeadRotCor},
		{HeadSagittal, 0, false, channel.HeadRotSag},
		{HeadAxial, 0, false, channel.HeadRotAxl},
		{HeadResultant, experiment.SlotHeadResultant, true, channel.HeadRotRes},
		{MachinePrimary, experiment.SlotMachinePrimary, true, channel.MachRotPri},
		{HeadTranslations, 0, false, channel.HeadAccCor},
		{HeadCoronalResultant, 0, false, channel.HeadRotCor},
		{MachineHeadResultant, 0, false, channel.MachRotPri},
	}

	for _, c := range cases {
		slot, ok := c.id.Slot()
		if ok != c.peak || (ok && slot != c.slot) {
			t.Errorf("%s: slot %v %v", c.id, slot, ok)
		}
		if c.id.PeakBearing() != c.peak {
			t.Errorf("%s: PeakBearing %v", c.id, c.id.PeakBearing())
		}
		if c.id.Channel() != c.ch {
			t.Errorf("%s: channel %s", c.id, c.id.Channel())
		}
	}
}

func TestID_Lines(t *testing.T) {
	cases := []struct {
		id      ID
		lines   []channel.Name
		overlay bool
		unit    string
	}{
		{HeadResultant, []channel.Name{channel.HeadRotRes}, false, channel.UnitVelocity},
		{HeadTranslations, []channel.Name{channel.HeadAccCor, channel.HeadAccSag, channel.HeadAccAxl}, true, channel.UnitAcceleration},
		{HeadCoronalResultant, []channel.Name{channel.HeadRotCor, channel.HeadRotRes}, true, channel.UnitVelocity},
		{MachineHeadResultant, []channel.Name{channel.MachRotPri, channel.HeadRotRes}, true, channel.UnitVelocity},
	}
	for _, c := range cases {
		lines := c.id.Lines()
		if len(lines) != len(c.lines) {
			t.Fatalf("%s: expected %d lines, got %d", c.id, len(c.lines), len(lines))
		}
		for i, l := range lines {
			if l.Channel != c.lines[i] || l.Label == "" {
				t.Errorf("%s: line %d is %+v", c.id, i, l)
			}
		}
		if c.id.Overlay() != c.overlay {
			t.Errorf("%s: Overlay %v", c.id, c.id.Overlay())
		}
		if c.id.FallbackUnit() != c.unit {
			t.Errorf("%s: fallback unit %q", c.id, c.id.FallbackUnit())
		}
	}
	if len(All) != 8 {
		t.Errorf("Expected 8 axes, got %d", len(All))
	}
}

func TestParse(t *testing.T) {
	for _, id := range All {
		got, err := Parse(id.String())
		if err != nil || got != id {
			t.Errorf("Parse(%q) = %v, %v", id.String(), got, err)
		}
	}
	if _, err := Parse("Head - Coronal"); !errors.Is(err, ErrUnknownAxis) {
		t.Errorf("Expected display titles to be rejected, got %v", err)
	}
	if ID(42).Valid() {
		t.Error("Expected ID(42) to be invalid")
	}
}
