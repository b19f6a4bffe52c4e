package channel

import (
	"errors"
	"testing"
)

func newTestChannels(n int) []*Channel {
	chs := make([]*Channel, n)
	for i := range chs {
		chs[i] = &Channel{
			Meta:    Meta{SampleRateHz: 8000, EU: "rad/s"},
			Samples: make([]float64, 100+i),
		}
	}
	return chs
}

func TestNewRecord_AssignsFixedNames(t *testing.T) {
	rec, err := NewRecord(newTestChannels(Count))
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}

	for i, name := range Names {
		ch := rec.At(i)
		if ch.Index != i || ch.Name != name {
			t.Errorf("channel %d: got index=%d name=%s, want name=%s", i, ch.Index, ch.Name, name)
		}
	}

	ch, err := rec.Channel(MachRotPri)
	if err != nil {
		t.Fatalf("Channel(mach_rot_pri): %v", err)
	}
	if ch.Index != 8 {
		t.Errorf("Expected mach_rot_pri at index 8, got %d", ch.Index)
	}

	if rec.Len() != 100 {
		t.Errorf("Expected shortest length 100, got %d", rec.Len())
	}
}

func TestNewRecord_RejectsWrongCount(t *testing.T) {
	_, err := NewRecord(newTestChannels(8))
	if !errors.Is(err, ErrChannelCount) {
		t.Fatalf("Expected ErrChannelCount, got %v", err)
	}
}

func TestRecord_UnknownChannel(t *testing.T) {
	rec, err := NewRecord(newTestChannels(Count))
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}

	for _, name := range []Name{"nope", HeadRotRes, ""} {
		if _, err := rec.Channel(name); !errors.Is(err, ErrUnknownChannel) {
			t.Errorf("Channel(%q): expected ErrUnknownChannel, got %v", name, err)
		}
	}
}

func TestSummary_Validate(t *testing.T) {
	if err := (Summary{}).Validate(); err != nil {
		t.Errorf("empty summary should validate: %v", err)
	}

	ok := Summary{PeakIndex: 10, RiseStartIndex: 5, RiseEndIndex: 20}
	if err := ok.Validate(); err != nil {
		t.Errorf("ordered summary should validate: %v", err)
	}

	bad := Summary{PeakIndex: 10, RiseStartIndex: 12, RiseEndIndex: 20}
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for rise_start after peak")
	}
}
