package window

import (
	"errors"
	"testing"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
)

func TestSamples_Padding(t *testing.T) {
	w := Samples(8000, DefaultDivisor)
	if w != 1000 {
		t.Fatalf("Expected 1000 window samples at 8kHz, got %d", w)
	}

	pad := DisplayPadding(w)
	if pad.Pre != 250 || pad.Post != 750 {
		t.Errorf("Expected display padding 250/750, got %d/%d", pad.Pre, pad.Post)
	}

	exp := ExportPadding(w)
	if exp.Pre != 125 || exp.Post != 875 {
		t.Errorf("Expected export padding 125/875, got %d/%d", exp.Pre, exp.Post)
	}
	if exp.Pre+exp.Post != w {
		t.Errorf("Export window should keep total length %d, got %d", w, exp.Pre+exp.Post)
	}
}

func TestSelect_NoDetectionFallsBackToRecordStart(t *testing.T) {
	pad := DisplayPadding(1000)
	for _, sec := range []channel.Summary{{}, {RiseStartIndex: 40}} {
		got := Select(channel.Summary{}, sec, pad, 1000)
		if got != (Window{Start: 0, End: 1000}) {
			t.Errorf("Expected {0 1000}, got %v", got)
		}
	}
}

func TestSelect_SecondaryWhenPrimaryMissing(t *testing.T) {
	pad := DisplayPadding(1000)
	got := Select(channel.Summary{}, channel.Summary{PeakIndex: 600}, pad, 1000)

	if got.Start != 600-pad.Pre-1 {
		t.Errorf("Expected start %d, got %d", 600-pad.Pre-1, got.Start)
	}
	if got.Len() != pad.Pre+pad.Post {
		t.Errorf("Expected length %d, got %d", pad.Pre+pad.Post, got.Len())
	}
}

func TestSelect_PrimaryWins(t *testing.T) {
	pad := DisplayPadding(1000)
	want := Window{Start: 749, End: 1749}

	for _, sec := range []channel.Summary{{}, {PeakIndex: 3}, {PeakIndex: 5000}} {
		got := Select(channel.Summary{PeakIndex: 1000}, sec, pad, 1000)
		if got != want {
			t.Errorf("secondary=%d: expected %v, got %v", sec.PeakIndex, want, got)
		}
	}
}

func TestSelect_NegativeStartIsKept(t *testing.T) {
	pad := DisplayPadding(1000)
	got := Select(channel.Summary{PeakIndex: 100}, channel.Summary{}, pad, 1000)
	if got.Start != -151 {
		t.Errorf("Expected unclamped start -151, got %d", got.Start)
	}

	data := make([]float64, 2000)
	for i := range data {
		data[i] = float64(i)
	}
	out, offset := got.Slice(data)
	if offset != 151 {
		t.Errorf("Expected offset 151, got %d", offset)
	}
	if len(out) != got.End {
		t.Errorf("Expected %d samples, got %d", got.End, len(out))
	}
	if out[0] != 0 {
		t.Errorf("Expected first sample 0, got %v", out[0])
	}
}

func TestSelectRiseStart_ExportAnchor(t *testing.T) {
	w := 1000
	got := SelectRiseStart(
		channel.Summary{PeakIndex: 1000, RiseStartIndex: 900},
		channel.Summary{PeakIndex: 950, RiseStartIndex: 800},
		ExportPadding(w), w)

	if got.Start != 900-125-1 {
		t.Errorf("Expected start 774, got %d", got.Start)
	}
	if got.Len() != w {
		t.Errorf("Expected length %d, got %d", w, got.Len())
	}
}

func TestSelectRiseStart_ZeroRiseStartFallsBackToHead(t *testing.T) {
	w := 1000
	// The machine peak is detected but its rise start sits at sample 0, which
	// counts as no rise start.
	got := SelectRiseStart(
		channel.Summary{PeakIndex: 40, RiseStartIndex: 0, RiseEndIndex: 80},
		channel.Summary{PeakIndex: 950, RiseStartIndex: 800},
		ExportPadding(w), w)

	if want := (Window{Start: 800 - 125 - 1, End: 800 - 125 - 1 + w}); got != want {
		t.Errorf("Expected head-anchored window %v, got %v", want, got)
	}

	got = SelectRiseStart(
		channel.Summary{PeakIndex: 40},
		channel.Summary{PeakIndex: 950},
		ExportPadding(w), w)
	if got != (Window{Start: 0, End: w}) {
		t.Errorf("Expected record-start window, got %v", got)
	}
}

func TestParseAnchor(t *testing.T) {
	if a, err := ParseAnchor("peak"); err != nil || a != AnchorPeak {
		t.Errorf("peak: got %v %v", a, err)
	}
	if a, err := ParseAnchor("rise_start"); err != nil || a != AnchorRiseStart {
		t.Errorf("rise_start: got %v %v", a, err)
	}
	if _, err := ParseAnchor("trough"); !errors.Is(err, ErrInvalidAnchor) {
		t.Errorf("Expected ErrInvalidAnchor, got %v", err)
	}
}

func TestWindow_ClampPastEnd(t *testing.T) {
	w := Window{Start: 90, End: 120}
	start, end := w.Clamp(100)
	if start != 90 || end != 100 {
		t.Errorf("Expected [90,100), got [%d,%d)", start, end)
	}
}
