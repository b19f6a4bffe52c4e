package synth

import (
	"errors"
	"testing"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
)

func TestGenerate_PlacesEvents(t *testing.T) {
	rec, err := Generate(Config{
		SampleRateHz: 8000,
		Samples:      2000,
		Events: map[channel.Name]Event{
			channel.MachRotPri: {Peak: 1000, HalfWidth: 40, Amplitude: 30},
		},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ch, _ := rec.Channel(channel.MachRotPri)
	if ch.Samples[1000] != 30 {
		t.Errorf("Expected apex 30, got %v", ch.Samples[1000])
	}
	if ch.Samples[960] != 0 || ch.Samples[1040] != 0 {
		t.Errorf("Expected feet at zero, got %v and %v", ch.Samples[960], ch.Samples[1040])
	}
	if ch.Meta.EU != "rad/s" {
		t.Errorf("Expected rad/s, got %s", ch.Meta.EU)
	}

	acc, _ := rec.Channel(channel.HeadAccCor)
	if acc.Meta.EU != "g" {
		t.Errorf("Expected g for linear channel, got %s", acc.Meta.EU)
	}
	for i, v := range acc.Samples {
		if v != 0 {
			t.Fatalf("Expected clean baseline, sample %d = %v", i, v)
		}
	}
}

func TestGenerate_NoiseIsSeeded(t *testing.T) {
	cfg := Config{SampleRateHz: 1000, Samples: 50, Noise: 0.2, Seed: 7}
	a, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.At(0).Samples {
		if a.At(0).Samples[i] != b.At(0).Samples[i] {
			t.Fatalf("Sample %d differs between runs with the same seed", i)
		}
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	if _, err := Generate(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}
