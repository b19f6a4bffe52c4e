package synth

import (
	"errors"
	"math"
	"math/rand"

	"github.com/Krimson/dts-viewer/viewer/internal/channel"
)

var ErrInvalidConfig = errors.New("invalid generator configuration")

// Event is a triangular impact pulse on one channel.
type Event struct {
	Peak      int     // absolute sample index of the apex
	HalfWidth int     // samples from apex to either foot
	Amplitude float64 // apex value above baseline
}

// Config describes a synthetic nine-channel recording.
type Config struct {
	SampleRateHz float64
	Samples      int
	Events       map[channel.Name]Event
	Noise        float64 // peak-to-peak uniform noise, 0 for a clean baseline
	Seed         int64
}

// Generate builds a Record with a flat baseline and the configured events.
func Generate(cfg Config) (*channel.Record, error) {
	if cfg.SampleRateHz <= 0 || cfg.Samples <= 0 {
		return nil, ErrInvalidConfig
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	chs := make([]*channel.Channel, channel.Count)
	for i, name := range channel.Names {
		data := make([]float64, cfg.Samples)
		if cfg.Noise > 0 {
			for s := range data {
				data[s] = (rng.Float64() - 0.5) * cfg.Noise
			}
		}
		if ev, ok := cfg.Events[name]; ok {
			addPulse(data, ev)
		}
		chs[i] = &channel.Channel{
			Meta:    channel.Meta{SampleRateHz: cfg.SampleRateHz, EU: unitFor(name)},
			Samples: data,
		}
	}

	return channel.NewRecord(chs)
}

func addPulse(data []float64, ev Event) {
	if ev.HalfWidth <= 0 {
		if ev.Peak >= 0 && ev.Peak < len(data) {
			data[ev.Peak] += ev.Amplitude
		}
		return
	}
	for i := ev.Peak - ev.HalfWidth; i <= ev.Peak+ev.HalfWidth; i++ {
		if i < 0 || i >= len(data) {
			continue
		}
		d := math.Abs(float64(i - ev.Peak))
		data[i] += ev.Amplitude * (1 - d/float64(ev.HalfWidth))
	}
}

func unitFor(name channel.Name) string {
	switch name {
	case channel.HeadAccCor, channel.HeadAccSag, channel.HeadAccAxl, channel.MachAccPri:
		return "g"
	default:
		return "rad/s"
	}
}
