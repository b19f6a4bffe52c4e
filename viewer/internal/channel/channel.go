package channel

import (
	"errors"
	"fmt"
)

// Name is the symbolic identifier of a recorded channel.
type Name string

const (
	HeadRotCor Name = "head_rot_cor"
	HeadRotSag Name = "head_rot_sag"
	HeadRotAxl Name = "head_rot_axl"
	HeadAccCor Name = "head_acc_cor"
	HeadAccSag Name = "head_acc_sag"
	HeadAccAxl Name = "head_acc_axl"
	MachAccPri Name = "mach_acc_pri"
	MachRotSec Name = "mach_rot_sec"
	MachRotPri Name = "mach_rot_pri"

	// HeadRotRes names the derived head rotation resultant. It is not a recorded
	// channel and cannot be looked up in a Record.
	HeadRotRes Name = "head_rot_res"
)

// Count is the fixed number of channels in a recording.
const Count = 9

// Names lists the recorded channels in index order.
var Names = [Count]Name{
	HeadRotCor,
	HeadRotSag,
	HeadRotAxl,
	HeadAccCor,
	HeadAccSag,
	HeadAccAxl,
	MachAccPri,
	MachRotSec,
	MachRotPri,
}

var indexByName = func() map[Name]int {
	m := make(map[Name]int, Count)
	for i, n := range Names {
		m[n] = i
	}
	return m
}()

// HeadRotationAxes are the record indices of the three head rotational channels.
var HeadRotationAxes = [3]int{0, 1, 2}

var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrChannelCount   = errors.New("record must contain exactly nine channels")
)

// IndexOf resolves a symbolic name to its fixed record index.
func IndexOf(name Name) (int, error) {
	i, ok := indexByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
	}
	return i, nil
}

// Meta describes how a channel was sampled.
type Meta struct {
	SampleRateHz float64 `json:"sample_rate_hz"`
	EU           string  `json:"eu"`
}

// Channel is one sensor's scaled samples plus metadata and its event summary.
type Channel struct {
	Index   int       `json:"index"`
	Name    Name      `json:"name"`
	Meta    Meta      `json:"meta"`
	Samples []float64 `json:"samples"`
	Summary Summary   `json:"summary"`
}

// Len returns the number of samples.
func (c *Channel) Len() int {
	return len(c.Samples)
}

// Record is a full parsed recording. Channel order and the name map are fixed at
// construction.
type Record struct {
	channels [Count]*Channel
}

// NewRecord builds a Record from exactly Count channels given in index order.
// Index and Name of each channel are assigned from the fixed channel map.
func NewRecord(channels []*Channel) (*Record, error) {
	if len(channels) != Count {
		return nil, fmt.Errorf("%w: got %d", ErrChannelCount, len(channels))
	}

	r := &Record{}
	for i, ch := range channels {
		if ch == nil {
			return nil, fmt.Errorf("channel %d is nil", i)
		}
		ch.Index = i
		ch.Name = Names[i]
		r.channels[i] = ch
	}
	return r, nil
}

// At returns the channel at a record index. It panics on an out-of-range index
// the way slice indexing does; callers use fixed indices.
func (r *Record) At(i int) *Channel {
	return r.channels[i]
}

// Channel resolves a channel by symbolic name.
func (r *Record) Channel(name Name) (*Channel, error) {
	i, err := IndexOf(name)
	if err != nil {
		return nil, err
	}
	return r.channels[i], nil
}

// Channels returns the channels in index order.
func (r *Record) Channels() []*Channel {
	out := make([]*Channel, Count)
	copy(out, r.channels[:])
	return out
}

// SampleRate returns the sample rate of the first channel. All channels of a
// recording share one rate.
func (r *Record) SampleRate() float64 {
	return r.channels[0].Meta.SampleRateHz
}

// Len returns the length of the shortest channel.
func (r *Record) Len() int {
	n := r.channels[0].Len()
	for _, ch := range r.channels[1:] {
		if ch.Len() < n {
			n = ch.Len()
		}
	}
	return n
}
