// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package datasets provides neuromorphic event-camera datasets and the
// machinery to turn raw address-event streams into frame tensors.
package datasets

import (
	"fmt"
	"sort"

	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// Events is one recording from an event camera: parallel slices of
// event times, pixel coordinates and polarities, in nondecreasing time
// order.
type Events struct {
	T []int64 `desc:"event timestamps, microseconds"`
	X []int32 `desc:"event x coordinates"`
	Y []int32 `desc:"event y coordinates"`
	P []int8  `desc:"event polarities, 0 = off, 1 = on"`
}

// Len returns the number of events.
func (ev *Events) Len() int {
	return len(ev.T)
}

// Append adds one event.
func (ev *Events) Append(t int64, x, y int32, p int8) {
	ev.T = append(ev.T, t)
	ev.X = append(ev.X, x)
	ev.Y = append(ev.Y, y)
	ev.P = append(ev.P, p)
}

// Slice returns the events in index range [l, r) sharing the underlying
// storage.
func (ev *Events) Slice(l, r int) *Events {
	return &Events{T: ev.T[l:r], X: ev.X[l:r], Y: ev.Y[l:r], P: ev.P[l:r]}
}

// TimeSlice returns the events with tStart <= t < tEnd, assuming
// nondecreasing times.
func (ev *Events) TimeSlice(tStart, tEnd int64) *Events {
	l := sort.Search(len(ev.T), func(i int) bool { return ev.T[i] >= tStart })
	r := sort.Search(len(ev.T), func(i int) bool { return ev.T[i] >= tEnd })
	return ev.Slice(l, r)
}

// SplitBy selects how events are partitioned into frames.
type SplitBy int32

const (
	// SplitByTime divides the recording into equal time intervals.
	SplitByTime SplitBy = iota

	// SplitByNumber divides the recording into equal event counts.
	SplitByNumber

	SplitByN
)

var KiT_SplitBy = kit.Enums.AddEnum(SplitByN, kit.NotBitFlag, nil)

func (sb SplitBy) String() string {
	switch sb {
	case SplitByTime:
		return "time"
	case SplitByNumber:
		return "number"
	}
	return "SplitByN"
}

// SplitByFromString parses a split mode name as printed by String.
func SplitByFromString(s string) (SplitBy, error) {
	for sb := SplitBy(0); sb < SplitByN; sb++ {
		if sb.String() == s {
			return sb, nil
		}
	}
	return SplitByN, fmt.Errorf("datasets: unknown split mode %q", s)
}

// Norm selects the per-frame normalization applied after integration.
type Norm int32

const (
	// NormNone leaves raw spike counts.
	NormNone Norm = iota

	// NormFrequency divides counts by the frame's time span (or event
	// count for SplitByNumber), giving firing rates.
	NormFrequency

	// NormMax divides counts by the frame maximum.
	NormMax

	// NormZScore subtracts the frame mean and divides by its standard
	// deviation (eps 1e-5).
	NormZScore

	NormN
)

var KiT_Norm = kit.Enums.AddEnum(NormN, kit.NotBitFlag, nil)

func (nm Norm) String() string {
	switch nm {
	case NormNone:
		return "none"
	case NormFrequency:
		return "frequency"
	case NormMax:
		return "max"
	case NormZScore:
		return "zscore"
	}
	return "NormN"
}

// NormFromString parses a normalization name as printed by String.
func NormFromString(s string) (Norm, error) {
	for nm := Norm(0); nm < NormN; nm++ {
		if nm.String() == s {
			return nm, nil
		}
	}
	return NormN, fmt.Errorf("datasets: unknown normalization %q", s)
}

// IntegrateToFrames accumulates an event recording into framesNum frame
// tensors of shape [framesNum, 2, height, width], one channel per
// polarity, each cell counting the spikes that landed there.  The
// recording is partitioned per splitBy: equal time intervals from the
// first to the last event (the last frame takes the tail), or equal
// event counts.  Each frame is then normalized per norm.
func IntegrateToFrames(ev *Events, height, width, framesNum int, splitBy SplitBy, norm Norm) (*etensor.Float32, error) {
	if ev.Len() == 0 {
		return nil, fmt.Errorf("datasets: IntegrateToFrames: no events")
	}
	if framesNum <= 0 {
		return nil, fmt.Errorf("datasets: IntegrateToFrames: framesNum %d <= 0", framesNum)
	}
	frames := etensor.NewFloat32([]int{framesNum, 2, height, width}, nil, []string{"Frame", "Polarity", "Y", "X"})
	plane := height * width
	fsz := 2 * plane

	var dt int64
	bounds := make([]int, framesNum+1)
	bounds[framesNum] = ev.Len()
	switch splitBy {
	case SplitByTime:
		t0 := ev.T[0]
		dt = (ev.T[ev.Len()-1] - t0) / int64(framesNum)
		for i := 1; i < framesNum; i++ {
			ti := t0 + int64(i)*dt
			bounds[i] = sort.Search(ev.Len(), func(j int) bool { return ev.T[j] >= ti })
		}
	case SplitByNumber:
		dt = int64(ev.Len() / framesNum)
		for i := 1; i < framesNum; i++ {
			bounds[i] = i * int(dt)
		}
	default:
		return nil, fmt.Errorf("datasets: IntegrateToFrames: unknown split mode %v", splitBy)
	}
	if norm < 0 || norm >= NormN {
		return nil, fmt.Errorf("datasets: IntegrateToFrames: unknown normalization %v", norm)
	}

	for f := 0; f < framesNum; f++ {
		fv := frames.Values[f*fsz : (f+1)*fsz]
		for i := bounds[f]; i < bounds[f+1]; i++ {
			fv[int(ev.P[i])*plane+int(ev.Y[i])*width+int(ev.X[i])]++
		}
		normFrame(fv, norm, dt)
	}
	return frames, nil
}

func normFrame(fv []float32, norm Norm, dt int64) {
	switch norm {
	case NormFrequency:
		if dt > 0 {
			for i := range fv {
				fv[i] /= float32(dt)
			}
		}
	case NormMax:
		mx := float32(0)
		for _, v := range fv {
			if v > mx {
				mx = v
			}
		}
		if mx > 0 {
			for i := range fv {
				fv[i] /= mx
			}
		}
	case NormZScore:
		n := float32(len(fv))
		mean := float32(0)
		for _, v := range fv {
			mean += v
		}
		mean /= n
		vr := float32(0)
		for _, v := range fv {
			d := v - mean
			vr += d * d
		}
		vr /= n
		sd := mat32.Sqrt(vr + 1e-5)
		for i := range fv {
			fv[i] = (fv[i] - mean) / sd
		}
	}
}
