// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layer

import (
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
)

// Dropout zeroes units with probability P, but unlike per-step dropout
// the mask is drawn once and held fixed for the whole simulation run: a
// connection severed at t=0 stays severed for t=1..T-1.  Reset draws a
// fresh mask on the next Step.  Kept units are scaled by 1/(1-P).
//
// Per-step dropout would rewire the network on every cycle of a run,
// which defeats its purpose for an SNN that integrates over many cycles.
type Dropout struct {
	P        float32         `def:"0.5" min:"0" max:"1" desc:"probability of zeroing each unit"`
	Training bool            `desc:"apply dropout -- evaluation passes input through"`
	Mask     etensor.Float32 `view:"no-inline" desc:"current mask -- empty until first Step of a run"`
	Out      etensor.Float32 `view:"no-inline" desc:"output from the last Step"`

	hasMask bool
}

func (dp *Dropout) Defaults() {
	dp.P = 0.5
}

// Step applies the run-invariant mask to one cycle of input.
func (dp *Dropout) Step(x *etensor.Float32) *etensor.Float32 {
	if !dp.Training {
		return x
	}
	if !dp.hasMask || dp.Mask.Len() != x.Len() {
		dp.Mask.SetShape(x.Shp, nil, nil)
		scale := 1 / (1 - dp.P)
		for i := range dp.Mask.Values {
			if erand.BoolP(float64(dp.P), -1) {
				dp.Mask.Values[i] = 0
			} else {
				dp.Mask.Values[i] = scale
			}
		}
		dp.hasMask = true
	}
	if dp.Out.Len() != x.Len() {
		dp.Out.SetShape(x.Shp, nil, nil)
	}
	for i, v := range x.Values {
		dp.Out.Values[i] = v * dp.Mask.Values[i]
	}
	return &dp.Out
}

// Reset discards the mask so the next run draws a new one.
func (dp *Dropout) Reset() {
	dp.hasMask = false
}

// Dropout2d is Dropout at channel granularity: whole channels of a
// [C, H, W] input are zeroed together, with the channel mask held fixed
// for the whole run.
type Dropout2d struct {
	P        float32         `def:"0.2" min:"0" max:"1" desc:"probability of zeroing each channel"`
	Training bool            `desc:"apply dropout -- evaluation passes input through"`
	Mask     etensor.Float32 `view:"no-inline" desc:"current channel mask, shape [C]"`
	Out      etensor.Float32 `view:"no-inline" desc:"output from the last Step"`

	hasMask bool
}

func (dp *Dropout2d) Defaults() {
	dp.P = 0.2
}

// Step applies the run-invariant channel mask to one cycle of [C, H, W]
// input.
func (dp *Dropout2d) Step(x *etensor.Float32) *etensor.Float32 {
	if !dp.Training {
		return x
	}
	nc := x.Dim(0)
	if !dp.hasMask || dp.Mask.Len() != nc {
		dp.Mask.SetShape([]int{nc}, nil, nil)
		scale := 1 / (1 - dp.P)
		for c := 0; c < nc; c++ {
			if erand.BoolP(float64(dp.P), -1) {
				dp.Mask.Values[c] = 0
			} else {
				dp.Mask.Values[c] = scale
			}
		}
		dp.hasMask = true
	}
	if dp.Out.Len() != x.Len() {
		dp.Out.SetShape(x.Shp, nil, nil)
	}
	plane := x.Len() / nc
	for c := 0; c < nc; c++ {
		m := dp.Mask.Values[c]
		for i := 0; i < plane; i++ {
			dp.Out.Values[c*plane+i] = x.Values[c*plane+i] * m
		}
	}
	return &dp.Out
}

// Reset discards the mask so the next run draws a new one.
func (dp *Dropout2d) Reset() {
	dp.hasMask = false
}

var (
	KiT_Dropout   = kit.Types.AddType(&Dropout{}, nil)
	KiT_Dropout2d = kit.Types.AddType(&Dropout2d{}, nil)
)
