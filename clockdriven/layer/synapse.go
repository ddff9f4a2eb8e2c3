// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layer

import (
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
)

// LowPassSynapse is a synapse with low-pass filter dynamics: with no
// input spikes the output current decays exponentially,
// tau * dI/dt = -I, and each input spike increments it by 1.  Discretized
// with input spikes S(t):
//
//	I(t) = I(t-1) - (1 - S(t)) * I(t-1) / tau + S(t)
//
// The output current depends on the input history, giving the synapse a
// short memory; used as a final layer its accumulated value reflects the
// number of spikes received over the whole run, an alternative to
// counting output spikes directly (Diehl & Cook 2015; Fang et al. 2020).
// Can equally be viewed as a LIF neuron with an infinite threshold that
// outputs its voltage.
type LowPassSynapse struct {
	Tau       float32         `def:"100" min:"1" desc:"current decay time constant in cycles"`
	Learnable bool            `desc:"treat 1/Tau as a trainable parameter"`
	Dt        float32         `view:"-" desc:"1/Tau rate constant"`
	I         etensor.Float32 `view:"no-inline" desc:"output current"`
}

func (lp *LowPassSynapse) Defaults() {
	lp.Tau = 100
	lp.Update()
}

func (lp *LowPassSynapse) Update() {
	lp.Dt = 1 / lp.Tau
}

// Step filters one cycle of input spikes and returns the output current.
func (lp *LowPassSynapse) Step(spikes *etensor.Float32) *etensor.Float32 {
	if lp.I.Len() != spikes.Len() {
		lp.I.SetShape(spikes.Shp, nil, nil)
	}
	for i, s := range spikes.Values {
		cur := lp.I.Values[i]
		lp.I.Values[i] = cur - (1-s)*cur*lp.Dt + s
	}
	return &lp.I
}

// Reset zeroes the output current.
func (lp *LowPassSynapse) Reset() {
	lp.I.SetZeros()
}

var KiT_LowPassSynapse = kit.Types.AddType(&LowPassSynapse{}, nil)
