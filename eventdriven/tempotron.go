// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventdriven

import (
	"math/rand"

	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// Tempotron is a binary-classification spiking neuron trained with the
// voltage-peak rule of Gutig & Sompolinsky (2006).  Each input spike at
// time t_i through synapse i contributes w_i * K(t - t_i) to the
// membrane voltage, with the postsynaptic potential kernel
//
//	K(t) = V0 * (exp(-t/Tau) - exp(-t/TauS))   for t >= 0, else 0
//
// where V0 normalizes the kernel peak to 1.  The neuron fires if the
// voltage peak over the run reaches VThreshold.
type Tempotron struct {
	N          int             `desc:"number of input synapses"`
	Tau        float32         `def:"15" desc:"membrane decay time constant"`
	TauS       float32         `def:"3.75" desc:"synaptic current decay time constant, typically Tau/4"`
	VThreshold float32         `def:"1" desc:"firing threshold on the voltage peak"`
	V0         float32         `inactive:"+" desc:"kernel peak normalization, computed by Update"`
	TPeak      float32         `inactive:"+" desc:"time of the kernel peak, computed by Update"`
	W          etensor.Float32 `view:"no-inline" desc:"synaptic weights, shape [N]"`
}

func (tp *Tempotron) Defaults() {
	tp.Tau = 15
	tp.TauS = 15.0 / 4
	tp.VThreshold = 1
	tp.Update()
}

// Update computes the kernel peak time and normalization from Tau, TauS.
func (tp *Tempotron) Update() {
	tp.TPeak = tp.Tau * tp.TauS * mat32.Log(tp.Tau/tp.TauS) / (tp.Tau - tp.TauS)
	tp.V0 = 1 / (mat32.FastExp(-tp.TPeak/tp.Tau) - mat32.FastExp(-tp.TPeak/tp.TauS))
}

// Config sets the input size and initializes weights from
// uniform(-sqrt(1/n), sqrt(1/n)).
func (tp *Tempotron) Config(n int) {
	tp.N = n
	tp.Defaults()
	tp.W.SetShape([]int{n}, nil, []string{"In"})
	bound := mat32.Sqrt(1 / float32(n))
	for i := range tp.W.Values {
		tp.W.Values[i] = (rand.Float32()*2 - 1) * bound
	}
}

// PSP returns the postsynaptic potential kernel K(t), 0 for t < 0.
func (tp *Tempotron) PSP(t float32) float32 {
	if t < 0 {
		return 0
	}
	return tp.V0 * (mat32.FastExp(-t/tp.Tau) - mat32.FastExp(-t/tp.TauS))
}

// Voltage returns the membrane voltage at time t given the input spikes.
func (tp *Tempotron) Voltage(evs []SpikeEvent, t float32) float32 {
	v := float32(0)
	for _, ev := range evs {
		v += tp.W.Values[ev.Unit] * tp.PSP(t-ev.Time)
	}
	return v
}

// Forward drains the event queue and scans the voltage on a time grid
// of tn steps over [0, tMax), returning whether the neuron fires along
// with the peak voltage and its time.
func (tp *Tempotron) Forward(q *Queue, tMax float32, tn int) (fired bool, vPeak, tAtPeak float32) {
	evs := q.Drain()
	return tp.forward(evs, tMax, tn)
}

func (tp *Tempotron) forward(evs []SpikeEvent, tMax float32, tn int) (fired bool, vPeak, tAtPeak float32) {
	dt := tMax / float32(tn)
	for i := 0; i < tn; i++ {
		t := float32(i) * dt
		if v := tp.Voltage(evs, t); i == 0 || v > vPeak {
			vPeak = v
			tAtPeak = t
		}
	}
	fired = vPeak >= tp.VThreshold
	return
}

// Train runs one forward pass on the input spikes and, when the firing
// decision disagrees with target, nudges each weight by the tempotron
// rule: dw_i = +-lr * sum over the unit's spikes of K(tPeak - t_i).
// Returns whether the pre-update decision was already correct.
func (tp *Tempotron) Train(q *Queue, target bool, lr, tMax float32, tn int) bool {
	evs := q.Drain()
	fired, _, tAtPeak := tp.forward(evs, tMax, tn)
	if fired == target {
		return true
	}
	sign := float32(1)
	if fired && !target {
		sign = -1
	}
	for _, ev := range evs {
		tp.W.Values[ev.Unit] += sign * lr * tp.PSP(tAtPeak-ev.Time)
	}
	return false
}

var KiT_Tempotron = kit.Types.AddType(&Tempotron{}, nil)
