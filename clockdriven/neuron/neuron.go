// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package neuron implements clock-driven spiking neuron layers.
//
// A node holds one membrane potential per unit in an etensor.Float32 and
// is advanced one cycle at a time with Step, taking the voltage increment
// driven into each unit and returning the output spikes.  All units in a
// layer share the same parameters, following the layer-shared params
// design used throughout the rest of the framework.
package neuron

import (
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
	"github.com/spikingflow/spikingflow/clockdriven/surrogate"
)

// NodeParams are the firing and reset parameters shared by all units in a
// node layer.
type NodeParams struct {
	VThreshold float32            `def:"1" desc:"threshold voltage -- units fire when voltage reaches this"`
	VReset     float32            `def:"0" desc:"voltage that units are reset to after firing (hard reset)"`
	SoftReset  bool               `desc:"subtract VThreshold from the voltage after firing instead of resetting to VReset -- corresponds to v_reset = None"`
	Sg         surrogate.Function `desc:"spike firing function -- provides the surrogate gradient for training"`
}

func (np *NodeParams) Defaults() {
	np.VThreshold = 1
	np.VReset = 0
	np.SoftReset = false
	sg := &surrogate.Sigmoid{}
	sg.Defaults()
	np.Sg = sg
}

// restV is the voltage units rest at and are reset to.
func (np *NodeParams) restV() float32 {
	if np.SoftReset {
		return 0
	}
	return np.VReset
}

// Monitor optionally records the voltage and spike history of a node,
// one tensor copy per step.  V holds the pre-firing voltage of each step
// followed by the post-reset voltage; S holds the output spikes.
type Monitor struct {
	On bool               `desc:"whether to record"`
	V  []*etensor.Float32 `desc:"recorded voltages"`
	S  []*etensor.Float32 `desc:"recorded spikes"`
}

func (mn *Monitor) Reset() {
	mn.V = nil
	mn.S = nil
}

func (mn *Monitor) record(v *etensor.Float32, to *[]*etensor.Float32) {
	cp := etensor.NewFloat32(v.Shp, nil, nil)
	copy(cp.Values, v.Values)
	*to = append(*to, cp)
}

// NodeBase is the common state shared by all clock-driven node types:
// params, per-unit voltage, output spikes and the optional monitor.
type NodeBase struct {
	NodeParams
	V       etensor.Float32 `view:"no-inline" desc:"membrane potential of each unit"`
	Spikes  etensor.Float32 `view:"no-inline" desc:"output spikes from the last Step"`
	Monitor Monitor         `desc:"optional voltage / spike recording"`
}

// Init allocates voltage and spike state with the given tensor shape and
// sets all voltages to the resting (reset) value.
func (nb *NodeBase) Init(shape []int) {
	nb.V.SetShape(shape, nil, nil)
	nb.Spikes.SetShape(shape, nil, nil)
	nb.Reset()
}

// Reset restores all units to the resting voltage and clears the monitor.
// Call between runs -- any node is a stateful layer.
func (nb *NodeBase) Reset() {
	rv := nb.restV()
	for i := range nb.V.Values {
		nb.V.Values[i] = rv
	}
	nb.Spikes.SetZeros()
	nb.Monitor.Reset()
}

// lazyInit sizes the state from the input on first use.
func (nb *NodeBase) lazyInit(dv *etensor.Float32) {
	if !etensor.EqualInts(nb.V.Shp, dv.Shp) {
		nb.Init(dv.Shp)
	}
}

// fire computes output spikes from the current voltages and applies the
// reset dynamics, recording to the monitor when enabled.  With a spiking
// firing function the reset is exact; with a smooth one the voltage is
// interpolated by the spike value, keeping the update differentiable.
func (nb *NodeBase) fire() *etensor.Float32 {
	if nb.Monitor.On && len(nb.Monitor.V) == 0 {
		v0 := etensor.NewFloat32(nb.V.Shp, nil, nil)
		rv := nb.restV()
		for i := range v0.Values {
			v0.Values[i] = rv
		}
		nb.Monitor.V = append(nb.Monitor.V, v0)
	}
	for i, v := range nb.V.Values {
		nb.Spikes.Values[i] = nb.Sg.Apply(v - nb.VThreshold)
	}
	if nb.Monitor.On {
		nb.Monitor.record(&nb.V, &nb.Monitor.V)
		nb.Monitor.record(&nb.Spikes, &nb.Monitor.S)
	}
	for i, s := range nb.Spikes.Values {
		if nb.SoftReset {
			nb.V.Values[i] -= s * nb.VThreshold
		} else {
			nb.V.Values[i] = nb.V.Values[i]*(1-s) + nb.VReset*s
		}
	}
	if nb.Monitor.On {
		nb.Monitor.record(&nb.V, &nb.Monitor.V)
	}
	return &nb.Spikes
}

// IFNode is the Integrate-and-Fire neuron: an ideal integrator whose
// voltage holds constant with no input, dV/dt = R_m * I(t).
type IFNode struct {
	NodeBase
}

func (nd *IFNode) Defaults() {
	nd.NodeParams.Defaults()
}

// Step integrates one cycle of input dv and returns the output spikes.
func (nd *IFNode) Step(dv *etensor.Float32) *etensor.Float32 {
	nd.lazyInit(dv)
	for i, d := range dv.Values {
		nd.V.Values[i] += d
	}
	return nd.fire()
}

// LIFNode is the Leaky Integrate-and-Fire neuron: a leaky integrator with
// subthreshold dynamics tau * dV/dt = -(V - VReset) + R_m * I(t).  With
// soft reset the units rest at 0 and the leak pulls toward 0, not VReset.
type LIFNode struct {
	NodeBase
	Tau float32 `def:"100" min:"1" desc:"membrane time constant in cycles, shared by all units"`
}

func (nd *LIFNode) Defaults() {
	nd.NodeParams.Defaults()
	nd.Tau = 100
}

// Step integrates one cycle of input dv and returns the output spikes.
func (nd *LIFNode) Step(dv *etensor.Float32) *etensor.Float32 {
	nd.lazyInit(dv)
	rv := nd.restV()
	for i, d := range dv.Values {
		nd.V.Values[i] += (d - (nd.V.Values[i] - rv)) / nd.Tau
	}
	return nd.fire()
}

// ClampFunc selects the squashing function that maps the learnable PLIF
// weight into (0, 1) when clamping is enabled.
type ClampFunc int32

const (
	// PiecewiseExp is 1 - exp(-w)/2 for w >= 0, exp(w)/2 otherwise.
	PiecewiseExp ClampFunc = iota

	// ClampSigmoid is the logistic sigmoid.
	ClampSigmoid

	// ReciprocalAbsPlus1 is 1 / (1 + |w|).
	ReciprocalAbsPlus1

	ClampFuncN
)

var KiT_ClampFunc = kit.Enums.AddEnum(ClampFuncN, kit.NotBitFlag, nil)

func (cf ClampFunc) String() string {
	switch cf {
	case PiecewiseExp:
		return "PiecewiseExp"
	case ClampSigmoid:
		return "ClampSigmoid"
	case ReciprocalAbsPlus1:
		return "ReciprocalAbsPlus1"
	}
	return "ClampFuncN"
}

// Apply maps the weight w into (0, 1).
func (cf ClampFunc) Apply(w float32) float32 {
	switch cf {
	case PiecewiseExp:
		if w >= 0 {
			return 1 - mat32.Exp(-w)/2
		}
		return mat32.Exp(w) / 2
	case ClampSigmoid:
		return 1 / (1 + mat32.Exp(-w))
	default:
		return 1 / (1 + mat32.Abs(w))
	}
}

// Inverse returns the weight w such that 1 / Apply(w) = tau.
func (cf ClampFunc) Inverse(tau float32) float32 {
	switch cf {
	case PiecewiseExp:
		switch {
		case tau > 2:
			return mat32.Log(2 / tau)
		case tau < 2:
			return mat32.Log(tau / (2*tau - 2))
		}
		return 0
	case ClampSigmoid:
		return -mat32.Log(tau - 1)
	default:
		return tau - 1
	}
}

// PLIFNode is the Parametric LIF neuron (Fang et al., 2020): LIF dynamics
// with a learnable membrane time constant shared by all units in the
// layer.  The update multiplies by the learnable weight W instead of
// dividing by tau, so W can never divide by zero:
// V += (dv - (V - VReset)) * W.
type PLIFNode struct {
	NodeBase
	W     float32   `desc:"learnable weight -- reciprocal of tau, or its pre-clamp value when clamping"`
	Clamp bool      `desc:"squash W through Fn so the effective 1/tau stays in (0, 1)"`
	Fn    ClampFunc `viewif:"Clamp" desc:"clamp function applied to W"`
}

func (nd *PLIFNode) Defaults() {
	nd.NodeParams.Defaults()
	nd.SetTau(2)
}

// SetTau initializes W so the node starts with the given time constant.
func (nd *PLIFNode) SetTau(tau float32) {
	if nd.Clamp {
		nd.W = nd.Fn.Inverse(tau)
	} else {
		nd.W = 1 / tau
	}
}

// Tau reports the current effective membrane time constant.
func (nd *PLIFNode) Tau() float32 {
	if nd.Clamp {
		return 1 / nd.Fn.Apply(nd.W)
	}
	return 1 / nd.W
}

// Step integrates one cycle of input dv and returns the output spikes.
func (nd *PLIFNode) Step(dv *etensor.Float32) *etensor.Float32 {
	nd.lazyInit(dv)
	w := nd.W
	if nd.Clamp {
		w = nd.Fn.Apply(nd.W)
	}
	rv := nd.restV()
	for i, d := range dv.Values {
		nd.V.Values[i] += (d - (nd.V.Values[i] - rv)) * w
	}
	return nd.fire()
}

// RIFNode is the Recurrent Integrate-and-Fire neuron: a learnable
// self-connection weight drives the voltage, dV/dt = w*(V - VReset) +
// R_m * I(t), with the self connection not applied to the input.
type RIFNode struct {
	NodeBase
	G      float32 `desc:"learnable self-connection parameter -- the raw weight, or its pre-sigmoid value when restricted"`
	HasAmp bool    `desc:"restrict the weight into (AmpLo, AmpHi) via a sigmoid mapping"`
	AmpLo  float32 `viewif:"HasAmp" desc:"lower bound of the weight restriction"`
	AmpHi  float32 `viewif:"HasAmp" desc:"upper bound of the weight restriction"`
}

func (nd *RIFNode) Defaults() {
	nd.NodeParams.Defaults()
	nd.HasAmp = false
	nd.SetW(-1e-3)
}

// SetW initializes the parameter so the effective weight starts at w0.
// With a restriction in place, w0 must lie strictly inside (AmpLo, AmpHi).
func (nd *RIFNode) SetW(w0 float32) {
	if nd.HasAmp {
		nd.G = mat32.Log((w0 - nd.AmpLo) / (nd.AmpHi - w0))
	} else {
		nd.G = w0
	}
}

// SetAmplitude restricts the weight symmetrically into (-amp, amp).
func (nd *RIFNode) SetAmplitude(amp float32) {
	nd.HasAmp = true
	nd.AmpLo = -amp
	nd.AmpHi = amp
}

// W reports the current effective self-connection weight.
func (nd *RIFNode) W() float32 {
	if nd.HasAmp {
		s := 1 / (1 + mat32.Exp(-nd.G))
		return s*(nd.AmpHi-nd.AmpLo) + nd.AmpLo
	}
	return nd.G
}

// Step integrates one cycle of input dv and returns the output spikes.
func (nd *RIFNode) Step(dv *etensor.Float32) *etensor.Float32 {
	nd.lazyInit(dv)
	w := nd.W()
	rv := nd.restV()
	for i, d := range dv.Values {
		nd.V.Values[i] += (nd.V.Values[i]-rv)*w + d
	}
	return nd.fire()
}

var (
	KiT_IFNode   = kit.Types.AddType(&IFNode{}, nil)
	KiT_LIFNode  = kit.Types.AddType(&LIFNode{}, nil)
	KiT_PLIFNode = kit.Types.AddType(&PLIFNode{}, nil)
	KiT_RIFNode  = kit.Types.AddType(&RIFNode{}, nil)
)
