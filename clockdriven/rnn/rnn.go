// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rnn implements spiking recurrent networks, currently the
// spiking long short-term memory of Lotfi Rezaabad & Vishwanath (2020,
// Long Short-Term Memory Spiking Networks and Their Applications).
package rnn

import (
	"fmt"

	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
	"github.com/spikingflow/spikingflow/clockdriven/layer"
	"github.com/spikingflow/spikingflow/clockdriven/surrogate"
)

// SpikingLSTMCell is one spiking LSTM cell.  All four gates fire through
// the spike function Theta instead of the usual sigmoid / tanh:
//
//	i, f, g, o = Theta(W_ih*x + b_ih + W_hh*h + b_hh - VThreshold)
//	c' = f .* c + i .* g
//	h' = o .* c'
//
// Sg1 generates i, f and o; Sg2, when set, generates g.  Use SetSg to
// install them, which checks that the two agree on spiking mode.  State
// h and c is held in the cell and zeroed lazily on the first Step after
// Reset.
type SpikingLSTMCell struct {
	InputSize  int                `desc:"number of input features"`
	HiddenSize int                `desc:"number of hidden state features"`
	VThreshold float32            `def:"1" desc:"gate firing threshold"`
	Sg1        surrogate.Function `desc:"firing function for the i, f, o gates"`
	Sg2        surrogate.Function `desc:"firing function for the g gate -- nil uses Sg1"`
	LinIH      layer.Linear       `view:"no-inline" desc:"input-to-hidden projection onto all 4 gates"`
	LinHH      layer.Linear       `view:"no-inline" desc:"hidden-to-hidden projection onto all 4 gates"`
	H          etensor.Float32    `view:"no-inline" desc:"hidden state"`
	C          etensor.Float32    `view:"no-inline" desc:"cell state"`

	gates etensor.Float32
	init  bool
}

// Config sets the cell sizes and initializes all weights and biases from
// uniform(-sqrt(k), sqrt(k)) with k = 1/HiddenSize.
func (lc *SpikingLSTMCell) Config(inputSize, hiddenSize int, bias bool) {
	lc.InputSize = inputSize
	lc.HiddenSize = hiddenSize
	lc.VThreshold = 1
	sg := &surrogate.Erf{}
	sg.Defaults()
	lc.Sg1 = sg
	lc.LinIH.Config(inputSize, 4*hiddenSize, bias)
	lc.LinHH.Config(hiddenSize, 4*hiddenSize, bias)
	sqrtK := mat32.Sqrt(1 / float32(hiddenSize))
	lc.LinIH.InitWeights(sqrtK)
	lc.LinHH.InitWeights(sqrtK)
	lc.H.SetShape([]int{hiddenSize}, nil, nil)
	lc.C.SetShape([]int{hiddenSize}, nil, nil)
	lc.gates.SetShape([]int{4 * hiddenSize}, nil, nil)
}

// SetSg sets the gate firing functions.  sg2 applies to the g gate only
// and may be nil to reuse sg1.  Mixing a spiking function with a smooth
// one would feed binary spikes and smooth values into the same cell
// state, so the two must agree on spiking mode.
func (lc *SpikingLSTMCell) SetSg(sg1, sg2 surrogate.Function) error {
	if sg1 == nil {
		return fmt.Errorf("sg1 must be non-nil")
	}
	if sg2 != nil && sg1.IsSpiking() != sg2.IsSpiking() {
		return fmt.Errorf("sg1 and sg2 disagree on spiking mode")
	}
	lc.Sg1 = sg1
	lc.Sg2 = sg2
	return nil
}

// Step advances the cell one time step with input x of shape
// [InputSize] and returns the new hidden state h' of shape [HiddenSize];
// the new cell state is in C.
func (lc *SpikingLSTMCell) Step(x *etensor.Float32) *etensor.Float32 {
	if !lc.init {
		lc.H.SetZeros()
		lc.C.SetZeros()
		lc.init = true
	}
	ih := lc.LinIH.Step(x)
	hh := lc.LinHH.Step(&lc.H)
	for i := range lc.gates.Values {
		lc.gates.Values[i] = ih.Values[i] + hh.Values[i] - lc.VThreshold
	}
	sg2 := lc.Sg2
	if sg2 == nil {
		sg2 = lc.Sg1
	}
	hs := lc.HiddenSize
	for j := 0; j < hs; j++ {
		i := lc.Sg1.Apply(lc.gates.Values[j])
		f := lc.Sg1.Apply(lc.gates.Values[hs+j])
		g := sg2.Apply(lc.gates.Values[2*hs+j])
		o := lc.Sg1.Apply(lc.gates.Values[3*hs+j])
		lc.C.Values[j] = f*lc.C.Values[j] + i*g
		lc.H.Values[j] = o * lc.C.Values[j]
	}
	return &lc.H
}

// Reset zeroes the hidden and cell state on the next Step.
func (lc *SpikingLSTMCell) Reset() {
	lc.init = false
}

// SpikingLSTM stacks spiking LSTM cells over a whole input sequence,
// with optional dropout between layers.  With InvariantDropoutMask a
// single mask is drawn per run and reused at every time step, matching
// the run-invariant dropout used elsewhere in the framework; otherwise a
// fresh mask is drawn per step.  Bidirectional operation is not
// implemented.
type SpikingLSTM struct {
	InputSize     int                `desc:"number of input features"`
	HiddenSize    int                `desc:"number of hidden features per layer"`
	NumLayers     int                `desc:"number of stacked cells"`
	DropoutP      float32            `desc:"probability of dropping inter-layer activations -- 0 disables"`
	InvariantMask bool               `desc:"hold one dropout mask for the whole sequence"`
	Training      bool               `desc:"training mode -- dropout applies only when training"`
	Cells         []*SpikingLSTMCell `desc:"stacked cells, input layer first"`
	Out           etensor.Float32    `view:"no-inline" desc:"outputs of the last layer, shape [T, HiddenSize]"`

	mask    etensor.Float32
	hasMask bool
	dropped etensor.Float32
}

// Config builds the stack.
func (ls *SpikingLSTM) Config(inputSize, hiddenSize, numLayers int, bias bool) {
	ls.InputSize = inputSize
	ls.HiddenSize = hiddenSize
	ls.NumLayers = numLayers
	ls.Cells = make([]*SpikingLSTMCell, numLayers)
	for i := range ls.Cells {
		ls.Cells[i] = &SpikingLSTMCell{}
		in := hiddenSize
		if i == 0 {
			in = inputSize
		}
		ls.Cells[i].Config(in, hiddenSize, bias)
	}
	ls.mask.SetShape([]int{hiddenSize}, nil, nil)
	ls.dropped.SetShape([]int{hiddenSize}, nil, nil)
}

func (ls *SpikingLSTM) drawMask() {
	scale := 1 / (1 - ls.DropoutP)
	for i := range ls.mask.Values {
		if erand.BoolP(float64(ls.DropoutP), -1) {
			ls.mask.Values[i] = 0
		} else {
			ls.mask.Values[i] = scale
		}
	}
}

// dropout applies inter-layer dropout to h per the mask policy.
func (ls *SpikingLSTM) dropout(h *etensor.Float32) *etensor.Float32 {
	if !ls.Training || ls.DropoutP <= 0 {
		return h
	}
	if ls.InvariantMask {
		if !ls.hasMask {
			ls.drawMask()
			ls.hasMask = true
		}
	} else {
		ls.drawMask()
	}
	for i, v := range h.Values {
		ls.dropped.Values[i] = v * ls.mask.Values[i]
	}
	return &ls.dropped
}

// Forward runs the whole sequence x of shape [T, InputSize] through the
// stack and returns the last layer's outputs, shape [T, HiddenSize].
// Cell states persist across calls until Reset.
func (ls *SpikingLSTM) Forward(x *etensor.Float32) *etensor.Float32 {
	tn := x.Dim(0)
	if ls.Out.Dim(0) != tn {
		ls.Out.SetShape([]int{tn, ls.HiddenSize}, nil, []string{"T", "Hidden"})
	}
	xt := etensor.NewFloat32([]int{ls.InputSize}, nil, nil)
	for t := 0; t < tn; t++ {
		copy(xt.Values, x.Values[t*ls.InputSize:(t+1)*ls.InputSize])
		h := ls.Cells[0].Step(xt)
		for i := 1; i < ls.NumLayers; i++ {
			h = ls.Cells[i].Step(ls.dropout(h))
		}
		copy(ls.Out.Values[t*ls.HiddenSize:(t+1)*ls.HiddenSize], h.Values)
	}
	return &ls.Out
}

// Reset resets all cells and discards the dropout mask.
func (ls *SpikingLSTM) Reset() {
	for _, lc := range ls.Cells {
		lc.Reset()
	}
	ls.hasMask = false
}

var (
	KiT_SpikingLSTMCell = kit.Types.AddType(&SpikingLSTMCell{}, nil)
	KiT_SpikingLSTM     = kit.Types.AddType(&SpikingLSTM{}, nil)
)
