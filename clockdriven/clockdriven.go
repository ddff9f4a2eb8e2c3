// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clockdriven provides the clock-driven simulation mode, which
// advances network state in fixed time steps.  The algorithm code lives
// in the neuron, surrogate, layer and rnn sub-packages; this package
// holds the interfaces that tie a stepped network together.
package clockdriven

import "github.com/emer/etable/etensor"

// Stepper is one stage of a clock-driven network: it consumes one time
// step of input and produces one time step of output.  Stateful stages
// restore their initial state on Reset, which must be called between
// simulation runs.
type Stepper interface {
	Step(x *etensor.Float32) *etensor.Float32
	Reset()
}

// Sequential chains steppers so that each cycle flows through all stages
// in order, like stacking layers and nodes into one network.
type Sequential struct {
	Stages []Stepper `desc:"stages in execution order"`
}

// NewSequential returns a network stepping through the given stages.
func NewSequential(stages ...Stepper) *Sequential {
	return &Sequential{Stages: stages}
}

// Add appends stages to the network.
func (sq *Sequential) Add(stages ...Stepper) {
	sq.Stages = append(sq.Stages, stages...)
}

// Step advances all stages by one cycle.
func (sq *Sequential) Step(x *etensor.Float32) *etensor.Float32 {
	for _, st := range sq.Stages {
		x = st.Step(x)
	}
	return x
}

// Reset resets all stages.
func (sq *Sequential) Reset() {
	for _, st := range sq.Stages {
		st.Reset()
	}
}
