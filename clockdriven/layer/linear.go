// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layer implements the stateful layers that surround spiking
// neurons in a clock-driven network: linear projections, spike-train
// normalization, dropout with run-invariant masks, low-pass synapse
// filtering, blockwise transforms and channel pooling.
//
// All tensors are per-sample -- there is no batch dimension.  Every
// stateful layer restores its initial state on Reset, which must be
// called between simulation runs.
package layer

import (
	"math/rand"

	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// Linear projects an input vector through a weight matrix and optional
// bias: out = W*x + b.
type Linear struct {
	In   int             `desc:"number of input features"`
	NOut int             `desc:"number of output features"`
	Bias bool            `def:"true" desc:"use the additive bias"`
	Wt   etensor.Float32 `view:"no-inline" desc:"weights, shape [NOut, In]"`
	Bs   etensor.Float32 `view:"no-inline" desc:"bias, shape [NOut]"`
	Out  etensor.Float32 `view:"no-inline" desc:"output from the last Step"`
}

// Config sets the layer sizes and initializes weights uniformly in
// (-sqrt(1/in), sqrt(1/in)).
func (ln *Linear) Config(in, out int, bias bool) {
	ln.In = in
	ln.NOut = out
	ln.Bias = bias
	ln.Wt.SetShape([]int{out, in}, nil, []string{"Out", "In"})
	ln.Bs.SetShape([]int{out}, nil, nil)
	ln.Out.SetShape([]int{out}, nil, nil)
	ln.InitWeights(mat32.Sqrt(1 / float32(in)))
}

// InitWeights draws all weights and biases from uniform(-rng, rng).
func (ln *Linear) InitWeights(rng float32) {
	for i := range ln.Wt.Values {
		ln.Wt.Values[i] = (rand.Float32()*2 - 1) * rng
	}
	for i := range ln.Bs.Values {
		if ln.Bias {
			ln.Bs.Values[i] = (rand.Float32()*2 - 1) * rng
		} else {
			ln.Bs.Values[i] = 0
		}
	}
}

// Step computes W*x + b for one cycle of input.
func (ln *Linear) Step(x *etensor.Float32) *etensor.Float32 {
	for o := 0; o < ln.NOut; o++ {
		sum := ln.Bs.Values[o]
		row := ln.Wt.Values[o*ln.In : (o+1)*ln.In]
		for i, w := range row {
			sum += w * x.Values[i]
		}
		ln.Out.Values[o] = sum
	}
	return &ln.Out
}

// Reset is a no-op: Linear is stateless.
func (ln *Linear) Reset() {}

var KiT_Linear = kit.Types.AddType(&Linear{}, nil)
