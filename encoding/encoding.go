// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package encoding converts static stimuli into spike trains for
// clock-driven simulation.
package encoding

import (
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// PoissonEncoder emits Bernoulli spikes with per-unit firing probability
// equal to the input intensity, which must be in [0, 1].  Successive
// steps on the same input give an approximately Poisson spike train.
type PoissonEncoder struct {
	Out etensor.Float32 `view:"no-inline" desc:"spikes from the last Step"`
}

// Step draws one cycle of spikes from intensity tensor x.
func (pe *PoissonEncoder) Step(x *etensor.Float32) *etensor.Float32 {
	if pe.Out.Len() != x.Len() {
		pe.Out.SetShape(x.Shp, nil, nil)
	}
	for i, v := range x.Values {
		if erand.BoolP(float64(v), -1) {
			pe.Out.Values[i] = 1
		} else {
			pe.Out.Values[i] = 0
		}
	}
	return &pe.Out
}

// Reset is a no-op: PoissonEncoder is stateless.
func (pe *PoissonEncoder) Reset() {}

// LatencyEncoder encodes intensity as spike timing over a run of T
// cycles: stronger inputs fire earlier.  Each unit spikes exactly once,
// at cycle round((T-1) * (1 - x)) for intensity x in [0, 1].  Encode
// latches the input; Step then emits the spikes for successive cycles.
type LatencyEncoder struct {
	T     int             `desc:"number of cycles in the encoded run"`
	Cycle int             `inactive:"+" desc:"next cycle Step will emit"`
	Spike etensor.Int32   `view:"no-inline" desc:"encoded spike cycle per unit"`
	Out   etensor.Float32 `view:"no-inline" desc:"spikes from the last Step"`
}

// Encode computes the spike cycle for every unit of x and rewinds to
// cycle 0.
func (le *LatencyEncoder) Encode(x *etensor.Float32) {
	if le.Spike.Len() != x.Len() {
		le.Spike.SetShape(x.Shp, nil, nil)
		le.Out.SetShape(x.Shp, nil, nil)
	}
	tm := float32(le.T - 1)
	for i, v := range x.Values {
		le.Spike.Values[i] = int32(mat32.Round(tm * (1 - v)))
	}
	le.Cycle = 0
}

// Step emits the spike tensor for the current cycle and advances.  After
// T cycles the encoder wraps around and replays the same run.
func (le *LatencyEncoder) Step() *etensor.Float32 {
	for i, sc := range le.Spike.Values {
		if int(sc) == le.Cycle {
			le.Out.Values[i] = 1
		} else {
			le.Out.Values[i] = 0
		}
	}
	le.Cycle++
	if le.Cycle >= le.T {
		le.Cycle = 0
	}
	return &le.Out
}

// Reset rewinds to cycle 0, keeping the encoded input.
func (le *LatencyEncoder) Reset() {
	le.Cycle = 0
}

var (
	KiT_PoissonEncoder = kit.Types.AddType(&PoissonEncoder{}, nil)
	KiT_LatencyEncoder = kit.Types.AddType(&LatencyEncoder{}, nil)
)
