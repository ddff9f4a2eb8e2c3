// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neuron

import (
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constInput(shape []int, val float32) *etensor.Float32 {
	dv := etensor.NewFloat32(shape, nil, nil)
	for i := range dv.Values {
		dv.Values[i] = val
	}
	return dv
}

func TestIFIntegration(t *testing.T) {
	nd := &IFNode{}
	nd.Defaults()
	dv := constInput([]int{4}, 0.3)

	s := nd.Step(dv)
	require.Equal(t, 4, s.Len())
	assert.Equal(t, float32(0), s.Values[0])
	assert.InDelta(t, 0.3, float64(nd.V.Values[0]), 1e-6)

	nd.Step(dv)
	assert.InDelta(t, 0.6, float64(nd.V.Values[0]), 1e-6)

	nd.Step(dv)
	assert.InDelta(t, 0.9, float64(nd.V.Values[0]), 1e-6)

	// 4th step reaches 1.2 >= threshold 1: fire and hard-reset to 0
	s = nd.Step(dv)
	assert.Equal(t, float32(1), s.Values[0])
	assert.Equal(t, float32(0), nd.V.Values[0])
}

func TestIFSoftReset(t *testing.T) {
	nd := &IFNode{}
	nd.Defaults()
	nd.SoftReset = true
	dv := constInput([]int{1}, 0.6)

	nd.Step(dv)
	s := nd.Step(dv) // v = 1.2 -> fire, subtract threshold
	require.Equal(t, float32(1), s.Values[0])
	assert.InDelta(t, 0.2, float64(nd.V.Values[0]), 1e-6)
}

func TestLIFDecay(t *testing.T) {
	nd := &LIFNode{}
	nd.Defaults()
	nd.Tau = 10
	nd.VReset = 0.2
	nd.Init([]int{1})
	require.Equal(t, float32(0.2), nd.V.Values[0])

	// drive up, then let it decay back toward VReset
	drive := constInput([]int{1}, 5)
	nd.Step(drive)
	zero := constInput([]int{1}, 0)
	nd.Step(zero)
	v1 := nd.V.Values[0]
	nd.Step(zero)
	v2 := nd.V.Values[0]
	for i := 0; i < 500; i++ {
		nd.Step(zero)
	}
	assert.LessOrEqual(t, v2, v1)
	assert.InDelta(t, 0.2, float64(nd.V.Values[0]), 1e-3)
}

func TestLIFSubthresholdStep(t *testing.T) {
	nd := &LIFNode{}
	nd.Defaults()
	nd.Tau = 100
	dv := constInput([]int{1}, 0.5)
	nd.Step(dv)
	// v += (dv - (v - 0)) / tau with v starting at 0
	assert.InDelta(t, 0.005, float64(nd.V.Values[0]), 1e-6)
}

func TestLIFSoftResetLeak(t *testing.T) {
	nd := &LIFNode{}
	nd.Defaults()
	nd.Tau = 2
	nd.SoftReset = true
	nd.VReset = 0.5 // must not enter the dynamics under soft reset
	nd.Init([]int{1})
	require.Equal(t, float32(0), nd.V.Values[0])

	// drive to a subthreshold voltage, then decay with no input
	nd.Step(constInput([]int{1}, 1))
	assert.InDelta(t, 0.5, float64(nd.V.Values[0]), 1e-6)
	zero := constInput([]int{1}, 0)
	nd.Step(zero)
	assert.InDelta(t, 0.25, float64(nd.V.Values[0]), 1e-6)
	for i := 0; i < 200; i++ {
		nd.Step(zero)
	}
	// the leak pulls toward 0, not VReset
	assert.InDelta(t, 0, float64(nd.V.Values[0]), 1e-5)
}

func TestPLIFSoftResetLeak(t *testing.T) {
	nd := &PLIFNode{}
	nd.Defaults() // tau = 2
	nd.SoftReset = true
	nd.VReset = 0.5
	zero := constInput([]int{1}, 0)
	nd.Step(constInput([]int{1}, 1))
	for i := 0; i < 200; i++ {
		nd.Step(zero)
	}
	assert.InDelta(t, 0, float64(nd.V.Values[0]), 1e-5)
}

func TestRIFSoftResetLeak(t *testing.T) {
	nd := &RIFNode{}
	nd.Defaults()
	nd.SetW(-0.5)
	nd.SoftReset = true
	nd.VReset = 0.5
	zero := constInput([]int{1}, 0)
	nd.Step(constInput([]int{1}, 0.8))
	for i := 0; i < 200; i++ {
		nd.Step(zero)
	}
	assert.InDelta(t, 0, float64(nd.V.Values[0]), 1e-5)
}

func TestPLIFMatchesLIF(t *testing.T) {
	lif := &LIFNode{}
	lif.Defaults()
	lif.Tau = 2

	plif := &PLIFNode{}
	plif.Defaults() // init tau = 2

	require.InDelta(t, 2, float64(plif.Tau()), 1e-5)

	dv := constInput([]int{3}, 0.4)
	for i := 0; i < 20; i++ {
		lif.Step(dv)
		plif.Step(dv)
		for j := range lif.V.Values {
			assert.InDelta(t, float64(lif.V.Values[j]), float64(plif.V.Values[j]), 1e-5)
		}
	}
}

func TestPLIFClampInverse(t *testing.T) {
	for _, fn := range []ClampFunc{PiecewiseExp, ClampSigmoid, ReciprocalAbsPlus1} {
		for _, tau := range []float32{1.5, 2, 3, 10} {
			if fn == ClampSigmoid && tau <= 1 {
				continue
			}
			nd := &PLIFNode{Clamp: true, Fn: fn}
			nd.NodeParams.Defaults()
			nd.SetTau(tau)
			assert.InDelta(t, float64(tau), float64(nd.Tau()), 1e-3, "fn=%v tau=%v", fn, tau)
		}
	}
}

func TestRIFWeightMapping(t *testing.T) {
	nd := &RIFNode{}
	nd.Defaults()
	assert.InDelta(t, -1e-3, float64(nd.W()), 1e-6)

	nd.SetAmplitude(0.5)
	nd.SetW(0.1)
	assert.InDelta(t, 0.1, float64(nd.W()), 1e-4)
	assert.Greater(t, nd.W(), float32(-0.5))
	assert.Less(t, nd.W(), float32(0.5))
}

func TestRIFDynamics(t *testing.T) {
	nd := &RIFNode{}
	nd.Defaults()
	nd.SetW(-0.1)
	dv := constInput([]int{1}, 0.3)
	nd.Step(dv)
	// v = (0 - 0) * w + 0.3
	assert.InDelta(t, 0.3, float64(nd.V.Values[0]), 1e-6)
	nd.Step(dv)
	// v = 0.3 + 0.3*(-0.1) + 0.3
	assert.InDelta(t, 0.57, float64(nd.V.Values[0]), 1e-6)
}

func TestMonitor(t *testing.T) {
	nd := &IFNode{}
	nd.Defaults()
	nd.Monitor.On = true
	dv := constInput([]int{2}, 0.6)

	nd.Step(dv)
	nd.Step(dv)

	// first step prepends t=0 voltage, then each step records pre-fire V,
	// spikes, post-reset V
	require.Len(t, nd.Monitor.S, 2)
	require.Len(t, nd.Monitor.V, 5)
	assert.Equal(t, float32(0), nd.Monitor.V[0].Values[0])
	assert.InDelta(t, 0.6, float64(nd.Monitor.V[1].Values[0]), 1e-6)
	assert.Equal(t, float32(0), nd.Monitor.S[0].Values[0])
	assert.Equal(t, float32(1), nd.Monitor.S[1].Values[0])
	// post-reset voltage after firing
	assert.Equal(t, float32(0), nd.Monitor.V[4].Values[0])

	nd.Reset()
	assert.Nil(t, nd.Monitor.V)
	assert.Nil(t, nd.Monitor.S)
	assert.Equal(t, float32(0), nd.V.Values[0])
}

func TestLazyInit(t *testing.T) {
	nd := &LIFNode{}
	nd.Defaults()
	dv := constInput([]int{2, 3}, 0.1)
	s := nd.Step(dv)
	require.Equal(t, []int{2, 3}, nd.V.Shp)
	require.Equal(t, 6, s.Len())

	// same element count, different shape: state follows the input shape
	s = nd.Step(constInput([]int{3, 2}, 0.1))
	require.Equal(t, []int{3, 2}, nd.V.Shp)
	require.Equal(t, []int{3, 2}, s.Shp)
}
