// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clockdriven_test

import (
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spikingflow/spikingflow/clockdriven"
	"github.com/spikingflow/spikingflow/clockdriven/layer"
	"github.com/spikingflow/spikingflow/clockdriven/neuron"
)

func TestSequential(t *testing.T) {
	nd := &neuron.IFNode{}
	nd.Defaults()
	lp := &layer.LowPassSynapse{}
	lp.Defaults()
	lp.Tau = 10
	lp.Update()

	net := clockdriven.NewSequential(nd, lp)
	require.Len(t, net.Stages, 2)

	dv := etensor.NewFloat32([]int{1}, nil, nil)
	dv.Values[0] = 1

	// IF with unit drive fires every step, so the synapse current climbs
	out := net.Step(dv)
	assert.InDelta(t, 1, float64(out.Values[0]), 1e-6)
	out = net.Step(dv)
	assert.Greater(t, out.Values[0], float32(1))

	net.Reset()
	assert.Equal(t, float32(0), lp.I.Values[0])
	out = net.Step(dv)
	assert.InDelta(t, 1, float64(out.Values[0]), 1e-6)
}
