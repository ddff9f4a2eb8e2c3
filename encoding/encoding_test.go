// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encoding

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoissonEncoderExtremes(t *testing.T) {
	pe := &PoissonEncoder{}
	x := etensor.NewFloat32([]int{2}, nil, nil)
	x.Values[0] = 0
	x.Values[1] = 1
	for i := 0; i < 10; i++ {
		out := pe.Step(x)
		assert.Equal(t, float32(0), out.Values[0])
		assert.Equal(t, float32(1), out.Values[1])
	}
}

func TestPoissonEncoderRate(t *testing.T) {
	rand.Seed(3)
	pe := &PoissonEncoder{}
	x := etensor.NewFloat32([]int{1}, nil, nil)
	x.Values[0] = 0.25
	n := 0
	for i := 0; i < 1000; i++ {
		if pe.Step(x).Values[0] == 1 {
			n++
		}
	}
	assert.InDelta(t, 250, float64(n), 60)
}

func TestLatencyEncoder(t *testing.T) {
	le := &LatencyEncoder{T: 5}
	x := etensor.NewFloat32([]int{3}, nil, nil)
	copy(x.Values, []float32{1, 0.5, 0})
	le.Encode(x)
	// spike cycles: (T-1)*(1-x) = 0, 2, 4
	want := [][]float32{
		{1, 0, 0},
		{0, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
		{0, 0, 1},
	}
	for tc, w := range want {
		out := le.Step()
		assert.Equal(t, w, out.Values, "cycle %d", tc)
	}
	// wraps around and replays
	out := le.Step()
	assert.Equal(t, want[0], out.Values)

	le.Reset()
	out = le.Step()
	assert.Equal(t, want[0], out.Values)
}

func TestLatencyEncoderSingleSpike(t *testing.T) {
	le := &LatencyEncoder{T: 8}
	x := etensor.NewFloat32([]int{16}, nil, nil)
	for i := range x.Values {
		x.Values[i] = rand.Float32()
	}
	le.Encode(x)
	counts := make([]int, 16)
	for tc := 0; tc < 8; tc++ {
		out := le.Step()
		for i, v := range out.Values {
			if v == 1 {
				counts[i]++
			}
		}
	}
	for i, n := range counts {
		assert.Equal(t, 1, n, "unit %d spikes exactly once", i)
	}
}

func TestGaborEncoder(t *testing.T) {
	ge := &GaborEncoder{}
	ge.Defaults()

	img := image.NewGray(image.Rect(0, 0, 64, 64))
	// vertical bars give the oriented filters something to respond to
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x/4)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	rate := ge.Encode(img)
	require.Greater(t, rate.Len(), 0)
	mx := float32(0)
	for _, v := range rate.Values {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
		if v > mx {
			mx = v
		}
	}
	assert.Equal(t, float32(1), mx)
}
