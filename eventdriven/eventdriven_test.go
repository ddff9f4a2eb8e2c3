// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventdriven

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	q := NewQueue(
		SpikeEvent{Time: 5, Unit: 0},
		SpikeEvent{Time: 1, Unit: 1},
		SpikeEvent{Time: 3, Unit: 2},
	)
	q.PushEvent(SpikeEvent{Time: 2, Unit: 3})
	q.PushEvent(SpikeEvent{Time: 4, Unit: 4})

	require.Equal(t, 5, q.Len())
	last := float32(-1)
	for q.Len() > 0 {
		ev := q.PopEvent()
		assert.GreaterOrEqual(t, ev.Time, last)
		last = ev.Time
	}
}

func TestPSPKernel(t *testing.T) {
	tp := &Tempotron{}
	tp.Defaults()

	assert.Equal(t, float32(0), tp.PSP(-1))
	assert.InDelta(t, 0, float64(tp.PSP(0)), 1e-6)
	// peak is normalized to 1 at TPeak
	assert.InDelta(t, 1, float64(tp.PSP(tp.TPeak)), 1e-3)
	assert.Less(t, tp.PSP(tp.TPeak+5), tp.PSP(tp.TPeak))
	assert.Less(t, tp.PSP(1), tp.PSP(tp.TPeak))
}

func TestTempotronVoltage(t *testing.T) {
	tp := &Tempotron{}
	tp.Config(2)
	tp.W.Values[0] = 1
	tp.W.Values[1] = 0.5

	evs := []SpikeEvent{{Time: 0, Unit: 0}, {Time: 0, Unit: 1}}
	v := tp.Voltage(evs, tp.TPeak)
	assert.InDelta(t, 1.5, float64(v), 1e-3)
	// nothing arrives before the spikes
	assert.Equal(t, float32(0), tp.Voltage(evs, -1))
}

func TestTempotronForward(t *testing.T) {
	tp := &Tempotron{}
	tp.Config(1)
	tp.W.Values[0] = 2

	fired, vPeak, tAtPeak := tp.Forward(NewQueue(SpikeEvent{Time: 10, Unit: 0}), 100, 1000)
	assert.True(t, fired)
	assert.InDelta(t, 2, float64(vPeak), 1e-2)
	assert.InDelta(t, float64(10+tp.TPeak), float64(tAtPeak), 0.2)

	tp.W.Values[0] = 0.5
	fired, vPeak, _ = tp.Forward(NewQueue(SpikeEvent{Time: 10, Unit: 0}), 100, 1000)
	assert.False(t, fired)
	assert.InDelta(t, 0.5, float64(vPeak), 1e-2)
}

func TestTempotronTrain(t *testing.T) {
	rand.Seed(11)
	tp := &Tempotron{}
	tp.Config(4)

	// two disjoint spike patterns, one per class
	pos := []SpikeEvent{{Time: 2, Unit: 0}, {Time: 4, Unit: 1}}
	neg := []SpikeEvent{{Time: 2, Unit: 2}, {Time: 4, Unit: 3}}

	for epoch := 0; epoch < 200; epoch++ {
		tp.Train(NewQueue(pos...), true, 0.1, 50, 500)
		tp.Train(NewQueue(neg...), false, 0.1, 50, 500)
	}
	fired, _, _ := tp.Forward(NewQueue(pos...), 50, 500)
	assert.True(t, fired)
	fired, _, _ = tp.Forward(NewQueue(neg...), 50, 500)
	assert.False(t, fired)
}
