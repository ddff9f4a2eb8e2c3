// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eventdriven implements event-driven simulation, where network
// state advances only when a spike arrives rather than on a fixed clock.
package eventdriven

import (
	"container/heap"
)

// SpikeEvent is one input spike: Unit fired at Time.
type SpikeEvent struct {
	Time float32 `desc:"spike time"`
	Unit int     `desc:"index of the unit that fired"`
}

// Queue is a min-heap of spike events ordered by time, so events pop in
// nondecreasing time order regardless of push order.
type Queue struct {
	evs []SpikeEvent
}

// NewQueue returns a queue seeded with the given events.
func NewQueue(evs ...SpikeEvent) *Queue {
	q := &Queue{evs: append([]SpikeEvent{}, evs...)}
	heap.Init(q)
	return q
}

// Push adds an event.
func (q *Queue) Push(x interface{}) {
	q.evs = append(q.evs, x.(SpikeEvent))
}

// Pop removes and returns the last element, for use by package heap.
func (q *Queue) Pop() interface{} {
	n := len(q.evs)
	ev := q.evs[n-1]
	q.evs = q.evs[:n-1]
	return ev
}

func (q *Queue) Len() int           { return len(q.evs) }
func (q *Queue) Less(i, j int) bool { return q.evs[i].Time < q.evs[j].Time }
func (q *Queue) Swap(i, j int)      { q.evs[i], q.evs[j] = q.evs[j], q.evs[i] }

// PushEvent adds a spike event maintaining heap order.
func (q *Queue) PushEvent(ev SpikeEvent) {
	heap.Push(q, ev)
}

// PopEvent removes and returns the earliest event.
func (q *Queue) PopEvent() SpikeEvent {
	return heap.Pop(q).(SpikeEvent)
}

// Drain pops all events into a slice in nondecreasing time order.
func (q *Queue) Drain() []SpikeEvent {
	out := make([]SpikeEvent, 0, q.Len())
	for q.Len() > 0 {
		out = append(out, q.PopEvent())
	}
	return out
}
