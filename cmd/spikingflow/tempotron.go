// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"math/rand"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spikingflow/spikingflow/eventdriven"
)

// tempotronParams configures the synthetic latency-pattern training
// demo: two classes of fixed random spike time patterns, jittered per
// presentation.
type tempotronParams struct {
	Units    int     `desc:"number of input synapses"`
	Patterns int     `desc:"presentations per class per epoch"`
	Epochs   int     `desc:"training epochs"`
	LRate    float32 `desc:"learning rate"`
	TMax     float32 `desc:"simulated run duration"`
	TSteps   int     `desc:"voltage scan grid resolution"`
	Jitter   float32 `desc:"spike time jitter per presentation"`
	Seed     int64   `desc:"random seed"`
}

func (tp *tempotronParams) Defaults() {
	tp.Units = 16
	tp.Patterns = 10
	tp.Epochs = 30
	tp.LRate = 0.05
	tp.TMax = 50
	tp.TSteps = 500
	tp.Jitter = 1
	tp.Seed = 1
}

func tempotronCmd() *cobra.Command {
	tp := &tempotronParams{}
	tp.Defaults()
	cmd := &cobra.Command{
		Use:   "tempotron",
		Short: "train a tempotron on synthetic latency-coded patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			runTempotron(tp)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&tp.Units, "units", tp.Units, "number of input synapses")
	fs.IntVar(&tp.Patterns, "patterns", tp.Patterns, "presentations per class per epoch")
	fs.IntVar(&tp.Epochs, "epochs", tp.Epochs, "training epochs")
	fs.Float32Var(&tp.LRate, "lrate", tp.LRate, "learning rate")
	fs.Float32Var(&tp.TMax, "tmax", tp.TMax, "simulated run duration")
	fs.Float32Var(&tp.Jitter, "jitter", tp.Jitter, "spike time jitter per presentation")
	fs.Int64Var(&tp.Seed, "seed", tp.Seed, "random seed")
	return cmd
}

// basePattern draws one spike per unit at a uniform random time over
// the first half of the run, leaving room for the voltage to peak.
func basePattern(tp *tempotronParams) []eventdriven.SpikeEvent {
	evs := make([]eventdriven.SpikeEvent, tp.Units)
	for i := range evs {
		evs[i] = eventdriven.SpikeEvent{Time: rand.Float32() * tp.TMax / 2, Unit: i}
	}
	return evs
}

// jittered copies a pattern with per-spike time noise, clipped at 0.
func jittered(base []eventdriven.SpikeEvent, jitter float32) *eventdriven.Queue {
	q := eventdriven.NewQueue()
	for _, ev := range base {
		t := ev.Time + (rand.Float32()*2-1)*jitter
		if t < 0 {
			t = 0
		}
		q.PushEvent(eventdriven.SpikeEvent{Time: t, Unit: ev.Unit})
	}
	return q
}

func runTempotron(tp *tempotronParams) {
	rand.Seed(tp.Seed)
	nrn := &eventdriven.Tempotron{}
	nrn.Config(tp.Units)

	pos := basePattern(tp)
	neg := basePattern(tp)

	for epoch := 0; epoch < tp.Epochs; epoch++ {
		correct := 0
		total := 0
		for p := 0; p < tp.Patterns; p++ {
			if nrn.Train(jittered(pos, tp.Jitter), true, tp.LRate, tp.TMax, tp.TSteps) {
				correct++
			}
			if nrn.Train(jittered(neg, tp.Jitter), false, tp.LRate, tp.TMax, tp.TSteps) {
				correct++
			}
			total += 2
		}
		log.Infof("epoch %d: accuracy %.3f", epoch, float64(correct)/float64(total))
	}
}
