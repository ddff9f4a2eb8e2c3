// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/goki/gi/gi"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spikingflow/spikingflow/clockdriven/neuron"
)

// lifParams holds the single-neuron demo configuration: a constant
// drive switched on and off at fixed cycles, as in the classic
// input-on / input-off neuron exploration.
type lifParams struct {
	NCycles  int     `desc:"total number of cycles to run"`
	OnCycle  int     `desc:"cycle the input turns on"`
	OffCycle int     `desc:"cycle the input turns off"`
	Ge       float32 `desc:"input drive while on"`
	Tau      float32 `desc:"membrane time constant"`
	Thr      float32 `desc:"firing threshold"`
	Soft     bool    `desc:"subtract the threshold at spike instead of resetting"`
	Output   string  `desc:"output .tsv file"`
}

func (lp *lifParams) Defaults() {
	lp.NCycles = 200
	lp.OnCycle = 10
	lp.OffCycle = 160
	lp.Ge = 1.5
	lp.Tau = 10
	lp.Thr = 1
	lp.Output = "lif_cycles.tsv"
}

func lifCmd() *cobra.Command {
	lp := &lifParams{}
	lp.Defaults()
	cmd := &cobra.Command{
		Use:   "lif",
		Short: "run a single LIF neuron with input switched on and off, logging each cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLIF(lp)
		},
	}
	lp.AddFlags(cmd.Flags())
	return cmd
}

// AddFlags registers the demo's flags.
func (lp *lifParams) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&lp.NCycles, "cycles", lp.NCycles, "total number of cycles to run")
	fs.IntVar(&lp.OnCycle, "on", lp.OnCycle, "cycle the input turns on")
	fs.IntVar(&lp.OffCycle, "off", lp.OffCycle, "cycle the input turns off")
	fs.Float32Var(&lp.Ge, "ge", lp.Ge, "input drive while on")
	fs.Float32Var(&lp.Tau, "tau", lp.Tau, "membrane time constant")
	fs.Float32Var(&lp.Thr, "thr", lp.Thr, "firing threshold")
	fs.BoolVar(&lp.Soft, "soft", lp.Soft, "soft reset: subtract threshold at spike")
	fs.StringVarP(&lp.Output, "output", "o", lp.Output, "output .tsv file")
}

func runLIF(lp *lifParams) error {
	nd := &neuron.LIFNode{}
	nd.Defaults()
	nd.Tau = lp.Tau
	nd.VThreshold = lp.Thr
	nd.SoftReset = lp.Soft
	nd.Init([]int{1})

	dt := &etable.Table{}
	sch := etable.Schema{
		{Name: "Cycle", Type: etensor.INT64, CellShape: nil, DimNames: nil},
		{Name: "Ge", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
		{Name: "V", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
		{Name: "Spike", Type: etensor.FLOAT64, CellShape: nil, DimNames: nil},
	}
	dt.SetFromSchema(sch, lp.NCycles)

	dv := etensor.NewFloat32([]int{1}, nil, nil)
	inputOn := false
	nspk := 0
	for cyc := 0; cyc < lp.NCycles; cyc++ {
		switch cyc {
		case lp.OnCycle:
			inputOn = true
		case lp.OffCycle:
			inputOn = false
		}
		if inputOn {
			dv.Values[0] = lp.Ge
		} else {
			dv.Values[0] = 0
		}
		spikes := nd.Step(dv)
		if spikes.Values[0] > 0 {
			nspk++
		}
		dt.SetCellFloat("Cycle", cyc, float64(cyc))
		dt.SetCellFloat("Ge", cyc, float64(dv.Values[0]))
		dt.SetCellFloat("V", cyc, float64(nd.V.Values[0]))
		dt.SetCellFloat("Spike", cyc, float64(spikes.Values[0]))
	}

	if err := dt.SaveCSV(gi.FileName(lp.Output), etable.Tab, etable.Headers); err != nil {
		return err
	}
	log.Infof("ran %d cycles, %d spikes, wrote %s", lp.NCycles, nspk, lp.Output)
	return nil
}
